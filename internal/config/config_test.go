package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/primestress/primestress/internal/prime"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Prime.Method != "inc" {
		t.Fatalf("expected default method inc, got %q", cfg.Prime.Method)
	}
	if cfg.Run.Workers != 1 {
		t.Fatalf("expected default workers 1, got %d", cfg.Run.Workers)
	}
	if got := cfg.ProgressInterval(); got != 60*time.Second {
		t.Fatalf("expected progress interval 60s, got %v", got)
	}
	if got := cfg.Grace(); got != 5*time.Second {
		t.Fatalf("expected grace 5s, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
prime:
  method: factorial
  progress: true
  progress_interval_seconds: 30
run:
  workers: 4
  seconds: 120
  ops: 1000
  grace_seconds: 10
server:
  enabled: true
  port: 9090
events:
  log: true
  buffer: 256
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Method() != prime.MethodFactorial {
		t.Fatalf("expected factorial method, got %q", cfg.Method())
	}
	if !cfg.Prime.Progress || cfg.ProgressInterval() != 30*time.Second {
		t.Fatalf("expected progress overrides to apply: %+v", cfg.Prime)
	}
	if cfg.Run.Workers != 4 || cfg.Run.Ops != 1000 {
		t.Fatalf("expected run overrides to apply: %+v", cfg.Run)
	}
	if got := cfg.RunFor(); got != 120*time.Second {
		t.Fatalf("expected run budget 120s, got %v", got)
	}
	if !cfg.Server.Enabled || cfg.Server.Port != 9090 {
		t.Fatalf("expected server overrides to apply: %+v", cfg.Server)
	}
	if !cfg.Events.Log || cfg.Events.Buffer != 256 {
		t.Fatalf("expected event overrides to apply: %+v", cfg.Events)
	}
	if cfg.Logging.Development {
		t.Fatalf("expected production logging")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Prime: PrimeConfig{Method: "inc", ProgressIntervalSeconds: 60},
		Run:   RunConfig{Workers: 1, GraceSeconds: 5},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "unknown method",
			cfg: func() Config {
				c := base
				c.Prime.Method = "fibonacci"
				return c
			}(),
			want: "prime.method",
		},
		{
			name: "invalid progress interval",
			cfg: func() Config {
				c := base
				c.Prime.ProgressIntervalSeconds = 0
				return c
			}(),
			want: "prime.progress_interval_seconds",
		},
		{
			name: "invalid workers",
			cfg: func() Config {
				c := base
				c.Run.Workers = 0
				return c
			}(),
			want: "run.workers",
		},
		{
			name: "negative run budget",
			cfg: func() Config {
				c := base
				c.Run.Seconds = -1
				return c
			}(),
			want: "run.seconds",
		},
		{
			name: "invalid grace",
			cfg: func() Config {
				c := base
				c.Run.GraceSeconds = 0
				return c
			}(),
			want: "run.grace_seconds",
		},
		{
			name: "server enabled without port",
			cfg: func() Config {
				c := base
				c.Server.Enabled = true
				return c
			}(),
			want: "server.port",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
