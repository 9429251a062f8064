// Package main wires together the primestress binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/primestress/primestress/internal/api"
	"github.com/primestress/primestress/internal/arith/gobig"
	"github.com/primestress/primestress/internal/clock/system"
	"github.com/primestress/primestress/internal/config"
	"github.com/primestress/primestress/internal/harness"
	"github.com/primestress/primestress/internal/logging"
	"github.com/primestress/primestress/internal/progress"
	"github.com/primestress/primestress/internal/progress/sinks"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()

	var sinkList []progress.Sink
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return fmt.Errorf("build prometheus sink: %w", err)
	}
	sinkList = append(sinkList, promSink)
	if cfg.Events.Log {
		sinkList = append(sinkList, sinks.NewLogSink(logger.Named("events")))
	}
	hub := progress.NewHub(progress.Config{
		BufferSize: cfg.Events.Buffer,
		Logger:     logger.Named("hub"),
	}, sinkList...)

	h, err := harness.New(harness.Config{
		Workers:          cfg.Run.Workers,
		Method:           cfg.Method(),
		Progress:         cfg.Prime.Progress,
		ProgressInterval: cfg.ProgressInterval(),
		OpsBudget:        cfg.Run.Ops,
		RunFor:           cfg.RunFor(),
		Grace:            cfg.Grace(),
	}, gobig.New(), system.New(), hub, logger)
	if err != nil {
		return fmt.Errorf("build harness: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan struct{})

	// First signal asks the workers to stop at the next iteration
	// boundary; a second one forces them out of whatever search they
	// are stuck in.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("signal received, stopping", zap.String("signal", sig.String()))
			cancel()
		case <-runDone:
			return
		}
		select {
		case sig := <-sigCh:
			logger.Warn("second signal received, forcing exit", zap.String("signal", sig.String()))
			h.ForceStop()
		case <-runDone:
		}
	}()

	if cfg.Server.Enabled {
		srv := api.NewServer(h, registry, logger.Named("api"))
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		go func() {
			logger.Info("status server listening", zap.String("addr", addr))
			if err := srv.Run(ctx, addr); err != nil {
				logger.Error("status server failed", zap.Error(err))
			}
		}()
	}

	summary, err := h.Run(ctx)
	close(runDone)
	if err != nil {
		return fmt.Errorf("run harness: %w", err)
	}
	cancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.Grace())
	defer closeCancel()
	if err := hub.Close(closeCtx); err != nil {
		logger.Warn("event hub close failed", zap.Error(err))
	}

	if summary.ForcedExits > 0 {
		logger.Warn("some workers were forced out mid-search",
			zap.Int("forced_exits", summary.ForcedExits))
	}
	return nil
}
