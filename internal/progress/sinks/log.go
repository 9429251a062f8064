package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/primestress/primestress/internal/progress"
)

// LogSink emits structured logs for the benchmark event stream. It is
// useful during development or when no metrics backend is scraped.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.Int("instance", evt.Instance),
			zap.String("method", evt.Method),
			zap.Uint64("primes_found", evt.Ops),
			zap.Int("digits", evt.Digits),
			zap.Duration("search_time", evt.Dur),
		}
		if evt.Stage == progress.StageWorkerDone {
			fields = append(fields,
				zap.Float64("primes_per_second", evt.Rate),
				zap.Bool("forced_exit", evt.Forced),
			)
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		s.logger.Info("prime progress", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
