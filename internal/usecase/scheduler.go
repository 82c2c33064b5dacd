package usecase

import (
	"context"
	"log/slog"
	"time"

	"TechWatch/internal/ports"
)

// Runner binds the cooperative scheduler to the two idempotent pipeline
// operations. Each trigger runs the batch first and the alert gate second, so
// persistence of a processed article happens before it becomes visible to the
// gate. Overlapping triggers stay safe through the upsert and unique
// notification invariants alone.
type Runner struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	gate     *AlertGate
	logger   *slog.Logger
}

// NewRunner returns a helper to start/stop recurring runs.
func NewRunner(driver ports.Scheduler, pipeline *Pipeline, gate *AlertGate, logger *slog.Logger) *Runner {
	return &Runner{driver: driver, pipeline: pipeline, gate: gate, logger: logger}
}

// Start registers the combined job with the provided scheduler.
func (r *Runner) Start(ctx context.Context) error {
	if r.driver == nil || r.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report, err := r.pipeline.ProcessBatch(ctx)
		if err != nil {
			r.warn("scheduled batch failed", "error", err)
			return
		}

		var alerts AlertReport
		if r.gate != nil {
			if alerts, err = r.gate.Run(ctx); err != nil {
				r.warn("scheduled alert gate failed", "error", err)
				return
			}
		}

		r.info("scheduled run done", "trigger", trigger.Format(time.RFC3339),
			"fetched", report.Fetched, "persisted", report.Persisted, "failed", report.Failed,
			"notified", alerts.Dispatched, "alerts_skipped", alerts.Skipped, "alerts_failed", alerts.Failed)
	}

	return r.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (r *Runner) Stop(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}
	return r.driver.Stop(ctx)
}

func (r *Runner) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
