package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"TechWatch/internal/domain"
	"TechWatch/internal/ports"
)

const defaultAlertWindow = 2 * time.Hour

// AlertReport summarizes one alert-gate run.
type AlertReport struct {
	Selected   int
	Dispatched int
	Skipped    int
	Failed     int
}

// AlertGateDeps wires the alert gate's collaborators.
type AlertGateDeps struct {
	Repository ports.AlertRepository
	Transport  ports.AlertTransport
	Recipients []string
	Window     time.Duration
	Clock      func() time.Time
	Logger     *slog.Logger
}

// AlertGate selects newly-classified critical articles that have not been
// notified yet, dispatches them, and records the notification. The unique
// (article, alert type) insert is the sole duplicate guard, so overlapping
// gate runs send at most one notification per article.
type AlertGate struct {
	repository ports.AlertRepository
	transport  ports.AlertTransport
	recipients []string
	window     time.Duration
	clock      func() time.Time
	logger     *slog.Logger
}

// NewAlertGate constructs the gate.
func NewAlertGate(deps AlertGateDeps) *AlertGate {
	gate := &AlertGate{
		repository: deps.Repository,
		transport:  deps.Transport,
		recipients: deps.Recipients,
		window:     deps.Window,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
	if gate.window <= 0 {
		gate.window = defaultAlertWindow
	}
	if gate.clock == nil {
		gate.clock = time.Now
	}
	return gate
}

// Run processes all pending critical alerts once. Articles already marked by
// a concurrent run are skipped silently.
func (g *AlertGate) Run(ctx context.Context) (AlertReport, error) {
	var report AlertReport

	if g.repository == nil {
		return report, fmt.Errorf("alert repository is not configured")
	}

	pending, err := g.repository.SelectUnnotifiedCritical(ctx, g.window)
	if err != nil {
		return report, fmt.Errorf("select unnotified critical: %w", err)
	}
	report.Selected = len(pending)
	g.debug("alert gate start", "pending", len(pending))

	for _, article := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if g.transport == nil {
			g.warn("alert transport not configured, skipping dispatch", "source_id", article.SourceID)
			report.Skipped++
			continue
		}

		if err := g.transport.Dispatch(ctx, article, g.recipients); err != nil {
			g.warn("dispatch alert", "source_id", article.SourceID, "error", err)
			report.Failed++
			continue
		}

		notification := domain.AlertNotification{
			ProcessedArticleID: article.ID,
			AlertType:          domain.AlertCritical,
			Recipients:         g.recipients,
			SentAt:             g.clock().UTC(),
			Status:             domain.NotificationSent,
		}

		switch err := g.repository.MarkNotified(ctx, notification); {
		case err == nil:
			report.Dispatched++
		case errors.Is(err, ports.ErrAlreadyNotified):
			// Lost the race to a concurrent gate run; the duplicate key is a
			// no-op signal, not an error.
			report.Skipped++
		default:
			g.warn("mark notified", "source_id", article.SourceID, "error", err)
			report.Failed++
		}
	}

	g.debug("alert gate done", "dispatched", report.Dispatched, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (g *AlertGate) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

func (g *AlertGate) warn(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}
