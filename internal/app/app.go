package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"TechWatch/internal/classify"
	"TechWatch/internal/config"
	"TechWatch/internal/infrastructure/llm"
	"TechWatch/internal/infrastructure/mail"
	"TechWatch/internal/infrastructure/scheduler"
	"TechWatch/internal/infrastructure/storage"
	"TechWatch/internal/logging"
	"TechWatch/internal/ports"
	"TechWatch/internal/summarize"
	"TechWatch/internal/usecase"
)

// Application wires configuration to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{cfg: cfg, logger: baseLogger}
}

// Run dispatches one of the idempotent operations: "process" enriches the
// next unprocessed batch, "alerts" runs the notification gate, "run" drives
// both on the recurring scheduler, "migrate" prepares the schema.
func (a *Application) Run(ctx context.Context, command string) error {
	db, err := storage.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	repository := storage.NewPostgresRepository(db)

	switch command {
	case "migrate":
		return repository.Migrate(ctx)
	case "process":
		report, err := a.pipeline(repository).ProcessBatch(ctx)
		if err != nil {
			return err
		}
		a.logReport(report)
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d articles failed", report.Failed, report.Fetched)
		}
		return nil
	case "alerts":
		report, err := a.alertGate(repository).Run(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("alert gate finished",
			"selected", report.Selected,
			"dispatched", report.Dispatched,
			"skipped", report.Skipped,
			"failed", report.Failed,
		)
		if report.Failed > 0 {
			return fmt.Errorf("%d alerts failed to dispatch", report.Failed)
		}
		return nil
	case "run":
		return a.runScheduled(ctx, repository)
	default:
		return fmt.Errorf("unknown command %q (want process, alerts, run, or migrate)", command)
	}
}

func (a *Application) pipeline(repository *storage.PostgresRepository) *usecase.Pipeline {
	table, err := classify.LoadTable(a.cfg.Lexicon.Path)
	if err != nil {
		a.logger.Warn("lexicon table unavailable, using built-in default", "error", err)
		table = classify.DefaultTable()
	}

	var generativeClassify ports.Classifier
	var generativeSummarize ports.Summarizer
	if a.cfg.OpenAI.APIKey != "" {
		chat := llm.NewOpenAIClient(a.cfg.OpenAI)
		generativeClassify = classify.NewGenerativeClassifier(chat)
		generativeSummarize = summarize.NewGenerativeSummarizer(chat)
	} else {
		a.logger.Warn("openai api key missing, keyword classification only")
	}

	return usecase.NewPipeline(usecase.PipelineDeps{
		Repository:          repository,
		GenerativeClassify:  generativeClassify,
		LexiconClassify:     classify.NewLexiconClassifier(table),
		GenerativeSummarize: generativeSummarize,
		BasicSummarize:      summarize.NewBasicSummarizer(),
		BatchLimit:          a.cfg.Pipeline.BatchLimit,
		Workers:             a.cfg.Pipeline.Workers,
		Logger:              a.logger.With("component", "pipeline"),
	})
}

func (a *Application) alertGate(repository *storage.PostgresRepository) *usecase.AlertGate {
	var transport ports.AlertTransport
	if a.cfg.SMTP.Username != "" && a.cfg.SMTP.Password != "" {
		transport = mail.NewNotifier(a.cfg.SMTP.Host, a.cfg.SMTP.Port,
			a.cfg.SMTP.Username, a.cfg.SMTP.Password, a.cfg.SMTP.FromName)
	} else {
		a.logger.Warn("smtp credentials missing, critical alerts disabled")
	}

	return usecase.NewAlertGate(usecase.AlertGateDeps{
		Repository: repository,
		Transport:  transport,
		Recipients: a.cfg.Alerts.Recipients,
		Window:     a.cfg.Alerts.Window.Std(),
		Logger:     a.logger.With("component", "alerts"),
	})
}

func (a *Application) runScheduled(ctx context.Context, repository *storage.PostgresRepository) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner := usecase.NewRunner(
		scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval.Std()),
		a.pipeline(repository),
		a.alertGate(repository),
		a.logger.With("component", "runner"),
	)

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return runner.Stop(context.Background())
}

func (a *Application) logReport(report usecase.Report) {
	a.logger.Info("batch finished",
		"fetched", report.Fetched,
		"classified_model", report.ClassifiedByModel,
		"classified_fallback", report.ClassifiedByFallback,
		"summarized_model", report.SummarizedByModel,
		"summarized_fallback", report.SummarizedByFallback,
		"persisted", report.Persisted,
		"failed", report.Failed,
	)
}
