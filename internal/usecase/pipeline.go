package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"TechWatch/internal/classify"
	"TechWatch/internal/domain"
	"TechWatch/internal/ports"
	"TechWatch/internal/sanitize"
	"TechWatch/internal/summarize"
)

const (
	defaultBatchLimit = 50
	defaultWorkers    = 4
	// generativeAttempts bounds retries of the model tier before falling back;
	// unbounded retry would break the batch latency bound.
	generativeAttempts = 2
)

// Report summarizes one batch run for the operator.
type Report struct {
	Fetched              int
	ClassifiedByModel    int
	ClassifiedByFallback int
	SummarizedByModel    int
	SummarizedByFallback int
	Persisted            int
	Failed               int
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
// Generative tiers are optional; lexicon and basic tiers are mandatory.
type PipelineDeps struct {
	Repository          ports.ArticleRepository
	GenerativeClassify  ports.Classifier
	LexiconClassify     ports.Classifier
	GenerativeSummarize ports.Summarizer
	BasicSummarize      ports.Summarizer
	BatchLimit          int
	Workers             int
	Clock               func() time.Time
	Logger              *slog.Logger
}

// Pipeline sequences classification, summarization, merge, and persistence
// for a batch of unprocessed articles, owning the fallback decisions and
// per-item error isolation.
type Pipeline struct {
	repository          ports.ArticleRepository
	generativeClassify  ports.Classifier
	lexiconClassify     ports.Classifier
	generativeSummarize ports.Summarizer
	basicSummarize      ports.Summarizer
	batchLimit          int
	workers             int
	clock               func() time.Time
	logger              *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		repository:          deps.Repository,
		generativeClassify:  deps.GenerativeClassify,
		lexiconClassify:     deps.LexiconClassify,
		generativeSummarize: deps.GenerativeSummarize,
		basicSummarize:      deps.BasicSummarize,
		batchLimit:          deps.BatchLimit,
		workers:             deps.Workers,
		clock:               deps.Clock,
		logger:              deps.Logger,
	}
	if p.lexiconClassify == nil {
		p.lexiconClassify = classify.NewLexiconClassifier(classify.DefaultTable())
	}
	if p.basicSummarize == nil {
		p.basicSummarize = summarize.NewBasicSummarizer()
	}
	if p.batchLimit <= 0 {
		p.batchLimit = defaultBatchLimit
	}
	if p.workers <= 0 {
		p.workers = defaultWorkers
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p
}

// ProcessBatch pulls one bounded page of unprocessed articles and enriches
// them. Items are processed independently inside a bounded worker pool; a
// failing item is logged and skipped, never aborting the batch. The run stops
// admitting new items once ctx is cancelled, so interruption leaves only
// fully-processed or fully-unprocessed articles.
func (p *Pipeline) ProcessBatch(ctx context.Context) (Report, error) {
	var report Report

	if p.repository == nil {
		return report, fmt.Errorf("article repository is not configured")
	}

	articles, err := p.repository.FetchUnprocessed(ctx, p.batchLimit)
	if err != nil {
		return report, fmt.Errorf("fetch unprocessed: %w", err)
	}
	report.Fetched = len(articles)
	p.debug("batch start", "fetched", len(articles))

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)

	for _, article := range articles {
		article := article
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			outcome := p.processOne(groupCtx, article)
			mu.Lock()
			outcome.apply(&report)
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return report, err
	}

	p.debug("batch done",
		"persisted", report.Persisted,
		"failed", report.Failed,
		"model_classified", report.ClassifiedByModel,
		"fallback_classified", report.ClassifiedByFallback,
	)
	return report, nil
}

// itemOutcome collects the per-item counters merged into the batch report.
type itemOutcome struct {
	modelClassified    bool
	fallbackClassified bool
	modelSummarized    bool
	fallbackSummarized bool
	persisted          bool
	failed             bool
}

func (o itemOutcome) apply(r *Report) {
	if o.modelClassified {
		r.ClassifiedByModel++
	}
	if o.fallbackClassified {
		r.ClassifiedByFallback++
	}
	if o.modelSummarized {
		r.SummarizedByModel++
	}
	if o.fallbackSummarized {
		r.SummarizedByFallback++
	}
	if o.persisted {
		r.Persisted++
	}
	if o.failed {
		r.Failed++
	}
}

// processOne runs the full classify, normalize, summarize, persist sequence
// for a single article. All failures are absorbed into the outcome.
func (p *Pipeline) processOne(ctx context.Context, article domain.RawArticle) itemOutcome {
	var outcome itemOutcome

	text := sanitize.ArticleText(article.Title, article.Description, article.Body)

	candidate, fromModel := p.classifyTiered(ctx, text)
	outcome.modelClassified = fromModel
	outcome.fallbackClassified = !fromModel

	cls := classify.Normalize(candidate, text)

	summary, summarizedByModel := p.summarizeTiered(ctx, article, cls)
	outcome.modelSummarized = summarizedByModel
	outcome.fallbackSummarized = !summarizedByModel

	processed := domain.ProcessedArticle{
		RawArticleID:   article.ID,
		SourceID:       article.SourceID,
		Title:          article.Title,
		Classification: cls,
		Summary:        summary,
		ProcessedAt:    p.clock().UTC(),
	}

	if err := p.repository.UpsertProcessed(ctx, processed); err != nil {
		p.warn("persist article", "source_id", article.SourceID, "error", err)
		outcome.failed = true
		return outcome
	}

	outcome.persisted = true
	return outcome
}

// classifyTiered attempts the generative tier with bounded retries, then
// falls through unconditionally to the lexicon tier, which cannot fail.
func (p *Pipeline) classifyTiered(ctx context.Context, text string) (ports.Candidate, bool) {
	if p.generativeClassify != nil {
		for attempt := 1; attempt <= generativeAttempts; attempt++ {
			candidate, err := p.generativeClassify.Classify(ctx, text)
			if err == nil {
				return candidate, true
			}
			p.debug("generative classify failed", "attempt", attempt, "error", err)
			if ctx.Err() != nil {
				break
			}
		}
	}

	candidate, _ := p.lexiconClassify.Classify(ctx, text)
	return candidate, false
}

func (p *Pipeline) summarizeTiered(ctx context.Context, article domain.RawArticle, cls domain.Classification) (domain.Summary, bool) {
	if p.generativeSummarize != nil {
		for attempt := 1; attempt <= generativeAttempts; attempt++ {
			summary, err := p.generativeSummarize.Summarize(ctx, article, cls)
			if err == nil {
				return summary, true
			}
			p.debug("generative summarize failed", "attempt", attempt, "error", err)
			if ctx.Err() != nil {
				break
			}
		}
	}

	summary, _ := p.basicSummarize.Summarize(ctx, article, cls)
	return summary, false
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
