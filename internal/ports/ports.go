package ports

import (
	"context"
	"errors"
	"time"

	"TechWatch/internal/domain"
)

// ErrAlreadyNotified signals that the unique (article, alert type) pair
// already exists. It is a skip signal, not a failure.
var ErrAlreadyNotified = errors.New("alert already notified")

// Candidate carries raw classifier output that has not yet passed
// normalization. Free-form strings are allowed here; the normalizer repairs
// them into a domain.Classification.
type Candidate struct {
	Technology      string
	Category        string
	Severity        string
	SeverityScore   float64
	CVSSScore       *float64
	IsSecurityAlert bool
	ImpactAnalysis  string
	ActionRequired  string
	CVERefs         []string
	Confidence      float64
}

// Classifier produces a candidate classification for the supplied article
// text. Generative implementations may fail; the lexicon implementation never
// does.
type Classifier interface {
	Classify(ctx context.Context, text string) (Candidate, error)
}

// Summarizer produces a summary consistent with an already-normalized
// classification. Generative implementations may fail; the basic
// implementation never does.
type Summarizer interface {
	Summarize(ctx context.Context, article domain.RawArticle, cls domain.Classification) (domain.Summary, error)
}

// ChatClient sends one chat-completion exchange to a generative model and
// returns the assistant reply text.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ArticleRepository is the persistence collaborator contract. Implementations
// must enforce one ProcessedArticle row per raw article (upsert keyed by a
// uniqueness constraint on raw_article_id).
type ArticleRepository interface {
	FetchUnprocessed(ctx context.Context, limit int) ([]domain.RawArticle, error)
	UpsertProcessed(ctx context.Context, processed domain.ProcessedArticle) error
}

// AlertRepository selects and marks critical notifications. MarkNotified must
// return ErrAlreadyNotified (wrapped) when the (article, alert type) pair was
// already recorded, so concurrent gate runs dispatch at most once.
type AlertRepository interface {
	SelectUnnotifiedCritical(ctx context.Context, window time.Duration) ([]domain.ProcessedArticle, error)
	MarkNotified(ctx context.Context, notification domain.AlertNotification) error
}

// AlertTransport delivers a fully-formed notification payload. The gate only
// decides whether and once to invoke it.
type AlertTransport interface {
	Dispatch(ctx context.Context, article domain.ProcessedArticle, recipients []string) error
}

// Scheduler drives recurring pipeline runs cooperatively: NextDue exposes the
// upcoming trigger so tests can simulate time instead of sleeping.
type Scheduler interface {
	NextDue(now time.Time) time.Time
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
