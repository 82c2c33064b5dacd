package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"TechWatch/internal/domain"
	"TechWatch/internal/ports"
)

// uniqueViolation is the Postgres error code for unique-constraint breaches.
const uniqueViolation = "23505"

// stringArray keeps NOT NULL array columns satisfied when the slice is nil.
func stringArray(items []string) pq.StringArray {
	if items == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(items)
}

// PostgresRepository persists processed articles and alert notifications.
// The schema carries the two correctness constraints the pipeline relies on:
// one processed row per raw article, one notification per (article, type).
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)
var _ ports.AlertRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the schema if absent. The UNIQUE constraints are mandated
// by the pipeline contract, not optional: without them repeated runs produce
// duplicate rows and duplicate notifications.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("database is not configured")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS raw_articles (
			id BIGSERIAL PRIMARY KEY,
			source_id VARCHAR(500) NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			published_at TIMESTAMPTZ,
			feed_tag VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS processed_articles (
			id BIGSERIAL PRIMARY KEY,
			raw_article_id BIGINT NOT NULL UNIQUE REFERENCES raw_articles(id) ON DELETE CASCADE,
			technology VARCHAR(50) NOT NULL,
			category VARCHAR(50) NOT NULL,
			severity_level VARCHAR(20) NOT NULL,
			severity_score DECIMAL(3,1) NOT NULL,
			cvss_score DECIMAL(3,1),
			is_security_alert BOOLEAN NOT NULL DEFAULT FALSE,
			impact_analysis TEXT NOT NULL DEFAULT '',
			action_required TEXT NOT NULL DEFAULT '',
			cve_references TEXT[] NOT NULL DEFAULT '{}',
			confidence DECIMAL(3,2) NOT NULL DEFAULT 0,
			summary TEXT NOT NULL,
			key_points TEXT[] NOT NULL DEFAULT '{}',
			business_impact TEXT NOT NULL DEFAULT '',
			technical_details TEXT NOT NULL DEFAULT '',
			related_items TEXT[] NOT NULL DEFAULT '{}',
			recommendations TEXT[] NOT NULL DEFAULT '{}',
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_severity ON processed_articles (severity_level, is_security_alert)`,
		`CREATE TABLE IF NOT EXISTS alert_notifications (
			id BIGSERIAL PRIMARY KEY,
			processed_article_id BIGINT NOT NULL REFERENCES processed_articles(id) ON DELETE CASCADE,
			alert_type VARCHAR(20) NOT NULL,
			recipients TEXT[] NOT NULL DEFAULT '{}',
			sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status VARCHAR(20) NOT NULL DEFAULT 'sent',
			UNIQUE (processed_article_id, alert_type)
		)`,
	}

	for _, statement := range statements {
		if _, err := r.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

// SaveRawArticle inserts an ingested article, ignoring duplicates by
// source_id, and returns the stored row id.
func (r *PostgresRepository) SaveRawArticle(ctx context.Context, article domain.RawArticle) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database is not configured")
	}

	query, args, err := r.builder.
		Insert("raw_articles").
		Columns("source_id", "title", "description", "body", "published_at", "feed_tag").
		Values(article.SourceID, article.Title, article.Description, article.Body, article.PublishedAt, article.FeedTag).
		Suffix("ON CONFLICT (source_id) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert raw: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// Already present; resolve the existing id.
		lookup, lookupArgs, buildErr := r.builder.
			Select("id").From("raw_articles").
			Where(sq.Eq{"source_id": article.SourceID}).
			ToSql()
		if buildErr != nil {
			return 0, fmt.Errorf("build lookup raw: %w", buildErr)
		}
		if err := r.db.QueryRowContext(ctx, lookup, lookupArgs...).Scan(&id); err != nil {
			return 0, fmt.Errorf("lookup raw article: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("insert raw article: %w", err)
	}
	return id, nil
}

// FetchUnprocessed returns the most recent raw articles that have no
// processed counterpart yet, bounded by limit.
func (r *PostgresRepository) FetchUnprocessed(ctx context.Context, limit int) ([]domain.RawArticle, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database is not configured")
	}

	query, args, err := r.builder.
		Select("r.id", "r.source_id", "r.title", "r.description", "r.body", "r.published_at", "r.feed_tag", "r.created_at").
		From("raw_articles r").
		LeftJoin("processed_articles p ON p.raw_article_id = r.id").
		Where("p.id IS NULL").
		OrderBy("r.created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build fetch unprocessed: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed: %w", err)
	}
	defer rows.Close()

	var articles []domain.RawArticle
	for rows.Next() {
		var article domain.RawArticle
		var publishedAt sql.NullTime
		if err := rows.Scan(&article.ID, &article.SourceID, &article.Title, &article.Description,
			&article.Body, &publishedAt, &article.FeedTag, &article.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan raw article: %w", err)
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			article.PublishedAt = &t
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// UpsertProcessed inserts or overwrites the processed snapshot for a raw
// article. The unique constraint on raw_article_id makes repeated pipeline
// runs idempotent: exactly one row exists per raw article after any number of
// calls.
func (r *PostgresRepository) UpsertProcessed(ctx context.Context, processed domain.ProcessedArticle) error {
	if r.db == nil {
		return fmt.Errorf("database is not configured")
	}

	cls := processed.Classification
	sum := processed.Summary

	query, args, err := r.builder.
		Insert("processed_articles").
		Columns("raw_article_id", "technology", "category", "severity_level", "severity_score",
			"cvss_score", "is_security_alert", "impact_analysis", "action_required",
			"cve_references", "confidence", "summary", "key_points", "business_impact",
			"technical_details", "related_items", "recommendations", "processed_at").
		Values(processed.RawArticleID, cls.Technology, cls.Category, cls.Severity, cls.SeverityScore,
			cls.CVSSScore, cls.IsSecurityAlert, cls.ImpactAnalysis, cls.ActionRequired,
			stringArray(cls.CVERefs), cls.Confidence, sum.SummaryText, stringArray(sum.KeyPoints),
			sum.BusinessImpact, sum.TechnicalDetails, stringArray(sum.RelatedItems),
			stringArray(sum.Recommendations), processed.ProcessedAt).
		Suffix(`ON CONFLICT (raw_article_id) DO UPDATE SET
			technology = EXCLUDED.technology,
			category = EXCLUDED.category,
			severity_level = EXCLUDED.severity_level,
			severity_score = EXCLUDED.severity_score,
			cvss_score = EXCLUDED.cvss_score,
			is_security_alert = EXCLUDED.is_security_alert,
			impact_analysis = EXCLUDED.impact_analysis,
			action_required = EXCLUDED.action_required,
			cve_references = EXCLUDED.cve_references,
			confidence = EXCLUDED.confidence,
			summary = EXCLUDED.summary,
			key_points = EXCLUDED.key_points,
			business_impact = EXCLUDED.business_impact,
			technical_details = EXCLUDED.technical_details,
			related_items = EXCLUDED.related_items,
			recommendations = EXCLUDED.recommendations,
			processed_at = EXCLUDED.processed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert processed: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert processed: %w", err)
	}
	return nil
}

// SelectUnnotifiedCritical returns critical security alerts processed within
// the window that have no 'critical' notification row yet, most urgent first.
func (r *PostgresRepository) SelectUnnotifiedCritical(ctx context.Context, window time.Duration) ([]domain.ProcessedArticle, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database is not configured")
	}

	since := time.Now().UTC().Add(-window)

	query, args, err := r.builder.
		Select("p.id", "p.raw_article_id", "r.source_id", "r.title",
			"p.technology", "p.category", "p.severity_level", "p.severity_score",
			"p.cvss_score", "p.is_security_alert", "p.impact_analysis", "p.action_required",
			"p.cve_references", "p.confidence", "p.summary", "p.key_points",
			"p.business_impact", "p.technical_details", "p.related_items",
			"p.recommendations", "p.processed_at").
		From("processed_articles p").
		Join("raw_articles r ON r.id = p.raw_article_id").
		LeftJoin("alert_notifications an ON an.processed_article_id = p.id AND an.alert_type = ?", string(domain.AlertCritical)).
		Where(sq.Eq{"p.severity_level": domain.SeverityCritical, "p.is_security_alert": true}).
		Where(sq.GtOrEq{"p.processed_at": since}).
		Where("an.id IS NULL").
		OrderBy("p.cvss_score DESC NULLS LAST", "p.severity_score DESC", "p.processed_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select unnotified: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unnotified critical: %w", err)
	}
	defer rows.Close()

	var articles []domain.ProcessedArticle
	for rows.Next() {
		var (
			article  domain.ProcessedArticle
			cvss     sql.NullFloat64
			cveRefs  pq.StringArray
			points   pq.StringArray
			related  pq.StringArray
			recommas pq.StringArray
		)
		if err := rows.Scan(&article.ID, &article.RawArticleID, &article.SourceID, &article.Title,
			&article.Classification.Technology, &article.Classification.Category,
			&article.Classification.Severity, &article.Classification.SeverityScore,
			&cvss, &article.Classification.IsSecurityAlert,
			&article.Classification.ImpactAnalysis, &article.Classification.ActionRequired,
			&cveRefs, &article.Classification.Confidence, &article.Summary.SummaryText,
			&points, &article.Summary.BusinessImpact, &article.Summary.TechnicalDetails,
			&related, &recommas, &article.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan processed article: %w", err)
		}
		if cvss.Valid {
			v := cvss.Float64
			article.Classification.CVSSScore = &v
		}
		article.Classification.CVERefs = cveRefs
		article.Summary.KeyPoints = points
		article.Summary.RelatedItems = related
		article.Summary.Recommendations = recommas
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// MarkNotified records a dispatched alert. A unique violation on the
// (processed_article_id, alert_type) pair maps to ports.ErrAlreadyNotified,
// closing the select-then-mark race between concurrent gate runs.
func (r *PostgresRepository) MarkNotified(ctx context.Context, notification domain.AlertNotification) error {
	if r.db == nil {
		return fmt.Errorf("database is not configured")
	}

	query, args, err := r.builder.
		Insert("alert_notifications").
		Columns("processed_article_id", "alert_type", "recipients", "sent_at", "status").
		Values(notification.ProcessedArticleID, notification.AlertType,
			stringArray(notification.Recipients), notification.SentAt, notification.Status).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert notification: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("article %d/%s: %w", notification.ProcessedArticleID, notification.AlertType, ports.ErrAlreadyNotified)
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
