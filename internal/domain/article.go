package domain

import "time"

// RawArticle is the immutable input entity produced by the feed ingestion
// collaborator. SourceID (the canonical article URL) is its stable identity.
type RawArticle struct {
	ID          int64
	SourceID    string
	Title       string
	Description string
	Body        string
	PublishedAt *time.Time
	FeedTag     string
	CreatedAt   time.Time
}

// Technology is the closed vocabulary of tracked vendors/products.
type Technology string

const (
	TechFortinet    Technology = "fortinet"
	TechSentinelOne Technology = "sentinelone"
	TechJumpCloud   Technology = "jumpcloud"
	TechVMware      Technology = "vmware"
	TechRubrik      Technology = "rubrik"
	TechDell        Technology = "dell"
	TechMicrosoft   Technology = "microsoft"
	TechExploits    Technology = "exploits"
	TechOther       Technology = "other"
)

// Technologies lists the valid values in canonical order.
func Technologies() []Technology {
	return []Technology{
		TechFortinet, TechSentinelOne, TechJumpCloud, TechVMware,
		TechRubrik, TechDell, TechMicrosoft, TechExploits, TechOther,
	}
}

// ValidTechnology reports whether t belongs to the closed vocabulary.
func ValidTechnology(t Technology) bool {
	for _, known := range Technologies() {
		if t == known {
			return true
		}
	}
	return false
}

// Category is the closed vocabulary of article categories.
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryUpdate        Category = "update"
	CategoryVulnerability Category = "vulnerability"
	CategoryPatch         Category = "patch"
	CategoryProduct       Category = "product"
	CategoryNews          Category = "news"
)

// Categories lists the valid values in canonical order.
func Categories() []Category {
	return []Category{
		CategorySecurity, CategoryUpdate, CategoryVulnerability,
		CategoryPatch, CategoryProduct, CategoryNews,
	}
}

// ValidCategory reports whether c belongs to the closed vocabulary.
func ValidCategory(c Category) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Severity is the ordered severity vocabulary: low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank maps a severity to its position in the ordering; unknown values rank
// below low so comparisons against them always escalate.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// ValidSeverity reports whether s belongs to the ordered vocabulary.
func ValidSeverity(s Severity) bool {
	return s.Rank() > 0
}

// Classification is the normalized judgment about one article. Values reach
// consumers only through the normalizer, which guarantees the severity and
// CVE invariants hold.
type Classification struct {
	Technology      Technology
	Category        Category
	Severity        Severity
	SeverityScore   float64
	CVSSScore       *float64
	IsSecurityAlert bool
	ImpactAnalysis  string
	ActionRequired  string
	CVERefs         []string
	Confidence      float64
}

// Summary is the structured human-readable digest of one article.
type Summary struct {
	SummaryText      string
	KeyPoints        []string
	BusinessImpact   string
	TechnicalDetails string
	RelatedItems     []string
	Recommendations  []string
}

// ProcessedArticle merges one RawArticle identity with exactly one
// Classification and one Summary. Built by explicit field assignment; at most
// one row exists per RawArticle.SourceID (upsert semantics).
type ProcessedArticle struct {
	ID             int64
	RawArticleID   int64
	SourceID       string
	Title          string
	Classification Classification
	Summary        Summary
	ProcessedAt    time.Time
}

// AlertType distinguishes notification channels gated per article.
type AlertType string

const (
	AlertCritical    AlertType = "critical"
	AlertDailyDigest AlertType = "daily_digest"
)

// NotificationStatus records the outcome of a dispatched alert.
type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// AlertNotification is the join record whose (ProcessedArticleID, AlertType)
// uniqueness is the sole gate preventing re-notification.
type AlertNotification struct {
	ID                 int64
	ProcessedArticleID int64
	AlertType          AlertType
	Recipients         []string
	SentAt             time.Time
	Status             NotificationStatus
}
