package summarize

import (
	"context"
	"fmt"
	"strings"

	"TechWatch/internal/domain"
	"TechWatch/internal/ports"
	"TechWatch/internal/sanitize"
)

// descriptionWords caps how much of the description the basic summary keeps.
const descriptionWords = 50

// BasicSummarizer is the guaranteed fallback tier. It concatenates the title
// with a truncated description and derives impact and recommendation text
// from the classification via fixed lookups. It never fails.
type BasicSummarizer struct{}

var _ ports.Summarizer = (*BasicSummarizer)(nil)

// NewBasicSummarizer returns the fallback summarizer.
func NewBasicSummarizer() *BasicSummarizer {
	return &BasicSummarizer{}
}

// Summarize builds a summary without any model call.
func (b *BasicSummarizer) Summarize(_ context.Context, article domain.RawArticle, cls domain.Classification) (domain.Summary, error) {
	var parts []string
	if title := strings.TrimSpace(article.Title); title != "" {
		parts = append(parts, "Article: "+title)
	}
	if desc := sanitize.Text(article.Description); desc != "" {
		parts = append(parts, truncateWords(desc, descriptionWords))
	}

	text := strings.Join(parts, " - ")
	if text == "" {
		text = "IT watch article without a detailed description."
	}

	summary := domain.Summary{
		SummaryText:      text,
		BusinessImpact:   impactForClassification(cls),
		TechnicalDetails: technicalForClassification(cls),
		Recommendations:  []string{recommendationFor(cls)},
	}

	return finishSummary(summary, article, cls), nil
}

func technicalForClassification(cls domain.Classification) string {
	if len(cls.CVERefs) > 0 {
		return fmt.Sprintf("Tracked identifiers: %s.", strings.Join(cls.CVERefs, ", "))
	}
	if cls.CVSSScore != nil {
		return fmt.Sprintf("Reported CVSS score %.1f.", *cls.CVSSScore)
	}
	return "See the source article for technical specifics."
}

func recommendationFor(cls domain.Classification) string {
	switch {
	case cls.IsSecurityAlert:
		return "Check the exposure of your systems and schedule fixes if needed"
	case cls.Category == domain.CategoryPatch:
		return "Evaluate whether the mentioned fixes should be applied"
	case cls.Category == domain.CategoryVulnerability:
		return "Verify whether your systems are vulnerable and take appropriate measures"
	default:
		return "Note the information for future reference"
	}
}

func truncateWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ") + "..."
}
