package summarize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"TechWatch/internal/domain"
)

const (
	maxSummaryLen   = 600
	maxBusinessLen  = 400
	maxTechnicalLen = 400
	minKeyPoints    = 3
	maxKeyPoints    = 5
)

// finishSummary bounds every field and forces the key-point count into the
// 3-5 range so downstream consumers receive a structurally guaranteed record.
// It is applied to both tiers' output.
func finishSummary(s domain.Summary, article domain.RawArticle, cls domain.Classification) domain.Summary {
	s.SummaryText = truncate(strings.TrimSpace(s.SummaryText), maxSummaryLen)
	if s.SummaryText == "" {
		s.SummaryText = truncate(fmt.Sprintf("IT watch article: %s.", strings.TrimSpace(article.Title)), maxSummaryLen)
	}

	if s.BusinessImpact = truncate(strings.TrimSpace(s.BusinessImpact), maxBusinessLen); s.BusinessImpact == "" {
		s.BusinessImpact = impactForClassification(cls)
	}
	if s.TechnicalDetails = truncate(strings.TrimSpace(s.TechnicalDetails), maxTechnicalLen); s.TechnicalDetails == "" {
		s.TechnicalDetails = "See the source article for technical specifics."
	}

	s.KeyPoints = boundKeyPoints(s.KeyPoints, article, cls)
	s.RelatedItems = trimList(s.RelatedItems)
	s.Recommendations = trimList(s.Recommendations)

	return s
}

func boundKeyPoints(points []string, article domain.RawArticle, cls domain.Classification) []string {
	points = trimList(points)
	if len(points) > maxKeyPoints {
		points = points[:maxKeyPoints]
	}

	for _, fill := range fallbackKeyPoints(article, cls) {
		if len(points) >= minKeyPoints {
			break
		}
		if !containsPoint(points, fill) {
			points = append(points, fill)
		}
	}

	return points
}

func fallbackKeyPoints(article domain.RawArticle, cls domain.Classification) []string {
	points := []string{
		fmt.Sprintf("Affects %s", cls.Technology),
		fmt.Sprintf("Severity rated %s (%.1f/10)", cls.Severity, cls.SeverityScore),
		fmt.Sprintf("Categorized as %s", cls.Category),
	}
	if len(cls.CVERefs) > 0 {
		points = append(points, "References "+strings.Join(cls.CVERefs, ", "))
	}
	if title := strings.TrimSpace(article.Title); title != "" {
		points = append(points, title)
	}
	return points
}

func impactForClassification(cls domain.Classification) string {
	switch cls.Severity {
	case domain.SeverityCritical:
		return fmt.Sprintf("Potential critical impact on %s systems. Urgent assessment required.", cls.Technology)
	case domain.SeverityHigh:
		return fmt.Sprintf("Significant impact possible on %s systems. Prioritize assessment.", cls.Technology)
	case domain.SeverityMedium:
		return fmt.Sprintf("Moderate impact possible on %s systems. Assess within days.", cls.Technology)
	default:
		return fmt.Sprintf("Low impact on %s systems. Informational.", cls.Technology)
	}
}

func containsPoint(points []string, candidate string) bool {
	for _, p := range points {
		if strings.EqualFold(p, candidate) {
			return true
		}
	}
	return false
}

func trimList(items []string) []string {
	var out []string
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// truncate cuts at a rune boundary so bounded fields stay valid UTF-8.
func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
