package classify

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"TechWatch/internal/domain"
	"TechWatch/internal/ports"
)

// LexiconConfidence is the fixed confidence assigned to keyword-derived
// classifications.
const LexiconConfidence = 0.4

var cvssExpr = regexp.MustCompile(`cvss[:\s]*(\d+\.?\d*)`)

// LexiconClassifier is the deterministic fallback tier. It is a pure function
// of the keyword table and never fails: empty or unmatched input yields the
// other/news/medium defaults.
type LexiconClassifier struct {
	table Table
}

var _ ports.Classifier = (*LexiconClassifier)(nil)

// NewLexiconClassifier wires a keyword table; a zero table falls back to the
// built-in default.
func NewLexiconClassifier(table Table) *LexiconClassifier {
	if len(table.Technologies) == 0 {
		table = DefaultTable()
	}
	return &LexiconClassifier{table: table}
}

// Classify counts case-insensitive substring matches per technology entry.
// The entry with the strictly greatest count wins; ties keep the first-seen
// entry, so table declaration order is part of the contract.
func (l *LexiconClassifier) Classify(_ context.Context, text string) (ports.Candidate, error) {
	lower := strings.ToLower(text)

	technology := domain.TechOther
	maxMatches := 0
	for _, entry := range l.table.Technologies {
		matches := 0
		for _, keyword := range entry.Keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				matches++
			}
		}
		if matches > maxMatches {
			maxMatches = matches
			technology = entry.Technology
		}
	}

	severity, score, isAlert := l.deriveSeverity(lower)

	cvss := extractCVSS(lower)
	if cvss != nil {
		switch {
		case *cvss >= 9.0:
			severity = domain.SeverityCritical
			score = *cvss
			isAlert = true
		case *cvss >= 7.0:
			severity = domain.SeverityHigh
			score = *cvss
			isAlert = true
		}
	}

	return ports.Candidate{
		Technology:      string(technology),
		Category:        string(deriveCategory(lower)),
		Severity:        string(severity),
		SeverityScore:   score,
		CVSSScore:       cvss,
		IsSecurityAlert: isAlert,
		ImpactAnalysis:  fmt.Sprintf("%s article rated %s from %d keyword matches", technology, severity, maxMatches),
		ActionRequired:  actionForSeverity(severity),
		Confidence:      LexiconConfidence,
	}, nil
}

func (l *LexiconClassifier) deriveSeverity(lower string) (domain.Severity, float64, bool) {
	switch {
	case containsAny(lower, l.table.Severity.Critical):
		return domain.SeverityCritical, 9.0, true
	case containsAny(lower, l.table.Severity.High):
		return domain.SeverityHigh, 7.0, true
	case containsAny(lower, l.table.Severity.Medium):
		return domain.SeverityMedium, 5.0, true
	case containsAny(lower, l.table.Severity.Low):
		return domain.SeverityLow, 3.0, false
	default:
		return domain.SeverityMedium, 5.0, false
	}
}

func deriveCategory(lower string) domain.Category {
	switch {
	case containsAny(lower, []string{"vulnerability", "cve", "exploit"}):
		return domain.CategoryVulnerability
	case containsAny(lower, []string{"patch", "fix", "update"}):
		return domain.CategoryPatch
	case containsAny(lower, []string{"security", "alert"}):
		return domain.CategorySecurity
	case containsAny(lower, []string{"release", "product"}):
		return domain.CategoryProduct
	default:
		return domain.CategoryNews
	}
}

func actionForSeverity(severity domain.Severity) string {
	switch severity {
	case domain.SeverityCritical:
		return "Immediate action required: assess exposure and apply fixes"
	case domain.SeverityHigh:
		return "Schedule the security fixes for deployment"
	case domain.SeverityMedium:
		return "Review relevance for your environment"
	default:
		return "Note for future reference"
	}
}

// extractCVSS pulls an explicit "cvss: N.N" token out of the text; scores
// outside [0,10] are discarded as parse noise.
func extractCVSS(lower string) *float64 {
	match := cvssExpr.FindStringSubmatch(lower)
	if match == nil {
		return nil
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil || value < 0 || value > 10 {
		return nil
	}
	return &value
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
