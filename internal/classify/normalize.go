package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"TechWatch/internal/domain"
	"TechWatch/internal/ports"
)

const (
	maxImpactLen = 500
	maxActionLen = 300
)

// criticalSignals escalate severity when present in the source text,
// whichever tier produced the candidate.
var criticalSignals = []string{"cve", "exploit", "vulnerability", "patch", "critical", "urgent", "security"}

var cveExpr = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,}\b`)

// technologyAliases repairs free-form technology strings into the closed
// vocabulary before validation.
var technologyAliases = map[string]domain.Technology{
	"fortigate":     domain.TechFortinet,
	"fortios":       domain.TechFortinet,
	"fortianalyzer": domain.TechFortinet,
	"fortimanager":  domain.TechFortinet,
	"sentinel one":  domain.TechSentinelOne,
	"s1":            domain.TechSentinelOne,
	"jump cloud":    domain.TechJumpCloud,
	"vcenter":       domain.TechVMware,
	"vsphere":       domain.TechVMware,
	"esxi":          domain.TechVMware,
	"windows":       domain.TechMicrosoft,
	"office":        domain.TechMicrosoft,
	"azure":         domain.TechMicrosoft,
	"exchange":      domain.TechMicrosoft,
}

// Normalize repairs a raw candidate into an invariant-satisfying
// classification. It is total: any input, including the zero candidate,
// yields a structurally valid record. Both classifier tiers pass through
// here, making it the single point establishing the classification
// invariants.
func Normalize(candidate ports.Candidate, articleText string) domain.Classification {
	cls := domain.Classification{
		Technology:      normalizeTechnology(candidate.Technology),
		Category:        normalizeCategory(candidate.Category),
		Severity:        normalizeSeverity(candidate.Severity),
		SeverityScore:   clamp(candidate.SeverityScore, 1.0, 10.0),
		IsSecurityAlert: candidate.IsSecurityAlert,
		ImpactAnalysis:  truncate(strings.TrimSpace(candidate.ImpactAnalysis), maxImpactLen),
		ActionRequired:  truncate(strings.TrimSpace(candidate.ActionRequired), maxActionLen),
		Confidence:      clamp(candidate.Confidence, 0.0, 1.0),
	}

	if candidate.CVSSScore != nil {
		cvss := clamp(*candidate.CVSSScore, 0.0, 10.0)
		cls.CVSSScore = &cvss
	}

	cls.Severity, cls.SeverityScore = reconcileSeverity(cls.Severity, cls.SeverityScore)

	if containsAny(strings.ToLower(articleText), criticalSignals) {
		cls.IsSecurityAlert = true
		if cls.Severity.Rank() < domain.SeverityHigh.Rank() {
			cls.Severity = domain.SeverityHigh
			if cls.SeverityScore < 7.0 {
				cls.SeverityScore = 7.0
			}
		}
	}

	cls.CVERefs = ExtractCVEs(append(candidate.CVERefs, articleText)...)

	return cls
}

// reconcileSeverity auto-corrects the score to the nearest boundary of the
// level's band: critical >= 8, high >= 6, medium in [4,7], low <= 4.
func reconcileSeverity(level domain.Severity, score float64) (domain.Severity, float64) {
	switch level {
	case domain.SeverityCritical:
		if score < 8.0 {
			score = 8.0
		}
	case domain.SeverityHigh:
		if score < 6.0 {
			score = 6.0
		}
	case domain.SeverityMedium:
		score = clamp(score, 4.0, 7.0)
	case domain.SeverityLow:
		if score > 4.0 {
			score = 4.0
		}
	}
	return level, score
}

// ExtractCVEs validates, upper-cases, and deduplicates CVE identifiers found
// in the supplied strings. Non-matching candidates are dropped silently.
func ExtractCVEs(sources ...string) []string {
	seen := map[string]struct{}{}
	var refs []string
	for _, source := range sources {
		for _, match := range cveExpr.FindAllString(source, -1) {
			id := strings.ToUpper(match)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			refs = append(refs, id)
		}
	}
	return refs
}

func normalizeTechnology(raw string) domain.Technology {
	value := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := technologyAliases[value]; ok {
		return alias
	}
	if tech := domain.Technology(value); domain.ValidTechnology(tech) {
		return tech
	}
	return domain.TechOther
}

func normalizeCategory(raw string) domain.Category {
	value := domain.Category(strings.ToLower(strings.TrimSpace(raw)))
	if domain.ValidCategory(value) {
		return value
	}
	return domain.CategoryNews
}

func normalizeSeverity(raw string) domain.Severity {
	value := domain.Severity(strings.ToLower(strings.TrimSpace(raw)))
	if domain.ValidSeverity(value) {
		return value
	}
	return domain.SeverityMedium
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
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
