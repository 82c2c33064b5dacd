package summarize

import (
	"regexp"
	"strings"
)

// sectionLabels are the recognized headings in the model's semi-structured
// reply, in the order the prompt requests them.
var sectionLabels = []string{
	"SUMMARY", "KEY POINTS", "BUSINESS IMPACT", "TECHNICAL DETAILS",
	"RECOMMENDATIONS", "RELATED",
}

var bulletExpr = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// sections is the untrusted parse result of one model reply.
type sections struct {
	Summary          string
	KeyPoints        []string
	BusinessImpact   string
	TechnicalDetails string
	Recommendations  []string
	RelatedItems     []string
	Structured       bool
}

// parseSections locates each labeled section and extracts its text up to the
// next recognized label, collapsing internal newlines. A reply without a
// SUMMARY label is used verbatim as the summary; parsing never fails.
func parseSections(reply string) sections {
	cleaned := strings.TrimSpace(reply)

	found := map[string]string{}
	for _, label := range sectionLabels {
		if text := extractSection(cleaned, label); text != "" {
			found[label] = text
		}
	}

	if found["SUMMARY"] == "" {
		return sections{Summary: collapseNewlines(cleaned)}
	}

	return sections{
		Summary:          collapseNewlines(found["SUMMARY"]),
		KeyPoints:        splitList(found["KEY POINTS"]),
		BusinessImpact:   collapseNewlines(found["BUSINESS IMPACT"]),
		TechnicalDetails: collapseNewlines(found["TECHNICAL DETAILS"]),
		Recommendations:  splitList(found["RECOMMENDATIONS"]),
		RelatedItems:     splitList(found["RELATED"]),
		Structured:       true,
	}
}

func extractSection(text, label string) string {
	expr := regexp.MustCompile(`(?is)` + regexp.QuoteMeta(label) + `:\s*\n?(.*?)(?:\n\s*(?:` + labelAlternation() + `):|$)`)
	match := expr.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func labelAlternation() string {
	quoted := make([]string, len(sectionLabels))
	for i, label := range sectionLabels {
		quoted[i] = regexp.QuoteMeta(label)
	}
	return strings.Join(quoted, "|")
}

// splitList turns a bullet-list section into trimmed, non-empty items.
func splitList(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		item := strings.TrimSpace(bulletExpr.ReplaceAllString(line, ""))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func collapseNewlines(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
