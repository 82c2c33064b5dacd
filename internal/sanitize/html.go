package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Text strips HTML markup from feed-sourced content and collapses whitespace.
// Plain text passes through unchanged apart from whitespace normalization;
// unparseable input falls back to the raw string.
func Text(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if !strings.ContainsAny(trimmed, "<>") {
		return collapseSpace(trimmed)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return collapseSpace(trimmed)
	}

	doc.Find("script, style").Remove()
	return collapseSpace(doc.Text())
}

// ArticleText concatenates the sanitized title, description, and body into
// the single text the classifiers analyze.
func ArticleText(title, description, body string) string {
	parts := make([]string, 0, 3)
	for _, raw := range []string{title, description, body} {
		if clean := Text(raw); clean != "" {
			parts = append(parts, clean)
		}
	}
	return strings.Join(parts, " ")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
