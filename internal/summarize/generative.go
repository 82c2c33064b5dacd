package summarize

import (
	"context"
	"fmt"
	"strings"

	"TechWatch/internal/domain"
	"TechWatch/internal/ports"
	"TechWatch/internal/sanitize"
)

const summarizerSystemPrompt = "You are a cybersecurity expert who writes precise, actionable technical briefs for IT teams."

// maxSummarizeExcerpt bounds the article body sent to the model.
const maxSummarizeExcerpt = 3000

// GenerativeSummarizer is the preferred summary tier. Model transport errors
// surface as errors for fallback; a reply that does not follow the requested
// structure only degrades to a verbatim summary with placeholder fields.
type GenerativeSummarizer struct {
	chat ports.ChatClient
}

var _ ports.Summarizer = (*GenerativeSummarizer)(nil)

// NewGenerativeSummarizer wires a chat-completion client.
func NewGenerativeSummarizer(chat ports.ChatClient) *GenerativeSummarizer {
	return &GenerativeSummarizer{chat: chat}
}

// Summarize prompts the model with the article plus its already-computed
// classification so the summary stays consistent with it.
func (g *GenerativeSummarizer) Summarize(ctx context.Context, article domain.RawArticle, cls domain.Classification) (domain.Summary, error) {
	if g.chat == nil {
		return domain.Summary{}, fmt.Errorf("chat client is not configured")
	}

	reply, err := g.chat.Complete(ctx, summarizerSystemPrompt, buildSummaryPrompt(article, cls))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("model call: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return domain.Summary{}, fmt.Errorf("empty model reply")
	}

	parsed := parseSections(reply)

	summary := domain.Summary{
		SummaryText:      parsed.Summary,
		KeyPoints:        parsed.KeyPoints,
		BusinessImpact:   parsed.BusinessImpact,
		TechnicalDetails: parsed.TechnicalDetails,
		RelatedItems:     parsed.RelatedItems,
		Recommendations:  parsed.Recommendations,
	}
	if !parsed.Structured {
		summary.BusinessImpact = "Impact to be assessed against your environment."
		summary.TechnicalDetails = "Review the source article for technical specifics."
	}

	return finishSummary(summary, article, cls), nil
}

func buildSummaryPrompt(article domain.RawArticle, cls domain.Classification) string {
	body := sanitize.Text(article.Body)
	if len(body) > maxSummarizeExcerpt {
		body = body[:maxSummarizeExcerpt]
	}

	var b strings.Builder
	b.WriteString("Write a structured brief for this IT watch article.\n\n")
	b.WriteString("ARTICLE:\n")
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	fmt.Fprintf(&b, "Description: %s\n", sanitize.Text(article.Description))
	fmt.Fprintf(&b, "Content: %s\n", body)
	fmt.Fprintf(&b, "URL: %s\n\n", article.SourceID)
	b.WriteString("CLASSIFICATION CONTEXT:\n")
	fmt.Fprintf(&b, "Technology: %s\n", cls.Technology)
	fmt.Fprintf(&b, "Severity: %s (%.1f/10)\n", cls.Severity, cls.SeverityScore)
	if cls.CVSSScore != nil {
		fmt.Fprintf(&b, "CVSS: %.1f\n", *cls.CVSSScore)
	}
	if len(cls.CVERefs) > 0 {
		fmt.Fprintf(&b, "CVEs: %s\n", strings.Join(cls.CVERefs, ", "))
	}
	fmt.Fprintf(&b, "Security alert: %t\n\n", cls.IsSecurityAlert)
	b.WriteString("Structure your reply EXACTLY like this:\n\n")
	b.WriteString("SUMMARY:\n[4-6 sentences maximum]\n\n")
	b.WriteString("KEY POINTS:\n[3 to 5 bullet points]\n\n")
	b.WriteString("BUSINESS IMPACT:\n[2-3 sentences on the impact for the IT infrastructure]\n\n")
	b.WriteString("TECHNICAL DETAILS:\n[2-3 sentences of technical specifics]\n\n")
	b.WriteString("RECOMMENDATIONS:\n[1 to 3 concrete, measurable actions as bullet points]\n\n")
	b.WriteString("RELATED:\n[related products or advisories as bullet points, may be empty]\n\n")
	b.WriteString("Write ONLY the structured brief, without preamble or conclusion.")
	return b.String()
}
