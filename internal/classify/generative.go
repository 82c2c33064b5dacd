package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"TechWatch/internal/domain"
	"TechWatch/internal/ports"
)

// GenerativeConfidence is the fixed confidence assigned to model-derived
// classifications that parsed cleanly.
const GenerativeConfidence = 0.85

const classifierSystemPrompt = "You are a cybersecurity expert who classifies IT watch articles precisely."

// maxClassifyExcerpt bounds the article text sent to the model.
const maxClassifyExcerpt = 2000

// GenerativeClassifier is the preferred tier. Any transport, status, or parse
// problem surfaces as an error so the orchestrator can fall back cleanly; its
// output is raw and must still pass the normalizer.
type GenerativeClassifier struct {
	chat ports.ChatClient
}

var _ ports.Classifier = (*GenerativeClassifier)(nil)

// NewGenerativeClassifier wires a chat-completion client.
func NewGenerativeClassifier(chat ports.ChatClient) *GenerativeClassifier {
	return &GenerativeClassifier{chat: chat}
}

// candidatePayload mirrors the JSON reply requested from the model.
type candidatePayload struct {
	Technology      string   `json:"technology"`
	Category        string   `json:"category"`
	SeverityLevel   string   `json:"severity_level"`
	SeverityScore   float64  `json:"severity_score"`
	CVSSScore       *float64 `json:"cvss_score"`
	IsSecurityAlert bool     `json:"is_security_alert"`
	ImpactAnalysis  string   `json:"impact_analysis"`
	ActionRequired  string   `json:"action_required"`
	CVEReferences   []string `json:"cve_references"`
}

// Classify sends a constrained prompt enumerating the closed vocabularies and
// decodes the JSON reply into a candidate.
func (g *GenerativeClassifier) Classify(ctx context.Context, text string) (ports.Candidate, error) {
	if g.chat == nil {
		return ports.Candidate{}, fmt.Errorf("chat client is not configured")
	}

	reply, err := g.chat.Complete(ctx, classifierSystemPrompt, buildClassifyPrompt(text))
	if err != nil {
		return ports.Candidate{}, fmt.Errorf("model call: %w", err)
	}

	cleaned := stripCodeFence(reply)
	if cleaned == "" {
		return ports.Candidate{}, fmt.Errorf("empty model reply")
	}

	var payload candidatePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return ports.Candidate{}, fmt.Errorf("decode model reply: %w", err)
	}

	return ports.Candidate{
		Technology:      payload.Technology,
		Category:        payload.Category,
		Severity:        payload.SeverityLevel,
		SeverityScore:   payload.SeverityScore,
		CVSSScore:       payload.CVSSScore,
		IsSecurityAlert: payload.IsSecurityAlert,
		ImpactAnalysis:  payload.ImpactAnalysis,
		ActionRequired:  payload.ActionRequired,
		CVERefs:         payload.CVEReferences,
		Confidence:      GenerativeConfidence,
	}, nil
}

func buildClassifyPrompt(text string) string {
	excerpt := text
	if len(excerpt) > maxClassifyExcerpt {
		excerpt = excerpt[:maxClassifyExcerpt]
	}

	var b strings.Builder
	b.WriteString("Analyze this IT watch article and reply with a JSON object containing EXACTLY these fields:\n")
	b.WriteString(`{"technology": "`)
	b.WriteString(joinVocabulary(technologyVocabulary()))
	b.WriteString(`", "category": "`)
	b.WriteString(joinVocabulary(categoryVocabulary()))
	b.WriteString(`", "severity_level": "low|medium|high|critical", `)
	b.WriteString(`"severity_score": 1.0-10.0, "cvss_score": null or the CVSS score if mentioned, `)
	b.WriteString(`"is_security_alert": true/false, "impact_analysis": "short impact description", `)
	b.WriteString(`"action_required": "one-sentence recommended action", `)
	b.WriteString(`"cve_references": ["CVE-YYYY-NNNN", ...]}` + "\n\n")
	b.WriteString("Severity criteria:\n")
	b.WriteString("- critical: critical CVE, active exploitation, major impact\n")
	b.WriteString("- high: important vulnerability, urgent patch required\n")
	b.WriteString("- medium: standard security update\n")
	b.WriteString("- low: general information, functional update\n\n")
	b.WriteString("Article:\n")
	b.WriteString(excerpt)
	b.WriteString("\n\nReply with ONLY the JSON, no extra text.")
	return b.String()
}

func technologyVocabulary() []string {
	techs := domain.Technologies()
	values := make([]string, len(techs))
	for i, t := range techs {
		values[i] = string(t)
	}
	return values
}

func categoryVocabulary() []string {
	cats := domain.Categories()
	values := make([]string, len(cats))
	for i, c := range cats {
		values[i] = string(c)
	}
	return values
}

func joinVocabulary(values []string) string {
	return strings.Join(values, "|")
}

// stripCodeFence removes a surrounding ```json fence some models emit.
func stripCodeFence(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
