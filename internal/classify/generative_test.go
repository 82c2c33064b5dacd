package classify

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubChat struct {
	reply string
	err   error

	lastSystem string
	lastUser   string
}

func (s *stubChat) Complete(_ context.Context, system, user string) (string, error) {
	s.lastSystem = system
	s.lastUser = user
	return s.reply, s.err
}

const validReply = `{
	"technology": "fortinet",
	"category": "vulnerability",
	"severity_level": "critical",
	"severity_score": 9.2,
	"cvss_score": 9.8,
	"is_security_alert": true,
	"impact_analysis": "Remote code execution on exposed appliances.",
	"action_required": "Apply the vendor patch immediately.",
	"cve_references": ["CVE-2024-21762"]
}`

func TestGenerativeClassifyDecodesReply(t *testing.T) {
	t.Parallel()

	chat := &stubChat{reply: validReply}
	gc := NewGenerativeClassifier(chat)

	candidate, err := gc.Classify(context.Background(), "FortiOS advisory")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if candidate.Technology != "fortinet" {
		t.Fatalf("expected fortinet, got %s", candidate.Technology)
	}
	if candidate.Severity != "critical" || candidate.SeverityScore != 9.2 {
		t.Fatalf("unexpected severity %s/%.1f", candidate.Severity, candidate.SeverityScore)
	}
	if candidate.CVSSScore == nil || *candidate.CVSSScore != 9.8 {
		t.Fatalf("unexpected cvss %v", candidate.CVSSScore)
	}
	if !candidate.IsSecurityAlert {
		t.Fatalf("expected security alert")
	}
	if len(candidate.CVERefs) != 1 || candidate.CVERefs[0] != "CVE-2024-21762" {
		t.Fatalf("unexpected cve refs %v", candidate.CVERefs)
	}
	if candidate.Confidence != GenerativeConfidence {
		t.Fatalf("expected fixed model confidence, got %f", candidate.Confidence)
	}
}

func TestGenerativeClassifyStripsCodeFence(t *testing.T) {
	t.Parallel()

	chat := &stubChat{reply: "```json\n" + validReply + "\n```"}
	gc := NewGenerativeClassifier(chat)

	candidate, err := gc.Classify(context.Background(), "advisory")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if candidate.Technology != "fortinet" {
		t.Fatalf("expected fenced JSON to decode, got %s", candidate.Technology)
	}
}

func TestGenerativeClassifyMalformedReply(t *testing.T) {
	t.Parallel()

	gc := NewGenerativeClassifier(&stubChat{reply: "the article is about fortinet"})
	if _, err := gc.Classify(context.Background(), "advisory"); err == nil {
		t.Fatalf("expected decode error for prose reply")
	}
}

func TestGenerativeClassifyTransportError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("connection refused")
	gc := NewGenerativeClassifier(&stubChat{err: wantErr})

	_, err := gc.Classify(context.Background(), "advisory")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestGenerativeClassifyPromptBounds(t *testing.T) {
	t.Parallel()

	chat := &stubChat{reply: validReply}
	gc := NewGenerativeClassifier(chat)

	long := strings.Repeat("x", maxClassifyExcerpt+500)
	if _, err := gc.Classify(context.Background(), long); err != nil {
		t.Fatalf("classify: %v", err)
	}

	if strings.Contains(chat.lastUser, strings.Repeat("x", maxClassifyExcerpt+1)) {
		t.Fatalf("prompt carries more than the excerpt limit")
	}
	if !strings.Contains(chat.lastUser, "severity_level") {
		t.Fatalf("prompt missing requested JSON shape")
	}
}
