package summarize

import (
	"testing"
)

const structuredReply = `SUMMARY:
A critical flaw in the SSL VPN portal allows unauthenticated remote code
execution. The vendor released fixed firmware for all supported branches.

KEY POINTS:
- Unauthenticated RCE in the VPN portal
- Fixed firmware available
* Exploitation observed in the wild

BUSINESS IMPACT:
Exposed gateways can be fully compromised.

TECHNICAL DETAILS:
An out-of-bounds write in the session handler.

RECOMMENDATIONS:
1. Upgrade to the fixed firmware
2) Restrict portal exposure

RELATED:
- Prior advisory on the same component
`

func TestParseSectionsStructured(t *testing.T) {
	t.Parallel()

	parsed := parseSections(structuredReply)

	if !parsed.Structured {
		t.Fatalf("expected structured reply to be recognized")
	}
	if parsed.Summary == "" || parsed.Summary[:10] != "A critical" {
		t.Fatalf("unexpected summary %q", parsed.Summary)
	}
	if len(parsed.KeyPoints) != 3 {
		t.Fatalf("expected 3 key points, got %v", parsed.KeyPoints)
	}
	if parsed.KeyPoints[2] != "Exploitation observed in the wild" {
		t.Fatalf("bullet marker not stripped: %q", parsed.KeyPoints[2])
	}
	if parsed.BusinessImpact != "Exposed gateways can be fully compromised." {
		t.Fatalf("unexpected business impact %q", parsed.BusinessImpact)
	}
	if len(parsed.Recommendations) != 2 || parsed.Recommendations[1] != "Restrict portal exposure" {
		t.Fatalf("numbered bullets not parsed: %v", parsed.Recommendations)
	}
	if len(parsed.RelatedItems) != 1 {
		t.Fatalf("expected one related item, got %v", parsed.RelatedItems)
	}
}

func TestParseSectionsUnstructuredFallsBackVerbatim(t *testing.T) {
	t.Parallel()

	reply := "The vendor shipped a fix.\nAdmins should update soon."
	parsed := parseSections(reply)

	if parsed.Structured {
		t.Fatalf("prose reply must not count as structured")
	}
	if parsed.Summary != "The vendor shipped a fix. Admins should update soon." {
		t.Fatalf("expected verbatim collapsed summary, got %q", parsed.Summary)
	}
	if len(parsed.KeyPoints) != 0 || parsed.BusinessImpact != "" {
		t.Fatalf("unstructured parse must leave other sections empty")
	}
}

func TestParseSectionsPartialLabels(t *testing.T) {
	t.Parallel()

	reply := "SUMMARY:\nShort note about a release.\n\nKEY POINTS:\n- Only one point"
	parsed := parseSections(reply)

	if !parsed.Structured {
		t.Fatalf("a reply with a SUMMARY label is structured")
	}
	if parsed.Summary != "Short note about a release." {
		t.Fatalf("unexpected summary %q", parsed.Summary)
	}
	if len(parsed.KeyPoints) != 1 {
		t.Fatalf("expected one key point, got %v", parsed.KeyPoints)
	}
	if parsed.TechnicalDetails != "" {
		t.Fatalf("absent sections must stay empty")
	}
}

func TestSplitListDropsEmptyLines(t *testing.T) {
	t.Parallel()

	items := splitList("- first\n\n   \n- second\n")
	if len(items) != 2 || items[0] != "first" || items[1] != "second" {
		t.Fatalf("unexpected items %v", items)
	}
}
