package classify

import (
	"context"
	"testing"

	"TechWatch/internal/domain"
)

func TestLexiconEmptyInputDefaults(t *testing.T) {
	t.Parallel()

	lc := NewLexiconClassifier(DefaultTable())
	candidate, err := lc.Classify(context.Background(), "")
	if err != nil {
		t.Fatalf("lexicon classify returned error: %v", err)
	}

	if candidate.Technology != string(domain.TechOther) {
		t.Fatalf("expected technology other, got %s", candidate.Technology)
	}
	if candidate.Category != string(domain.CategoryNews) {
		t.Fatalf("expected category news, got %s", candidate.Category)
	}
	if candidate.Severity != string(domain.SeverityMedium) {
		t.Fatalf("expected severity medium, got %s", candidate.Severity)
	}
	if candidate.Confidence != LexiconConfidence {
		t.Fatalf("expected fixed fallback confidence, got %f", candidate.Confidence)
	}
}

func TestLexiconStrictlyGreatestWins(t *testing.T) {
	t.Parallel()

	lc := NewLexiconClassifier(DefaultTable())
	candidate, err := lc.Classify(context.Background(),
		"FortiGate and FortiOS advisory from Fortinet about the ssl vpn portal")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if candidate.Technology != string(domain.TechFortinet) {
		t.Fatalf("expected fortinet, got %s", candidate.Technology)
	}
}

func TestLexiconTieKeepsDeclarationOrder(t *testing.T) {
	t.Parallel()

	table := Table{
		Technologies: []TechEntry{
			{Technology: domain.TechVMware, Keywords: []string{"hypervisor"}},
			{Technology: domain.TechDell, Keywords: []string{"server"}},
		},
		Severity: DefaultTable().Severity,
	}

	lc := NewLexiconClassifier(table)
	candidate, err := lc.Classify(context.Background(), "a hypervisor on a server")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	// One match each: the first-declared entry must win the tie.
	if candidate.Technology != string(domain.TechVMware) {
		t.Fatalf("expected first-seen vmware on tie, got %s", candidate.Technology)
	}
}

func TestLexiconSeverityTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		text     string
		severity domain.Severity
		score    float64
		alert    bool
	}{
		{"critical signal", "active ransomware campaign observed", domain.SeverityCritical, 9.0, true},
		{"high signal", "new vulnerability disclosed", domain.SeverityHigh, 7.0, true},
		{"medium signal", "monthly security update available", domain.SeverityMedium, 5.0, true},
		{"low signal", "product announcement for partners", domain.SeverityLow, 3.0, false},
	}

	lc := NewLexiconClassifier(DefaultTable())
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			candidate, err := lc.Classify(context.Background(), tc.text)
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if candidate.Severity != string(tc.severity) {
				t.Fatalf("expected %s, got %s", tc.severity, candidate.Severity)
			}
			if candidate.SeverityScore != tc.score {
				t.Fatalf("expected score %.1f, got %.1f", tc.score, candidate.SeverityScore)
			}
			if candidate.IsSecurityAlert != tc.alert {
				t.Fatalf("expected alert=%t", tc.alert)
			}
		})
	}
}

func TestLexiconCVSSOverride(t *testing.T) {
	t.Parallel()

	lc := NewLexiconClassifier(DefaultTable())
	candidate, err := lc.Classify(context.Background(),
		"vendor advisory rates the issue cvss: 9.8 and recommends an update")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if candidate.Severity != string(domain.SeverityCritical) {
		t.Fatalf("expected cvss 9.8 to force critical, got %s", candidate.Severity)
	}
	if candidate.CVSSScore == nil || *candidate.CVSSScore != 9.8 {
		t.Fatalf("expected extracted cvss 9.8, got %v", candidate.CVSSScore)
	}
	if candidate.SeverityScore != 9.8 {
		t.Fatalf("expected severity score to track cvss, got %.1f", candidate.SeverityScore)
	}
}

func TestLexiconCategoryDerivation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text     string
		category domain.Category
	}{
		{"a new exploit targets the appliance", domain.CategoryVulnerability},
		{"hotfix released, apply the patch", domain.CategoryPatch},
		{"security alert for administrators", domain.CategorySecurity},
		{"general availability release of the product", domain.CategoryProduct},
		{"quarterly earnings report", domain.CategoryNews},
	}

	lc := NewLexiconClassifier(DefaultTable())
	for _, tc := range cases {
		candidate, err := lc.Classify(context.Background(), tc.text)
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		if candidate.Category != string(tc.category) {
			t.Fatalf("text %q: expected %s, got %s", tc.text, tc.category, candidate.Category)
		}
	}
}
