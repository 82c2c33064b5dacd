package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"TechWatch/internal/domain"
)

func testNotifier(send sendFunc) *Notifier {
	n := NewNotifier("smtp.example.com", 587, "alerts@example.com", "secret", "TechWatch")
	n.send = send
	n.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return n
}

func criticalArticle() domain.ProcessedArticle {
	cvss := 9.8
	return domain.ProcessedArticle{
		SourceID: "https://example.com/advisory",
		Title:    "Critical FortiOS SSL VPN vulnerability",
		Classification: domain.Classification{
			Technology:      domain.TechFortinet,
			Severity:        domain.SeverityCritical,
			SeverityScore:   9.0,
			CVSSScore:       &cvss,
			IsSecurityAlert: true,
			CVERefs:         []string{"CVE-2024-21762"},
			ImpactAnalysis:  "Remote code execution on exposed appliances.",
			ActionRequired:  "Apply the vendor patch immediately.",
		},
		Summary: domain.Summary{SummaryText: "A critical flaw allows unauthenticated RCE."},
	}
}

func TestDispatchBuildsAlertMail(t *testing.T) {
	t.Parallel()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	n := testNotifier(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	})

	recipients := []string{"ops@example.com", "security@example.com"}
	if err := n.Dispatch(context.Background(), criticalArticle(), recipients); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Fatalf("unexpected addr %q", gotAddr)
	}
	if gotFrom != "alerts@example.com" || len(gotTo) != 2 {
		t.Fatalf("unexpected envelope %q -> %v", gotFrom, gotTo)
	}

	body := string(gotMsg)
	for _, want := range []string{
		"Subject: CRITICAL FORTINET - Critical FortiOS SSL VPN vulnerability",
		"X-Priority: 1",
		"CVSS: 9.8",
		"CVEs: CVE-2024-21762",
		"Summary: A critical flaw allows unauthenticated RCE.",
		"Recommended action: Apply the vendor patch immediately.",
		"Link: https://example.com/advisory",
		"14/03/2026 09:30",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("message missing %q\n%s", want, body)
		}
	}
}

func TestDispatchTruncatesLongTitle(t *testing.T) {
	t.Parallel()

	var gotMsg []byte
	n := testNotifier(func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	})

	article := criticalArticle()
	article.Title = strings.Repeat("t", 150)
	if err := n.Dispatch(context.Background(), article, []string{"ops@example.com"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if strings.Contains(string(gotMsg), strings.Repeat("t", 101)) {
		t.Fatalf("subject title not truncated to 100 chars")
	}
}

func TestDispatchAccentedTitleStaysValidUTF8(t *testing.T) {
	t.Parallel()

	var gotMsg []byte
	n := testNotifier(func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	})

	article := criticalArticle()
	// Continuation byte of the accented rune sits exactly on the cut.
	article.Title = strings.Repeat("t", maxSubjectTitleLen-1) + strings.Repeat("é", 10)
	if err := n.Dispatch(context.Background(), article, []string{"ops@example.com"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !utf8.Valid(gotMsg) {
		t.Fatalf("message is not valid UTF-8 after title truncation")
	}
}

func TestDispatchMissingCVSS(t *testing.T) {
	t.Parallel()

	var gotMsg []byte
	n := testNotifier(func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	})

	article := criticalArticle()
	article.Classification.CVSSScore = nil
	if err := n.Dispatch(context.Background(), article, []string{"ops@example.com"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !strings.Contains(string(gotMsg), "CVSS: N/A") {
		t.Fatalf("expected N/A placeholder for missing cvss")
	}
}

func TestDispatchNoRecipients(t *testing.T) {
	t.Parallel()

	n := testNotifier(func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	})
	if err := n.Dispatch(context.Background(), criticalArticle(), nil); err == nil {
		t.Fatalf("expected error without recipients")
	}
}

func TestDispatchSendFailure(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("connection reset")
	n := testNotifier(func(string, smtp.Auth, string, []string, []byte) error {
		return wantErr
	})
	if err := n.Dispatch(context.Background(), criticalArticle(), []string{"ops@example.com"}); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
