package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
	"unicode/utf8"

	"TechWatch/internal/domain"
	"TechWatch/internal/ports"
)

// maxSubjectTitleLen bounds the article title inside the mail subject.
const maxSubjectTitleLen = 100

// sendFunc matches smtp.SendMail; injectable so tests can capture messages.
type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Notifier dispatches critical-alert emails over SMTP.
type Notifier struct {
	host     string
	port     int
	username string
	password string
	fromName string
	send     sendFunc
	now      func() time.Time
}

var _ ports.AlertTransport = (*Notifier)(nil)

// NewNotifier registers the SMTP account used for outbound alerts.
func NewNotifier(host string, port int, username, password, fromName string) *Notifier {
	return &Notifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		fromName: fromName,
		send:     smtp.SendMail,
		now:      time.Now,
	}
}

// Dispatch sends one alert email to all recipients. The gate decides whether
// and once to call this; the transport only formats and delivers.
func (n *Notifier) Dispatch(ctx context.Context, article domain.ProcessedArticle, recipients []string) error {
	if n.host == "" || n.username == "" || n.password == "" {
		return fmt.Errorf("smtp notifier misconfigured")
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no alert recipients configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.username, n.password, n.host)
	msg := n.buildMessage(article, recipients)

	if err := n.send(addr, auth, n.username, recipients, msg); err != nil {
		return fmt.Errorf("send alert mail: %w", err)
	}
	return nil
}

func (n *Notifier) buildMessage(article domain.ProcessedArticle, recipients []string) []byte {
	cls := article.Classification
	sum := article.Summary

	title := truncateTitle(article.Title, maxSubjectTitleLen)

	subject := fmt.Sprintf("CRITICAL %s - %s", strings.ToUpper(string(cls.Technology)), title)

	cvss := "N/A"
	if cls.CVSSScore != nil {
		cvss = fmt.Sprintf("%.1f", *cls.CVSSScore)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", n.fromName, n.username)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("X-Priority: 1\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("CRITICAL SECURITY ALERT - TechWatch\r\n\r\n")
	fmt.Fprintf(&b, "Technology: %s\r\n", strings.ToUpper(string(cls.Technology)))
	fmt.Fprintf(&b, "Title: %s\r\n", title)
	fmt.Fprintf(&b, "CVSS: %s\r\n", cvss)
	fmt.Fprintf(&b, "Severity: %.1f/10\r\n", cls.SeverityScore)
	if len(cls.CVERefs) > 0 {
		fmt.Fprintf(&b, "CVEs: %s\r\n", strings.Join(cls.CVERefs, ", "))
	}
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Summary: %s\r\n\r\n", sum.SummaryText)
	fmt.Fprintf(&b, "Impact: %s\r\n\r\n", cls.ImpactAnalysis)
	fmt.Fprintf(&b, "Recommended action: %s\r\n\r\n", cls.ActionRequired)
	fmt.Fprintf(&b, "Link: %s\r\n\r\n", article.SourceID)
	b.WriteString("This alert requires immediate attention from the security team.\r\n")
	b.WriteString("--\r\n")
	fmt.Fprintf(&b, "TechWatch automated alerting - %s\r\n", n.now().Format("02/01/2006 15:04"))

	return []byte(b.String())
}

// truncateTitle cuts at a rune boundary so the subject stays valid UTF-8.
func truncateTitle(title string, max int) string {
	if len(title) <= max {
		return title
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(title[cut]) {
		cut--
	}
	return title[:cut]
}
