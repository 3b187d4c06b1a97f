// Package deliver implements the delivery channels notices are handed to: a
// sendmail transport for the mailing list and an XML feed for the
// change-aggregation relay. Channels are fire-and-forget sinks; no
// acknowledgment is tracked.
package deliver

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"github.com/refnotify/refnotify/pkg/notify"
)

// Mailer pipes RFC-822 messages to a sendmail binary.
type Mailer struct {
	sendmailPath string
	from         string
}

// NewMailer returns a Mailer using the given sendmail binary and envelope
// sender.
func NewMailer(sendmailPath, from string) *Mailer {
	return &Mailer{sendmailPath: sendmailPath, from: from}
}

// Deliver builds a message and pipes it to sendmail. One call per notice.
func (m *Mailer) Deliver(ctx context.Context, recipient, subject, contentType string, headers map[string]string, lines []string) error {
	msg := buildMessage(m.from, recipient, subject, contentType, headers, lines)
	cmd := exec.CommandContext(ctx, m.sendmailPath, "-t", "-oi")
	cmd.Stdin = bytes.NewReader(msg)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sendmail: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// buildMessage renders an RFC-822 message with CRLF-free line endings, the
// way sendmail -t expects it on stdin.
func buildMessage(from, to, subject, contentType string, headers map[string]string, lines []string) []byte {
	var b bytes.Buffer
	if from != "" {
		fmt.Fprintf(&b, "From: %s\n", from)
	}
	fmt.Fprintf(&b, "To: %s\n", to)
	// RFC 2047 encode non-ASCII subjects; plain ASCII passes through as is
	fmt.Fprintf(&b, "Subject: %s\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Message-ID: <%s@refnotify>\n", uuid.NewString())
	fmt.Fprintf(&b, "MIME-Version: 1.0\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=utf-8\n", contentType)
	for key, value := range headers {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, value)
		}
	}
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.Bytes()
}

// MailSink delivers plain-text notices to a mailing address.
type MailSink struct {
	mailer *Mailer
	to     string
}

var _ notify.Sink = (*MailSink)(nil)

// NewMailSink returns a MailSink addressed at the given recipient.
func NewMailSink(mailer *Mailer, to string) *MailSink {
	return &MailSink{mailer: mailer, to: to}
}

// Send implements notify.Sink.
func (s *MailSink) Send(ctx context.Context, n notify.Notice) error {
	headers := map[string]string{
		"X-Git-Repo": n.Repo,
		"X-Git-Ref":  n.Ref,
	}
	if n.CommitID != "" {
		headers["X-Git-Commit"] = n.CommitID.String()
	}
	return s.mailer.Deliver(ctx, s.to, n.Subject, n.ContentType, headers, n.Lines)
}
