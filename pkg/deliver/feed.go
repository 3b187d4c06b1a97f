package deliver

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/refnotify/refnotify/pkg/notify"
)

// feedPayload is the machine-readable wrapper sent to the aggregator.
type feedPayload struct {
	XMLName xml.Name `xml:"notice"`
	Repo    string   `xml:"repository"`
	Ref     string   `xml:"ref,omitempty"`
	Commit  string   `xml:"commit,omitempty"`
	Author  string   `xml:"author,omitempty"`
	Subject string   `xml:"subject"`
	Files   []string `xml:"files>file,omitempty"`
	Body    string   `xml:"body"`
}

// FeedSink wraps notices in an XML payload and hands them to the mail
// transport addressed at the aggregator.
type FeedSink struct {
	mailer *Mailer
	to     string
}

var _ notify.Sink = (*FeedSink)(nil)

// NewFeedSink returns a FeedSink addressed at the given aggregator address.
func NewFeedSink(mailer *Mailer, to string) *FeedSink {
	return &FeedSink{mailer: mailer, to: to}
}

// Send implements notify.Sink.
func (s *FeedSink) Send(ctx context.Context, n notify.Notice) error {
	body, err := MarshalFeed(n)
	if err != nil {
		return err
	}
	headers := map[string]string{
		"X-Git-Repo": n.Repo,
		"X-Git-Ref":  n.Ref,
	}
	return s.mailer.Deliver(ctx, s.to, n.Subject, notify.ContentTypeXML, headers, strings.Split(body, "\n"))
}

// MarshalFeed renders the XML payload for a notice.
func MarshalFeed(n notify.Notice) (string, error) {
	payload := feedPayload{
		Repo:    n.Repo,
		Ref:     n.Ref,
		Author:  n.Author,
		Subject: n.Subject,
		Files:   n.Files,
		Body:    strings.Join(n.Lines, "\n"),
	}
	if n.CommitID != "" && !n.CommitID.IsZero() {
		payload.Commit = n.CommitID.String()
	}
	out, err := xml.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal feed payload: %w", err)
	}
	return xml.Header + string(out), nil
}
