package deliver

import (
	"context"
	"fmt"
	"io"

	"github.com/refnotify/refnotify/pkg/notify"
)

// WriterSink writes notices to a writer. It backs the hook's dry-run mode.
type WriterSink struct {
	w io.Writer
}

var _ notify.Sink = (*WriterSink)(nil)

// NewWriterSink returns a WriterSink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Send implements notify.Sink.
func (s *WriterSink) Send(_ context.Context, n notify.Notice) error {
	if _, err := fmt.Fprintf(s.w, "Subject: %s\n\n", n.Subject); err != nil {
		return err
	}
	for _, line := range n.Lines {
		if _, err := fmt.Fprintln(s.w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(s.w)
	return err
}
