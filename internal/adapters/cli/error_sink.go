package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/example/pinpoint/internal/ports/secondary"
)

// ConsoleErrorSink prints reported failures for the operator and forwards
// them to the next sink.
type ConsoleErrorSink struct {
	next secondary.ErrorSink

	mu  sync.Mutex
	out io.Writer
}

// NewConsoleErrorSink creates a sink writing to out. next may be nil.
func NewConsoleErrorSink(out io.Writer, next secondary.ErrorSink) *ConsoleErrorSink {
	return &ConsoleErrorSink{next: next, out: out}
}

// ReportError implements secondary.ErrorSink.
func (s *ConsoleErrorSink) ReportError(ctx context.Context, probeID, operation string, err error) {
	s.mu.Lock()
	fmt.Fprintf(s.out, "%s %s %s: %v\n", errorColor.Sprint("✗"), probeID, operation, err)
	s.mu.Unlock()

	if s.next != nil {
		s.next.ReportError(ctx, probeID, operation, err)
	}
}

var _ secondary.ErrorSink = (*ConsoleErrorSink)(nil)
