package dashboard

import (
	"fmt"
	"sync"
)

// diagnostics collects the human-readable caveats surfaced in the payload's
// messages field. Safe for concurrent use by the fan-out goroutines.
type diagnostics struct {
	mu   sync.Mutex
	msgs []string
}

func newDiagnostics() *diagnostics {
	return &diagnostics{}
}

func (d *diagnostics) add(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
}

func (d *diagnostics) addf(format string, args ...interface{}) {
	d.add(fmt.Sprintf(format, args...))
}

// messages returns the collected messages, never nil: the payload field is
// required and serializes as an empty array rather than null.
func (d *diagnostics) messages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.msgs))
	copy(out, d.msgs)
	return out
}
