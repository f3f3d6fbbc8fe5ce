package testutil

import (
	"context"
	"testing"
	"time"
)

// SubprocessTimeout bounds godog and git invocations made by tests.
const SubprocessTimeout = 10 * time.Second

// Context returns a context for running a subprocess from a test. It ends at the
// earlier of timeout (SubprocessTimeout when zero) and one second before the test
// deadline, and is cancelled when the test finishes.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	if timeout <= 0 {
		timeout = SubprocessTimeout
	}
	deadline := time.Now().Add(timeout)
	if testDeadline, ok := t.Deadline(); ok {
		if limit := testDeadline.Add(-time.Second); limit.Before(deadline) {
			deadline = limit
		}
	}
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	t.Cleanup(cancel)
	return ctx
}
