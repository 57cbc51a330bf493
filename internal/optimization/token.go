package optimization

import "sync/atomic"

// Token is a cooperative stop signal shared between the caller and one
// worker. The caller sets it at most once per run; the worker reads it at
// the top of every iteration. atomic.Bool gives the sequentially-consistent
// ordering the single-flag protocol relies on, so no lock is needed.
type Token struct {
	stopped atomic.Bool
}

// NewToken returns a fresh, unset token.
func NewToken() *Token {
	return &Token{}
}

// Stop requests cancellation. Idempotent and non-blocking; it has no effect
// beyond the flag, and none at all once the run has terminated.
func (t *Token) Stop() {
	t.stopped.Store(true)
}

// Stopped reports whether cancellation has been requested.
func (t *Token) Stopped() bool {
	return t.stopped.Load()
}
