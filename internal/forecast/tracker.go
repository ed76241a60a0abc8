package forecast

import "sync/atomic"

// Token identifies one asynchronous request generation.
type Token uint64

// Tracker hands out generation tokens so a response that arrives after a
// newer request (or after predictions were switched off) is discarded
// instead of overwriting newer state.
type Tracker struct {
	gen atomic.Uint64
}

// Begin starts a new generation and returns its token. Any earlier token
// stops being current.
func (t *Tracker) Begin() Token {
	return Token(t.gen.Add(1))
}

// Current reports whether tok belongs to the latest generation.
func (t *Tracker) Current(tok Token) bool {
	return tok != 0 && uint64(tok) == t.gen.Load()
}

// Invalidate retires every outstanding token.
func (t *Tracker) Invalidate() {
	t.gen.Add(1)
}
