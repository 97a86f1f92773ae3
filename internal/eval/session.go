package eval

import (
	"math/big"
	"sync"

	"github.com/google/uuid"

	"jsrepl/internal/inspect"
)

// Session is the per-session state the evaluator and the line-input loop
// share. It is created once at session start and mutated only after a
// completed evaluation.
//
// The remote globals `_` and `_error` are written by the render call inside
// the remote context; Session additionally keeps the local analogs for
// values that never reach the remote side (the bigint workaround).
type Session struct {
	ID string

	mu        sync.Mutex
	opts      inspect.Options
	count     int
	lastText  string
	lastBig   *big.Int
	lastBigOK bool
	lastIsErr bool
}

// NewSession creates a fresh session with the given display options.
func NewSession(opts inspect.Options) *Session {
	return &Session{ID: uuid.NewString(), opts: opts}
}

// Options returns the currently configured display options.
func (s *Session) Options() inspect.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// SetOptions replaces the display options.
func (s *Session) SetOptions(opts inspect.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
}

// RecordResult notes a completed evaluation and its rendered text.
func (s *Session) RecordResult(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	s.lastText = text
}

// StoreBigint stores a parsed arbitrary-precision result under the local
// success binding, or the local error binding when the evaluation threw.
func (s *Session) StoreBigint(v *big.Int, thrown bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBig = v
	s.lastBigOK = true
	s.lastIsErr = thrown
}

// LastBigint returns the most recent locally stored bigint, whether it was
// stored under the error binding, and whether one exists at all.
func (s *Session) LastBigint() (v *big.Int, isError, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBig, s.lastIsErr, s.lastBigOK
}

// Count returns how many evaluations have completed.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// LastText returns the most recent rendered result.
func (s *Session) LastText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastText
}
