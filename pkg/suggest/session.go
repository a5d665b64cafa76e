package suggest

import (
	"context"
	"sync/atomic"
)

// Session serializes suggestion delivery for one input stream (one search
// box). Each OnInput supersedes the previous one: a request that finishes
// after a newer request arrived is stale and its delivery is suppressed.
// Shard loads triggered by a stale request are not aborted; their result
// stays cached for the keystrokes that follow.
type Session struct {
	ix  *Index
	gen atomic.Uint64
}

// NewSession creates a delivery session bound to the index.
func (ix *Index) NewSession() *Session {
	return &Session{ix: ix}
}

// OnInput resolves suggestions for text asynchronously and calls deliver
// with the result, unless a newer OnInput supersedes this one first.
// deliver runs on the request's goroutine.
func (s *Session) OnInput(ctx context.Context, text string, q Query, deliver func([]Suggestion)) {
	go func() {
		if result, stale := s.Resolve(ctx, text, q); !stale {
			deliver(result)
		}
	}()
}

// Resolve runs the query synchronously and reports whether a newer request
// on this session superseded it while it ran. Stale results must be
// discarded by the caller, not rendered.
func (s *Session) Resolve(ctx context.Context, text string, q Query) (result []Suggestion, stale bool) {
	gen := s.gen.Add(1)
	result = s.ix.Suggest(ctx, text, q)
	return result, s.gen.Load() != gen
}
