package waiter

import (
	"sync"
	"time"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/rule"
	"github.com/halcyon-dev/telecore/update"
)

// LookupError reports that a Drop/Wait-resolution operation named a
// (hasher, key) pair with no suspended ShortState (spec.md §7).
type LookupError struct {
	Hasher string
	Key    any
}

func (e *LookupError) Error() string {
	return "waiter: no suspended state for hasher " + e.Hasher
}

// ShortState is one suspended wait(), grounded directly on
// mubble/bot/dispatch/waiter_machine/short_state.py's dataclass. Filter and
// Rules are the two distinct gates spec.md §4.7 names: Filter (step 4) may
// reject an update without consuming it at all, while Rules (the release,
// step 5) is what actually resolves the wait.
type ShortState struct {
	Key            any
	Filter         rule.Rule
	Rules          []rule.Rule
	Expiration     time.Time
	OnMiss         func(ctx *dctx.Context, u *update.Update) error
	OnDrop         func()

	resolveOnce sync.Once
	done        chan struct{}
	result      *dctx.Context
	dropErr     error
}

// newShortState builds a ShortState with lifetime (zero means no expiry).
func newShortState(key any, filter rule.Rule, rules []rule.Rule, lifetime time.Duration, onMiss func(*dctx.Context, *update.Update) error, onDrop func()) *ShortState {
	s := &ShortState{
		Key:    key,
		Filter: filter,
		Rules:  rules,
		OnMiss: onMiss,
		OnDrop: onDrop,
		done:   make(chan struct{}),
	}
	if lifetime > 0 {
		s.Expiration = time.Now().Add(lifetime)
	}
	return s
}

// Expired reports whether this state has outlived its lifetime.
func (s *ShortState) Expired(now time.Time) bool {
	return !s.Expiration.IsZero() && now.After(s.Expiration)
}

// fire resolves the wait with the matched Context, waking the waiting
// goroutine exactly once. Concurrent callers (an incoming update's match on
// one goroutine racing the sweeper's expiry on another, per spec.md §5's
// "serialize access to each hasher's bucket") only the first resolve wins;
// later ones are no-ops, never a second close.
func (s *ShortState) fire(ctx *dctx.Context) {
	s.resolveOnce.Do(func() {
		s.result = ctx
		close(s.done)
	})
}

// cancel resolves the wait with an error (eviction, expiry, explicit drop),
// waking the waiting goroutine exactly once; see fire's race note.
func (s *ShortState) cancel(err error) {
	s.resolveOnce.Do(func() {
		s.dropErr = err
		close(s.done)
		if s.OnDrop != nil {
			s.OnDrop()
		}
	})
}

// Done exposes the completion channel for select-based waits (Machine.wait).
func (s *ShortState) Done() <-chan struct{} { return s.done }

// Result returns the matched Context and any error, valid only after Done() is closed.
func (s *ShortState) Result() (*dctx.Context, error) {
	if s.dropErr != nil {
		return nil, s.dropErr
	}
	return s.result, nil
}
