package waiter

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/lifespan"
	"github.com/halcyon-dev/telecore/rule"
	"github.com/halcyon-dev/telecore/update"
	"github.com/halcyon-dev/telecore/view"
)

// DefaultSweepInterval is how often Machine sweeps expired ShortStates when
// no explicit interval is configured, matching mubble's
// clear_wm_storage_worker(wm, interval_seconds=60) default.
const DefaultSweepInterval = 60 * time.Second

// Machine is the Waiter Machine: it suspends a goroutine on Wait/WaitMany
// until a later update matching the given rules arrives (delivered through
// a WaiterMiddleware installed on a View), or the wait expires/is dropped.
// Grounded directly on mubble/bot/dispatch/waiter_machine/machine.py's
// WaiterMachine.
type Machine struct {
	mu            sync.Mutex
	storage       map[Hasher]*limitedDict
	maxSize       int
	sweepInterval time.Duration
}

// NewMachine builds a Machine. maxSize bounds how many suspended states each
// Hasher's bucket holds at once (spec.md §6's max_storage_size); 0 means
// unbounded.
func NewMachine(maxSize int) *Machine {
	return &Machine{
		storage:       map[Hasher]*limitedDict{},
		maxSize:       maxSize,
		sweepInterval: DefaultSweepInterval,
	}
}

func (m *Machine) bucket(h Hasher) *limitedDict {
	m.mu.Lock()
	defer m.mu.Unlock()
	ld, ok := m.storage[h]
	if !ok {
		ld = newLimitedDict(m.maxSize, m.sweepInterval)
		ld.Start()
		m.storage[h] = ld
	}
	return ld
}

// CreateMiddleware builds a view.Middleware that intercepts every update
// reaching v and tries to resolve it against suspended states keyed by h,
// mirroring WaiterMachine.create_middleware. A View that participates in
// waits under several Hashers installs one middleware per Hasher.
func (m *Machine) CreateMiddleware(h Hasher) view.Middleware {
	return &waiterMiddleware{machine: m, hasher: h}
}

// Wait suspends the calling goroutine until an update matching release
// arrives under (hasher, key), ctx is cancelled, or lifetime elapses.
// filter (nilable) is spec.md §4.7 step 4's non-consuming gate: an update
// that correlates to key but fails filter passes through to the View's
// normal handlers untouched, rather than being claimed as a miss against
// release. On a release match, Wait returns the Context the matching
// update accumulated.
func (m *Machine) Wait(ctx context.Context, h Hasher, key any, filter rule.Rule, release []rule.Rule, lifetime time.Duration) (*dctx.Context, error) {
	return m.wait(ctx, h, key, filter, release, lifetime, nil, nil, nil)
}

// WaitWithActions is Wait plus onMiss/onDrop behaviors: onMiss runs (in the
// middleware's goroutine) when a correlated update passes filter but fails
// release; onDrop runs when the wait is cancelled by eviction, expiry, or
// an explicit Drop.
func (m *Machine) WaitWithActions(ctx context.Context, h Hasher, key any, filter rule.Rule, release []rule.Rule, lifetime time.Duration, onMiss func(*dctx.Context, *update.Update) error, onDrop func()) (*dctx.Context, error) {
	return m.wait(ctx, h, key, filter, release, lifetime, onMiss, onDrop, nil)
}

// WaitWithLifespan is Wait scoped by ls: ls.Enter() runs before suspending
// and ls.Exit() runs once the wait resolves one way or another, mirroring
// the original's `async with lifespan: await event.wait()`. Callers use
// this to tie background work (e.g. a typing indicator, a keep-alive) to
// exactly the lifetime of the suspended wait.
func (m *Machine) WaitWithLifespan(ctx context.Context, h Hasher, key any, filter rule.Rule, release []rule.Rule, lifetime time.Duration, ls *lifespan.Lifespan) (*dctx.Context, error) {
	return m.wait(ctx, h, key, filter, release, lifetime, nil, nil, ls)
}

func (m *Machine) wait(ctx context.Context, h Hasher, key any, filter rule.Rule, release []rule.Rule, lifetime time.Duration, onMiss func(*dctx.Context, *update.Update) error, onDrop func(), ls *lifespan.Lifespan) (*dctx.Context, error) {
	ld := m.bucket(h)
	state := newShortState(key, filter, release, lifetime, onMiss, onDrop)
	ld.Set(key, state)

	if ls != nil {
		ls.Enter()
		defer ls.Exit()
	}

	select {
	case <-state.Done():
		return state.Result()
	case <-ctx.Done():
		if _, ok := ld.PopIf(key, state); ok {
			state.cancel(ctx.Err())
		}
		return nil, ctx.Err()
	}
}

// WaitSpec is one leg of a WaitMany race.
type WaitSpec struct {
	Hasher Hasher
	Key    any
	Filter rule.Rule
	Rules  []rule.Rule
}

// WaitMany races a wait across several (hasher, key) pairs at once and
// reports which one fired, mirroring WaiterMachine.wait_many. Every leg but
// the winner is dropped once the first resolves (SPEC_FULL.md's
// "supplemented feature", re-expressed with a cancelled sub-context and
// goroutine fan-in instead of a single shared asyncio.Event).
func (m *Machine) WaitMany(ctx context.Context, specs []WaitSpec, lifetime time.Duration) (winner int, result *dctx.Context, err error) {
	if len(specs) == 0 {
		return -1, nil, errors.New("waiter: WaitMany requires at least one spec")
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		idx int
		ctx *dctx.Context
		err error
	}
	results := make(chan outcome, len(specs))

	for i, spec := range specs {
		i, spec := i, spec
		go func() {
			c, e := m.wait(raceCtx, spec.Hasher, spec.Key, spec.Filter, spec.Rules, lifetime, nil, nil, nil)
			results <- outcome{idx: i, ctx: c, err: e}
		}()
	}

	first := <-results
	cancel() // drop every other leg

	for i := 1; i < len(specs); i++ {
		<-results
	}
	close(results)

	return first.idx, first.ctx, first.err
}

// Drop cancels the suspended state at (hasher, key) with a LookupError if
// none exists, mirroring WaiterMachine.drop.
func (m *Machine) Drop(h Hasher, key any) error {
	ld := m.bucket(h)
	state, ok := ld.Pop(key)
	if !ok {
		return &LookupError{Hasher: h.Name(), Key: key}
	}
	state.cancel(&LookupError{Hasher: h.Name(), Key: key})
	return nil
}

// DropAll cancels every suspended state across every Hasher.
func (m *Machine) DropAll() {
	m.mu.Lock()
	buckets := make([]*limitedDict, 0, len(m.storage))
	for _, ld := range m.storage {
		buckets = append(buckets, ld)
	}
	m.mu.Unlock()

	for _, ld := range buckets {
		ld.Clear()
	}
}

// ClearStorage sweeps every bucket for expired states immediately, rather
// than waiting for the next background tick.
func (m *Machine) ClearStorage() {
	m.mu.Lock()
	buckets := make([]*limitedDict, 0, len(m.storage))
	for _, ld := range m.storage {
		buckets = append(buckets, ld)
	}
	m.mu.Unlock()

	for _, ld := range buckets {
		ld.sweepExpired()
	}
}

// WaiterInfo describes one suspended wait, for operational inspection.
type WaiterInfo struct {
	Hasher     string
	Key        any
	Expiration time.Time
}

// Stats reports how many suspended waits each active Hasher bucket holds.
func (m *Machine) Stats() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.storage))
	for h, ld := range m.storage {
		out[h.Name()] = ld.Len()
	}
	return out
}

// Snapshot lists every suspended wait across every Hasher, for the admin
// console's "waiters" command.
func (m *Machine) Snapshot() []WaiterInfo {
	m.mu.Lock()
	buckets := make(map[string]*limitedDict, len(m.storage))
	for h, ld := range m.storage {
		buckets[h.Name()] = ld
	}
	m.mu.Unlock()

	var out []WaiterInfo
	for name, ld := range buckets {
		for _, entry := range ld.Snapshot() {
			out = append(out, WaiterInfo{Hasher: name, Key: entry.Key, Expiration: entry.Expiration})
		}
	}
	return out
}

// DropByName cancels the suspended state at (hasherName, key), looking the
// Hasher up by its Name() among buckets that already exist. Returns a
// *LookupError if no bucket for that name (or no entry at that key) exists.
func (m *Machine) DropByName(hasherName string, key any) error {
	m.mu.Lock()
	var h Hasher
	for candidate := range m.storage {
		if candidate.Name() == hasherName {
			h = candidate
			break
		}
	}
	m.mu.Unlock()

	if h == nil {
		return &LookupError{Hasher: hasherName, Key: key}
	}
	return m.Drop(h, key)
}

// Stop halts every bucket's background sweep goroutine. runtime.Supervisor
// does not call it.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ld := range m.storage {
		ld.Stop()
	}
}
