package waiter

import (
	"container/list"
	"sync"
	"time"
)

// limitedDict is a bounded, insertion-ordered map of key -> *ShortState:
// once it holds maxSize entries, setting one more evicts (and cancels) the
// oldest. Its mutex-guarded map plus background sweep goroutine shape is
// reused from the teacher's internal/infra/concurrency.Deduplicator /
// Debouncer (idempotent Start/Stop around a ticker-driven cleanup), adapted
// from "expire by TTL" semantics to "evict oldest on overflow, and sweep by
// per-entry expiration" semantics (spec.md §4.7 / §5).
type limitedDict struct {
	mu       sync.Mutex
	maxSize  int
	entries  map[any]*list.Element // key -> element wrapping *dictEntry
	order    *list.List            // oldest-first

	sweepInterval time.Duration
	stop          chan struct{}
	stopped       chan struct{}
	startOnce     sync.Once
	stopOnce      sync.Once
}

type dictEntry struct {
	key   any
	state *ShortState
}

func newLimitedDict(maxSize int, sweepInterval time.Duration) *limitedDict {
	return &limitedDict{
		maxSize:       maxSize,
		entries:       make(map[any]*list.Element),
		order:         list.New(),
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
}

// Start launches the background sweep goroutine. Idempotent, mirroring
// Debouncer.Start's captured-cancel-function pattern.
func (d *limitedDict) Start() {
	d.startOnce.Do(func() {
		go d.sweepLoop()
	})
}

// Stop halts the background sweep goroutine. Idempotent and safe to call
// even if Start was never called.
func (d *limitedDict) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
}

func (d *limitedDict) sweepLoop() {
	defer close(d.stopped)
	if d.sweepInterval <= 0 {
		<-d.stop
		return
	}
	ticker := time.NewTicker(d.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.sweepExpired()
		}
	}
}

func (d *limitedDict) sweepExpired() {
	now := time.Now()
	var expired []*ShortState

	d.mu.Lock()
	for el := d.order.Front(); el != nil; {
		next := el.Next()
		entry := el.Value.(*dictEntry)
		if entry.state.Expired(now) {
			d.order.Remove(el)
			delete(d.entries, entry.key)
			expired = append(expired, entry.state)
		}
		el = next
	}
	d.mu.Unlock()

	for _, s := range expired {
		s.cancel(&LookupError{})
	}
}

// Set installs state under key, evicting (and cancelling) the previous
// occupant of key if any, and evicting the oldest entry if this insertion
// would exceed maxSize.
func (d *limitedDict) Set(key any, state *ShortState) {
	var evicted []*ShortState

	d.mu.Lock()
	if el, ok := d.entries[key]; ok {
		prev := el.Value.(*dictEntry).state
		d.order.Remove(el)
		delete(d.entries, key)
		evicted = append(evicted, prev)
	}
	el := d.order.PushBack(&dictEntry{key: key, state: state})
	d.entries[key] = el

	for d.maxSize > 0 && d.order.Len() > d.maxSize {
		oldest := d.order.Front()
		if oldest == nil {
			break
		}
		entry := oldest.Value.(*dictEntry)
		d.order.Remove(oldest)
		delete(d.entries, entry.key)
		evicted = append(evicted, entry.state)
	}
	d.mu.Unlock()

	for _, s := range evicted {
		s.cancel(&LookupError{})
	}
}

// Pop removes and returns the state under key, if present.
func (d *limitedDict) Pop(key any) (*ShortState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.entries[key]
	if !ok {
		return nil, false
	}
	d.order.Remove(el)
	delete(d.entries, key)
	return el.Value.(*dictEntry).state, true
}

// PopIf removes and returns the state under key only if it is still
// exactly want — guarding against a concurrent sweep/eviction/second
// dispatch having already swapped or removed the entry between an earlier
// Get and this call (spec.md §5's per-bucket serialization requirement).
func (d *limitedDict) PopIf(key any, want *ShortState) (*ShortState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*dictEntry)
	if entry.state != want {
		return nil, false
	}
	d.order.Remove(el)
	delete(d.entries, key)
	return entry.state, true
}

// Get returns the state under key without removing it.
func (d *limitedDict) Get(key any) (*ShortState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.entries[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*dictEntry).state, true
}

// Len reports how many states are currently held.
func (d *limitedDict) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}

// Snapshot returns every held entry's key and expiration, oldest first, for
// read-only inspection (the admin console's "waiters" command).
func (d *limitedDict) Snapshot() []dictSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]dictSnapshot, 0, d.order.Len())
	for el := d.order.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*dictEntry)
		out = append(out, dictSnapshot{Key: entry.key, Expiration: entry.state.Expiration})
	}
	return out
}

type dictSnapshot struct {
	Key        any
	Expiration time.Time
}

// Clear evicts (and cancels) every held state, used by Machine.DropAll.
func (d *limitedDict) Clear() {
	d.mu.Lock()
	var all []*ShortState
	for el := d.order.Front(); el != nil; el = el.Next() {
		all = append(all, el.Value.(*dictEntry).state)
	}
	d.entries = make(map[any]*list.Element)
	d.order = list.New()
	d.mu.Unlock()

	for _, s := range all {
		s.cancel(&LookupError{})
	}
}
