package waiter

import (
	"time"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/update"
)

// waiterMiddleware implements view.Middleware, intercepting updates for a
// View and resolving them against suspended ShortStates keyed by one
// Hasher. Grounded directly on
// mubble/bot/dispatch/waiter_machine/middleware.py's WaiterMiddleware.
type waiterMiddleware struct {
	machine *Machine
	hasher  Hasher
}

// Pre looks up this update's correlation key; if no state is suspended
// under it, the event is untouched (returns true, letting the View's normal
// handler flow run). Once a state owns the key, spec.md §4.7 distinguishes
// two gates before the event is considered consumed:
//
//  1. Filter (step 4): if set and it fails, the state does NOT own this
//     particular event — return true without popping anything, so the
//     View's normal handlers still run.
//  2. Release (step 5, state.Rules): only once Filter has passed (or there
//     is none) does a match/miss against Rules consume the event
//     (return false) regardless of which way it went — this is the Open
//     Question (b) decision recorded in DESIGN.md.
//
// Every removal from the bucket goes through PopIf, and fire/cancel only run
// if this goroutine's PopIf is the one that actually removed the entry —
// guarding against the sweeper (limiteddict.go's sweepExpired) or another
// concurrent update racing to resolve the same key (spec.md §5's per-bucket
// serialization requirement; ShortState.fire/cancel are additionally
// idempotent via sync.Once as a second line of defense).
func (w *waiterMiddleware) Pre(dc *dctx.Context, u *update.Update) (bool, error) {
	key, ok := w.hasher.Hash(u)
	if !ok {
		return true, nil
	}

	ld := w.machine.bucket(w.hasher)
	state, found := ld.Get(key)
	if !found {
		return true, nil
	}

	if state.Expired(time.Now()) {
		if popped, ok := ld.PopIf(key, state); ok {
			popped.cancel(&LookupError{Hasher: w.hasher.Name(), Key: key})
		}
		return true, nil
	}

	if state.Filter != nil {
		ok, err := state.Filter.Check(dc, u)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
	}

	matched := true
	for _, r := range state.Rules {
		ok, err := r.Check(dc, u)
		if err != nil {
			return false, err
		}
		if !ok {
			matched = false
			break
		}
	}

	if matched {
		if popped, ok := ld.PopIf(key, state); ok {
			popped.fire(dc)
		}
		return false, nil
	}

	if state.OnMiss != nil {
		if err := state.OnMiss(dc, u); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Post is a no-op: the Waiter Machine has nothing to clean up after the
// View's handler iteration, unlike Pre it doesn't own any per-update
// resource to release.
func (w *waiterMiddleware) Post(*dctx.Context, *update.Update, bool) error {
	return nil
}
