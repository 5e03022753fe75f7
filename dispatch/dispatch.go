// Package dispatch implements the Dispatcher: feeds one update to every
// registered typed View in order, stopping at the first that handles it,
// then always runs the raw_event catch-all View. Grounded on
// mubble/bot/dispatch/dispatch.py's CompositionDispatch.feed, and
// structurally on the teacher's internal/domain/updates.Handlers pipeline
// plus internal/app/runner.go's ordered start/stop discipline.
package dispatch

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/update"
	"github.com/halcyon-dev/telecore/view"
)

// rawEventName is the reserved View name that always runs after every typed
// view, win or lose, mirroring mubble's raw_event view.
const rawEventName = "raw_event"

// Dispatcher owns the ordered list of typed Views plus the raw_event
// catch-all, and feeds updates to them.
type Dispatcher struct {
	views    []*view.View
	byName   map[string]*view.View
	rawEvent *view.View
}

// New builds an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{byName: map[string]*view.View{}}
}

// Load registers v, merging with any existing View of the same name:
// auto-rules, handlers and middlewares accumulate by appending in
// registration order, and only a non-nil StateKeyFunc from the incoming
// View replaces the existing one (last write wins).
func (d *Dispatcher) Load(v *view.View) {
	if v.Name == rawEventName {
		if d.rawEvent == nil {
			d.rawEvent = v
			return
		}
		d.mergeInto(d.rawEvent, v)
		return
	}

	if existing, ok := d.byName[v.Name]; ok {
		d.mergeInto(existing, v)
		return
	}

	d.byName[v.Name] = v
	d.views = append(d.views, v)
}

func (d *Dispatcher) mergeInto(existing, incoming *view.View) {
	existing.AutoRules = append(existing.AutoRules, incoming.AutoRules...)
	existing.Handlers = append(existing.Handlers, incoming.Handlers...)
	existing.Middlewares = append(existing.Middlewares, incoming.Middlewares...)
	if incoming.StateKeyFunc != nil {
		existing.StateKeyFunc = incoming.StateKeyFunc
	}
}

// Views returns the registered typed Views, in registration order, for
// introspection (internal/clipanel's admin console lists them).
func (d *Dispatcher) Views() []*view.View {
	return append([]*view.View(nil), d.views...)
}

// Feed runs u through every typed View in order, stopping at the first
// that reports handled=true, then always runs the raw_event View
// regardless (spec.md §4.6).
func (d *Dispatcher) Feed(ctx context.Context, u *update.Update) error {
	dc := dctx.New(u)

	for _, v := range d.views {
		handled, err := v.Process(ctx, dc, u)
		if err != nil {
			return errors.Wrapf(err, "view %q", v.Name)
		}
		if handled {
			break
		}
	}

	if d.rawEvent != nil {
		if _, err := d.rawEvent.Process(ctx, dc, u); err != nil {
			return errors.Wrap(err, "view \"raw_event\"")
		}
	}
	return nil
}
