// Package view implements the View pipeline (spec.md §4.5): a named group
// of auto-rules, middlewares and handlers that together decide whether, and
// how, to respond to an update. Grounded on mubble/bot/dispatch/view and
// structurally on the teacher's internal/domain/updates.Handlers pipeline
// shape (sequential handlers, first blocking match wins).
package view

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/handler"
	"github.com/halcyon-dev/telecore/returns"
	"github.com/halcyon-dev/telecore/rule"
	"github.com/halcyon-dev/telecore/update"
)

// Middleware brackets a View's handler iteration. Pre runs before any
// handler is tried; returning false consumes the event (spec.md §4.7: a
// WaiterMiddleware.Pre returns false once an unexpired state owns this
// update's hash and the update passes that state's filter).
// Post always runs afterward, even if Pre stopped the pipeline, mirroring
// mubble/bot/dispatch/waiter_machine/middleware.py's always-run cleanup.
// waiter.WaiterMiddleware implements this interface rather than view
// importing waiter, resolving spec.md Design Notes §9's "cyclic ownership"
// note with a one-way edge.
type Middleware interface {
	Pre(ctx *dctx.Context, u *update.Update) (bool, error)
	Post(ctx *dctx.Context, u *update.Update, handled bool) error
}

// StateKeyFunc derives the conversational state key the Waiter Machine uses
// to correlate this update with a suspended wait(), e.g. "chat:<id>".
// A View that never participates in waits leaves this nil.
type StateKeyFunc func(u *update.Update) (key any, ok bool)

// View groups auto-rules, middlewares and handlers under a name.
type View struct {
	Name         string
	AutoRules    []rule.Rule
	Middlewares  []Middleware
	Handlers     []*handler.Handler
	Returns      *returns.ReturnManager
	StateKeyFunc StateKeyFunc
}

// New builds an empty View ready for handlers to be appended.
func New(name string, returnMgr *returns.ReturnManager) *View {
	return &View{Name: name, Returns: returnMgr}
}

// GetStateKey reports this update's Waiter Machine correlation key, if the
// View defines one.
func (v *View) GetStateKey(u *update.Update) (any, bool) {
	if v.StateKeyFunc == nil {
		return nil, false
	}
	return v.StateKeyFunc(u)
}

// Process runs the View's 5-step pipeline against one update, reporting
// whether the View handled it (for dispatch.Dispatcher's "stop at first
// match" rule):
//  1. auto-rules gate — every auto-rule must pass or the View is skipped;
//  2. middlewares' Pre, in order — any false consumes the event;
//  3. handlers, in order — the first whose rules all pass runs; a blocking
//     handler stops further handler iteration, a non-blocking one doesn't;
//  4. the handler's Response, if any, is sent via Returns;
//  5. middlewares' Post, in reverse registration order, always runs.
func (v *View) Process(ctx context.Context, dc *dctx.Context, u *update.Update) (bool, error) {
	for _, ar := range v.AutoRules {
		ok, err := ar.Check(dc, u)
		if err != nil {
			return false, errors.Wrapf(err, "view %q auto-rule %q", v.Name, ar.Name())
		}
		if !ok {
			return false, nil
		}
	}

	handled := false
	var preErr error
	stopped := false
	for _, mw := range v.Middlewares {
		ok, err := mw.Pre(dc, u)
		if err != nil {
			preErr = err
			break
		}
		if !ok {
			handled = true
			stopped = true
			break
		}
	}

	if preErr == nil && !stopped {
		for _, h := range v.Handlers {
			// Snapshot ctx before this handler is tried at all, so a
			// matching-but-non-blocking handler's context writes (its own
			// rules' merges, e.g. rule.Command's parsed arguments) don't
			// leak into the next handler (spec.md §4.5 step 3: "restore
			// ctx to the pre-handler copy before the next handler").
			preHandler := dc.Copy()

			ok, err := h.Check(dc, u)
			if err != nil {
				preErr = err
				break
			}
			if !ok {
				continue
			}
			resp, runErr := h.Run(dc, u)
			if runErr != nil {
				preErr = runErr
				break
			}
			handled = true
			if v.Returns != nil && resp != nil {
				if err := v.Returns.Send(ctx, resp); err != nil {
					preErr = err
					break
				}
			}
			if h.IsBlocking {
				break
			}
			dc.Reset(preHandler)
		}
	}

	for i := len(v.Middlewares) - 1; i >= 0; i-- {
		if err := v.Middlewares[i].Post(dc, u, handled); err != nil && preErr == nil {
			preErr = err
		}
	}

	if preErr != nil {
		return handled, preErr
	}
	return handled, nil
}
