// Package handler implements the terminal step of a View's pipeline: a
// Handler pairs a rule set with an action function and an optional Catcher,
// grounded on mubble/bot/dispatch/handler and mubble/tools/error_handler.
package handler

import (
	"reflect"

	"github.com/go-faster/errors"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/internal/magic"
	"github.com/halcyon-dev/telecore/returns"
	"github.com/halcyon-dev/telecore/rule"
	"github.com/halcyon-dev/telecore/update"
)

// CatchableError marks an error a Handler's action raised deliberately for a
// Catcher to handle, as opposed to a programming fault that should propagate
// to the runtime's top-level error log (spec.md §7's
// CatchableHandlerException).
type CatchableError struct {
	Err error
}

func (e *CatchableError) Error() string { return e.Err.Error() }
func (e *CatchableError) Unwrap() error { return e.Err }

// Catch wraps err so a Handler's Catcher (if any) gets first refusal at it.
func Catch(err error) error {
	if err == nil {
		return nil
	}
	return &CatchableError{Err: err}
}

// Catcher handles a CatchableError raised by a Handler's action. Returning
// nil means it recovered: Run then returns the action's Response with no
// error. A non-nil return is propagated as Run's error.
type Catcher func(ctx *dctx.Context, u *update.Update, err error) error

// Handler pairs a rule set with an action. Is Blocking controls whether a
// successful run stops the enclosing View's pipeline (spec.md §4.5).
type Handler struct {
	Rules      []rule.Rule
	Action     any // func(...) (returns.Response, error)
	Catcher    Catcher
	IsBlocking bool
}

// New builds a Handler from a rule set and an action function.
func New(action any, rules ...rule.Rule) *Handler {
	return &Handler{Action: action, Rules: rules, IsBlocking: true}
}

// WithCatcher attaches a Catcher, returning h for chaining.
func (h *Handler) WithCatcher(c Catcher) *Handler {
	h.Catcher = c
	return h
}

// Check runs every rule against a scratch copy of ctx, AND-combined: all
// must match. ctx itself is only mutated if every rule succeeds (spec.md §3's
// transactional preset-context semantics / §4.5 step 3's "evaluate its
// rules with a copy of ctx") — a rule that writes to ctx as a side effect of
// matching (e.g. rule.Command parsing positional arguments) must not leak
// those writes into ctx when a later rule in the same Handler fails.
func (h *Handler) Check(ctx *dctx.Context, u *update.Update) (bool, error) {
	scratch := ctx.Copy()
	for _, r := range h.Rules {
		ok, err := r.Check(scratch, u)
		if err != nil {
			return false, errors.Wrapf(err, "rule %q", r.Name())
		}
		if !ok {
			return false, nil
		}
	}
	ctx.Merge(scratch)
	return true, nil
}

// Run invokes the Handler's action with arguments resolved by
// internal/magic, the same reflection-based binding rule.FuncRule uses.
// A CatchableError from the action is routed to the Catcher, if any, before
// being returned to the caller.
func (h *Handler) Run(ctx *dctx.Context, u *update.Update) (returns.Response, error) {
	sources := magic.Sources{
		reflect.TypeOf(u):   u,
		reflect.TypeOf(ctx): ctx,
	}
	if raw := u.Raw(); raw != nil {
		sources[reflect.TypeOf(raw)] = raw
	}

	results, err := magic.Call(h.Action, sources)
	if err != nil {
		return nil, errors.Wrap(err, "bind handler action arguments")
	}

	resp, runErr := splitAction(results)
	if runErr == nil {
		return resp, nil
	}

	var catchable *CatchableError
	if errors.As(runErr, &catchable) && h.Catcher != nil {
		if handled := h.Catcher(ctx, u, catchable.Err); handled == nil {
			return resp, nil
		}
		return nil, handled
	}
	return nil, runErr
}

func splitAction(out []reflect.Value) (returns.Response, error) {
	switch len(out) {
	case 1:
		resp, _ := out[0].Interface().(returns.Response)
		return resp, nil
	case 2:
		resp, _ := out[0].Interface().(returns.Response)
		var err error
		if e, ok := out[1].Interface().(error); ok {
			err = e
		}
		return resp, err
	default:
		return nil, errors.New("handler action must return (returns.Response) or (returns.Response, error)")
	}
}
