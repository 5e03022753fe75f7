// Package rule implements the rule algebra (spec.md §4.3): predicates that
// decide whether a handler runs, combinable with AND/OR/NOT, optionally
// contributing values to the dispatch Context on success. Grounded on
// mubble/bot/rules/abc.py.
package rule

import (
	"errors"
	"reflect"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/internal/magic"
	"github.com/halcyon-dev/telecore/update"
)

// Rule is the algebra's unit: given an update and the context accumulated
// so far, decide whether this update satisfies the rule, optionally writing
// additional context values a matching handler can depend on.
type Rule interface {
	// Check adapts the update to the rule's expected shape, evaluates the
	// predicate, and reports success/failure. It performs no rule
	// translation and no node composition.
	Check(ctx *dctx.Context, u *update.Update) (bool, error)

	// Name identifies the rule in error messages (handler.Handler.Check,
	// view.View.Process) and in combinator names.
	Name() string
}

// FuncRule adapts an arbitrary predicate function into a Rule using
// reflection-based argument binding (internal/magic), the Go re-expression
// of magic_bundle's annotation-driven dispatch (spec.md Design Notes §9).
// Pred's parameters are resolved from the standard seed sources: *update.Update,
// *dctx.Context, and whatever Raw() payload type it names (e.g. *update.Message).
type FuncRule struct {
	RuleName string
	Pred     any // func(...) (bool, error) or func(...) bool
}

// NewFunc builds a FuncRule from a predicate function and a display name.
func NewFunc(name string, pred any) *FuncRule {
	return &FuncRule{RuleName: name, Pred: pred}
}

func (r *FuncRule) Name() string { return r.RuleName }

// Check implements the per-rule portion of spec.md §4.3's algorithm: build
// the source table (step "gather requires"), invoke the predicate (step
// "evaluate"), and interpret its result (step "decide").
func (r *FuncRule) Check(ctx *dctx.Context, u *update.Update) (bool, error) {
	sources := magic.Sources{
		reflect.TypeOf(u):   u,
		reflect.TypeOf(ctx): ctx,
	}
	if raw := u.Raw(); raw != nil {
		sources[reflect.TypeOf(raw)] = raw
	}

	results, err := magic.Call(r.Pred, sources)
	if err != nil {
		var unresolved *magic.UnresolvedParamError
		if errors.As(err, &unresolved) {
			// The predicate wants a payload shape this update doesn't carry
			// (e.g. a Message-only rule checked against a CallbackQuery) —
			// that's a clean non-match, not a failure.
			return false, nil
		}
		return false, err
	}
	switch len(results) {
	case 1:
		return results[0].Bool(), nil
	case 2:
		ok := results[0].Bool()
		if e, _ := results[1].Interface().(error); e != nil {
			return false, e
		}
		return ok, nil
	default:
		return false, nil
	}
}
