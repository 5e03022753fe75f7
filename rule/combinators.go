package rule

import (
	"strings"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/update"
)

// andRule requires every sub-rule to succeed, short-circuiting on the first
// failure. Each sub-rule checks against a speculative copy of the context so
// a failing rule's partial writes never leak; on overall success every
// sub-rule's writes are merged back in order (spec.md §4.3 step 6).
type andRule struct{ rules []Rule }

// And combines rules with AND semantics.
func And(rules ...Rule) Rule { return &andRule{rules: rules} }

func (r *andRule) Name() string {
	names := make([]string, len(r.rules))
	for i, sub := range r.rules {
		names[i] = sub.Name()
	}
	return "(" + strings.Join(names, " & ") + ")"
}

func (r *andRule) Check(ctx *dctx.Context, u *update.Update) (bool, error) {
	merged := ctx.Copy()
	for _, sub := range r.rules {
		speculative := merged.Copy()
		ok, err := sub.Check(speculative, u)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		merged.Merge(speculative)
	}
	ctx.Merge(merged)
	return true, nil
}

// orRule succeeds if any sub-rule succeeds, trying them in order and
// merging only the first successful branch's context writes.
type orRule struct{ rules []Rule }

// Or combines rules with OR semantics.
func Or(rules ...Rule) Rule { return &orRule{rules: rules} }

func (r *orRule) Name() string {
	names := make([]string, len(r.rules))
	for i, sub := range r.rules {
		names[i] = sub.Name()
	}
	return "(" + strings.Join(names, " | ") + ")"
}

func (r *orRule) Check(ctx *dctx.Context, u *update.Update) (bool, error) {
	for _, sub := range r.rules {
		speculative := ctx.Copy()
		ok, err := sub.Check(speculative, u)
		if err != nil {
			return false, err
		}
		if ok {
			ctx.Merge(speculative)
			return true, nil
		}
	}
	return false, nil
}

// notRule inverts a sub-rule's result. Negation contributes no context —
// a rule's writes only make sense when it actually matched.
type notRule struct{ inner Rule }

// Not inverts a rule.
func Not(inner Rule) Rule { return &notRule{inner: inner} }

func (r *notRule) Name() string { return "!" + r.inner.Name() }

func (r *notRule) Check(ctx *dctx.Context, u *update.Update) (bool, error) {
	speculative := ctx.Copy()
	ok, err := r.inner.Check(speculative, u)
	if err != nil {
		return false, err
	}
	return !ok, nil
}
