package node

import (
	"reflect"
	"sync"

	"github.com/go-faster/errors"

	"github.com/halcyon-dev/telecore/dctx"
)

// nodeStoreKey is the reserved Context key under which a Composer keeps its
// PER_EVENT memoization table, mirroring mubble/node/polymorphic.py's
// CONTEXT_STORE_NODES_KEY.
const nodeStoreKey = "telecore.node.store"

type storeEntry struct {
	value any
}

// perEventStore returns (creating if absent) the PER_EVENT memoization map
// for this Context, keyed by (*Type, implementation index) so two
// polymorphic nodes sharing a scope never collide (SPEC_FULL.md's
// supplemented "memoize by impl index" behavior).
func perEventStore(ctx *dctx.Context) map[[2]any]storeEntry {
	raw := ctx.GetOrSet(nodeStoreKey, map[[2]any]storeEntry{})
	return raw.(map[[2]any]storeEntry)
}

// Session is the set of values a single Compose call resolved, keyed by
// requested name. It holds no resources and has no close step.
type Session struct {
	Values map[string]any
}

// Composer resolves declared node dependencies into concrete values,
// honoring each Type's Scope and detecting dependency cycles.
type Composer struct{}

// globalValues holds Global-scope results for the process lifetime, keyed
// by the Type that produced them.
var (
	globalMu     sync.RWMutex
	globalValues = map[*Type]storeEntry{}
)

// NewComposer builds a Composer. A Composer is stateless beyond the
// process-wide global cache and registry, so the zero value also works;
// NewComposer exists for symmetry with the rest of the package's
// constructors and to leave room for per-composer overrides later.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose resolves every named node type in want, seeding resolution with
// capability values from seed (the Update, the transport.Client, the
// Context itself — whatever the caller already has in hand and doesn't
// need a registered Type to produce). It returns a Session mapping each
// requested name to its resolved value.
func (c *Composer) Compose(ctx *dctx.Context, seed map[reflect.Type]any, want map[string]*Type) (*Session, error) {
	resolved := make(map[string]any, len(want))
	inStack := map[*Type]bool{}

	for name, t := range want {
		v, err := c.resolve(ctx, seed, t, inStack)
		if err != nil {
			return nil, errors.Wrapf(err, "compose %q", name)
		}
		resolved[name] = v
	}
	return &Session{Values: resolved}, nil
}

func (c *Composer) resolve(ctx *dctx.Context, seed map[reflect.Type]any, t *Type, inStack map[*Type]bool) (any, error) {
	if v, ok := seed[t.GoType]; ok {
		return v, nil
	}

	switch t.Scope {
	case Global:
		return c.resolveGlobal(ctx, seed, t, inStack)
	case PerEvent:
		return c.resolvePerEvent(ctx, seed, t, inStack)
	default:
		if inStack[t] {
			return nil, newComposeError("cycle detected composing node %q", t.Name)
		}
		inStack[t] = true
		defer delete(inStack, t)
		return c.compute(ctx, seed, t, inStack)
	}
}

func (c *Composer) resolveGlobal(ctx *dctx.Context, seed map[reflect.Type]any, t *Type, inStack map[*Type]bool) (any, error) {
	globalMu.RLock()
	if e, ok := globalValues[t]; ok {
		globalMu.RUnlock()
		return e.value, nil
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if e, ok := globalValues[t]; ok {
		return e.value, nil
	}
	if inStack[t] {
		return nil, newComposeError("cycle detected composing global node %q", t.Name)
	}
	inStack[t] = true
	defer delete(inStack, t)

	v, err := c.compute(ctx, seed, t, inStack)
	if err != nil {
		return nil, err
	}
	globalValues[t] = storeEntry{value: v}
	return v, nil
}

func (c *Composer) resolvePerEvent(ctx *dctx.Context, seed map[reflect.Type]any, t *Type, inStack map[*Type]bool) (any, error) {
	store := perEventStore(ctx)
	for i := range t.Impls {
		if e, ok := store[[2]any{t, i}]; ok {
			return e.value, nil
		}
	}
	if len(t.Impls) == 0 {
		if e, ok := store[[2]any{t, -1}]; ok {
			return e.value, nil
		}
	}

	if inStack[t] {
		return nil, newComposeError("cycle detected composing node %q", t.Name)
	}
	inStack[t] = true
	defer delete(inStack, t)

	v, idx, err := c.computeIndexed(ctx, seed, t, inStack)
	if err != nil {
		return nil, err
	}
	store[[2]any{t, idx}] = storeEntry{value: v}
	return v, nil
}

func (c *Composer) compute(ctx *dctx.Context, seed map[reflect.Type]any, t *Type, inStack map[*Type]bool) (any, error) {
	v, _, err := c.computeIndexed(ctx, seed, t, inStack)
	return v, err
}

// computeIndexed runs t's Compose (or, for a polymorphic node, each impl in
// order until one succeeds) and reports which impl index won, -1 for a
// non-polymorphic node.
func (c *Composer) computeIndexed(ctx *dctx.Context, seed map[reflect.Type]any, t *Type, inStack map[*Type]bool) (any, int, error) {
	if len(t.Impls) == 0 {
		v, err := c.invoke(ctx, seed, t.Compose, inStack)
		return v, -1, err
	}

	var lastErr error
	for i, impl := range t.Impls {
		v, err := c.invoke(ctx, seed, impl, inStack)
		if err == nil {
			return v, i, nil
		}
		lastErr = err
	}
	return nil, -1, newComposeError("no implementation of node %q succeeded: %v", t.Name, lastErr)
}

func (c *Composer) invoke(ctx *dctx.Context, seed map[reflect.Type]any, fn any, inStack map[*Type]bool) (any, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	args := make([]reflect.Value, ft.NumIn())

	contextType := reflect.TypeOf(ctx)
	for i := 0; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		if pt == contextType {
			args[i] = reflect.ValueOf(ctx)
			continue
		}
		if v, ok := seed[pt]; ok {
			args[i] = reflect.ValueOf(v)
			continue
		}
		sub, ok := Lookup(pt)
		if !ok {
			return nil, newComposeError("no node registered for parameter type %s", pt)
		}
		v, err := c.resolve(ctx, seed, sub, inStack)
		if err != nil {
			return nil, err
		}
		args[i] = reflect.ValueOf(v)
	}

	out := fv.Call(args)
	return splitResult(out)
}

// splitResult interprets a compose func's return values as either
// (value, error) or (value) alone.
func splitResult(out []reflect.Value) (any, error) {
	switch len(out) {
	case 1:
		return out[0].Interface(), nil
	case 2:
		var err error
		if e, ok := out[1].Interface().(error); ok {
			err = e
		}
		return out[0].Interface(), err
	default:
		return nil, errors.New("node compose func must return (value) or (value, error)")
	}
}
