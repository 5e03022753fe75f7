// Package dctx implements the per-update Context map that flows through
// rule checks, node composition, handlers and the waiter machine, grounded
// on mubble/bot/dispatch/context.py's get_or_set/copy/merge semantics.
package dctx

import "github.com/halcyon-dev/telecore/update"

// Context carries everything gathered about one update as it travels
// through a View's pipeline. It is owned by a single goroutine for the
// lifetime of one update (spec.md §5: no dispatch-time locking needed), so
// it is an ordinary map, not a sync.Map.
type Context struct {
	Update *update.Update
	values map[string]any
}

// New builds an empty Context for the given update.
func New(u *update.Update) *Context {
	return &Context{Update: u, values: make(map[string]any)}
}

// Get returns the value stored under key and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key, overwriting any previous value.
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

// GetOrSet returns the existing value under key, or stores and returns
// fallback if key was absent.
func (c *Context) GetOrSet(key string, fallback any) any {
	if v, ok := c.values[key]; ok {
		return v
	}
	c.values[key] = fallback
	return fallback
}

// Delete removes key, a no-op if absent.
func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Copy returns a shallow copy of the Context: same Update pointer, an
// independent values map so mutations on one don't leak into the other.
// Used when a rule check needs to try a branch speculatively (rule.Or).
func (c *Context) Copy() *Context {
	cp := &Context{Update: c.Update, values: make(map[string]any, len(c.values))}
	for k, v := range c.values {
		cp.values[k] = v
	}
	return cp
}

// Merge copies every key from other into c, overwriting on collision. Used
// after a successful rule check merges its speculative context back in
// (spec.md §4.3's "on success, merge the rule's context additions").
func (c *Context) Merge(other *Context) {
	for k, v := range other.values {
		c.values[k] = v
	}
}

// Reset replaces c's values in place with an independent copy of
// snapshot's, preserving c's identity (the same *Context any caller already
// holds a pointer to). Used to restore a View's shared Context to a
// pre-handler snapshot after a matching, non-blocking handler runs
// (spec.md §4.5 step 3) without requiring every holder of the pointer to
// be told about a new Context value.
func (c *Context) Reset(snapshot *Context) {
	c.values = make(map[string]any, len(snapshot.values))
	for k, v := range snapshot.values {
		c.values[k] = v
	}
}

// Keys reports which keys are currently set, for debugging/pretty-printing.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	return keys
}
