package node

import "reflect"

// Seed builds a capability-seed map from a list of values, keyed by each
// value's dynamic Go type. Callers pass in the things a Composer call
// already has on hand without needing a registered Type — the *update.Update
// being dispatched, the transport.Client, and similar per-update givens.
func Seed(values ...any) map[reflect.Type]any {
	m := make(map[reflect.Type]any, len(values))
	for _, v := range values {
		m[reflect.TypeOf(v)] = v
	}
	return m
}
