// Package node implements the dependency injection engine: Node
// registration, scopes, and the Composer that resolves a handler's declared
// dependencies into concrete values. Grounded on mubble/node/composer.py,
// mubble/node/polymorphic.py and mubble/node/scope.py.
package node

import (
	"reflect"
	"sync"

	"github.com/go-faster/errors"
)

// Scope controls how long a composed node's value is reused, mirroring
// mubble/node/scope.py's three lifetimes (spec.md §3).
type Scope int

const (
	// PerCall recomputes the node every time it's requested, even twice
	// within the same update.
	PerCall Scope = iota
	// PerEvent computes the node once per update and reuses the value for
	// every subsequent request within that update's Context.
	PerEvent
	// Global computes the node once for the process lifetime.
	Global
)

func (s Scope) String() string {
	switch s {
	case PerCall:
		return "per_call"
	case PerEvent:
		return "per_event"
	case Global:
		return "global"
	default:
		return "unknown"
	}
}

// Type describes one registered node: how to build a value of GoType.
// Exactly one of Compose or Impls is set; Impls makes the node polymorphic,
// mirroring mubble/node/polymorphic.py's Polymorphic.compose trying each
// @impl in declaration order until one succeeds.
type Type struct {
	Name    string
	GoType  reflect.Type
	Scope   Scope
	Compose any
	Impls   []any
}

// ComposeError reports that no registered implementation of a node could
// produce a value, mirroring mubble's ComposeError (spec.md §7).
type ComposeError struct {
	msg string
}

func (e *ComposeError) Error() string { return e.msg }

func newComposeError(format string, args ...any) error {
	return &ComposeError{msg: errors.Errorf(format, args...).Error()}
}

// IsComposeError reports whether err is (or wraps) a ComposeError.
func IsComposeError(err error) bool {
	var ce *ComposeError
	return errors.As(err, &ce)
}

var (
	registryMu sync.RWMutex
	registry   = map[reflect.Type]*Type{}
)

// Register adds t to the process-wide node registry, keyed by the Go type
// it produces. Call once per node type, typically from an init func or at
// composition-root startup, mirroring how mubble's Node subclasses are
// importable singletons.
func Register(t *Type) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t.GoType] = t
}

// Lookup finds the registered Type that produces values of rt, if any.
func Lookup(rt reflect.Type) (*Type, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[rt]
	return t, ok
}

// TypeOf is a reflect.TypeOf convenience for registration call sites, so
// callers don't need to import reflect themselves just to build a Type.
func TypeOf(sample any) reflect.Type {
	return reflect.TypeOf(sample)
}
