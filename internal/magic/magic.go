// Package magic re-expresses mubble/tools/magic.py's annotation-driven
// argument gathering (resolve_arg_names/get_annotations/magic_bundle) as an
// explicit reflection step, per spec.md Design Notes §9: handlers and node
// compose functions declare what they need by parameter type, and Bind
// builds each call's argument list from a source table keyed by type
// instead of matching on Python parameter names. Binding happens on every
// call; nothing is cached between calls.
package magic

import (
	"reflect"

	"github.com/go-faster/errors"
)

// UnresolvedParamError reports that Bind could not find a source value for
// one of fn's parameters, distinct from a hard failure so callers like
// rule.FuncRule can treat "this predicate doesn't apply to this update
// shape" as a clean non-match rather than an error.
type UnresolvedParamError struct {
	Index int
	Type  reflect.Type
}

func (e *UnresolvedParamError) Error() string {
	return errors.Errorf("magic.Bind: no source for parameter %d of type %s", e.Index, e.Type).Error()
}

// Sources supplies values a target function's parameters may ask for, keyed
// by the parameter's static Go type. A single value of a given type is
// available per call; ambiguity (two parameters of the same type wanting
// different values) must be resolved by the caller using distinct named
// types, exactly as node.Type.GoType disambiguates node kinds.
type Sources map[reflect.Type]any

// Bind resolves fn's arguments against sources and returns them ready for
// reflect.Value.Call. fn must be a func value; every parameter type must have an entry in
// sources or Bind returns an error naming the unresolved parameter index.
func Bind(fn any, sources Sources) ([]reflect.Value, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, errors.Errorf("magic.Bind: %T is not a function", fn)
	}
	ft := fv.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		v, ok := sources[pt]
		if !ok {
			return nil, &UnresolvedParamError{Index: i, Type: pt}
		}
		if v == nil {
			args[i] = reflect.Zero(pt)
			continue
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(pt) {
			return nil, errors.Errorf("magic.Bind: source for parameter %d is %s, want %s", i, rv.Type(), pt)
		}
		args[i] = rv
	}
	return args, nil
}

// Call binds fn's arguments from sources and invokes it, returning the raw
// []reflect.Value results for the caller to type-assert (a handler returns
// (returns.Response, error); a rule predicate returns (bool, error); a node
// compose func returns (T, error)).
func Call(fn any, sources Sources) ([]reflect.Value, error) {
	args, err := Bind(fn, sources)
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(fn).Call(args), nil
}

// ParamTypes reports the parameter types fn declares, so a caller can check
// at registration time that every parameter can plausibly be satisfied
// (e.g. by node.Lookup) before the function is ever called. No package in
// this module calls it.
func ParamTypes(fn any) ([]reflect.Type, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, errors.Errorf("magic.ParamTypes: %T is not a function", fn)
	}
	ft := fv.Type()
	out := make([]reflect.Type, ft.NumIn())
	for i := range out {
		out[i] = ft.In(i)
	}
	return out, nil
}
