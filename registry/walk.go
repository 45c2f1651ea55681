package registry

import (
	"reflect"

	"github.com/bittoy/reactive/subject"
)

// ChildEdge names one subject-valued reference a parent holds: a scalar
// property (Index == nil), a collection element (Index is an int), or a
// dictionary entry (Index is a string key).
type ChildEdge struct {
	Property string
	Index    any
	Child    subject.Subject
}

// GraphWalker is the interface a subject implements to expose its own
// subject-valued properties for graph traversal. Spec §9 leaves "partial
// property" wiring to manual implementation or codegen; GraphWalker is
// this module's manual-wiring contract for the registry's graph walk — a
// subject with no subject-valued properties simply doesn't implement it
// and is treated as a graph leaf.
type GraphWalker interface {
	WalkChildren() []ChildEdge
}

// childrenOf returns s's ChildEdges, or nil if s does not implement
// GraphWalker.
func childrenOf(s subject.Subject) []ChildEdge {
	w, ok := s.(GraphWalker)
	if !ok {
		return nil
	}
	return w.WalkChildren()
}

// ReferenceEdge is one (index, subject) pair found while enumerating the
// subjects reachable through a single property's current value.
type ReferenceEdge struct {
	Index any
	Child subject.Subject
}

// EnumerateReferences inspects value — the current value of a
// subject-valued property — and returns every subject reachable through
// it, respecting scalar/slice/map structure (spec §4.5's "enumerate
// subjects reachable through v_new and v_old, respecting collection or
// dictionary structure"). Unrecognized shapes (neither a Subject nor a
// slice/array/map of one) yield no references.
func EnumerateReferences(value any) []ReferenceEdge {
	if value == nil {
		return nil
	}
	if s, ok := value.(subject.Subject); ok {
		if isNilSubject(s) {
			return nil
		}
		return []ReferenceEdge{{Index: nil, Child: s}}
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]ReferenceEdge, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			if s, ok := elem.(subject.Subject); ok && !isNilSubject(s) {
				out = append(out, ReferenceEdge{Index: i, Child: s})
			}
		}
		return out
	case reflect.Map:
		out := make([]ReferenceEdge, 0, rv.Len())
		for _, key := range rv.MapKeys() {
			elem := rv.MapIndex(key).Interface()
			if s, ok := elem.(subject.Subject); ok && !isNilSubject(s) {
				out = append(out, ReferenceEdge{Index: keyToIndex(key), Child: s})
			}
		}
		return out
	default:
		return nil
	}
}

// isNilSubject reports whether s is nil or a typed nil pointer boxed in
// the Subject interface — what a scalar reference property holds after
// being cleared with a nil of its concrete type.
func isNilSubject(s subject.Subject) bool {
	if s == nil {
		return true
	}
	rv := reflect.ValueOf(s)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func keyToIndex(key reflect.Value) any {
	if key.Kind() == reflect.String {
		return key.String()
	}
	return key.Interface()
}
