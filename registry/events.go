// Package registry tracks the set of attached subjects, their parent/child
// edges, and their reference counts, emitting lifecycle events as the graph
// changes (spec §4.5/§4.6). It is the generalization of the teacher's
// engine.RuleComponentRegistry — an RWMutex-guarded map with
// register/unregister — from a flat component map into a ref-counted
// directed graph with attach/detach traversal.
package registry

import "github.com/bittoy/reactive/subject"

// Event is the common interface every lifecycle event implements.
type Event interface {
	isRegistryEvent()
}

// SubjectAttached fires the first time a subject's reference count becomes
// 1 (either as a direct context root, or via its first incoming edge).
type SubjectAttached struct {
	Subject subject.Subject
	Via     string
	Index   any
}

// SubjectDetached fires when a subject's reference count drops to 0.
type SubjectDetached struct {
	Subject subject.Subject
	Via     string
	Index   any
}

// PropertyReferenceAdded fires when an already-attached subject gains an
// additional incoming edge (its reference count was already ≥ 1).
type PropertyReferenceAdded struct {
	Subject subject.Subject
	Via     string
	Index   any
}

// IndexChanged fires when a subject already referenced through a
// collection or dictionary property is found at a different index/key
// after a write, without its reference count changing.
type IndexChanged struct {
	Subject            subject.Subject
	Via                string
	OldIndex, NewIndex any
}

func (SubjectAttached) isRegistryEvent()        {}
func (SubjectDetached) isRegistryEvent()        {}
func (PropertyReferenceAdded) isRegistryEvent() {}
func (IndexChanged) isRegistryEvent()           {}

// Listener receives registry lifecycle events in emission order.
type Listener func(Event)
