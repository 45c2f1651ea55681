package registry

import (
	"sync"

	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/subject"
)

// ParentEdge is one incoming reference recorded on a child: which parent
// subject, through which property, at which index (nil for a scalar
// property).
type ParentEdge struct {
	Parent   subject.Subject
	Property string
	Index    any
}

type entry struct {
	refCount int
	parents  []ParentEdge
	isRoot   bool
}

// Registry is the ref-counted attach/detach graph over subjects (spec
// §4.5/§4.6). A single Registry is normally bound to one icontext.Context
// tree; the zero value is not usable, use New.
type Registry struct {
	mu        sync.RWMutex
	entries   map[subject.Subject]*entry
	listeners []Listener
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{entries: map[subject.Subject]*entry{}}
}

// Subscribe registers a Listener and returns an unsubscribe function.
func (r *Registry) Subscribe(l Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
	idx := len(r.listeners) - 1
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if idx < len(r.listeners) {
			r.listeners[idx] = nil
		}
	}
}

func (r *Registry) emit(e Event) {
	r.mu.RLock()
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, l := range listeners {
		if l != nil {
			l(e)
		}
	}
}

// RefCount returns s's current reference count (0 if unknown/detached).
func (r *Registry) RefCount(s subject.Subject) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[s]; ok {
		return e.refCount
	}
	return 0
}

// Parents returns an ordered snapshot of s's current incoming edges (spec
// §4.6's parents(s)).
func (r *Registry) Parents(s subject.Subject) []ParentEdge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[s]
	if !ok {
		return nil
	}
	return append([]ParentEdge(nil), e.parents...)
}

// ForAllPaths yields every root-to-subject path reaching s, one path per
// element, each path ordered root-first. Cycles are broken at repeated
// nodes so every path is finite (spec §4.6).
func (r *Registry) ForAllPaths(s subject.Subject) [][]ParentEdge {
	var paths [][]ParentEdge
	r.collectPaths(s, nil, map[subject.Subject]bool{s: true}, &paths)
	return paths
}

func (r *Registry) collectPaths(s subject.Subject, suffix []ParentEdge, visited map[subject.Subject]bool, out *[][]ParentEdge) {
	parents := r.Parents(s)
	if len(parents) == 0 {
		*out = append(*out, append([]ParentEdge(nil), suffix...))
		return
	}
	for _, pe := range parents {
		if visited[pe.Parent] {
			*out = append(*out, append([]ParentEdge{pe}, suffix...))
			continue
		}
		nextVisited := make(map[subject.Subject]bool, len(visited)+1)
		for k := range visited {
			nextVisited[k] = true
		}
		nextVisited[pe.Parent] = true
		r.collectPaths(pe.Parent, append([]ParentEdge{pe}, suffix...), nextVisited, out)
	}
}

func (r *Registry) ensureEntry(s subject.Subject) *entry {
	if e, ok := r.entries[s]; ok {
		return e
	}
	e := &entry{}
	r.entries[s] = e
	return e
}

// AttachRoot performs a direct attach: s's reference count is incremented
// by one and s is marked a context root; if the count was zero, s's own
// subject-valued properties are then walked and attached (spec §4.5's
// "Attach root").
func (r *Registry) AttachRoot(s subject.Subject) {
	r.mu.Lock()
	e := r.ensureEntry(s)
	wasZero := e.refCount == 0
	e.refCount++
	e.isRoot = true
	r.mu.Unlock()
	if wasZero {
		r.emit(SubjectAttached{Subject: s})
		r.attachChildren(s)
	}
}

func (r *Registry) attachChildren(s subject.Subject) {
	for _, edge := range childrenOf(s) {
		r.attachEdge(s, edge.Property, edge.Index, edge.Child)
	}
}

// attachEdge increments child's reference count; if it becomes 1, emits
// SubjectAttached and recurses into child's own properties. If child was
// already referenced, emits PropertyReferenceAdded instead, without
// recursion. The edge is always recorded in child's parent set (spec
// §4.5).
func (r *Registry) attachEdge(parent subject.Subject, property string, index any, child subject.Subject) {
	if isNilSubject(child) {
		return
	}
	r.mu.Lock()
	e := r.ensureEntry(child)
	e.refCount++
	becameLive := e.refCount == 1
	e.parents = append(e.parents, ParentEdge{Parent: parent, Property: property, Index: index})
	r.mu.Unlock()

	if becameLive {
		r.emit(SubjectAttached{Subject: child, Via: property, Index: index})
		r.attachChildren(child)
	} else {
		r.emit(PropertyReferenceAdded{Subject: child, Via: property, Index: index})
	}
}

// DetachRoot performs a direct detach: s's reference count (as a root) is
// forced to 0 and all downstream references are decremented (spec §4.5's
// "Direct detach").
func (r *Registry) DetachRoot(s subject.Subject) {
	r.mu.Lock()
	e, ok := r.entries[s]
	if !ok {
		r.mu.Unlock()
		return
	}
	if e.isRoot {
		e.refCount--
		e.isRoot = false
	}
	remaining := e.refCount
	r.mu.Unlock()
	if remaining <= 0 {
		r.detachChildren(s)
		r.emit(SubjectDetached{Subject: s})
		r.mu.Lock()
		delete(r.entries, s)
		r.mu.Unlock()
	}
}

func (r *Registry) detachChildren(s subject.Subject) {
	for _, edge := range childrenOf(s) {
		r.detachEdge(s, edge.Property, edge.Index, edge.Child)
	}
}

// detachEdge is symmetric to attachEdge: the (parent, property, index)
// edge is removed from child's parent set, and child's reference count is
// decremented. When it reaches 0, child's own children are detached
// (depth-first) and then SubjectDetached is emitted, matching the
// post-order traversal the ordering guarantees in spec §5 prescribe for
// detach events (the mirror of attach's pre-order).
func (r *Registry) detachEdge(parent subject.Subject, property string, index any, child subject.Subject) {
	if isNilSubject(child) {
		return
	}
	r.mu.Lock()
	e, ok := r.entries[child]
	if !ok {
		r.mu.Unlock()
		return
	}
	e.parents = removeEdge(e.parents, parent, property, index)
	e.refCount--
	reachedZero := e.refCount <= 0
	r.mu.Unlock()

	if reachedZero {
		r.detachChildren(child)
		r.emit(SubjectDetached{Subject: child, Via: property, Index: index})
		r.mu.Lock()
		delete(r.entries, child)
		r.mu.Unlock()
	}
}

func removeEdge(edges []ParentEdge, parent subject.Subject, property string, index any) []ParentEdge {
	out := edges[:0:0]
	for _, e := range edges {
		if e.Parent == parent && e.Property == property && e.Index == index {
			continue
		}
		out = append(out, e)
	}
	return out
}

// HandleReferenceWrite runs the write handler algorithm from spec §4.5:
// given a property write replacing oldValue with newValue, it enumerates
// the subjects reachable through each, attaches subjects unique to
// newValue, detaches subjects unique to oldValue, and emits IndexChanged
// for subjects present in both at a different index. All attach events
// precede all detach events (spec §5's ordering guarantee).
func (r *Registry) HandleReferenceWrite(parent subject.Subject, property string, oldValue, newValue any) {
	oldRefs := EnumerateReferences(oldValue)
	newRefs := EnumerateReferences(newValue)

	oldByChild := make(map[subject.Subject]any, len(oldRefs))
	for _, ref := range oldRefs {
		oldByChild[ref.Child] = ref.Index
	}
	newByChild := make(map[subject.Subject]any, len(newRefs))
	for _, ref := range newRefs {
		newByChild[ref.Child] = ref.Index
	}

	for _, ref := range newRefs {
		if _, existed := oldByChild[ref.Child]; !existed {
			r.attachEdge(parent, property, ref.Index, ref.Child)
		}
	}
	for _, ref := range newRefs {
		if oldIndex, existed := oldByChild[ref.Child]; existed && oldIndex != ref.Index {
			r.mu.Lock()
			if e, ok := r.entries[ref.Child]; ok {
				e.parents = removeEdge(e.parents, parent, property, oldIndex)
				e.parents = append(e.parents, ParentEdge{Parent: parent, Property: property, Index: ref.Index})
			}
			r.mu.Unlock()
			r.emit(IndexChanged{Subject: ref.Child, Via: property, OldIndex: oldIndex, NewIndex: ref.Index})
		}
	}
	for _, ref := range oldRefs {
		if _, stillPresent := newByChild[ref.Child]; !stillPresent {
			r.detachEdge(parent, property, ref.Index, ref.Child)
		}
	}
}

// OnContextChange implements the subject.AttachHook signature: assigning a
// non-nil context to a previously detached subject performs a direct
// attach; clearing a subject's context performs a direct detach.
// Re-parenting (old and new both non-nil) is treated as a detach from the
// old root followed by an attach as a new root.
func (r *Registry) OnContextChange(s subject.Subject, old, new *icontext.Context) {
	if old == nil && new != nil {
		r.AttachRoot(s)
		return
	}
	if old != nil && new == nil {
		r.DetachRoot(s)
		return
	}
	if old != nil && new != nil && old != new {
		r.DetachRoot(s)
		r.AttachRoot(s)
	}
}

// Install wires this registry into subject.AttachHook so every
// SetContext call in the process routes through OnContextChange. Only one
// registry can own the global hook at a time; tests that need isolation
// should call OnContextChange directly instead.
func (r *Registry) Install() {
	subject.AttachHook = r.OnContextChange
}
