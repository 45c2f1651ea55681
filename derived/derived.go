// Package derived implements the derived-property dependency tracker
// (spec §4.7). Go has no goroutine-local storage, so the recording scope
// spec §9 describes as a thread-local stack falls back, as the spec
// itself sanctions, to a process-wide lock guarding an explicit
// per-invocation stack. The lock is held only while the stack itself is
// changed or read, so several derived-getter recordings can be in flight
// at once, and a read taken while several scopes are on the stack (nested,
// or from other goroutines) records into every one of them.
package derived

import (
	"sync"

	"github.com/bittoy/reactive/change"
	"github.com/bittoy/reactive/pipeline"
	"github.com/bittoy/reactive/subject"
)

// stack holds the currently active recording scopes, outermost
// first. Guarded by mu: this is the process-wide fallback spec §9
// sanctions for the thread-local recording scope.
var (
	mu    sync.Mutex
	stack []*scope
)

type scope struct {
	reads map[subject.Reference]bool
}

func pushScope() *scope {
	mu.Lock()
	defer mu.Unlock()
	s := &scope{reads: map[subject.Reference]bool{}}
	stack = append(stack, s)
	return s
}

func popScope(s *scope) {
	mu.Lock()
	defer mu.Unlock()
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == s {
			stack = append(stack[:i], stack[i+1:]...)
			return
		}
	}
}

func recordRead(ref subject.Reference) {
	mu.Lock()
	defer mu.Unlock()
	for _, s := range stack {
		s.reads[ref] = true
	}
}

// RecordingInterceptor is a ReadInterceptor that reports every read it
// observes to the currently active recording scopes. It must be installed
// (and run) for dependency tracking to see any reads at all; NewTracker
// does not register it, so the caller adds it to the context (the
// builtin/interceptors FullTracking preset does).
type RecordingInterceptor struct{}

// ServiceName identifies this interceptor for ordering purposes.
func (RecordingInterceptor) ServiceName() string { return "derived.RecordingInterceptor" }

// RunsFirst reports that reads must be observed before any other read
// interceptor can short-circuit or transform the result.
func (RecordingInterceptor) RunsFirst() bool { return true }

// Read implements pipeline.ReadInterceptor.
func (RecordingInterceptor) Read(ctx *pipeline.ReadContext, next pipeline.ReadNext) (any, error) {
	recordRead(ctx.Ref)
	return next()
}

// derivedEntry tracks one derived property's recorded dependency set and
// last-known value, used to compute the synthetic old/new pair for the
// PropertyChange emitted on recomputation.
type derivedEntry struct {
	ref          subject.Reference
	getter       func() any
	dependencies map[subject.Reference]bool
	lastValue    any
}

// Tracker maintains, for every registered derived property, the set of
// properties its getter read the last time it was evaluated, and the
// reverse "used-by" index from a dependency to the derived properties
// that depend on it (spec §4.7).
type Tracker struct {
	mu       sync.Mutex
	derived  map[subject.Reference]*derivedEntry
	usedBy   map[subject.Reference]map[subject.Reference]bool
	observer *change.Observer
}

// NewTracker builds a Tracker that republishes synthetic PropertyChange
// events for derived properties through observer whenever one of their
// dependencies changes.
func NewTracker(observer *change.Observer) *Tracker {
	t := &Tracker{
		derived: map[subject.Reference]*derivedEntry{},
		usedBy:  map[subject.Reference]map[subject.Reference]bool{},
	}
	t.observer = observer
	observer.Subscribe(t.onChange)
	return t
}

// Register declares ref as a derived property computed by getter and
// performs the initial recording evaluation (spec §4.7's "on subject
// attach, for each derived property: start a recording scope, invoke the
// derived getter, and record every PropertyReference read").
func (t *Tracker) Register(ref subject.Reference, getter func() any) {
	deps, value := t.evaluate(getter)

	t.mu.Lock()
	entry := &derivedEntry{ref: ref, getter: getter, dependencies: deps, lastValue: value}
	t.derived[ref] = entry
	for dep := range deps {
		if t.usedBy[dep] == nil {
			t.usedBy[dep] = map[subject.Reference]bool{}
		}
		t.usedBy[dep][ref] = true
	}
	t.mu.Unlock()
}

// Unregister removes ref's dependency tracking, e.g. on detach.
func (t *Tracker) Unregister(ref subject.Reference) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.derived[ref]
	if !ok {
		return
	}
	for dep := range entry.dependencies {
		delete(t.usedBy[dep], ref)
	}
	delete(t.derived, ref)
}

func (t *Tracker) evaluate(getter func() any) (map[subject.Reference]bool, any) {
	s := pushScope()
	defer popScope(s)
	value := getter()
	return s.reads, value
}

// onChange is called synchronously, in commit order, for every
// PropertyChange the observer publishes. For each derived property that
// depends on the written property, it re-invokes the derived getter
// inside a fresh recording scope, refreshes the dependency set, and — if
// the recomputed value differs — publishes a synthetic PropertyChange.
func (t *Tracker) onChange(c change.PropertyChange) {
	t.mu.Lock()
	dependents := make([]subject.Reference, 0, len(t.usedBy[c.Ref]))
	for dep := range t.usedBy[c.Ref] {
		dependents = append(dependents, dep)
	}
	t.mu.Unlock()

	for _, ref := range dependents {
		t.recompute(ref)
	}
}

func (t *Tracker) recompute(ref subject.Reference) {
	t.mu.Lock()
	entry, ok := t.derived[ref]
	t.mu.Unlock()
	if !ok {
		return
	}

	newDeps, newValue := t.evaluate(entry.getter)

	t.mu.Lock()
	oldValue := entry.lastValue
	for dep := range entry.dependencies {
		if !newDeps[dep] {
			delete(t.usedBy[dep], ref)
		}
	}
	for dep := range newDeps {
		if t.usedBy[dep] == nil {
			t.usedBy[dep] = map[subject.Reference]bool{}
		}
		t.usedBy[dep][ref] = true
	}
	entry.dependencies = newDeps
	entry.lastValue = newValue
	t.mu.Unlock()

	if oldValue != newValue && t.observer != nil {
		t.observer.PublishDerived(change.PropertyChange{Ref: ref, OldValue: oldValue, NewValue: newValue})
	}
}
