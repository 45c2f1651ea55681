package pipeline

import (
	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/subject"
)

// Property is the generic trampoline that stands in for a generated
// property accessor (spec §4.1/§9: code generation is out of scope, so a
// hand-written or reflection-driven Property[T] is how a concrete subject
// wires one field into the read/write pipelines). Owner supplies the
// context the pipeline pulls its interceptors from; get/set read and write
// the concrete backing field.
type Property[T any] struct {
	owner subject.Subject
	name  string
	get   func() T
	set   func(T)
}

// NewProperty builds a Property[T] bound to owner's property named name.
// get must be side-effect free beyond computing the current value (it may
// be called more than once per write, once to seed WriteContext.CurrentValue
// and, for a derived property, again whenever a dependency changes);
// set commits a value to the backing field with no further pipeline
// involvement.
func NewProperty[T any](owner subject.Subject, name string, get func() T, set func(T)) *Property[T] {
	return &Property[T]{owner: owner, name: name, get: get, set: set}
}

// NewReadOnlyProperty builds a getter-only Property[T]: a derived
// property, or one the subject exposes but never accepts writes for. Set
// fails with ReadOnlyError before the write pipeline runs.
func NewReadOnlyProperty[T any](owner subject.Subject, name string, get func() T) *Property[T] {
	return &Property[T]{owner: owner, name: name, get: get}
}

// Reference returns the PropertyReference this trampoline wires the
// pipeline for.
func (p *Property[T]) Reference() subject.Reference {
	return subject.Reference{Subject: p.owner, Name: p.name}
}

// Get runs the read pipeline and returns the resulting value. A detached
// subject (nil Context) bypasses the pipeline and calls the getter
// directly.
func (p *Property[T]) Get() (T, error) {
	rc := &ReadContext{Ref: p.Reference()}
	terminal := func() (any, error) { return p.get(), nil }
	result, err := BuildRead(p.owner.Context(), rc, terminal)()
	if err != nil {
		var zero T
		return zero, err
	}
	if typed, ok := result.(T); ok {
		return typed, nil
	}
	var zero T
	return zero, nil
}

// MustGet runs the read pipeline and panics on error, for call sites (such
// as a derived property's own getter, or a test) that know the read
// pipeline cannot fail for this property.
func (p *Property[T]) MustGet() T {
	v, err := p.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Set runs the write pipeline with newValue as the proposed value,
// CurrentValue seeded from a fresh call to the getter, and commits
// whatever value the chain settles on to the backing field. A detached
// subject (nil Context) bypasses the pipeline entirely.
func (p *Property[T]) Set(newValue T) error {
	return p.SetWithOrigin(newValue, nil)
}

// SetWithOrigin is Set with an explicit origin token attached to the
// WriteContext, for callers (principally a source.Connector
// InboundApplier) that need
// downstream interceptors to recognize which Source, if any, produced
// this write.
func (p *Property[T]) SetWithOrigin(newValue T, origin any) error {
	if p.set == nil {
		return ierrors.NewReadOnlyError(p.name)
	}
	wc := &WriteContext{
		Ref:          p.Reference(),
		CurrentValue: p.get(),
		NewValue:     newValue,
		Origin:       origin,
	}
	terminal := func() error {
		committed, _ := wc.NewValue.(T)
		p.set(committed)
		return nil
	}
	return BuildWrite(p.owner.Context(), wc, terminal)()
}
