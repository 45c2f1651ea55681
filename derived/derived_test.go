package derived

import (
	"testing"

	"github.com/bittoy/reactive/change"
	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/pipeline"
	"github.com/bittoy/reactive/subject"
)

type person struct {
	*subject.Base
	firstName string
	lastName  string
}

func newPerson(ctx *icontext.Context) *person {
	p := &person{Base: subject.NewBase()}
	p.BindSelf(p)
	p.SetContext(ctx)
	return p
}

func (p *person) firstNameProp() *pipeline.Property[string] {
	return pipeline.NewProperty[string](p, "FirstName", func() string { return p.firstName }, func(v string) { p.firstName = v })
}

func (p *person) lastNameProp() *pipeline.Property[string] {
	return pipeline.NewProperty[string](p, "LastName", func() string { return p.lastName }, func(v string) { p.lastName = v })
}

func (p *person) fullName() string {
	return p.firstNameProp().MustGet() + " " + p.lastNameProp().MustGet()
}

func TestDerivedPropertyRecomputesOnDependencyChange(t *testing.T) {
	ctx := icontext.New()
	icontext.AddServiceValue[pipeline.ReadInterceptor](ctx, RecordingInterceptor{})
	observer := change.NewObserver()
	icontext.AddServiceValue[pipeline.WriteInterceptor](ctx, observer)

	tracker := NewTracker(observer)

	p := newPerson(ctx)
	fullNameRef := subject.Reference{Subject: p, Name: "FullName"}
	tracker.Register(fullNameRef, func() any { return p.fullName() })

	var events []change.PropertyChange
	observer.Subscribe(func(c change.PropertyChange) { events = append(events, c) })

	if err := p.firstNameProp().Set("Rico"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.lastNameProp().Set("Suter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fullNameEvents []change.PropertyChange
	for _, e := range events {
		if e.Ref.Equal(fullNameRef) {
			fullNameEvents = append(fullNameEvents, e)
		}
	}
	if len(fullNameEvents) != 2 {
		t.Fatalf("expected 2 FullName change events, got %d: %+v", len(fullNameEvents), fullNameEvents)
	}
	if fullNameEvents[1].NewValue != "Rico Suter" {
		t.Fatalf("expected final FullName 'Rico Suter', got %v", fullNameEvents[1].NewValue)
	}
}
