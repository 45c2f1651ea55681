package change

import (
	"testing"
	"time"

	"github.com/bittoy/reactive/pipeline"
	"github.com/bittoy/reactive/subject"
)

type stubSubject struct{ *subject.Base }

func newStub() *stubSubject {
	s := &stubSubject{Base: subject.NewBase()}
	s.BindSelf(s)
	return s
}

func TestObserverSkipsEqualScalarWrite(t *testing.T) {
	o := NewObserver()
	var got []PropertyChange
	o.Subscribe(func(c PropertyChange) { got = append(got, c) })

	s := newStub()
	ref := subject.Reference{Subject: s, Name: "FirstName"}
	ctx := &pipeline.WriteContext{Ref: ref, CurrentValue: "Rico", NewValue: "Rico"}
	calls := 0
	err := o.Write(ctx, func() error { calls++; return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 || len(got) != 0 {
		t.Fatalf("expected equal write to be short-circuited, calls=%d changes=%d", calls, len(got))
	}
}

func TestObserverEmitsOnChangedWrite(t *testing.T) {
	o := NewObserver()
	var got []PropertyChange
	o.Subscribe(func(c PropertyChange) { got = append(got, c) })

	s := newStub()
	ref := subject.Reference{Subject: s, Name: "FirstName"}
	ctx := &pipeline.WriteContext{Ref: ref, CurrentValue: nil, NewValue: "Rico"}
	err := o.Write(ctx, func() error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].NewValue != "Rico" || got[0].OldValue != nil {
		t.Fatalf("unexpected changes: %+v", got)
	}
}

func TestBufferedCoalescesPerProperty(t *testing.T) {
	o := NewObserver()
	s := newStub()
	ref := subject.Reference{Subject: s, Name: "Count"}

	batches, sub := o.Buffered(30*time.Millisecond, true)
	defer sub.Cancel()

	for i := 1; i <= 3; i++ {
		ctx := &pipeline.WriteContext{Ref: ref, CurrentValue: i - 1, NewValue: i}
		if err := o.Write(ctx, func() error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	select {
	case batch := <-batches:
		if len(batch) != 1 || batch[0].NewValue != 3 {
			t.Fatalf("expected coalesced batch with final value 3, got %+v", batch)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for buffered batch")
	}
}
