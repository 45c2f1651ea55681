package validate

import (
	"errors"
	"testing"

	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/pipeline"
	"github.com/bittoy/reactive/subject"
)

type stubSubject struct{ *subject.Base }

func newStub() *stubSubject {
	s := &stubSubject{Base: subject.NewBase()}
	s.BindSelf(s)
	return s
}

type rejectEmptyValidator struct{}

func (rejectEmptyValidator) Validate(ref subject.Reference, newValue any) []string {
	if s, ok := newValue.(string); ok && s == "" {
		return []string{"must not be empty"}
	}
	return nil
}

func TestInterceptorRejectsInvalidWrite(t *testing.T) {
	interceptor := NewInterceptor(rejectEmptyValidator{})
	s := newStub()
	ctx := &pipeline.WriteContext{Ref: subject.Reference{Subject: s, Name: "Name"}, NewValue: ""}

	called := false
	err := interceptor.Write(ctx, func() error { called = true; return nil })
	if called {
		t.Fatal("expected next not to be called for invalid write")
	}
	var verr *ierrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestInterceptorAllowsValidWrite(t *testing.T) {
	interceptor := NewInterceptor(rejectEmptyValidator{})
	s := newStub()
	ctx := &pipeline.WriteContext{Ref: subject.Reference{Subject: s, Name: "Name"}, NewValue: "Rico"}

	called := false
	if err := interceptor.Write(ctx, func() error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected next to be called for valid write")
	}
}

func TestExprValidatorRejectsOutOfRange(t *testing.T) {
	v, err := NewExprValidator("value >= 0 && value <= 100", "must be between 0 and 100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := newStub()
	ref := subject.Reference{Subject: s, Name: "Percent"}
	if msgs := v.Validate(ref, 150); len(msgs) != 1 {
		t.Fatalf("expected one validation message, got %v", msgs)
	}
	if msgs := v.Validate(ref, 50); len(msgs) != 0 {
		t.Fatalf("expected no validation messages, got %v", msgs)
	}
}

func TestScriptValidatorUsesReturnedMessages(t *testing.T) {
	v, err := NewScriptValidator(`function validate(value, property) {
		if (value < 0) { return "must be non-negative"; }
		return null;
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := newStub()
	ref := subject.Reference{Subject: s, Name: "Count"}
	if msgs := v.Validate(ref, -1); len(msgs) != 1 || msgs[0] != "must be non-negative" {
		t.Fatalf("unexpected messages: %v", msgs)
	}
	if msgs := v.Validate(ref, 1); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %v", msgs)
	}
}
