package wire

import (
	"errors"
	"testing"

	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/update"
)

func TestUpdateEnvelopeRoundTrips(t *testing.T) {
	su := update.NewSubjectUpdate("root-1")
	su.Set("root-1", "FirstName", update.SubjectPropertyUpdate{Kind: update.KindValue, Value: "Rico"})

	data, err := EncodeUpdate(UpdatePayload{Delta: su, Sequence: 42})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Type != Update {
		t.Fatalf("expected type Update, got %v", env.Type)
	}
	if env.Sequence == nil || *env.Sequence != 42 {
		t.Fatalf("expected sequence 42, got %v", env.Sequence)
	}

	payload, err := DecodeUpdate(env)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Sequence != 42 {
		t.Fatalf("unexpected sequence: %d", payload.Sequence)
	}
	got := payload.Delta.Subjects["root-1"]["FirstName"]
	if got.Kind != update.KindValue || got.Value != "Rico" {
		t.Fatalf("unexpected round-tripped property update: %+v", got)
	}
}

func TestHelloEnvelopeHasNilSequence(t *testing.T) {
	data, err := EncodeHello(HelloPayload{Version: 1, Format: "json"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != Hello || env.Sequence != nil {
		t.Fatalf("expected Hello with nil sequence, got type=%v seq=%v", env.Type, env.Sequence)
	}
	hello, err := DecodeHello(env)
	if err != nil {
		t.Fatalf("decode hello payload: %v", err)
	}
	if hello.Version != 1 || hello.Format != "json" {
		t.Fatalf("unexpected hello payload: %+v", hello)
	}
}

func TestErrorEnvelopeCarriesFailures(t *testing.T) {
	data, err := EncodeError(ErrorPayload{
		Code:    ValidationFailed,
		Message: "rejected",
		Failures: []Failure{
			{Path: "/Person/FirstName", Code: ValidationFailed, Message: "too long"},
		},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	errPayload, err := DecodeError(env)
	if err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if len(errPayload.Failures) != 1 || errPayload.Failures[0].Code != ValidationFailed {
		t.Fatalf("unexpected error payload: %+v", errPayload)
	}
}

func TestCodeForMapsEngineErrors(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCode
	}{
		{ierrors.NewValidationError("FirstName", "too long"), ValidationFailed},
		{ierrors.NewReadOnlyError("FullName"), ReadOnlyProperty},
		{ierrors.NewNotFoundError("root/Missing"), PropertyNotFound},
		{errors.New("boom"), InternalError},
	}
	for _, c := range cases {
		if got := CodeFor(c.err); got != c.want {
			t.Fatalf("CodeFor(%v) = %s, want %s", c.err, got, c.want)
		}
	}

	f := FailureFor("root/Missing", ierrors.NewNotFoundError("root/Missing"))
	if f.Code != PropertyNotFound || f.Path != "root/Missing" || f.Message == "" {
		t.Fatalf("unexpected failure: %+v", f)
	}
}
