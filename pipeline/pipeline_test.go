package pipeline

import (
	"errors"
	"testing"

	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/subject"
)

type stubSubject struct {
	*subject.Base
}

func newStubSubject() *stubSubject {
	s := &stubSubject{Base: subject.NewBase()}
	s.BindSelf(s)
	return s
}

type upperReadInterceptor struct{}

func (upperReadInterceptor) Read(ctx *ReadContext, next ReadNext) (any, error) {
	v, err := next()
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		return s + "!", nil
	}
	return v, nil
}

type clampWriteInterceptor struct{ max int }

func (c clampWriteInterceptor) Write(ctx *WriteContext, next WriteNext) error {
	if n, ok := ctx.NewValue.(int); ok && n > c.max {
		ctx.NewValue = c.max
	}
	return next()
}

type rejectEqualWriteInterceptor struct{}

func (rejectEqualWriteInterceptor) Write(ctx *WriteContext, next WriteNext) error {
	if ctx.CurrentValue == ctx.NewValue {
		return nil
	}
	return next()
}

func TestPropertyReadPipelineAppliesInterceptor(t *testing.T) {
	ctx := icontext.New()
	icontext.AddServiceValue[ReadInterceptor](ctx, upperReadInterceptor{})
	s := newStubSubject()
	s.SetContext(ctx)

	backing := "hi"
	p := NewProperty[string](s, "Greeting", func() string { return backing }, func(v string) { backing = v })

	got, err := p.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi!" {
		t.Fatalf("expected interceptor to append '!', got %q", got)
	}
}

func TestPropertyWritePipelineClamps(t *testing.T) {
	ctx := icontext.New()
	icontext.AddServiceValue[WriteInterceptor](ctx, clampWriteInterceptor{max: 10})
	s := newStubSubject()
	s.SetContext(ctx)

	backing := 0
	p := NewProperty[int](s, "Count", func() int { return backing }, func(v int) { backing = v })

	if err := p.Set(50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backing != 10 {
		t.Fatalf("expected clamp to 10, got %d", backing)
	}
}

func TestPropertyWritePipelineSuppressesNoopWrite(t *testing.T) {
	ctx := icontext.New()
	icontext.AddServiceValue[WriteInterceptor](ctx, rejectEqualWriteInterceptor{})
	s := newStubSubject()
	s.SetContext(ctx)

	backing := 5
	sets := 0
	p := NewProperty[int](s, "Count", func() int { return backing }, func(v int) { sets++; backing = v })

	if err := p.Set(5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sets != 0 {
		t.Fatalf("expected write suppressed for equal value, got %d sets", sets)
	}
	if err := p.Set(6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sets != 1 || backing != 6 {
		t.Fatalf("expected write to go through for changed value, got sets=%d backing=%d", sets, backing)
	}
}

func TestPropertyDetachedSubjectBypassesPipeline(t *testing.T) {
	s := newStubSubject()
	backing := 1
	p := NewProperty[int](s, "Count", func() int { return backing }, func(v int) { backing = v })

	if err := p.Set(42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backing != 42 {
		t.Fatalf("expected detached write to reach backing field, got %d", backing)
	}
	got, err := p.Get()
	if err != nil || got != 42 {
		t.Fatalf("expected detached read to reach backing field, got %d err=%v", got, err)
	}
}

type echoMethodInterceptor struct{ calls *[]string }

func (e echoMethodInterceptor) Invoke(ctx *MethodContext, next MethodNext) (any, error) {
	*e.calls = append(*e.calls, ctx.MethodName)
	return next(ctx.Args)
}

func TestMethodPipelineRunsInterceptorsInOrder(t *testing.T) {
	ctx := icontext.New()
	var calls []string
	icontext.AddServiceValue[MethodInterceptor](ctx, echoMethodInterceptor{calls: &calls})
	s := newStubSubject()
	s.SetContext(ctx)

	mc := &MethodContext{Subject: s, MethodName: "Greet", Args: []any{"world"}}
	terminal := func(args []any) (any, error) { return "hello " + args[0].(string), nil }
	result, err := BuildMethod(ctx, mc, terminal)(mc.Args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "hello world" {
		t.Fatalf("unexpected result: %v", result)
	}
	if len(calls) != 1 || calls[0] != "Greet" {
		t.Fatalf("expected interceptor to observe method name, got %v", calls)
	}
}

func TestReadOnlyPropertyRejectsWrite(t *testing.T) {
	s := newStubSubject()
	s.SetContext(icontext.New())
	p := NewReadOnlyProperty(s, "Total", func() int { return 7 })

	err := p.Set(9)
	var roErr *ierrors.ReadOnlyError
	if !errors.As(err, &roErr) || roErr.Property != "Total" {
		t.Fatalf("expected ReadOnlyError for Total, got %v", err)
	}
	if got := p.MustGet(); got != 7 {
		t.Fatalf("expected value unchanged, got %d", got)
	}
}
