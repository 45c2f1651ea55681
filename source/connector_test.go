package source

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bittoy/reactive/change"
	"github.com/bittoy/reactive/subject"
)

type fixedPathProvider struct{ path string }

func (p fixedPathProvider) Path(subject.Reference) (string, bool) { return p.path, true }

type fakeSource struct {
	mu           sync.Mutex
	onUpdate     func([]Inbound)
	initialApply Apply
	writes       [][]Outbound
	writeErr     error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) LoadInitialState(ctx context.Context) (Apply, error) {
	return f.initialApply, nil
}

func (f *fakeSource) Start(ctx context.Context, onUpdate func([]Inbound)) (Subscription, error) {
	f.mu.Lock()
	f.onUpdate = onUpdate
	f.mu.Unlock()
	return subFunc(func() {}), nil
}

func (f *fakeSource) Write(ctx context.Context, updates []Outbound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, updates)
	return f.writeErr
}

func (f *fakeSource) deliver(batch []Inbound) {
	f.mu.Lock()
	cb := f.onUpdate
	f.mu.Unlock()
	cb(batch)
}

type subFunc func()

func (s subFunc) Unsubscribe() { s() }

func TestConnectorBuffersDuringInitAndReplaysInOrder(t *testing.T) {
	var applied []string
	var mu sync.Mutex

	src := &fakeSource{}
	src.initialApply = func() error {
		// A real Source delivers inbound updates from its own
		// goroutine; simulate that here so the connector's
		// buffering lock serializes against it rather than
		// self-deadlocking on the goroutine running Start.
		go src.deliver([]Inbound{{Path: "during-init", Value: 1}})
		return nil
	}

	c := NewConnector(Config{
		Name:   "fake",
		Source: src,
		Applier: func(ctx context.Context, origin Origin, path string, value any) error {
			mu.Lock()
			applied = append(applied, path)
			mu.Unlock()
			return nil
		},
	})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(applied)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 || applied[0] != "during-init" {
		t.Fatalf("expected buffered update to be replayed, got %v", applied)
	}
}

func TestConnectorEchoFilterSuppressesOwnWrite(t *testing.T) {
	src := &fakeSource{initialApply: func() error { return nil }}
	observer := change.NewObserver()
	c := NewConnector(Config{
		Name:     "fake",
		Source:   src,
		Observer: observer,
		Paths:    fixedPathProvider{path: "Name"},
		Applier: func(ctx context.Context, origin Origin, path string, value any) error {
			return nil
		},
		LocalWriteWindow: 20 * time.Millisecond,
	})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Stop()

	observer.PublishDerived(change.PropertyChange{Origin: c.Origin()})

	time.Sleep(60 * time.Millisecond)
	src.mu.Lock()
	writeCount := len(src.writes)
	src.mu.Unlock()
	if writeCount != 0 {
		t.Fatalf("expected echo write to be suppressed, got %d writes", writeCount)
	}
}

func TestConnectorRetriesFailedWrite(t *testing.T) {
	src := &fakeSource{initialApply: func() error { return nil }, writeErr: context.DeadlineExceeded}
	observer := change.NewObserver()
	c := NewConnector(Config{
		Name:     "fake",
		Source:   src,
		Observer: observer,
		Paths:    fixedPathProvider{path: "Name"},
		Applier: func(ctx context.Context, origin Origin, path string, value any) error {
			return nil
		},
		LocalWriteWindow: 20 * time.Millisecond,
	})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Stop()

	observer.PublishDerived(change.PropertyChange{NewValue: "x"})
	time.Sleep(60 * time.Millisecond)

	c.mu.Lock()
	retryLen := len(c.retryQueue)
	c.mu.Unlock()
	if retryLen == 0 {
		t.Fatal("expected failed write to be pushed to retry queue")
	}
}
