// Package change implements the PropertyChangeObserver write interceptor
// and its buffered/coalesced subscription API (spec §4.4), the property
// pipeline's analogue of the teacher's OnMsg publish step.
package change

import (
	"sync"
	"time"

	"github.com/bittoy/reactive/pipeline"
	"github.com/bittoy/reactive/subject"
)

// PropertyChange records one committed write: the property, its value
// before the write, and the value the terminal step actually committed.
type PropertyChange struct {
	Ref      subject.Reference
	OldValue any
	NewValue any
	// Origin carries whatever WriteContext.Origin held for the write
	// that produced this change (nil for an ordinary local write). A
	// source connector stamps its own identity token here for the
	// duration of an inbound apply, so the local-change flow can
	// recognize and drop its own echo (spec §4.9).
	Origin any
}

// Observer is a WriteInterceptor that performs the equality
// short-circuit (skipping the rest of the chain, and any event, when the
// new value equals the current one — except for collections and maps,
// which always pass through per spec §4.3) and publishes a PropertyChange
// for every write that proceeds past it.
//
// Observer should be registered to run last among WriteInterceptors (it
// implements RunsLast) so the value it compares and reports is whatever
// earlier interceptors (validators, clamps, transforms) settled on.
type Observer struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]func(PropertyChange)
}

// NewObserver builds an empty Observer.
func NewObserver() *Observer {
	return &Observer{subscribers: map[int]func(PropertyChange){}}
}

// ServiceName identifies this interceptor for ordering purposes.
func (o *Observer) ServiceName() string { return "change.Observer" }

// RunsLast reports that this interceptor belongs at the terminal end of
// the write chain, after validators and value transforms have settled.
func (o *Observer) RunsLast() bool { return true }

// Write implements pipeline.WriteInterceptor.
func (o *Observer) Write(ctx *pipeline.WriteContext, next pipeline.WriteNext) error {
	before := ctx.CurrentValue
	if !pipeline.IsCollectionOrMap(before) && before == ctx.NewValue {
		return nil
	}
	if err := next(); err != nil {
		return err
	}
	o.publish(PropertyChange{Ref: ctx.Ref, OldValue: before, NewValue: ctx.NewValue, Origin: ctx.Origin})
	return nil
}

// Subscription represents one live subscription to an Observer's change
// stream (direct or buffered). Cancel is immediate: no further
// notifications are delivered once it returns, per spec §4.4.
type Subscription struct {
	cancel func()
}

// Cancel unsubscribes.
func (s *Subscription) Cancel() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// Subscribe registers fn to be called synchronously, in commit order, for
// every PropertyChange this Observer publishes.
func (o *Observer) Subscribe(fn func(PropertyChange)) *Subscription {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subscribers[id] = fn
	o.mu.Unlock()
	return &Subscription{cancel: func() {
		o.mu.Lock()
		delete(o.subscribers, id)
		o.mu.Unlock()
	}}
}

// PublishDerived publishes c directly to subscribers, bypassing the write
// pipeline. It exists for collaborators — chiefly the derived-property
// tracker — that recompute a value outside of any WriteContext and still
// need to emit the resulting synthetic PropertyChange (spec §4.7).
func (o *Observer) PublishDerived(c PropertyChange) {
	o.publish(c)
}

func (o *Observer) publish(c PropertyChange) {
	o.mu.Lock()
	fns := make([]func(PropertyChange), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// Batch is one window's worth of buffered changes, in commit order.
type Batch []PropertyChange

// Buffered returns a channel delivering, every window, a Batch of changes
// published since the previous tick. When coalesce is true, only the last
// change per PropertyReference survives within a batch (spec §4.4).
// Windows with no changes are skipped (no empty batch is delivered). The
// returned Subscription's Cancel stops delivery immediately and closes the
// channel.
func (o *Observer) Buffered(window time.Duration, coalesce bool) (<-chan Batch, *Subscription) {
	out := make(chan Batch, 1)
	var mu sync.Mutex
	var pending []PropertyChange

	raw := o.Subscribe(func(c PropertyChange) {
		mu.Lock()
		pending = append(pending, c)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		defer close(out)
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				batch := pending
				pending = nil
				mu.Unlock()
				if len(batch) == 0 {
					continue
				}
				if coalesce {
					batch = coalesceBatch(batch)
				}
				select {
				case out <- Batch(batch):
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	return out, &Subscription{cancel: func() {
		raw.Cancel()
		close(done)
	}}
}

func coalesceBatch(batch []PropertyChange) []PropertyChange {
	index := make(map[subject.Reference]int, len(batch))
	out := make([]PropertyChange, 0, len(batch))
	for _, c := range batch {
		if i, ok := index[c.Ref]; ok {
			out[i] = c
			continue
		}
		index[c.Ref] = len(out)
		out = append(out, c)
	}
	return out
}
