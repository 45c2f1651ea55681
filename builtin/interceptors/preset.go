package interceptors

import (
	"github.com/bittoy/reactive/change"
	"github.com/bittoy/reactive/derived"
	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/metrics"
	"github.com/bittoy/reactive/pipeline"
	"github.com/bittoy/reactive/registry"
	"github.com/bittoy/reactive/validate"
)

// Preset holds the shared collaborators the FullTracking wiring attaches
// to a Context, so a caller that also needs the raw Registry/Observer/
// Tracker (to subscribe, query ref-counts, or register derived
// properties) doesn't have to re-derive them from the context's service
// list.
type Preset struct {
	Registry *registry.Registry
	Observer *change.Observer
	Derived  *derived.Tracker

	unobserve func()
}

// Close releases the Preset's subscriptions, currently just the metrics
// registry-lifecycle subscription ObserveRegistry installed. It does not
// tear down Registry/Observer/Derived themselves, since callers may still
// hold references to subjects attached through them.
func (p *Preset) Close() {
	if p.unobserve != nil {
		p.unobserve()
	}
}

// FullTracking builds a Preset and registers its pieces on ctx:
// equality-short-circuit and change-observable are one interceptor
// (change.Observer, which also performs the equality check spec §4.3
// carves out for collections/maps); lifecycle-graph-maintenance and
// parent-tracking are folded into registry.GraphInterceptor;
// derived-dependency-tracker is derived.RecordingInterceptor on the read
// side plus the Tracker's own subscription to Observer on the write side;
// validate.NewInterceptor gates the write on any supplied validators.
// The resolved write chain is decided by the ordering attributes, not by
// registration order: metrics.Interceptor and the extraWrite interceptors
// (no ordering attributes) run outermost, then the validator (RunsBefore
// change.Observer), then change.Observer (RunsLast), with
// registry.GraphInterceptor (RunsLast, RunsAfter change.Observer)
// innermost. On the read side derived.RecordingInterceptor (RunsFirst) runs
// outermost, followed by metrics.Interceptor and extraRead.
// metrics.Interceptor rides along on both the read and write side so
// ReadDuration/WritesTotal stay populated without every caller wiring it by
// hand, and ObserveRegistry keeps SubjectsAttached in sync with reg.
func FullTracking(ctx *icontext.Context, validators []validate.PropertyValidator, extraRead []pipeline.ReadInterceptor, extraWrite []pipeline.WriteInterceptor) *Preset {
	reg := registry.New()
	observer := change.NewObserver()
	tracker := derived.NewTracker(observer)

	icontext.AddServiceValue[pipeline.WriteInterceptor](ctx, registry.NewGraphInterceptor(reg))
	icontext.AddServiceValue[pipeline.WriteInterceptor](ctx, observer)
	icontext.AddServiceValue[pipeline.ReadInterceptor](ctx, derived.RecordingInterceptor{})
	icontext.AddServiceValue[pipeline.ReadInterceptor](ctx, metrics.Interceptor{})
	icontext.AddServiceValue[pipeline.WriteInterceptor](ctx, metrics.Interceptor{})

	for _, ri := range extraRead {
		icontext.AddServiceValue[pipeline.ReadInterceptor](ctx, ri)
	}
	for _, wi := range extraWrite {
		icontext.AddServiceValue[pipeline.WriteInterceptor](ctx, wi)
	}

	if len(validators) > 0 {
		icontext.AddServiceValue[pipeline.WriteInterceptor](ctx, validate.NewInterceptor(validators...))
	}

	// reg.Install() wires subject.AttachHook process-wide, so every
	// SetContext call — the direct-attach path spec §4.5 describes —
	// routes through reg.OnContextChange on its own; no separate
	// icontext.LifecycleInterceptor registration is needed (or correct)
	// here, since that hook fires on fallback changes, a different event
	// from a subject's own root attach/detach.
	reg.Install()

	unobserve := metrics.ObserveRegistry(reg)

	return &Preset{Registry: reg, Observer: observer, Derived: tracker, unobserve: unobserve}
}
