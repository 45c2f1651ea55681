package registry

import (
	"github.com/bittoy/reactive/pipeline"
)

// GraphInterceptor is the WriteInterceptor that performs spec §4.5's write
// handler automatically: once a property write commits, it enumerates the
// subjects reachable through the old and new values and calls
// HandleReferenceWrite to attach, detach, or reindex accordingly. It folds
// together the "lifecycle-graph-maintenance" and "parent-tracking" steps
// of the default full-tracking chain (spec §4.3) into one interceptor,
// since a Registry already tracks ref-counts and parent sets as one
// structure.
//
// It declares RunsLast plus RunsAfter("change.Observer") so it sorts
// inside change.Observer in the chain. Both interceptors only act after
// next() returns, and post-next() work runs inner-first, so the inner
// position is what makes attach/detach/reindex land before Observer's
// publish — change subscribers always observe an already-updated graph.
type GraphInterceptor struct {
	Registry *Registry
}

// NewGraphInterceptor builds a GraphInterceptor over r.
func NewGraphInterceptor(r *Registry) *GraphInterceptor {
	return &GraphInterceptor{Registry: r}
}

// ServiceName identifies this interceptor for ordering purposes.
func (*GraphInterceptor) ServiceName() string { return "registry.GraphInterceptor" }

// RunsLast sorts graph maintenance into the terminal end of the chain.
func (*GraphInterceptor) RunsLast() bool { return true }

// RunsAfter places this interceptor inside change.Observer, so its
// post-next() graph maintenance runs before Observer's publish.
func (*GraphInterceptor) RunsAfter() []string { return []string{"change.Observer"} }

// Write implements pipeline.WriteInterceptor. It does nothing before the
// rest of the chain runs; once the terminal step (and everything nested
// inside this interceptor) has committed without error, it hands the
// committed old/new pair to the registry so any subject references the
// write added or removed are attached/detached.
func (g *GraphInterceptor) Write(ctx *pipeline.WriteContext, next pipeline.WriteNext) error {
	old := ctx.CurrentValue
	if err := next(); err != nil {
		return err
	}
	g.Registry.HandleReferenceWrite(ctx.Ref.Subject, ctx.Ref.Name, old, ctx.NewValue)
	return nil
}
