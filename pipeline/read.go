// Package pipeline builds and runs the typed read/write/method interceptor
// chains spec §4.3 describes, the property-interception analogue of the
// teacher engine's before/around/after aspect chain
// (engine/rule_context.go's onBefore/tell/onAfter walking RuleChainCtx's
// sorted aspect lists). Where the teacher chains a fixed pair of aspect
// phases around one node's OnMsg, this package chains an arbitrary number
// of interceptors around one terminal backing-field access.
package pipeline

import (
	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/subject"
)

// ReadContext carries the property identity through a read chain. Unlike
// WriteContext it has no mutable payload: a ReadInterceptor influences the
// result only by replacing the value returned from Next, or by
// short-circuiting (not calling Next at all).
type ReadContext struct {
	Ref subject.Reference
}

// ReadNext is the continuation a ReadInterceptor calls to run the rest of
// the chain (ending at the terminal backing-field read).
type ReadNext func() (any, error)

// ReadInterceptor is one read middleware step (spec §4.3). Returning
// without calling next short-circuits the remaining chain and the
// terminal step; the interceptor's own return value becomes the read
// result.
type ReadInterceptor interface {
	Read(ctx *ReadContext, next ReadNext) (any, error)
}

// BuildRead composes the ReadInterceptor services registered on ctx (and
// its fallbacks) around terminal, outermost-first, matching the I0.read(…
// In.read(…, terminal)) nesting in spec §4.3. A nil ctx (a detached
// subject) runs terminal directly.
func BuildRead(ctx *icontext.Context, rc *ReadContext, terminal ReadNext) ReadNext {
	if ctx == nil {
		return terminal
	}
	interceptors := icontext.GetServices[ReadInterceptor](ctx)
	next := terminal
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		innerNext := next
		next = func() (any, error) {
			return interceptor.Read(rc, innerNext)
		}
	}
	return next
}
