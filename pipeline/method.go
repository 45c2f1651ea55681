package pipeline

import (
	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/subject"
)

// MethodContext carries an intercepted method invocation's identity and
// arguments through the chain (spec §4.3's method pipeline, the analogue
// of the read/write pipelines for subject methods rather than
// properties). Args is mutable in place: a MethodInterceptor may rewrite
// an argument before calling Next.
type MethodContext struct {
	Subject    subject.Subject
	MethodName string
	Args       []any
}

// MethodNext is the continuation a MethodInterceptor calls to run the
// rest of the chain, ending at the terminal method body.
type MethodNext func(args []any) (any, error)

// MethodInterceptor is one method middleware step (spec §4.3).
type MethodInterceptor interface {
	Invoke(ctx *MethodContext, next MethodNext) (any, error)
}

// BuildMethod composes the MethodInterceptor services registered on ctx
// (and its fallbacks) around terminal, outermost-first. A nil ctx runs
// terminal directly.
func BuildMethod(ctx *icontext.Context, mc *MethodContext, terminal MethodNext) MethodNext {
	if ctx == nil {
		return terminal
	}
	interceptors := icontext.GetServices[MethodInterceptor](ctx)
	next := terminal
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		innerNext := next
		next = func(args []any) (any, error) {
			mc.Args = args
			return interceptor.Invoke(mc, innerNext)
		}
	}
	return func(args []any) (any, error) {
		mc.Args = args
		return next(args)
	}
}
