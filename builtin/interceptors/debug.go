// Package interceptors collects ready-made ReadInterceptor/WriteInterceptor/
// MethodInterceptor implementations a host application can register on an
// icontext.Context directly, plus the Preset helper that assembles spec
// §4.3's default "full tracking" chain. Debug is grounded on the teacher's
// NodeDebug/ChainDebug aspects (builtin/aspect/node_debug_aspect.go,
// chain_debug_aspect.go): an unconditional before/after log of every
// touched node, generalized here from rule-node execution to property
// reads, writes, and method calls.
package interceptors

import (
	"fmt"

	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/pipeline"
)

// Debug logs every property read, write, and method call it observes
// through Logger. Unlike the teacher's NodeDebug/ChainDebug, which always
// ran at a fixed Order (900, "one of the last aspects to run"), Debug here
// carries no ordering preference of its own — spec §9's "supplemented
// features" note says it is never part of the default full-tracking
// preset, so a caller who adds it decides where it sits by registration
// order alone. Logging happens at Debug level: high-volume and meant for
// local troubleshooting, not production telemetry (that's metrics).
type Debug struct {
	Logger icontext.Logger
}

// NewDebug builds a Debug interceptor logging through logger (NopLogger if
// nil).
func NewDebug(logger icontext.Logger) *Debug {
	if logger == nil {
		logger = icontext.NopLogger()
	}
	return &Debug{Logger: logger}
}

// ServiceName identifies this interceptor for ordering purposes.
func (*Debug) ServiceName() string { return "interceptors.Debug" }

// Read implements pipeline.ReadInterceptor.
func (d *Debug) Read(ctx *pipeline.ReadContext, next pipeline.ReadNext) (any, error) {
	d.Logger.Debugf("read before: %s.%s", subjectLabel(ctx.Ref.Subject), ctx.Ref.Name)
	v, err := next()
	if err != nil {
		d.Logger.Debugf("read after: %s.%s error=%v", subjectLabel(ctx.Ref.Subject), ctx.Ref.Name, err)
	} else {
		d.Logger.Debugf("read after: %s.%s = %v", subjectLabel(ctx.Ref.Subject), ctx.Ref.Name, v)
	}
	return v, err
}

// Write implements pipeline.WriteInterceptor.
func (d *Debug) Write(ctx *pipeline.WriteContext, next pipeline.WriteNext) error {
	d.Logger.Debugf("write before: %s.%s %v -> %v", subjectLabel(ctx.Ref.Subject), ctx.Ref.Name, ctx.CurrentValue, ctx.NewValue)
	err := next()
	if err != nil {
		d.Logger.Debugf("write after: %s.%s error=%v", subjectLabel(ctx.Ref.Subject), ctx.Ref.Name, err)
	} else {
		d.Logger.Debugf("write after: %s.%s committed %v", subjectLabel(ctx.Ref.Subject), ctx.Ref.Name, ctx.NewValue)
	}
	return err
}

// Invoke implements pipeline.MethodInterceptor.
func (d *Debug) Invoke(ctx *pipeline.MethodContext, next pipeline.MethodNext) (any, error) {
	d.Logger.Debugf("method before: %s.%s(%v)", subjectLabel(ctx.Subject), ctx.MethodName, ctx.Args)
	result, err := next(ctx.Args)
	if err != nil {
		d.Logger.Debugf("method after: %s.%s error=%v", subjectLabel(ctx.Subject), ctx.MethodName, err)
	} else {
		d.Logger.Debugf("method after: %s.%s = %v", subjectLabel(ctx.Subject), ctx.MethodName, result)
	}
	return result, err
}

func subjectLabel(s any) string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%p", s)
}
