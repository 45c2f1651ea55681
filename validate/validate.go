// Package validate implements the write-interceptor validation hook (spec
// §4.8): before a write's terminal commit, every registered
// PropertyValidator is asked for validation messages on the proposed
// value, and a non-empty result rejects the write with a ValidationError
// without calling next.
package validate

import (
	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/pipeline"
	"github.com/bittoy/reactive/subject"
)

// PropertyValidator inspects a proposed write and returns zero or more
// human-readable validation failure messages. An empty/nil result means
// the value is valid.
type PropertyValidator interface {
	Validate(ref subject.Reference, newValue any) []string
}

// Interceptor is the WriteInterceptor that runs every PropertyValidator
// registered on the context before allowing a write through. It should be
// registered to run before the change.Observer (RunsBefore
// "change.Observer") so rejected writes never reach the equality check or
// publish a change.
type Interceptor struct {
	validators []PropertyValidator
}

// NewInterceptor builds a validation interceptor over the given
// validators, evaluated in order.
func NewInterceptor(validators ...PropertyValidator) *Interceptor {
	return &Interceptor{validators: validators}
}

// ServiceName identifies this interceptor for ordering purposes.
func (*Interceptor) ServiceName() string { return "validate.Interceptor" }

// RunsBefore declares that validation must happen before change
// publication commits.
func (*Interceptor) RunsBefore() []string { return []string{"change.Observer"} }

// Write implements pipeline.WriteInterceptor.
func (i *Interceptor) Write(ctx *pipeline.WriteContext, next pipeline.WriteNext) error {
	var messages []string
	for _, v := range i.validators {
		messages = append(messages, v.Validate(ctx.Ref, ctx.NewValue)...)
	}
	if len(messages) > 0 {
		return ierrors.NewValidationError(ctx.Ref.Name, messages...)
	}
	return next()
}

// RegisterValidator is a convenience for adding a single PropertyValidator
// as its own write interceptor, for callers that don't want to assemble a
// shared Interceptor up front.
func RegisterValidator(ctx *icontext.Context, v PropertyValidator) {
	icontext.AddServiceValue[pipeline.WriteInterceptor](ctx, NewInterceptor(v))
}
