package pipeline

import (
	"reflect"

	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/subject"
)

// WriteContext carries a write's identity and mutable payload through the
// chain (spec §4.3). CurrentValue is read once, before the chain starts, by
// re-invoking the property's own getter — for a derived property this
// forces recomputation, so a WriteInterceptor comparing CurrentValue to
// NewValue always compares against a fresh value. NewValue starts as the
// value the caller passed in; any WriteInterceptor may replace it before
// calling Next, and the terminal step commits whatever NewValue holds when
// it finally runs.
//
// Origin is an opaque, identity-compared token a Source attaches to writes
// it applies; it is carried onto the resulting PropertyChange, so
// source.Connector's local-change flow can recognize "this write came back
// from the place I sent it to" without comparing names or values.
type WriteContext struct {
	Ref          subject.Reference
	CurrentValue any
	NewValue     any
	Origin       any
}

// WriteNext is the continuation a WriteInterceptor calls to run the rest
// of the chain, ending at the terminal backing-field write. A
// WriteInterceptor that returns without calling Next suppresses the write
// entirely — the backing field is left unchanged.
type WriteNext func() error

// WriteInterceptor is one write middleware step (spec §4.3).
type WriteInterceptor interface {
	Write(ctx *WriteContext, next WriteNext) error
}

// BuildWrite composes the WriteInterceptor services registered on ctx (and
// its fallbacks) around terminal, outermost-first. A nil ctx runs terminal
// directly.
func BuildWrite(ctx *icontext.Context, wc *WriteContext, terminal WriteNext) WriteNext {
	if ctx == nil {
		return terminal
	}
	interceptors := icontext.GetServices[WriteInterceptor](ctx)
	next := terminal
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		innerNext := next
		next = func() error {
			return interceptor.Write(wc, innerNext)
		}
	}
	return next
}

// IsCollectionOrMap reports whether v is a slice, array, or map — the
// values spec §4.3 carves out of any equality short-circuit built on top
// of the write pipeline (change.Observer's equality short-circuit never
// compares collections/maps at all, since deep comparison of arbitrary
// collections is unbounded work run on every write).
func IsCollectionOrMap(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	default:
		return false
	}
}
