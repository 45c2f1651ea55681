// Package icontext implements the hierarchical service container described
// in spec §3/§4.2: a keyed, fallback-chaining registry of interceptors,
// lifecycle handlers, validators, and other pluggable services shared by a
// subject graph. It plays the role the teacher engine's types.Config +
// AspectList plays for a rule chain, generalized from a fixed set of aspect
// kinds to arbitrary user-defined service kinds resolved by Go generics.
package icontext

import (
	"reflect"
	"sync"

	"github.com/bittoy/reactive/ierrors"
)

// LifecycleInterceptor is notified when a subject becomes reachable from,
// or unreachable from, a context (directly, or through AddFallback
// propagation). It is intentionally defined against `any` rather than a
// concrete Subject type so this package has no dependency on the subject
// package — the dependency runs the other way.
type LifecycleInterceptor interface {
	AttachTo(subject any)
	DetachFrom(subject any)
}

type serviceSlot struct {
	once    sync.Once
	factory func() any
	value   any
}

func (s *serviceSlot) resolve() any {
	s.once.Do(func() { s.value = s.factory() })
	return s.value
}

// Context is a keyed service container. Services of the same kind resolve
// in registration order within one context, then transitively through
// fallbacks, deduplicated by identity — the resolution rule in spec §4.2.
type Context struct {
	mu        sync.RWMutex
	services  map[reflect.Type][]*serviceSlot
	fallbacks []*Context
	logger    Logger
	subjects  []any
}

// Option configures a Context at construction time.
type Option func(*Context)

// WithLogger overrides the context's Logger (default: DefaultLogger()).
func WithLogger(l Logger) Option {
	return func(c *Context) { c.logger = l }
}

// New creates an empty context (spec §4.2's create()).
func New(opts ...Option) *Context {
	c := &Context{
		services: map[reflect.Type][]*serviceSlot{},
		logger:   DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Logger returns the context's logger.
func (c *Context) Logger() Logger { return c.logger }

func kindOf[K any]() reflect.Type {
	return reflect.TypeOf((*K)(nil)).Elem()
}

// AddService registers a lazily constructed service of kind K
// (spec §4.2's with_service). The factory runs at most once, the first time
// any GetService[K]/GetServices[K] call resolves this context.
func AddService[K any](c *Context, factory func() K) {
	kind := kindOf[K]()
	slot := &serviceSlot{factory: func() any { return factory() }}
	c.mu.Lock()
	c.services[kind] = append(c.services[kind], slot)
	c.mu.Unlock()
}

// AddServiceValue registers an already constructed service value, a
// convenience over AddService for services with no expensive setup.
func AddServiceValue[K any](c *Context, value K) {
	AddService(c, func() K { return value })
}

// SetServices replaces every service of kind K directly registered on c
// (not its fallbacks) with values, atomically from GetServices[K]'s point
// of view — a caller resolving K concurrently sees either the old set or
// the new one, never a partial mix. This is the hot-swap a running
// application uses to change interceptor/validator sets without tearing
// down and rebuilding the whole context, mirroring the teacher's
// ReloadSelf/SetAspects reconfiguration.
func SetServices[K any](c *Context, values ...K) {
	kind := kindOf[K]()
	slots := make([]*serviceSlot, len(values))
	for i, v := range values {
		value := v
		slots[i] = &serviceSlot{factory: func() any { return value }}
	}
	c.mu.Lock()
	c.services[kind] = slots
	c.mu.Unlock()
}

// GetServices returns every registered service assignable to K: this
// context's own services (ordering-attribute sorted), followed by each
// fallback's GetServices[K] in fallback-registration order, deduplicated by
// identity. A RunsBefore/RunsAfter cycle within one context's kind falls
// back to registration order rather than panicking; use
// TryGetServices[K] to observe the ConfigurationError spec §4.2 requires
// cycles to raise.
func GetServices[K any](c *Context) []K {
	out, _ := TryGetServices[K](c)
	return out
}

// TryGetServices is GetServices with the ConfigurationError a RunsBefore/
// RunsAfter ordering cycle produces (spec §4.2: "cycles reported as
// ConfigurationError").
func TryGetServices[K any](c *Context) ([]K, error) {
	kind := kindOf[K]()
	seen := map[any]bool{}
	var out []K
	err := collect(c, kind, seen, &out)
	return out, err
}

func collect[K any](c *Context, kind reflect.Type, seen map[any]bool, out *[]K) error {
	c.mu.RLock()
	slots := append([]*serviceSlot(nil), c.services[kind]...)
	fallbacks := append([]*Context(nil), c.fallbacks...)
	c.mu.RUnlock()

	values := make([]any, len(slots))
	for i, s := range slots {
		values[i] = s.resolve()
	}
	ordered, orderErr := topoSort(values)
	if orderErr != nil {
		ordered = values
	}
	for _, v := range ordered {
		if t := reflect.TypeOf(v); t != nil && !t.Comparable() {
			// Values of non-comparable types (funcs, maps, slices) have no
			// identity to deduplicate by; each registration is kept.
			if typed, ok := v.(K); ok {
				*out = append(*out, typed)
			}
			continue
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		if typed, ok := v.(K); ok {
			*out = append(*out, typed)
		}
	}
	for _, fb := range fallbacks {
		if err := collect[K](fb, kind, seen, out); err != nil && orderErr == nil {
			orderErr = err
		}
	}
	return orderErr
}

// GetService returns the single service of kind K, failing with
// ConfigurationError if zero or more than one match (spec §4.2).
func GetService[K any](c *Context) (K, error) {
	var zero K
	all := GetServices[K](c)
	switch len(all) {
	case 0:
		return zero, ierrors.NewConfigurationError("no service registered for "+kindOf[K]().String(), nil)
	case 1:
		return all[0], nil
	default:
		return zero, ierrors.NewConfigurationError("ambiguous service resolution for "+kindOf[K]().String(), nil)
	}
}

// BindSubject records that subject is now directly bound to this context
// (its Context pointer was assigned). Called by the subject package's
// attach hook the first time a context is assigned to a subject.
func (c *Context) BindSubject(subject any) {
	c.mu.Lock()
	c.subjects = append(c.subjects, subject)
	c.mu.Unlock()
}

// UnbindSubject removes subject from this context's direct-binding set.
func (c *Context) UnbindSubject(subject any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subjects {
		if s == subject {
			c.subjects = append(c.subjects[:i], c.subjects[i+1:]...)
			return
		}
	}
}

// BoundSubjects returns a snapshot of subjects directly bound to this
// context.
func (c *Context) BoundSubjects() []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]any(nil), c.subjects...)
}

// AddFallback pushes a parent context onto this context's fallback chain.
// Adding the same parent twice is a no-op (identity equality). Every
// LifecycleInterceptor newly reachable through parent is invoked with
// AttachTo for each subject already bound to this context, per spec §4.2.
func (c *Context) AddFallback(parent *Context) {
	c.mu.Lock()
	for _, fb := range c.fallbacks {
		if fb == parent {
			c.mu.Unlock()
			return
		}
	}
	c.fallbacks = append(c.fallbacks, parent)
	subjects := append([]any(nil), c.subjects...)
	c.mu.Unlock()

	for _, li := range GetServices[LifecycleInterceptor](parent) {
		for _, s := range subjects {
			li.AttachTo(s)
		}
	}
}

// RemoveFallback pops parent from the fallback chain and runs the symmetric
// DetachFrom for each bound subject.
func (c *Context) RemoveFallback(parent *Context) {
	c.mu.Lock()
	idx := -1
	for i, fb := range c.fallbacks {
		if fb == parent {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	c.fallbacks = append(c.fallbacks[:idx], c.fallbacks[idx+1:]...)
	subjects := append([]any(nil), c.subjects...)
	c.mu.Unlock()

	for _, li := range GetServices[LifecycleInterceptor](parent) {
		for _, s := range subjects {
			li.DetachFrom(s)
		}
	}
}

// Fallbacks returns a snapshot of this context's fallback chain.
func (c *Context) Fallbacks() []*Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Context(nil), c.fallbacks...)
}
