// Package subject defines the contract every tracked object satisfies
// (spec §3/§4.1): a Context binding, an ordered property-metadata table, a
// per-instance scratch data map, and the property-reference identity used
// throughout the registry, change, and source packages.
package subject

import (
	"sync"

	"github.com/bittoy/reactive/icontext"
)

// Subject is the contract every tracked object satisfies. Generated
// trampolines (or the reflectmeta package, for subjects that opt out of
// manual wiring) populate Properties(); Data() is the per-subject scratch
// store (update.SubjectIDs keeps each subject's wire id there; the
// registry and the derived tracker keep their own tables instead).
type Subject interface {
	Context() *icontext.Context
	SetContext(ctx *icontext.Context)
	Data() *DataMap
	Properties() *MetadataTable
}

// AttachHook is called on every Context change of a subject, including a
// change to nil, with the old and new contexts (spec §4.1: "must attach
// the subject to the context the first time a context is assigned").
// registry.Registry.Install sets this hook; subject intentionally has no
// import-time dependency on registry so the two packages don't form a
// cycle.
var AttachHook func(s Subject, old, new *icontext.Context)

// Base is the embeddable struct concrete subjects compose to get the
// Subject contract for free, the same role the teacher's NodeCtx wrapper
// plays for component instances.
//
// Go embedding loses the outer type's identity on promoted methods (a
// method defined on *Base always sees `b`, not the concrete subject that
// embeds it), which matters here because the registry tracks subjects by
// pointer identity. Concrete subjects must call BindSelf(self) once, right
// after constructing Base, so AttachHook and every identity comparison
// downstream sees the outer pointer, not the embedded *Base.
type Base struct {
	mu         sync.RWMutex
	self       Subject
	ctx        *icontext.Context
	data       *DataMap
	properties *MetadataTable
}

// NewBase constructs a Base with an empty data map and property table. The
// embedding subject must call BindSelf immediately afterward.
func NewBase() *Base {
	return &Base{
		data:       NewDataMap(),
		properties: NewMetadataTable(),
	}
}

// BindSelf records the outer Subject so AttachHook fires with the correct
// identity. Safe to call once, immediately after construction.
func (b *Base) BindSelf(self Subject) {
	b.mu.Lock()
	b.self = self
	b.mu.Unlock()
}

func (b *Base) Context() *icontext.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

// SetContext assigns the owning context. It is idempotent: assigning the
// same context twice is a no-op, and AttachHook only fires on an actual
// transition (including the null transition that represents detach).
func (b *Base) SetContext(ctx *icontext.Context) {
	b.mu.Lock()
	old := b.ctx
	if old == ctx {
		b.mu.Unlock()
		return
	}
	b.ctx = ctx
	b.mu.Unlock()

	if AttachHook != nil {
		AttachHook(b.asSubject(), old, ctx)
	}
}

// asSubject returns the bound outer subject if BindSelf was called, falling
// back to the embedded Base itself for subjects that don't need identity
// beyond Base (e.g. ad hoc subjects built directly as *Base in tests).
func (b *Base) asSubject() Subject {
	if b.self != nil {
		return b.self
	}
	return b
}

func (b *Base) Data() *DataMap { return b.data }

func (b *Base) Properties() *MetadataTable { return b.properties }
