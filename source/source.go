// Package source implements the connector/source framework (spec §4.9):
// the Source contract, the queue-read-replay initialization algorithm,
// the bounded oldest-drop retry queue, and origin-token echo prevention.
// It is modeled on the teacher's engine init/reload sequence
// (engine/chain_engine.go's build-then-swap pattern) applied to Source
// (re)connection instead of rule-chain reload.
package source

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/bittoy/reactive/pathprovider"
	"github.com/bittoy/reactive/update"
)

// Origin is the identity-compared token attached to writes a Source
// applies inbound, so the local-change flow can recognize and drop the
// echo of its own write (spec §4.9: "must be compared by identity, not by
// name, to handle multiple sources with the same nominal name").
type Origin struct {
	id uuid.UUID
}

// NewOrigin mints a fresh Origin, grounded on gofrs/uuid/v5 the same way
// update.SubjectIDs mints subject identifiers.
func NewOrigin() Origin {
	return Origin{id: uuid.Must(uuid.NewV4())}
}

// Apply commits a Source's currently known state to the subject graph.
// Returned by LoadInitialState; invoked by the connector under the
// buffering lock.
type Apply func() error

// Subscription represents a live Start subscription. Unsubscribe stops
// delivery of further updates immediately.
type Subscription interface {
	Unsubscribe()
}

// Inbound is one update a Source delivers from the far side, destined for
// a property reached by Path (handed unchanged to the connector's
// InboundApplier).
type Inbound struct {
	Path  string
	Value any
}

// Outbound is one local change translated into the source's wire shape,
// ready for Source.Write.
type Outbound struct {
	Path   string
	Update update.SubjectPropertyUpdate
}

// Source is an opaque bidirectional mirror of a subset of the subject
// graph, identified by Name (spec §4.9).
type Source interface {
	Name() string

	// LoadInitialState returns an Apply closure that, when invoked,
	// applies the source's currently known state to the subject graph.
	LoadInitialState(ctx context.Context) (Apply, error)

	// Start begins receiving asynchronous updates from the far side.
	// onUpdate is called for every inbound batch, including any
	// received before or during LoadInitialState — the connector is
	// responsible for buffering those until initial state is applied.
	Start(ctx context.Context, onUpdate func([]Inbound)) (Subscription, error)

	// Write pushes a batch of local changes outward.
	Write(ctx context.Context, updates []Outbound) error
}

// PathResolving is implemented by a Source that needs the connector's
// PathProvider to translate local PropertyReferences to wire paths; most
// Sources receive one via their constructor instead, but a Source
// embedded in a larger config object may prefer this hook.
type PathResolving interface {
	SetPathProvider(pathprovider.PathProvider)
}
