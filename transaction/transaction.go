// Package transaction implements the optional per-context serialization
// boundary from spec §6: at most one transaction is active on a Context at
// a time, writes staged through it are deferred until the transaction
// completes, and completion either commits them through the normal write
// pipeline or discards them.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/bittoy/reactive/icontext"
	"github.com/bittoy/reactive/ierrors"
	"github.com/bittoy/reactive/pipeline"
	"github.com/bittoy/reactive/subject"
)

// Mode selects what Close does when the transaction ends without an
// explicit Commit or Rollback call.
type Mode int

const (
	// RollbackMode discards staged writes on Close unless Commit ran.
	RollbackMode Mode = iota
	// CommitMode applies staged writes on Close unless Rollback ran.
	CommitMode
)

// ConflictBehavior selects what Commit does when a staged property was
// written by someone else between staging and commit.
type ConflictBehavior int

const (
	// FailOnConflict makes Commit fail with a ConflictError, applying
	// nothing, when any staged property's current value no longer matches
	// the value observed at staging time.
	FailOnConflict ConflictBehavior = iota
	// OverwriteOnConflict makes Commit apply every staged write
	// unconditionally.
	OverwriteOnConflict
)

// ErrClosed is returned by operations on a transaction that has already
// committed or rolled back.
var ErrClosed = errors.New("transaction: already completed")

// ConflictError reports the properties whose current values diverged from
// the values observed when they were staged. Nothing was applied.
type ConflictError struct {
	Properties []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("transaction: conflicting writes on %s", strings.Join(e.Properties, ", "))
}

// Per-context single-active-transaction gates. Entries are never removed:
// a later Begin must observe the same channel a still-running holder will
// release into, and contexts are long-lived application objects, not
// per-request values.
var (
	gatesMu sync.Mutex
	gates   = map[*icontext.Context]chan struct{}{}
)

func gateFor(c *icontext.Context) chan struct{} {
	gatesMu.Lock()
	defer gatesMu.Unlock()
	g, ok := gates[c]
	if !ok {
		g = make(chan struct{}, 1)
		gates[c] = g
	}
	return g
}

type stagedWrite struct {
	ref      subject.Reference
	conflict func() (bool, error)
	apply    func() error
}

// Tx is one active transaction on a Context. Writes are staged with the
// package-level Set and held back from the write pipeline until Commit;
// the pipeline (validators, change events, graph maintenance) therefore
// observes them at commit time, in staging order.
//
// Conflict detection is advisory: writes issued outside any transaction
// are not blocked, they are merely detected at Commit under
// FailOnConflict. The serialization guarantee is only against other
// transactions on the same Context.
type Tx struct {
	mode     Mode
	behavior ConflictBehavior
	gate     chan struct{}

	mu     sync.Mutex
	staged []*stagedWrite
	byRef  map[subject.Reference]int
	done   bool
}

// Begin opens a transaction on c, waiting until no other transaction is
// active on it (spec §6: "at most one transaction active on a context at a
// time (await otherwise)"). A cancelled ctx while waiting returns
// Cancelled.
func Begin(ctx context.Context, c *icontext.Context, mode Mode, behavior ConflictBehavior) (*Tx, error) {
	gate := gateFor(c)
	select {
	case gate <- struct{}{}:
	case <-ctx.Done():
		return nil, ierrors.NewCancelled("transaction.Begin")
	}
	return &Tx{
		mode:     mode,
		behavior: behavior,
		gate:     gate,
		byRef:    map[subject.Reference]int{},
	}, nil
}

// Set stages a write of value to p. The property's current value is read
// once, through the read pipeline, as the base for conflict detection.
// Staging the same property again replaces the pending value but keeps
// the base observed by the first staging.
func Set[T any](tx *Tx, p *pipeline.Property[T], value T) error {
	base, err := p.Get()
	if err != nil {
		return err
	}
	ref := p.Reference()

	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return ErrClosed
	}
	if i, ok := tx.byRef[ref]; ok {
		tx.staged[i].apply = func() error { return p.Set(value) }
		return nil
	}
	tx.byRef[ref] = len(tx.staged)
	tx.staged = append(tx.staged, &stagedWrite{
		ref: ref,
		conflict: func() (bool, error) {
			cur, err := p.Get()
			if err != nil {
				return false, err
			}
			return !reflect.DeepEqual(cur, base), nil
		},
		apply: func() error { return p.Set(value) },
	})
	return nil
}

// Pending returns the number of distinct properties currently staged.
func (tx *Tx) Pending() int {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return len(tx.staged)
}

// Commit applies every staged write through the normal write pipeline, in
// staging order, and releases the context's transaction slot. Under
// FailOnConflict, every staged property is checked first and a
// ConflictError applies nothing. An error from an individual write (a
// validator rejection, say) stops the apply loop; earlier writes in the
// same transaction stay committed, matching the spec's per-write
// atomicity rather than inventing cross-write undo.
func (tx *Tx) Commit() error {
	tx.mu.Lock()
	if tx.done {
		tx.mu.Unlock()
		return ErrClosed
	}
	staged := tx.staged
	tx.staged = nil
	tx.done = true
	tx.mu.Unlock()
	defer tx.release()

	if tx.behavior == FailOnConflict {
		var conflicts []string
		for _, sw := range staged {
			hit, err := sw.conflict()
			if err != nil {
				return err
			}
			if hit {
				conflicts = append(conflicts, sw.ref.Name)
			}
		}
		if len(conflicts) > 0 {
			return &ConflictError{Properties: conflicts}
		}
	}
	for _, sw := range staged {
		if err := sw.apply(); err != nil {
			return err
		}
	}
	return nil
}

// Rollback discards every staged write and releases the context's
// transaction slot. Safe to call after Commit (it is then a no-op).
func (tx *Tx) Rollback() {
	tx.mu.Lock()
	if tx.done {
		tx.mu.Unlock()
		return
	}
	tx.staged = nil
	tx.done = true
	tx.mu.Unlock()
	tx.release()
}

// Close ends the transaction with its Mode's default outcome if neither
// Commit nor Rollback ran: CommitMode commits, RollbackMode rolls back.
func (tx *Tx) Close() error {
	tx.mu.Lock()
	done := tx.done
	tx.mu.Unlock()
	if done {
		return nil
	}
	if tx.mode == CommitMode {
		return tx.Commit()
	}
	tx.Rollback()
	return nil
}

func (tx *Tx) release() { <-tx.gate }
