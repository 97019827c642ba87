package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/terralite-io/terralite/internal/ir"
)

// ErrAddressNotFound is returned by Get for an address with no record.
var ErrAddressNotFound = errors.New("no state for address")

// Store is the durable, authoritative record of what the engine
// believes is provisioned. Writes are atomic per operation: a reader
// never observes a torn document.
type Store interface {
	// Get returns the record for an address, or ErrAddressNotFound.
	Get(ctx context.Context, addr string) (*ir.ResourceRecord, error)

	// Put atomically inserts or overwrites the record for an address.
	Put(ctx context.Context, addr string, rec *ir.ResourceRecord) error

	// Remove drops the record for an address. Removing an absent
	// address is not an error.
	Remove(ctx context.Context, addr string) error

	// List returns all records ordered by address.
	List(ctx context.Context) ([]*ir.ResourceRecord, error)

	// Snapshot returns a copy of the full state document.
	Snapshot(ctx context.Context) (*ir.State, error)

	// WriteSnapshot replaces the full document. The snapshot's serial
	// must match the stored document's serial or the write fails with
	// StateConflictError (optimistic concurrency).
	WriteSnapshot(ctx context.Context, s *ir.State) error

	// Lock takes an exclusive advisory lock for the duration of a run.
	Lock() error
	Unlock() error
}

// StateUnavailableError wraps a failure of the backing medium. The
// engine refuses to plan or apply against an unavailable store rather
// than guess at reality.
type StateUnavailableError struct {
	Op    string
	Cause error
}

func (e *StateUnavailableError) Error() string {
	return fmt.Sprintf("state store unavailable during %s: %v", e.Op, e.Cause)
}

func (e *StateUnavailableError) Unwrap() error { return e.Cause }

// StateConflictError reports a write with a stale generation counter.
type StateConflictError struct {
	Expected int // serial the writer loaded
	Found    int // serial currently stored
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("state conflict: write based on serial %d but store is at serial %d (concurrent writer?)", e.Expected, e.Found)
}
