package store

import (
	"context"
	"fmt"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// maxAttempts bounds the load-mutate-save loop. Exhausting it surfaces as
// ErrStateConflict.
const maxAttempts = 6

// Outcome is what a mutation handler returns. NoWrite short-circuits the
// save, so validation and permission failures never touch the store.
type Outcome[T any] struct {
	NoWrite bool
	Result  T
}

// ReadOnly marks an outcome that must not be written.
func ReadOnly[T any](result T) (Outcome[T], error) {
	return Outcome[T]{NoWrite: true, Result: result}, nil
}

// Write marks an outcome whose document mutations should be committed.
func Write[T any](result T) (Outcome[T], error) {
	return Outcome[T]{Result: result}, nil
}

// Mutator wraps an Adapter with the optimistic-transaction retry loop.
// Handlers must be side-effect-free apart from mutating the passed document:
// a lost CAS race re-executes them against a fresh load.
type Mutator struct {
	adapter Adapter
	// OnConflict is invoked once per lost CAS attempt; wired to metrics.
	OnConflict func()
}

// NewMutator creates a mutator over the given adapter.
func NewMutator(adapter Adapter) *Mutator {
	return &Mutator{adapter: adapter}
}

// Adapter exposes the underlying adapter for read-only callers.
func (m *Mutator) Adapter() Adapter {
	return m.adapter
}

// Snapshot loads and normalizes the current document without any write
// hazard. Read-only handlers use this directly.
func (m *Mutator) Snapshot(ctx context.Context) (*Document, error) {
	doc, err := m.adapter.Load(ctx)
	if err != nil {
		return nil, err
	}
	normalizeDocument(doc)
	return doc, nil
}

// Mutate runs fn inside the retrying read-modify-write transaction: load the
// versioned document, normalize it, let fn mutate it, then attempt the CAS
// save. A failed CAS repeats the whole cycle from a fresh load, so exactly
// one commit happens per logical mutation.
func Mutate[T any](ctx context.Context, m *Mutator, fn func(doc *Document) (Outcome[T], error)) (T, error) {
	var zero T
	for attempt := 0; attempt < maxAttempts; attempt++ {
		doc, err := m.adapter.Load(ctx)
		if err != nil {
			return zero, err
		}
		normalizeDocument(doc)

		outcome, err := fn(doc)
		if err != nil {
			return zero, err
		}
		if outcome.NoWrite {
			return outcome.Result, nil
		}

		committed, err := m.adapter.TrySave(ctx, doc.Version, doc.Users, doc.Data)
		if err != nil {
			return zero, fmt.Errorf("failed to commit state: %w", err)
		}
		if committed {
			return outcome.Result, nil
		}
		if m.OnConflict != nil {
			m.OnConflict()
		}
	}
	return zero, ErrStateConflict
}

func normalizeDocument(doc *Document) {
	doc.Users = models.NormalizeUsers(doc.Users)
	doc.Data = models.NormalizeAppData(doc.Data)
}
