package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// MemoryAdapter is an in-process Adapter used by tests and the seed command.
// It round-trips the document through JSON so callers never share memory
// with the stored copy, matching the real backends.
type MemoryAdapter struct {
	mu  sync.Mutex
	doc *Document
}

// NewMemoryAdapter returns an empty in-memory store.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{}
}

// Load implements Adapter.
func (a *MemoryAdapter) Load(ctx context.Context) (*Document, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.doc == nil {
		a.doc = emptyDocument()
	}
	return cloneDocument(a.doc)
}

// TrySave implements Adapter.
func (a *MemoryAdapter) TrySave(ctx context.Context, version int, users []models.User, data models.AppData) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.doc == nil {
		a.doc = emptyDocument()
	}
	if a.doc.Version != version {
		return false, nil
	}
	next, err := cloneDocument(&Document{Version: version + 1, Users: users, Data: data})
	if err != nil {
		return false, err
	}
	a.doc = next
	return true, nil
}

// Close implements Adapter.
func (a *MemoryAdapter) Close() error {
	return nil
}

func cloneDocument(doc *Document) (*Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
