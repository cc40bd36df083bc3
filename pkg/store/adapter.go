package store

import (
	"context"
	"errors"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// Document is the whole workspace state: one versioned row, read and
// conditionally rewritten atomically. Version is the optimistic-concurrency
// token.
type Document struct {
	Version int            `json:"version"`
	Users   []models.User  `json:"users"`
	Data    models.AppData `json:"data"`
}

// Adapter loads and conditionally saves the state document. TrySave must
// return (false, nil) when the stored version no longer matches the version
// passed in; that compare-and-swap is the sole concurrency primitive.
type Adapter interface {
	// Load returns the current document, lazily initializing the backing
	// row with an empty default on first ever access.
	Load(ctx context.Context) (*Document, error)
	// TrySave commits users+data only if the stored version still equals
	// version, bumping it by one on success.
	TrySave(ctx context.Context, version int, users []models.User, data models.AppData) (bool, error)
	Close() error
}

// ErrStateConflict is returned when a mutation loses the CAS race more times
// than the retry bound allows.
var ErrStateConflict = errors.New("state update conflict: retries exhausted")

// emptyDocument is what a backend stores on first ever access: version 0,
// nothing in it. Owner repair happens in memory at normalize-on-load, so a
// fresh store still accepts a seed written against version 0.
func emptyDocument() *Document {
	return &Document{
		Version: 0,
		Users:   []models.User{},
		Data:    models.AppData{},
	}
}
