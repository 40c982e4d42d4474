// Package store defines the versioned document store the catalog is
// built against: durable named documents, attributed commits, and a
// notification when the working copy is refreshed from outside.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Data layout inside the store root:
//
//	index.json                 derived index snapshot
//	users.json                 account directory
//	current/<000042>.json      event documents, zero-padded ids
//	centers/<id>.json          center documents, free-form ids
const (
	IndexFile  = "index.json"
	UsersFile  = "users.json"
	EventsDir  = "current"
	CentersDir = "centers"
)

// ErrNotFound reports an absent document. Callers translate it into
// their own not-found outcome.
var ErrNotFound = errors.New("store: document not found")

// Author attributes a commit.
type Author struct {
	Name  string
	Email string
}

// Store is the narrow contract the catalog depends on. Implementations
// must deliver pull notifications synchronously with respect to
// subsequent reads.
type Store interface {
	// GetText returns the raw text of the document at path, or
	// ErrNotFound.
	GetText(ctx context.Context, path string) (string, error)
	// SetJSON serializes value as pretty-printed JSON to path and
	// commits it with the given message and author.
	SetJSON(ctx context.Context, path string, value interface{}, message string, author Author) error
	// List returns the file names directly under dir, sorted.
	List(ctx context.Context, dir string) ([]string, error)
	// Subscribe registers a handler for working-copy refreshes.
	// isPull is true when new external history was pulled in.
	Subscribe(fn func(isPull bool))
}

// OperationObserver receives timing for store operations. Implemented
// by the metrics service; the store never depends on it being set.
type OperationObserver interface {
	ObserveStoreOperation(op string, success bool, duration time.Duration)
}

// EventPath returns the document path for an event id.
func EventPath(id int) string {
	return fmt.Sprintf("%s/%06d.json", EventsDir, id)
}

// CenterPath returns the document path for a center id.
func CenterPath(id string) string {
	return fmt.Sprintf("%s/%s.json", CentersDir, id)
}
