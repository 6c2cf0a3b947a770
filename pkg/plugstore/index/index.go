// Package index provides persistent storage of plugin references: the
// stable record of which artifacts are present in the local cache.
package index

import "errors"

// Reference identifies one cached plugin artifact.
type Reference struct {
	// Key is the stable plugin key.
	Key string
	// Hash is the opaque content hash identifying the artifact.
	Hash string
	// Filename is the artifact's file name inside the cache.
	Filename string
}

// Store persists plugin references.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores a reference, overwriting any existing record for the key.
	Put(ref Reference) error

	// Get retrieves the reference for a key.
	// Returns ErrNotFound if no record exists.
	Get(key string) (Reference, error)

	// List returns all references ordered by key.
	// Returns an empty slice (not an error) if the index is empty.
	List() ([]Reference, error)

	// Delete removes the reference for a key.
	// Returns nil if no record exists.
	Delete(key string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for index operations.
var (
	// ErrNotFound indicates no reference exists for the key.
	ErrNotFound = errors.New("plugin reference not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("index store closed")
)
