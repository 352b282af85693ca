package storage

import "context"

// ObjectStorage defines interface for sync root objects persistence.
// Keys and payloads are opaque for the storage; layout is defined by transport.
type ObjectStorage interface {
	// Get retrieves object by key
	// Returns models.ErrNotFound if object doesn't exist
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces object
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes object by key
	// Deleting a missing object is not an error
	Delete(ctx context.Context, key string) error

	// List returns keys with the given prefix in lexicographic order
	// Returns empty slice if no objects found
	List(ctx context.Context, prefix string) ([]string, error)
}
