// Package remote wraps the remote object store: raw blob primitives behind
// the ObjectStore interface, and the Accessor that reads and writes the
// per-owner master index and per-record metadata objects on top of them.
package remote

import "context"

// ObjectStore is the blob-level contract the engine needs from the remote
// store. Implementations must return common.ErrNotFound (possibly wrapped)
// from Get when the key does not exist; any other failure is treated as
// unreachable, not absent.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error

	// List returns the keys under prefix, in unspecified order.
	List(ctx context.Context, prefix string) ([]string, error)
}
