// Package kv defines the string key-value medium drafts are persisted to,
// plus an in-memory implementation. Redis, database and object storage
// implementations live in their own packages.
package kv

import "context"

// Store is a string key-value medium. Get reports absence with ok=false and a
// nil error; errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys returns every key currently held. Order is unspecified.
	Keys(ctx context.Context) ([]string, error)
}
