// Package meta is the small key/value metadata table of the local store.
// It carries the per-owner pull cursor, the cached session record, the
// paused flag and the persisted sync metrics.
package meta

import "context"

// Repository is the raw key/value surface. Typed helpers over the well-known
// keys live in keys.go.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
