// Package localstate is the client-side key/value storage the memory wall,
// session identities and likes are persisted in. It mirrors the semantics of
// browser local storage: string keys, string values, whole-value overwrite,
// and no coordination between processes sharing the same backing file.
package localstate

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the backing medium cannot be used.
var ErrUnavailable = errors.New("local storage unavailable")

// Storage is the injected store used by the client-side packages.
type Storage interface {
	// GetItem returns the value and whether the key exists.
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem is a no-op for missing keys.
	RemoveItem(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
