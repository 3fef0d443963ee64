// Package draft keeps a trainee's unsubmitted answers on the device so a
// reload or crash does not lose work mid-exam.
package draft

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when no draft exists under a key.
var ErrNotFound = errors.New("draft not found")

// Store persists opaque draft blobs by key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
