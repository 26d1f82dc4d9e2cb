package storage

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned when a blob does not exist.
var ErrNotFound = errors.New("blob not found")

// Storage is a blob store keyed by opaque strings. Attachment uploads mint
// a key with NewKey, write the blob, then record the key on the task.
type Storage interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns a fresh opaque storage key.
func NewKey() string {
	return ulid.Make().String()
}
