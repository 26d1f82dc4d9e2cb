package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := NewKey()
	require.NoError(t, store.Write(ctx, key, []byte("hello")))

	data, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// Overwrite replaces the blob.
	require.NoError(t, store.Write(ctx, key, []byte("replaced")))
	data, err = store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("replaced"), data)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Read(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_MissingBlob(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Read(ctx, "no-such-key")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(ctx, "no-such-key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_KeyCannotEscapeBase(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "../escape", []byte("contained")))

	// The blob lands inside the base directory regardless of the key shape.
	_, err = os.Stat(filepath.Join(base, "escape"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(base), "escape"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewKey_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key := NewKey()
		require.Len(t, key, 26)
		_, dup := seen[key]
		require.False(t, dup)
		seen[key] = struct{}{}
	}
}
