package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	_, err = store.Get(ctx, "seam_users")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Apply(ctx, Put("seam_users", []byte(`[]`)), Put("seam_events", []byte(`[{"id":"e_1"}]`))))

	got, err := store.Get(ctx, "seam_events")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"e_1"}]`, string(got))

	raw, err := os.ReadFile(store.Path("seam_users"))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))

	require.NoError(t, store.Apply(ctx, Del("seam_users"), Del("seam_missing")))
	_, err = store.Get(ctx, "seam_users")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(filepath.Dir(store.Path("seam_events")))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreRejectsInvalidKeyWithoutWriting(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = store.Apply(ctx, Put("seam_users", []byte(`[]`)), Put("../escape", []byte(`x`)))
	require.Error(t, err)

	_, err = store.Get(ctx, "seam_users")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(filepath.Dir(store.Path("seam_users")))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
