package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFileStore_NotFound verifies Get returns ErrNotFound for a missing key.
func TestFileStore_NotFound(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	value, err := store.Get(context.Background(), KeyLedger)
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, value)
}

// TestFileStore_SetGet_Roundtrip ensures Set followed by Get returns the same bytes.
func TestFileStore_SetGet_Roundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyContacts, []byte(`[{"id":"1"}]`)))
	require.NoError(t, store.Set(ctx, KeyContacts, []byte(`[]`)))

	got, err := store.Get(ctx, KeyContacts)
	require.NoError(t, err)
	require.Equal(t, `[]`, string(got))

	_, err = os.Stat(filepath.Join(dir, "contacts.json"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "contacts.json.tmp"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestFileStore_RejectsPathKeys keeps keys from escaping the data directory.
func TestFileStore_RejectsPathKeys(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.ErrorIs(t, store.Set(context.Background(), "../escape", nil), ErrInvalidKey)

	_, err = store.Get(context.Background(), "a/b")
	require.ErrorIs(t, err, ErrInvalidKey)
}

// TestMemoryStore_CopiesValues makes sure callers cannot mutate stored bytes.
func TestMemoryStore_CopiesValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, KeyLedger)
	require.ErrorIs(t, err, ErrNotFound)

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, KeyLedger, value))

	value[0] = 'x'

	got, err := store.Get(ctx, KeyLedger)
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}
