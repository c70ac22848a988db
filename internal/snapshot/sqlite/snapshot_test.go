package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-sod/kd/internal/snapshot"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), &Config{FileName: filepath.Join(t.TempDir(), "kd.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	_, _, err := s.Load(ctx, "cities")
	require.ErrorIs(t, err, snapshot.ErrNotFound)

	meta := snapshot.New("cities", 2, 3)
	saved, err := s.Save(ctx, meta, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, 4, saved.Size)

	blob, got, err := s.Load(ctx, "cities")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, blob)
	require.Equal(t, meta.ID, got.ID)
	require.Equal(t, "cities", got.Name)
	require.Equal(t, 2, got.Dimension)
	require.Equal(t, 3, got.Len)
	require.True(t, meta.CreatedAt.Equal(got.CreatedAt), "created at: %v != %v", meta.CreatedAt, got.CreatedAt)
}

func TestStore_Replace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Save(ctx, snapshot.New("cities", 2, 3), []byte{1})
	require.NoError(t, err)
	second := snapshot.New("cities", 3, 5)
	_, err = s.Save(ctx, second, []byte{2, 2})
	require.NoError(t, err)

	blob, got, err := s.Load(ctx, "cities")
	require.NoError(t, err)
	require.Equal(t, []byte{2, 2}, blob)
	require.Equal(t, second.ID, got.ID)
	require.Equal(t, 5, got.Len)
}

func TestStore_NamesDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	names, err := s.Names(ctx)
	require.NoError(t, err)
	require.Empty(t, names)

	for _, name := range []string{"roads", "cities"} {
		_, err := s.Save(ctx, snapshot.New(name, 2, 1), []byte{0})
		require.NoError(t, err)
	}
	names, err = s.Names(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"cities", "roads"}, names)

	require.NoError(t, s.Delete(ctx, "cities"))
	require.NoError(t, s.Delete(ctx, "cities"))
	_, _, err = s.Load(ctx, "cities")
	require.ErrorIs(t, err, snapshot.ErrNotFound)
}
