package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "threaducate_posts", []doc{{Title: "a", Tags: []string{"x"}}}))

	var got []doc
	require.NoError(t, s.Get(ctx, "threaducate_posts", &got))
	assert.Equal(t, []doc{{Title: "a", Tags: []string{"x"}}}, got)

	require.NoError(t, s.Put(ctx, "threaducate_posts", []doc{}))
	require.NoError(t, s.Get(ctx, "threaducate_posts", &got))
	assert.Empty(t, got)
}

func TestStore_GetMissing(t *testing.T) {
	s := openTemp(t)

	var got doc
	assert.ErrorIs(t, s.Get(context.Background(), "missing", &got), ErrNotFound)
}

func TestStore_Keys(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	for _, k := range []string{"posts/2", "posts/1", "lists/1", "postsx"} {
		require.NoError(t, s.Put(ctx, k, doc{}))
	}

	keys, err := s.Keys(ctx, "posts/")
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/1", "posts/2"}, keys)

	all, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, s.Delete(ctx, "posts/1"))
	keys, err = s.Keys(ctx, "posts/")
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/2"}, keys)
}

func TestStore_UpdateRollsBack(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Put("a", doc{Title: "a"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var got doc
	assert.ErrorIs(t, s.Get(ctx, "a", &got), ErrNotFound)
}

func TestStore_UpdateCommits(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx *Tx) error {
		ok, err := tx.Exists("a")
		require.NoError(t, err)
		assert.False(t, ok)
		if err := tx.Put("a", doc{Title: "a"}); err != nil {
			return err
		}
		var d doc
		return tx.Get("a", &d)
	})
	require.NoError(t, err)

	var got doc
	require.NoError(t, s.Get(ctx, "a", &got))
	assert.Equal(t, "a", got.Title)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, "posts0", prefixEnd("posts/"))
	assert.Equal(t, "b", prefixEnd("a\xff"))
}
