package seed

import (
	"context"
	"testing"

	"github.com/UkralStul/threaducate/internal/commenttree"
	"github.com/UkralStul/threaducate/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFill(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()

	res, err := Fill(ctx, store, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, Result{Profiles: 5, Posts: 2, Comments: 3, Lists: 2}, res)

	post, err := store.GetPostByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 3, post.CommentCount)

	flat, err := store.GetCommentsByPostID(ctx, "1")
	require.NoError(t, err)
	tree, err := commenttree.Build(flat)
	require.NoError(t, err)

	forest := tree.Forest()
	require.Len(t, forest, 2)
	assert.Equal(t, "2", forest[0].ID, "newest root first")
	assert.Equal(t, "1", forest[1].ID)
	require.Len(t, forest[1].Children, 1)
	assert.Equal(t, "3", forest[1].Children[0].ID)

	l, err := store.GetListByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "React Best Practices 2025", l.Title)
}

func TestFill_SkipsNonEmpty(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()
	log := zaptest.NewLogger(t)

	_, err := Fill(ctx, store, log)
	require.NoError(t, err)

	res, err := Fill(ctx, store, log)
	require.NoError(t, err)
	assert.Zero(t, res)

	posts, err := store.GetPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestFill_LikesOnSameIDs(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()
	_, err := Fill(ctx, store, zaptest.NewLogger(t))
	require.NoError(t, err)

	// пост "1" и комментарий "1" существуют одновременно
	post, err := store.SetPostLike(ctx, "1", CurrentUserID, true)
	require.NoError(t, err)
	assert.Equal(t, 24, post.LikeCount)

	c, err := store.SetCommentLike(ctx, "1", CurrentUserID, true)
	require.NoError(t, err)
	assert.Equal(t, 6, c.LikeCount)

	c, err = store.SetCommentLike(ctx, "1", CurrentUserID, false)
	require.NoError(t, err)
	assert.Equal(t, 5, c.LikeCount)

	post, err = store.SetPostLike(ctx, "1", CurrentUserID, false)
	require.NoError(t, err)
	assert.Equal(t, 23, post.LikeCount)
}
