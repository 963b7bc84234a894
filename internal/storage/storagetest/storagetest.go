// Package storagetest содержит общий набор тестов для реализаций storage.Storage.
package storagetest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/presentation"
	"github.com/UkralStul/threaducate/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory создает пустое хранилище для одного теста.
type Factory func(t *testing.T) storage.Storage

// Run прогоняет все проверки контракта.
func Run(t *testing.T, newStore Factory) {
	tests := map[string]func(*testing.T, Factory){
		"CreateAndGetPost":     testCreateAndGetPost,
		"PostValidation":       testPostValidation,
		"PostsNewestFirst":     testPostsNewestFirst,
		"RecordView":           testRecordView,
		"PostLikes":            testPostLikes,
		"CreateComment":        testCreateComment,
		"CommentEmptyContent":  testCommentEmptyContent,
		"CommentTooLong":       testCommentTooLong,
		"CommentUnknownPost":   testCommentUnknownPost,
		"CommentUnknownParent": testCommentUnknownParent,
		"CommentDuplicateID":   testCommentDuplicateID,
		"NestedComment":        testNestedComment,
		"CommentsByParentIDs":  testCommentsByParentIDs,
		"SameTimestampOrder":   testSameTimestampOrder,
		"CommentLikes":         testCommentLikes,
		"LikesPerTargetKind":   testLikesPerTargetKind,
		"Profiles":             testProfiles,
		"Lists":                testLists,
		"Sessions":             testSessions,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) { fn(t, newStore) })
	}
}

// newTestStore создает хранилище и один пост для тестов
func newTestStore(t *testing.T, newStore Factory) (storage.Storage, *domain.Post) {
	store := newStore(t)
	post, err := store.CreatePost(context.Background(), &domain.Post{
		Title:    "Test Post",
		Content:  "Content",
		AuthorID: "user-1",
	})
	require.NoError(t, err)
	return store, post
}

var (
	seq   int
	epoch = time.Date(2025, 7, 28, 11, 0, 0, 0, time.UTC)
)

func comment(postID string, parentID *string, content string) *domain.Comment {
	seq++
	return &domain.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		ParentID:  parentID,
		AuthorID:  "user-2",
		Content:   content,
		CreatedAt: epoch.Add(time.Duration(seq) * time.Second),
	}
}

func testCreateAndGetPost(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	ctx := context.Background()

	assert.NotEmpty(t, post.ID)
	retrieved, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, retrieved.Title)

	_, err = store.GetPostByID(ctx, "non-existent-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testPostValidation(t *testing.T, newStore Factory) {
	store := newStore(t)
	_, err := store.CreatePost(context.Background(), &domain.Post{Title: " ", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func testPostsNewestFirst(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 7, 27, 15, 30, 0, 0, time.UTC)

	_, err := store.CreatePost(ctx, &domain.Post{Title: "old", Content: "x", CreatedAt: base})
	require.NoError(t, err)
	_, err = store.CreatePost(ctx, &domain.Post{Title: "new", Content: "x", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	posts, err := store.GetPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "new", posts[0].Title)
}

func testRecordView(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	ctx := context.Background()

	_, err := store.RecordView(ctx, post.ID)
	require.NoError(t, err)
	viewed, err := store.RecordView(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, viewed.ViewCount)
}

func testPostLikes(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	ctx := context.Background()

	p, err := store.SetPostLike(ctx, post.ID, "user-2", true)
	require.NoError(t, err)
	assert.Equal(t, 1, p.LikeCount)

	// повторный лайк ничего не меняет
	p, err = store.SetPostLike(ctx, post.ID, "user-2", true)
	require.NoError(t, err)
	assert.Equal(t, 1, p.LikeCount)

	p, err = store.SetPostLike(ctx, post.ID, "user-2", false)
	require.NoError(t, err)
	assert.Equal(t, 0, p.LikeCount)

	p, err = store.SetPostLike(ctx, post.ID, "user-2", false)
	require.NoError(t, err)
	assert.Equal(t, 0, p.LikeCount, "like count never goes negative")
}

func testCreateComment(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	ctx := context.Background()

	created, err := store.CreateComment(ctx, comment(post.ID, nil, "First comment!"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	comments, err := store.GetRootComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "First comment!", comments[0].Content)

	p, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CommentCount)
}

func testCommentEmptyContent(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)

	_, err := store.CreateComment(context.Background(), comment(post.ID, nil, "  "))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "comment content cannot be empty")
}

func testCommentTooLong(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)

	_, err := store.CreateComment(context.Background(), comment(post.ID, nil, strings.Repeat("a", storage.MaxCommentLength+1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comment content is too long")
}

func testCommentUnknownPost(t *testing.T, newStore Factory) {
	store := newStore(t)

	_, err := store.CreateComment(context.Background(), comment("missing", nil, "hello"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testCommentUnknownParent(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	parent := "missing"

	_, err := store.CreateComment(context.Background(), comment(post.ID, &parent, "hello"))
	assert.ErrorIs(t, err, domain.ErrTargetNotFound)
}

func testCommentDuplicateID(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	ctx := context.Background()

	c := comment(post.ID, nil, "once")
	_, err := store.CreateComment(ctx, c)
	require.NoError(t, err)
	_, err = store.CreateComment(ctx, c)
	assert.ErrorIs(t, err, domain.ErrIdentifierCollision)
}

func testNestedComment(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	ctx := context.Background()

	parentComment, err := store.CreateComment(ctx, comment(post.ID, nil, "Parent"))
	require.NoError(t, err)
	childComment, err := store.CreateComment(ctx, comment(post.ID, &parentComment.ID, "Child"))
	require.NoError(t, err)

	// Проверяем, что дочерний коммент не в корне поста
	rootComments, err := store.GetRootComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, rootComments, 1)
	assert.Equal(t, parentComment.ID, rootComments[0].ID)

	all, err := store.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, parentComment.ID, all[0].ID)
	assert.Equal(t, childComment.ID, all[1].ID)
	require.NotNil(t, all[1].ParentID)
	assert.Equal(t, parentComment.ID, *all[1].ParentID)
}

func testCommentsByParentIDs(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	ctx := context.Background()

	a, err := store.CreateComment(ctx, comment(post.ID, nil, "a"))
	require.NoError(t, err)
	b, err := store.CreateComment(ctx, comment(post.ID, nil, "b"))
	require.NoError(t, err)
	a1, err := store.CreateComment(ctx, comment(post.ID, &a.ID, "a1"))
	require.NoError(t, err)
	a2, err := store.CreateComment(ctx, comment(post.ID, &a.ID, "a2"))
	require.NoError(t, err)

	got, err := store.GetCommentsByParentIDs(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, got[a.ID], 2)
	assert.Equal(t, a1.ID, got[a.ID][0].ID)
	assert.Equal(t, a2.ID, got[a.ID][1].ID)
	assert.Empty(t, got[b.ID])
}

func testCommentLikes(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	ctx := context.Background()

	c, err := store.CreateComment(ctx, comment(post.ID, nil, "like me"))
	require.NoError(t, err)

	liked, err := store.SetCommentLike(ctx, c.ID, "user-3", true)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)

	unliked, err := store.SetCommentLike(ctx, c.ID, "user-3", false)
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.LikeCount)

	_, err = store.SetCommentLike(ctx, "missing", "user-3", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Комментарии с одинаковым временем создания идут по id, в любом порядке вставки.
func testSameTimestampOrder(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	ctx := context.Background()

	parent, err := store.CreateComment(ctx, comment(post.ID, nil, "parent"))
	require.NoError(t, err)

	at := parent.CreatedAt.Add(time.Minute)
	for _, id := range []string{"c-2", "c-3", "c-1"} {
		c := comment(post.ID, &parent.ID, id)
		c.ID = id
		c.CreatedAt = at
		_, err := store.CreateComment(ctx, c)
		require.NoError(t, err)
	}

	want := []string{parent.ID, "c-1", "c-2", "c-3"}
	for range 3 {
		all, err := store.GetCommentsByPostID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, want, commentIDs(all))

		byParent, err := store.GetCommentsByParentIDs(ctx, []string{parent.ID})
		require.NoError(t, err)
		assert.Equal(t, want[1:], commentIDs(byParent[parent.ID]))
	}
}

func commentIDs(cs []*domain.Comment) []string {
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	return ids
}

// Пост и комментарий с одинаковым id учитывают отметки раздельно.
func testLikesPerTargetKind(t *testing.T, newStore Factory) {
	store, post := newTestStore(t, newStore)
	ctx := context.Background()

	c := comment(post.ID, nil, "same id as the post")
	c.ID = post.ID
	_, err := store.CreateComment(ctx, c)
	require.NoError(t, err)

	p, err := store.SetPostLike(ctx, post.ID, "user-3", true)
	require.NoError(t, err)
	assert.Equal(t, 1, p.LikeCount)

	liked, err := store.SetCommentLike(ctx, c.ID, "user-3", true)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount, "post like does not count for the comment")

	unliked, err := store.SetCommentLike(ctx, c.ID, "user-3", false)
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.LikeCount)

	p, err = store.SetPostLike(ctx, post.ID, "user-3", false)
	require.NoError(t, err)
	assert.Equal(t, 0, p.LikeCount, "post like survives unliking the comment")
}

func testProfiles(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	p, err := store.UpsertProfile(ctx, &domain.Profile{ID: "3", Username: "current_user", DisplayName: "You"})
	require.NoError(t, err)
	assert.False(t, p.CreatedAt.IsZero())

	_, err = store.UpsertProfile(ctx, &domain.Profile{ID: "3", Username: "current_user", DisplayName: "Me"})
	require.NoError(t, err)

	got, err := store.GetProfile(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Me", got.DisplayName)

	_, err = store.GetProfile(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testLists(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	created, err := store.CreateList(ctx, &domain.List{
		Title: "React Best Practices 2025",
		Tags:  []string{"react", "frontend"},
		Items: []domain.ListItem{{ID: "i1", Title: "Hooks", URL: "https://react.dev", Kind: domain.ResourceArticle}},
	})
	require.NoError(t, err)

	got, err := store.GetListByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"react", "frontend"}, got.Tags)
	assert.Equal(t, 1, got.ItemCount())

	all, err := store.GetLists(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = store.GetListByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testSessions(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.LoadSession(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	target := "c-3"
	snap := presentation.Snapshot{Version: presentation.SnapshotVersion, Collapsed: []string{"c-1"}, ReplyTarget: &target}
	require.NoError(t, store.SaveSession(ctx, "s1", snap))

	got, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}
