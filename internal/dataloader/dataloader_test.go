package dataloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore считает батч-запросы ответов.
type countingStore struct {
	*inmemory.Store
	batches int
}

func (s *countingStore) GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	s.batches++
	return s.Store.GetCommentsByParentIDs(ctx, parentIDs)
}

func seedThread(t *testing.T, store *inmemory.Store) string {
	ctx := context.Background()
	post, err := store.CreatePost(ctx, &domain.Post{Title: "t", Content: "c"})
	require.NoError(t, err)

	at := time.Date(2025, 7, 28, 11, 0, 0, 0, time.UTC)
	add := func(id string, parent *string) {
		at = at.Add(time.Minute)
		_, err := store.CreateComment(ctx, &domain.Comment{ID: id, PostID: post.ID, ParentID: parent, Content: id, CreatedAt: at})
		require.NoError(t, err)
	}
	one, three := "1", "3"
	add("1", nil)
	add("2", nil)
	add("3", &one)
	add("4", &one)
	add("5", &three)
	return post.ID
}

func TestThread_LoadsLevelByLevel(t *testing.T) {
	store := &countingStore{Store: inmemory.New()}
	postID := seedThread(t, store.Store)

	flat, err := NewLoaders(store).Thread(context.Background(), store, postID)
	require.NoError(t, err)

	var ids []string
	for _, c := range flat {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids)
	// уровни: ответы на корни, ответы на ответы, пустой третий уровень
	assert.Equal(t, 3, store.batches)
}

func TestChildren_MissingParentIsEmpty(t *testing.T) {
	store := inmemory.New()
	got, err := NewLoaders(store).Children(context.Background(), []string{"nope"})
	require.NoError(t, err)
	assert.Empty(t, got["nope"])
}

func TestMiddleware_InjectsLoaders(t *testing.T) {
	var seen *Loaders
	h := Middleware(inmemory.New(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = For(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotNil(t, seen)
	assert.Nil(t, For(context.Background()))
}
