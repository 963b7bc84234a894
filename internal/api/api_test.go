package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/events"
	"github.com/UkralStul/threaducate/internal/presentation"
	"github.com/UkralStul/threaducate/internal/service"
	"github.com/UkralStul/threaducate/internal/storage/inmemory"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testServer struct {
	t      *testing.T
	router http.Handler
	svc    *service.Service
}

func newTestServer(t *testing.T) *testServer {
	store := inmemory.New()
	log := zaptest.NewLogger(t)
	svc := service.New(store, events.NewCommentObserver(), log)
	return &testServer{
		t:      t,
		router: NewRouter(svc, store, log, Options{DefaultUserID: "3", PingInterval: time.Second}),
		svc:    svc,
	}
}

func (s *testServer) do(method, path string, body any, out any) int {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func (s *testServer) createPost() *domain.Post {
	var post domain.Post
	code := s.do(http.MethodPost, "/posts", map[string]any{"title": "Hello", "content": "# body"}, &post)
	require.Equal(s.t, http.StatusCreated, code)
	return &post
}

func (s *testServer) comment(postID string, parent *string) *domain.Comment {
	var resp createCommentResponse
	code := s.do(http.MethodPost, "/posts/"+postID+"/comments",
		map[string]any{"content": "text", "parent_id": parent}, &resp)
	require.Equal(s.t, http.StatusCreated, code)
	return resp.Comment
}

func TestPosts_CreateGetList(t *testing.T) {
	s := newTestServer(t)
	post := s.createPost()
	assert.Equal(t, "3", post.AuthorID)

	var got domain.Post
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/posts/"+post.ID, nil, &got))
	assert.Equal(t, 1, got.ViewCount)

	var all []domain.Post
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/posts", nil, &all))
	assert.Len(t, all, 1)

	var errResp errorResponse
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/posts/missing", nil, &errResp))
	assert.Equal(t, "not_found", errResp.Kind)
}

func TestPosts_Like(t *testing.T) {
	s := newTestServer(t)
	post := s.createPost()

	var got domain.Post
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/posts/"+post.ID+"/like", nil, &got))
	assert.Equal(t, 1, got.LikeCount)
	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/posts/"+post.ID+"/like", nil, &got))
	assert.Equal(t, 0, got.LikeCount)
}

func TestComments_Tree(t *testing.T) {
	s := newTestServer(t)
	post := s.createPost()

	first := s.comment(post.ID, nil)
	reply := s.comment(post.ID, &first.ID)
	s.comment(post.ID, &reply.ID)
	second := s.comment(post.ID, nil)

	var resp threadResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/posts/"+post.ID+"/comments", nil, &resp))
	require.Len(t, resp.Comments, 2)
	assert.Equal(t, second.ID, resp.Comments[0].ID, "newest root first")
	require.Len(t, resp.Comments[1].Children, 1)
	assert.Equal(t, reply.ID, resp.Comments[1].Children[0].ID)
	assert.Len(t, resp.Comments[1].Children[0].Children, 1)
	assert.Equal(t, 4, resp.Post.CommentCount)
}

func TestComments_Errors(t *testing.T) {
	s := newTestServer(t)
	post := s.createPost()

	var errResp errorResponse
	code := s.do(http.MethodPost, "/posts/"+post.ID+"/comments", map[string]any{"content": "   "}, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", errResp.Kind)

	code = s.do(http.MethodPost, "/posts/"+post.ID+"/comments", map[string]any{"content": "hi", "parent_id": "99"}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "target_not_found", errResp.Kind)

	req := httptest.NewRequest(http.MethodPost, "/posts/"+post.ID+"/comments", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessions_ThreadView(t *testing.T) {
	s := newTestServer(t)
	post := s.createPost()
	root := s.comment(post.ID, nil)
	s.comment(post.ID, &root.ID)

	var snap presentation.Snapshot
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/sessions/s1/toggle/"+root.ID, nil, &snap))
	assert.Equal(t, []string{root.ID}, snap.Collapsed)

	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/sessions/s1/reply-target", map[string]any{"comment_id": root.ID}, &snap))
	require.NotNil(t, snap.ReplyTarget)

	var view struct {
		Rows []struct {
			Comment    domain.Comment `json:"comment"`
			Expanded   bool           `json:"expanded"`
			ReplyCount int            `json:"reply_count"`
			Replying   bool           `json:"replying"`
		} `json:"rows"`
		ReplyingTo *string `json:"replying_to"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/posts/"+post.ID+"/thread?session=s1", nil, &view))
	require.Len(t, view.Rows, 1)
	assert.False(t, view.Rows[0].Expanded)
	assert.Equal(t, 1, view.Rows[0].ReplyCount)
	assert.True(t, view.Rows[0].Replying)
	require.NotNil(t, view.ReplyingTo)

	// ответ через сессию уходит в цель и сбрасывает ее
	var created createCommentResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/posts/"+post.ID+"/comments",
		map[string]any{"content": "via session", "session_id": "s1"}, &created))
	require.NotNil(t, created.Comment.ParentID)
	assert.Equal(t, root.ID, *created.Comment.ParentID)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/sessions/s1", nil, &snap))
	assert.Nil(t, snap.ReplyTarget)
}

func TestLists(t *testing.T) {
	s := newTestServer(t)

	var created domain.List
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/lists", map[string]any{
		"title": "React Best Practices 2025",
		"tags":  []string{"react"},
		"items": []map[string]string{{"title": "Docs", "url": "https://react.dev", "kind": "article"}},
	}, &created))
	assert.Equal(t, "3", created.AuthorID)

	var got domain.List
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/lists/"+created.ID, nil, &got))
	assert.Equal(t, 1, got.ItemCount())

	var all []domain.List
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/lists", nil, &all))
	assert.Len(t, all, 1)
}

func TestCommentStream(t *testing.T) {
	s := newTestServer(t)
	post := s.createPost()

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/posts/" + post.ID + "/comments/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// подписка появляется после апгрейда; ждем ее
	require.Eventually(t, func() bool { return s.svc.Observer().Subscribers(post.ID) == 1 },
		time.Second, 10*time.Millisecond)

	_, _, err = s.svc.SubmitComment(context.Background(), post.ID, "3", service.CommentInput{Content: "live"})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var c domain.Comment
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, "live", c.Content)
}

func TestCommentStream_UnknownPost(t *testing.T) {
	s := newTestServer(t)
	var errResp errorResponse
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/posts/missing/comments/ws", nil, &errResp))
}
