package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/presentation"
	"github.com/UkralStul/threaducate/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
// Наружу отдаются копии, чтобы вызывающий код не менял данные в обход мьютекса.
type Store struct {
	mu               sync.RWMutex
	posts            map[string]*domain.Post
	comments         map[string]*domain.Comment
	commentsByPost   map[string][]string             // map[postID][]commentID (все)
	commentsByParent map[string][]string             // map[parentID][]commentID
	likes            map[likeKey]map[string]struct{} // set[userID] по объекту
	profiles         map[string]*domain.Profile
	lists            map[string]*domain.List
	sessions         map[string]presentation.Snapshot
}

var _ storage.Storage = (*Store)(nil)

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		posts:            make(map[string]*domain.Post),
		comments:         make(map[string]*domain.Comment),
		commentsByPost:   make(map[string][]string),
		commentsByParent: make(map[string][]string),
		likes:            make(map[likeKey]map[string]struct{}),
		profiles:         make(map[string]*domain.Profile),
		lists:            make(map[string]*domain.List),
		sessions:         make(map[string]presentation.Snapshot),
	}
}

func (s *Store) Close() error { return nil }

func copyPost(p *domain.Post) *domain.Post {
	cp := *p
	cp.EmbedURLs = append([]string(nil), p.EmbedURLs...)
	return &cp
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if err := storage.ValidatePost(post); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyPost(post)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = stored.CreatedAt
	s.posts[stored.ID] = stored
	return copyPost(stored), nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, domain.NotFound("inmemory.GetPostByID", "post", id)
	}
	return copyPost(post), nil
}

func (s *Store) GetPosts(ctx context.Context) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allPosts := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		allPosts = append(allPosts, copyPost(p))
	}

	sort.Slice(allPosts, func(i, j int) bool {
		return allPosts[i].CreatedAt.After(allPosts[j].CreatedAt)
	})
	return allPosts, nil
}

func (s *Store) RecordView(ctx context.Context, postID string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, domain.NotFound("inmemory.RecordView", "post", postID)
	}
	post.ViewCount++
	return copyPost(post), nil
}

func (s *Store) SetPostLike(ctx context.Context, postID, userID string, liked bool) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, domain.NotFound("inmemory.SetPostLike", "post", postID)
	}
	post.LikeCount += s.toggleLike(likeKey{domain.LikePost, postID}, userID, liked)
	return copyPost(post), nil
}

type likeKey struct {
	kind domain.LikeTarget
	id   string
}

// toggleLike возвращает изменение счетчика: +1, -1 или 0 для повторного запроса.
func (s *Store) toggleLike(target likeKey, userID string, liked bool) int {
	users := s.likes[target]
	_, had := users[userID]
	switch {
	case liked && !had:
		if users == nil {
			users = make(map[string]struct{})
			s.likes[target] = users
		}
		users[userID] = struct{}{}
		return 1
	case !liked && had:
		delete(users, userID)
		return -1
	}
	return 0
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if err := storage.ValidateComment(comment); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Проверка поста
	post, ok := s.posts[comment.PostID]
	if !ok {
		return nil, domain.NotFound("inmemory.CreateComment", "post", comment.PostID)
	}
	if _, ok := s.comments[comment.ID]; ok {
		return nil, domain.IdentifierCollision("inmemory.CreateComment", comment.ID)
	}

	// Проверка родительского комментария
	if comment.ParentID != nil {
		parent, ok := s.comments[*comment.ParentID]
		if !ok || parent.PostID != comment.PostID {
			return nil, domain.TargetNotFound("inmemory.CreateComment", *comment.ParentID)
		}
	}

	stored := comment.Shallow()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	s.comments[stored.ID] = stored

	// Обновление индексов для иерархии
	s.commentsByPost[stored.PostID] = append(s.commentsByPost[stored.PostID], stored.ID)
	if stored.ParentID != nil {
		s.commentsByParent[*stored.ParentID] = append(s.commentsByParent[*stored.ParentID], stored.ID)
	}
	post.CommentCount++

	return stored.Shallow(), nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comment, ok := s.comments[id]
	if !ok {
		return nil, domain.NotFound("inmemory.GetCommentByID", "comment", id)
	}
	return comment.Shallow(), nil
}

func (s *Store) SetCommentLike(ctx context.Context, commentID, userID string, liked bool) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[commentID]
	if !ok {
		return nil, domain.NotFound("inmemory.SetCommentLike", "comment", commentID)
	}
	comment.LikeCount += s.toggleLike(likeKey{domain.LikeComment, commentID}, userID, liked)
	return comment.Shallow(), nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.commentsByPost[postID], func(*domain.Comment) bool { return true }), nil
}

func (s *Store) GetRootComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.commentsByPost[postID], func(c *domain.Comment) bool { return c.ParentID == nil }), nil
}

// collect - вспомогательная функция: копии по id, отсортированные по времени создания и id.
func (s *Store) collect(ids []string, keep func(*domain.Comment) bool) []*domain.Comment {
	out := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok && keep(c) {
			out = append(out, c.Shallow())
		}
	}
	storage.SortComments(out)
	return out
}

// === Dataloader Methods ===

func (s *Store) GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string][]*domain.Comment, len(parentIDs))
	for _, pID := range parentIDs {
		// Важно: Dataloader'у нужны отсортированные данные для консистентности
		results[pID] = s.collect(s.commentsByParent[pID], func(*domain.Comment) bool { return true })
	}
	return results, nil
}

// === Profile Methods ===

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *profile
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if existing, ok := s.profiles[cp.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.profiles[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.NotFound("inmemory.GetProfile", "profile", id)
	}
	out := *p
	return &out, nil
}

// === List Methods ===

func copyList(l *domain.List) *domain.List {
	cp := *l
	cp.Tags = append([]string(nil), l.Tags...)
	cp.Items = append([]domain.ListItem(nil), l.Items...)
	return &cp
}

func (s *Store) CreateList(ctx context.Context, list *domain.List) (*domain.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyList(list)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.lists[stored.ID] = stored
	return copyList(stored), nil
}

func (s *Store) GetLists(ctx context.Context) ([]*domain.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.List, 0, len(s.lists))
	for _, l := range s.lists {
		out = append(out, copyList(l))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetListByID(ctx context.Context, id string) (*domain.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lists[id]
	if !ok {
		return nil, domain.NotFound("inmemory.GetListByID", "list", id)
	}
	return copyList(l), nil
}

// === Session Methods ===

func (s *Store) LoadSession(ctx context.Context, sessionID string) (presentation.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.sessions[sessionID]
	if !ok {
		return presentation.Snapshot{}, domain.NotFound("inmemory.LoadSession", "session", sessionID)
	}
	return snap, nil
}

func (s *Store) SaveSession(ctx context.Context, sessionID string, snap presentation.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = snap
	return nil
}
