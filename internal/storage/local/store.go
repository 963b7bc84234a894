// Package local реализует Storage поверх локального key-value хранилища:
// каждая сущность - JSON-документ под своим ключом.
package local

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/kvstore"
	"github.com/UkralStul/threaducate/internal/presentation"
	"github.com/UkralStul/threaducate/internal/storage"
	"github.com/google/uuid"
)

const (
	postPrefix    = "post/"
	commentPrefix = "comment/"
	threadPrefix  = "post_comments/" // postID -> []commentID в порядке вставки
	likePrefix    = "likes/"         // kind/targetID -> []userID
	profilePrefix = "profile/"
	listPrefix    = "list/"
	sessionPrefix = "session/"
)

// Store реализует интерфейс Storage поверх kvstore.
type Store struct {
	kv *kvstore.Store
}

var _ storage.Storage = (*Store)(nil)

// New открывает хранилище в файле path.
func New(path string) (*Store, error) {
	kv, err := kvstore.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{kv: kv}, nil
}

func (s *Store) Close() error { return s.kv.Close() }

// lookup читает документ и переводит отсутствие ключа в доменную ошибку.
func lookup(err error, op, what, id string) error {
	if errors.Is(err, kvstore.ErrNotFound) {
		return domain.NotFound(op, what, id)
	}
	return err
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if err := storage.ValidatePost(post); err != nil {
		return nil, err
	}
	stored := *post
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = stored.CreatedAt
	if err := s.kv.Put(ctx, postPrefix+stored.ID, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.kv.Get(ctx, postPrefix+id, &post); err != nil {
		return nil, lookup(err, "local.GetPostByID", "post", id)
	}
	return &post, nil
}

func (s *Store) GetPosts(ctx context.Context) ([]*domain.Post, error) {
	keys, err := s.kv.Keys(ctx, postPrefix)
	if err != nil {
		return nil, err
	}
	posts := make([]*domain.Post, 0, len(keys))
	for _, key := range keys {
		var p domain.Post
		if err := s.kv.Get(ctx, key, &p); err != nil {
			return nil, err
		}
		posts = append(posts, &p)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// updatePost читает пост, применяет fn и сохраняет в одной транзакции.
func (s *Store) updatePost(ctx context.Context, op, postID string, fn func(tx *kvstore.Tx, p *domain.Post) error) (*domain.Post, error) {
	var post domain.Post
	err := s.kv.Update(ctx, func(tx *kvstore.Tx) error {
		if err := tx.Get(postPrefix+postID, &post); err != nil {
			return lookup(err, op, "post", postID)
		}
		if err := fn(tx, &post); err != nil {
			return err
		}
		return tx.Put(postPrefix+postID, &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) RecordView(ctx context.Context, postID string) (*domain.Post, error) {
	return s.updatePost(ctx, "local.RecordView", postID, func(_ *kvstore.Tx, p *domain.Post) error {
		p.ViewCount++
		return nil
	})
}

func (s *Store) SetPostLike(ctx context.Context, postID, userID string, liked bool) (*domain.Post, error) {
	return s.updatePost(ctx, "local.SetPostLike", postID, func(tx *kvstore.Tx, p *domain.Post) error {
		delta, err := toggleLike(tx, domain.LikePost, postID, userID, liked)
		p.LikeCount += delta
		return err
	})
}

func toggleLike(tx *kvstore.Tx, kind domain.LikeTarget, targetID, userID string, liked bool) (int, error) {
	key := likePrefix + string(kind) + "/" + targetID
	var users []string
	if err := tx.Get(key, &users); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return 0, err
	}
	i := slices.Index(users, userID)
	switch {
	case liked && i < 0:
		users = append(users, userID)
	case !liked && i >= 0:
		users = slices.Delete(users, i, i+1)
	default:
		return 0, nil
	}
	if err := tx.Put(key, users); err != nil {
		return 0, err
	}
	if liked {
		return 1, nil
	}
	return -1, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	const op = "local.CreateComment"
	if err := storage.ValidateComment(comment); err != nil {
		return nil, err
	}
	stored := comment.Shallow()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}

	_, err := s.updatePost(ctx, op, stored.PostID, func(tx *kvstore.Tx, p *domain.Post) error {
		exists, err := tx.Exists(commentPrefix + stored.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.IdentifierCollision(op, stored.ID)
		}
		if stored.ParentID != nil {
			var parent domain.Comment
			if err := tx.Get(commentPrefix+*stored.ParentID, &parent); err != nil || parent.PostID != stored.PostID {
				if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
					return err
				}
				return domain.TargetNotFound(op, *stored.ParentID)
			}
		}

		var thread []string
		if err := tx.Get(threadPrefix+stored.PostID, &thread); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
			return err
		}
		if err := tx.Put(commentPrefix+stored.ID, stored); err != nil {
			return err
		}
		if err := tx.Put(threadPrefix+stored.PostID, append(thread, stored.ID)); err != nil {
			return err
		}
		p.CommentCount++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var c domain.Comment
	if err := s.kv.Get(ctx, commentPrefix+id, &c); err != nil {
		return nil, lookup(err, "local.GetCommentByID", "comment", id)
	}
	return &c, nil
}

func (s *Store) SetCommentLike(ctx context.Context, commentID, userID string, liked bool) (*domain.Comment, error) {
	const op = "local.SetCommentLike"
	var c domain.Comment
	err := s.kv.Update(ctx, func(tx *kvstore.Tx) error {
		if err := tx.Get(commentPrefix+commentID, &c); err != nil {
			return lookup(err, op, "comment", commentID)
		}
		delta, err := toggleLike(tx, domain.LikeComment, commentID, userID, liked)
		if err != nil || delta == 0 {
			return err
		}
		c.LikeCount += delta
		return tx.Put(commentPrefix+commentID, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string) ([]*domain.Comment, error) {
	var ids []string
	if err := s.kv.Get(ctx, threadPrefix+postID, &ids); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []*domain.Comment{}, nil
		}
		return nil, err
	}
	out := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetCommentByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	storage.SortComments(out)
	return out, nil
}

func (s *Store) GetRootComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	all, err := s.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(c *domain.Comment) bool { return c.ParentID != nil }), nil
}

// === Dataloader Method ===

// GetCommentsByParentIDs читает треды постов, к которым относятся родители.
// Каждый тред читается один раз.
func (s *Store) GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	wanted := make(map[string]bool, len(parentIDs))
	posts := make(map[string]bool)
	for _, id := range parentIDs {
		wanted[id] = true
		parent, err := s.GetCommentByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		posts[parent.PostID] = true
	}

	result := make(map[string][]*domain.Comment, len(parentIDs))
	postIDs := make([]string, 0, len(posts))
	for id := range posts {
		postIDs = append(postIDs, id)
	}
	sort.Strings(postIDs)
	for _, postID := range postIDs {
		thread, err := s.GetCommentsByPostID(ctx, postID)
		if err != nil {
			return nil, err
		}
		for _, c := range thread {
			if c.ParentID != nil && wanted[*c.ParentID] {
				result[*c.ParentID] = append(result[*c.ParentID], c)
			}
		}
	}
	return result, nil
}

// === Profile Methods ===

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	stored := *profile
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	err := s.kv.Update(ctx, func(tx *kvstore.Tx) error {
		var existing domain.Profile
		now := time.Now().UTC()
		switch err := tx.Get(profilePrefix+stored.ID, &existing); {
		case err == nil:
			stored.CreatedAt = existing.CreatedAt
		case errors.Is(err, kvstore.ErrNotFound):
			if stored.CreatedAt.IsZero() {
				stored.CreatedAt = now
			}
		default:
			return err
		}
		stored.UpdatedAt = now
		return tx.Put(profilePrefix+stored.ID, &stored)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.kv.Get(ctx, profilePrefix+id, &p); err != nil {
		return nil, lookup(err, "local.GetProfile", "profile", id)
	}
	return &p, nil
}

// === List Methods ===

func (s *Store) CreateList(ctx context.Context, list *domain.List) (*domain.List, error) {
	stored := *list
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if err := s.kv.Put(ctx, listPrefix+stored.ID, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) GetLists(ctx context.Context) ([]*domain.List, error) {
	keys, err := s.kv.Keys(ctx, listPrefix)
	if err != nil {
		return nil, err
	}
	lists := make([]*domain.List, 0, len(keys))
	for _, key := range keys {
		l, err := s.GetListByID(ctx, strings.TrimPrefix(key, listPrefix))
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	sort.Slice(lists, func(i, j int) bool {
		return lists[i].CreatedAt.After(lists[j].CreatedAt)
	})
	return lists, nil
}

func (s *Store) GetListByID(ctx context.Context, id string) (*domain.List, error) {
	var l domain.List
	if err := s.kv.Get(ctx, listPrefix+id, &l); err != nil {
		return nil, lookup(err, "local.GetListByID", "list", id)
	}
	return &l, nil
}

// === Session Methods ===

func (s *Store) LoadSession(ctx context.Context, sessionID string) (presentation.Snapshot, error) {
	var snap presentation.Snapshot
	if err := s.kv.Get(ctx, sessionPrefix+sessionID, &snap); err != nil {
		return presentation.Snapshot{}, lookup(err, "local.LoadSession", "session", sessionID)
	}
	return snap, nil
}

func (s *Store) SaveSession(ctx context.Context, sessionID string, snap presentation.Snapshot) error {
	return s.kv.Put(ctx, sessionPrefix+sessionID, snap)
}
