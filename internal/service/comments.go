package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/threaducate/internal/commenttree"
	"github.com/UkralStul/threaducate/internal/dataloader"
	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/storage"
	"go.uber.org/zap"
)

// Thread - пост вместе с деревом комментариев.
type Thread struct {
	Post *domain.Post
	Tree *commenttree.Tree
}

// Forest - вложенный лес для сериализации.
func (t *Thread) Forest() []*domain.Comment { return t.Tree.Forest() }

// LoadThread загружает пост и собирает дерево его комментариев.
// Ответы подгружаются батчами по уровням через dataloader.
func (s *Service) LoadThread(ctx context.Context, postID string) (*Thread, error) {
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	loaders := dataloader.For(ctx)
	if loaders == nil {
		loaders = dataloader.NewLoaders(s.store)
	}
	flat, err := loaders.Thread(ctx, s.store, postID)
	if err != nil {
		return nil, err
	}

	authors := s.profiles()
	rows := make([]*domain.Comment, len(flat))
	for i, c := range flat {
		cp := c.Shallow()
		if cp.Author, err = authors.get(ctx, cp.AuthorID); err != nil {
			return nil, err
		}
		rows[i] = cp
	}
	tree, err := commenttree.Build(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build comment tree for post %s: %w", postID, err)
	}
	if post.Author, err = authors.get(ctx, post.AuthorID); err != nil {
		return nil, err
	}
	return &Thread{Post: post, Tree: tree}, nil
}

// CommentInput - форма нового комментария.
type CommentInput struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"`
}

// Validate отклоняет пустой (после обрезки пробелов) и слишком длинный текст.
func (in CommentInput) Validate() error {
	const op = "service.SubmitComment"
	if strings.TrimSpace(in.Content) == "" {
		return domain.Validation(op, "comment content cannot be empty")
	}
	if utf8.RuneCountInString(in.Content) > storage.MaxCommentLength {
		return domain.Validation(op, "comment content is too long")
	}
	return nil
}

// SubmitComment создает комментарий или ответ.
// Вставка сначала проверяется на дереве, затем комментарий сохраняется
// и рассылается подписчикам. Возвращает сохраненный комментарий
// и дерево с уже вставленным узлом.
func (s *Service) SubmitComment(ctx context.Context, postID, authorID string, in CommentInput) (*domain.Comment, *Thread, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	thread, err := s.LoadThread(ctx, postID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	comment := &domain.Comment{
		ID:              s.newID(),
		PostID:          postID,
		AuthorID:        authorID,
		ParentID:        in.ParentID,
		Content:         in.Content,
		MarkdownContent: in.Content,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tree := thread.Tree.Clone()
	if err := tree.Attach(comment, in.ParentID); err != nil {
		s.log.Warn("comment rejected",
			zap.String("post_id", postID),
			zap.Stringp("parent_id", in.ParentID),
			zap.Error(err))
		return nil, nil, err
	}

	stored, err := s.store.CreateComment(ctx, comment)
	if err != nil {
		return nil, nil, err
	}
	if stored.Author, err = s.profiles().get(ctx, authorID); err != nil {
		s.log.Warn("failed to resolve comment author", zap.String("author_id", authorID), zap.Error(err))
	}

	thread.Tree = tree
	thread.Post.CommentCount++
	delivered := s.observer.Publish(stored)

	s.log.Info("comment created",
		zap.String("post_id", postID),
		zap.String("comment_id", stored.ID),
		zap.Stringp("parent_id", stored.ParentID),
		zap.Int("subscribers", delivered))
	return stored, thread, nil
}

// LikeComment ставит (liked=true) или снимает отметку пользователя.
func (s *Service) LikeComment(ctx context.Context, commentID, userID string, liked bool) (*domain.Comment, error) {
	if userID == "" {
		return nil, domain.Validation("service.LikeComment", "user is required")
	}
	c, err := s.store.SetCommentLike(ctx, commentID, userID, liked)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Error("failed to update comment like", zap.String("comment_id", commentID), zap.Error(err))
	}
	return c, err
}
