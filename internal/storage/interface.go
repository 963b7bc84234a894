package storage

import (
	"context"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/presentation"
)

// MaxCommentLength - предел длины комментария в символах.
const MaxCommentLength = 2000

// Storage определяет контракт для хранилищ.
// Ошибки "не найдено" оборачивают domain.ErrNotFound.
type Storage interface {
	GetPosts(ctx context.Context) ([]*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	RecordView(ctx context.Context, postID string) (*domain.Post, error)
	SetPostLike(ctx context.Context, postID, userID string, liked bool) (*domain.Post, error)

	// CreateComment сохраняет комментарий с уже выданным id
	// и увеличивает счетчик комментариев поста.
	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	SetCommentLike(ctx context.Context, commentID, userID string, liked bool) (*domain.Comment, error)

	// Все комментарии поста плоским списком, по возрастанию created_at.
	GetCommentsByPostID(ctx context.Context, postID string) ([]*domain.Comment, error)
	// Только корневые комментарии поста, по возрастанию created_at.
	GetRootComments(ctx context.Context, postID string) ([]*domain.Comment, error)

	// Методы для Dataloader'ов
	GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error)

	UpsertProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error)
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)

	CreateList(ctx context.Context, list *domain.List) (*domain.List, error)
	GetLists(ctx context.Context) ([]*domain.List, error)
	GetListByID(ctx context.Context, id string) (*domain.List, error)

	LoadSession(ctx context.Context, sessionID string) (presentation.Snapshot, error)
	SaveSession(ctx context.Context, sessionID string, snap presentation.Snapshot) error

	Close() error
}
