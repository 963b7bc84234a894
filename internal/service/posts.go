package service

import (
	"context"
	"strings"

	"github.com/UkralStul/threaducate/internal/domain"
	"go.uber.org/zap"
)

// PostInput - форма нового поста.
type PostInput struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	EmbedURLs []string `json:"embed_urls,omitempty"`
}

// CreatePost создает пост. Пустые ссылки на встраивание отбрасываются.
func (s *Service) CreatePost(ctx context.Context, authorID string, in PostInput) (*domain.Post, error) {
	const op = "service.CreatePost"
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, domain.Validation(op, "title and content are required")
	}

	var embeds []string
	for _, u := range in.EmbedURLs {
		if u = strings.TrimSpace(u); u != "" {
			embeds = append(embeds, u)
		}
	}

	now := s.now()
	post, err := s.store.CreatePost(ctx, &domain.Post{
		AuthorID:        authorID,
		Title:           strings.TrimSpace(in.Title),
		Content:         in.Content,
		MarkdownContent: in.Content,
		EmbedURLs:       embeds,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("post created", zap.String("post_id", post.ID), zap.String("author_id", authorID))
	return s.withAuthor(ctx, post)
}

// GetPost возвращает пост и засчитывает просмотр.
func (s *Service) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.store.RecordView(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withAuthor(ctx, post)
}

// ListPosts возвращает посты от новых к старым.
func (s *Service) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	posts, err := s.store.GetPosts(ctx)
	if err != nil {
		return nil, err
	}
	authors := s.profiles()
	for _, p := range posts {
		if p.Author, err = authors.get(ctx, p.AuthorID); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// LikePost ставит (liked=true) или снимает отметку пользователя.
func (s *Service) LikePost(ctx context.Context, postID, userID string, liked bool) (*domain.Post, error) {
	if userID == "" {
		return nil, domain.Validation("service.LikePost", "user is required")
	}
	return s.store.SetPostLike(ctx, postID, userID, liked)
}

func (s *Service) withAuthor(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	author, err := s.profiles().get(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	post.Author = author
	return post, nil
}

// CheckPost возвращает ошибку ErrNotFound, если поста нет. Просмотр не засчитывается.
func (s *Service) CheckPost(ctx context.Context, id string) error {
	_, err := s.store.GetPostByID(ctx, id)
	return err
}
