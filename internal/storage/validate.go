package storage

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/threaducate/internal/domain"
)

// ValidateComment проверяет комментарий перед сохранением.
// Все бэкенды вызывают ее одинаково.
func ValidateComment(c *domain.Comment) error {
	const op = "storage.CreateComment"
	if strings.TrimSpace(c.Content) == "" {
		return domain.Validation(op, "comment content cannot be empty")
	}
	if utf8.RuneCountInString(c.Content) > MaxCommentLength {
		return domain.Validation(op, "comment content is too long")
	}
	if c.ID == "" {
		return domain.Validation(op, "comment id must be assigned")
	}
	return nil
}

// ValidatePost проверяет пост перед сохранением.
func ValidatePost(p *domain.Post) error {
	const op = "storage.CreatePost"
	if strings.TrimSpace(p.Title) == "" {
		return domain.Validation(op, "post title cannot be empty")
	}
	if strings.TrimSpace(p.Content) == "" {
		return domain.Validation(op, "post content cannot be empty")
	}
	return nil
}

// SortComments упорядочивает комментарии по времени создания, при равенстве по id.
func SortComments(cs []*domain.Comment) {
	slices.SortFunc(cs, func(a, b *domain.Comment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
