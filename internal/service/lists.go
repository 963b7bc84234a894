package service

import (
	"context"
	"strings"

	"github.com/UkralStul/threaducate/internal/domain"
)

// Lists возвращает подборки от новых к старым.
func (s *Service) Lists(ctx context.Context) ([]*domain.List, error) {
	lists, err := s.store.GetLists(ctx)
	if err != nil {
		return nil, err
	}
	authors := s.profiles()
	for _, l := range lists {
		if l.Author, err = authors.get(ctx, l.AuthorID); err != nil {
			return nil, err
		}
	}
	return lists, nil
}

// List возвращает одну подборку.
func (s *Service) List(ctx context.Context, id string) (*domain.List, error) {
	l, err := s.store.GetListByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Author, err = s.profiles().get(ctx, l.AuthorID); err != nil {
		return nil, err
	}
	return l, nil
}

// CreateList создает подборку. Неизвестный тип материала становится "resource".
func (s *Service) CreateList(ctx context.Context, l *domain.List) (*domain.List, error) {
	if strings.TrimSpace(l.Title) == "" {
		return nil, domain.Validation("service.CreateList", "list title cannot be empty")
	}
	items := make([]domain.ListItem, len(l.Items))
	for i, item := range l.Items {
		switch item.Kind {
		case domain.ResourceVideo, domain.ResourceArticle, domain.ResourceCode:
		default:
			item.Kind = domain.ResourceGeneric
		}
		if item.ID == "" {
			item.ID = s.newID()
		}
		items[i] = item
	}
	cp := *l
	cp.Items = items
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}
	return s.store.CreateList(ctx, &cp)
}
