// Package service связывает дерево комментариев, состояние отображения
// и хранилище в операции, которые вызывает транспорт.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/events"
	"github.com/UkralStul/threaducate/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service - слой бизнес-логики.
type Service struct {
	store    storage.Storage
	observer *events.CommentObserver
	log      *zap.Logger
	newID    func() string
	now      func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithIDGenerator подменяет генератор идентификаторов комментариев.
// Генератор обязан выдавать новый id на каждый вызов.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithClock подменяет часы.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// New создает сервис.
func New(store storage.Storage, observer *events.CommentObserver, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		observer: observer,
		log:      log,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observer возвращает наблюдателя за новыми комментариями.
func (s *Service) Observer() *events.CommentObserver { return s.observer }

// profiles кэширует профили авторов в пределах одного вызова.
type profiles struct {
	store storage.Storage
	seen  map[string]*domain.Profile
}

func (s *Service) profiles() *profiles {
	return &profiles{store: s.store, seen: make(map[string]*domain.Profile)}
}

// get возвращает профиль или nil, если автора нет в хранилище.
func (p *profiles) get(ctx context.Context, id string) (*domain.Profile, error) {
	if id == "" {
		return nil, nil
	}
	if prof, ok := p.seen[id]; ok {
		return prof, nil
	}
	prof, err := p.store.GetProfile(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		prof, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.seen[id] = prof
	return prof, nil
}

// UpsertProfile сохраняет профиль пользователя.
func (s *Service) UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p.Username == "" {
		return nil, domain.Validation("service.UpsertProfile", "username cannot be empty")
	}
	return s.store.UpsertProfile(ctx, p)
}
