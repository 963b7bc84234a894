package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/presentation"
	"github.com/UkralStul/threaducate/internal/storage"
	"github.com/google/uuid"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// sessionRow - состояние отображения треда для одной сессии.
type sessionRow struct {
	ID        string                `gorm:"type:varchar(128);primaryKey"`
	State     presentation.Snapshot `gorm:"serializer:json;not null"`
	UpdatedAt time.Time             `gorm:"not null"`
}

func (sessionRow) TableName() string { return "sessions" }

// Options настраивают подключение.
type Options struct {
	MaxConnections int
	Debug          bool // логировать все SQL-запросы
}

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string, opts Options, log *zap.Logger) (*Store, error) {
	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newGormLogger(log, level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.MaxConnections > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(opts.MaxConnections)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(&domain.Profile{}, &domain.Post{}, &domain.Comment{}, &domain.Like{}, &domain.List{}, &sessionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("postgres storage ready", zap.Int("max_connections", opts.MaxConnections))
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// notFound переводит gorm.ErrRecordNotFound в доменную ошибку.
func notFound(err error, op, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
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
	if err := s.db.WithContext(ctx).Create(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "postgres.GetPostByID", "post", id)
	}
	return &post, nil
}

func (s *Store) GetPosts(ctx context.Context) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

func (s *Store) RecordView(ctx context.Context, postID string) (*domain.Post, error) {
	res := s.db.WithContext(ctx).Model(&domain.Post{}).
		Where("id = ?", postID).
		Update("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.NotFound("postgres.RecordView", "post", postID)
	}
	return s.GetPostByID(ctx, postID)
}

func (s *Store) SetPostLike(ctx context.Context, postID, userID string, liked bool) (*domain.Post, error) {
	var post domain.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", postID).Error; err != nil {
			return notFound(err, "postgres.SetPostLike", "post", postID)
		}
		delta, err := toggleLike(tx, domain.LikePost, postID, userID, liked)
		if err != nil || delta == 0 {
			return err
		}
		post.LikeCount += delta
		return tx.Model(&post).Update("like_count", gorm.Expr("like_count + ?", delta)).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// toggleLike ставит или снимает отметку и возвращает изменение счетчика.
func toggleLike(tx *gorm.DB, kind domain.LikeTarget, targetID, userID string, liked bool) (int, error) {
	var existing int64
	if err := tx.Model(&domain.Like{}).
		Where("target_type = ? AND target_id = ? AND user_id = ?", kind, targetID, userID).
		Count(&existing).Error; err != nil {
		return 0, err
	}
	switch {
	case liked && existing == 0:
		return 1, tx.Create(&domain.Like{TargetType: kind, TargetID: targetID, UserID: userID, CreatedAt: time.Now().UTC()}).Error
	case !liked && existing > 0:
		return -1, tx.Where("target_type = ? AND target_id = ? AND user_id = ?", kind, targetID, userID).Delete(&domain.Like{}).Error
	}
	return 0, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
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

	// Проверяем пост, родителя и id в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post domain.Post
		if err := tx.Select("id").First(&post, "id = ?", stored.PostID).Error; err != nil {
			return notFound(err, "postgres.CreateComment", "post", stored.PostID)
		}

		var dup int64
		if err := tx.Model(&domain.Comment{}).Where("id = ?", stored.ID).Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return domain.IdentifierCollision("postgres.CreateComment", stored.ID)
		}

		// Если есть родитель, проверяем его существование
		if stored.ParentID != nil {
			var parentCommentCount int64
			if err := tx.Model(&domain.Comment{}).
				Where("id = ? AND post_id = ?", *stored.ParentID, stored.PostID).
				Count(&parentCommentCount).Error; err != nil {
				return err
			}
			if parentCommentCount == 0 {
				return domain.TargetNotFound("postgres.CreateComment", *stored.ParentID)
			}
		}

		if err := tx.Create(stored).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Post{}).Where("id = ?", stored.PostID).
			Update("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "postgres.GetCommentByID", "comment", id)
	}
	return &comment, nil
}

func (s *Store) SetCommentLike(ctx context.Context, commentID, userID string, liked bool) (*domain.Comment, error) {
	var comment domain.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comment, "id = ?", commentID).Error; err != nil {
			return notFound(err, "postgres.SetCommentLike", "comment", commentID)
		}
		delta, err := toggleLike(tx, domain.LikeComment, commentID, userID, liked)
		if err != nil || delta == 0 {
			return err
		}
		comment.LikeCount += delta
		return tx.Model(&comment).Update("like_count", gorm.Expr("like_count + ?", delta)).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (s *Store) GetRootComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	// Выбираем только комментарии верхнего уровня для поста (parent_id IS NULL)
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// === Dataloader Method ===

func (s *Store) GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	var comments []*domain.Comment
	// Загружаем все дочерние комментарии для всех переданных parentID одним запросом
	err := s.db.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("parent_id, created_at ASC, id ASC"). // Сортируем для правильной группировки и порядка
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	// Группируем результаты в карту map[parentID][]*Comment
	result := make(map[string][]*domain.Comment, len(parentIDs))
	for _, c := range comments {
		if c.ParentID != nil {
			result[*c.ParentID] = append(result[*c.ParentID], c)
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
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Profile
		err := tx.First(&existing, "id = ?", stored.ID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if stored.CreatedAt.IsZero() {
				stored.CreatedAt = time.Now().UTC()
			}
			stored.UpdatedAt = stored.CreatedAt
			return tx.Create(&stored).Error
		case err != nil:
			return err
		}
		stored.CreatedAt = existing.CreatedAt
		stored.UpdatedAt = time.Now().UTC()
		return tx.Save(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "postgres.GetProfile", "profile", id)
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
	if err := s.db.WithContext(ctx).Create(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) GetLists(ctx context.Context) ([]*domain.List, error) {
	var lists []*domain.List
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&lists).Error
	return lists, err
}

func (s *Store) GetListByID(ctx context.Context, id string) (*domain.List, error) {
	var l domain.List
	if err := s.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "postgres.GetListByID", "list", id)
	}
	return &l, nil
}

// === Session Methods ===

func (s *Store) LoadSession(ctx context.Context, sessionID string) (presentation.Snapshot, error) {
	var row sessionRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", sessionID).Error; err != nil {
		return presentation.Snapshot{}, notFound(err, "postgres.LoadSession", "session", sessionID)
	}
	return row.State, nil
}

func (s *Store) SaveSession(ctx context.Context, sessionID string, snap presentation.Snapshot) error {
	row := sessionRow{ID: sessionID, State: snap, UpdatedAt: time.Now().UTC()}
	// Save делает upsert по первичному ключу
	return s.db.WithContext(ctx).Save(&row).Error
}
