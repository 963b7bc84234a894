package dataloader

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	ChildrenByCommentID *dataloader.Loader
}

// NewLoaders создает лоадеры поверх хранилища.
func NewLoaders(store storage.Storage) *Loaders {
	// Создаем батч-функцию для лоадера
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		// Преобразуем ключи в []string
		parentIDs := make([]string, len(keys))
		for i, key := range keys {
			parentIDs[i] = key.String()
		}

		// Вызываем метод хранилища, который делает ОДИН запрос к БД
		commentsMap, err := store.GetCommentsByParentIDs(ctx, parentIDs)
		results := make([]*dataloader.Result, len(keys))
		if err != nil {
			// В случае ошибки, возвращаем ее для всех ключей
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Формируем результат в том же порядке, что и ключи
		for i, parentID := range parentIDs {
			results[i] = &dataloader.Result{Data: commentsMap[parentID]}
		}
		return results
	}

	return &Loaders{
		ChildrenByCommentID: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond)),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLoaders(r.Context(), NewLoaders(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithLoaders кладет лоадеры в контекст.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, key, l)
}

// For извлекает лоадеры из контекста. Вне HTTP-запроса вернет nil.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

// Children загружает ответы для набора комментариев одним батчем.
func (l *Loaders) Children(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	thunk := l.ChildrenByCommentID.LoadMany(ctx, dataloader.NewKeysFromStrings(parentIDs))
	data, errs := thunk()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to load replies: %w", err)
		}
	}

	out := make(map[string][]*domain.Comment, len(parentIDs))
	for i, id := range parentIDs {
		if i >= len(data) || data[i] == nil {
			continue
		}
		children, ok := data[i].([]*domain.Comment)
		if !ok {
			return nil, fmt.Errorf("unexpected loader result %T for %s", data[i], id)
		}
		out[id] = children
	}
	return out, nil
}

// Thread собирает все комментарии поста уровень за уровнем:
// корни из хранилища, дальше по одному батчу ответов на уровень.
func (l *Loaders) Thread(ctx context.Context, store storage.Storage, postID string) ([]*domain.Comment, error) {
	roots, err := store.GetRootComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post comments: %w", err)
	}

	flat := append([]*domain.Comment(nil), roots...)
	frontier := make([]string, 0, len(roots))
	for _, c := range roots {
		frontier = append(frontier, c.ID)
	}
	for len(frontier) > 0 {
		children, err := l.Children(ctx, frontier)
		if err != nil {
			return nil, err
		}
		next := make([]string, 0)
		for _, parentID := range frontier {
			for _, c := range children[parentID] {
				flat = append(flat, c)
				next = append(next, c.ID)
			}
		}
		frontier = next
	}
	return flat, nil
}
