package events

import (
	"sync"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/google/uuid"
)

// CommentObserver хранит каналы для подписчиков на новые комментарии.
type CommentObserver struct {
	mu sync.RWMutex
	//          map[postID] map[subscriberID] channel
	subs map[string]map[string]chan *domain.Comment
}

// NewCommentObserver - конструктор наблюдателя.
func NewCommentObserver() *CommentObserver {
	return &CommentObserver{
		subs: make(map[string]map[string]chan *domain.Comment),
	}
}

// Subscribe подписывает на комментарии поста.
// cancel отписывает и закрывает канал; вызывать его нужно ровно один раз.
func (o *CommentObserver) Subscribe(postID string, buffer int) (ch <-chan *domain.Comment, cancel func()) {
	c := make(chan *domain.Comment, buffer)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[postID] == nil {
		o.subs[postID] = make(map[string]chan *domain.Comment)
	}
	o.subs[postID][subID] = c
	o.mu.Unlock()

	var once sync.Once
	return c, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if postSubs, ok := o.subs[postID]; ok {
				delete(postSubs, subID)
				if len(postSubs) == 0 {
					delete(o.subs, postID)
				}
			}
			close(c)
		})
	}
}

// Publish рассылает комментарий подписчикам поста, не блокируясь:
// медленный подписчик пропускает событие.
func (o *CommentObserver) Publish(c *domain.Comment) (delivered int) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, ch := range o.subs[c.PostID] {
		select {
		case ch <- c:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers - число подписчиков поста.
func (o *CommentObserver) Subscribers(postID string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs[postID])
}
