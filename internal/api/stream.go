package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// commentStream отдает новые комментарии поста по websocket.
func (a *API) commentStream(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	// Проверяем, существует ли пост, прежде чем подписываться
	if err := a.svc.CheckPost(r.Context(), postID); err != nil {
		a.writeError(w, r, err)
		return
	}

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		a.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	comments, cancel := a.svc.Observer().Subscribe(postID, 8)
	defer cancel()

	// Читаем только для обработки close/pong; данные от клиента не ждем.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(a.opts.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case c, ok := <-comments:
			if !ok {
				return
			}
			payload, err := json.Marshal(c)
			if err != nil {
				a.log.Error("failed to encode comment", zap.String("comment_id", c.ID), zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
