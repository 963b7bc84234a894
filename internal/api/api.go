// Package api - HTTP/JSON транспорт сервиса.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/UkralStul/threaducate/internal/dataloader"
	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/service"
	"github.com/UkralStul/threaducate/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// UserHeader - заголовок с id текущего пользователя. Аутентификации нет.
const UserHeader = "X-User-ID"

// Options настраивают транспорт.
type Options struct {
	DefaultUserID  string        // пользователь, если заголовок не передан
	AllowedOrigins []string      // пусто - любые источники для websocket
	PingInterval   time.Duration // keep-alive для websocket
}

// API содержит зависимости обработчиков.
type API struct {
	svc      *service.Service
	log      *zap.Logger
	opts     Options
	upgrader websocket.Upgrader
}

// NewRouter собирает роутер со всеми маршрутами.
func NewRouter(svc *service.Service, store storage.Storage, log *zap.Logger, opts Options) http.Handler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 10 * time.Second
	}
	a := &API{svc: svc, log: log, opts: opts}
	a.upgrader = websocket.Upgrader{CheckOrigin: a.checkOrigin}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestLogger(log))
	router.Use(middleware.Recoverer)
	router.Use(func(next http.Handler) http.Handler { return dataloader.Middleware(store, next) })

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/posts", func(r chi.Router) {
		r.Get("/", a.listPosts)
		r.Post("/", a.createPost)
		r.Route("/{postID}", func(r chi.Router) {
			r.Get("/", a.getPost)
			r.Post("/like", a.likePost(true))
			r.Delete("/like", a.likePost(false))
			r.Get("/comments", a.getComments)
			r.Post("/comments", a.createComment)
			r.Get("/comments/ws", a.commentStream)
			r.Get("/thread", a.getThread)
		})
	})

	router.Route("/comments/{commentID}", func(r chi.Router) {
		r.Post("/like", a.likeComment(true))
		r.Delete("/like", a.likeComment(false))
	})

	router.Route("/lists", func(r chi.Router) {
		r.Get("/", a.listLists)
		r.Post("/", a.createList)
		r.Get("/{listID}", a.getList)
	})

	router.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", a.getSession)
		r.Post("/toggle/{commentID}", a.toggleExpanded)
		r.Put("/reply-target", a.setReplyTarget)
	})

	return router
}

func (a *API) checkOrigin(r *http.Request) bool {
	if len(a.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range a.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (a *API) userID(r *http.Request) string {
	if id := r.Header.Get(UserHeader); id != "" {
		return id
	}
	return a.opts.DefaultUserID
}

// requestLogger - аналог middleware.Logger, пишущий в zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError переводит доменные ошибки в HTTP-статусы.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, kind = http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrTargetNotFound):
		status, kind = http.StatusUnprocessableEntity, "target_not_found"
	case errors.Is(err, domain.ErrIdentifierCollision):
		status, kind = http.StatusConflict, "identifier_collision"
	case errors.Is(err, domain.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		a.log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return domain.Validation("api.decode", "invalid JSON body: "+err.Error())
	}
	return nil
}
