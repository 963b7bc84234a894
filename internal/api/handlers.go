package api

import (
	"net/http"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/presentation"
	"github.com/UkralStul/threaducate/internal/service"
	"github.com/go-chi/chi/v5"
)

// === Posts ===

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.svc.ListPosts(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	var in service.PostInput
	if err := decode(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	post, err := a.svc.CreatePost(r.Context(), a.userID(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (a *API) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := a.svc.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *API) likePost(liked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := a.svc.LikePost(r.Context(), chi.URLParam(r, "postID"), a.userID(r), liked)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

// === Comments ===

type threadResponse struct {
	Post     *domain.Post      `json:"post"`
	Comments []*domain.Comment `json:"comments"`
}

func (a *API) getComments(w http.ResponseWriter, r *http.Request) {
	thread, err := a.svc.LoadThread(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, threadResponse{Post: thread.Post, Comments: thread.Forest()})
}

type createCommentRequest struct {
	service.CommentInput
	SessionID string `json:"session_id,omitempty"`
}

type createCommentResponse struct {
	Comment      *domain.Comment `json:"comment"`
	CommentCount int             `json:"comment_count"`
}

// createComment: явный parent_id важнее цели ответа из сессии.
func (a *API) createComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	postID := chi.URLParam(r, "postID")

	var (
		comment *domain.Comment
		thread  *service.Thread
		err     error
	)
	if req.ParentID == nil && req.SessionID != "" {
		comment, thread, err = a.svc.SubmitFromSession(r.Context(), req.SessionID, postID, a.userID(r), req.Content)
	} else {
		comment, thread, err = a.svc.SubmitComment(r.Context(), postID, a.userID(r), req.CommentInput)
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createCommentResponse{Comment: comment, CommentCount: thread.Post.CommentCount})
}

func (a *API) likeComment(liked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := a.svc.LikeComment(r.Context(), chi.URLParam(r, "commentID"), a.userID(r), liked)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

type renderResponse struct {
	Post       *domain.Post       `json:"post"`
	Rows       []presentation.Row `json:"rows"`
	ReplyingTo *string            `json:"replying_to,omitempty"`
}

func (a *API) getThread(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	thread, rows, err := a.svc.RenderThread(r.Context(), chi.URLParam(r, "postID"), sessionID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	state, err := a.svc.Session(r.Context(), sessionID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{Post: thread.Post, Rows: rows, ReplyingTo: state.Snapshot().ReplyTarget})
}

// === Lists ===

func (a *API) listLists(w http.ResponseWriter, r *http.Request) {
	lists, err := a.svc.Lists(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (a *API) getList(w http.ResponseWriter, r *http.Request) {
	l, err := a.svc.List(r.Context(), chi.URLParam(r, "listID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (a *API) createList(w http.ResponseWriter, r *http.Request) {
	var in domain.List
	if err := decode(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	in.ID = ""
	in.AuthorID = a.userID(r)
	l, err := a.svc.CreateList(r.Context(), &in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// === Sessions ===

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := a.svc.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state.Snapshot())
}

func (a *API) toggleExpanded(w http.ResponseWriter, r *http.Request) {
	state, err := a.svc.ToggleExpanded(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "commentID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state.Snapshot())
}

type replyTargetRequest struct {
	CommentID *string `json:"comment_id"`
}

func (a *API) setReplyTarget(w http.ResponseWriter, r *http.Request) {
	var req replyTargetRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	state, err := a.svc.SetReplyTarget(r.Context(), chi.URLParam(r, "sessionID"), req.CommentID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state.Snapshot())
}
