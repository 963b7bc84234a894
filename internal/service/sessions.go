package service

import (
	"context"
	"errors"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/presentation"
)

// Session возвращает состояние отображения сессии.
// Новая сессия начинается с пустого состояния.
func (s *Service) Session(ctx context.Context, sessionID string) (presentation.State, error) {
	if sessionID == "" {
		return presentation.State{}, nil
	}
	snap, err := s.store.LoadSession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return presentation.State{}, nil
	}
	if err != nil {
		return presentation.State{}, err
	}
	return presentation.FromSnapshot(snap), nil
}

func (s *Service) updateSession(ctx context.Context, sessionID string, fn func(presentation.State) presentation.State) (presentation.State, error) {
	if sessionID == "" {
		return presentation.State{}, domain.Validation("service.Session", "session id is required")
	}
	state, err := s.Session(ctx, sessionID)
	if err != nil {
		return presentation.State{}, err
	}
	state = fn(state)
	if err := s.store.SaveSession(ctx, sessionID, state.Snapshot()); err != nil {
		return presentation.State{}, err
	}
	return state, nil
}

// ToggleExpanded сворачивает или разворачивает ветку комментария.
func (s *Service) ToggleExpanded(ctx context.Context, sessionID, commentID string) (presentation.State, error) {
	return s.updateSession(ctx, sessionID, func(st presentation.State) presentation.State {
		return presentation.ToggleExpanded(st, commentID)
	})
}

// SetReplyTarget выбирает комментарий для ответа; nil отменяет ответ.
func (s *Service) SetReplyTarget(ctx context.Context, sessionID string, commentID *string) (presentation.State, error) {
	return s.updateSession(ctx, sessionID, func(st presentation.State) presentation.State {
		return presentation.SetReplyTarget(st, commentID)
	})
}

// SubmitFromSession отправляет комментарий как ответ на текущую цель сессии
// (или корневой, если цели нет) и после успеха выключает режим ответа.
func (s *Service) SubmitFromSession(ctx context.Context, sessionID, postID, authorID, content string) (*domain.Comment, *Thread, error) {
	state, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	in := CommentInput{Content: content}
	if target, ok := state.ReplyTarget(); ok {
		in.ParentID = &target
	}

	comment, thread, err := s.SubmitComment(ctx, postID, authorID, in)
	if err != nil {
		return nil, nil, err
	}
	if sessionID != "" {
		if _, err := s.SetReplyTarget(ctx, sessionID, nil); err != nil {
			return nil, nil, err
		}
	}
	return comment, thread, nil
}

// RenderThread возвращает видимые строки треда для сессии.
func (s *Service) RenderThread(ctx context.Context, postID, sessionID string) (*Thread, []presentation.Row, error) {
	thread, err := s.LoadThread(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	state, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]presentation.Row, 0, thread.Tree.Len())
	for row := range presentation.Visible(thread.Tree, state) {
		rows = append(rows, row)
	}
	return thread, rows, nil
}
