// Package presentation хранит состояние отображения треда поверх дерева
// комментариев: какие ветки свернуты и на какой комментарий пишется ответ.
// Дерево при этом не меняется.
package presentation

import (
	"iter"
	"maps"
	"slices"

	"github.com/UkralStul/threaducate/internal/commenttree"
	"github.com/UkralStul/threaducate/internal/domain"
)

// Expansion - состояние ветки.
type Expansion int

const (
	Expanded Expansion = iota
	Collapsed
)

func (e Expansion) String() string {
	if e == Collapsed {
		return "collapsed"
	}
	return "expanded"
}

// State - неизменяемое состояние отображения.
// Хранятся только свернутые ветки; любой другой id развернут.
// Нулевое значение готово к использованию.
type State struct {
	collapsed   map[string]struct{}
	replyTarget *string
}

// Expansion возвращает состояние ветки id. Существование id не проверяется.
func (s State) Expansion(id string) Expansion {
	if _, ok := s.collapsed[id]; ok {
		return Collapsed
	}
	return Expanded
}

// ReplyTarget возвращает комментарий, на который пишется ответ.
func (s State) ReplyTarget() (string, bool) {
	if s.replyTarget == nil {
		return "", false
	}
	return *s.replyTarget, true
}

// Composing - пишется ли сейчас ответ.
func (s State) Composing() bool { return s.replyTarget != nil }

// Equal сравнивает два состояния по значению.
func (s State) Equal(o State) bool {
	if len(s.collapsed) != len(o.collapsed) {
		return false
	}
	for id := range s.collapsed {
		if _, ok := o.collapsed[id]; !ok {
			return false
		}
	}
	a, aok := s.ReplyTarget()
	b, bok := o.ReplyTarget()
	return aok == bok && a == b
}

// ToggleExpanded переключает ветку id и возвращает новое состояние.
// Повторное переключение возвращает исходное состояние.
func ToggleExpanded(s State, id string) State {
	next := State{collapsed: maps.Clone(s.collapsed), replyTarget: s.replyTarget}
	if next.collapsed == nil {
		next.collapsed = make(map[string]struct{})
	}
	if _, ok := next.collapsed[id]; ok {
		delete(next.collapsed, id)
	} else {
		next.collapsed[id] = struct{}{}
	}
	return next
}

// SetReplyTarget заменяет цель ответа. nil выключает режим ответа.
func SetReplyTarget(s State, id *string) State {
	next := State{collapsed: s.collapsed}
	if id != nil {
		v := *id
		next.replyTarget = &v
	}
	return next
}

// Snapshot - сериализуемая форма State.
//
//	{
//	  "version": 1,
//	  "collapsed": ["c-1", "c-7"],
//	  "reply_target": "c-3"
//	}
type Snapshot struct {
	Version     int      `json:"version"`
	Collapsed   []string `json:"collapsed"`
	ReplyTarget *string  `json:"reply_target,omitempty"`
}

// SnapshotVersion - текущая версия формата Snapshot.
const SnapshotVersion = 1

// Snapshot возвращает сериализуемую копию состояния.
func (s State) Snapshot() Snapshot {
	collapsed := slices.Sorted(maps.Keys(s.collapsed))
	if collapsed == nil {
		collapsed = []string{}
	}
	snap := Snapshot{Version: SnapshotVersion, Collapsed: collapsed}
	if id, ok := s.ReplyTarget(); ok {
		snap.ReplyTarget = &id
	}
	return snap
}

// FromSnapshot восстанавливает состояние. Неизвестные версии дают пустое
// состояние.
func FromSnapshot(snap Snapshot) State {
	if snap.Version != SnapshotVersion {
		return State{}
	}
	s := State{}
	for _, id := range snap.Collapsed {
		s = ToggleExpanded(s, id)
	}
	return SetReplyTarget(s, snap.ReplyTarget)
}

// Row - строка для рендера треда.
type Row struct {
	Comment    *domain.Comment `json:"comment"`
	Depth      int             `json:"depth"`
	Expansion  Expansion       `json:"-"`
	Expanded   bool            `json:"expanded"`
	ReplyCount int             `json:"reply_count"`
	Replying   bool            `json:"replying"`
}

// Visible обходит дерево и пропускает ответы внутри свернутых веток.
func Visible(tree *commenttree.Tree, s State) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		target, _ := s.ReplyTarget()
		hideBelow := -1
		for c, depth := range tree.Walk() {
			if hideBelow >= 0 {
				if depth > hideBelow {
					continue
				}
				hideBelow = -1
			}
			exp := s.Expansion(c.ID)
			row := Row{
				Comment:    c,
				Depth:      depth,
				Expansion:  exp,
				Expanded:   exp == Expanded,
				ReplyCount: tree.ChildCount(c.ID),
				Replying:   s.Composing() && c.ID == target,
			}
			if !yield(row) {
				return
			}
			if exp == Collapsed {
				hideBelow = depth
			}
		}
	}
}
