// Package commenttree хранит лес комментариев в виде арены:
// узлы лежат в карте по id, ответы - упорядоченные списки id.
// Так вставка ответа не требует рекурсивной пересборки предков.
package commenttree

import (
	"iter"
	"slices"
	"sort"

	"github.com/UkralStul/threaducate/internal/domain"
)

type node struct {
	comment  *domain.Comment // без Children
	children []string
}

// Tree - лес комментариев одного поста.
// Не потокобезопасен: владелец один, как и у UI-потока.
type Tree struct {
	nodes map[string]*node
	roots []string
}

// New строит арену из вложенного леса. Входной лес не изменяется.
// Повторяющийся id возвращает ErrIdentifierCollision.
func New(forest []*domain.Comment) (*Tree, error) {
	t := &Tree{nodes: make(map[string]*node)}
	for _, root := range forest {
		if err := t.load(root); err != nil {
			return nil, err
		}
		t.roots = append(t.roots, root.ID)
	}
	return t, nil
}

func (t *Tree) load(c *domain.Comment) error {
	if _, ok := t.nodes[c.ID]; ok {
		return domain.IdentifierCollision("commenttree.New", c.ID)
	}
	n := &node{comment: c.Shallow()}
	t.nodes[c.ID] = n
	for _, child := range c.Children {
		if err := t.load(child); err != nil {
			return err
		}
		n.children = append(n.children, child.ID)
	}
	return nil
}

// Attach вставляет новый комментарий.
// Без parentID комментарий становится первым корнем (новые сверху),
// иначе добавляется в конец ответов найденного узла (хронологически).
// При ошибке дерево не меняется.
func (t *Tree) Attach(c *domain.Comment, parentID *string) error {
	const op = "commenttree.Attach"
	if c == nil || c.ID == "" {
		return domain.Validation(op, "comment must have an id")
	}
	if len(c.Children) > 0 {
		return domain.Validation(op, "new comment must not carry replies")
	}
	if _, ok := t.nodes[c.ID]; ok {
		return domain.IdentifierCollision(op, c.ID)
	}

	if parentID == nil {
		t.nodes[c.ID] = &node{comment: c.Shallow()}
		t.roots = slices.Insert(t.roots, 0, c.ID)
		return nil
	}

	parent, ok := t.nodes[*parentID]
	if !ok {
		return domain.TargetNotFound(op, *parentID)
	}
	t.nodes[c.ID] = &node{comment: c.Shallow()}
	parent.children = append(parent.children, c.ID)
	return nil
}

// Get возвращает комментарий без ответов.
func (t *Tree) Get(id string) (*domain.Comment, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	return n.comment, true
}

// ChildCount - число прямых ответов на комментарий.
func (t *Tree) ChildCount(id string) int {
	if n, ok := t.nodes[id]; ok {
		return len(n.children)
	}
	return 0
}

// Len - общее число узлов в лесу.
func (t *Tree) Len() int { return len(t.nodes) }

// Walk обходит лес в глубину: родитель перед ответами, корни на глубине 0.
// Отдаваемые комментарии только для чтения.
func (t *Tree) Walk() iter.Seq2[*domain.Comment, int] {
	return func(yield func(*domain.Comment, int) bool) {
		type frame struct {
			id    string
			depth int
		}
		stack := make([]frame, 0, len(t.roots))
		for i := len(t.roots) - 1; i >= 0; i-- {
			stack = append(stack, frame{t.roots[i], 0})
		}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n := t.nodes[f.id]
			if !yield(n.comment, f.depth) {
				return
			}
			for i := len(n.children) - 1; i >= 0; i-- {
				stack = append(stack, frame{n.children[i], f.depth + 1})
			}
		}
	}
}

// Forest собирает вложенный лес из свежих копий узлов.
func (t *Tree) Forest() []*domain.Comment {
	forest := make([]*domain.Comment, 0, len(t.roots))
	for _, id := range t.roots {
		forest = append(forest, t.materialize(id))
	}
	return forest
}

func (t *Tree) materialize(id string) *domain.Comment {
	n := t.nodes[id]
	c := n.comment.Shallow()
	if len(n.children) > 0 {
		c.Children = make([]*domain.Comment, 0, len(n.children))
		for _, childID := range n.children {
			c.Children = append(c.Children, t.materialize(childID))
		}
	}
	return c
}

// Clone копирует структуру арены. Сами комментарии неизменяемы и разделяются.
func (t *Tree) Clone() *Tree {
	cp := &Tree{
		nodes: make(map[string]*node, len(t.nodes)),
		roots: slices.Clone(t.roots),
	}
	for id, n := range t.nodes {
		cp.nodes[id] = &node{comment: n.comment, children: slices.Clone(n.children)}
	}
	return cp
}

// Build собирает лес из плоских строк хранилища.
// Строки упорядочиваются по времени создания: корни идут от новых к старым,
// ответы - от старых к новым. Ответ на отсутствующий комментарий
// дает ErrTargetNotFound.
func Build(flat []*domain.Comment) (*Tree, error) {
	sorted := slices.Clone(flat)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	t := &Tree{nodes: make(map[string]*node, len(sorted))}
	pending := sorted
	for len(pending) > 0 {
		var rest []*domain.Comment
		for _, c := range pending {
			err := t.Attach(c.Shallow(), c.ParentID)
			if err == nil {
				continue
			}
			if !isTargetNotFound(err) {
				return nil, err
			}
			rest = append(rest, c)
		}
		if len(rest) == len(pending) {
			return nil, domain.TargetNotFound("commenttree.Build", *rest[0].ParentID)
		}
		pending = rest
	}
	return t, nil
}
