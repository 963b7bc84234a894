package commenttree

import (
	"errors"
	"iter"

	"github.com/UkralStul/threaducate/internal/domain"
)

// Attach возвращает новый лес с комментарием c, не трогая исходный.
// Ошибки те же, что у (*Tree).Attach.
func Attach(forest []*domain.Comment, c *domain.Comment, parentID *string) ([]*domain.Comment, error) {
	t, err := New(forest)
	if err != nil {
		return nil, err
	}
	if err := t.Attach(c, parentID); err != nil {
		return nil, err
	}
	return t.Forest(), nil
}

// Traverse лениво обходит вложенный лес в глубину, отдавая (узел, глубина).
// Повторный вызов на неизменном лесе дает ту же последовательность.
func Traverse(forest []*domain.Comment) iter.Seq2[*domain.Comment, int] {
	return func(yield func(*domain.Comment, int) bool) {
		var walk func(nodes []*domain.Comment, depth int) bool
		walk = func(nodes []*domain.Comment, depth int) bool {
			for _, c := range nodes {
				if !yield(c, depth) {
					return false
				}
				if !walk(c.Children, depth+1) {
					return false
				}
			}
			return true
		}
		walk(forest, 0)
	}
}

// Count - число узлов во вложенном лесу.
func Count(forest []*domain.Comment) int {
	n := 0
	for range Traverse(forest) {
		n++
	}
	return n
}

func isTargetNotFound(err error) bool {
	return errors.Is(err, domain.ErrTargetNotFound)
}
