package commenttree

import (
	"fmt"
	"testing"
	"time"

	"github.com/UkralStul/threaducate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func c(id string, children ...*domain.Comment) *domain.Comment {
	return &domain.Comment{ID: id, PostID: "1", Content: "comment " + id, Children: children}
}

func ptr(s string) *string { return &s }

func ids(forest []*domain.Comment) []string {
	var out []string
	for n := range Traverse(forest) {
		out = append(out, n.ID)
	}
	return out
}

func TestAttach_ReplyToRoot(t *testing.T) {
	forest := []*domain.Comment{c("1")}

	got, err := Attach(forest, c("3"), ptr("1"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, "3", got[0].Children[0].ID)

	// исходный лес не изменился
	assert.Empty(t, forest[0].Children)
}

func TestAttach_RootIsPrepended(t *testing.T) {
	forest := []*domain.Comment{c("1"), c("2")}

	got, err := Attach(forest, c("4"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "1", "2"}, ids(got))
}

func TestAttach_NestedReply(t *testing.T) {
	forest := []*domain.Comment{c("1", c("3"))}

	got, err := Attach(forest, c("5"), ptr("3"))
	require.NoError(t, err)
	require.Len(t, got[0].Children, 1)
	require.Len(t, got[0].Children[0].Children, 1)
	assert.Equal(t, "5", got[0].Children[0].Children[0].ID)

	assert.NotSame(t, forest[0], got[0], "ancestor chain must be rebuilt")
	assert.Empty(t, forest[0].Children[0].Children)
}

func TestAttach_RepliesAreAppended(t *testing.T) {
	forest := []*domain.Comment{c("1", c("2"))}

	got, err := Attach(forest, c("3"), ptr("1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}

func TestAttach_TargetNotFound(t *testing.T) {
	forest := []*domain.Comment{c("1", c("3"))}

	got, err := Attach(forest, c("5"), ptr("99"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTargetNotFound)
	assert.Nil(t, got)
	assert.Equal(t, []string{"1", "3"}, ids(forest))
}

func TestAttach_IdentifierCollision(t *testing.T) {
	forest := []*domain.Comment{c("1", c("3"))}

	_, err := Attach(forest, c("3"), ptr("1"))
	assert.ErrorIs(t, err, domain.ErrIdentifierCollision)

	_, err = Attach(forest, c("1"), nil)
	assert.ErrorIs(t, err, domain.ErrIdentifierCollision)
}

func TestAttach_RejectsNodeWithReplies(t *testing.T) {
	_, err := Attach(nil, c("1", c("2")), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNew_DuplicateIDs(t *testing.T) {
	_, err := New([]*domain.Comment{c("1", c("2")), c("2")})
	assert.ErrorIs(t, err, domain.ErrIdentifierCollision)
}

func TestTree_AttachLeavesTreeUnchangedOnError(t *testing.T) {
	tree, err := New([]*domain.Comment{c("1")})
	require.NoError(t, err)

	require.Error(t, tree.Attach(c("2"), ptr("nope")))
	assert.Equal(t, 1, tree.Len())
	_, ok := tree.Get("2")
	assert.False(t, ok)
}

func TestTree_WalkDepths(t *testing.T) {
	tree, err := New([]*domain.Comment{c("1", c("3", c("5"))), c("2")})
	require.NoError(t, err)

	var got []string
	for n, depth := range tree.Walk() {
		got = append(got, fmt.Sprintf("%s@%d", n.ID, depth))
	}
	assert.Equal(t, []string{"1@0", "3@1", "5@2", "2@0"}, got)
}

func TestTree_WalkStopsEarly(t *testing.T) {
	tree, err := New([]*domain.Comment{c("1", c("3")), c("2")})
	require.NoError(t, err)

	var seen int
	for range tree.Walk() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestTree_CloneIsIndependent(t *testing.T) {
	tree, err := New([]*domain.Comment{c("1")})
	require.NoError(t, err)

	cp := tree.Clone()
	require.NoError(t, cp.Attach(c("2"), ptr("1")))
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, 0, tree.ChildCount("1"))
	assert.Equal(t, 1, cp.ChildCount("1"))
}

func TestBuild_Ordering(t *testing.T) {
	base := time.Date(2025, 7, 28, 11, 0, 0, 0, time.UTC)
	at := func(id string, parent *string, minutes int) *domain.Comment {
		return &domain.Comment{ID: id, ParentID: parent, CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
	}

	// порядок строк намеренно перемешан
	flat := []*domain.Comment{
		at("4", ptr("1"), 90),
		at("2", nil, 60),
		at("1", nil, 0),
		at("3", ptr("1"), 30),
	}
	tree, err := Build(flat)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(tree.Forest()))
}

func TestBuild_ReplyBeforeParentTimestamp(t *testing.T) {
	base := time.Now()
	flat := []*domain.Comment{
		{ID: "child", ParentID: ptr("parent"), CreatedAt: base},
		{ID: "parent", CreatedAt: base.Add(time.Second)},
	}
	tree, err := Build(flat)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.ChildCount("parent"))
}

func TestBuild_Orphan(t *testing.T) {
	_, err := Build([]*domain.Comment{{ID: "x", ParentID: ptr("gone")}})
	assert.ErrorIs(t, err, domain.ErrTargetNotFound)
}

// genForest строит случайный лес с уникальными id.
func genForest(t *rapid.T) []*domain.Comment {
	tree, _ := New(nil)
	n := rapid.IntRange(0, 40).Draw(t, "n")
	var existing []string
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("c%d", i)
		var parent *string
		if len(existing) > 0 && rapid.Bool().Draw(t, "reply") {
			p := rapid.SampledFrom(existing).Draw(t, "parent")
			parent = &p
		}
		if err := tree.Attach(c(id), parent); err != nil {
			t.Fatalf("attach %s: %v", id, err)
		}
		existing = append(existing, id)
	}
	return tree.Forest()
}

func childIDs(forest []*domain.Comment) map[string][]string {
	out := make(map[string][]string)
	for n := range Traverse(forest) {
		var kids []string
		for _, ch := range n.Children {
			kids = append(kids, ch.ID)
		}
		out[n.ID] = kids
	}
	return out
}

func TestProperty_AttachReply(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		forest := genForest(t)
		if len(forest) == 0 {
			return
		}
		target := rapid.SampledFrom(ids(forest)).Draw(t, "target")
		before := childIDs(forest)

		got, err := Attach(forest, c("new"), &target)
		if err != nil {
			t.Fatalf("attach: %v", err)
		}
		after := childIDs(got)

		if Count(got) != Count(forest)+1 {
			t.Fatalf("count %d, want %d", Count(got), Count(forest)+1)
		}
		for id, kids := range before {
			if id == target {
				want := append(append([]string{}, kids...), "new")
				if !assert.ObjectsAreEqual(want, after[id]) {
					t.Fatalf("target children %v, want %v", after[id], want)
				}
				continue
			}
			if !assert.ObjectsAreEqual(kids, after[id]) {
				t.Fatalf("node %s children changed: %v -> %v", id, kids, after[id])
			}
		}
	})
}

func TestProperty_AttachRootPrepends(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		forest := genForest(t)

		got, err := Attach(forest, c("new"), nil)
		if err != nil {
			t.Fatalf("attach: %v", err)
		}
		if len(got) != len(forest)+1 || got[0].ID != "new" {
			t.Fatalf("new root not prepended")
		}
		for i, root := range forest {
			if got[i+1].ID != root.ID {
				t.Fatalf("root %d: %s, want %s", i, got[i+1].ID, root.ID)
			}
		}
	})
}

func TestProperty_TraverseRestartable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		forest := genForest(t)
		tree, err := New(forest)
		if err != nil {
			t.Fatalf("new: %v", err)
		}

		first := ids(forest)
		if !assert.ObjectsAreEqual(first, ids(forest)) {
			t.Fatalf("traverse not restartable")
		}
		var walked []string
		for n := range tree.Walk() {
			walked = append(walked, n.ID)
		}
		if !assert.ObjectsAreEqual(first, walked) {
			t.Fatalf("walk %v differs from traverse %v", walked, first)
		}
	})
}
