package tree_test

import (
	"testing"
	"time"

	"alterstory-server/internal/tree"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot() *models.Story {
	id := uuid.New()
	return &models.Story{ID: id, StoryRootID: id, Level: 0, Title: "root", CreatedAt: time.Now()}
}

func newChild(parent *models.Story, position int) *models.Story {
	parentID := parent.ID
	return &models.Story{
		ID:          uuid.New(),
		ParentID:    &parentID,
		StoryRootID: parent.StoryRootID,
		Level:       parent.Level + 1,
		Position:    position,
		CreatedAt:   parent.CreatedAt.Add(time.Duration(position+1) * time.Second),
	}
}

func ids(stories []*models.Story) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(stories))
	for _, s := range stories {
		out = append(out, s.ID)
	}
	return out
}

func TestBuildBreadcrumbs(t *testing.T) {
	r := newRoot()
	a := newChild(r, 0)
	b := newChild(a, 0)
	nodes := []*models.Story{b, r, a}

	t.Run("Root only", func(t *testing.T) {
		path := tree.BuildBreadcrumbs(r.ID, nodes)
		assert.Equal(t, []uuid.UUID{r.ID}, ids(path))
	})

	t.Run("Depth two", func(t *testing.T) {
		path := tree.BuildBreadcrumbs(b.ID, nodes)
		assert.Equal(t, []uuid.UUID{r.ID, a.ID, b.ID}, ids(path))
	})

	t.Run("Unknown node", func(t *testing.T) {
		path := tree.BuildBreadcrumbs(uuid.New(), nodes)
		assert.Empty(t, path)
	})

	t.Run("Missing parent gives partial path", func(t *testing.T) {
		path := tree.BuildBreadcrumbs(b.ID, []*models.Story{r, b})
		assert.Equal(t, []uuid.UUID{b.ID}, ids(path))
	})

	t.Run("Cycle in data terminates", func(t *testing.T) {
		x := &models.Story{ID: uuid.New(), Level: 1}
		y := &models.Story{ID: uuid.New(), Level: 1}
		x.ParentID = &y.ID
		y.ParentID = &x.ID

		path := tree.BuildBreadcrumbs(x.ID, []*models.Story{x, y})
		assert.Equal(t, []uuid.UUID{y.ID, x.ID}, ids(path))
	})
}

func TestBuildTree(t *testing.T) {
	r := newRoot()
	a1 := newChild(r, 1)
	a0 := newChild(r, 0)
	b := newChild(a0, 0)
	c := newChild(b, 0)
	nodes := []*models.Story{c, b, a1, a0, r}

	t.Run("Nested by parent and ordered by position", func(t *testing.T) {
		roots := tree.BuildTree(nodes, uuid.Nil)
		require.Len(t, roots, 1)
		root := roots[0]
		assert.Equal(t, r.ID, root.ID)
		require.Len(t, root.Children, 2)
		assert.Equal(t, a0.ID, root.Children[0].ID)
		assert.Equal(t, a1.ID, root.Children[1].ID)
		require.Len(t, root.Children[0].Children, 1)
		assert.Equal(t, b.ID, root.Children[0].Children[0].ID)
		assert.Empty(t, root.Children[1].Children)
	})

	t.Run("Expanded defaults", func(t *testing.T) {
		roots := tree.BuildTree(nodes, c.ID)
		root := roots[0]
		bNode := root.Children[0].Children[0]
		cNode := bNode.Children[0]

		assert.True(t, root.Expanded)
		assert.True(t, root.Children[0].Expanded)
		assert.False(t, bNode.Expanded)
		assert.True(t, cNode.Expanded)
	})

	t.Run("Empty input", func(t *testing.T) {
		assert.Empty(t, tree.BuildTree(nil, uuid.Nil))
	})
}

func TestFlatten(t *testing.T) {
	r := newRoot()
	a1 := newChild(r, 1)
	a0 := newChild(r, 0)
	b := newChild(a0, 0)

	flat := tree.Flatten([]*models.Story{b, a1, r, a0})
	assert.Equal(t, []uuid.UUID{r.ID, a0.ID, a1.ID, b.ID}, ids(flat))
}
