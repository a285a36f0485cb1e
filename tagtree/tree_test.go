package tagtree_test

import (
	"testing"

	"github.com/jeremymatt/photo-manager/tagtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T, paths ...string) *tagtree.Tree {
	tree := tagtree.New()
	for _, p := range paths {
		_, err := tree.Add(p)
		require.NoError(t, err)
	}
	return tree
}

func TestAddAndLookup(t *testing.T) {
	tree := newTree(t, "scene.outdoor.lake", "scene.indoor", "Person.Alice")
	assert.Equal(t, 6, tree.Len())
	id, ok := tree.Lookup("scene.outdoor")
	require.True(t, ok)
	assert.Equal(t, "scene.outdoor", tree.Path(id))
	_, ok = tree.Lookup("person.alice")
	assert.True(t, ok)
	_, ok = tree.Lookup("scene.outdoor.hike")
	assert.False(t, ok)
	again, err := tree.Add("scene.outdoor")
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestInsertErrors(t *testing.T) {
	tree := tagtree.New()
	require.NoError(t, tree.Insert(10, tagtree.Root, "scene"))
	assert.ErrorIs(t, tree.Insert(10, tagtree.Root, "event"), tagtree.ErrExists)
	assert.ErrorIs(t, tree.Insert(11, tagtree.Root, "scene"), tagtree.ErrExists)
	assert.ErrorIs(t, tree.Insert(12, 99, "lake"), tagtree.ErrNoParent)
	assert.ErrorIs(t, tree.Insert(13, 10, "a.b"), tagtree.ErrBadName)
	assert.ErrorIs(t, tree.Insert(0, 10, "x"), tagtree.ErrBadID)
	_, err := tree.Add("a..b")
	assert.ErrorIs(t, err, tagtree.ErrBadName)
	// Allocation continues after the highest explicit ID.
	id, err := tree.Add("scene.indoor")
	require.NoError(t, err)
	assert.Equal(t, tagtree.ID(11), id)
}

func TestDescendants(t *testing.T) {
	tree := newTree(t, "scene.outdoor.lake", "scene.outdoor.hike", "scene.outdoorsy", "scene.indoor")
	outdoor, _ := tree.Lookup("scene.outdoor")
	var paths []string
	for _, id := range tree.Descendants(outdoor, true) {
		paths = append(paths, tree.Path(id))
	}
	assert.Equal(t, []string{"scene.outdoor", "scene.outdoor.hike", "scene.outdoor.lake"}, paths)
	assert.Len(t, tree.Descendants(outdoor, false), 2)
	lake, _ := tree.Lookup("scene.outdoor.lake")
	assert.Empty(t, tree.Descendants(lake, false))
}

func TestChildrenOrdered(t *testing.T) {
	tree := newTree(t, "event.vacation", "event.birthday", "event.christmas")
	event, _ := tree.Lookup("event")
	var names []string
	for _, n := range tree.Children(event) {
		names = append(names, n.Name)
		assert.Equal(t, event, n.Parent)
	}
	assert.Equal(t, []string{"birthday", "christmas", "vacation"}, names)
	id, ok := tree.Child(event, "Birthday")
	require.True(t, ok)
	assert.Equal(t, "event.birthday", tree.Path(id))
}

func TestCloneIsolation(t *testing.T) {
	tree := newTree(t, "scene.outdoor")
	snap := tree.Clone()
	_, err := tree.Add("scene.outdoor.lake")
	require.NoError(t, err)
	_, err = tree.Add("person")
	require.NoError(t, err)

	_, ok := snap.Lookup("scene.outdoor.lake")
	assert.False(t, ok)
	_, ok = snap.Lookup("person")
	assert.False(t, ok)
	outdoor, _ := snap.Lookup("scene.outdoor")
	assert.Empty(t, snap.Children(outdoor))
	assert.Len(t, tree.Children(outdoor), 1)
}

func TestWalk(t *testing.T) {
	tree := newTree(t, "b.x", "a")
	var out []string
	err := tree.Walk(func(n tagtree.Node, depth int) error {
		out = append(out, n.Name)
		if depth > 0 {
			out[len(out)-1] = "-" + n.Name
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "-x"}, out)
	assert.Equal(t, []string{"a", "b", "b.x"}, tree.Paths())
}
