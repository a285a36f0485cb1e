// Package tagtree implements the hierarchical tag tree as an arena of nodes
// addressed by stable integer IDs.  A node refers to its parent only by ID,
// so the structure has no ownership cycles.  Children are kept in ordered
// maps and every full path is interned in a path index, which makes subtree
// lookups a range scan.
//
// A Tree is not safe for concurrent mutation.  Owners publish snapshots
// with Clone, which is cheap because the underlying B-trees are
// copy-on-write, and never mutate a tree once it has been handed out.
package tagtree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeremymatt/photo-manager/field"
	"github.com/tidwall/btree"
)

// ID identifies a node.  Valid IDs are positive; Root (zero) stands for the
// implicit root above all top-level tags.
type ID int64

const Root ID = 0

var (
	ErrNotFound  = errors.New("tag not found")
	ErrExists    = errors.New("tag already exists")
	ErrBadName   = errors.New("invalid tag name")
	ErrBadID     = errors.New("invalid tag id")
	ErrNoParent  = errors.New("parent tag not found")
	ErrEmptyPath = errors.New("empty tag path")
)

type Node struct {
	ID     ID
	Name   string
	Parent ID
	// children maps a child segment name to its ID.
	children *btree.Map[string, ID]
}

type Tree struct {
	nodes *btree.Map[ID, Node]
	paths *btree.Map[string, ID]
	roots *btree.Map[string, ID]
	next  ID
}

func New() *Tree {
	return &Tree{
		nodes: btree.NewMap[ID, Node](0),
		paths: btree.NewMap[string, ID](0),
		roots: btree.NewMap[string, ID](0),
		next:  1,
	}
}

// Clone returns a snapshot of t.  Later mutations of either tree are not
// visible in the other.
func (t *Tree) Clone() *Tree {
	return &Tree{
		nodes: t.nodes.Copy(),
		paths: t.paths.Copy(),
		roots: t.roots.Copy(),
		next:  t.next,
	}
}

func (t *Tree) Len() int {
	return t.nodes.Len()
}

// Insert adds the node id named name beneath parent.  Storage layers use
// Insert to rebuild a tree whose IDs match their own row IDs.
func (t *Tree) Insert(id, parent ID, name string) error {
	if id <= Root {
		return fmt.Errorf("%w: %d", ErrBadID, id)
	}
	if name == "" || strings.Contains(name, ".") {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	name = field.Normalize(name)
	if _, ok := t.nodes.Get(id); ok {
		return fmt.Errorf("%w: id %d", ErrExists, id)
	}
	siblings := t.roots
	path := name
	var p Node
	if parent != Root {
		var ok bool
		if p, ok = t.nodes.Get(parent); !ok {
			return fmt.Errorf("%w: id %d", ErrNoParent, parent)
		}
		siblings = p.children
		path = t.Path(parent) + "." + name
	}
	if _, ok := siblings.Get(name); ok {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	// The sibling map may be shared with an earlier snapshot so it is
	// copied before being modified.
	siblings = siblings.Copy()
	siblings.Set(name, id)
	if parent == Root {
		t.roots = siblings
	} else {
		p.children = siblings
		t.nodes.Set(parent, p)
	}
	t.nodes.Set(id, Node{
		ID:       id,
		Name:     name,
		Parent:   parent,
		children: btree.NewMap[string, ID](0),
	})
	t.paths.Set(path, id)
	if id >= t.next {
		t.next = id + 1
	}
	return nil
}

// Add ensures every node along the dotted path exists, allocating IDs for
// missing nodes, and returns the ID of the last one.
func (t *Tree) Add(path string) (ID, error) {
	p := field.Dotted(path)
	if p.IsRoot() {
		return Root, ErrEmptyPath
	}
	if !p.Valid() {
		return Root, fmt.Errorf("%w: %q", ErrBadName, path)
	}
	parent := Root
	for k := range p {
		if id, ok := t.paths.Get(p[:k+1].String()); ok {
			parent = id
			continue
		}
		id := t.next
		if err := t.Insert(id, parent, p[k]); err != nil {
			return Root, err
		}
		parent = id
	}
	return parent, nil
}

// Lookup returns the ID of the node at the dotted path.
func (t *Tree) Lookup(path string) (ID, bool) {
	return t.paths.Get(field.Normalize(path))
}

func (t *Tree) Node(id ID) (Node, bool) {
	return t.nodes.Get(id)
}

// Path reconstructs the full dotted path of id by following parent
// references.  It returns the empty string for Root or an unknown ID.
func (t *Tree) Path(id ID) string {
	var segs []string
	for id != Root {
		n, ok := t.nodes.Get(id)
		if !ok {
			return ""
		}
		segs = append(segs, n.Name)
		id = n.Parent
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, ".")
}

// Child returns the ID of the child of parent named name.
func (t *Tree) Child(parent ID, name string) (ID, bool) {
	if parent == Root {
		return t.roots.Get(field.Normalize(name))
	}
	n, ok := t.nodes.Get(parent)
	if !ok {
		return Root, false
	}
	return n.children.Get(field.Normalize(name))
}

// Children returns the children of id ordered by name.
func (t *Tree) Children(id ID) []Node {
	m := t.roots
	if id != Root {
		n, ok := t.nodes.Get(id)
		if !ok {
			return nil
		}
		m = n.children
	}
	var out []Node
	m.Scan(func(_ string, child ID) bool {
		if n, ok := t.nodes.Get(child); ok {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Descendants returns the IDs of every node beneath id in path order,
// preceded by id itself when includeSelf is true.
func (t *Tree) Descendants(id ID, includeSelf bool) []ID {
	var out []ID
	if id == Root {
		t.paths.Scan(func(_ string, v ID) bool {
			out = append(out, v)
			return true
		})
		return out
	}
	path := t.Path(id)
	if path == "" {
		return nil
	}
	if includeSelf {
		out = append(out, id)
	}
	prefix := path + "."
	t.paths.Ascend(prefix, func(k string, v ID) bool {
		if !strings.HasPrefix(k, prefix) {
			return false
		}
		out = append(out, v)
		return true
	})
	return out
}

// Walk visits every node depth-first with siblings in name order.  Depth
// is zero for top-level tags.
func (t *Tree) Walk(visit func(n Node, depth int) error) error {
	return t.walk(Root, 0, visit)
}

func (t *Tree) walk(id ID, depth int, visit func(Node, int) error) error {
	for _, n := range t.Children(id) {
		if err := visit(n, depth); err != nil {
			return err
		}
		if err := t.walk(n.ID, depth+1, visit); err != nil {
			return err
		}
	}
	return nil
}

// Paths returns every full path in the tree in lexical order.
func (t *Tree) Paths() []string {
	out := make([]string, 0, t.paths.Len())
	t.paths.Scan(func(k string, _ ID) bool {
		out = append(out, k)
		return true
	})
	return out
}
