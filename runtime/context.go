package runtime

import (
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/jeremymatt/photo-manager/tagtree"
)

// Context provides the tag tree snapshot and the field schema that a query
// is resolved against.  Neither is modified while a query built against the
// context is in use.
type Context struct {
	Tree   *tagtree.Tree
	Schema *schema.Schema
}

func NewContext(tree *tagtree.Tree, s *schema.Schema) *Context {
	return &Context{Tree: tree, Schema: s}
}

// DefaultContext returns a context with an empty tag tree and the default
// photo schema.
func DefaultContext() *Context {
	return NewContext(tagtree.New(), schema.Default())
}
