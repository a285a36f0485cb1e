package expr

import (
	"fmt"

	"github.com/jeremymatt/photo-manager/compiler/ast"
	"github.com/jeremymatt/photo-manager/field"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/jeremymatt/photo-manager/tagtree"
)

// MatchTag reports whether the assigned tags satisfy a reference to path
// with the given wildcard mode.  Paths are compared as normalized strings so
// "scene.outdoorsy" is not beneath "scene.outdoor".
func MatchTag(tags schema.TagSet, path, mode string) bool {
	switch mode {
	case ast.WildcardNone:
		return tags.Has(path)
	case ast.WildcardSelf:
		if tags.Has(path) {
			return true
		}
	}
	for t := range tags {
		if field.IsDescendant(t, path) {
			return true
		}
	}
	return false
}

// TagMatch evaluates a tag reference.
type TagMatch struct {
	path string
	mode string
}

var _ Evaluator = (*TagMatch)(nil)

// NewTagMatch resolves ref against tree.  A path with no node in the tree
// cannot be assigned to any image so the reference compiles to constant
// false.  A nil tree skips the check.
func NewTagMatch(tree *tagtree.Tree, ref *ast.TagRef) (Evaluator, error) {
	switch ref.Wildcard {
	case ast.WildcardNone, ast.WildcardSelf, ast.WildcardDescendants:
	default:
		return nil, fmt.Errorf("unknown wildcard mode %q", ref.Wildcard)
	}
	path := field.Normalize(ref.Path)
	if tree != nil {
		if _, ok := tree.Lookup(path); !ok {
			return False, nil
		}
	}
	return &TagMatch{path: path, mode: ref.Wildcard}, nil
}

func (t *TagMatch) Eval(r *schema.Record) bool {
	return MatchTag(r.Tags, t.path, t.mode)
}
