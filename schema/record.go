package schema

import (
	"github.com/jeremymatt/photo-manager/field"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// TagSet is the set of tag paths explicitly assigned to an image.
// Ancestors of an assigned path are not implied.
type TagSet map[string]struct{}

func NewTagSet(paths ...string) TagSet {
	t := make(TagSet, len(paths))
	for _, p := range paths {
		t.Add(p)
	}
	return t
}

func (t TagSet) Add(path string) {
	t[field.Normalize(path)] = struct{}{}
}

func (t TagSet) Has(path string) bool {
	_, ok := t[path]
	return ok
}

// Sorted returns the paths of t in lexical order.
func (t TagSet) Sorted() []string {
	out := maps.Keys(t)
	slices.Sort(out)
	return out
}

// Record is the read-only view of one image that queries are evaluated
// against.  A field missing from Fields is absent.
type Record struct {
	ID     int64            `json:"id"`
	Path   string           `json:"path"`
	Fields map[string]Value `json:"fields"`
	Tags   TagSet           `json:"-"`
}

// Field returns the value of the named field or Absent.
func (r *Record) Field(name string) Value {
	return r.Fields[name]
}
