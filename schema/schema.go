// Package schema defines the fixed-field schema of image records along with
// the record view the query engine evaluates.
package schema

import (
	"fmt"
	"regexp"

	"github.com/agnivade/levenshtein"
	"github.com/jeremymatt/photo-manager/field"
	"go.uber.org/multierr"
)

// Field is a declared fixed field.  Name is the dotted name used in queries
// and Column is the name of the images table column holding its value.
type Field struct {
	Name   string `json:"name" yaml:"name"`
	Column string `json:"column" yaml:"column"`
	Kind   Kind   `json:"kind" yaml:"kind"`
}

// Schema is an immutable ordered set of fields.
type Schema struct {
	fields []Field
	byName map[string]int
}

// MaxSuggestDistance bounds the edit distance of a did-you-mean suggestion.
const MaxSuggestDistance = 3

var columnRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Columns of the images table that no field may claim.
var reservedColumns = map[string]bool{"id": true, "filepath": true}

// New validates fields and returns a schema.  Every problem found is
// reported in the returned error.
func New(fields []Field) (*Schema, error) {
	s := &Schema{byName: make(map[string]int)}
	columns := make(map[string]string)
	var err error
	for _, f := range fields {
		name := field.Normalize(f.Name)
		if !field.Dotted(name).Valid() {
			err = multierr.Append(err, fmt.Errorf("field %q: invalid name", f.Name))
			continue
		}
		if _, ok := s.byName[name]; ok {
			err = multierr.Append(err, fmt.Errorf("field %q: declared more than once", name))
			continue
		}
		if _, ok := kindNames[f.Kind]; !ok {
			err = multierr.Append(err, fmt.Errorf("field %q: invalid kind %s", name, f.Kind))
		}
		switch {
		case !columnRE.MatchString(f.Column):
			err = multierr.Append(err, fmt.Errorf("field %q: invalid column %q", name, f.Column))
		case reservedColumns[f.Column]:
			err = multierr.Append(err, fmt.Errorf("field %q: column %q is reserved", name, f.Column))
		case columns[f.Column] != "":
			err = multierr.Append(err, fmt.Errorf("field %q: column %q already used by %q", name, f.Column, columns[f.Column]))
		default:
			columns[f.Column] = name
		}
		s.byName[name] = len(s.fields)
		s.fields = append(s.fields, Field{Name: name, Column: f.Column, Kind: f.Kind})
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Lookup returns the field named name.
func (s *Schema) Lookup(name string) (Field, bool) {
	k, ok := s.byName[field.Normalize(name)]
	if !ok {
		return Field{}, false
	}
	return s.fields[k], true
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

func (s *Schema) Len() int {
	return len(s.fields)
}

// Suggest returns the declared field closest to name, or the empty string
// if none is within MaxSuggestDistance edits.
func (s *Schema) Suggest(name string) string {
	name = field.Normalize(name)
	best, bestDist := "", MaxSuggestDistance+1
	for _, f := range s.fields {
		if d := levenshtein.ComputeDistance(name, f.Name); d < bestDist {
			best, bestDist = f.Name, d
		}
	}
	return best
}

var defaultFields = []Field{
	{"favorite", "favorite", KindBool},
	{"to_delete", "to_delete", KindBool},
	{"reviewed", "reviewed", KindBool},
	{"auto_tag_errors", "auto_tag_errors", KindBool},
	{"datetime", "datetime", KindString},
	{"datetime.year", "year", KindInt},
	{"datetime.month", "month", KindInt},
	{"datetime.day", "day", KindInt},
	{"datetime.hr", "hour", KindInt},
	{"datetime.min", "minute", KindInt},
	{"datetime.sec", "second", KindInt},
	{"location.latitude", "latitude", KindFloat},
	{"location.longitude", "longitude", KindFloat},
	{"location.has_lat_lon", "has_lat_lon", KindBool},
	{"location.city", "city", KindString},
	{"location.town", "town", KindString},
	{"location.state", "state", KindString},
	{"image_size.width", "width", KindInt},
	{"image_size.height", "height", KindInt},
}

// Default returns the schema of the photo catalog.
func Default() *Schema {
	s, err := New(defaultFields)
	if err != nil {
		panic(err)
	}
	return s
}
