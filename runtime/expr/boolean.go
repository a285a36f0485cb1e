package expr

import (
	"fmt"

	"github.com/jeremymatt/photo-manager/compiler/ast"
	"github.com/jeremymatt/photo-manager/schema"
)

// Predicate reports whether a field value satisfies a comparison.
type Predicate func(schema.Value) bool

var compareBool = map[string]func(bool, bool) bool{
	"==": func(a, b bool) bool { return a == b },
	"!=": func(a, b bool) bool { return a != b },
}

var compareInt = map[string]func(int64, int64) bool{
	"==": func(a, b int64) bool { return a == b },
	"!=": func(a, b int64) bool { return a != b },
	">":  func(a, b int64) bool { return a > b },
	">=": func(a, b int64) bool { return a >= b },
	"<":  func(a, b int64) bool { return a < b },
	"<=": func(a, b int64) bool { return a <= b }}

var compareFloat = map[string]func(float64, float64) bool{
	"==": func(a, b float64) bool { return a == b },
	"!=": func(a, b float64) bool { return a != b },
	">":  func(a, b float64) bool { return a > b },
	">=": func(a, b float64) bool { return a >= b },
	"<":  func(a, b float64) bool { return a < b },
	"<=": func(a, b float64) bool { return a <= b }}

var compareString = map[string]func(string, string) bool{
	"==": func(a, b string) bool { return a == b },
	"!=": func(a, b string) bool { return a != b },
	">":  func(a, b string) bool { return a > b },
	">=": func(a, b string) bool { return a >= b },
	"<":  func(a, b string) bool { return a < b },
	"<=": func(a, b string) bool { return a <= b }}

// CheckCompare type checks c against s and returns the declared field it
// names.  The direct evaluator and the batch compiler both call it so the
// two strategies reject exactly the same queries.
func CheckCompare(c *ast.Compare, s *schema.Schema) (schema.Field, error) {
	f, ok := s.Lookup(c.Field)
	if !ok {
		return schema.Field{}, &UnknownFieldError{Field: c.Field, Suggestion: s.Suggest(c.Field), Pos: c.Pos()}
	}
	lit := c.Value
	typeErr := &TypeError{Field: f.Name, Kind: f.Kind, Literal: lit.Type, Op: c.Op, Pos: lit.Pos()}
	switch c.Op {
	case ast.OpEq, ast.OpNe:
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if lit.Type == ast.TypeNone || !f.Kind.Ordered() {
			return f, typeErr
		}
	default:
		return f, fmt.Errorf("unknown comparison operator %q", c.Op)
	}
	switch lit.Type {
	case ast.TypeNone:
		return f, nil
	case ast.TypeInt, ast.TypeFloat:
		if f.Kind.Numeric() {
			return f, nil
		}
	case ast.TypeString:
		if f.Kind == schema.KindString {
			return f, nil
		}
	case ast.TypeBool:
		if f.Kind == schema.KindBool {
			return f, nil
		}
	default:
		return f, fmt.Errorf("unknown literal type %q", lit.Type)
	}
	return f, typeErr
}

// NewComparison returns the predicate for the comparison c, which must
// already have passed CheckCompare for a field of kind k.  An absent value
// satisfies only "==None"; any other comparison with it is false.
func NewComparison(k schema.Kind, c *ast.Compare) (Predicate, error) {
	op := c.Op
	switch v := c.Value.Value.(type) {
	case nil:
		if op == ast.OpEq {
			return func(val schema.Value) bool { return val.IsAbsent() }, nil
		}
		return func(val schema.Value) bool { return !val.IsAbsent() }, nil
	case int64:
		if k == schema.KindInt {
			compare := compareInt[op]
			return func(val schema.Value) bool {
				return val.Kind == schema.KindInt && compare(val.Int(), v)
			}, nil
		}
		return compareNumber(op, float64(v)), nil
	case float64:
		return compareNumber(op, v), nil
	case string:
		compare := compareString[op]
		return func(val schema.Value) bool {
			return val.Kind == schema.KindString && compare(val.Text(), v)
		}, nil
	case bool:
		compare, ok := compareBool[op]
		if !ok {
			return nil, fmt.Errorf("unknown bool comparator: %s", op)
		}
		return func(val schema.Value) bool {
			return val.Kind == schema.KindBool && compare(val.Bool(), v)
		}, nil
	}
	return nil, fmt.Errorf("unsupported literal %v (%T)", c.Value.Value, c.Value.Value)
}

func compareNumber(op string, pattern float64) Predicate {
	compare := compareFloat[op]
	return func(val schema.Value) bool {
		return val.Kind.Numeric() && compare(val.Float(), pattern)
	}
}
