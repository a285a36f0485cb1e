// Package semantic rewrites parsed queries into the form evaluated by the
// direct and batch strategies.
package semantic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeremymatt/photo-manager/compiler/ast"
	"github.com/jeremymatt/photo-manager/field"
	"github.com/jeremymatt/photo-manager/schema"
)

// Normalize returns e with the legacy and shorthand forms rewritten:
//
//	tag.k=="v"  ->  tag.k.v       when k is not a declared field
//	tag.k!="v"  ->  !tag.k.v      when k is not a declared field
//	tag.f       ->  tag.f==true   when f is a declared bool field
//	tag.f       ->  tag.f!=None   when f is a declared field of another kind
//
// A declared field always takes precedence over a tag of the same name.
// Wildcard references are never rewritten.  e itself is not modified.
func Normalize(e ast.Expr, s *schema.Schema) (ast.Expr, error) {
	switch e := e.(type) {
	case nil:
		return nil, errors.New("semantic analysis: illegal null value encountered in AST")
	case *ast.TagRef:
		return semTagRef(e, s), nil
	case *ast.Compare:
		return semCompare(e, s), nil
	case *ast.UnaryExpr:
		operand, err := Normalize(e.Operand, s)
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(e.Op, e.OpPos, operand), nil
	case *ast.BinaryExpr:
		lhs, err := Normalize(e.LHS, s)
		if err != nil {
			return nil, err
		}
		rhs, err := Normalize(e.RHS, s)
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(e.Op, lhs, rhs), nil
	}
	return nil, fmt.Errorf("invalid expression type %T", e)
}

func semTagRef(e *ast.TagRef, s *schema.Schema) ast.Expr {
	if e.Wildcard == ast.WildcardNone {
		if f, ok := s.Lookup(e.Path); ok {
			if f.Kind == schema.KindBool {
				return ast.NewCompare(f.Name, ast.OpEq, ast.NewLiteral(ast.TypeBool, "true", true, e.TagPos), e.TagPos)
			}
			return ast.NewCompare(f.Name, ast.OpNe, ast.NewLiteral(ast.TypeNone, "None", nil, e.TagPos), e.TagPos)
		}
	}
	return ast.NewTagRef(e.Path, e.Wildcard, e.TagPos, e.EndPos)
}

func semCompare(e *ast.Compare, s *schema.Schema) ast.Expr {
	val := *e.Value
	if _, ok := s.Lookup(e.Field); ok || val.Type == ast.TypeNone {
		return ast.NewCompare(e.Field, e.Op, &val, e.TagPos)
	}
	if e.Op != ast.OpEq && e.Op != ast.OpNe {
		return ast.NewCompare(e.Field, e.Op, &val, e.TagPos)
	}
	ref := ast.NewTagRef(LegacyPath(e.Field, val.Value), ast.WildcardNone, e.TagPos, val.End())
	if e.Op == ast.OpNe {
		return ast.NewUnary(ast.OpNot, e.TagPos, ref)
	}
	return ref
}

// LegacyPath returns the tag path selected by the legacy comparison
// tag.key==val.
func LegacyPath(key string, val any) string {
	return field.Normalize(key + "." + literalText(val))
}

func literalText(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}
