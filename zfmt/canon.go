// Package zfmt formats query syntax trees as canonical query text.  The
// output of Normalized parses and normalizes back to a tree of the same
// shape.
package zfmt

import (
	"strconv"
	"strings"

	"github.com/jeremymatt/photo-manager/compiler/ast"
	"github.com/jeremymatt/photo-manager/field"
	"github.com/jeremymatt/photo-manager/schema"
)

// AST formats a tree as parsed.  Tag paths that cannot be written bare are
// printed in the legacy key=="value" form.
func AST(e ast.Expr) string {
	c := &canon{}
	c.expr(e, false)
	return c.String()
}

// Normalized formats a normalized tree.  A tag reference whose path is a
// declared field of s was produced by the legacy rewrite, so like a path
// that cannot be written bare it is printed in the key=="value" form.
func Normalized(e ast.Expr, s *schema.Schema) string {
	c := &canon{schema: s}
	c.expr(e, false)
	return c.String()
}

// Literal returns the canonical text of a literal: strings double quoted,
// floats always carrying a decimal point.
func Literal(l *ast.Literal) string {
	switch v := l.Value.(type) {
	case nil:
		return "None"
	case string:
		return quote(v)
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
	return l.Text
}

// quote double quotes s using only the escapes the lexer decodes.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

type canon struct {
	formatter
	schema *schema.Schema
}

func (c *canon) isField(path string) bool {
	if c.schema == nil {
		return false
	}
	_, ok := c.schema.Lookup(path)
	return ok
}

// tagRef writes a reference to path with no wildcard.
func (c *canon) tagRef(path string) {
	if field.Bare(path) && !c.isField(path) {
		c.write("tag.%s", path)
		return
	}
	for k := strings.LastIndexByte(path, '.'); k > 0; k = strings.LastIndexByte(path[:k], '.') {
		key := path[:k]
		if field.Bare(key) && !c.isField(key) {
			c.write("tag.%s==%s", key, quote(path[k+1:]))
			return
		}
	}
	c.write("tag.%s", path)
}

func (c *canon) expr(e ast.Expr, paren bool) {
	switch e := e.(type) {
	case nil:
		c.write("(nil)")
	case *ast.TagRef:
		switch e.Wildcard {
		case ast.WildcardSelf:
			c.write("tag.%s*", e.Path)
		case ast.WildcardDescendants:
			c.write("tag.%s.*", e.Path)
		default:
			c.tagRef(e.Path)
		}
	case *ast.Compare:
		c.write("tag.%s%s%s", e.Field, e.Op, Literal(e.Value))
	case *ast.UnaryExpr:
		c.write(e.Op)
		_, binary := e.Operand.(*ast.BinaryExpr)
		c.expr(e.Operand, binary)
	case *ast.BinaryExpr:
		if paren {
			c.write("(")
		}
		c.expr(e.LHS, needsParen(e.LHS, e.Op, false))
		c.space()
		c.write(e.Op)
		c.space()
		c.expr(e.RHS, needsParen(e.RHS, e.Op, true))
		if paren {
			c.write(")")
		}
	default:
		c.write("(unknown expr %T)", e)
	}
}

func precedence(op string) int {
	if op == ast.OpAnd {
		return 2
	}
	return 1
}

// needsParen reports whether the operand e of a binary op must be
// parenthesized to keep its shape, given that both operators are left
// associative.
func needsParen(e ast.Expr, op string, rhs bool) bool {
	b, ok := e.(*ast.BinaryExpr)
	if !ok {
		return false
	}
	child, parent := precedence(b.Op), precedence(op)
	return child < parent || (rhs && child == parent)
}
