// Package ast declares the types used to represent syntax trees for tag
// queries.
package ast

// This module is derived from the GO AST design pattern in
// https://golang.org/pkg/go/ast/
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

type Node interface {
	Pos() int // Position of first character belonging to the node.
	End() int // Position of first character immediately after the node.
}

// Expr is implemented by the four expression nodes declared below and by
// nothing else.  Consumers switch over the concrete types and treat any
// other type as an error.
type Expr interface {
	Node
	exprAST()
}

// Wildcard modes of a TagRef.
const (
	// WildcardNone matches the exact path only.
	WildcardNone = ""
	// WildcardSelf matches the path and every path beneath it ("tag.p*").
	WildcardSelf = "self"
	// WildcardDescendants matches paths strictly beneath the path ("tag.p.*").
	WildcardDescendants = "descendants"
)

// Literal types.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeNone   = "none"
)

// Operators.
const (
	OpEq  = "=="
	OpNe  = "!="
	OpLt  = "<"
	OpLe  = "<="
	OpGt  = ">"
	OpGe  = ">="
	OpNot = "!"
	OpAnd = "&&"
	OpOr  = "||"
)

// IsOrdering reports whether op is one of the ordering comparisons.
func IsOrdering(op string) bool {
	switch op {
	case OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// TagRef is a reference to a dotted path following "tag.".  Path is
// normalized to lowercase.
type TagRef struct {
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Wildcard string `json:"wildcard,omitempty"`
	TagPos   int    `json:"tag_pos"`
	EndPos   int    `json:"end_pos"`
}

func (t *TagRef) Pos() int { return t.TagPos }
func (t *TagRef) End() int { return t.EndPos }

// Compare is a comparison of the field or tag path Field against a literal.
type Compare struct {
	Kind   string   `json:"kind"`
	Field  string   `json:"field"`
	Op     string   `json:"op"`
	Value  *Literal `json:"value"`
	TagPos int      `json:"tag_pos"`
}

func (c *Compare) Pos() int { return c.TagPos }
func (c *Compare) End() int { return c.Value.End() }

// Literal is a constant.  Text is the source text of the literal and Value
// holds the decoded string, int64, float64 or bool, or nil for None.
type Literal struct {
	Kind    string `json:"kind"`
	Type    string `json:"type"`
	Text    string `json:"text"`
	Value   any    `json:"value"`
	TextPos int    `json:"text_pos"`
}

func (l *Literal) Pos() int { return l.TextPos }
func (l *Literal) End() int { return l.TextPos + len(l.Text) }

type UnaryExpr struct {
	Kind    string `json:"kind"`
	Op      string `json:"op"`
	OpPos   int    `json:"op_pos"`
	Operand Expr   `json:"operand"`
}

func (u *UnaryExpr) Pos() int { return u.OpPos }
func (u *UnaryExpr) End() int { return u.Operand.End() }

// A BinaryExpr is a logical "&&" or "||" of two expressions.
type BinaryExpr struct {
	Kind string `json:"kind"`
	Op   string `json:"op"`
	LHS  Expr   `json:"lhs"`
	RHS  Expr   `json:"rhs"`
}

func (b *BinaryExpr) Pos() int { return b.LHS.Pos() }
func (b *BinaryExpr) End() int { return b.RHS.End() }

func (*TagRef) exprAST()     {}
func (*Compare) exprAST()    {}
func (*UnaryExpr) exprAST()  {}
func (*BinaryExpr) exprAST() {}

func NewTagRef(path, wildcard string, pos, end int) *TagRef {
	return &TagRef{Kind: "TagRef", Path: path, Wildcard: wildcard, TagPos: pos, EndPos: end}
}

func NewCompare(field, op string, val *Literal, pos int) *Compare {
	return &Compare{Kind: "Compare", Field: field, Op: op, Value: val, TagPos: pos}
}

func NewLiteral(typ, text string, val any, pos int) *Literal {
	return &Literal{Kind: "Literal", Type: typ, Text: text, Value: val, TextPos: pos}
}

func NewUnary(op string, pos int, operand Expr) *UnaryExpr {
	return &UnaryExpr{Kind: "UnaryExpr", Op: op, OpPos: pos, Operand: operand}
}

func NewBinary(op string, lhs, rhs Expr) *BinaryExpr {
	return &BinaryExpr{Kind: "BinaryExpr", Op: op, LHS: lhs, RHS: rhs}
}
