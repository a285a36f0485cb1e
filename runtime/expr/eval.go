// Package expr evaluates query syntax trees directly against records.
// It is the reference semantics for the language: the batch compiler must
// classify every record the same way.
package expr

import (
	"errors"
	"fmt"

	"github.com/jeremymatt/photo-manager/compiler/ast"
	"github.com/jeremymatt/photo-manager/runtime"
	"github.com/jeremymatt/photo-manager/schema"
)

type Evaluator interface {
	Eval(*schema.Record) bool
}

// Compile type checks e against ctx and returns its evaluator.  e should
// already be normalized.  All errors are reported here so evaluation
// itself cannot fail.
func Compile(ctx *runtime.Context, e ast.Expr) (Evaluator, error) {
	switch e := e.(type) {
	case nil:
		return nil, errors.New("illegal null value encountered in AST")
	case *ast.TagRef:
		return NewTagMatch(ctx.Tree, e)
	case *ast.Compare:
		f, err := CheckCompare(e, ctx.Schema)
		if err != nil {
			return nil, err
		}
		pred, err := NewComparison(f.Kind, e)
		if err != nil {
			return nil, err
		}
		return &Comparison{field: f.Name, pred: pred}, nil
	case *ast.UnaryExpr:
		if e.Op != ast.OpNot {
			return nil, fmt.Errorf("unknown unary operator %q", e.Op)
		}
		operand, err := Compile(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		return NewLogicalNot(operand), nil
	case *ast.BinaryExpr:
		lhs, err := Compile(ctx, e.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := Compile(ctx, e.RHS)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case ast.OpAnd:
			return NewLogicalAnd(lhs, rhs), nil
		case ast.OpOr:
			return NewLogicalOr(lhs, rhs), nil
		}
		return nil, fmt.Errorf("unknown binary operator %q", e.Op)
	}
	return nil, fmt.Errorf("invalid expression type %T", e)
}

// Filter classifies each record with e.
func Filter(e Evaluator, records []*schema.Record) []bool {
	out := make([]bool, len(records))
	for k, r := range records {
		out[k] = e.Eval(r)
	}
	return out
}

type constant bool

// False is the evaluator of a reference that can never match.
var False Evaluator = constant(false)

func (c constant) Eval(*schema.Record) bool { return bool(c) }

type Comparison struct {
	field string
	pred  Predicate
}

func (c *Comparison) Eval(r *schema.Record) bool {
	return c.pred(r.Field(c.field))
}

type Not struct {
	expr Evaluator
}

var _ Evaluator = (*Not)(nil)

func NewLogicalNot(e Evaluator) *Not {
	return &Not{e}
}

func (n *Not) Eval(r *schema.Record) bool {
	return !n.expr.Eval(r)
}

type And struct {
	lhs Evaluator
	rhs Evaluator
}

func NewLogicalAnd(lhs, rhs Evaluator) *And {
	return &And{lhs, rhs}
}

func (a *And) Eval(r *schema.Record) bool {
	return a.lhs.Eval(r) && a.rhs.Eval(r)
}

type Or struct {
	lhs Evaluator
	rhs Evaluator
}

func NewLogicalOr(lhs, rhs Evaluator) *Or {
	return &Or{lhs, rhs}
}

func (o *Or) Eval(r *schema.Record) bool {
	return o.lhs.Eval(r) || o.rhs.Eval(r)
}
