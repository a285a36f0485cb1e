// Package compiler is the entry point for tag queries: it parses query text,
// rewrites legacy syntax and type checks the result against a context,
// producing a Query that can classify records directly or be compiled to
// SQL.
package compiler

import (
	"github.com/jeremymatt/photo-manager/compiler/ast"
	"github.com/jeremymatt/photo-manager/compiler/batch"
	"github.com/jeremymatt/photo-manager/compiler/parser"
	"github.com/jeremymatt/photo-manager/compiler/semantic"
	"github.com/jeremymatt/photo-manager/runtime"
	"github.com/jeremymatt/photo-manager/runtime/expr"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/jeremymatt/photo-manager/zfmt"
)

// Parse returns the syntax tree of src as written, without normalization.
func Parse(src string) (ast.Expr, error) {
	return parser.Parse(src)
}

// Query is a compiled query bound to the context it was compiled against.
// A Query is safe for concurrent use as long as the context's tree and
// schema are not modified.
type Query struct {
	src  string
	ctx  *runtime.Context
	ast  ast.Expr
	eval expr.Evaluator
}

// Compile parses src, normalizes it against ctx.Schema and type checks it.
// Syntax errors are returned as *parser.Error and field errors as
// *expr.UnknownFieldError or *expr.TypeError.
func Compile(src string, ctx *runtime.Context) (*Query, error) {
	e, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return CompileAST(src, e, ctx)
}

// CompileAST is like Compile for an already parsed expression.  src is
// kept for display only.
func CompileAST(src string, e ast.Expr, ctx *runtime.Context) (*Query, error) {
	e, err := semantic.Normalize(e, ctx.Schema)
	if err != nil {
		return nil, err
	}
	eval, err := expr.Compile(ctx, e)
	if err != nil {
		return nil, err
	}
	return &Query{src: src, ctx: ctx, ast: e, eval: eval}, nil
}

// AST returns the normalized syntax tree.
func (q *Query) AST() ast.Expr {
	return q.ast
}

func (q *Query) Source() string {
	return q.src
}

func (q *Query) Context() *runtime.Context {
	return q.ctx
}

// String returns the canonical text of the normalized query.
func (q *Query) String() string {
	return zfmt.Normalized(q.ast, q.ctx.Schema)
}

func (q *Query) Match(r *schema.Record) bool {
	return q.eval.Eval(r)
}

// Filter classifies records, returning one result per record.
func (q *Query) Filter(records []*schema.Record) []bool {
	return expr.Filter(q.eval, records)
}

// SQL compiles q into a filter over the images table for dialect d.
func (q *Query) SQL(d batch.Dialect) (*batch.Filter, error) {
	return batch.Compile(q.ctx, q.ast, d)
}
