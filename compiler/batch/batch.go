// Package batch compiles query syntax trees into SQL filters that classify
// every image in one pass over the images table.
//
// Tag references become EXISTS probes into image_tags, which is indexed on
// (image_id, tag_id), with tag paths resolved to tag IDs through the tag
// tree snapshot.  Field comparisons are guarded by IS NOT NULL so that no
// predicate ever yields NULL and NOT keeps its two-valued meaning.  A
// wildcard over more than MaxInlineTagIDs tags selects its tag IDs from the
// tags table by path prefix.
package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeremymatt/photo-manager/compiler/ast"
	"github.com/jeremymatt/photo-manager/runtime"
	"github.com/jeremymatt/photo-manager/runtime/expr"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/jeremymatt/photo-manager/tagtree"
)

// Filter is a compiled WHERE clause over "images i" with its positional
// arguments.
type Filter struct {
	Dialect string `json:"dialect"`
	Where   string `json:"where"`
	Args    []any  `json:"args"`
}

// Select returns the statement listing the IDs of matching images.
func (f *Filter) Select() string {
	return "SELECT i.id FROM images i WHERE " + f.Where + " ORDER BY i.id"
}

// Count returns the statement counting matching images.
func (f *Filter) Count() string {
	return "SELECT COUNT(*) FROM images i WHERE " + f.Where
}

var sqlOps = map[string]string{
	ast.OpEq: "=",
	ast.OpNe: "<>",
	ast.OpLt: "<",
	ast.OpLe: "<=",
	ast.OpGt: ">",
	ast.OpGe: ">=",
}

// MaxInlineTagIDs is the most tag IDs a wildcard reference binds as
// parameters.  A larger subtree is selected from the tags table by path.
const MaxInlineTagIDs = 256

type builder struct {
	ctx     *runtime.Context
	dialect Dialect
	args    []any
	aliases int
}

// Compile translates the normalized expression e into a filter for d.
func Compile(ctx *runtime.Context, e ast.Expr, d Dialect) (*Filter, error) {
	if ctx.Tree == nil {
		return nil, errors.New("batch compilation requires a tag tree")
	}
	b := &builder{ctx: ctx, dialect: d}
	where, err := b.compileExpr(e)
	if err != nil {
		return nil, err
	}
	return &Filter{Dialect: d.Name(), Where: where, Args: b.args}, nil
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func (b *builder) compileExpr(e ast.Expr) (string, error) {
	switch e := e.(type) {
	case nil:
		return "", errors.New("null expression not allowed")
	case *ast.TagRef:
		return b.compileTagRef(e)
	case *ast.Compare:
		return b.compileCompare(e)
	case *ast.UnaryExpr:
		if e.Op != ast.OpNot {
			return "", fmt.Errorf("unknown unary operator %q", e.Op)
		}
		operand, err := b.compileExpr(e.Operand)
		if err != nil {
			return "", err
		}
		return "NOT (" + operand + ")", nil
	case *ast.BinaryExpr:
		var op string
		switch e.Op {
		case ast.OpAnd:
			op = " AND "
		case ast.OpOr:
			op = " OR "
		default:
			return "", fmt.Errorf("unknown binary operator %q", e.Op)
		}
		lhs, err := b.compileExpr(e.LHS)
		if err != nil {
			return "", err
		}
		rhs, err := b.compileExpr(e.RHS)
		if err != nil {
			return "", err
		}
		return "(" + lhs + op + rhs + ")", nil
	}
	return "", fmt.Errorf("invalid expression type %T", e)
}

func (b *builder) compileTagRef(ref *ast.TagRef) (string, error) {
	id, ok := b.ctx.Tree.Lookup(ref.Path)
	if !ok {
		return "FALSE", nil
	}
	var ids []tagtree.ID
	switch ref.Wildcard {
	case ast.WildcardNone:
		ids = []tagtree.ID{id}
	case ast.WildcardSelf:
		ids = b.ctx.Tree.Descendants(id, true)
	case ast.WildcardDescendants:
		ids = b.ctx.Tree.Descendants(id, false)
	default:
		return "", fmt.Errorf("unknown wildcard mode %q", ref.Wildcard)
	}
	if len(ids) == 0 {
		return "FALSE", nil
	}
	b.aliases++
	t := fmt.Sprintf("t%d", b.aliases)
	var cond string
	switch {
	case len(ids) > MaxInlineTagIDs:
		cond = fmt.Sprintf("%s.tag_id IN (SELECT id FROM tags WHERE %s)", t, b.subtree(ref))
	case len(ids) == 1:
		cond = fmt.Sprintf("%s.tag_id = %s", t, b.arg(int64(ids[0])))
	default:
		params := make([]string, 0, len(ids))
		for _, id := range ids {
			params = append(params, b.arg(int64(id)))
		}
		cond = fmt.Sprintf("%s.tag_id IN (%s)", t, strings.Join(params, ", "))
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM image_tags %s WHERE %s.image_id = i.id AND %s)", t, t, cond), nil
}

// subtree returns the condition on the tags table selecting the tags under
// the wildcard reference ref.
func (b *builder) subtree(ref *ast.TagRef) string {
	var self string
	if ref.Wildcard == ast.WildcardSelf {
		self = "path = " + b.arg(ref.Path) + " OR "
	}
	return self + "path LIKE " + b.arg(escapeLike(ref.Path)+".%") + ` ESCAPE '\'`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (b *builder) compileCompare(c *ast.Compare) (string, error) {
	f, err := expr.CheckCompare(c, b.ctx.Schema)
	if err != nil {
		return "", err
	}
	col := Column(f.Column)
	if c.Value.Type == ast.TypeNone {
		if c.Op == ast.OpEq {
			return col + " IS NULL", nil
		}
		return col + " IS NOT NULL", nil
	}
	op, ok := sqlOps[c.Op]
	if !ok {
		return "", fmt.Errorf("unknown comparison operator %q", c.Op)
	}
	lhs := col
	var arg any
	switch v := c.Value.Value.(type) {
	case int64:
		arg = v
		if f.Kind == schema.KindFloat {
			arg = float64(v)
		}
	case float64:
		arg = v
		lhs = b.dialect.Float(col)
	case string:
		arg = v
		lhs = b.dialect.Binary(col)
	case bool:
		arg = schema.NewBool(v).Native()
	default:
		return "", fmt.Errorf("unsupported literal %v (%T)", c.Value.Value, c.Value.Value)
	}
	return fmt.Sprintf("(%s IS NOT NULL AND %s %s %s)", col, lhs, op, b.arg(arg)), nil
}

// Column returns the qualified, quoted reference to an images column.
func Column(name string) string {
	return `i."` + name + `"`
}
