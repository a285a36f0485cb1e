// Package parser turns query expressions into syntax trees.
//
// The grammar, from lowest to highest precedence:
//
//	expr    := and ( "||" and )*
//	and     := unary ( "&&" unary )*
//	unary   := "!" unary | primary
//	primary := "(" expr ")" | "tag." path tail
//	tail    := "*" | ".*" | op value | ε
//	value   := STRING | NUMBER | "true" | "false" | "None"
package parser

import (
	"fmt"
	"strings"

	"github.com/jeremymatt/photo-manager/compiler/ast"
	"github.com/jeremymatt/photo-manager/field"
)

type parser struct {
	lexer *Lexer
	src   string
	tok   Token
	prev  Token
}

// Parse returns the syntax tree of src.  Any error is an *Error.
func Parse(src string) (ast.Expr, error) {
	p := &parser{lexer: NewLexer(src), src: src}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind == EOF {
		return nil, p.errorf(p.tok.Pos, "empty expression")
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	switch p.tok.Kind {
	case EOF:
		return e, nil
	case RPAREN:
		return nil, p.errorf(p.tok.Pos, `unbalanced parentheses: unexpected ")"`)
	default:
		return nil, p.errorf(p.tok.Pos, "unexpected %s after complete expression", p.tok.Kind)
	}
}

func (p *parser) advance() error {
	tok, err := p.lexer.Next()
	if err != nil {
		return err
	}
	p.prev, p.tok = p.tok, tok
	return nil
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return newError(p.src, pos, fmt.Sprintf(format, args...))
}

func (p *parser) parseOr() (ast.Expr, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == OR {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(ast.OpOr, lhs, rhs)
	}
	return lhs, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == AND {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(ast.OpAnd, lhs, rhs)
	}
	return lhs, nil
}

func (p *parser) parseUnary() (ast.Expr, error) {
	if p.tok.Kind != NOT {
		return p.parsePrimary()
	}
	pos := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return ast.NewUnary(ast.OpNot, pos, operand), nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	switch p.tok.Kind {
	case PATH:
		return p.parseTagRef()
	case LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.Kind != RPAREN {
			return nil, p.errorf(p.tok.Pos, `unbalanced parentheses: expected ")"`)
		}
		return e, p.advance()
	case STAR:
		return nil, p.errorf(p.tok.Pos, `"*" must immediately follow a tag path`)
	}
	switch {
	case p.prev.Kind == AND || p.prev.Kind == OR || p.prev.Kind == NOT:
		return nil, p.errorf(p.tok.Pos, "missing operand after %q", p.prev.Text)
	case p.tok.Kind == AND || p.tok.Kind == OR:
		return nil, p.errorf(p.tok.Pos, "missing operand before %q", p.tok.Text)
	case p.prev.Kind == LPAREN:
		return nil, p.errorf(p.tok.Pos, `expected expression after "("`)
	}
	return nil, p.errorf(p.tok.Pos, "unexpected %s: expected tag reference", p.tok.Kind)
}

func (p *parser) parseTagRef() (ast.Expr, error) {
	tok := p.tok
	path := tok.Value.(string)
	if err := p.advance(); err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".") {
		path = strings.TrimSuffix(path, ".")
		if p.tok.Kind != STAR || p.tok.Pos != tok.End {
			return nil, p.errorf(tok.End-1, `dangling "." must be followed by "*"`)
		}
		if err := p.checkPath(tok, path); err != nil {
			return nil, err
		}
		return p.wildcard(path, ast.WildcardDescendants, tok.Pos)
	}
	if err := p.checkPath(tok, path); err != nil {
		return nil, err
	}
	switch p.tok.Kind {
	case STAR:
		if p.tok.Pos != tok.End {
			return nil, p.errorf(p.tok.Pos, `"*" must immediately follow a tag path`)
		}
		return p.wildcard(path, ast.WildcardSelf, tok.Pos)
	case OP:
		op := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		val, err := p.parseLiteral(op)
		if err != nil {
			return nil, err
		}
		return ast.NewCompare(path, op, val, tok.Pos), nil
	}
	return ast.NewTagRef(path, ast.WildcardNone, tok.Pos, tok.End), nil
}

// wildcard consumes the "*" at p.tok and builds the wildcard reference.
func (p *parser) wildcard(path, mode string, pos int) (ast.Expr, error) {
	end := p.tok.End
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind == OP {
		return nil, p.errorf(p.tok.Pos, "comparison cannot be applied to a wildcard path")
	}
	return ast.NewTagRef(path, mode, pos, end), nil
}

func (p *parser) checkPath(tok Token, path string) error {
	if field.Dotted(path).Valid() {
		return nil
	}
	text := tok.Text[len(tagPrefix):]
	off := strings.Index(text, "..")
	if off < 0 {
		off = 0
	}
	return p.errorf(tok.Pos+len(tagPrefix)+off, "empty segment in tag path %q", path)
}

func (p *parser) parseLiteral(op string) (*ast.Literal, error) {
	tok := p.tok
	var typ string
	switch tok.Kind {
	case STRING:
		typ = ast.TypeString
	case NUMBER:
		typ = ast.TypeInt
		if _, ok := tok.Value.(float64); ok {
			typ = ast.TypeFloat
		}
	case BOOL:
		typ = ast.TypeBool
	case NONE:
		typ = ast.TypeNone
	default:
		return nil, p.errorf(tok.Pos, "missing value after %q", op)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return ast.NewLiteral(typ, tok.Text, tok.Value, tok.Pos), nil
}
