package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jeremymatt/photo-manager/field"
)

type TokenKind int

const (
	EOF TokenKind = iota
	PATH
	STAR
	OP
	AND
	OR
	NOT
	LPAREN
	RPAREN
	STRING
	NUMBER
	BOOL
	NONE
)

var tokenNames = [...]string{
	EOF:    "end of expression",
	PATH:   "tag path",
	STAR:   `"*"`,
	OP:     "comparison operator",
	AND:    `"&&"`,
	OR:     `"||"`,
	NOT:    `"!"`,
	LPAREN: `"("`,
	RPAREN: `")"`,
	STRING: "string",
	NUMBER: "number",
	BOOL:   "boolean",
	NONE:   "None",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is a lexical token.  Text is the source text spanning [Pos, End).
// Value holds the normalized path of a PATH token and the decoded value of
// a STRING (string), NUMBER (int64 or float64) or BOOL (bool) token.
type Token struct {
	Kind  TokenKind
	Text  string
	Value any
	Pos   int
	End   int
}

const tagPrefix = "tag."

// Lexer splits a query expression into tokens.
type Lexer struct {
	src string
	pos int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Tokenize returns every token of src through and including EOF.
func Tokenize(src string) ([]Token, error) {
	l := NewLexer(src)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) peekRune(off int) rune {
	if l.pos+off >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos+off:])
	return r
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		r, n := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += n
	}
}

func (l *Lexer) token(kind TokenKind, n int, val any) Token {
	tok := Token{Kind: kind, Text: l.src[l.pos : l.pos+n], Value: val, Pos: l.pos, End: l.pos + n}
	l.pos += n
	return tok
}

func (l *Lexer) errorf(pos int, format string, args ...any) error {
	return newError(l.src, pos, fmt.Sprintf(format, args...))
}

// Next returns the next token.  At the end of input it returns an EOF token
// positioned at the end of the source.
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Pos: len(l.src), End: len(l.src)}, nil
	}
	c := l.src[l.pos]
	next := l.peekRune(1)
	switch c {
	case '(':
		return l.token(LPAREN, 1, nil), nil
	case ')':
		return l.token(RPAREN, 1, nil), nil
	case '*':
		return l.token(STAR, 1, nil), nil
	case '&':
		if next == '&' {
			return l.token(AND, 2, nil), nil
		}
		return Token{}, l.errorf(l.pos, `unexpected "&" (did you mean "&&"?)`)
	case '|':
		if next == '|' {
			return l.token(OR, 2, nil), nil
		}
		return Token{}, l.errorf(l.pos, `unexpected "|" (did you mean "||"?)`)
	case '=':
		if next == '=' {
			return l.token(OP, 2, nil), nil
		}
		return Token{}, l.errorf(l.pos, `unexpected "=" (did you mean "=="?)`)
	case '!':
		if next == '=' {
			return l.token(OP, 2, nil), nil
		}
		return l.token(NOT, 1, nil), nil
	case '<', '>':
		if next == '=' {
			return l.token(OP, 2, nil), nil
		}
		return l.token(OP, 1, nil), nil
	case '"', '\'':
		return l.lexString(c)
	}
	if isDigit(rune(c)) || (c == '-' && isDigit(next)) {
		return l.lexNumber()
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	if unicode.IsLetter(r) || r == '_' {
		return l.lexWord()
	}
	return Token{}, l.errorf(l.pos, "invalid character %q", r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isPathRune(r rune) bool {
	return field.IsSegmentRune(r)
}

func (l *Lexer) lexWord() (Token, error) {
	if strings.HasPrefix(l.src[l.pos:], tagPrefix) {
		return l.lexPath()
	}
	n := 0
	for l.pos+n < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos+n:])
		if !isPathRune(r) {
			break
		}
		n += size
	}
	switch word := l.src[l.pos : l.pos+n]; word {
	case "true":
		return l.token(BOOL, n, true), nil
	case "false":
		return l.token(BOOL, n, false), nil
	case "None":
		return l.token(NONE, n, nil), nil
	case "tag":
		return Token{}, l.errorf(l.pos+n, `expected "." after "tag"`)
	default:
		return Token{}, l.errorf(l.pos, "unexpected word %q: tag references must begin with %q", word, tagPrefix)
	}
}

// lexPath scans "tag." followed by dot-separated segments.  The path may
// end with a dot, which is only legal when a "*" follows, and may contain
// empty segments.  Both are checked by the parser, which knows the context.
func (l *Lexer) lexPath() (Token, error) {
	n := len(tagPrefix)
	for l.pos+n < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos+n:])
		if !isPathRune(r) && r != '.' {
			break
		}
		n += size
	}
	path := l.src[l.pos+len(tagPrefix) : l.pos+n]
	if path == "" {
		return Token{}, l.errorf(l.pos+n, "missing tag path after %q", tagPrefix)
	}
	return l.token(PATH, n, field.Normalize(path)), nil
}

func (l *Lexer) lexNumber() (Token, error) {
	n := 0
	if l.src[l.pos] == '-' {
		n++
	}
	dot := false
	for l.pos+n < len(l.src) {
		c := rune(l.src[l.pos+n])
		if c == '.' && !dot {
			dot = true
		} else if !isDigit(c) {
			break
		}
		n++
	}
	text := l.src[l.pos : l.pos+n]
	if dot {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{}, l.errorf(l.pos, "invalid number %q", text)
		}
		return l.token(NUMBER, n, f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{}, l.errorf(l.pos, "number %s out of range", text)
	}
	return l.token(NUMBER, n, i), nil
}

func (l *Lexer) lexString(quote byte) (Token, error) {
	var b strings.Builder
	for off := 1; l.pos+off < len(l.src); off++ {
		c := l.src[l.pos+off]
		switch c {
		case quote:
			return l.token(STRING, off+1, b.String()), nil
		case '\\':
			off++
			if l.pos+off >= len(l.src) {
				break
			}
			switch e := l.src[l.pos+off]; e {
			case '\\', '"', '\'':
				b.WriteByte(e)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte('\\')
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return Token{}, l.errorf(l.pos, "unterminated string")
}
