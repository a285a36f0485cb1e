package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Error is a syntax error.  Pos is the 0-based byte offset of the offending
// input and Line and Column are its 1-based line number and character
// column.
type Error struct {
	Kind   string `json:"kind"`
	Msg    string `json:"error"`
	Pos    int    `json:"pos"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	// Text is the source line containing the error.
	Text string `json:"text"`
}

func newError(src string, pos int, msg string) *Error {
	if pos > len(src) {
		pos = len(src)
	}
	line, col, text := Position(src, pos)
	return &Error{
		Kind:   "SyntaxError",
		Msg:    msg,
		Pos:    pos,
		Line:   line,
		Column: col,
		Text:   text,
	}
}

// Position returns the 1-based line and column of the byte offset pos in
// src along with the text of that line.
func Position(src string, pos int) (int, int, string) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(src) {
		pos = len(src)
	}
	start := strings.LastIndexByte(src[:pos], '\n') + 1
	end := strings.IndexByte(src[pos:], '\n')
	if end < 0 {
		end = len(src)
	} else {
		end += pos
	}
	line := strings.Count(src[:start], "\n") + 1
	return line, utf8.RuneCountInString(src[start:pos]) + 1, src[start:end]
}

func (e *Error) Message() string { return e.Msg }

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("syntax error: ")
	b.WriteString(e.Msg)
	b.WriteString(" (")
	if e.Line > 1 {
		fmt.Fprintf(&b, "line %d, ", e.Line)
	}
	fmt.Fprintf(&b, "column %d):\n", e.Column)
	b.WriteString(e.errorContext())
	return b.String()
}

func (e *Error) errorContext() string {
	var b strings.Builder
	b.WriteString(e.Text + "\n")
	col := e.Column - 1
	for k := 0; k < col; k++ {
		if k >= col-4 && k != col-1 {
			b.WriteByte('=')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteString("^ ===")
	return b.String()
}
