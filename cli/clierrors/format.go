package clierrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeremymatt/photo-manager/compiler/parser"
	"github.com/jeremymatt/photo-manager/runtime/expr"
	"go.uber.org/multierr"
)

// Format decorates the compile errors in err with the line of src they
// refer to and a caret under the offending position.  Syntax errors already
// carry this context and are returned as is.
func Format(src string, err error) error {
	if err == nil {
		return err
	}
	var errs []error
	for _, err := range multierr.Errors(err) {
		if pos, ok := Pos(err); ok {
			var perr *parser.Error
			if !errors.As(err, &perr) {
				err = formatPointError(src, pos, err)
			}
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Pos returns the byte offset in the query source that err refers to.
func Pos(err error) (int, bool) {
	var perr *parser.Error
	if errors.As(err, &perr) {
		return perr.Pos, true
	}
	var terr *expr.TypeError
	if errors.As(err, &terr) {
		return terr.Pos, true
	}
	var uerr *expr.UnknownFieldError
	if errors.As(err, &uerr) {
		return uerr.Pos, true
	}
	return 0, false
}

// Column returns the 1-based column in src that err refers to.
func Column(src string, err error) (int, bool) {
	var perr *parser.Error
	if errors.As(err, &perr) {
		return perr.Column, true
	}
	pos, ok := Pos(err)
	if !ok {
		return 0, false
	}
	_, col, _ := parser.Position(src, pos)
	return col, true
}

func formatPointError(src string, pos int, err error) error {
	line, col, text := parser.Position(src, pos)
	var b strings.Builder
	fmt.Fprintf(&b, "%s (", err)
	if line > 1 {
		fmt.Fprintf(&b, "line %d, ", line)
	}
	fmt.Fprintf(&b, "column %d):\n%s\n", col, text)
	col--
	for k := 0; k < col; k++ {
		if k >= col-4 && k != col-1 {
			b.WriteByte('=')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteString("^ ===")
	return errors.New(b.String())
}
