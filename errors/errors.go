// Package zqe provides a mechanism to create or wrap errors with a Kind that
// API layers translate into their own representation, e.g., an HTTP status.
package zqe

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
)

// A Kind represents a class of error.
type Kind int

const (
	Other Kind = iota
	Invalid
	NotFound
	Exists
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case Invalid:
		return "invalid operation"
	case NotFound:
		return "item does not exist"
	case Exists:
		return "item already exists"
	case Conflict:
		return "conflict with pending operation"
	}
	return "unknown error kind"
}

type Error struct {
	Kind Kind
	Err  error
}

func pad(b *bytes.Buffer, s string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(s)
}

func (e *Error) Error() string {
	b := &bytes.Buffer{}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		pad(b, ": ")
		b.WriteString(e.Err.Error())
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns just the Err.Error() string, if present, or the Kind
// string description.
func (e *Error) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Kind != Other {
		return e.Kind.String()
	}
	return "no error"
}

// E generates an error from any mix of:
//   - a Kind
//   - an existing error
//   - a string and optional formatting verbs, like fmt.Errorf (including
//     support for the %w verb).
//
// The string and format verbs must be last in the arguments, if present.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("no args to zqe.E")
	}
	e := &Error{}
	for i, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case error:
			e.Err = arg
		case string:
			e.Err = fmt.Errorf(arg, args[i+1:]...)
			return e
		default:
			_, file, line, _ := runtime.Caller(1)
			return fmt.Errorf("unknown type %T value %v in zqe.E call at %v:%v", arg, arg, file, line)
		}
	}
	return e
}

func ErrInvalid(format string, args ...interface{}) error {
	return E(append([]interface{}{Invalid, format}, args...)...)
}

func ErrNotFound(format string, args ...interface{}) error {
	return E(append([]interface{}{NotFound, format}, args...)...)
}

func ErrExists(format string, args ...interface{}) error {
	return E(append([]interface{}{Exists, format}, args...)...)
}

// KindOf returns the Kind of the outermost *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var zerr *Error
	if errors.As(err, &zerr) {
		return zerr.Kind
	}
	return Other
}

func IsNotFound(err error) bool {
	return KindOf(err) == NotFound
}

func IsInvalid(err error) bool {
	return KindOf(err) == Invalid
}
