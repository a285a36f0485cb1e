package expr

import (
	"fmt"

	"github.com/jeremymatt/photo-manager/schema"
)

// UnknownFieldError reports a comparison naming something that is not a
// declared field where only a field is allowed.
type UnknownFieldError struct {
	Field      string `json:"field"`
	Suggestion string `json:"suggestion,omitempty"`
	Pos        int    `json:"pos"`
}

func (e *UnknownFieldError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown field %q (did you mean %q?)", e.Field, e.Suggestion)
	}
	return fmt.Sprintf("unknown field %q", e.Field)
}

// TypeError reports a comparison whose operator or literal does not fit
// the kind of the field.  Literal is the literal's type name.
type TypeError struct {
	Field   string      `json:"field"`
	Kind    schema.Kind `json:"kind"`
	Literal string      `json:"literal"`
	Op      string      `json:"op"`
	Pos     int         `json:"pos"`
}

func (e *TypeError) Error() string {
	switch {
	case e.Literal == "none":
		return fmt.Sprintf("type error: operator %q cannot be used with None (field %q)", e.Op, e.Field)
	case e.Kind == schema.KindBool && e.Literal == "bool":
		return fmt.Sprintf("type error: operator %q cannot be applied to bool field %q", e.Op, e.Field)
	}
	return fmt.Sprintf("type error: field %q is %s but the literal is %s", e.Field, e.Kind, e.Literal)
}
