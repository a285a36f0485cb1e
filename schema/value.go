package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a typed fixed-field value.  The zero Value is Absent.
type Value struct {
	Kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Absent marks a field that has no value for a record.
var Absent = Value{}

func NewInt(v int64) Value     { return Value{Kind: KindInt, i: v} }
func NewFloat(v float64) Value { return Value{Kind: KindFloat, f: v} }
func NewString(v string) Value { return Value{Kind: KindString, s: v} }
func NewBool(v bool) Value     { return Value{Kind: KindBool, b: v} }

func (v Value) IsAbsent() bool {
	return v.Kind == 0
}

func (v Value) Int() int64 {
	if v.Kind == KindFloat {
		return int64(v.f)
	}
	return v.i
}

// Float returns v as a float64, converting an int value.
func (v Value) Float() float64 {
	if v.Kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

func (v Value) Text() string { return v.s }
func (v Value) Bool() bool   { return v.b }

// Native returns v as a Go value suitable for a database/sql argument.
// Bools are stored as the integers 0 and 1.  Absent yields nil.
func (v Value) Native() any {
	switch v.Kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		if v.b {
			return int64(1)
		}
		return int64(0)
	}
	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return "None"
}

// Coerce converts a scanned database value or a decoded YAML/JSON scalar
// into a Value of kind k.  A nil input yields Absent.
func Coerce(k Kind, in any) (Value, error) {
	if in == nil {
		return Absent, nil
	}
	switch k {
	case KindInt:
		switch n := in.(type) {
		case int:
			return NewInt(int64(n)), nil
		case int32:
			return NewInt(int64(n)), nil
		case int64:
			return NewInt(n), nil
		case float64:
			if n == float64(int64(n)) {
				return NewInt(int64(n)), nil
			}
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return NewInt(i), nil
			}
		case []byte:
			if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
				return NewInt(i), nil
			}
		}
	case KindFloat:
		switch n := in.(type) {
		case int:
			return NewFloat(float64(n)), nil
		case int64:
			return NewFloat(float64(n)), nil
		case float32:
			return NewFloat(float64(n)), nil
		case float64:
			return NewFloat(n), nil
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return NewFloat(f), nil
			}
		case []byte:
			if f, err := strconv.ParseFloat(string(n), 64); err == nil {
				return NewFloat(f), nil
			}
		}
	case KindString:
		switch s := in.(type) {
		case string:
			return NewString(s), nil
		case []byte:
			return NewString(string(s)), nil
		}
	case KindBool:
		switch b := in.(type) {
		case bool:
			return NewBool(b), nil
		case int:
			return NewBool(b != 0), nil
		case int64:
			return NewBool(b != 0), nil
		case float64:
			return NewBool(b != 0), nil
		}
	}
	return Absent, fmt.Errorf("cannot use %v (%T) as %s value", in, in, k)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindBool:
		return json.Marshal(v.b)
	}
	return []byte("null"), nil
}
