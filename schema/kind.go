package schema

import (
	"fmt"
	"strings"
)

// Kind is the value kind of a fixed field.
type Kind int

const (
	KindInt Kind = iota + 1
	KindFloat
	KindString
	KindBool
)

var kindNames = map[Kind]string{
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindBool:   "bool",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Ordered reports whether values of kind k may be compared with the
// ordering operators.
func (k Kind) Ordered() bool {
	return k == KindInt || k == KindFloat || k == KindString
}

// Numeric reports whether k is int or float.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// ParseKind returns the kind named s.  The aliases "integer", "boolean",
// "text" and "real" are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "int", "integer":
		return KindInt, nil
	case "float", "real":
		return KindFloat, nil
	case "string", "text":
		return KindString, nil
	case "bool", "boolean":
		return KindBool, nil
	}
	return 0, fmt.Errorf("unknown field kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("invalid field kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	kind, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}
