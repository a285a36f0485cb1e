// Package field provides the dotted path type used to name tags and fixed
// fields, e.g., "scene.outdoor.lake" or "datetime.year".
package field

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Path is a dotted path split into its segments.  Paths are normalized
// to lowercase when constructed with Dotted.
type Path []string

// Normalize returns s in the canonical form used for tag paths: NFC
// normalized and lowercased.
func Normalize(s string) string {
	// A Caser holds state so it is not shared between goroutines.
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// IsSegmentRune reports whether r may appear in a path segment written
// directly in query text.
func IsSegmentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

// Bare reports whether the dotted path s can be written as is after
// "tag." in a query, i.e., every segment is non-empty and made only of
// segment runes.
func Bare(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "" || strings.IndexFunc(seg, func(r rune) bool { return !IsSegmentRune(r) }) >= 0 {
			return false
		}
	}
	return true
}

// Dotted splits s on dots after normalizing it.  An empty string yields
// the root path.
func Dotted(s string) Path {
	if s == "" {
		return Path{}
	}
	return strings.Split(Normalize(s), ".")
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

func (p Path) Leaf() string {
	return p[len(p)-1]
}

// Parent returns p without its leaf.  The parent of a single segment path
// is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

func (p Path) IsRoot() bool {
	return len(p) == 0
}

func (p Path) Equal(to Path) bool {
	if len(p) != len(to) {
		return false
	}
	for k := range p {
		if p[k] != to[k] {
			return false
		}
	}
	return true
}

// HasPrefix is true when p equals prefix or lies beneath it.
func (p Path) HasPrefix(prefix Path) bool {
	return len(p) >= len(prefix) && prefix.Equal(p[:len(prefix)])
}

// HasStrictPrefix is true when p lies beneath prefix but is not equal to it.
func (p Path) HasStrictPrefix(prefix Path) bool {
	return len(p) > len(prefix) && prefix.Equal(p[:len(prefix)])
}

// Valid reports whether every segment of p is non-empty.
func (p Path) Valid() bool {
	if len(p) == 0 {
		return false
	}
	for _, s := range p {
		if s == "" {
			return false
		}
	}
	return true
}

// IsDescendant reports whether the dotted path s lies strictly beneath the
// dotted path of.  Both arguments must already be normalized.
func IsDescendant(s, of string) bool {
	return len(s) > len(of)+1 && s[len(of)] == '.' && strings.HasPrefix(s, of)
}

// IsSelfOrDescendant is like IsDescendant but also true when s equals of.
func IsSelfOrDescendant(s, of string) bool {
	return s == of || IsDescendant(s, of)
}
