// Package plural picks a noun suffix for a count.
package plural

import "fmt"

// Int returns suffix unless n is one.
func Int(n int, suffix string) string {
	if n == 1 {
		return ""
	}
	return suffix
}

// Of formats n followed by noun, pluralized with an "s" as needed.
func Of(n int, noun string) string {
	return fmt.Sprintf("%d %s%s", n, noun, Int(n, "s"))
}
