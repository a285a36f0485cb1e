// Package terminal reports properties of the controlling terminal.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// DefaultWidth is the width assumed when stdout is not a terminal.
const DefaultWidth = 80

func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the width of the terminal attached to stdout.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}
