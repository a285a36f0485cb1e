package zfmt

import (
	"fmt"
	"strings"
)

type formatter struct {
	strings.Builder
}

func (f *formatter) write(args ...interface{}) {
	var s string
	if len(args) == 1 {
		s = args[0].(string)
	} else if len(args) > 1 {
		format := args[0].(string)
		s = fmt.Sprintf(format, args[1:]...)
	}
	f.WriteString(s)
}

func (f *formatter) space() {
	f.write(" ")
}
