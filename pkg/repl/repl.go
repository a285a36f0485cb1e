// Package repl is a simple read-eval-print loop.  It calls the Consumer
// to do all the eval work.
package repl

import (
	"errors"
	"io"
	"os"

	"github.com/peterh/liner"
)

type Consumer interface {
	// Consume evaluates line and reports whether the loop should end.
	Consume(line string) bool
	Prompt() string
}

// Run executes the REPL until the consumer asks to stop or input ends.
// When historyFile is not empty, history is loaded from and saved to it.
func Run(c Consumer, historyFile string) error {
	l := liner.NewLiner()
	defer l.Close()
	l.SetCtrlCAborts(true)
	l.SetMultiLineMode(true)
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			l.ReadHistory(f)
			f.Close()
		}
		defer saveHistory(l, historyFile)
	}
	for {
		line, err := l.Prompt(c.Prompt())
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		if c.Consume(line) {
			return nil
		}
		if line != "" {
			l.AppendHistory(line)
		}
	}
}

func saveHistory(l *liner.State, path string) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	l.WriteHistory(f)
}
