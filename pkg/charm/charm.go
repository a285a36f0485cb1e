// Package charm is a minimalist CLI framework inspired by cobra and
// urfave/cli.
package charm

import (
	"errors"
	"flag"
)

var (
	// NeedHelp is returned by a command to have its help displayed.
	NeedHelp = errors.New("help")
	ErrNoRun = errors.New("no run method")
)

type Constructor func(Command, *flag.FlagSet) (Command, error)

type Command interface {
	Run([]string) error
}

type Spec struct {
	Name  string
	Usage string
	Short string
	Long  string
	New   Constructor
	// Hidden hides this command from help.
	Hidden bool
	// HiddenFlags (comma-separated) are left out of help unless help is
	// run with -v.
	HiddenFlags string
	children    []*Spec
	parent      *Spec
}

func (s *Spec) Add(child *Spec) {
	s.children = append(s.children, child)
	child.parent = s
}

func (s *Spec) lookupSub(name string) *Spec {
	for _, child := range s.children {
		if name == child.Name {
			return child
		}
	}
	return nil
}

// ExecRoot parses args against s and its subcommands and runs the command
// they select.  "help" in place of a subcommand, -h, or a command returning
// NeedHelp displays help instead.
func (s *Spec) ExecRoot(args []string) error {
	p, rest, err := parse(s, args, nil)
	if err == nil {
		err = p.run(rest)
	}
	if err == NeedHelp {
		if p, err = parseHelp(s, args); err != nil {
			return err
		}
		displayHelp(p, hasFlag(args, "-v"))
		return nil
	}
	return err
}
