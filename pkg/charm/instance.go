package charm

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// instance is a command that has been created but not run.
type instance struct {
	spec    *Spec
	command Command
	flags   *flag.FlagSet
}

func newInstance(parent Command, spec *Spec) (*instance, error) {
	if spec.New == nil {
		return nil, fmt.Errorf("command %q: New function is nil", spec.Name)
	}
	flags := flag.NewFlagSet(spec.Name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	cmd, err := spec.New(parent, flags)
	if err != nil {
		return nil, err
	}
	return &instance{spec, cmd, flags}, nil
}

func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, NeedHelp
		}
		return nil, err
	}
	return fs.Args(), nil
}

// parse instantiates the chain of commands named by args, parsing each
// command's flags along the way, and returns the chain with the remaining
// arguments.
func parse(spec *Spec, args []string, parent Command) (path, []string, error) {
	var p path
	for {
		inst, err := newInstance(parent, spec)
		if err != nil {
			return nil, nil, err
		}
		p = append(p, inst)
		rest, err := parseFlags(inst.flags, args)
		if err != nil {
			return p, nil, err
		}
		if len(rest) == 0 {
			return p, rest, nil
		}
		if rest[0] == "help" {
			return p, rest[1:], NeedHelp
		}
		child := spec.lookupSub(rest[0])
		if child == nil {
			return p, rest, nil
		}
		spec, args, parent = child, rest[1:], inst.command
	}
}

// parseHelp returns the chain of commands named in args, ignoring flags
// and the word "help".
func parseHelp(spec *Spec, args []string) (path, error) {
	inst, err := newInstance(nil, spec)
	if err != nil {
		return nil, err
	}
	p := path{inst}
	for _, arg := range args {
		if arg == "help" || strings.HasPrefix(arg, "-") {
			continue
		}
		child := inst.spec.lookupSub(arg)
		if child == nil {
			break
		}
		if inst, err = newInstance(inst.command, child); err != nil {
			return nil, err
		}
		p = append(p, inst)
	}
	return p, nil
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == name || arg == "-"+name {
			return true
		}
	}
	return false
}

// options returns the help lines describing the flags of i.
func (i *instance) options(vflag bool) []string {
	hidden := flagMap(i.spec.HiddenFlags)
	var body []string
	i.flags.VisitAll(func(f *flag.Flag) {
		name := "-" + f.Name
		if hidden[f.Name] {
			if !vflag {
				return
			}
			name = "[" + name + "]"
		}
		line := name + " " + f.Usage
		if f.DefValue != "" && f.DefValue != "false" {
			line = fmt.Sprintf("%s (default %q)", line, f.DefValue)
		}
		body = append(body, line)
	})
	return body
}

// flagMap maps each name in the comma-separated list flags to true.
func flagMap(flags string) map[string]bool {
	m := make(map[string]bool)
	for _, flag := range strings.Split(flags, ",") {
		if flag = strings.TrimSpace(flag); flag != "" {
			m[flag] = true
		}
	}
	return m
}
