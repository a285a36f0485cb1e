package tags

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeremymatt/photo-manager/cmd/tagq/root"
	"github.com/jeremymatt/photo-manager/pkg/charm"
	"github.com/jeremymatt/photo-manager/tagtree"
)

var Cmd = &charm.Spec{
	Name:  "tags",
	Usage: "tags [options] [path ...]",
	Short: "list or create tags",
	Long: `
The tags command creates each tag path given as an argument, along with
any missing ancestors, and then prints the catalog's tag tree.  Each tag
is indented beneath its parent.  With -p, full dotted paths are printed
one per line instead.
`,
	New: New,
}

type Command struct {
	*root.Command
	paths bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.paths, "p", false, "print full tag paths")
	return c, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	logger, err := c.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	cat, err := c.Open(ctx, logger)
	if err != nil {
		return err
	}
	defer cat.Close()
	for _, path := range args {
		if _, err := cat.EnsureTag(ctx, path); err != nil {
			return err
		}
	}
	if c.paths {
		for _, path := range cat.Tags().Paths() {
			fmt.Println(path)
		}
		return nil
	}
	return Print(os.Stdout, cat.Tags())
}

// Print writes tree to w with each tag indented beneath its parent.
func Print(w io.Writer, tree *tagtree.Tree) error {
	return tree.Walk(func(n tagtree.Node, depth int) error {
		_, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n.Name)
		return err
	})
}
