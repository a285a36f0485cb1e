package ast

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/jeremymatt/photo-manager/cli/clierrors"
	"github.com/jeremymatt/photo-manager/cmd/tagq/root"
	"github.com/jeremymatt/photo-manager/compiler"
	"github.com/jeremymatt/photo-manager/pkg/charm"
	"github.com/jeremymatt/photo-manager/runtime"
	"github.com/jeremymatt/photo-manager/tagtree"
	"github.com/jeremymatt/photo-manager/zfmt"
)

var Cmd = &charm.Spec{
	Name:  "ast",
	Usage: "ast [options] query-text",
	Short: "print the syntax tree of a query",
	Long: `
The ast command parses a query and prints its syntax tree as JSON.

With -n, legacy key==value comparisons are rewritten and bare field
references expanded as they would be before the query runs.  With -C, the
canonical query text is printed instead of the tree.  Neither option
touches the catalog, so -n resolves field names against the schema from
-config alone.
`,
	New: New,
}

type Command struct {
	*root.Command
	canon     bool
	normalize bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.canon, "C", false, "print canonical query text")
	f.BoolVar(&c.normalize, "n", false, "normalize the query")
	return c, nil
}

func (c *Command) Run(args []string) error {
	_, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) == 0 {
		return errors.New("no query specified")
	}
	src := strings.Join(args, " ")
	e, err := compiler.Parse(src)
	if err != nil {
		return err
	}
	canonical := zfmt.AST(e)
	if c.normalize {
		q, err := compiler.CompileAST(src, e, runtime.NewContext(tagtree.New(), c.CatalogFlags.Schema()))
		if err != nil {
			return clierrors.Format(src, err)
		}
		e, canonical = q.AST(), q.String()
	}
	if c.canon {
		fmt.Println(canonical)
		return nil
	}
	b, err := json.MarshalIndent(e, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
