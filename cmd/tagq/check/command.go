package check

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeremymatt/photo-manager/cli/clierrors"
	"github.com/jeremymatt/photo-manager/cmd/tagq/root"
	"github.com/jeremymatt/photo-manager/compiler"
	"github.com/jeremymatt/photo-manager/pkg/charm"
	"github.com/jeremymatt/photo-manager/runtime"
	"golang.org/x/sync/errgroup"
)

var Cmd = &charm.Spec{
	Name:  "check",
	Usage: "check [options] file ...",
	Short: "compile saved queries and report errors",
	Long: `
The check command compiles each query in the named files against the
catalog's tag tree and schema and reports every query that fails to
compile.  Each line of a file holds one query.  Blank lines and lines
beginning with # are ignored.  A file named "-" is read from standard
input.

Check exits with an error if any query failed.
`,
	New: New,
}

type Command struct {
	*root.Command
	canon bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.canon, "C", false, "print the canonical text of each valid query")
	return c, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) == 0 {
		return errors.New("no files specified")
	}
	var queries []Query
	for _, path := range args {
		q, err := readFile(path)
		if err != nil {
			return err
		}
		queries = append(queries, q...)
	}
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
	results, err := Check(ctx, cat.Snapshot(), queries)
	if err != nil {
		return err
	}
	if n := Print(os.Stdout, results, c.canon); n > 0 {
		return fmt.Errorf("%d of %d queries failed", n, len(results))
	}
	return nil
}

// Query is a query read from a file.
type Query struct {
	File string
	Line int
	Text string
}

type Result struct {
	Query
	Canonical string
	Err       error
}

func readFile(path string) ([]Query, error) {
	if path == "-" {
		return Read("stdin", os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(path, f)
}

// Read returns the queries in r, one per non-blank line that does not
// begin with #.
func Read(name string, r io.Reader) ([]Query, error) {
	var queries []Query
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		queries = append(queries, Query{File: name, Line: line, Text: text})
	}
	return queries, scanner.Err()
}

// Check compiles each query concurrently against rctx.  Results are in
// the order of queries.
func Check(ctx context.Context, rctx *runtime.Context, queries []Query) ([]Result, error) {
	results := make([]Result, len(queries))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(8)
	for i, q := range queries {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i].Query = q
			compiled, err := compiler.Compile(q.Text, rctx)
			if err != nil {
				results[i].Err = clierrors.Format(q.Text, err)
				return nil
			}
			results[i].Canonical = compiled.String()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Print writes each failure, and with canon each canonical query, to w
// and returns the number of failures.
func Print(w io.Writer, results []Result, canon bool) int {
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "%s:%d: %s\n", r.File, r.Line, r.Err)
		} else if canon {
			fmt.Fprintf(w, "%s:%d: %s\n", r.File, r.Line, r.Canonical)
		}
	}
	return failed
}
