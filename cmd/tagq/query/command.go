package query

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeremymatt/photo-manager/api"
	"github.com/jeremymatt/photo-manager/api/client"
	"github.com/jeremymatt/photo-manager/catalog"
	"github.com/jeremymatt/photo-manager/cli/clierrors"
	"github.com/jeremymatt/photo-manager/cmd/tagq/root"
	"github.com/jeremymatt/photo-manager/compiler"
	"github.com/jeremymatt/photo-manager/pkg/charm"
	"github.com/jeremymatt/photo-manager/schema"
)

var Cmd = &charm.Spec{
	Name:  "query",
	Usage: "query [options] query-text",
	Short: "list the images matching a query",
	Long: `
The query command compiles a tag query and prints the path of each
matching image, one per line, in image ID order.

By default the query is compiled to a single SQL filter and run by the
catalog database.  With -direct, every image record is loaded and the
query is evaluated against each one in memory.  Both strategies select
the same images.

The -sql option prints the compiled SQL statement and its arguments
instead of running it.  The -count option prints the number of matching
images.  An empty query matches every image.  With -remote, the query is sent to a "tagq serve" instance at the
given URL.
`,
	New: New,
}

type Command struct {
	*root.Command
	count  bool
	direct bool
	remote string
	sql    bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.count, "count", false, "print the number of matching images")
	f.BoolVar(&c.direct, "direct", false, "evaluate the query in memory against each image")
	f.StringVar(&c.remote, "remote", "", "URL of a tagq service to query")
	f.BoolVar(&c.sql, "sql", false, "print the compiled SQL instead of running it")
	return c, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) == 0 {
		return errors.New("no query specified")
	}
	src := strings.Join(args, " ")
	if c.remote != "" {
		return c.runRemote(ctx, src)
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
	return c.run(ctx, os.Stdout, cat, src)
}

// run queries cat with src.  A blank query matches every image.
func (c *Command) run(ctx context.Context, w io.Writer, cat *catalog.Catalog, src string) error {
	if c.sql {
		f, err := cat.Compile(src)
		if err != nil {
			return clierrors.Format(src, err)
		}
		stmt := f.Select()
		if c.count {
			stmt = f.Count()
		}
		return PrintSQL(w, stmt, f.Args)
	}
	if c.direct {
		match := func(*schema.Record) bool { return true }
		if strings.TrimSpace(src) != "" {
			q, err := compiler.Compile(src, cat.Snapshot())
			if err != nil {
				return clierrors.Format(src, err)
			}
			match = q.Match
		}
		all, err := cat.Records(ctx)
		if err != nil {
			return err
		}
		var paths []string
		for _, rec := range all {
			if match(rec) {
				paths = append(paths, rec.Path)
			}
		}
		return c.print(w, paths)
	}
	if c.count {
		n, err := cat.Count(ctx, src)
		if err != nil {
			return clierrors.Format(src, err)
		}
		_, err = fmt.Fprintln(w, n)
		return err
	}
	ids, err := cat.Query(ctx, src)
	if err != nil {
		return clierrors.Format(src, err)
	}
	images, err := cat.Images(ctx, ids)
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(images))
	for _, rec := range images {
		paths = append(paths, rec.Path)
	}
	return c.print(w, paths)
}

func (c *Command) runRemote(ctx context.Context, src string) error {
	strategy := api.StrategyBatch
	if c.direct {
		strategy = api.StrategyDirect
	}
	res, err := client.NewConnectionTo(c.remote).Query(ctx, src, strategy)
	if err != nil {
		var aerr *api.Error
		if errors.As(err, &aerr) && aerr.Column > 0 {
			return fmt.Errorf("%s at column %d", aerr.Message, aerr.Column)
		}
		return err
	}
	return c.print(os.Stdout, res.Paths)
}

func (c *Command) print(w io.Writer, paths []string) error {
	if c.count {
		_, err := fmt.Fprintln(w, len(paths))
		return err
	}
	for _, path := range paths {
		if _, err := fmt.Fprintln(w, path); err != nil {
			return err
		}
	}
	return nil
}

// PrintSQL writes stmt followed by one line per positional argument.
func PrintSQL(w io.Writer, stmt string, args []any) error {
	if _, err := fmt.Fprintln(w, stmt); err != nil {
		return err
	}
	for i, arg := range args {
		if _, err := fmt.Fprintf(w, "-- $%d = %#v\n", i+1, arg); err != nil {
			return err
		}
	}
	return nil
}
