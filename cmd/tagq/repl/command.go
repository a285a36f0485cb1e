package repl

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeremymatt/photo-manager/catalog"
	"github.com/jeremymatt/photo-manager/cli/clierrors"
	"github.com/jeremymatt/photo-manager/cmd/tagq/root"
	"github.com/jeremymatt/photo-manager/compiler"
	"github.com/jeremymatt/photo-manager/pkg/charm"
	"github.com/jeremymatt/photo-manager/pkg/repl"
	"github.com/jeremymatt/photo-manager/pkg/terminal"
)

var Cmd = &charm.Spec{
	Name:  "repl",
	Usage: "repl [options]",
	Short: "run queries interactively",
	Long: `
The repl command reads queries from the terminal and prints the images
each one matches.  Lines beginning with a dot are commands:

  .direct   evaluate queries in memory
  .batch    compile queries to SQL (the default)
  .sql      toggle printing the compiled SQL
  .tags     list the tag tree
  .quit     exit

History is kept in ~/.tagq_history.
`,
	New: New,
}

type Command struct {
	*root.Command
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	return &Command{Command: parent.(*root.Command)}, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if !terminal.IsTerminal(os.Stdin) {
		return fmt.Errorf("repl requires a terminal")
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
	var history string
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".tagq_history")
	}
	return repl.Run(NewSession(ctx, cat, os.Stdout), history)
}

// Session evaluates the lines of an interactive session.
type Session struct {
	ctx     context.Context
	catalog *catalog.Catalog
	w       io.Writer
	direct  bool
	showSQL bool
}

func NewSession(ctx context.Context, cat *catalog.Catalog, w io.Writer) *Session {
	return &Session{ctx: ctx, catalog: cat, w: w}
}

func (s *Session) Prompt() string {
	if s.direct {
		return "tagq(direct)> "
	}
	return "tagq> "
}

func (s *Session) Consume(line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false
	case ".quit", ".exit":
		return true
	case ".direct":
		s.direct = true
		return false
	case ".batch":
		s.direct = false
		return false
	case ".sql":
		s.showSQL = !s.showSQL
		return false
	case ".tags":
		for _, path := range s.catalog.Tags().Paths() {
			fmt.Fprintln(s.w, path)
		}
		return false
	}
	if strings.HasPrefix(line, ".") {
		fmt.Fprintf(s.w, "unknown command %q\n", line)
		return false
	}
	if err := s.query(line); err != nil {
		fmt.Fprintln(s.w, err)
	}
	return false
}

func (s *Session) query(src string) error {
	q, err := compiler.Compile(src, s.catalog.Snapshot())
	if err != nil {
		return clierrors.Format(src, err)
	}
	var paths []string
	if s.direct {
		records, err := s.catalog.Records(s.ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if q.Match(rec) {
				paths = append(paths, rec.Path)
			}
		}
	} else {
		f, err := q.SQL(s.catalog.Dialect())
		if err != nil {
			return clierrors.Format(src, err)
		}
		if s.showSQL {
			fmt.Fprintln(s.w, f.Select())
		}
		ids, err := s.catalog.Select(s.ctx, f)
		if err != nil {
			return err
		}
		records, err := s.catalog.Images(s.ctx, ids)
		if err != nil {
			return err
		}
		for _, rec := range records {
			paths = append(paths, rec.Path)
		}
	}
	for _, path := range paths {
		fmt.Fprintln(s.w, path)
	}
	fmt.Fprintf(s.w, "(%d matched)\n", len(paths))
	return nil
}
