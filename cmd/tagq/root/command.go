package root

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jeremymatt/photo-manager/catalog"
	"github.com/jeremymatt/photo-manager/cli"
	"github.com/jeremymatt/photo-manager/cli/catalogflags"
	"github.com/jeremymatt/photo-manager/cli/logflags"
	"github.com/jeremymatt/photo-manager/pkg/charm"
	"github.com/jeremymatt/photo-manager/service/logger"
	"go.uber.org/zap"
)

var Tagq = &charm.Spec{
	Name:  "tagq",
	Usage: "tagq [global options] <command> [options] [arguments...]",
	Short: "query a photo catalog by tags and fields",
	Long: `
tagq compiles tag queries and runs them against a photo catalog.

A query names tags by dotted path, e.g., "tag.scene.outdoor", optionally
with a trailing wildcard, "tag.scene.outdoor*", to include every tag below
it.  Fixed fields such as "tag.image_size.width" are compared with ==, !=,
<, <=, > and >=.  Terms combine with &&, || and ! and may be grouped with
parentheses.

The catalog is a SQLite database named by -db (in memory by default) or
a Postgres database when -driver is pgx.  A YAML file named by -config may
declare the catalog, its fixed fields and the logger.  Fixture files given
with -fixture are loaded into the catalog before the command runs.
`,
	New: New,
}

type Command struct {
	charm.Command
	cli.Flags
	CatalogFlags catalogflags.Flags
	LogFlags     logflags.Flags
	fixtures     []string
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{}
	c.Flags.SetFlags(f)
	c.CatalogFlags.SetFlags(f)
	c.LogFlags.SetFlags(f)
	f.Func("fixture", "YAML fixture file to load into the catalog (may be repeated)", func(s string) error {
		c.fixtures = append(c.fixtures, s)
		return nil
	})
	return c, nil
}

// Init initializes the shared flags along with all.
func (c *Command) Init(all ...cli.Initializer) (context.Context, func(), error) {
	return c.Flags.Init(append([]cli.Initializer{&c.CatalogFlags}, all...)...)
}

// Logger opens the logger described by the config file, if it has a log
// section, or else by the -log flags.
func (c *Command) Logger() (*zap.Logger, error) {
	if conf, ok := c.CatalogFlags.LogConfig(); ok {
		return logger.New(conf)
	}
	return c.LogFlags.Open()
}

// Open opens the catalog and loads any fixtures into it.
func (c *Command) Open(ctx context.Context, logger *zap.Logger) (*catalog.Catalog, error) {
	cat, err := c.CatalogFlags.Open(ctx, logger)
	if err != nil {
		return nil, err
	}
	for _, path := range c.fixtures {
		if err := loadFixture(ctx, cat, path); err != nil {
			cat.Close()
			return nil, err
		}
	}
	return cat, nil
}

func loadFixture(ctx context.Context, cat *catalog.Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := cat.LoadFixture(ctx, f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Command) Run(args []string) error {
	_, cancel, err := c.Init()
	if err != nil {
		return err
	}
	defer cancel()
	if len(args) == 0 {
		return charm.NeedHelp
	}
	return charm.ErrNoRun
}
