package load

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jeremymatt/photo-manager/cmd/tagq/root"
	"github.com/jeremymatt/photo-manager/pkg/charm"
	"github.com/jeremymatt/photo-manager/pkg/plural"
	"go.uber.org/zap"
)

var Cmd = &charm.Spec{
	Name:  "load",
	Usage: "load [options] fixture.yaml ...",
	Short: "add images and tags from fixture files",
	Long: `
The load command reads each YAML fixture file and adds its tags and images
to the catalog named by -db.  A fixture lists tag paths under "tags" and
images under "images", where each image has a path, optional fixed field
values under "fields", an optional "datetime" and a list of tag paths.

Loading into the default in-memory catalog is allowed but only useful to
validate the files.
`,
	New: New,
}

type Command struct {
	*root.Command
	quiet bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.quiet, "q", false, "don't print a summary")
	return c, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) == 0 {
		return errors.New("no fixture files specified")
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
	start := time.Now()
	var n int
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		ids, err := cat.LoadFixture(ctx, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		n += len(ids)
		logger.Debug("Loaded fixture", zap.String("path", path), zap.Int("images", len(ids)))
	}
	if !c.quiet {
		fmt.Printf("%s loaded in %s (%s in catalog)\n", plural.Of(n, "image"), time.Since(start).Round(time.Millisecond), plural.Of(cat.Tags().Len(), "tag"))
	}
	return nil
}
