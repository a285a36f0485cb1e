package serve

import (
	"flag"
	"syscall"

	"github.com/jeremymatt/photo-manager/cli"
	"github.com/jeremymatt/photo-manager/cmd/tagq/root"
	"github.com/jeremymatt/photo-manager/pkg/charm"
	"github.com/jeremymatt/photo-manager/pkg/httpd"
	"github.com/jeremymatt/photo-manager/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

var Cmd = &charm.Spec{
	Name:  "serve",
	Usage: "serve [options]",
	Short: "serve tag queries over HTTP",
	Long: `
The serve command listens for HTTP requests on the interface and port
given by -l and answers queries against the catalog.  Clients may also
create tags, add images and assign tags.  Prometheus metrics are served
at /metrics.

The -log.level option controls log verbosity.  Available levels, ordered
from most to least verbose, are debug, info (the default),
warn, error, dpanic, panic, and fatal.
`,
	New: New,
}

type Command struct {
	*root.Command
	conf       service.Config
	listenAddr string
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	c.conf.Version = cli.Version()
	f.Func("cors.origin", "CORS allowed origin (may be repeated)", func(s string) error {
		c.conf.CORSAllowedOrigins = append(c.conf.CORSAllowedOrigins, s)
		return nil
	})
	f.StringVar(&c.listenAddr, "l", ":9877", "[addr]:port to listen on")
	return c, nil
}

func (c *Command) Run(args []string) error {
	// Don't include SIGPIPE here or else a write to a closed socket (i.e.,
	// a broken network connection) will cancel the context on Linux.
	ctx, cleanup, err := c.InitWithSignals([]cli.Initializer{&c.CatalogFlags}, syscall.SIGINT, syscall.SIGTERM)
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
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.conf.Catalog = cat
	c.conf.Logger = logger
	c.conf.Registry = registry
	core, err := service.NewCore(ctx, c.conf)
	if err != nil {
		return err
	}
	srv := httpd.New(c.listenAddr, core)
	srv.SetLogger(logger.Named("httpd"))
	if err := srv.Start(ctx); err != nil {
		return err
	}
	group, _ := errgroup.WithContext(ctx)
	group.Go(srv.Wait)
	return group.Wait()
}
