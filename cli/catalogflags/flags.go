// Package catalogflags holds the flags that locate a catalog and the
// optional YAML config file that declares its schema.
package catalogflags

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jeremymatt/photo-manager/catalog"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/jeremymatt/photo-manager/service/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the layout of the file named by -config.  Every section is
// optional.  Flags given on the command line override the catalog section.
type ConfigFile struct {
	Catalog catalog.Config `yaml:"catalog"`
	Fields  []schema.Field `yaml:"fields"`
	Log     *logger.Config `yaml:"log"`
}

type Flags struct {
	Catalog    catalog.Config
	ConfigPath string

	file   ConfigFile
	schema *schema.Schema
	set    map[string]bool
	visit  func(func(*flag.Flag))
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&f.Catalog.DSN, "db", "", "catalog database (file path for sqlite or URL for postgres; default in-memory)")
	fs.StringVar(&f.Catalog.Driver, "driver", catalog.DriverSQLite, "catalog driver (values: sqlite, pgx)")
	fs.BoolVar(&f.Catalog.Seed, "seed", false, "create the default tag tree in an empty catalog")
	fs.StringVar(&f.ConfigPath, "config", os.Getenv("TAGQ_CONFIG"), "path of YAML config file")
	f.set = make(map[string]bool)
	f.visit = fs.Visit
}

// Init reads the config file, if any, and builds the schema.
func (f *Flags) Init() error {
	flagged := f.Catalog
	if f.visit != nil {
		f.visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	}
	if f.ConfigPath != "" {
		b, err := os.ReadFile(f.ConfigPath)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(b, &f.file); err != nil {
			return fmt.Errorf("%s: %w", f.ConfigPath, err)
		}
		f.Catalog = f.file.Catalog
		if f.Catalog.Driver == "" || f.set["driver"] {
			f.Catalog.Driver = flagged.Driver
		}
		if f.Catalog.DSN == "" || f.set["db"] {
			f.Catalog.DSN = flagged.DSN
		}
		if f.set["seed"] {
			f.Catalog.Seed = flagged.Seed
		}
	}
	if len(f.file.Fields) == 0 {
		f.schema = schema.Default()
		return nil
	}
	s, err := schema.New(f.file.Fields)
	if err != nil {
		return fmt.Errorf("%s: %w", f.ConfigPath, err)
	}
	f.schema = s
	return nil
}

func (f *Flags) Schema() *schema.Schema {
	if f.schema == nil {
		return schema.Default()
	}
	return f.schema
}

// LogConfig returns the log section of the config file and whether it
// was present.
func (f *Flags) LogConfig() (logger.Config, bool) {
	if f.file.Log == nil {
		return logger.Config{}, false
	}
	return *f.file.Log, true
}

func (f *Flags) Open(ctx context.Context, logger *zap.Logger) (*catalog.Catalog, error) {
	return catalog.Open(ctx, f.Catalog, f.Schema(), logger)
}
