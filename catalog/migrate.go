package catalog

import (
	"context"
	"fmt"

	"github.com/jeremymatt/photo-manager/schema"
	"go.uber.org/zap"
)

type ddl struct {
	key     string
	integer string
	real    string
	boolean string
}

var ddls = map[string]ddl{
	DriverSQLite: {
		key:     "INTEGER PRIMARY KEY AUTOINCREMENT",
		integer: "INTEGER",
		real:    "REAL",
		boolean: "INTEGER",
	},
	DriverPostgres: {
		key:     "BIGSERIAL PRIMARY KEY",
		integer: "BIGINT",
		real:    "DOUBLE PRECISION",
		boolean: "SMALLINT",
	},
}

func (d ddl) column(k schema.Kind) string {
	switch k {
	case schema.KindInt:
		return d.integer
	case schema.KindFloat:
		return d.real
	case schema.KindBool:
		return d.boolean
	}
	return "TEXT"
}

func quote(col string) string {
	return `"` + col + `"`
}

// migrate creates the catalog tables and adds a column for every schema
// field the images table lacks.  Existing columns are never altered.
func (c *Catalog) migrate(ctx context.Context) error {
	d := ddls[c.driver]
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS images (
	id %s,
	filepath TEXT NOT NULL UNIQUE
)`, d.key),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tags (
	id %s,
	name TEXT NOT NULL,
	parent_id %s REFERENCES tags(id),
	path TEXT NOT NULL UNIQUE
)`, d.key, d.integer),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS image_tags (
	image_id %s NOT NULL REFERENCES images(id) ON DELETE CASCADE,
	tag_id %s NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (image_id, tag_id)
)`, d.integer, d.integer),
		"CREATE INDEX IF NOT EXISTS image_tags_tag_id ON image_tags (tag_id)",
	}
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	have, err := c.columns(ctx)
	if err != nil {
		return err
	}
	for _, f := range c.schema.Fields() {
		if have[f.Column] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE images ADD COLUMN %s %s", quote(f.Column), d.column(f.Kind))
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("adding column for field %q: %w", f.Name, err)
		}
		c.logger.Debug("Added images column", zap.String("field", f.Name), zap.String("column", f.Column))
	}
	return nil
}

func (c *Catalog) columns(ctx context.Context) (map[string]bool, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT * FROM images WHERE 1=0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(names))
	for _, name := range names {
		have[name] = true
	}
	return have, nil
}
