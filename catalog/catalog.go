// Package catalog stores images, the tag tree and tag assignments in a SQL
// database and runs tag queries against them.  SQLite (modernc.org/sqlite)
// and Postgres (pgx) are supported.
//
// The catalog owns the tag tree.  Structural changes are serialized by a
// mutex and published copy-on-write, so a Snapshot taken before a change
// is never affected by it.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeremymatt/photo-manager/compiler"
	"github.com/jeremymatt/photo-manager/compiler/batch"
	zqe "github.com/jeremymatt/photo-manager/errors"
	"github.com/jeremymatt/photo-manager/field"
	"github.com/jeremymatt/photo-manager/runtime"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/jeremymatt/photo-manager/tagtree"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	MemoryDSN = ":memory:"
)

type Config struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Seed creates the default tag tree in an empty catalog.
	Seed bool `yaml:"seed"`
}

type Catalog struct {
	db      *sql.DB
	driver  string
	dialect batch.Dialect
	schema  *schema.Schema
	logger  *zap.Logger

	// mu serializes tag tree mutations.
	mu   sync.Mutex
	tree atomic.Pointer[tagtree.Tree]
}

// Open connects to the database described by conf, creating or extending
// its tables to fit s.
func Open(ctx context.Context, conf Config, s *schema.Schema, logger *zap.Logger) (*Catalog, error) {
	driver := conf.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	dialect, ok := batch.LookupDialect(driver)
	if !ok {
		return nil, zqe.ErrInvalid("unknown catalog driver %q", driver)
	}
	if driver != DriverPostgres {
		driver = DriverSQLite
	}
	dsn := conf.DSN
	if dsn == "" && driver == DriverSQLite {
		dsn = MemoryDSN
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite && isMemory(dsn) {
		// Every connection to ":memory:" opens a distinct database.
		db.SetMaxOpenConns(1)
	}
	c := &Catalog{
		db:      db,
		driver:  driver,
		dialect: dialect,
		schema:  s,
		logger:  logger.Named("catalog"),
	}
	if err := c.init(ctx, conf.Seed); err != nil {
		db.Close()
		return nil, err
	}
	c.logger.Debug("Catalog opened",
		zap.String("driver", driver),
		zap.Int("tags", c.tree.Load().Len()),
	)
	return c, nil
}

func isMemory(dsn string) bool {
	return dsn == MemoryDSN || strings.Contains(dsn, "mode=memory")
}

func (c *Catalog) init(ctx context.Context, seed bool) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if c.driver == DriverSQLite {
		if _, err := c.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return err
		}
	}
	if err := c.migrate(ctx); err != nil {
		return fmt.Errorf("catalog migration: %w", err)
	}
	if err := c.loadTree(ctx); err != nil {
		return err
	}
	if seed && c.tree.Load().Len() == 0 {
		return c.seed(ctx)
	}
	return nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) Dialect() batch.Dialect {
	return c.dialect
}

func (c *Catalog) Schema() *schema.Schema {
	return c.schema
}

// Tags returns the current tag tree snapshot.
func (c *Catalog) Tags() *tagtree.Tree {
	return c.tree.Load()
}

// Snapshot returns a query context over the current tag tree.
func (c *Catalog) Snapshot() *runtime.Context {
	return runtime.NewContext(c.tree.Load(), c.schema)
}

// rebind rewrites "?" parameter markers for the catalog's dialect.
func (c *Catalog) rebind(query string) string {
	if c.dialect == batch.SQLite {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(c.dialect.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (c *Catalog) loadTree(ctx context.Context) error {
	rows, err := c.db.QueryContext(ctx, "SELECT id, name, parent_id FROM tags ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()
	tree := tagtree.New()
	for rows.Next() {
		var id int64
		var name string
		var parent sql.NullInt64
		if err := rows.Scan(&id, &name, &parent); err != nil {
			return err
		}
		if err := tree.Insert(tagtree.ID(id), tagtree.ID(parent.Int64), name); err != nil {
			return fmt.Errorf("catalog: loading tag %d: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	c.tree.Store(tree)
	return nil
}

// DefaultTags is the tag tree created by Seed.
var DefaultTags = []string{
	"photographer_name",
	"scene.indoor",
	"scene.outdoor.lake",
	"scene.outdoor.hike",
	"event.christmas",
	"event.birthday.alice",
	"event.birthday.bob",
	"event.vacation.lake",
	"event.vacation.city",
	"person.alice",
	"person.bob",
}

func (c *Catalog) seed(ctx context.Context) error {
	for _, path := range DefaultTags {
		if _, err := c.EnsureTag(ctx, path); err != nil {
			return err
		}
	}
	c.logger.Debug("Seeded default tag tree", zap.Int("tags", c.tree.Load().Len()))
	return nil
}

// EnsureTag returns the ID of the tag at path, creating it and any missing
// ancestors.
func (c *Catalog) EnsureTag(ctx context.Context, path string) (tagtree.ID, error) {
	p := field.Dotted(path)
	if !p.Valid() {
		return 0, zqe.ErrInvalid("invalid tag path %q", path)
	}
	if id, ok := c.tree.Load().Lookup(p.String()); ok {
		return id, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	tree := c.tree.Load().Clone()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	parent := tagtree.Root
	for k := range p {
		prefix := p[:k+1].String()
		if id, ok := tree.Lookup(prefix); ok {
			parent = id
			continue
		}
		var parentArg any
		if parent != tagtree.Root {
			parentArg = int64(parent)
		}
		var id int64
		row := tx.QueryRowContext(ctx, c.rebind("INSERT INTO tags (name, parent_id, path) VALUES (?, ?, ?) RETURNING id"), p[k], parentArg, prefix)
		if err := row.Scan(&id); err != nil {
			return 0, fmt.Errorf("creating tag %q: %w", prefix, err)
		}
		if err := tree.Insert(tagtree.ID(id), parent, p[k]); err != nil {
			return 0, err
		}
		parent = tagtree.ID(id)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	c.tree.Store(tree)
	c.logger.Debug("Tag created", zap.String("path", p.String()), zap.Int64("id", int64(parent)))
	return parent, nil
}

func (c *Catalog) checkImage(ctx context.Context, id int64) error {
	var one int
	err := c.db.QueryRowContext(ctx, c.rebind("SELECT 1 FROM images WHERE id = ?"), id).Scan(&one)
	if err == sql.ErrNoRows {
		return zqe.ErrNotFound("image %d", id)
	}
	return err
}

// AssignTag assigns the tag at path to an image, creating the tag if
// needed.  Assigning a tag twice is not an error.
func (c *Catalog) AssignTag(ctx context.Context, imageID int64, path string) error {
	if err := c.checkImage(ctx, imageID); err != nil {
		return err
	}
	tagID, err := c.EnsureTag(ctx, path)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, c.rebind("INSERT INTO image_tags (image_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING"), imageID, int64(tagID))
	return err
}

func (c *Catalog) UnassignTag(ctx context.Context, imageID int64, path string) error {
	tagID, ok := c.tree.Load().Lookup(path)
	if !ok {
		return zqe.ErrNotFound("tag %q", path)
	}
	res, err := c.db.ExecContext(ctx, c.rebind("DELETE FROM image_tags WHERE image_id = ? AND tag_id = ?"), imageID, int64(tagID))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return zqe.ErrNotFound("tag %q is not assigned to image %d", path, imageID)
	}
	return nil
}

// AddImage inserts an image with the given field values and returns its ID.
func (c *Catalog) AddImage(ctx context.Context, path string, fields map[string]schema.Value) (int64, error) {
	values := make(map[string]schema.Value, len(fields))
	for name, v := range fields {
		f, ok := c.schema.Lookup(name)
		if !ok {
			return 0, zqe.ErrInvalid("unknown field %q", name)
		}
		values[f.Name] = v
	}
	cols := []string{"filepath"}
	marks := []string{"?"}
	args := []any{path}
	for _, f := range c.schema.Fields() {
		v, ok := values[f.Name]
		if !ok || v.IsAbsent() {
			continue
		}
		arg, err := c.fieldArg(f, v)
		if err != nil {
			return 0, err
		}
		cols = append(cols, quote(f.Column))
		marks = append(marks, "?")
		args = append(args, arg)
	}
	query := fmt.Sprintf("INSERT INTO images (%s) VALUES (%s) RETURNING id", strings.Join(cols, ", "), strings.Join(marks, ", "))
	var id int64
	if err := c.db.QueryRowContext(ctx, c.rebind(query), args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("adding image %q: %w", path, err)
	}
	c.logger.Debug("Image added", zap.String("path", path), zap.Int64("id", id))
	return id, nil
}

// SetField sets (or, with schema.Absent, clears) one field of an image.
func (c *Catalog) SetField(ctx context.Context, imageID int64, name string, v schema.Value) error {
	f, ok := c.schema.Lookup(name)
	if !ok {
		return zqe.ErrInvalid("unknown field %q", name)
	}
	var arg any
	if !v.IsAbsent() {
		var err error
		if arg, err = c.fieldArg(f, v); err != nil {
			return err
		}
	}
	res, err := c.db.ExecContext(ctx, c.rebind(fmt.Sprintf("UPDATE images SET %s = ? WHERE id = ?", quote(f.Column))), arg, imageID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return zqe.ErrNotFound("image %d", imageID)
	}
	return nil
}

func (c *Catalog) fieldArg(f schema.Field, v schema.Value) (any, error) {
	switch {
	case v.Kind == f.Kind:
	case f.Kind == schema.KindFloat && v.Kind == schema.KindInt:
		return v.Float(), nil
	default:
		return nil, zqe.ErrInvalid("field %q is %s, not %s", f.Name, f.Kind, v.Kind)
	}
	return v.Native(), nil
}

// Select runs a compiled filter and returns the IDs of matching images in
// ascending order.
func (c *Catalog) Select(ctx context.Context, f *batch.Filter) ([]int64, error) {
	if f.Dialect != c.dialect.Name() {
		return nil, zqe.ErrInvalid("filter compiled for %s cannot run on %s", f.Dialect, c.dialect.Name())
	}
	start := time.Now()
	rows, err := c.db.QueryContext(ctx, f.Select(), f.Args...)
	if err != nil {
		return nil, fmt.Errorf("running filter: %w", err)
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	c.logger.Debug("Filter executed",
		zap.String("where", f.Where),
		zap.Int("matches", len(ids)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ids, nil
}

// Compile compiles src against the current snapshot.  An empty or blank
// query selects every image.
func (c *Catalog) Compile(src string) (*batch.Filter, error) {
	if strings.TrimSpace(src) == "" {
		return &batch.Filter{Dialect: c.dialect.Name(), Where: "TRUE"}, nil
	}
	q, err := compiler.Compile(src, c.Snapshot())
	if err != nil {
		return nil, err
	}
	return q.SQL(c.dialect)
}

// Query returns the IDs of images matching src.
func (c *Catalog) Query(ctx context.Context, src string) ([]int64, error) {
	f, err := c.Compile(src)
	if err != nil {
		return nil, err
	}
	return c.Select(ctx, f)
}

// Count returns the number of images matching src.
func (c *Catalog) Count(ctx context.Context, src string) (int, error) {
	f, err := c.Compile(src)
	if err != nil {
		return 0, err
	}
	var n int
	if err := c.db.QueryRowContext(ctx, f.Count(), f.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting: %w", err)
	}
	return n, nil
}
