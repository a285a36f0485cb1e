package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeremymatt/photo-manager/schema"
	"github.com/jeremymatt/photo-manager/tagtree"
)

// Records loads every image as a record for direct evaluation, in
// ascending ID order.
func (c *Catalog) Records(ctx context.Context) ([]*schema.Record, error) {
	return c.load(ctx, "", nil)
}

// Images loads the records of the given image IDs, in ascending ID order.
// Unknown IDs are skipped.
func (c *Catalog) Images(ctx context.Context, ids []int64) ([]*schema.Record, error) {
	if len(ids) == 0 {
		return []*schema.Record{}, nil
	}
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for k, id := range ids {
		marks[k] = "?"
		args[k] = id
	}
	return c.load(ctx, " WHERE id IN ("+strings.Join(marks, ", ")+")", args)
}

func (c *Catalog) load(ctx context.Context, where string, args []any) ([]*schema.Record, error) {
	fields := c.schema.Fields()
	cols := []string{"id", "filepath"}
	for _, f := range fields {
		cols = append(cols, quote(f.Column))
	}
	query := "SELECT " + strings.Join(cols, ", ") + " FROM images" + where + " ORDER BY id"
	rows, err := c.db.QueryContext(ctx, c.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []*schema.Record{}
	index := make(map[int64]*schema.Record)
	for rows.Next() {
		r := &schema.Record{
			Fields: make(map[string]schema.Value),
			Tags:   schema.NewTagSet(),
		}
		vals := make([]any, len(fields))
		dest := []any{&r.ID, &r.Path}
		for k := range vals {
			dest = append(dest, &vals[k])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for k, f := range fields {
			v, err := schema.Coerce(f.Kind, vals[k])
			if err != nil {
				return nil, fmt.Errorf("image %d: field %q: %w", r.ID, f.Name, err)
			}
			if !v.IsAbsent() {
				r.Fields[f.Name] = v
			}
		}
		records = append(records, r)
		index[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}
	if err := c.loadTags(ctx, index); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Catalog) loadTags(ctx context.Context, index map[int64]*schema.Record) error {
	tree := c.tree.Load()
	rows, err := c.db.QueryContext(ctx, "SELECT image_id, tag_id FROM image_tags")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var imageID, tagID int64
		if err := rows.Scan(&imageID, &tagID); err != nil {
			return err
		}
		r, ok := index[imageID]
		if !ok {
			continue
		}
		if path := tree.Path(tagtree.ID(tagID)); path != "" {
			r.Tags.Add(path)
		}
	}
	return rows.Err()
}
