package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/araddon/dateparse"
	zqe "github.com/jeremymatt/photo-manager/errors"
	"github.com/jeremymatt/photo-manager/schema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Fixture describes catalog contents in YAML:
//
//	tags: [scene.outdoor.lake, person.alice]
//	images:
//	  - path: a.jpg
//	    datetime: 2021-07-04 18:30:00
//	    fields: {favorite: true, location.city: Paris}
//	    tags: [scene.outdoor.lake]
type Fixture struct {
	Tags   []string       `yaml:"tags,omitempty"`
	Images []FixtureImage `yaml:"images,omitempty"`
}

type FixtureImage struct {
	Path string `yaml:"path"`
	// Datetime, when set, is parsed in any common layout and fills the
	// datetime field and its year through second components.
	Datetime string         `yaml:"datetime,omitempty"`
	Fields   map[string]any `yaml:"fields,omitempty"`
	Tags     []string       `yaml:"tags,omitempty"`
}

func ReadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	return &f, nil
}

// LoadFixture reads a YAML fixture from r and adds it to the catalog.
func (c *Catalog) LoadFixture(ctx context.Context, r io.Reader) (map[string]int64, error) {
	f, err := ReadFixture(r)
	if err != nil {
		return nil, err
	}
	return c.Apply(ctx, f)
}

// Apply adds the tags and images of f to the catalog and returns the new
// image IDs keyed by path.
func (c *Catalog) Apply(ctx context.Context, f *Fixture) (map[string]int64, error) {
	for _, path := range f.Tags {
		if _, err := c.EnsureTag(ctx, path); err != nil {
			return nil, err
		}
	}
	ids := make(map[string]int64, len(f.Images))
	for _, img := range f.Images {
		if img.Path == "" {
			return nil, zqe.ErrInvalid("fixture image without a path")
		}
		fields, err := c.fixtureFields(img)
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", img.Path, err)
		}
		id, err := c.AddImage(ctx, img.Path, fields)
		if err != nil {
			return nil, err
		}
		for _, tag := range img.Tags {
			if err := c.AssignTag(ctx, id, tag); err != nil {
				return nil, err
			}
		}
		ids[img.Path] = id
	}
	c.logger.Debug("Fixture loaded",
		zap.Int("images", len(f.Images)),
		zap.Int("tags", c.tree.Load().Len()),
	)
	return ids, nil
}

func (c *Catalog) fixtureFields(img FixtureImage) (map[string]schema.Value, error) {
	out := make(map[string]schema.Value)
	if img.Datetime != "" {
		if err := c.setDatetime(out, img.Datetime); err != nil {
			return nil, err
		}
	}
	for name, raw := range img.Fields {
		f, ok := c.schema.Lookup(name)
		if !ok {
			return nil, zqe.ErrInvalid("unknown field %q", name)
		}
		v, err := schema.Coerce(f.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[f.Name] = v
	}
	return out, nil
}

// setDatetime fills the datetime field with the ISO form of s and each
// component field the schema declares.
func (c *Catalog) setDatetime(out map[string]schema.Value, s string) error {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return zqe.ErrInvalid("datetime %q: %s", s, err)
	}
	parts := []struct {
		name  string
		value schema.Value
	}{
		{"datetime", schema.NewString(t.Format("2006-01-02T15:04:05"))},
		{"datetime.year", schema.NewInt(int64(t.Year()))},
		{"datetime.month", schema.NewInt(int64(t.Month()))},
		{"datetime.day", schema.NewInt(int64(t.Day()))},
		{"datetime.hr", schema.NewInt(int64(t.Hour()))},
		{"datetime.min", schema.NewInt(int64(t.Minute()))},
		{"datetime.sec", schema.NewInt(int64(t.Second()))},
	}
	for _, p := range parts {
		if f, ok := c.schema.Lookup(p.name); ok && f.Kind == p.value.Kind {
			out[f.Name] = p.value
		}
	}
	return nil
}
