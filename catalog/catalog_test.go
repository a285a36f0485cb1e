package catalog_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeremymatt/photo-manager/catalog"
	"github.com/jeremymatt/photo-manager/compiler"
	"github.com/jeremymatt/photo-manager/compiler/batch"
	zqe "github.com/jeremymatt/photo-manager/errors"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const fixture = `
tags: [scene.indoor]
images:
  - path: lake.jpg
    datetime: "2021-07-04 18:30:15"
    fields: {favorite: true, location.city: Paris, location.latitude: 48.85}
    tags: [scene.outdoor.lake, person.alice]
  - path: hike.jpg
    fields: {favorite: false}
    tags: [scene.outdoor.hike]
  - path: parent.jpg
    tags: [scene.outdoor]
  - path: bare.jpg
`

func openCatalog(t *testing.T, conf catalog.Config) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Open(context.Background(), conf, schema.Default(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func loaded(t *testing.T) (*catalog.Catalog, map[string]int64) {
	t.Helper()
	c := openCatalog(t, catalog.Config{})
	ids, err := c.LoadFixture(context.Background(), strings.NewReader(fixture))
	require.NoError(t, err)
	require.Len(t, ids, 4)
	return c, ids
}

func TestOpenSeed(t *testing.T) {
	c := openCatalog(t, catalog.Config{Seed: true})
	tree := c.Tags()
	for _, p := range catalog.DefaultTags {
		_, ok := tree.Lookup(p)
		assert.True(t, ok, p)
	}
	_, ok := tree.Lookup("favorite")
	assert.False(t, ok)
	assert.Equal(t, batch.SQLite, c.Dialect())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := catalog.Open(context.Background(), catalog.Config{Driver: "oracle"}, schema.Default(), zaptest.NewLogger(t))
	assert.True(t, zqe.IsInvalid(err))
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	conf := catalog.Config{DSN: filepath.Join(t.TempDir(), "catalog.db")}
	c, err := catalog.Open(ctx, conf, schema.Default(), zaptest.NewLogger(t))
	require.NoError(t, err)
	id, err := c.AddImage(ctx, "a.jpg", map[string]schema.Value{"favorite": schema.NewBool(true)})
	require.NoError(t, err)
	require.NoError(t, c.AssignTag(ctx, id, "Scene.Outdoor.Lake"))
	want, _ := c.Tags().Lookup("scene.outdoor.lake")
	require.NoError(t, c.Close())

	c = openCatalog(t, conf)
	got, ok := c.Tags().Lookup("scene.outdoor.lake")
	require.True(t, ok)
	assert.Equal(t, want, got)
	ids, err := c.Query(ctx, "tag.scene.outdoor* && tag.favorite")
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, ids)
}

func TestRecords(t *testing.T) {
	c, ids := loaded(t)
	records, err := c.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)
	r := records[0]
	assert.Equal(t, ids["lake.jpg"], r.ID)
	assert.Equal(t, "lake.jpg", r.Path)
	assert.Equal(t, []string{"person.alice", "scene.outdoor.lake"}, r.Tags.Sorted())
	assert.Equal(t, schema.NewBool(true), r.Field("favorite"))
	assert.Equal(t, schema.NewString("Paris"), r.Field("location.city"))
	assert.Equal(t, schema.NewFloat(48.85), r.Field("location.latitude"))
	assert.Equal(t, schema.NewString("2021-07-04T18:30:15"), r.Field("datetime"))
	assert.Equal(t, schema.NewInt(2021), r.Field("datetime.year"))
	assert.Equal(t, schema.NewInt(18), r.Field("datetime.hr"))
	assert.Equal(t, schema.NewInt(15), r.Field("datetime.sec"))
	assert.True(t, records[3].Field("favorite").IsAbsent())
	assert.Empty(t, records[3].Tags)

	some, err := c.Images(context.Background(), []int64{ids["bare.jpg"], ids["hike.jpg"], 999})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "hike.jpg", some[0].Path)
	assert.Equal(t, "bare.jpg", some[1].Path)
}

func TestQuery(t *testing.T) {
	c, ids := loaded(t)
	ctx := context.Background()
	cases := []struct {
		query string
		paths []string
	}{
		{"tag.scene.outdoor*", []string{"lake.jpg", "hike.jpg", "parent.jpg"}},
		{"tag.scene.outdoor.*", []string{"lake.jpg", "hike.jpg"}},
		{"tag.scene.outdoor", []string{"parent.jpg"}},
		{"tag.favorite", []string{"lake.jpg"}},
		{"tag.favorite==None", []string{"parent.jpg", "bare.jpg"}},
		{"!tag.favorite", []string{"hike.jpg", "parent.jpg", "bare.jpg"}},
		{`tag.person=="Alice"`, []string{"lake.jpg"}},
		{`tag.location.city>="P"`, []string{"lake.jpg"}},
		{"tag.datetime.year<2022", []string{"lake.jpg"}},
		{"tag.nowhere", nil},
		{"", []string{"lake.jpg", "hike.jpg", "parent.jpg", "bare.jpg"}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			want := []int64{}
			for _, p := range tc.paths {
				want = append(want, ids[p])
			}
			got, err := c.Query(ctx, tc.query)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			n, err := c.Count(ctx, tc.query)
			require.NoError(t, err)
			assert.Equal(t, len(want), n)
		})
	}
}

// Direct evaluation over loaded records agrees with the SQL filter.
func TestDirectMatchesBatch(t *testing.T) {
	c, _ := loaded(t)
	ctx := context.Background()
	records, err := c.Records(ctx)
	require.NoError(t, err)
	for _, src := range []string{
		"tag.scene.outdoor* && !tag.person.alice",
		"tag.favorite!=true",
		"tag.location.latitude>48 || tag.scene.indoor",
		"!(tag.scene.outdoor.lake || tag.favorite==false)",
	} {
		q, err := compiler.Compile(src, c.Snapshot())
		require.NoError(t, err)
		var direct []int64
		for k, ok := range q.Filter(records) {
			if ok {
				direct = append(direct, records[k].ID)
			}
		}
		got, err := c.Query(ctx, src)
		require.NoError(t, err)
		if direct == nil {
			direct = []int64{}
		}
		assert.Equal(t, direct, got, src)
	}
}

// Wildcards over large subtrees are resolved by path in SQL and must not
// treat "_" in a tag path as a LIKE wildcard.
func TestLargeSubtree(t *testing.T) {
	c := openCatalog(t, catalog.Config{})
	ctx := context.Background()
	for k := 0; k <= batch.MaxInlineTagIDs; k++ {
		_, err := c.EnsureTag(ctx, fmt.Sprintf("a_b.c%d", k))
		require.NoError(t, err)
	}
	_, err := c.LoadFixture(ctx, strings.NewReader(`
images:
  - path: leaf.jpg
    tags: [a_b.c7]
  - path: parent.jpg
    tags: [a_b]
  - path: sibling.jpg
    tags: [axb.c7]
  - path: deep.jpg
    tags: [a_b.new.leaf]
`))
	require.NoError(t, err)
	records, err := c.Records(ctx)
	require.NoError(t, err)
	cases := []struct {
		query string
		paths []string
	}{
		{"tag.a_b.*", []string{"leaf.jpg", "deep.jpg"}},
		{"tag.a_b*", []string{"leaf.jpg", "parent.jpg", "deep.jpg"}},
		{"!tag.a_b* && tag.axb*", []string{"sibling.jpg"}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			f, err := c.Compile(tc.query)
			require.NoError(t, err)
			assert.Contains(t, f.Where, "FROM tags")
			q, err := compiler.Compile(tc.query, c.Snapshot())
			require.NoError(t, err)
			var direct []string
			for k, ok := range q.Filter(records) {
				if ok {
					direct = append(direct, records[k].Path)
				}
			}
			assert.Equal(t, tc.paths, direct)
			ids, err := c.Select(ctx, f)
			require.NoError(t, err)
			images, err := c.Images(ctx, ids)
			require.NoError(t, err)
			var selected []string
			for _, rec := range images {
				selected = append(selected, rec.Path)
			}
			assert.Equal(t, tc.paths, selected)
		})
	}
}

func TestSnapshotIsolation(t *testing.T) {
	c, ids := loaded(t)
	ctx := context.Background()
	q, err := compiler.Compile("tag.scene.outdoor*", c.Snapshot())
	require.NoError(t, err)
	before, err := q.SQL(c.Dialect())
	require.NoError(t, err)

	require.NoError(t, c.AssignTag(ctx, ids["bare.jpg"], "scene.outdoor.beach"))
	got, err := c.Select(ctx, before)
	require.NoError(t, err)
	assert.NotContains(t, got, ids["bare.jpg"])

	got, err = c.Query(ctx, "tag.scene.outdoor*")
	require.NoError(t, err)
	assert.Contains(t, got, ids["bare.jpg"])
}

func TestSetField(t *testing.T) {
	c, ids := loaded(t)
	ctx := context.Background()
	require.NoError(t, c.SetField(ctx, ids["bare.jpg"], "favorite", schema.NewBool(true)))
	got, err := c.Query(ctx, "tag.favorite")
	require.NoError(t, err)
	assert.Equal(t, []int64{ids["lake.jpg"], ids["bare.jpg"]}, got)

	require.NoError(t, c.SetField(ctx, ids["lake.jpg"], "favorite", schema.Absent))
	got, err = c.Query(ctx, "tag.favorite==None")
	require.NoError(t, err)
	assert.Equal(t, []int64{ids["lake.jpg"], ids["parent.jpg"]}, got)

	require.NoError(t, c.SetField(ctx, ids["bare.jpg"], "location.latitude", schema.NewInt(10)))
	err = c.SetField(ctx, ids["bare.jpg"], "favorite", schema.NewString("yes"))
	assert.True(t, zqe.IsInvalid(err))
	err = c.SetField(ctx, ids["bare.jpg"], "colour", schema.NewString("red"))
	assert.True(t, zqe.IsInvalid(err))
	err = c.SetField(ctx, 999, "favorite", schema.NewBool(true))
	assert.True(t, zqe.IsNotFound(err))
}

func TestTagErrors(t *testing.T) {
	c, ids := loaded(t)
	ctx := context.Background()
	assert.True(t, zqe.IsNotFound(c.AssignTag(ctx, 999, "scene.indoor")))
	_, err := c.EnsureTag(ctx, "scene..indoor")
	assert.True(t, zqe.IsInvalid(err))
	assert.NoError(t, c.AssignTag(ctx, ids["lake.jpg"], "person.alice"))

	require.NoError(t, c.UnassignTag(ctx, ids["lake.jpg"], "person.alice"))
	assert.True(t, zqe.IsNotFound(c.UnassignTag(ctx, ids["lake.jpg"], "person.alice")))
	assert.True(t, zqe.IsNotFound(c.UnassignTag(ctx, ids["lake.jpg"], "person.zed")))
}

func TestSelectWrongDialect(t *testing.T) {
	c := openCatalog(t, catalog.Config{})
	_, err := c.Select(context.Background(), &batch.Filter{Dialect: "postgres", Where: "TRUE"})
	assert.True(t, zqe.IsInvalid(err))
}

func TestFixtureErrors(t *testing.T) {
	c := openCatalog(t, catalog.Config{})
	ctx := context.Background()
	_, err := c.LoadFixture(ctx, strings.NewReader("images:\n  - path: a.jpg\n    fields: {colour: red}\n"))
	assert.ErrorContains(t, err, `unknown field "colour"`)
	_, err = c.LoadFixture(ctx, strings.NewReader("images:\n  - path: a.jpg\n    datetime: not a date\n"))
	assert.ErrorContains(t, err, "datetime")
	_, err = c.LoadFixture(ctx, strings.NewReader("pictures: []\n"))
	assert.Error(t, err)
}
