package batch_test

import (
	"fmt"
	"testing"

	"github.com/jeremymatt/photo-manager/compiler/batch"
	"github.com/jeremymatt/photo-manager/compiler/parser"
	"github.com/jeremymatt/photo-manager/compiler/semantic"
	"github.com/jeremymatt/photo-manager/runtime"
	"github.com/jeremymatt/photo-manager/runtime/expr"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/jeremymatt/photo-manager/tagtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T) *runtime.Context {
	tree := tagtree.New()
	for _, p := range []string{"scene.outdoor.lake", "scene.indoor", "person.alice"} {
		_, err := tree.Add(p)
		require.NoError(t, err)
	}
	return runtime.NewContext(tree, schema.Default())
}

func compile(ctx *runtime.Context, src string, d batch.Dialect) (*batch.Filter, error) {
	e, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	e, err = semantic.Normalize(e, ctx.Schema)
	if err != nil {
		return nil, err
	}
	return batch.Compile(ctx, e, d)
}

func TestCompileSQLite(t *testing.T) {
	ctx := newContext(t)
	cases := []struct {
		src   string
		where string
		args  []any
	}{
		{
			"tag.scene.outdoor*",
			"EXISTS (SELECT 1 FROM image_tags t1 WHERE t1.image_id = i.id AND t1.tag_id IN (?, ?))",
			[]any{int64(2), int64(3)},
		},
		{
			"tag.scene.outdoor.*",
			"EXISTS (SELECT 1 FROM image_tags t1 WHERE t1.image_id = i.id AND t1.tag_id = ?)",
			[]any{int64(3)},
		},
		{"tag.scene.outdoor.lake.*", "FALSE", nil},
		{"tag.ghost", "FALSE", nil},
		{"tag.ghost*", "FALSE", nil},
		{
			"!tag.person.alice || tag.scene.indoor",
			"(NOT (EXISTS (SELECT 1 FROM image_tags t1 WHERE t1.image_id = i.id AND t1.tag_id = ?)) OR " +
				"EXISTS (SELECT 1 FROM image_tags t2 WHERE t2.image_id = i.id AND t2.tag_id = ?))",
			[]any{int64(6), int64(4)},
		},
		{
			"tag.favorite && tag.datetime.year>=2020",
			`((i."favorite" IS NOT NULL AND i."favorite" = ?) AND (i."year" IS NOT NULL AND i."year" >= ?))`,
			[]any{int64(1), int64(2020)},
		},
		{"tag.location.city==None", `i."city" IS NULL`, nil},
		{"tag.datetime.year", `i."year" IS NOT NULL`, nil},
		{
			"tag.location.latitude>42",
			`(i."latitude" IS NOT NULL AND i."latitude" > ?)`,
			[]any{float64(42)},
		},
		{
			"tag.datetime.year>9007199254740992.0",
			`(i."year" IS NOT NULL AND CAST(i."year" AS REAL) > ?)`,
			[]any{9007199254740992.0},
		},
		{
			`tag.person=="Alice"`,
			"EXISTS (SELECT 1 FROM image_tags t1 WHERE t1.image_id = i.id AND t1.tag_id = ?)",
			[]any{int64(6)},
		},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			f, err := compile(ctx, c.src, batch.SQLite)
			require.NoError(t, err)
			assert.Equal(t, c.where, f.Where)
			assert.Equal(t, c.args, f.Args)
			assert.Equal(t, "sqlite", f.Dialect)
		})
	}
}

func TestCompilePostgres(t *testing.T) {
	ctx := newContext(t)
	f, err := compile(ctx, "tag.location.city<'B' || tag.datetime.year>2020.5 || tag.scene*", batch.Postgres)
	require.NoError(t, err)
	expected := `(((i."city" IS NOT NULL AND i."city" COLLATE "C" < $1) OR ` +
		`(i."year" IS NOT NULL AND CAST(i."year" AS DOUBLE PRECISION) > $2)) OR ` +
		`EXISTS (SELECT 1 FROM image_tags t1 WHERE t1.image_id = i.id AND t1.tag_id IN ($3, $4, $5, $6)))`
	assert.Equal(t, expected, f.Where)
	assert.Equal(t, []any{"B", 2020.5, int64(1), int64(4), int64(2), int64(3)}, f.Args)
	assert.Equal(t, "SELECT i.id FROM images i WHERE "+expected+" ORDER BY i.id", f.Select())
	assert.Equal(t, "SELECT COUNT(*) FROM images i WHERE "+expected, f.Count())
}

func TestCompileLargeSubtree(t *testing.T) {
	tree := tagtree.New()
	for k := 0; k < batch.MaxInlineTagIDs; k++ {
		_, err := tree.Add(fmt.Sprintf("a_b.c%d", k))
		require.NoError(t, err)
	}
	ctx := runtime.NewContext(tree, schema.Default())

	f, err := compile(ctx, "tag.a_b.*", batch.SQLite)
	require.NoError(t, err)
	assert.Len(t, f.Args, batch.MaxInlineTagIDs)

	f, err = compile(ctx, "tag.a_b*", batch.SQLite)
	require.NoError(t, err)
	assert.Equal(t, "EXISTS (SELECT 1 FROM image_tags t1 WHERE t1.image_id = i.id AND "+
		`t1.tag_id IN (SELECT id FROM tags WHERE path = ? OR path LIKE ? ESCAPE '\'))`, f.Where)
	assert.Equal(t, []any{"a_b", `a\_b.%`}, f.Args)

	_, err = tree.Add("a_b.extra")
	require.NoError(t, err)
	f, err = compile(ctx, "tag.a_b.* && tag.a_b.c1", batch.Postgres)
	require.NoError(t, err)
	assert.Equal(t, "(EXISTS (SELECT 1 FROM image_tags t1 WHERE t1.image_id = i.id AND "+
		`t1.tag_id IN (SELECT id FROM tags WHERE path LIKE $1 ESCAPE '\')) AND `+
		"EXISTS (SELECT 1 FROM image_tags t2 WHERE t2.image_id = i.id AND t2.tag_id = $2))", f.Where)
	assert.Equal(t, `a\_b.%`, f.Args[0])
	assert.Len(t, f.Args, 2)
}

func TestCompileErrors(t *testing.T) {
	ctx := newContext(t)
	_, err := compile(ctx, "tag.favorite<true", batch.SQLite)
	var terr *expr.TypeError
	assert.ErrorAs(t, err, &terr)
	_, err = compile(ctx, "tag.scene.indoor && tag.rating>3", batch.SQLite)
	var ferr *expr.UnknownFieldError
	assert.ErrorAs(t, err, &ferr)
}

func TestLookupDialect(t *testing.T) {
	d, ok := batch.LookupDialect("pgx")
	require.True(t, ok)
	assert.Equal(t, "postgres", d.Name())
	d, ok = batch.LookupDialect("sqlite")
	require.True(t, ok)
	assert.Equal(t, batch.SQLite, d)
	_, ok = batch.LookupDialect("mysql")
	assert.False(t, ok)
}
