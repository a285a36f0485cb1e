package query

import (
	"context"
	"strings"
	"testing"

	"github.com/jeremymatt/photo-manager/catalog"
	"github.com/jeremymatt/photo-manager/compiler"
	"github.com/jeremymatt/photo-manager/compiler/batch"
	"github.com/jeremymatt/photo-manager/runtime"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPrintSQL(t *testing.T) {
	q, err := compiler.Compile("tag.image_size.width>=4000", runtime.DefaultContext())
	require.NoError(t, err)
	f, err := q.SQL(batch.Postgres)
	require.NoError(t, err)
	var b strings.Builder
	require.NoError(t, PrintSQL(&b, f.Select(), f.Args))
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, f.Select(), lines[0])
	assert.Equal(t, "-- $1 = 4000", lines[1])
}

func TestPrint(t *testing.T) {
	var b strings.Builder
	c := &Command{}
	require.NoError(t, c.print(&b, []string{"a.jpg", "b.jpg"}))
	assert.Equal(t, "a.jpg\nb.jpg\n", b.String())
	b.Reset()
	c.count = true
	require.NoError(t, c.print(&b, []string{"a.jpg", "b.jpg"}))
	assert.Equal(t, "2\n", b.String())
}

func openCatalog(t *testing.T) *catalog.Catalog {
	ctx := context.Background()
	cat, err := catalog.Open(ctx, catalog.Config{}, schema.Default(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	_, err = cat.LoadFixture(ctx, strings.NewReader(`
images:
  - path: lake.jpg
    fields: {favorite: true}
    tags: [scene.outdoor.lake]
  - path: hike.jpg
    tags: [scene.outdoor.hike]
  - path: desk.jpg
    tags: [scene.indoor]
`))
	require.NoError(t, err)
	return cat
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	cat := openCatalog(t)
	cases := []struct {
		name          string
		count, direct bool
		src, out      string
	}{
		{"batch", false, false, "tag.scene.outdoor*", "lake.jpg\nhike.jpg\n"},
		{"direct", false, true, "tag.scene.outdoor*", "lake.jpg\nhike.jpg\n"},
		{"batch count", true, false, "tag.favorite", "1\n"},
		{"direct count", true, true, "tag.favorite", "1\n"},
		{"blank batch", false, false, "", "lake.jpg\nhike.jpg\ndesk.jpg\n"},
		{"blank direct", false, true, "  ", "lake.jpg\nhike.jpg\ndesk.jpg\n"},
		{"blank batch count", true, false, "", "3\n"},
		{"blank direct count", true, true, "", "3\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cmd := &Command{count: c.count, direct: c.direct}
			var b strings.Builder
			require.NoError(t, cmd.run(ctx, &b, cat, c.src))
			assert.Equal(t, c.out, b.String())
		})
	}
}

func TestRunBlankSQL(t *testing.T) {
	cat := openCatalog(t)
	cmd := &Command{sql: true}
	var b strings.Builder
	require.NoError(t, cmd.run(context.Background(), &b, cat, ""))
	assert.Equal(t, "SELECT i.id FROM images i WHERE TRUE ORDER BY i.id\n", b.String())
	b.Reset()
	cmd.count = true
	require.NoError(t, cmd.run(context.Background(), &b, cat, ""))
	assert.Equal(t, "SELECT COUNT(*) FROM images i WHERE TRUE\n", b.String())
}

func TestRunCompileError(t *testing.T) {
	cat := openCatalog(t)
	cmd := &Command{}
	err := cmd.run(context.Background(), &strings.Builder{}, cat, "tag.favorite>=true")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "^")
}
