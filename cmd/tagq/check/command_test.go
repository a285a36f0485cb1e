package check

import (
	"context"
	"strings"
	"testing"

	"github.com/jeremymatt/photo-manager/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const saved = `# saved searches
tag.scene.outdoor*

tag.favorite>=true
tag.person=="Alice"
`

func TestCheck(t *testing.T) {
	queries, err := Read("saved.tq", strings.NewReader(saved))
	require.NoError(t, err)
	require.Len(t, queries, 3)
	assert.Equal(t, Query{File: "saved.tq", Line: 4, Text: "tag.favorite>=true"}, queries[1])

	results, err := Check(context.Background(), runtime.DefaultContext(), queries)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "tag.scene.outdoor*", results[0].Canonical)
	assert.ErrorContains(t, results[1].Err, "cannot be applied to bool field")
	assert.Equal(t, "tag.person.alice", results[2].Canonical)

	var b strings.Builder
	assert.Equal(t, 1, Print(&b, results, false))
	assert.True(t, strings.HasPrefix(b.String(), "saved.tq:4: type error"))

	b.Reset()
	assert.Equal(t, 1, Print(&b, results, true))
	assert.Contains(t, b.String(), "saved.tq:2: tag.scene.outdoor*\n")
	assert.Contains(t, b.String(), "saved.tq:5: tag.person.alice\n")
}

func TestCheckCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Check(ctx, runtime.DefaultContext(), []Query{{Text: "tag.a"}})
	assert.ErrorIs(t, err, context.Canceled)
}
