package tags

import (
	"strings"
	"testing"

	"github.com/jeremymatt/photo-manager/tagtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	tree := tagtree.New()
	for _, path := range []string{"scene.outdoor.lake", "person.bob", "scene.indoor", "person.alice"} {
		_, err := tree.Add(path)
		require.NoError(t, err)
	}
	var b strings.Builder
	require.NoError(t, Print(&b, tree))
	expected := `person
  alice
  bob
scene
  indoor
  outdoor
    lake
`
	assert.Equal(t, expected, b.String())
}
