package field_test

import (
	"testing"

	"github.com/jeremymatt/photo-manager/field"
	"github.com/stretchr/testify/assert"
)

func TestDotted(t *testing.T) {
	assert.Equal(t, field.Path{"scene", "outdoor"}, field.Dotted("Scene.OUTDOOR"))
	assert.Equal(t, field.Path{}, field.Dotted(""))
	assert.Equal(t, "person.alice", field.Dotted("Person.Alice").String())
	assert.False(t, field.Dotted("a..b").Valid())
	assert.True(t, field.Dotted("a.b").Valid())
}

func TestPrefix(t *testing.T) {
	outdoor := field.Dotted("scene.outdoor")
	lake := field.Dotted("scene.outdoor.lake")
	assert.True(t, lake.HasPrefix(outdoor))
	assert.True(t, lake.HasStrictPrefix(outdoor))
	assert.True(t, outdoor.HasPrefix(outdoor))
	assert.False(t, outdoor.HasStrictPrefix(outdoor))
	assert.False(t, field.Dotted("scene.outdoorsy").HasPrefix(outdoor))
	assert.Equal(t, "scene", outdoor.Parent().String())
	assert.Equal(t, "lake", lake.Leaf())
}

func TestIsDescendant(t *testing.T) {
	assert.True(t, field.IsDescendant("scene.outdoor.lake", "scene.outdoor"))
	assert.False(t, field.IsDescendant("scene.outdoor", "scene.outdoor"))
	assert.False(t, field.IsDescendant("scene.outdoorsy", "scene.outdoor"))
	assert.True(t, field.IsSelfOrDescendant("scene.outdoor", "scene.outdoor"))
	assert.False(t, field.IsSelfOrDescendant("scene.indoor", "scene.outdoor"))
}

func TestBare(t *testing.T) {
	assert.True(t, field.Bare("scene.outdoor.lake"))
	assert.True(t, field.Bare("photographer_name.bob-2"))
	assert.True(t, field.Bare("version.1.5"))
	assert.True(t, field.Bare("personne.élodie"))
	assert.False(t, field.Bare(""))
	assert.False(t, field.Bare("person."))
	assert.False(t, field.Bare("person.alice smith"))
	assert.False(t, field.Bare(`note.a\ab`))
}
