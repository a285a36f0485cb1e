package plural

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 image", Of(1, "image"))
	assert.Equal(t, "0 images", Of(0, "image"))
	assert.Equal(t, "3 tags", Of(3, "tag"))
	assert.Equal(t, "", Int(1, "es"))
	assert.Equal(t, "es", Int(2, "es"))
}
