package clierrors_test

import (
	"errors"
	"testing"

	"github.com/jeremymatt/photo-manager/cli/clierrors"
	"github.com/jeremymatt/photo-manager/compiler"
	"github.com/jeremymatt/photo-manager/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestFormatTypeError(t *testing.T) {
	const src = "tag.a && tag.favorite>=true"
	_, err := compiler.Compile(src, runtime.DefaultContext())
	require.Error(t, err)
	expected := `type error: operator ">=" cannot be applied to bool field "favorite" (column 24):
tag.a && tag.favorite>=true
                   === ^ ===`
	assert.EqualError(t, clierrors.Format(src, err), expected)
	col, ok := clierrors.Column(src, err)
	assert.True(t, ok)
	assert.Equal(t, 24, col)
}

func TestFormatSyntaxError(t *testing.T) {
	const src = "tag.a && (tag.b"
	_, err := compiler.Compile(src, runtime.DefaultContext())
	require.Error(t, err)
	assert.Equal(t, err.Error(), clierrors.Format(src, err).Error())
	col, ok := clierrors.Column(src, err)
	assert.True(t, ok)
	assert.Equal(t, 16, col)
}

func TestFormatOther(t *testing.T) {
	assert.NoError(t, clierrors.Format("", nil))
	err := multierr.Combine(errors.New("one"), errors.New("two"))
	assert.EqualError(t, clierrors.Format("", err), "one\ntwo")
	_, ok := clierrors.Column("", err)
	assert.False(t, ok)
}
