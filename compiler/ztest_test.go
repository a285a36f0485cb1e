package compiler_test

import (
	"testing"

	"github.com/jeremymatt/photo-manager/ztest"
)

func TestZTests(t *testing.T) {
	ztest.Run(t, "ztests")
}
