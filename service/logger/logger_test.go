package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func TestFileModeSet(t *testing.T) {
	var m FileMode
	require.NoError(t, m.Set(""))
	assert.Equal(t, FileModeAppend, m)
	require.NoError(t, m.Set("rotate"))
	assert.Equal(t, FileModeRotate, m)
	assert.EqualError(t, m.Set("shred"), "invalid log file mode: shred")
}

func TestConfigYAML(t *testing.T) {
	var conf Config
	require.NoError(t, yaml.Unmarshal([]byte("level: debug\nmode: truncate\npath: out.log\n"), &conf))
	assert.Equal(t, Config{Level: zap.DebugLevel, Mode: FileModeTruncate, Path: "out.log"}, conf)
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagq.log")
	for _, mode := range []FileMode{FileModeAppend, FileModeTruncate} {
		logger, err := New(Config{Level: zap.InfoLevel, Mode: mode, Path: path})
		require.NoError(t, err)
		logger.Debug("hidden")
		logger.Info("shown", zap.String("mode", string(mode)))
		require.NoError(t, logger.Sync())
	}
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"mode":"truncate"`)
	assert.NotContains(t, string(b), "hidden")
}
