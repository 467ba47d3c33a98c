package celpack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileMissingReturnsDefaults(t *testing.T) {
	t.Parallel()
	opt, err := LoadConfigFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Nil(t, err)
	assert.Equal(t, DefaultOptions(), opt)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "celpack.yaml")
	yaml := "bank-size: 16\nsegment: CODE\nprefix: mygame_\ncolor-tolerance: 0.1\nworkers: 4\n"
	require.Nil(t, os.WriteFile(path, []byte(yaml), 0o644))

	opt, err := LoadConfigFile(path)
	require.Nil(t, err)
	assert.Equal(t, 16, opt.BankSize)
	assert.Equal(t, "CODE", opt.Segment)
	assert.Equal(t, "mygame_", opt.Prefix)
	assert.Equal(t, 0.1, opt.ColorTolerance)
	assert.Equal(t, 4, opt.NumWorkers)
}

func TestLoadConfigFileEmptyPathReturnsDefaults(t *testing.T) {
	t.Parallel()
	opt, err := LoadConfigFile("")
	require.Nil(t, err)
	assert.Equal(t, DefaultOptions(), opt)
}
