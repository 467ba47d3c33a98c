package celpack

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.Nil(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildCacheFreshAfterRecord(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	celPath := writeTempFile(t, dir, "walk.cel", "backdrop #000\n")
	imgPath := writeTempFile(t, dir, "walk.png", "not a real png but only hashed")
	outPath := writeTempFile(t, dir, "walk.s", "; output\n")

	cache, err := OpenBuildCache(filepath.Join(dir, "cache.db"))
	require.Nil(t, err)
	defer cache.Close()

	opt := DefaultOptions()
	digest, err := JobDigest(celPath, imgPath, opt)
	require.Nil(t, err)
	require.NotEmpty(t, digest)

	fresh, err := cache.Fresh(digest, outPath)
	require.Nil(t, err)
	assert.False(t, fresh, "job was never recorded yet")

	require.Nil(t, cache.Record(digest, outPath))

	fresh, err = cache.Fresh(digest, outPath)
	require.Nil(t, err)
	assert.True(t, fresh)
}

func TestBuildCacheStaleAfterOutputTouched(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	celPath := writeTempFile(t, dir, "walk.cel", "backdrop #000\n")
	imgPath := writeTempFile(t, dir, "walk.png", "pixels")
	outPath := writeTempFile(t, dir, "walk.s", "; output v1\n")

	cache, err := OpenBuildCache(filepath.Join(dir, "cache.db"))
	require.Nil(t, err)
	defer cache.Close()

	opt := DefaultOptions()
	digest, err := JobDigest(celPath, imgPath, opt)
	require.Nil(t, err)
	require.Nil(t, cache.Record(digest, outPath))

	future := time.Now().Add(time.Hour)
	require.Nil(t, os.Chtimes(outPath, future, future))

	fresh, err := cache.Fresh(digest, outPath)
	require.Nil(t, err)
	assert.False(t, fresh)
}

func TestJobDigestChangesWithOptions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	celPath := writeTempFile(t, dir, "walk.cel", "backdrop #000\n")
	imgPath := writeTempFile(t, dir, "walk.png", "pixels")

	d1, err := JobDigest(celPath, imgPath, DefaultOptions())
	require.Nil(t, err)

	other := DefaultOptions()
	other.BankSize = 16
	d2, err := JobDigest(celPath, imgPath, other)
	require.Nil(t, err)

	assert.NotEqual(t, d1, d2)
}
