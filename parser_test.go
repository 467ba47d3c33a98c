package celpack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
backdrop #000
palette 0 #f00 #0f0 #00f

frame walk1 0 0 8 16
  strip 0
  hotspot 4 16

frame walk2 0 0 8 16
  aka walk2b
  strip 0
  related walk1
`

func TestParseMinimalDocument(t *testing.T) {
	t.Parallel()
	doc, err := Parse(strings.NewReader(sampleDoc))
	require.Nil(t, err)
	require.Len(t, doc.Cels, 2)

	walk1, ok := doc.CelByName("walk1")
	require.True(t, ok)
	assert.Equal(t, Loc{X: 4, Y: 16}, walk1.Hotspot)
	require.Len(t, walk1.Strips, 1)
	assert.Equal(t, 0, walk1.Strips[0].PaletteID)

	walk2, ok := doc.CelByName("walk2b")
	require.True(t, ok)
	assert.Equal(t, "walk2", walk2.Name)

	assert.Equal(t, [][2]string{{"walk1", "walk2"}}, doc.RelatedPairs())
}

func TestParseUnknownKeywordErrors(t *testing.T) {
	t.Parallel()
	_, err := Parse(strings.NewReader("bogus keyword here\n"))
	require.Error(t, err)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, "unknown-keyword", pe.Code)
}

func TestParseDuplicateBackdropErrors(t *testing.T) {
	t.Parallel()
	_, err := Parse(strings.NewReader("backdrop #000\nbackdrop #fff\n"))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "duplicate-backdrop", pe.Code)
}

func TestParseStripOutsideFrameErrors(t *testing.T) {
	t.Parallel()
	_, err := Parse(strings.NewReader("strip 0 0 0 8 16\n"))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "no-frame", pe.Code)
}

func TestParseHFlipDirectiveSetsDocumentFlag(t *testing.T) {
	t.Parallel()
	doc, err := Parse(strings.NewReader("hflip\n" + sampleDoc))
	require.Nil(t, err)
	assert.True(t, doc.HFlip)

	doc, err = Parse(strings.NewReader(sampleDoc))
	require.Nil(t, err)
	assert.False(t, doc.HFlip)
}

func TestParseColorShortAndLongForm(t *testing.T) {
	t.Parallel()
	c, err := parseColor("#f00")
	require.Nil(t, err)
	assert.Equal(t, RGB{R: 0xff, G: 0x00, B: 0x00}, c)

	c, err = parseColor("#336699")
	require.Nil(t, err)
	assert.Equal(t, RGB{R: 0x33, G: 0x66, B: 0x99}, c)

	_, err = parseColor("336699")
	assert.Error(t, err)
}
