package celpack

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onePaletteDoc() (*Document, *colorResolver) {
	doc := newDocument()
	doc.Backdrop = RGB{0, 0, 0}
	doc.Palettes.add(Palette{ID: 0, Colors: map[int]RGB{
		1: {255, 0, 0},
		2: {0, 255, 0},
		3: {0, 0, 255},
	}})
	return doc, newColorResolver(doc.Palettes, doc.Backdrop, DefaultColorTolerance)
}

func solidImage(w, h int, col color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, col)
		}
	}
	return img
}

func TestRasterizeSingleTileStrip(t *testing.T) {
	t.Parallel()
	doc, resolver := onePaletteDoc()
	cel := newCel("walk1", 1)
	cel.Strips = []Strip{{
		PaletteID: 0,
		Src:       Rect{Left: 0, Top: 0, Width: TileWidth, Height: TileHeight},
		Dest:      Loc{X: 0, Y: 0},
	}}
	doc.Cels = []*Cel{cel}

	img := solidImage(TileWidth, TileHeight, color.RGBA{R: 255, A: 255})
	interner := newTileInterner()
	rz := newRasterizer(doc, img, resolver, interner)

	rcs, err := rz.RasterizeAll()
	require.Nil(t, err)
	require.Len(t, rcs, 1)
	require.Len(t, rcs[0].Refs, 1)
	assert.Equal(t, 0, rcs[0].Refs[0].TileID)
	assert.Equal(t, 1, interner.Len())
	assert.Equal(t, uint8(1), interner.Tiles()[0][0][0])
}

func TestRasterizeSkipsPurePaddingTiles(t *testing.T) {
	t.Parallel()
	doc, resolver := onePaletteDoc()
	cel := newCel("tiny", 1)
	// a 1x1 source rect padded out to a full tile: only the single
	// covered tile should be interned, and it is not blank since the
	// single real pixel is foreground.
	cel.Strips = []Strip{{
		PaletteID: 0,
		Src:       Rect{Left: 0, Top: 0, Width: 1, Height: 1},
		Dest:      Loc{X: 0, Y: 0},
		PadLeft:   TileWidth - 1,
		PadTop:    TileHeight - 1,
	}}
	doc.Cels = []*Cel{cel}

	img := solidImage(1, 1, color.RGBA{G: 255, A: 255})
	interner := newTileInterner()
	rz := newRasterizer(doc, img, resolver, interner)

	rcs, err := rz.RasterizeAll()
	require.Nil(t, err)
	require.Len(t, rcs[0].Refs, 1)
	assert.Equal(t, 1, interner.Len())
}

func TestMirrorHorizontalReflectsColumnsWithinBounds(t *testing.T) {
	t.Parallel()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(3, 0, color.RGBA{G: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})

	out := mirrorHorizontal(img)
	assert.Equal(t, img.Bounds(), out.Bounds())
	assert.Equal(t, img.At(0, 0), out.At(3, 0))
	assert.Equal(t, img.At(3, 0), out.At(0, 0))
	assert.Equal(t, img.At(1, 1), out.At(2, 1))
	// a pixel with no counterpart set keeps its (zero) value after reflection
	assert.Equal(t, color.RGBA{}, out.At(0, 1))
}

func TestRasterizeRejectsWrongPaletteColor(t *testing.T) {
	t.Parallel()
	doc, resolver := onePaletteDoc()
	doc.Palettes.add(Palette{ID: 1, Colors: map[int]RGB{
		1: {10, 10, 10},
	}})
	cel := newCel("bad", 1)
	cel.Strips = []Strip{{
		PaletteID: 1, // declares palette 1, but the pixel below is palette 0's red
		Src:       Rect{Left: 0, Top: 0, Width: TileWidth, Height: TileHeight},
		Dest:      Loc{X: 0, Y: 0},
	}}
	doc.Cels = []*Cel{cel}

	img := solidImage(TileWidth, TileHeight, color.RGBA{R: 255, A: 255})
	interner := newTileInterner()
	rz := newRasterizer(doc, img, resolver, interner)

	_, err := rz.RasterizeAll()
	require.Error(t, err)
	var rasterErr *RasterError
	assert.ErrorAs(t, err, &rasterErr)
}
