package celpack

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// stripOutlineColors cycles a small set of high-contrast colors across
// palette ids so overlapping strip boxes stay distinguishable, grounded
// on strips.py's draw_strips_on picking one outline color per palette.
var stripOutlineColors = []color.RGBA{
	{R: 255, G: 0, B: 0, A: 255},
	{R: 0, G: 255, B: 0, A: 255},
	{R: 0, G: 128, B: 255, A: 255},
	{R: 255, G: 0, B: 255, A: 255},
}

// WriteBoxingImage draws every strip's destination rectangle, outlined by
// palette id, plus a small cross marker at each cel's hotspot, over a copy
// of the source sheet, and writes it to w as PNG. Grounded on strips.py's
// draw_strips_on.
func (c *Converter) WriteBoxingImage(w io.Writer) error {
	bounds := c.image.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, c.image, bounds.Min, draw.Src)

	face := basicfont.Face7x13
	for _, cel := range c.doc.Cels {
		for _, s := range cel.Strips {
			outline := stripOutlineColors[s.PaletteID%len(stripOutlineColors)]
			drawRectOutline(canvas, s.Dest.X, s.Dest.Y, s.BoxWidth(), s.BoxHeight(), outline)
		}
		drawCross(canvas, cel.Hotspot.X, cel.Hotspot.Y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		drawLabel(canvas, face, cel.Hotspot.X+3, cel.Hotspot.Y-3, cel.Name)
	}

	return png.Encode(w, canvas)
}

// WriteUniqueTilesImage lays out every interned tile, in id order, on a
// fixed-width grid, quantizes it to a GIF-safe palette, and writes it to w
// as GIF. Grounded on strips.py's texels_to_pil.
func (c *Converter) WriteUniqueTilesImage(w io.Writer, gridWidth int) error {
	if gridWidth <= 0 {
		gridWidth = 16
	}
	tiles := c.interner.Tiles()
	if len(tiles) == 0 {
		tiles = []Tile{{}}
	}
	cols := gridWidth
	rows := (len(tiles) + cols - 1) / cols
	img := image.NewRGBA(image.Rect(0, 0, cols*TileWidth, rows*TileHeight))

	for i, tile := range tiles {
		ox, oy := (i%cols)*TileWidth, (i/cols)*TileHeight
		for y := 0; y < TileHeight; y++ {
			for x := 0; x < TileWidth; x++ {
				img.Set(ox+x, oy+y, c.indexColor(tile[y][x]))
			}
		}
	}

	q := quantize.MedianCutQuantizer{}
	palette := q.Quantize(make(color.Palette, 0, 256), img)
	paletted := image.NewPaletted(img.Bounds(), palette)
	draw.Draw(paletted, img.Bounds(), img, image.Point{}, draw.Src)

	return gif.Encode(w, paletted, nil)
}

// indexColor resolves a raw 2-bit tile index to a display color for debug
// output only; it has no notion of which strip/palette the tile came
// from, so it just picks the first palette that declares a non-backdrop
// index, which is adequate for spotting accidental duplicates.
func (c *Converter) indexColor(idx uint8) color.Color {
	if idx == 0 {
		return rgbToColor(c.doc.Backdrop)
	}
	for _, id := range c.doc.Palettes.IDs() {
		pal, _ := c.doc.Palettes.Get(id)
		if rgb, ok := pal.Colors[int(idx)]; ok {
			return rgbToColor(rgb)
		}
	}
	return color.Black
}

func rgbToColor(c RGB) color.Color {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func drawRectOutline(img *image.RGBA, x, y, w, h int, col color.Color) {
	for dx := 0; dx < w; dx++ {
		img.Set(x+dx, y, col)
		img.Set(x+dx, y+h-1, col)
	}
	for dy := 0; dy < h; dy++ {
		img.Set(x, y+dy, col)
		img.Set(x+w-1, y+dy, col)
	}
}

func drawCross(img *image.RGBA, x, y int, col color.Color) {
	for d := -2; d <= 2; d++ {
		img.Set(x+d, y, col)
		img.Set(x, y+d, col)
	}
}

func drawLabel(img *image.RGBA, face font.Face, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
