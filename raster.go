package celpack

import "image"

// RasterizedCel is the pixel-level output of rasterizing one cel: a flat
// list of tile placements, in front-to-back strip order, ready for the
// tile interner and metasprite encoder.
type RasterizedCel struct {
	Cel  *Cel
	Refs []TileRef
}

// Rasterizer walks a document's cels against a source image, cutting each
// strip's destination box into backdrop-padded 8x16 tiles and interning
// them, per §4.3.
type Rasterizer struct {
	doc      *Document
	src      image.Image
	resolver *colorResolver
	interner *TileInterner
}

func newRasterizer(doc *Document, src image.Image, resolver *colorResolver, interner *TileInterner) *Rasterizer {
	return &Rasterizer{doc: doc, src: src, resolver: resolver, interner: interner}
}

// mirrorHorizontal returns a copy of img reflected left-right within its own
// bounds, implementing the `hflip` global directive's "the entire image is
// horizontally flipped once before all rect coordinates are interpreted"
// rule (§4.2): every strip/cel rect in the cel-position file is written
// against the unflipped sheet, so rasterizing against this mirrored image
// with those rects unchanged is equivalent to reflecting the rects around
// the image width.
func mirrorHorizontal(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			srcX := b.Min.X + b.Max.X - 1 - x
			out.Set(x, y, img.At(srcX, y))
		}
	}
	return out
}

// RasterizeAll rasterizes every cel in document order.
func (rz *Rasterizer) RasterizeAll() ([]*RasterizedCel, error) {
	out := make([]*RasterizedCel, 0, len(rz.doc.Cels))
	for _, cel := range rz.doc.Cels {
		rc, err := rz.rasterizeCel(cel)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}

func (rz *Rasterizer) rasterizeCel(cel *Cel) (*RasterizedCel, error) {
	rc := &RasterizedCel{Cel: cel}
	for stripIdx, strip := range cel.Strips {
		refs, err := rz.rasterizeStrip(cel, stripIdx, strip)
		if err != nil {
			return nil, err
		}
		rc.Refs = append(rc.Refs, refs...)
	}
	return rc, nil
}

func (rz *Rasterizer) rasterizeStrip(cel *Cel, stripIdx int, strip Strip) ([]TileRef, error) {
	boxW, boxH := strip.BoxWidth(), strip.BoxHeight()
	cols := (boxW + TileWidth - 1) / TileWidth
	rows := (boxH + TileHeight - 1) / TileHeight

	var refs []TileRef
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			var tile Tile
			for ty := 0; ty < TileHeight; ty++ {
				for tx := 0; tx < TileWidth; tx++ {
					absX := strip.Dest.X + col*TileWidth + tx
					absY := strip.Dest.Y + row*TileHeight + ty
					idx, err := rz.sample(cel, strip, absX, absY)
					if err != nil {
						return nil, err
					}
					tile[ty][tx] = idx
				}
			}
			if tile.IsBlank() && !rz.tileOverlapsSource(strip, col, row) {
				continue
			}
			id, flipped := rz.interner.Intern(tile)
			refs = append(refs, TileRef{
				TileID:    id,
				HFlip:     flipped,
				PaletteID: strip.PaletteID,
				OffsetX:   strip.Dest.X + col*TileWidth - cel.Hotspot.X,
				OffsetY:   strip.Dest.Y + row*TileHeight - cel.Hotspot.Y,
				StripIdx:  stripIdx,
			})
		}
	}
	return refs, nil
}

// sample resolves the palette index at absolute sheet coordinates (x,y) for
// one strip, returning backdrop (0) for coordinates that fall in the
// strip's padding rather than its actual source rect.
func (rz *Rasterizer) sample(cel *Cel, strip Strip, x, y int) (uint8, error) {
	srcX := strip.Src.Left + (x - (strip.Dest.X + strip.PadLeft))
	srcY := strip.Src.Top + (y - (strip.Dest.Y + strip.PadTop))
	if srcX < strip.Src.Left || srcX >= strip.Src.Right() || srcY < strip.Src.Top || srcY >= strip.Src.Bottom() {
		return 0, nil
	}
	bounds := rz.src.Bounds()
	if srcX < bounds.Min.X || srcX >= bounds.Max.X || srcY < bounds.Min.Y || srcY >= bounds.Max.Y {
		return 0, newRasterError(cel.Name, "strip source rect (%d,%d) falls outside the source image", srcX, srcY)
	}
	col := rz.src.At(srcX, srcY)
	rc, err := rz.resolver.Resolve(col)
	if err != nil {
		return 0, &ColorError{Cel: cel.Name, X: srcX, Y: srcY, Err: err}
	}
	if rc.Index != 0 && rc.PaletteID != strip.PaletteID {
		return 0, newRasterError(cel.Name, "pixel (%d,%d) resolves to palette %d, not the strip's palette %d",
			srcX, srcY, rc.PaletteID, strip.PaletteID)
	}
	return uint8(rc.Index), nil
}

// tileOverlapsSource reports whether tile (col,row) of strip overlaps the
// strip's actual source rect at all, as opposed to lying entirely within
// padding; an all-backdrop tile that does overlap the source rect is a
// real (if blank) tile and must still be interned, while one that is pure
// padding contributes nothing and is dropped.
func (rz *Rasterizer) tileOverlapsSource(strip Strip, col, row int) bool {
	tileLeft := strip.Dest.X + col*TileWidth
	tileTop := strip.Dest.Y + row*TileHeight
	tile := Rect{Left: tileLeft, Top: tileTop, Width: TileWidth, Height: TileHeight}
	srcBox := Rect{Left: strip.Dest.X + strip.PadLeft, Top: strip.Dest.Y + strip.PadTop, Width: strip.Src.Width, Height: strip.Src.Height}
	_, ok := tile.Intersect(srcBox)
	return ok
}
