package celpack

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultColorTolerance is the maximum CIE L*a*b* distance (see
// colorful.Color.DistanceLab, which returns a value in roughly [0,1] for
// in-gamut sRGB) at which a pixel is considered "close enough" to a
// declared palette color. The spec leaves the exact threshold as an
// implementation detail (§9); this value was picked to tolerate the kind
// of antialiasing and lossy-resave drift that creeps into a hand-painted
// sheet without letting genuinely different declared colors collide.
const DefaultColorTolerance = 0.06

// resolvedColor is the outcome of matching one pixel against the declared
// palettes: which palette it belongs to and which index within it.
type resolvedColor struct {
	PaletteID int
	Index     int
}

// colorResolver matches image pixels to the nearest declared palette color
// in CIE L*a*b* space, per §4.2.
type colorResolver struct {
	backdrop  colorful.Color
	entries   []paletteEntry
	tolerance float64
}

type paletteEntry struct {
	paletteID int
	index     int
	lab       colorful.Color
}

func newColorResolver(ps *PaletteSet, backdrop RGB, tolerance float64) *colorResolver {
	cr := &colorResolver{
		backdrop:  colorfulFromRGB(backdrop),
		tolerance: tolerance,
	}
	for _, id := range ps.IDs() {
		pal, _ := ps.Get(id)
		for idx, rgb := range pal.Colors {
			cr.entries = append(cr.entries, paletteEntry{
				paletteID: id,
				index:     idx,
				lab:       colorfulFromRGB(rgb),
			})
		}
	}
	return cr
}

func colorfulFromRGB(c RGB) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func colorfulFromColor(col color.Color) colorful.Color {
	r, g, b, _ := col.RGBA()
	return colorful.Color{
		R: float64(r) / 0xffff,
		G: float64(g) / 0xffff,
		B: float64(b) / 0xffff,
	}
}

// IsBackdrop reports whether col matches the declared backdrop color
// within tolerance; backdrop pixels are always index 0 and carry no
// palette id.
func (cr *colorResolver) IsBackdrop(col color.Color) bool {
	lab := colorfulFromColor(col)
	return lab.DistanceLab(cr.backdrop) <= cr.tolerance
}

// Resolve finds the nearest declared color to col, across every palette.
// It returns an error if nothing is within tolerance.
func (cr *colorResolver) Resolve(col color.Color) (resolvedColor, error) {
	if cr.IsBackdrop(col) {
		return resolvedColor{Index: 0}, nil
	}
	lab := colorfulFromColor(col)
	best := -1
	bestDist := 0.0
	for i, e := range cr.entries {
		d := lab.DistanceLab(e.lab)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > cr.tolerance {
		r, g, b, _ := col.RGBA()
		return resolvedColor{}, fmt.Errorf("no palette color within tolerance %.4f for rgb(%d,%d,%d), nearest distance %.4f",
			cr.tolerance, r>>8, g>>8, b>>8, bestDist)
	}
	e := cr.entries[best]
	return resolvedColor{PaletteID: e.paletteID, Index: e.index}, nil
}

// ResolveInPalette is like Resolve but requires the match to belong to
// paletteID, per the strip-level invariant in §4.2 ("every pixel must
// resolve to the strip's declared palette-id").
func (cr *colorResolver) ResolveInPalette(col color.Color, paletteID int) (resolvedColor, error) {
	rc, err := cr.Resolve(col)
	if err != nil {
		return resolvedColor{}, err
	}
	if rc.Index == 0 {
		return rc, nil // backdrop is valid in any palette
	}
	if rc.PaletteID != paletteID {
		r, g, b, _ := col.RGBA()
		return resolvedColor{}, fmt.Errorf("pixel rgb(%d,%d,%d) resolves to palette %d, not strip's palette %d",
			r>>8, g>>8, b>>8, rc.PaletteID, paletteID)
	}
	return rc, nil
}
