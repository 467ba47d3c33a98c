package celpack

import "fmt"

// finalize resolves everything that can only be checked once the whole
// cel-position file has been read: implicit clip rects and hotspots,
// palette-id references, related-name references, and action-point tables
// translated to be relative to each cel's hotspot.
func (d *Document) finalize() error {
	for _, cel := range d.Cels {
		if !cel.HasExplicitClip {
			if len(cel.Strips) == 0 {
				return newParseError(cel.LineNum, "missing-cliprect",
					"frame %q without strips needs an explicit clip rect", cel.Name)
			}
			cel.Clip = unionBoundingBox(cel.Strips)
		}
		if !cel.HasExplicitHotspot {
			cel.Hotspot = cel.DefaultHotspot()
		}
	}

	for _, cel := range d.Cels {
		for _, s := range cel.Strips {
			if _, ok := d.Palettes.Get(s.PaletteID); !ok {
				return newParseError(cel.LineNum, "undeclared-palette",
					"frame %q: strip references undeclared palette %d", cel.Name, s.PaletteID)
			}
		}
	}

	for _, pair := range d.related {
		for _, name := range pair {
			if _, ok := d.CelByName(name); !ok {
				return newParseError(0, "unknown-frame", "related refers to undefined frame %q", name)
			}
		}
	}

	d.calcActionPoints()
	return nil
}

// unionBoundingBox computes a cel's implicit clip rect as the union of its
// strips' destination boxes, per §4.3/guess_bounding_boxes.
func unionBoundingBox(strips []Strip) Rect {
	left, top := strips[0].Dest.X, strips[0].Dest.Y
	right, bottom := left+strips[0].BoxWidth(), top+strips[0].BoxHeight()
	for _, s := range strips[1:] {
		left = min(left, s.Dest.X)
		top = min(top, s.Dest.Y)
		right = max(right, s.Dest.X+s.BoxWidth())
		bottom = max(bottom, s.Dest.Y+s.BoxHeight())
	}
	return Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// calcActionPoints translates every recorded action point from absolute
// sheet coordinates to an offset from its cel's hotspot, applying the
// horizontal sign flip implied by a global hflip, and fills the
// corresponding lookup tables. Unset points are recorded as (-128,-128),
// matching the sentinel the original toolchain used for "no action point
// on this frame".
func (d *Document) calcActionPoints() {
	for _, kw := range d.actionPointOrder {
		def := d.ActionPoints[kw]
		values := d.actionPointValues[kw]
		var xTable, yTable *LookupTable
		if def.xTable != "" {
			xTable = d.Tables[def.xTable]
		}
		if def.yTable != "" {
			yTable = d.Tables[def.yTable]
		}
		for i, cel := range d.Cels {
			apx, apy := int64(-128), int64(-128)
			if ap := values[i]; ap != nil {
				dx, dy := ap.X-cel.Hotspot.X, ap.Y-cel.Hotspot.Y
				if d.HFlip {
					dx = -dx
				}
				apx, apy = int64(dx), int64(dy)
			}
			if xTable != nil {
				xTable.Values[i] = apx
			}
			if yTable != nil {
				yTable.Values[i] = apy
			}
		}
	}
}

// Validate re-runs the deferred palette and related checks; exposed so
// callers that build a Document by hand (e.g. in tests) can validate it
// without re-parsing text.
func (d *Document) Validate() error {
	return d.finalize()
}

func (d *Document) String() string {
	return fmt.Sprintf("Document{cels=%d, palettes=%d, tables=%d}", len(d.Cels), len(d.Palettes.palettes), len(d.Tables))
}
