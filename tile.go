package celpack

// Tile is an 8-column x 16-row matrix of palette-index values (0..3).
// Row-major: Tile[row][col]. Go arrays of comparable element type are
// themselves comparable, so Tile can be used directly as a map key — this
// is what makes interning a plain map lookup rather than a hashing scheme
// of our own.
type Tile [TileHeight][TileWidth]uint8

// HFlip returns t mirrored left-right.
func (t Tile) HFlip() Tile {
	var out Tile
	for y := 0; y < TileHeight; y++ {
		for x := 0; x < TileWidth; x++ {
			out[y][x] = t[y][TileWidth-1-x]
		}
	}
	return out
}

// less reports whether t sorts before other in row-major byte order; used
// to pick the canonical orientation between a tile and its horizontal
// flip.
func (t Tile) less(other Tile) bool {
	for y := 0; y < TileHeight; y++ {
		for x := 0; x < TileWidth; x++ {
			if t[y][x] != other[y][x] {
				return t[y][x] < other[y][x]
			}
		}
	}
	return false
}

// canonical returns the lexicographically smaller of t and t.HFlip(), and
// whether t itself needed flipping to reach it.
func (t Tile) canonical() (Tile, bool) {
	flipped := t.HFlip()
	if flipped.less(t) {
		return flipped, true
	}
	return t, false
}

// IsBlank reports whether every texel in t is backdrop (index 0).
func (t Tile) IsBlank() bool {
	for y := 0; y < TileHeight; y++ {
		for x := 0; x < TileWidth; x++ {
			if t[y][x] != 0 {
				return false
			}
		}
	}
	return true
}

// TileInterner canonicalizes tiles modulo horizontal flip and assigns each
// distinct canonical tile a stable, increasing tile id, per §4.4.
type TileInterner struct {
	byTile []Tile
	index  map[Tile]int
}

func newTileInterner() *TileInterner {
	return &TileInterner{index: make(map[Tile]int)}
}

// Intern returns the id of t's canonical form, creating one if this is the
// first time this content (in either orientation) has been seen, and
// whether t itself had to be flipped to reach that canonical form.
func (ti *TileInterner) Intern(t Tile) (id int, flipped bool) {
	canon, needsFlip := t.canonical()
	if id, ok := ti.index[canon]; ok {
		return id, needsFlip
	}
	id = len(ti.byTile)
	ti.byTile = append(ti.byTile, canon)
	ti.index[canon] = id
	return id, needsFlip
}

// Tiles returns every interned canonical tile, in id order.
func (ti *TileInterner) Tiles() []Tile {
	return ti.byTile
}

// Len returns the number of distinct canonical tiles interned so far.
func (ti *TileInterner) Len() int {
	return len(ti.byTile)
}

// PairCandidates reports whether tile ids a and b are horizontal-flip
// counterparts of each other's raw (pre-canonicalization) content. Exposed
// per §4.4 for the optional bank-emit-time adjacent-slot placement of
// flipped pairs; this implementation does not itself perform that
// placement (see DESIGN.md), but a caller assembling a custom bank layout
// can use this to decide when it would be safe to.
func (ti *TileInterner) PairCandidates(a, b int) bool {
	if a < 0 || a >= len(ti.byTile) || b < 0 || b >= len(ti.byTile) {
		return false
	}
	return ti.byTile[a] == ti.byTile[b].HFlip()
}

// TileRef records one placement of an interned tile within a cel: which
// tile, whether it's flipped relative to its canonical form, which
// palette renders it, and where it sits relative to the cel's hotspot.
type TileRef struct {
	TileID    int
	HFlip     bool
	PaletteID int
	OffsetX   int // pixels, relative to hotspot
	OffsetY   int // pixels, relative to hotspot
	StripIdx  int // index of the originating strip, for front-to-back ordering
}
