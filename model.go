package celpack

import "fmt"

// BankSize is the default number of distinct tiles a bank may hold; it is
// the bin capacity C of the overload-and-remove packer (see bank.go).
const BankSize = 32

// TileWidth and TileHeight are the fixed dimensions of a tile in this
// platform's character memory. Unlike most 8-bit consoles this toolchain
// targets, tiles here are always 8x16, not 8x8.
const (
	TileWidth  = 8
	TileHeight = 16
)

// MaxPalettes is the number of independent foreground palettes a cel-
// position file may declare.
const MaxPalettes = 4

// RGB is a plain 24-bit color triple, as declared in the cel-position file.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Loc is a point in image pixel space.
type Loc struct {
	X, Y int
}

// Rect is a (left, top, width, height) region in image pixel space.
type Rect struct {
	Left, Top, Width, Height int
}

func (r Rect) Right() int  { return r.Left + r.Width }
func (r Rect) Bottom() int { return r.Top + r.Height }

// Contains reports whether pt lies within r.
func (r Rect) Contains(pt Loc) bool {
	return pt.X >= r.Left && pt.X < r.Right() && pt.Y >= r.Top && pt.Y < r.Bottom()
}

// Intersect returns the overlap of r and other, and ok=false if they do
// not overlap.
func (r Rect) Intersect(other Rect) (Rect, bool) {
	left := max(r.Left, other.Left)
	top := max(r.Top, other.Top)
	right := min(r.Right(), other.Right())
	bottom := min(r.Bottom(), other.Bottom())
	if right <= left || bottom <= top {
		return Rect{}, false
	}
	return Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}, true
}

// Palette maps palette index (1..3) to a declared foreground color for one
// palette id. Index 0 is always the backdrop and is never stored here.
type Palette struct {
	ID     int
	Colors map[int]RGB // index -> color, indices 1..3
}

// PaletteSet holds every declared palette, keyed by palette id (0..3).
type PaletteSet struct {
	Backdrop RGB
	palettes map[int]Palette
}

func newPaletteSet() *PaletteSet {
	return &PaletteSet{palettes: make(map[int]Palette)}
}

func (ps *PaletteSet) add(p Palette) {
	ps.palettes[p.ID] = p
}

func (ps *PaletteSet) Get(id int) (Palette, bool) {
	p, ok := ps.palettes[id]
	return p, ok
}

func (ps *PaletteSet) IDs() []int {
	ids := make([]int, 0, len(ps.palettes))
	for id := range ps.palettes {
		ids = append(ids, id)
	}
	return ids
}

// Strip is a sub-rectangle of a cel rendered with a single palette. Dest is
// the top-left of where the strip is drawn; when the DSL omits "at x y",
// Dest equals the (possibly clipped) source rect's top-left.
type Strip struct {
	PaletteID int
	Src       Rect // clipped source rect, in unflipped sheet space
	Dest      Loc  // top-left of the (possibly padded) destination tile box
	PadLeft   int  // backdrop padding, mod TileWidth, before Src begins horizontally
	PadTop    int  // backdrop padding, mod TileHeight, before Src begins vertically
}

// BoxWidth and BoxHeight are the dimensions of the tile-aligned destination
// box, including any backdrop padding recorded in PadLeft/PadTop.
func (s Strip) BoxWidth() int  { return s.Src.Width + s.PadLeft }
func (s Strip) BoxHeight() int { return s.Src.Height + s.PadTop }

// Cel is one named animation pose ("frame" in the DSL).
type Cel struct {
	Name               string
	ID                 int // assigned by the bank packer; -1 until then
	Clip               Rect
	HasExplicitClip    bool
	Strips             []Strip
	Hotspot            Loc
	HasExplicitHotspot bool
	Aliases            []string
	Align              int // default 1, meaning unconstrained
	Related            []string
	Subset             bool
	UserAttrs          map[string]int64 // keyword -> resolved value from attribute/flag accumulation
	ActionPts          map[string]Loc   // keyword -> point, absolute in sheet space (translated later)
	LineNum            int
}

func newCel(name string, line int) *Cel {
	return &Cel{
		Name:      name,
		ID:        -1,
		Align:     1,
		UserAttrs: make(map[string]int64),
		ActionPts: make(map[string]Loc),
		LineNum:   line,
	}
}

// DefaultHotspot computes the bottom-center hotspot of the cel's clip rect,
// per §4.3: (clip.left + clip.width/2, clip.top + clip.height), floor
// division.
func (c *Cel) DefaultHotspot() Loc {
	return Loc{X: c.Clip.Left + c.Clip.Width/2, Y: c.Clip.Top + c.Clip.Height}
}

// LookupTable is a user-declared side table (attribute/flag/actionpoint),
// keyed by cel in declaration order.
type LookupTable struct {
	Name    string
	Segment string
	Values  []int64 // parallel to the cel declaration order
}

// ActionPointTable is a pair of LookupTables (x, y) fed by `actionpoint`
// declarations; either may be absent (DSL `-`).
type ActionPointTable struct {
	Name    string
	XTable  string // "" if not materialized
	YTable  string
}
