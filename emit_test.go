package celpack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripedTile() Tile {
	var t Tile
	for y := 0; y < TileHeight; y++ {
		for x := 0; x < TileWidth; x++ {
			if x%2 == 0 {
				t[y][x] = 1
			}
		}
	}
	return t
}

func TestEncodeTileCHRPlanes(t *testing.T) {
	t.Parallel()
	data := encodeTileCHR(stripedTile())
	require.Len(t, data, 32)
	// even x columns (bit 7,5,3,1 from the left) set in the low plane,
	// high plane entirely clear since palette index 1 has bit1==0.
	assert.Equal(t, byte(0b10101010), data[0])
	assert.Equal(t, byte(0), data[TileHeight])
}

func TestEmitCHRWritesEachBankAtItsOwnOffset(t *testing.T) {
	t.Parallel()
	interner := newTileInterner()
	idA, _ := interner.Intern(stripedTile())
	idB, _ := interner.Intern(checkeredTile())

	bankA := &Bank{Tiles: map[int]bool{idA: true}}
	bankB := &Bank{Tiles: map[int]bool{idB: true}}

	e := newEmitter("game_", "RODATA")
	data, err := e.EmitCHR([]*Bank{bankA, bankB}, interner, 32)
	require.Nil(t, err)

	bankBytes := 32 * 32
	require.Len(t, data, 2*bankBytes)
	// the interner keeps stripedTile in its canonical, mirrored orientation
	assert.Equal(t, encodeTileCHR(stripedTile().HFlip()), data[:32])
	assert.Equal(t, encodeTileCHR(checkeredTile()), data[bankBytes:bankBytes+32])
}

func TestEmitASMRendersTablesAndLookups(t *testing.T) {
	t.Parallel()
	doc, err := Parse(strings.NewReader(sampleDoc))
	require.Nil(t, err)
	require.Nil(t, doc.finalize())

	walk1, _ := doc.CelByName("walk1")
	walk1.ID = 0

	interner := newTileInterner()
	id, _ := interner.Intern(stripedTile())
	bank := &Bank{Tiles: map[int]bool{id: true}, Cels: []*Cel{walk1}}

	ref := TileRef{TileID: id, OffsetX: 0, OffsetY: 0, PaletteID: 0}
	stream, err := newMetaspriteEncoder().Encode(walk1, []TileRef{ref}, bank)
	require.Nil(t, err)

	e := newEmitter("game_", "RODATA")
	asm, err := e.EmitASM(doc, []*Bank{bank}, map[*Cel][]byte{walk1: stream}, "walk.cel", "walk.png")
	require.Nil(t, err)

	assert.Contains(t, asm, `.segment "RODATA"`)
	assert.Contains(t, asm, ".export game_frametobank")
	assert.Contains(t, asm, "game_frametobank:")
	assert.Contains(t, asm, ".export game_mspraddrs")
	assert.Contains(t, asm, "mspr_walk1:")
	assert.Contains(t, asm, ".exportzp game_NUMFRAMES = 1")
	assert.Contains(t, asm, ".exportzp game_NUMTILES = 1")
}

func TestEmitASMDedupesIdenticalStreams(t *testing.T) {
	t.Parallel()
	celA := newCel("poseA", 1)
	celB := newCel("poseB", 2)
	celA.ID, celB.ID = 0, 1
	bank := &Bank{Tiles: map[int]bool{}, Cels: []*Cel{celA, celB}}
	streams := map[*Cel][]byte{
		celA: {0x80, 0x80, 0x00, 0x00},
		celB: {0x80, 0x80, 0x00, 0x00},
	}

	doc := &Document{Tables: map[string]*LookupTable{}}
	e := newEmitter("game_", "RODATA")
	asm, err := e.EmitASM(doc, []*Bank{bank}, streams, "x.cel", "x.png")
	require.Nil(t, err)

	assert.Equal(t, 1, strings.Count(asm, ".byte $80,$80,$00,$00"))
	assert.Contains(t, asm, "mspr_poseA:")
	assert.Contains(t, asm, "mspr_poseB:")
}

func TestEmitFrameNumbers(t *testing.T) {
	t.Parallel()
	cel := newCel("walk1", 1)
	cel.ID = 0
	cel.Aliases = []string{"walk1b"}
	interner := newTileInterner()
	id, _ := interner.Intern(stripedTile())
	bank := &Bank{Tiles: map[int]bool{id: true}, Cels: []*Cel{cel}}

	doc := &Document{Cels: []*Cel{cel}}
	refsByCel := map[*Cel][]TileRef{cel: {{TileID: id}}}

	e := newEmitter("game_", "RODATA")
	out := e.EmitFrameNumbers(doc, []*Bank{bank}, refsByCel)

	assert.Contains(t, out, "FRAME_walk1=0\n")
	assert.Contains(t, out, "FRAMEBANK_walk1=0\n")
	assert.Contains(t, out, "FRAMETILENUM_walk1=$00\n")
	assert.Contains(t, out, "FRAME_walk1b=0\n")
}

func TestAsmSafeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "walk_left_2", asmSafeName("walk-left.2"))
}

func TestCa65Chunked(t *testing.T) {
	t.Parallel()
	vals := []string{"$00", "$01", "$02"}
	assert.Equal(t, "  .byte $00,$01,$02", ca65Chunked(vals, 16, ".byte"))
	assert.Equal(t, "  .byte $00,$01\n  .byte $02", ca65Chunked(vals, 2, ".byte"))
}
