package celpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRowsGroupsContiguousTiles(t *testing.T) {
	t.Parallel()
	refs := []TileRef{
		{TileID: 0, OffsetX: 0, OffsetY: 0, PaletteID: 1},
		{TileID: 1, OffsetX: TileWidth, OffsetY: 0, PaletteID: 1},
		{TileID: 2, OffsetX: 0, OffsetY: TileHeight, PaletteID: 1},
	}
	rows := buildRows(refs)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0].Tiles, 2)
	assert.Len(t, rows[1].Tiles, 1)
}

func TestBuildRowsBreaksOnPaletteChange(t *testing.T) {
	t.Parallel()
	refs := []TileRef{
		{TileID: 0, OffsetX: 0, OffsetY: 0, PaletteID: 1},
		{TileID: 1, OffsetX: TileWidth, OffsetY: 0, PaletteID: 2},
	}
	rows := buildRows(refs)
	require.Len(t, rows, 2)
}

func TestBuildRowsBreaksAtEightTiles(t *testing.T) {
	t.Parallel()
	var refs []TileRef
	for i := 0; i < 9; i++ {
		refs = append(refs, TileRef{TileID: i, OffsetX: i * TileWidth, OffsetY: 0, PaletteID: 0})
	}
	rows := buildRows(refs)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0].Tiles, maxRowTiles)
	assert.Len(t, rows[1].Tiles, 1)
}

func TestMetaspriteEncodeSingleTile(t *testing.T) {
	t.Parallel()
	cel := newCel("stand", 1)
	refs := []TileRef{{TileID: 0, OffsetX: -4, OffsetY: -8, PaletteID: 2}}
	bank := &Bank{Tiles: map[int]bool{0: true}}

	enc := newMetaspriteEncoder()
	data, err := enc.Encode(cel, refs, bank)
	require.Nil(t, err)
	require.Len(t, data, 5) // x, y, flags, 1 tile byte, terminator
}

func TestMetaspriteEncodeTerminator(t *testing.T) {
	t.Parallel()
	cel := newCel("stand", 1)
	refs := []TileRef{{TileID: 0, OffsetX: -4, OffsetY: -8, PaletteID: 2}}
	bank := &Bank{Tiles: map[int]bool{0: true}}

	enc := newMetaspriteEncoder()
	data, err := enc.Encode(cel, refs, bank)
	require.Nil(t, err)
	assert.Equal(t, byte(0x00), data[len(data)-1])
	assert.Equal(t, byte(-4+128), data[0])
	assert.Equal(t, byte(-8+128), data[1])
	assert.Equal(t, byte(2), data[2]&0x03) // palette id in flags bits 0-1
}

func TestMetaspriteEncodeTerminatorCollisionErrors(t *testing.T) {
	t.Parallel()
	cel := newCel("edge", 1)
	refs := []TileRef{{TileID: 0, OffsetX: -128, OffsetY: 0, PaletteID: 0}}
	bank := &Bank{Tiles: map[int]bool{0: true}}

	enc := newMetaspriteEncoder()
	_, err := enc.Encode(cel, refs, bank)
	require.Error(t, err)
	var encErr *EncodeError
	assert.ErrorAs(t, err, &encErr)
}

func TestMetaspriteEncodeSlotOverflowErrors(t *testing.T) {
	t.Parallel()
	cel := newCel("wide-bank", 1)
	refs := []TileRef{{TileID: 40, OffsetX: 0, OffsetY: 0, PaletteID: 0}}
	bank := &Bank{Tiles: map[int]bool{}}
	for i := 0; i <= 40; i++ {
		bank.Tiles[i] = true
	}

	enc := newMetaspriteEncoder()
	_, err := enc.Encode(cel, refs, bank)
	require.Error(t, err)
	var encErr *EncodeError
	assert.ErrorAs(t, err, &encErr)
}

func TestExcess128Range(t *testing.T) {
	t.Parallel()
	b, err := excess128(-128)
	require.Nil(t, err)
	assert.Equal(t, byte(0), b)

	b, err = excess128(127)
	require.Nil(t, err)
	assert.Equal(t, byte(255), b)

	_, err = excess128(128)
	assert.Error(t, err)
}
