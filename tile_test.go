package celpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func checkeredTile() Tile {
	var t Tile
	for y := 0; y < TileHeight; y++ {
		for x := 0; x < TileWidth; x++ {
			t[y][x] = uint8((x + y) % 2)
		}
	}
	return t
}

func TestTileHFlipIsInvolution(t *testing.T) {
	t.Parallel()
	tile := checkeredTile()
	tile[0][0] = 3
	assert.Equal(t, tile, tile.HFlip().HFlip())
}

func TestTileIsBlank(t *testing.T) {
	t.Parallel()
	var blank Tile
	assert.True(t, blank.IsBlank())
	tile := checkeredTile()
	assert.False(t, tile.IsBlank())
}

func TestTileInternerDedupesFlips(t *testing.T) {
	t.Parallel()
	ti := newTileInterner()
	tile := checkeredTile()
	tile[0][0] = 3

	id1, flipped1 := ti.Intern(tile)
	id2, flipped2 := ti.Intern(tile.HFlip())

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, flipped1, flipped2)
	assert.Equal(t, 1, ti.Len())
}

func TestTileInternerAssignsNewIDs(t *testing.T) {
	t.Parallel()
	ti := newTileInterner()
	var blank Tile
	tile := checkeredTile()

	id1, _ := ti.Intern(blank)
	id2, _ := ti.Intern(tile)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, ti.Len())
}

func TestPairCandidates(t *testing.T) {
	t.Parallel()
	ti := newTileInterner()
	a := checkeredTile()
	a[0][0] = 3
	var b Tile
	b[0][0] = 2

	idA, _ := ti.Intern(a)
	idB, _ := ti.Intern(b)

	assert.False(t, ti.PairCandidates(idA, idB))
	assert.False(t, ti.PairCandidates(idA, 99))
}
