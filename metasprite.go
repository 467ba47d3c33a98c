package celpack

import "fmt"

// Row is a run of tiles sharing a y-offset, palette, and consecutive
// x-offsets, per §4.6.
type Row struct {
	X, Y      int // pixel offset from hotspot, of the leftmost tile
	PaletteID int
	HFlipRow  bool
	VFlipRow  bool
	BGBehind  bool
	Tiles     []TileRef
}

const maxRowTiles = 8

// buildRows groups a cel's placed tiles into front-to-back rows. Front-to-
// back ordering falls out of processing refs in the order the rasterizer
// produced them (strip order, and row-major within a strip); a row ends
// whenever the y-offset or palette changes, the run of x-offsets breaks,
// or it reaches the 8-tile width limit.
func buildRows(refs []TileRef) []Row {
	var rows []Row
	var cur *Row
	for _, ref := range refs {
		if cur != nil {
			lastX := cur.Tiles[len(cur.Tiles)-1].OffsetX
			contiguous := ref.OffsetY == cur.Y && ref.PaletteID == cur.PaletteID && ref.OffsetX == lastX+TileWidth
			if !contiguous || len(cur.Tiles) >= maxRowTiles {
				rows = append(rows, *cur)
				cur = nil
			}
		}
		if cur == nil {
			cur = &Row{X: ref.OffsetX, Y: ref.OffsetY, PaletteID: ref.PaletteID}
		}
		cur.Tiles = append(cur.Tiles, ref)
	}
	if cur != nil {
		rows = append(rows, *cur)
	}
	return rows
}

// MetaspriteEncoder serializes a cel's rows into the excess-128 byte
// stream described in §4.6.
type MetaspriteEncoder struct{}

func newMetaspriteEncoder() *MetaspriteEncoder { return &MetaspriteEncoder{} }

// Encode produces the byte stream for one cel's placed tiles, resolving
// each tile's bank-local slot via bank.
func (e *MetaspriteEncoder) Encode(cel *Cel, refs []TileRef, bank *Bank) ([]byte, error) {
	rows := buildRows(refs)
	var out []byte
	for _, row := range rows {
		xByte, err := excess128(row.X)
		if err != nil {
			return nil, newEncodeError(cel.Name, "row x-offset %d: %w", row.X, err)
		}
		if xByte == 0x00 {
			return nil, newEncodeError(cel.Name, "row at x-offset -128 would collide with the stream terminator")
		}
		yByte, err := excess128(row.Y)
		if err != nil {
			return nil, newEncodeError(cel.Name, "row y-offset %d: %w", row.Y, err)
		}
		if len(row.Tiles) == 0 || len(row.Tiles) > maxRowTiles {
			return nil, newEncodeError(cel.Name, "row has %d tiles, want 1..%d", len(row.Tiles), maxRowTiles)
		}
		flags := byte(row.PaletteID & 0x03)
		flags |= byte((len(row.Tiles)-1)&0x07) << 2
		if row.BGBehind {
			flags |= 1 << 5
		}
		if row.HFlipRow {
			flags |= 1 << 6
		}
		if row.VFlipRow {
			flags |= 1 << 7
		}
		out = append(out, xByte, yByte, flags)
		for _, ref := range row.Tiles {
			slot := bank.LocalSlot(ref.TileID)
			if slot > 0x1f {
				return nil, newEncodeError(cel.Name, "tile local slot %d does not fit bits 1-5 (bank-size must be <= 32)", slot)
			}
			tb := byte(slot) << 1 // bit 0 (pair-A) always 0: see DESIGN.md
			if ref.HFlip {
				tb |= 1 << 6
			}
			out = append(out, tb)
		}
	}
	out = append(out, 0x00)
	return out, nil
}

// excess128 biases a hotspot-relative coordinate into [0,255]; it is an
// error (not representable) outside [-128,127].
func excess128(v int) (byte, error) {
	if v < -128 || v > 127 {
		return 0, fmt.Errorf("out of excess-128 range [-128,127]")
	}
	return byte(v + 128), nil
}
