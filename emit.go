package celpack

import (
	"fmt"
	"sort"
	"strings"
)

// Emitter produces the CHR tile blob and the ca65-style assembly text
// described in §4.7, grounded on original_source/tools/strips.py's
// form_framedef/form_table/ca65_bytearray helpers.
type Emitter struct {
	Prefix  string // symbol prefix for frametobank/mspraddrs/NUMFRAMES/NUMTILES
	Segment string // ca65 segment name for the metasprite maps
}

func newEmitter(prefix, segment string) *Emitter {
	if segment == "" {
		segment = "RODATA"
	}
	return &Emitter{Prefix: prefix, Segment: segment}
}

// EmitCHR concatenates every bank's tile data in bank order. Each bank
// occupies exactly bankSize tiles worth of space (32 bytes each); slots
// beyond a bank's actual tile count are zero-filled. Written through a
// ChrLinker so two banks accidentally claiming the same offset range
// surfaces as an error instead of silently corrupting the blob.
func (e *Emitter) EmitCHR(banks []*Bank, interner *TileInterner, bankSize int) ([]byte, error) {
	tiles := interner.Tiles()
	bankBytes := bankSize * 32
	linker := NewChrLinker(len(banks) * bankBytes)
	for bankIdx, bank := range banks {
		ids := bank.SortedTileIDs()
		base := ChrAddr(bankIdx * bankBytes)
		for slot, id := range ids {
			if err := linker.WriteAt(base+ChrAddr(slot*32), encodeTileCHR(tiles[id])); err != nil {
				return nil, fmt.Errorf("emit chr: %w", err)
			}
		}
	}
	return linker.Bytes(), nil
}

// encodeTileCHR packs one tile into 32 bytes: 16 low-plane bytes followed
// by 16 high-plane bytes, one byte per pixel row, bit 7 of each byte is
// the leftmost pixel.
func encodeTileCHR(t Tile) []byte {
	out := make([]byte, 32)
	for y := 0; y < TileHeight; y++ {
		var lo, hi byte
		for x := 0; x < TileWidth; x++ {
			px := t[y][x]
			bit := byte(7 - x)
			lo |= (px & 1) << bit
			hi |= ((px >> 1) & 1) << bit
		}
		out[y] = lo
		out[TileHeight+y] = hi
	}
	return out
}

// slotFrame is one entry in the flattened, globally-numbered cel sequence
// that assignIDs produced: either a real cel or an `align` padding slot.
type slotFrame struct {
	cel       *Cel
	bankIndex int
	label     string
	data      []byte
}

// EmitASM renders the frametobank table, mspraddrs address table, every
// cel's metasprite byte stream (deduplicated when byte-identical, as the
// original toolchain does for repeated poses), and the document's user
// lookup tables, as ca65 assembly text.
func (e *Emitter) EmitASM(doc *Document, banks []*Bank, streams map[*Cel][]byte, sheetName, imageName string) (string, error) {
	slots, err := e.buildSlots(banks, streams)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "; metasprite map generated by celpack\n")
	fmt.Fprintf(&b, "; cel-position file: %s\n", sheetName)
	fmt.Fprintf(&b, "; sprite sheet: %s\n", imageName)
	fmt.Fprintf(&b, "; %d unique tiles in %d bank(s)\n", e.totalTiles(banks), len(banks))
	fmt.Fprintf(&b, ".segment %q\n", e.Segment)
	fmt.Fprintf(&b, ".exportzp %sNUMFRAMES = %d\n", e.Prefix, len(slots))
	fmt.Fprintf(&b, ".exportzp %sNUMTILES = %d\n", e.Prefix, e.totalTiles(banks))
	fmt.Fprintf(&b, ".export %sframetobank\n", e.Prefix)
	fmt.Fprintf(&b, "%sframetobank:\n", e.Prefix)
	frametobank := make([]string, len(slots))
	for i, s := range slots {
		frametobank[i] = fmt.Sprintf("$%02X", s.bankIndex)
	}
	b.WriteString(ca65HexArray(frametobank))
	b.WriteString("\n")

	fmt.Fprintf(&b, ".export %smspraddrs\n", e.Prefix)
	fmt.Fprintf(&b, "%smspraddrs:\n", e.Prefix)
	addrs := make([]string, len(slots))
	for i, s := range slots {
		addrs[i] = "mspr_" + s.label
	}
	b.WriteString(ca65AddrArray(addrs))
	b.WriteString("\n")

	for _, group := range groupByData(slots) {
		for _, s := range group {
			fmt.Fprintf(&b, "mspr_%s:\n", s.label)
		}
		b.WriteString(ca65HexBytes(group[0].data))
		b.WriteString("\n")
	}

	if len(doc.Tables) > 0 {
		b.WriteString("; lookup tables ")
		b.WriteString(strings.Repeat("-", 30))
		b.WriteString("\n")
		for _, name := range doc.tableOrder {
			t := doc.Tables[name]
			b.WriteString(formTable(t))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func (e *Emitter) totalTiles(banks []*Bank) int {
	seen := map[int]bool{}
	for _, bank := range banks {
		for id := range bank.Tiles {
			seen[id] = true
		}
	}
	return len(seen)
}

func (e *Emitter) buildSlots(banks []*Bank, streams map[*Cel][]byte) ([]slotFrame, error) {
	var slots []slotFrame
	for bankIdx, bank := range banks {
		for _, cel := range bank.Cels {
			if cel == nil {
				slots = append(slots, slotFrame{
					bankIndex: bankIdx,
					label:     fmt.Sprintf("pad_%d", len(slots)),
					data:      []byte{0x00},
				})
				continue
			}
			data, ok := streams[cel]
			if !ok {
				return nil, newEncodeError(cel.Name, "no metasprite stream was encoded for this cel")
			}
			slots = append(slots, slotFrame{
				cel:       cel,
				bankIndex: bankIdx,
				label:     asmSafeName(cel.Name),
				data:      data,
			})
		}
	}
	return slots, nil
}

// groupByData groups slots that share byte-identical metasprite streams,
// in first-occurrence order, so identical poses emit their data once with
// multiple labels.
func groupByData(slots []slotFrame) [][]slotFrame {
	var groups [][]slotFrame
	index := map[string]int{}
	for _, s := range slots {
		key := string(s.data)
		if gi, ok := index[key]; ok {
			groups[gi] = append(groups[gi], s)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, []slotFrame{s})
	}
	return groups
}

func asmSafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func formTable(t *LookupTable) string {
	strs := make([]string, len(t.Values))
	for i, v := range t.Values {
		if v >= -128 && v < 0 {
			strs[i] = fmt.Sprintf("<%d", v)
		} else {
			strs[i] = fmt.Sprintf("%d", v)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, ".segment %q\n", t.Segment)
	fmt.Fprintf(&b, ".export %s\n", t.Name)
	fmt.Fprintf(&b, "%s:\n", t.Name)
	b.WriteString(ca65DecArray(strs))
	return b.String()
}

func ca65HexArray(vals []string) string { return ca65Chunked(vals, 16, ".byte") }
func ca65DecArray(vals []string) string { return ca65Chunked(vals, 16, ".byte") }

func ca65AddrArray(vals []string) string { return ca65Chunked(vals, 4, ".addr") }

func ca65Chunked(vals []string, perLine int, directive string) string {
	var lines []string
	for i := 0; i < len(vals); i += perLine {
		end := i + perLine
		if end > len(vals) {
			end = len(vals)
		}
		lines = append(lines, "  "+directive+" "+strings.Join(vals[i:end], ","))
	}
	return strings.Join(lines, "\n")
}

// EmitFrameNumbers renders the optional `FRAME_<name>=<id>`,
// `FRAMEBANK_<name>=<bank>`, `FRAMETILENUM_<name>=<slot>` side file, one
// triple per cel and per alias, ordered by cel id.
func (e *Emitter) EmitFrameNumbers(doc *Document, banks []*Bank, refsByCel map[*Cel][]TileRef) string {
	type entry struct {
		id   int
		name string
	}
	var entries []entry
	for bankIdx, bank := range banks {
		for _, cel := range bank.Cels {
			if cel == nil {
				continue
			}
			entries = append(entries, entry{id: cel.ID, name: cel.Name})
			for _, alias := range cel.Aliases {
				entries = append(entries, entry{id: cel.ID, name: alias})
			}
			_ = bankIdx
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	bankOf := map[int]int{}
	firstSlot := map[int]int{}
	for bankIdx, bank := range banks {
		for _, cel := range bank.Cels {
			if cel == nil {
				continue
			}
			bankOf[cel.ID] = bankIdx
			refs := refsByCel[cel]
			if len(refs) > 0 {
				firstSlot[cel.ID] = bank.LocalSlot(refs[0].TileID)
			} else {
				firstSlot[cel.ID] = 0xFF
			}
		}
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "FRAME_%s=%d\n", e.name, e.id)
		fmt.Fprintf(&b, "FRAMEBANK_%s=%d\n", e.name, bankOf[e.id])
		fmt.Fprintf(&b, "FRAMETILENUM_%s=$%02X\n", e.name, firstSlot[e.id])
	}
	return b.String()
}

func ca65HexBytes(data []byte) string {
	vals := make([]string, len(data))
	for i, b := range data {
		vals[i] = fmt.Sprintf("$%02X", b)
	}
	return ca65Chunked(vals, 16, ".byte")
}
