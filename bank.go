package celpack

import "sort"

// Bank is one ordered group of cels sharing a single tile bank. Cels is
// the final, globally-numbered sequence within the bank; a nil entry is
// an `align` padding slot and carries no tile data.
type Bank struct {
	Cels     []*Cel
	Tiles    map[int]bool // union of tile ids used by this bank's cels
	tileOrder []int
	slotOf    map[int]int
}

// SortedTileIDs returns this bank's tile ids in the fixed order they are
// emitted as CHR data, which is also the order that defines each tile's
// local slot number (§4.6's "tile base within bank").
func (b *Bank) SortedTileIDs() []int {
	if b.tileOrder == nil {
		ids := make([]int, 0, len(b.Tiles))
		for id := range b.Tiles {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		b.tileOrder = ids
		b.slotOf = make(map[int]int, len(ids))
		for i, id := range ids {
			b.slotOf[id] = i
		}
	}
	return b.tileOrder
}

// LocalSlot returns the bank-local slot number (0..bank-size-1) of a
// global tile id, computing the slot assignment on first use.
func (b *Bank) LocalSlot(tileID int) int {
	if b.slotOf == nil {
		b.SortedTileIDs()
	}
	return b.slotOf[tileID]
}

// BankPacker assigns cels to banks using the overload-and-remove
// overlapping bin-packing heuristic of §4.5, honoring `related` and
// `align` as hard constraints and `subset` as an insertion-order hint.
type BankPacker struct {
	bankSize      int
	maxIterations int
}

func newBankPacker(bankSize int) *BankPacker {
	return &BankPacker{bankSize: bankSize, maxIterations: 256}
}

// metaItem is one or more `related` cels coalesced into a single packing
// unit, since they must always share a bank.
type metaItem struct {
	cels      []*Cel
	tiles     map[int]bool
	hasSubset bool
}

func tileSet(ids []int) map[int]bool {
	s := make(map[int]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func unionSet(a, b map[int]bool) map[int]bool {
	out := make(map[int]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func intersectionSize(a, b map[int]bool) int {
	n := 0
	for k := range a {
		if b[k] {
			n++
		}
	}
	return n
}

// Pack groups rasterized cels into banks. rasterized must be in the same
// order as doc.Cels.
func (bp *BankPacker) Pack(doc *Document, rasterized []*RasterizedCel) ([]*Bank, error) {
	tilesByCel := make(map[*Cel]map[int]bool, len(rasterized))
	for _, rc := range rasterized {
		ids := make([]int, 0, len(rc.Refs))
		for _, ref := range rc.Refs {
			ids = append(ids, ref.TileID)
		}
		tilesByCel[rc.Cel] = tileSet(ids)
	}

	items, err := bp.coalesceRelated(doc, tilesByCel)
	if err != nil {
		return nil, err
	}
	bp.orderBySubset(items)

	bins := bp.greedyInsert(items)
	bins = bp.improve(bins)

	for _, b := range bins {
		if len(b.tiles) > bp.bankSize {
			return nil, newPackError("", "bank ended up with %d distinct tiles, exceeding bank-size %d", len(b.tiles), bp.bankSize)
		}
	}

	return bp.assignIDs(bins), nil
}

// coalesceRelated unions cels joined by `related` into single packing
// items via union-find over the (undirected) related graph, and verifies
// no resulting item's tile set alone exceeds bank capacity.
func (bp *BankPacker) coalesceRelated(doc *Document, tilesByCel map[*Cel]map[int]bool) ([]*metaItem, error) {
	parent := make(map[string]string, len(doc.Cels))
	for _, c := range doc.Cels {
		parent[c.Name] = c.Name
	}
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	resolve := func(name string) (string, bool) {
		if canon, ok := doc.aliasIndex[name]; ok {
			name = canon
		}
		_, ok := parent[name]
		return name, ok
	}
	for _, pair := range doc.RelatedPairs() {
		a, ok1 := resolve(pair[0])
		b, ok2 := resolve(pair[1])
		if ok1 && ok2 {
			union(a, b)
		}
	}

	groups := make(map[string][]*Cel)
	var order []string
	for _, c := range doc.Cels {
		root := find(c.Name)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], c)
	}

	items := make([]*metaItem, 0, len(order))
	for _, root := range order {
		cels := groups[root]
		item := &metaItem{cels: cels, tiles: map[int]bool{}}
		for _, c := range cels {
			item.tiles = unionSet(item.tiles, tilesByCel[c])
			if c.Subset {
				item.hasSubset = true
			}
		}
		if len(item.tiles) > bp.bankSize {
			return nil, newPackError(cels[0].Name, "cel's tile set (%d tiles, after related-coalescing) exceeds bank-size %d", len(item.tiles), bp.bankSize)
		}
		items = append(items, item)
	}
	return items, nil
}

// orderBySubset moves `subset`-flagged items to the front, preserving
// relative order within each group; deprecated but honored for
// compatibility per §4.5.
func (bp *BankPacker) orderBySubset(items []*metaItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].hasSubset && !items[j].hasSubset
	})
}

type bankBin struct {
	items []*metaItem
	tiles map[int]bool
}

func newBankBin() *bankBin { return &bankBin{tiles: map[int]bool{}} }

func (b *bankBin) add(item *metaItem) {
	b.items = append(b.items, item)
	b.tiles = unionSet(b.tiles, item.tiles)
}

func (b *bankBin) rebuild() {
	tiles := map[int]bool{}
	for _, it := range b.items {
		tiles = unionSet(tiles, it.tiles)
	}
	b.tiles = tiles
}

// greedyInsert places each item, in order, into the existing bin with the
// largest tile-set intersection that can still accept it without
// exceeding capacity; opens a new bin when none can.
func (bp *BankPacker) greedyInsert(items []*metaItem) []*bankBin {
	var bins []*bankBin
	for _, item := range items {
		bestIdx, bestInter := -1, -1
		for i, b := range bins {
			if len(unionSet(b.tiles, item.tiles)) > bp.bankSize {
				continue
			}
			inter := intersectionSize(b.tiles, item.tiles)
			if inter > bestInter {
				bestInter, bestIdx = inter, i
			}
		}
		if bestIdx >= 0 {
			bins[bestIdx].add(item)
			continue
		}
		fresh := newBankBin()
		fresh.add(item)
		bins = append(bins, fresh)
	}
	return bins
}

// improve attempts to drain later bins into earlier ones, using a single
// overload-then-evict step when a direct move would not fit, per the
// overload-and-remove heuristic of §4.5. It never leaves a bin over
// capacity: an overload that cannot be relieved by evicting exactly one
// member is left undone.
func (bp *BankPacker) improve(bins []*bankBin) []*bankBin {
	for iter := 0; iter < bp.maxIterations; iter++ {
		changed := false
		for i := len(bins) - 1; i > 0; i-- {
			bin := bins[i]
			if len(bin.items) == 0 {
				bins = append(bins[:i], bins[i+1:]...)
				changed = true
				continue
			}
			item := bin.items[0]
			targetIdx := bp.bestTarget(bins[:i], item)
			if targetIdx < 0 {
				continue
			}
			target := bins[targetIdx]
			if len(unionSet(target.tiles, item.tiles)) <= bp.bankSize {
				target.add(item)
				bin.items = bin.items[1:]
				bin.rebuild()
				changed = true
				continue
			}
			evictIdx := bestEviction(target.items, item, bp.bankSize)
			if evictIdx < 0 {
				continue
			}
			evicted := target.items[evictIdx]
			origTarget, origBin := target.items, bin.items
			target.items = append(append([]*metaItem{}, target.items[:evictIdx]...), target.items[evictIdx+1:]...)
			target.rebuild()
			target.add(item)
			bin.items = bin.items[1:]
			bin.rebuild()
			if !bp.reinsert(bins, targetIdx, evicted) {
				if len(unionSet(bin.tiles, evicted.tiles)) > bp.bankSize {
					target.items, bin.items = origTarget, origBin
					target.rebuild()
					bin.rebuild()
					continue
				}
				bin.add(evicted)
			}
			changed = true
		}
		if !changed {
			break
		}
	}
	return bins
}

func (bp *BankPacker) bestTarget(candidates []*bankBin, item *metaItem) int {
	best, bestInter := -1, -1
	for i, b := range candidates {
		inter := intersectionSize(b.tiles, item.tiles)
		if inter > bestInter {
			bestInter, best = inter, i
		}
	}
	return best
}

// bestEviction finds the member of target whose removal brings
// union(target minus member, item) back within capacity, picking whichever
// eviction minimizes the resulting size and, on ties, the most recently
// inserted member.
func bestEviction(members []*metaItem, item *metaItem, capacity int) int {
	best, bestSize := -1, -1
	for i := range members {
		remaining := map[int]bool{}
		for j, m := range members {
			if j == i {
				continue
			}
			remaining = unionSet(remaining, m.tiles)
		}
		remaining = unionSet(remaining, item.tiles)
		if len(remaining) > capacity {
			continue
		}
		if best == -1 || len(remaining) <= bestSize {
			best, bestSize = i, len(remaining)
		}
	}
	return best
}

// reinsert places evicted into any bin other than skipIdx using the same
// greedy rule as the initial pass; it does not open a new bin, since the
// caller falls back to the item's originating bin when this fails.
func (bp *BankPacker) reinsert(bins []*bankBin, skipIdx int, evicted *metaItem) bool {
	best, bestInter := -1, -1
	for i, b := range bins {
		if i == skipIdx {
			continue
		}
		if len(unionSet(b.tiles, evicted.tiles)) > bp.bankSize {
			continue
		}
		inter := intersectionSize(b.tiles, evicted.tiles)
		if inter > bestInter {
			bestInter, best = inter, i
		}
	}
	if best < 0 {
		return false
	}
	bins[best].add(evicted)
	return true
}

// assignIDs flattens bins in order into the final global cel numbering,
// inserting `align` padding slots as needed, per §4.5.
func (bp *BankPacker) assignIDs(bins []*bankBin) []*Bank {
	out := make([]*Bank, 0, len(bins))
	id := 0
	for _, b := range bins {
		bank := &Bank{Tiles: b.tiles}
		for _, item := range b.items {
			for _, cel := range item.cels {
				if cel.Align > 1 && id%cel.Align != 0 {
					pad := cel.Align - (id % cel.Align)
					for p := 0; p < pad; p++ {
						bank.Cels = append(bank.Cels, nil)
						id++
					}
				}
				cel.ID = id
				bank.Cels = append(bank.Cels, cel)
				id++
			}
		}
		out = append(out, bank)
	}
	return out
}
