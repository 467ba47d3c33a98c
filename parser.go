package celpack

import (
	"bufio"
	"fmt"
	"io"
)

// flagDef is a registered `flag` keyword: using it in a cel block ORs
// value into the named table's entry for that cel.
type flagDef struct {
	table string
	value int64
}

// actionPointDef is a registered `actionpoint` keyword.
type actionPointDef struct {
	keyword string
	xTable  string // "" if the DSL used "-"
	yTable  string
}

// Document is the fully parsed, but not yet finalized, contents of a
// cel-position file: global declarations plus an ordered list of cels.
type Document struct {
	HasBackdrop bool
	Backdrop    RGB
	Palettes    *PaletteSet
	HFlip       bool

	Cels       []*Cel
	celIndex   map[string]int
	aliasIndex map[string]string // alias -> canonical cel name

	Tables       map[string]*LookupTable
	tableOrder   []string
	attrKeywords map[string]string // keyword -> table name
	flagKeywords map[string]flagDef

	ActionPoints      map[string]*actionPointDef
	actionPointOrder  []string
	actionPointValues map[string][]*Loc // keyword -> per-cel absolute sheet point, nil if unset

	related [][2]string // pairs of cel names that must share a bank
}

func newDocument() *Document {
	return &Document{
		Palettes:          newPaletteSet(),
		celIndex:          make(map[string]int),
		aliasIndex:        make(map[string]string),
		Tables:            make(map[string]*LookupTable),
		attrKeywords:      make(map[string]string),
		flagKeywords:      make(map[string]flagDef),
		ActionPoints:      make(map[string]*actionPointDef),
		actionPointValues: make(map[string][]*Loc),
	}
}

// RelatedPairs returns the cel-name pairs declared related, directly or via
// a zero-offset `repeats`.
func (d *Document) RelatedPairs() [][2]string { return d.related }

// CelByName returns the cel with the given name or alias.
func (d *Document) CelByName(name string) (*Cel, bool) {
	if canon, ok := d.aliasIndex[name]; ok {
		name = canon
	}
	i, ok := d.celIndex[name]
	if !ok {
		return nil, false
	}
	return d.Cels[i], true
}

type parser struct {
	doc          *Document
	cur          *Cel
	line         int
	pendingAlign int
}

// Parse reads a cel-position file and returns its parsed, finalized
// representation. Finalization resolves deferred checks such as palette-id
// references that can only be validated once the whole file is read.
func Parse(r io.Reader) (*Document, error) {
	p := &parser{doc: newDocument(), pendingAlign: 1}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		p.line++
		fields := fieldsOf(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := p.dispatch(fields); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, newIOError("<cel-position file>", err)
	}
	if err := p.doc.finalize(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

func (p *parser) errf(code, format string, a ...any) error {
	return newParseError(p.line, code, format, a...)
}

func (p *parser) dispatch(fields []string) error {
	kw := fields[0]
	switch kw {
	case "backdrop":
		return p.handleBackdrop(fields)
	case "palette":
		return p.handlePalette(fields)
	case "hflip":
		p.doc.HFlip = true
		return nil
	case "align":
		return p.handleAlign(fields)
	case "table":
		p.cur = nil // table, like frame, closes any open cel block
		return p.handleTable(fields)
	case "attribute":
		return p.handleAttribute(fields)
	case "flag":
		return p.handleFlag(fields)
	case "actionpoint":
		return p.handleActionPoint(fields)
	case "frame":
		return p.handleFrame(fields)
	}

	// Everything below requires an open cel block.
	switch kw {
	case "aka":
		return p.handleAka(fields)
	case "strip":
		return p.handleStrip(fields)
	case "hotspot":
		return p.handleHotspot(fields)
	case "repeats":
		return p.handleRepeats(fields)
	case "related":
		return p.handleRelated(fields)
	case "subset":
		if p.cur == nil {
			return p.errf("no-frame", "subset outside of a frame block")
		}
		p.cur.Subset = true
		return nil
	}

	if table, ok := p.doc.attrKeywords[kw]; ok {
		return p.handleAttrUsage(table, fields)
	}
	if _, ok := p.doc.flagKeywords[kw]; ok {
		return p.handleFlagUsage(fields)
	}
	if _, ok := p.doc.ActionPoints[kw]; ok {
		return p.handleActionPointUsage(kw, fields)
	}
	return p.errf("unknown-keyword", "unknown keyword %q", kw)
}

func (p *parser) handleBackdrop(fields []string) error {
	if len(fields) < 2 {
		return p.errf("bad-backdrop", "backdrop requires a color argument")
	}
	if p.doc.HasBackdrop {
		return p.errf("duplicate-backdrop", "backdrop already declared")
	}
	c, err := parseColor(fields[1])
	if err != nil {
		return p.errf("bad-color", "%v", err)
	}
	p.doc.Backdrop = c
	p.doc.HasBackdrop = true
	return nil
}

func (p *parser) handlePalette(fields []string) error {
	if len(fields) < 5 {
		return p.errf("bad-palette", "palette requires an id and at least 3 colors")
	}
	id, err := parseInt(fields[1])
	if err != nil {
		return p.errf("bad-palette", "%v", err)
	}
	pal := Palette{ID: id, Colors: make(map[int]RGB)}
	nextIndex := 1
	for _, tok := range fields[2:] {
		spec := tok
		index := nextIndex
		if eq := indexOfByte(tok, '='); eq >= 0 {
			spec = tok[:eq]
			v, err := parseInt(tok[eq+1:])
			if err != nil {
				return p.errf("bad-palette", "bad color index in %q: %v", tok, err)
			}
			index = v
		}
		c, err := parseColor(spec)
		if err != nil {
			return p.errf("bad-color", "%v", err)
		}
		pal.Colors[index] = c
		nextIndex = index + 1
	}
	p.doc.Palettes.add(pal)
	return nil
}

func indexOfByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func (p *parser) handleAlign(fields []string) error {
	if len(fields) < 2 {
		return p.errf("bad-align", "align requires an integer argument")
	}
	k, err := parseInt(fields[1])
	if err != nil {
		return p.errf("bad-align", "%v", err)
	}
	if k <= 1 {
		return p.errf("bad-align", "align k must be > 1, got %d", k)
	}
	p.pendingAlign = k
	return nil
}

func (p *parser) handleTable(fields []string) error {
	if len(fields) < 2 {
		return p.errf("bad-table", "table requires a name")
	}
	name := fields[1]
	if _, exists := p.doc.Tables[name]; exists {
		return p.errf("duplicate-table", "table %q already declared", name)
	}
	segment := ""
	if len(fields) >= 4 && fields[2] == "in" {
		segment = fields[3]
	}
	lt := &LookupTable{Name: name, Segment: segment, Values: make([]int64, len(p.doc.Cels))}
	p.doc.Tables[name] = lt
	p.doc.tableOrder = append(p.doc.tableOrder, name)
	return nil
}

func (p *parser) handleAttribute(fields []string) error {
	if len(fields) < 4 || fields[2] != "in" {
		return p.errf("bad-attribute", "usage: attribute <kw> in <tablename>")
	}
	kw, table := fields[1], fields[3]
	if _, ok := p.doc.Tables[table]; !ok {
		return p.errf("bad-attribute", "attribute %q refers to undeclared table %q", kw, table)
	}
	p.doc.attrKeywords[kw] = table
	return nil
}

func (p *parser) handleFlag(fields []string) error {
	if len(fields) < 5 || fields[3] != "in" {
		return p.errf("bad-flag", "usage: flag <kw> <intorhex> in <tablename>")
	}
	kw := fields[1]
	v, err := parseIntOrHex(fields[2])
	if err != nil {
		return p.errf("bad-flag", "%v", err)
	}
	table := fields[4]
	if _, ok := p.doc.Tables[table]; !ok {
		return p.errf("bad-flag", "flag %q refers to undeclared table %q", kw, table)
	}
	p.doc.flagKeywords[kw] = flagDef{table: table, value: v}
	return nil
}

func (p *parser) handleActionPoint(fields []string) error {
	if len(fields) < 5 || fields[2] != "in" {
		return p.errf("bad-actionpoint", "usage: actionpoint <kw> in <xtable|-> <ytable|->")
	}
	kw := fields[1]
	if _, exists := p.doc.ActionPoints[kw]; exists {
		return p.errf("duplicate-actionpoint", "actionpoint %q already declared", kw)
	}
	xt, yt := fields[3], fields[4]
	if xt == "-" {
		xt = ""
	}
	if yt == "-" {
		yt = ""
	}
	p.doc.ActionPoints[kw] = &actionPointDef{keyword: kw, xTable: xt, yTable: yt}
	p.doc.actionPointOrder = append(p.doc.actionPointOrder, kw)
	p.doc.actionPointValues[kw] = make([]*Loc, len(p.doc.Cels))
	return nil
}

func (p *parser) handleFrame(fields []string) error {
	if len(fields) < 2 {
		return p.errf("bad-frame", "frame requires a name")
	}
	name := fields[1]
	if _, exists := p.doc.celIndex[name]; exists {
		return p.errf("duplicate-frame", "frame %q already defined", name)
	}
	cel := newCel(name, p.line)
	cel.Align = p.pendingAlign
	p.pendingAlign = 1
	if len(fields) >= 6 {
		r, err := parseRect(fields[2:6])
		if err != nil {
			return p.errf("bad-frame", "%v", err)
		}
		cel.Clip = r
		cel.HasExplicitClip = true
	}

	p.doc.Cels = append(p.doc.Cels, cel)
	p.doc.celIndex[name] = len(p.doc.Cels) - 1
	for _, t := range p.doc.Tables {
		t.Values = append(t.Values, 0)
	}
	for kw, vals := range p.doc.actionPointValues {
		p.doc.actionPointValues[kw] = append(vals, nil)
	}
	p.cur = cel
	return nil
}

func (p *parser) handleAka(fields []string) error {
	if p.cur == nil {
		return p.errf("no-frame", "aka outside of a frame block")
	}
	if len(fields) < 2 {
		return p.errf("bad-aka", "aka requires a name")
	}
	alias := fields[1]
	p.cur.Aliases = append(p.cur.Aliases, alias)
	p.doc.aliasIndex[alias] = p.cur.Name
	return nil
}

func (p *parser) handleStrip(fields []string) error {
	if p.cur == nil {
		return p.errf("no-frame", "strip outside of a frame block")
	}
	if len(fields) < 2 {
		return p.errf("bad-strip", "strip requires at least a palette id")
	}
	palIDs, err := parseIntList(fields[1])
	if err != nil {
		return p.errf("bad-strip", "%v", err)
	}

	rest := fields[2:]
	var (
		srcRect  Rect
		haveRect bool
		dest     *Loc
	)
	if len(rest) >= 4 && rest[0] != "at" {
		r, err := parseRect(rest[0:4])
		if err != nil {
			return p.errf("bad-strip", "%v", err)
		}
		srcRect = r
		haveRect = true
		rest = rest[4:]
	}
	if len(rest) >= 3 && rest[0] == "at" {
		loc, err := parseLoc(rest[1:3])
		if err != nil {
			return p.errf("bad-strip", "%v", err)
		}
		dest = &loc
		rest = rest[3:]
	}

	if !haveRect {
		if !p.cur.HasExplicitClip {
			return p.errf("bad-strip", "frame %q: strip needs an explicit rect because the frame has no clip rect", p.cur.Name)
		}
		srcRect = p.cur.Clip
	}

	clip := p.cur.Clip
	clipActive := p.cur.HasExplicitClip && dest == nil
	strip, err := clipStrip(srcRect, clip, clipActive, dest)
	if err != nil {
		return p.errf("bad-strip", "frame %q: %v", p.cur.Name, err)
	}

	for _, id := range palIDs {
		s := strip
		s.PaletteID = id
		p.cur.Strips = append(p.cur.Strips, s)
	}
	return nil
}

func (p *parser) handleHotspot(fields []string) error {
	if p.cur == nil {
		return p.errf("no-frame", "hotspot outside of a frame block")
	}
	if len(fields) < 3 {
		return p.errf("bad-hotspot", "hotspot requires 2 integers")
	}
	loc, err := parseLoc(fields[1:3])
	if err != nil {
		return p.errf("bad-hotspot", "%v", err)
	}
	p.cur.Hotspot = loc
	p.cur.HasExplicitHotspot = true
	return nil
}

func (p *parser) handleRepeats(fields []string) error {
	if p.cur == nil {
		return p.errf("no-frame", "repeats outside of a frame block")
	}
	if len(fields) < 2 {
		return p.errf("bad-repeats", "repeats requires a frame name")
	}
	other, ok := p.doc.CelByName(fields[1])
	if !ok {
		return p.errf("unknown-frame", "repeats refers to undefined frame %q", fields[1])
	}
	dx, dy := 0, 0
	if len(fields) >= 4 {
		loc, err := parseLoc(fields[2:4])
		if err != nil {
			return p.errf("bad-repeats", "%v", err)
		}
		dx, dy = loc.X, loc.Y
	}
	for _, s := range other.Strips {
		s.Src.Left += dx
		s.Src.Top += dy
		s.Dest.X += dx
		s.Dest.Y += dy
		p.cur.Strips = append(p.cur.Strips, s)
	}
	if dx == 0 && dy == 0 {
		p.doc.related = append(p.doc.related, [2]string{other.Name, p.cur.Name})
	}
	return nil
}

func (p *parser) handleRelated(fields []string) error {
	if p.cur == nil {
		return p.errf("no-frame", "related outside of a frame block")
	}
	if len(fields) < 2 {
		return p.errf("bad-related", "related requires at least one frame name")
	}
	for _, name := range fields[1:] {
		p.cur.Related = append(p.cur.Related, name)
		p.doc.related = append(p.doc.related, [2]string{name, p.cur.Name})
	}
	return nil
}

func (p *parser) handleAttrUsage(table string, fields []string) error {
	if p.cur == nil {
		return p.errf("no-frame", "attribute keyword %q outside of a frame block", fields[0])
	}
	if len(fields) < 2 {
		return p.errf("bad-attribute-usage", "%s requires a value", fields[0])
	}
	v, err := parseIntOrHex(fields[1])
	if err != nil {
		return p.errf("bad-attribute-usage", "%v", err)
	}
	idx := p.doc.celIndex[p.cur.Name]
	p.doc.Tables[table].Values[idx] = v
	p.cur.UserAttrs[fields[0]] = v
	return nil
}

func (p *parser) handleFlagUsage(fields []string) error {
	if p.cur == nil {
		return p.errf("no-frame", "flag keyword %q outside of a frame block", fields[0])
	}
	idx := p.doc.celIndex[p.cur.Name]
	for _, flagname := range fields {
		def, ok := p.doc.flagKeywords[flagname]
		if !ok {
			return p.errf("bad-flag-usage", "%q is not a declared flag", flagname)
		}
		p.doc.Tables[def.table].Values[idx] |= def.value
		p.cur.UserAttrs[flagname] = def.value
	}
	return nil
}

func (p *parser) handleActionPointUsage(kw string, fields []string) error {
	if p.cur == nil {
		return p.errf("no-frame", "actionpoint keyword %q outside of a frame block", kw)
	}
	if len(fields) < 3 {
		return p.errf("bad-actionpoint-usage", "%s requires 2 integers", kw)
	}
	loc, err := parseLoc(fields[1:3])
	if err != nil {
		return p.errf("bad-actionpoint-usage", "%v", err)
	}
	idx := p.doc.celIndex[p.cur.Name]
	p.doc.actionPointValues[kw][idx] = &loc
	p.cur.ActionPts[kw] = loc
	return nil
}

// parseIntList parses a comma-separated list of integers, e.g. "0,1".
func parseIntList(tok string) ([]int, error) {
	var out []int
	start := 0
	for i := 0; i <= len(tok); i++ {
		if i == len(tok) || tok[i] == ',' {
			if i == start {
				return nil, fmt.Errorf("empty integer in list %q", tok)
			}
			v, err := parseInt(tok[start:i])
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			start = i + 1
		}
	}
	return out, nil
}

// clipStrip clips src against clip (when clipActive) and returns a Strip
// with its destination resolved, mirroring the source rect's distinction
// between what was physically clipped off (rounded to the tile grid) and
// the logical, tile-aligned destination box. See §4.3.
func clipStrip(src, clip Rect, clipActive bool, explicitDest *Loc) (Strip, error) {
	if src.Width <= 0 {
		return Strip{}, fmt.Errorf("strip width must be positive, got %d", src.Width)
	}
	if src.Height <= 0 {
		return Strip{}, fmt.Errorf("strip height must be positive, got %d", src.Height)
	}

	sl, st, sw, sh := src.Left, src.Top, src.Width, src.Height
	padW, padH := 0, 0

	if clipActive {
		cl, ct, cw, ch := clip.Left, clip.Top, clip.Width, clip.Height
		if sl < cl {
			if sl+sw <= cl {
				return Strip{}, fmt.Errorf("strip %v entirely left of clip rect %v", src, clip)
			}
			padW = cl - sl
			sw -= padW
			sl = cl
		}
		if st < ct {
			if st+sh <= ct {
				return Strip{}, fmt.Errorf("strip %v entirely above clip rect %v", src, clip)
			}
			padH = ct - st
			sh -= padH
			st = ct
		}
		if cl+cw <= sl {
			return Strip{}, fmt.Errorf("strip %v entirely right of clip rect %v", src, clip)
		}
		sw = min(sw, cl+cw-sl)
		if ct+ch <= st {
			return Strip{}, fmt.Errorf("strip %v entirely below clip rect %v", src, clip)
		}
		sh = min(sh, ct+ch-st)
	}
	padW %= TileWidth
	padH %= TileHeight

	dx, dy := sl-padW, st-padH
	if explicitDest != nil {
		dx, dy = explicitDest.X, explicitDest.Y
		padW, padH = 0, 0
	}

	return Strip{
		Src:      Rect{Left: sl, Top: st, Width: sw, Height: sh},
		Dest:     Loc{X: dx, Y: dy},
		PadLeft:  padW,
		PadTop:   padH,
	}, nil
}
