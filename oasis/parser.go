package oasis

import (
	stderrors "errors"
	"hash/crc32"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/oasis/errors"
	"github.com/wippyai/oasis/oasis/internal/binary"
	"github.com/wippyai/oasis/oasis/internal/graph"
)

// TableInfo is one entry of the table-offsets field, indexed by NameKind.
type TableInfo struct {
	Strict bool
	Offset uint64
}

// FileInfo describes the START and END records of a parsed file.
type FileInfo struct {
	Version     string
	Unit        Real
	Validation  Validation
	Tables      [numNameKinds]TableInfo
	TablesInEnd bool
	Size        int64
}

type refForm uint8

const (
	formUnknown refForm = iota
	formImplicit
	formExplicit
)

type pendingCell struct {
	name   nameRef
	pos    Position
	offset int64
}

type rawProperty struct {
	name     nameRef
	values   []rawPropValue
	standard bool
	offset   int64
	id       recordID
}

type pendingProp struct {
	owner Name
	prop  rawProperty
}

// Parser decodes one OASIS file held in memory. NewParser reads the START
// and END records and collects every name and cell position; ParseFile,
// ParseCell and ExtractCells then drive a Builder. Not safe for
// concurrent use.
type Parser struct {
	opts ParserOptions
	log  *zap.Logger
	chk  *checker
	data []byte
	rr   *recordReader

	arena      *Arena
	tables     nameTables
	layerNames []*LayerName
	info       FileInfo

	bodyStart Position
	endRead   bool
	endAt     int64
	sigAt     int64

	cells     map[string]Position
	cellNames []Name
	implicit  [numNameKinds]uint64
	forms     [numNameKinds]refForm

	mv   ModalVars
	cell Name
}

// OpenFile reads path and creates a Parser for it.
func OpenFile(path string, opts ParserOptions) (*Parser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Resource(errors.PhaseIO, err, "read "+path)
	}
	return NewParser(data, opts)
}

// NewParser verifies the magic, reads START and END and runs the names
// pass over data. data must not be modified while the Parser is in use.
func NewParser(data []byte, opts ParserOptions) (*Parser, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return nil, errors.New(errors.PhaseScan, errors.KindStructural).
			Offset(0).
			Detail("not an OASIS file: bad magic").
			Build()
	}
	log := resolveLogger(opts.Logger)
	chk := &checker{strict: opts.StrictConformance, log: log}
	p := &Parser{
		opts:   opts,
		log:    log,
		chk:    chk,
		data:   data,
		rr:     newRecordReader(data, chk),
		arena:  NewArena(),
		tables: newNameTables(),
		cells:  make(map[string]Position),
		endAt:  -1,
		sigAt:  -1,
	}
	p.info.Size = int64(len(data))

	if err := p.readStart(); err != nil {
		return nil, err
	}
	if p.info.TablesInEnd || opts.WantValidation {
		if err := p.readEnd(); err != nil {
			return nil, err
		}
	}
	for k, t := range p.info.Tables {
		if !t.Strict {
			p.tables[k].MarkNonStrict()
		}
		p.tables[k].SetOffset(int64(t.Offset))
	}
	if err := p.scan(); err != nil {
		return nil, err
	}
	p.log.Debug("names pass complete",
		zap.Int("cells", len(p.cellNames)),
		zap.Int("cellnames", p.tables[KindCellName].Len()),
		zap.Int("propnames", p.tables[KindPropName].Len()),
		zap.Int("propstrings", p.tables[KindPropString].Len()))
	return p, nil
}

// Arena returns the arena holding every name of the file.
func (p *Parser) Arena() *Arena {
	return p.arena
}

// FileInfo returns the contents of START and END.
func (p *Parser) FileInfo() FileInfo {
	return p.info
}

// CellNames returns the names of all defined cells in file order.
func (p *Parser) CellNames() []Name {
	result := make([]Name, len(p.cellNames))
	copy(result, p.cellNames)
	return result
}

// Table returns the name table of one category.
func (p *Parser) Table(kind NameKind) *NameTable {
	return p.tables[kind]
}

// Validate recomputes the END signature. Files without validation, and
// parsers with WantValidation disabled, always pass.
func (p *Parser) Validate() error {
	v := p.info.Validation
	if v.Scheme == ValidationNone || p.sigAt < 0 {
		return nil
	}
	covered := p.data[:p.sigAt]
	var got uint32
	if v.Scheme == ValidationCRC32 {
		got = crc32.ChecksumIEEE(covered)
	} else {
		got = checksum32(covered)
	}
	if got != v.Signature {
		return errors.New(errors.PhaseValidate, errors.KindStructural).
			Record("END").
			Offset(p.sigAt).
			Value(got).
			Detail("%s signature mismatch: file has %08x, computed %08x", v.Scheme, v.Signature, got).
			Build()
	}
	return nil
}

func checksum32(data []byte) uint32 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum
}

func (p *Parser) readStart() error {
	if err := p.rr.seek(Position{File: int64(len(Magic)), Block: -1}); err != nil {
		return err
	}
	rec, err := p.rr.next()
	if err != nil {
		return err
	}
	if rec.id != recStart {
		return errors.Structural(errors.PhaseDecode, rec.offset, "expected START record, found %s", rec.id)
	}
	unit := realFromWire(rec.unit)
	if u := unit.Float64(); !(u > 0) || math.IsInf(u, 0) {
		return errors.New(errors.PhaseDecode, errors.KindStructural).
			Record("START").
			Offset(rec.offset).
			Value(u).
			Detail("invalid unit %v", unit).
			Build()
	}
	if rec.offsetFlag > 1 {
		if err := p.chk.violation(errors.PhaseDecode, rec.offset, rec.id, "offset-flag %d", rec.offsetFlag); err != nil {
			return err
		}
	}
	p.info.Version = string(rec.version)
	p.info.Unit = unit
	p.info.TablesInEnd = rec.offsetFlag != 0
	if !p.info.TablesInEnd {
		p.setTables(rec)
	}
	p.bodyStart = p.rr.position()
	return nil
}

func (p *Parser) setTables(rec *record) {
	for i, t := range rec.tables {
		p.info.Tables[i] = TableInfo{Strict: t.strict != 0, Offset: t.offset}
	}
}

// readEnd reads END from its place 256 bytes before the end of the file.
// An END found elsewhere is a conformance violation; relaxed parsing reads
// it where it is.
func (p *Parser) readEnd() error {
	at := int64(len(p.data) - endRecordSize)
	if !p.endRecordAt(at) {
		found, err := p.locateEnd()
		if err != nil {
			return err
		}
		if err := p.chk.violation(errors.PhaseScan, found, recEnd, "END record is not %d bytes before end of file", endRecordSize); err != nil {
			return err
		}
		at = found
	}

	r := binary.NewReader(p.data, 0)
	if err := r.Seek(int(at)); err != nil {
		return err
	}
	if _, err := r.ReadUint(); err != nil {
		return err
	}
	rec := &record{id: recEnd, offset: at, pos: Position{File: at, Block: -1}}
	if p.info.TablesInEnd {
		if err := p.rr.readTables(r, rec); err != nil {
			return annotate(err, recEnd)
		}
		p.setTables(rec)
	}
	p.endRead = true
	p.endAt = at
	if !p.opts.WantValidation {
		return nil
	}

	if _, err := r.ReadString(); err != nil {
		return annotate(err, recEnd)
	}
	scheme, err := r.ReadUint()
	if err != nil {
		return annotate(err, recEnd)
	}
	if scheme > uint64(ValidationChecksum32) {
		return annotate(errors.InvalidEnum(errors.PhaseScan, r.Offset(), scheme, "validation scheme"), recEnd)
	}
	p.info.Validation.Scheme = ValidationScheme(scheme)
	if scheme != 0 {
		p.sigAt = r.Offset()
		if p.info.Validation.Signature, err = r.ReadUint32LE(); err != nil {
			return annotate(err, recEnd)
		}
	}
	if !r.AtEOF() {
		if err := p.chk.violation(errors.PhaseScan, at, recEnd, "%d bytes after END record", r.Remaining()); err != nil {
			return err
		}
	}
	return nil
}

// endRecordAt reports whether an END record starts at file offset at.
func (p *Parser) endRecordAt(at int64) bool {
	if at < p.bodyStart.File {
		return false
	}
	r := binary.NewReader(p.data, 0)
	if err := r.Seek(int(at)); err != nil {
		return false
	}
	id, err := r.ReadUint()
	return err == nil && recordID(id) == recEnd
}

// locateEnd walks the records after START and returns the offset of the
// first END.
func (p *Parser) locateEnd() (int64, error) {
	if err := p.rr.seek(p.bodyStart); err != nil {
		return 0, err
	}
	for {
		rec, err := p.rr.next()
		if err != nil {
			return 0, err
		}
		if rec.id == recEnd {
			return rec.offset, nil
		}
	}
}

func (p *Parser) wants(kind NameKind) bool {
	switch kind {
	case KindTextString:
		return p.opts.WantText
	case KindLayerName:
		return p.opts.WantLayerName
	case KindXName:
		return p.opts.WantExtensions
	}
	return true
}

// scan is the names pass: it reads every record, fills the name tables,
// attaches properties to name records and records where each cell starts.
func (p *Parser) scan() error {
	if err := p.rr.seek(p.bodyStart); err != nil {
		return err
	}
	var (
		inCell    bool
		owner     Name
		pending   []pendingCell
		nameProps []pendingProp

		lastName  *nameRef
		lastVals  []rawPropValue
		haveVals  bool
		lastStd   bool
		lastValid bool
	)
	for {
		rec, err := p.rr.next()
		if err != nil {
			return err
		}
		id := rec.id
		if kind, ok := id.nameRecord(); ok {
			inCell = false
			if owner, err = p.defineName(kind, rec); err != nil {
				return err
			}
			continue
		}
		switch id {
		case recEnd:
			return p.finishScan(rec, pending, nameProps)

		case recStart:
			return errors.Structural(errors.PhaseDecode, rec.offset, "second START record")

		case recCellRef, recCellNamed:
			inCell = true
			owner = Name{}
			lastName, haveVals, lastValid = nil, false, false
			pending = append(pending, pendingCell{name: rec.name, pos: rec.pos, offset: rec.offset})

		case recProperty, recPropertyRepeat:
			rp := rawProperty{offset: rec.offset, id: id}
			if id == recPropertyRepeat {
				if !lastValid {
					return p.undefined(rec, "last-property")
				}
				rp.name, rp.values, rp.standard = *lastName, lastVals, lastStd
			} else {
				if rec.has(bitPropName) {
					n := rec.name
					lastName = &n
				} else if lastName == nil {
					return p.undefined(rec, "last-property-name")
				}
				if !rec.has(bitPropReuse) {
					lastVals, haveVals = rec.values, true
				} else if !haveVals {
					return p.undefined(rec, "last-value-list")
				}
				lastStd = rec.has(bitPropStandard)
				lastValid = true
				rp.name, rp.values, rp.standard = *lastName, lastVals, lastStd
			}
			if !owner.IsZero() {
				nameProps = append(nameProps, pendingProp{owner: owner, prop: rp})
			}

		case recXYAbsolute, recXYRelative:
			if !inCell {
				if err := p.chk.violation(errors.PhaseDecode, rec.offset, id, "%s outside a cell", id); err != nil {
					return err
				}
			}

		default:
			if !inCell {
				return errors.New(errors.PhaseDecode, errors.KindStructural).
					Record(id.String()).
					Offset(rec.offset).
					Detail("element outside a cell").
					Build()
			}
			owner = Name{}
		}
	}
}

func (p *Parser) defineName(kind NameKind, rec *record) (Name, error) {
	want := p.wants(kind)
	n := p.arena.Intern(kind, string(rec.str))

	if kind == KindLayerName {
		if !want {
			return Name{}, nil
		}
		p.tables[kind].Register(n)
		p.layerNames = append(p.layerNames, &LayerName{
			Name:   n,
			Layers: rec.layers,
			Types:  rec.types,
			Text:   rec.id == recLayerNameText,
		})
		return n, nil
	}

	form := formImplicit
	if rec.hasRef {
		form = formExplicit
	}
	if p.forms[kind] == formUnknown {
		p.forms[kind] = form
	} else if p.forms[kind] != form && want {
		if err := p.chk.violation(errors.PhaseDecode, rec.offset, rec.id, "%s records mix implicit and explicit reference numbers", kind); err != nil {
			return Name{}, err
		}
	}
	ref := rec.refnum
	if !rec.hasRef {
		ref = p.implicit[kind]
		p.implicit[kind]++
	}
	if kind == KindXName {
		p.arena.SetAttribute(n, rec.attr)
	}

	err := p.tables[kind].Define(ref, n)
	switch {
	case err == nil || !want:
	case stderrors.Is(err, ErrRefnumConflict):
		return Name{}, errors.New(errors.PhaseDecode, errors.KindReference).
			Record(rec.id.String()).
			Offset(rec.offset).
			Cause(err).
			Detail("conflicting %s definition", kind).
			Build()
	default:
		if err := p.chk.violation(errors.PhaseDecode, rec.offset, rec.id, "%v", err); err != nil {
			return Name{}, err
		}
	}
	if !want {
		return Name{}, nil
	}
	return n, nil
}

func (p *Parser) finishScan(end *record, pending []pendingCell, nameProps []pendingProp) error {
	if p.endRead && end.offset != p.endAt {
		if err := p.chk.violation(errors.PhaseDecode, end.offset, recEnd, "%d bytes after END record", p.endAt-end.offset); err != nil {
			return err
		}
	}

	for _, pc := range pending {
		n, err := p.resolveName(KindCellName, pc.name, recCellRef, pc.offset)
		if err != nil {
			return err
		}
		if _, dup := p.cells[n.String()]; dup {
			return errors.New(errors.PhaseDecode, errors.KindStructural).
				Record("CELL").
				Offset(pc.offset).
				Value(n.String()).
				Detail("cell %q defined twice", n.String()).
				Build()
		}
		p.cells[n.String()] = pc.pos
		p.cellNames = append(p.cellNames, n)
	}

	for _, pp := range nameProps {
		prop, err := p.resolveRaw(&pp.prop)
		if err != nil {
			return err
		}
		// The writer of this file computed S_CELL_OFFSET for its own layout.
		if pp.owner.Kind() == KindCellName && prop.Name.String() == PropCellOffset {
			continue
		}
		p.arena.AddProperty(pp.owner, prop)
	}
	return nil
}

func (p *Parser) undefined(rec *record, variable string) error {
	return errors.New(errors.PhaseDecode, errors.KindStructural).
		Record(rec.id.String()).
		Offset(rec.offset).
		Detail("modal variable %s is undefined", variable).
		Build()
}

// resolveName maps a name field to a Name through the table of kind.
func (p *Parser) resolveName(kind NameKind, ref nameRef, id recordID, off int64) (Name, error) {
	t := p.tables[kind]
	if ref.byRef {
		n, ok := t.Lookup(ref.ref)
		if !ok {
			return Name{}, errors.New(errors.PhaseDecode, errors.KindReference).
				Record(id.String()).
				Offset(off).
				Value(ref.ref).
				Detail("undefined %s reference number %d", kind, ref.ref).
				Build()
		}
		return n, nil
	}
	if t.IsStrict() && p.wants(kind) {
		if err := p.chk.violation(errors.PhaseDecode, off, id, "literal %s %q while the table is strict", kind, ref.lit); err != nil {
			return Name{}, err
		}
	}
	return p.arena.Intern(kind, string(ref.lit)), nil
}

func (p *Parser) resolveValues(raw []rawPropValue, id recordID, off int64) (PropValues, error) {
	vals := make(PropValues, len(raw))
	for i, v := range raw {
		switch {
		case v.typ <= 7:
			vals[i] = PropValue{Kind: PropReal, Real: realFromWire(v.real)}
		case v.typ == 8:
			vals[i] = PropValue{Kind: PropUnsigned, Uint: v.u}
		case v.typ == 9:
			vals[i] = PropValue{Kind: PropSigned, Int: v.i}
		default:
			ref := nameRef{lit: v.s}
			kind := PropAString + PropValueKind(v.typ-10)
			if v.typ >= 13 {
				ref = nameRef{byRef: true, ref: v.u}
				kind = PropAString + PropValueKind(v.typ-13)
			}
			n, err := p.resolveName(KindPropString, ref, id, off)
			if err != nil {
				return nil, err
			}
			vals[i] = PropValue{Kind: kind, Str: n}
		}
	}
	return vals, nil
}

func (p *Parser) resolveRaw(rp *rawProperty) (*Property, error) {
	n, err := p.resolveName(KindPropName, rp.name, rp.id, rp.offset)
	if err != nil {
		return nil, err
	}
	vals, err := p.resolveValues(rp.values, rp.id, rp.offset)
	if err != nil {
		return nil, err
	}
	return &Property{Name: n, Values: vals, Standard: rp.standard}, nil
}

// ParseFile delivers the whole file to b.
func (p *Parser) ParseFile(b Builder) error {
	if err := b.BeginFile(p.info.Version, p.info.Unit, p.info.Validation.Scheme); err != nil {
		return err
	}
	if err := p.registerNames(b, p.tables[KindCellName].Names()); err != nil {
		return err
	}
	if err := p.fileProperties(b); err != nil {
		return err
	}
	for _, n := range p.cellNames {
		if err := p.parseCellAt(p.cells[n.String()], b); err != nil {
			return err
		}
	}
	p.log.Debug("parsed file", zap.Int("cells", len(p.cellNames)))
	return b.EndFile()
}

// ParseCell delivers the body of one cell, from BeginCell to EndCell. It
// reports false if the file defines no such cell.
func (p *Parser) ParseCell(name string, b Builder) (bool, error) {
	pos, ok := p.cells[name]
	if !ok {
		return false, nil
	}
	return true, p.parseCellAt(pos, b)
}

// ExtractCells delivers a file holding the named cells and every cell they
// place directly or indirectly, each exactly once. Placements of cells the
// file does not define are kept, but there is no cell to copy.
func (p *Parser) ExtractCells(names []string, b Builder) error {
	g := graph.New[string, Position]()
	gb := &graphBuilder{g: g}
	for _, n := range p.cellNames {
		pos := p.cells[n.String()]
		g.FindOrCreate(n.String()).Value = pos
		if err := p.parseCellAt(pos, gb); err != nil {
			return err
		}
	}
	for _, name := range names {
		if _, ok := p.cells[name]; !ok {
			return errors.New(errors.PhaseExtract, errors.KindReference).
				Record("CELL").
				Value(name).
				Detail("file has no cell %q", name).
				Build()
		}
	}

	var order []string
	visited := make(map[string]bool)
	for _, name := range names {
		err := g.Visit(name, visited, func(n *graph.Node[string, Position]) error {
			order = append(order, n.Key)
			return nil
		})
		if err != nil {
			return err
		}
	}
	p.log.Debug("extracting cells", zap.Strings("roots", names), zap.Int("reachable", len(order)))

	var cellNames []Name
	for _, key := range order {
		if n, ok := p.tables[KindCellName].Find(key); ok {
			cellNames = append(cellNames, n)
		}
	}

	if err := b.BeginFile(p.info.Version, p.info.Unit, p.info.Validation.Scheme); err != nil {
		return err
	}
	if err := p.registerNames(b, cellNames); err != nil {
		return err
	}
	if err := p.fileProperties(b); err != nil {
		return err
	}
	for _, key := range order {
		pos, ok := p.cells[key]
		if !ok {
			p.log.Debug("placed cell is not defined", zap.String("cell", key))
			continue
		}
		if err := p.parseCellAt(pos, b); err != nil {
			return err
		}
	}
	return b.EndFile()
}

// graphBuilder records placements as edges of the cell graph.
type graphBuilder struct {
	NopBuilder
	g    *graph.Graph[string, Position]
	cell string
}

func (gb *graphBuilder) BeginCell(n Name) error {
	gb.cell = n.String()
	return nil
}

func (gb *graphBuilder) BeginPlacement(pl *Placement) error {
	gb.g.AddChild(gb.cell, pl.Cell.String())
	return nil
}

func (p *Parser) registerNames(b Builder, cells []Name) error {
	for _, n := range cells {
		if err := b.RegisterCellName(n); err != nil {
			return err
		}
	}
	if p.opts.WantText {
		for _, n := range p.tables[KindTextString].Names() {
			if err := b.RegisterTextString(n); err != nil {
				return err
			}
		}
	}
	for _, n := range p.tables[KindPropName].Names() {
		if err := b.RegisterPropName(n); err != nil {
			return err
		}
	}
	for _, n := range p.tables[KindPropString].Names() {
		if err := b.RegisterPropString(n); err != nil {
			return err
		}
	}
	if p.opts.WantLayerName {
		for _, ln := range p.layerNames {
			if err := b.RegisterLayerName(ln); err != nil {
				return err
			}
		}
	}
	if p.opts.WantExtensions {
		for _, n := range p.tables[KindXName].Names() {
			if err := b.RegisterXName(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// fileProperties delivers the properties between START and the first
// CELL that no name record owns.
func (p *Parser) fileProperties(b Builder) error {
	if err := p.rr.seek(p.bodyStart); err != nil {
		return err
	}
	p.mv = ModalVars{}
	fileLevel := true
	for {
		rec, err := p.rr.next()
		if err != nil {
			return err
		}
		switch {
		case rec.id == recEnd || rec.id == recCellRef || rec.id == recCellNamed:
			return nil
		case rec.id == recProperty || rec.id == recPropertyRepeat:
			prop, err := p.decodeProperty(rec)
			if err != nil {
				return err
			}
			if fileLevel {
				if err := b.AddFileProperty(prop); err != nil {
					return err
				}
			}
		default:
			if _, ok := rec.id.nameRecord(); ok {
				fileLevel = false
			}
		}
	}
}

// propTarget says where properties read after the current record go.
type propTarget uint8

const (
	toCell propTarget = iota
	toElement
	toNowhere
)

// parseCellAt delivers the cell whose CELL record is at pos.
func (p *Parser) parseCellAt(pos Position, b Builder) error {
	if err := p.rr.seek(pos); err != nil {
		return err
	}
	rec, err := p.rr.next()
	if err != nil {
		return err
	}
	if rec.id != recCellRef && rec.id != recCellNamed {
		return errors.Structural(errors.PhaseDecode, rec.offset, "cell at %v does not begin with a CELL record", pos)
	}
	name, err := p.resolveName(KindCellName, rec.name, rec.id, rec.offset)
	if err != nil {
		return err
	}
	p.cell = name
	p.mv.Reset()
	if err := b.BeginCell(name); err != nil {
		return err
	}

	target := toCell
	for {
		rec, err := p.rr.next()
		if err != nil {
			return err
		}
		id := rec.id
		if _, ok := id.nameRecord(); ok || id == recEnd || id == recCellRef || id == recCellNamed {
			break
		}

		switch id {
		case recProperty, recPropertyRepeat:
			prop, err := p.decodeProperty(rec)
			if err != nil {
				return err
			}
			switch target {
			case toCell:
				err = b.AddCellProperty(prop)
			case toElement:
				err = b.AddElementProperty(prop)
			}
			if err != nil {
				return err
			}
			continue

		case recXYAbsolute:
			p.mv.XYMode = XYAbsolute
		case recXYRelative:
			p.mv.XYMode = XYRelative
		}

		if target == toElement {
			if err := b.EndElement(); err != nil {
				return err
			}
		}
		if id == recXYAbsolute || id == recXYRelative {
			// Mode changes neither own properties nor end the cell header.
			if target == toElement {
				target = toNowhere
			}
			continue
		}
		emitted, err := p.decodeElement(rec, b)
		if err != nil {
			return err
		}
		target = toNowhere
		if emitted {
			target = toElement
		}
	}

	if target == toElement {
		if err := b.EndElement(); err != nil {
			return err
		}
	}
	return b.EndCell()
}

func (p *Parser) decodeProperty(rec *record) (*Property, error) {
	mv := &p.mv
	if rec.id == recPropertyRepeat {
		n, ok := mv.PropName.Get()
		vals, okv := mv.PropValues.Get()
		std, _ := mv.PropStandard.Get()
		if !ok || !okv {
			return nil, p.undefined(rec, "last-property")
		}
		return &Property{Name: n, Values: vals, Standard: std}, nil
	}

	var name Name
	if rec.has(bitPropName) {
		n, err := p.resolveName(KindPropName, rec.name, rec.id, rec.offset)
		if err != nil {
			return nil, err
		}
		name = n
		mv.PropName.Set(n)
	} else {
		n, ok := mv.PropName.Get()
		if !ok {
			return nil, p.undefined(rec, "last-property-name")
		}
		name = n
	}

	var vals PropValues
	if rec.has(bitPropReuse) {
		v, ok := mv.PropValues.Get()
		if !ok {
			return nil, p.undefined(rec, "last-value-list")
		}
		vals = v
	} else {
		v, err := p.resolveValues(rec.values, rec.id, rec.offset)
		if err != nil {
			return nil, err
		}
		vals = v
		mv.PropValues.Set(v)
	}
	std := rec.has(bitPropStandard)
	mv.PropStandard.Set(std)
	return &Property{Name: name, Values: vals, Standard: std}, nil
}
