package oasis

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"

	"github.com/wippyai/oasis/errors"
	"github.com/wippyai/oasis/oasis/internal/binary"
)

// maxBlockSize is the uncompressed size at which an open CBLOCK is
// flushed and a new one started.
const maxBlockSize = 1 << 20

type creatorState uint8

const (
	stateIdle creatorState = iota
	stateFile
	stateCell
	stateDone
)

// queuedName is a name record waiting to be written in immediate mode.
type queuedName struct {
	kind  NameKind
	name  Name
	layer *LayerName
}

// Creator writes an OASIS file from Builder events. Fields are written only
// where they differ from the modal state, names become reference numbers
// once registered, and cell bodies and name tables are compressed when
// Compress is set. Not safe for concurrent use.
type Creator struct {
	opts CreatorOptions
	log  *zap.Logger

	out  sink
	bw   *bufio.Writer
	file *os.File

	rec   *binary.Writer
	block *binary.Writer
	bbuf  *binary.Writer
	comp  bytes.Buffer
	fw    *flate.Writer

	arena       *Arena
	tables      nameTables
	layerNames  []*LayerName
	queued      []queuedName
	cellOffsets map[string]int64
	selected    map[string]struct{}

	mv     ModalVars
	scheme ValidationScheme
	state  creatorState
	cells  int
}

var _ Builder = (*Creator)(nil)

// NewCreator returns a Creator writing to w.
func NewCreator(w io.Writer, opts CreatorOptions) *Creator {
	c := &Creator{
		opts:        opts,
		log:         resolveLogger(opts.Logger),
		out:         sink{w: w},
		rec:         binary.NewWriter(),
		bbuf:        binary.NewWriter(),
		arena:       NewArena(),
		tables:      newNameTables(),
		cellOffsets: make(map[string]int64),
	}
	if len(opts.CellNames) > 0 {
		c.selected = make(map[string]struct{}, len(opts.CellNames))
		for _, s := range opts.CellNames {
			c.selected[s] = struct{}{}
		}
	}
	return c
}

// CreateFile creates path and returns a Creator writing to it. Close
// flushes and closes the file.
func CreateFile(path string, opts CreatorOptions) (*Creator, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Resource(errors.PhaseIO, err, "create "+path)
	}
	bw := bufio.NewWriterSize(f, 1<<16)
	c := NewCreator(bw, opts)
	c.bw, c.file = bw, f
	return c, nil
}

// Close flushes and closes a file opened by CreateFile. It returns the first
// write error of the session, if any.
func (c *Creator) Close() error {
	err := c.out.err
	if c.bw != nil {
		if ferr := c.bw.Flush(); ferr != nil && err == nil {
			err = errors.Resource(errors.PhaseIO, ferr, "flush output")
		}
	}
	if c.file != nil {
		if cerr := c.file.Close(); cerr != nil && err == nil {
			err = errors.Resource(errors.PhaseIO, cerr, "close output")
		}
		c.file = nil
	}
	if err == nil && c.state != stateDone && c.state != stateIdle {
		err = c.contract("closed before EndFile")
	}
	return err
}

// Table returns the name table of one category.
func (c *Creator) Table(kind NameKind) *NameTable {
	return c.tables[kind]
}

func (c *Creator) contract(format string, args ...any) error {
	return errors.Structural(errors.PhaseEncode, c.out.off, format, args...)
}

func (c *Creator) begin(id recordID) *binary.Writer {
	c.rec.Reset()
	c.rec.WriteUint(uint64(id))
	return c.rec
}

// commit moves the current record to the open CBLOCK or the output.
func (c *Creator) commit() error {
	if c.block != nil {
		c.block.WriteBytes(c.rec.Bytes())
		c.rec.Reset()
		if c.block.Len() >= maxBlockSize {
			return c.flushBlock()
		}
		return nil
	}
	err := c.out.write(c.rec.Bytes())
	c.rec.Reset()
	return err
}

func (c *Creator) beginBlock() {
	if c.opts.Compress {
		c.bbuf.Reset()
		c.block = c.bbuf
	}
}

func (c *Creator) endBlock() error {
	if c.block == nil {
		return nil
	}
	err := c.flushBlock()
	c.block = nil
	return err
}

// flushBlock writes the open CBLOCK, leaving it open and empty.
func (c *Creator) flushBlock() error {
	data := c.block.Bytes()
	if len(data) == 0 {
		return nil
	}
	c.comp.Reset()
	if c.fw == nil {
		fw, err := flate.NewWriter(&c.comp, flate.DefaultCompression)
		if err != nil {
			return errors.Wrap(errors.PhaseEncode, errors.KindResource, err, "create deflate writer")
		}
		c.fw = fw
	} else {
		c.fw.Reset(&c.comp)
	}
	if _, err := c.fw.Write(data); err != nil {
		return errors.Wrap(errors.PhaseEncode, errors.KindResource, err, "deflate CBLOCK")
	}
	if err := c.fw.Close(); err != nil {
		return errors.Wrap(errors.PhaseEncode, errors.KindResource, err, "deflate CBLOCK")
	}

	h := binary.NewWriter()
	h.WriteUint(uint64(recCBlock))
	h.WriteUint(0)
	h.WriteUint(uint64(len(data)))
	h.WriteUint(uint64(c.comp.Len()))
	if err := c.out.write(h.Bytes()); err != nil {
		return err
	}
	if err := c.out.write(c.comp.Bytes()); err != nil {
		return err
	}
	c.block.Reset()
	return nil
}

// BeginFile writes the magic and START.
func (c *Creator) BeginFile(version string, unit Real, scheme ValidationScheme) error {
	if c.state != stateIdle {
		return c.contract("BeginFile called twice")
	}
	if scheme > ValidationChecksum32 {
		return errors.InvalidEnum(errors.PhaseEncode, c.out.off, uint8(scheme), "validation scheme")
	}
	c.scheme = scheme
	c.state = stateFile
	if err := c.out.write([]byte(Magic)); err != nil {
		return err
	}

	w := c.begin(recStart)
	w.WriteString(version)
	w.WriteReal(unit.wire())
	if c.opts.ImmediateNames {
		for _, t := range c.tables {
			t.MarkNonStrict()
		}
	}
	if c.opts.StrictTables {
		w.WriteUint(1)
	} else {
		w.WriteUint(0)
		for _, t := range c.tables {
			t.MarkNonStrict()
			w.WriteUint(0)
			w.WriteUint(0)
		}
	}
	return c.commit()
}

// EndFile writes any deferred name tables and the END record.
func (c *Creator) EndFile() error {
	if c.state != stateFile {
		return c.contract("EndFile outside the file")
	}
	if err := c.flushQueued(); err != nil {
		return err
	}
	if !c.opts.ImmediateNames {
		if err := c.writeNameTables(); err != nil {
			return err
		}
	}
	if err := c.writeEnd(); err != nil {
		return err
	}
	c.state = stateDone
	c.log.Debug("wrote file", zap.Int("cells", c.cells), zap.Int64("bytes", c.out.off))
	return nil
}

func (c *Creator) writeEnd() error {
	w := c.begin(recEnd)
	if c.opts.StrictTables {
		for _, t := range c.tables {
			strict := uint64(0)
			if t.IsStrict() {
				strict = 1
			}
			w.WriteUint(strict)
			w.WriteUint(uint64(t.Offset()))
		}
	}
	fixed := w.Len() + 1
	if c.scheme != ValidationNone {
		fixed += 4
	}
	avail := endRecordSize - fixed
	pad, width := avail-1, 1
	if pad > 127 {
		pad, width = avail-2, 2
	}
	w.WriteUintWidth(uint64(pad), width)
	w.WriteBytes(make([]byte, pad))
	w.WriteUint(uint64(c.scheme))
	if err := c.commit(); err != nil {
		return err
	}
	if c.scheme == ValidationNone {
		return nil
	}
	sig := binary.NewWriter()
	sig.WriteUint32LE(c.out.signature(c.scheme))
	return c.out.write(sig.Bytes())
}

// BeginCell writes a CELL record and opens the cell body.
func (c *Creator) BeginCell(n Name) error {
	if c.state != stateFile {
		return c.contract("BeginCell inside a cell or outside the file")
	}
	if err := c.flushQueued(); err != nil {
		return err
	}
	c.cellOffsets[n.String()] = c.out.off

	if ref, ok := c.cellRef(n); ok {
		c.begin(recCellRef).WriteUint(ref)
	} else {
		c.begin(recCellNamed).WriteString(n.String())
	}
	if err := c.commit(); err != nil {
		return err
	}

	c.state = stateCell
	c.cells++
	c.mv.Reset()
	c.beginBlock()
	if c.opts.RelativeXY {
		c.begin(recXYRelative)
		c.mv.XYMode = XYRelative
		return c.commit()
	}
	return nil
}

// EndCell closes the cell body.
func (c *Creator) EndCell() error {
	if c.state != stateCell {
		return c.contract("EndCell outside a cell")
	}
	c.state = stateFile
	if err := c.endBlock(); err != nil {
		return err
	}
	return c.flushQueued()
}

// EndElement closes the current element. Properties added afterwards
// would otherwise attach to it.
func (c *Creator) EndElement() error {
	if c.state != stateCell {
		return c.contract("EndElement outside a cell")
	}
	return nil
}

func (c *Creator) inCell(what string) error {
	if c.state != stateCell {
		return c.contract("%s outside a cell", what)
	}
	return nil
}

func (c *Creator) AddFileProperty(p *Property) error {
	if c.state != stateFile {
		return c.contract("file property outside the file")
	}
	return c.writeProperty(p)
}

func (c *Creator) AddCellProperty(p *Property) error {
	if err := c.inCell("cell property"); err != nil {
		return err
	}
	return c.writeProperty(p)
}

func (c *Creator) AddElementProperty(p *Property) error {
	if err := c.inCell("element property"); err != nil {
		return err
	}
	return c.writeProperty(p)
}

// RegisterCellName registers n. In cell-selection mode only the selected
// cells are registered here; the cells they place are registered on first
// use.
func (c *Creator) RegisterCellName(n Name) error {
	if c.selected != nil {
		if _, ok := c.selected[n.String()]; !ok {
			return nil
		}
	}
	return c.register(KindCellName, n)
}

func (c *Creator) RegisterTextString(n Name) error {
	return c.register(KindTextString, n)
}

func (c *Creator) RegisterPropName(n Name) error {
	return c.register(KindPropName, n)
}

func (c *Creator) RegisterPropString(n Name) error {
	return c.register(KindPropString, n)
}

func (c *Creator) RegisterXName(n Name) error {
	return c.register(KindXName, n)
}

func (c *Creator) RegisterLayerName(l *LayerName) error {
	c.layerNames = append(c.layerNames, l)
	c.tables[KindLayerName].Register(l.Name)
	if c.opts.ImmediateNames {
		c.queued = append(c.queued, queuedName{kind: KindLayerName, name: l.Name, layer: l})
	}
	return nil
}

func (c *Creator) register(kind NameKind, n Name) error {
	t := c.tables[kind]
	if _, ok := t.LookupRefnum(n); ok {
		return nil
	}
	t.Register(n)
	if c.opts.ImmediateNames {
		c.queued = append(c.queued, queuedName{kind: kind, name: n})
	}
	return nil
}

// flushQueued writes immediate-mode name records. They wait until no cell
// is open, since a name record ends a cell.
func (c *Creator) flushQueued() error {
	for _, q := range c.queued {
		if err := c.writeNameRecord(q.kind, q.name, q.layer); err != nil {
			return err
		}
	}
	c.queued = c.queued[:0]
	return nil
}

func (c *Creator) writeNameRecord(kind NameKind, n Name, layer *LayerName) error {
	if kind == KindLayerName {
		id := recLayerName
		if layer.Text {
			id = recLayerNameText
		}
		w := c.begin(id)
		w.WriteString(layer.Name.String())
		writeInterval(w, layer.Layers)
		writeInterval(w, layer.Types)
	} else {
		w := c.begin(implicitRecord[kind])
		if kind == KindXName {
			w.WriteUint(n.Attribute())
		}
		w.WriteString(n.String())
	}
	if err := c.commit(); err != nil {
		return err
	}
	for _, p := range n.Properties() {
		if kind == KindCellName && p.Name.String() == PropCellOffset {
			continue
		}
		if err := c.writeProperty(p); err != nil {
			return err
		}
	}
	if kind == KindCellName && !c.opts.ImmediateNames {
		if off, ok := c.cellOffsets[n.String()]; ok {
			return c.writeProperty(&Property{
				Name:     c.arena.Intern(KindPropName, PropCellOffset),
				Values:   PropValues{{Kind: PropUnsigned, Uint: uint64(off)}},
				Standard: true,
			})
		}
	}
	return nil
}

var tableOrder = [...]NameKind{
	KindPropName, KindPropString, KindCellName, KindTextString, KindLayerName, KindXName,
}

func (c *Creator) writeNameTables() error {
	if len(c.cellOffsets) > 0 {
		c.tables[KindPropName].Register(c.arena.Intern(KindPropName, PropCellOffset))
	}
	for _, kind := range tableOrder {
		t := c.tables[kind]
		if t.Empty() {
			continue
		}
		t.SetOffset(c.out.off)
		c.beginBlock()
		if kind == KindLayerName {
			for _, l := range c.layerNames {
				if err := c.writeNameRecord(kind, l.Name, l); err != nil {
					return err
				}
			}
		} else {
			for _, n := range t.Names() {
				if err := c.writeNameRecord(kind, n, nil); err != nil {
					return err
				}
			}
		}
		if err := c.endBlock(); err != nil {
			return err
		}
	}
	return nil
}

func writeInterval(w *binary.Writer, iv Interval) {
	w.WriteUint(uint64(iv.Kind))
	switch iv.Kind {
	case IntervalUpTo:
		w.WriteUint(iv.Hi)
	case IntervalExact, IntervalFrom:
		w.WriteUint(iv.Lo)
	case IntervalRange:
		w.WriteUint(iv.Lo)
		w.WriteUint(iv.Hi)
	}
}

// cellRef returns the reference number of cell n. In cell-selection mode
// an unknown cell is registered with the caller's handle, so its
// properties are kept and the table stays strict. Otherwise the table is
// marked non-strict and the caller writes the literal.
func (c *Creator) cellRef(n Name) (uint64, bool) {
	if c.selected == nil {
		return c.nameField(KindCellName, n)
	}
	t := c.tables[KindCellName]
	if ref, ok := t.LookupRefnum(n); ok {
		return ref, true
	}
	if err := c.register(KindCellName, n); err != nil {
		return 0, false
	}
	return t.LookupRefnum(n)
}

// nameField returns the reference number of n if its table has one, else
// marks the table non-strict so the caller writes the literal.
func (c *Creator) nameField(kind NameKind, n Name) (uint64, bool) {
	t := c.tables[kind]
	if ref, ok := t.LookupRefnum(n); ok {
		return ref, true
	}
	t.MarkNonStrict()
	return 0, false
}

func (c *Creator) writeProperty(p *Property) error {
	mv := &c.mv
	n, okn := mv.PropName.Get()
	vals, okv := mv.PropValues.Get()
	std, oks := mv.PropStandard.Get()
	if okn && okv && oks && n.String() == p.Name.String() && vals.Equal(p.Values) && std == p.Standard {
		c.begin(recPropertyRepeat)
		return c.commit()
	}

	var info byte
	if p.Standard {
		info |= bitPropStandard
	}
	mv.PropStandard.Set(p.Standard)

	writeName := !okn || n.String() != p.Name.String()
	var ref uint64
	var byRef bool
	if writeName {
		info |= bitPropName
		mv.PropName.Set(p.Name)
		if ref, byRef = c.nameField(KindPropName, p.Name); byRef {
			info |= bitPropRef
		}
	}

	writeValues := !okv || !vals.Equal(p.Values)
	if writeValues {
		mv.PropValues.Set(p.Values)
		if len(p.Values) < 15 {
			info |= byte(len(p.Values)) << 4
		} else {
			info |= 0xf0
		}
	} else {
		info |= bitPropReuse
	}

	w := c.begin(recProperty)
	w.Byte(info)
	if writeName {
		if byRef {
			w.WriteUint(ref)
		} else {
			w.WriteString(p.Name.String())
		}
	}
	if writeValues {
		if len(p.Values) >= 15 {
			w.WriteUint(uint64(len(p.Values)))
		}
		for _, v := range p.Values {
			c.writePropValue(w, v)
		}
	}
	return c.commit()
}

func (c *Creator) writePropValue(w *binary.Writer, v PropValue) {
	switch v.Kind {
	case PropReal:
		w.WriteReal(v.Real.wire())
	case PropUnsigned:
		w.WriteUint(8)
		w.WriteUint(v.Uint)
	case PropSigned:
		w.WriteUint(9)
		w.WriteSint(v.Int)
	default:
		k := uint64(v.Kind - PropAString)
		if ref, ok := c.nameField(KindPropString, v.Str); ok {
			w.WriteUint(13 + k)
			w.WriteUint(ref)
		} else {
			w.WriteUint(10 + k)
			w.WriteString(v.Str.String())
		}
	}
}
