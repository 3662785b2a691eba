package oasis

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/wippyai/oasis/errors"
	"github.com/wippyai/oasis/oasis/internal/binary"
)

// maxInflateRatio bounds the uncompressed size a CBLOCK may claim. DEFLATE
// cannot expand beyond roughly 1032:1.
const maxInflateRatio = 1100

// nameRef is a name field as stored: a reference number or a literal.
type nameRef struct {
	byRef bool
	ref   uint64
	lit   []byte
}

type tableEntry struct {
	strict uint64
	offset uint64
}

type rawPropValue struct {
	typ  uint64
	real binary.Real
	u    uint64
	i    int64
	s    []byte
}

// record is one decoded record. Which fields are meaningful depends on id
// and, for elements, on the info byte.
type record struct {
	id     recordID
	pos    Position
	offset int64
	info   byte

	// name records
	str    []byte
	hasRef bool
	refnum uint64
	layers Interval
	types  Interval
	attr   uint64

	// START
	version    []byte
	unit       binary.Real
	offsetFlag uint64
	tables     [numNameKinds]tableEntry

	// CELL, PLACEMENT, TEXT and PROPERTY name fields
	name nameRef

	layer, datatype uint64
	x, y            int64
	w, h            uint64
	mag, angle      binary.Real
	points          PointList
	startScheme     uint64
	endScheme       uint64
	startExt        int64
	endExt          int64
	deltaA, deltaB  int64
	ctype           uint64
	rep             *Repetition
	data            []byte

	values []rawPropValue
}

func (r *record) has(bit byte) bool {
	return r.info&bit != 0
}

// recordReader reads records from a file image, inflating CBLOCKs so that
// their contents read as if inline.
type recordReader struct {
	file *binary.Reader
	chk  *checker

	block   *binary.Reader // active CBLOCK contents
	blockAt int64          // file offset of the active CBLOCK record

	// most recently inflated CBLOCK, kept for seeks back into it
	cached    *binary.Reader
	cachedAt  int64
	cachedEnd int

	pushed *record
}

func newRecordReader(data []byte, chk *checker) *recordReader {
	return &recordReader{file: binary.NewReader(data, 0), chk: chk, cachedAt: -1}
}

func (rr *recordReader) src() *binary.Reader {
	if rr.block != nil && rr.block.AtEOF() {
		rr.block = nil
	}
	if rr.block != nil {
		return rr.block
	}
	return rr.file
}

func (rr *recordReader) inBlock() bool {
	return rr.src() != rr.file
}

// position returns the position of the next record.
func (rr *recordReader) position() Position {
	if rr.pushed != nil {
		return rr.pushed.pos
	}
	if rr.inBlock() {
		return Position{File: rr.blockAt, Block: int64(rr.block.Position())}
	}
	return Position{File: int64(rr.file.Position()), Block: -1}
}

// seek moves to the record at p.
func (rr *recordReader) seek(p Position) error {
	rr.pushed = nil
	rr.block = nil
	if p.Block < 0 {
		return rr.file.Seek(int(p.File))
	}
	if rr.cached == nil || rr.cachedAt != p.File {
		if err := rr.file.Seek(int(p.File)); err != nil {
			return err
		}
		id, err := rr.file.ReadUint()
		if err != nil {
			return err
		}
		if recordID(id) != recCBlock {
			return errors.Structural(errors.PhaseScan, p.File, "position %v is not inside a CBLOCK", p)
		}
		if err := rr.inflate(p.File); err != nil {
			return err
		}
	}
	if err := rr.file.Seek(rr.cachedEnd); err != nil {
		return err
	}
	rr.block, rr.blockAt = rr.cached, rr.cachedAt
	return rr.block.Seek(int(p.Block))
}

func (rr *recordReader) unread(r *record) {
	rr.pushed = r
}

// next returns the next record other than PAD and CBLOCK.
func (rr *recordReader) next() (*record, error) {
	if r := rr.pushed; r != nil {
		rr.pushed = nil
		return r, nil
	}
	for {
		src := rr.src()
		pos := rr.position()
		if src == rr.file && src.AtEOF() {
			return nil, errors.Structural(errors.PhaseScan, src.Offset(), "end of file before END record")
		}
		start := src.Offset()
		v, err := src.ReadUint()
		if err != nil {
			return nil, err
		}
		id := recordID(v)
		switch {
		case id == recPad:
			continue
		case id == recCBlock:
			if src != rr.file {
				return nil, annotate(errors.Structural(errors.PhaseScan, start, "CBLOCK inside CBLOCK"), id)
			}
			if err := rr.inflate(start); err != nil {
				return nil, annotate(err, id)
			}
			rr.block, rr.blockAt = rr.cached, rr.cachedAt
			continue
		case id >= numRecordIDs:
			return nil, annotate(errors.InvalidEnum(errors.PhaseScan, start, v, "record type"), id)
		case src != rr.file && (id == recStart || id == recEnd):
			return nil, annotate(errors.Structural(errors.PhaseScan, start, "%s record inside CBLOCK", id), id)
		}
		rec := &record{id: id, pos: pos, offset: start}
		if err := rr.parse(src, rec); err != nil {
			return nil, annotate(err, id)
		}
		return rec, nil
	}
}

// inflate reads a CBLOCK body whose record ID at offset at has already
// been consumed and caches the decompressed contents.
func (rr *recordReader) inflate(at int64) error {
	f := rr.file
	kind, err := f.ReadUint()
	if err != nil {
		return err
	}
	if kind != 0 {
		return errors.InvalidEnum(errors.PhaseScan, at, kind, "compression type")
	}
	usize, err := f.ReadUint()
	if err != nil {
		return err
	}
	csize, err := f.ReadUint()
	if err != nil {
		return err
	}
	if csize > uint64(f.Remaining()) {
		return errors.Structural(errors.PhaseScan, at, "CBLOCK claims %d compressed bytes, %d remain", csize, f.Remaining())
	}
	if usize > (csize+1)*maxInflateRatio {
		return errors.Structural(errors.PhaseScan, at, "CBLOCK claims %d bytes from %d compressed", usize, csize)
	}
	comp, _ := f.ReadBytes(int(csize))

	out := make([]byte, usize)
	fr := flate.NewReader(bytes.NewReader(comp))
	defer fr.Close()
	if _, err := io.ReadFull(fr, out); err != nil {
		return errors.New(errors.PhaseScan, errors.KindStructural).
			Offset(at).
			Cause(err).
			Detail("CBLOCK does not inflate to %d bytes", usize).
			Build()
	}
	rr.cached = binary.NewReader(out, at)
	rr.cachedAt = at
	rr.cachedEnd = f.Position()
	return nil
}

func (rr *recordReader) parse(s *binary.Reader, rec *record) error {
	var err error
	off := rec.offset
	id := rec.id

	switch id {
	case recStart:
		if rec.version, err = s.ReadString(); err != nil {
			return err
		}
		if err = rr.chk.aString(off, id, rec.version); err != nil {
			return err
		}
		if rec.unit, err = s.ReadReal(); err != nil {
			return err
		}
		if rec.offsetFlag, err = s.ReadUint(); err != nil {
			return err
		}
		if rec.offsetFlag == 0 {
			return rr.readTables(s, rec)
		}
		return nil

	case recEnd, recXYAbsolute, recXYRelative, recPropertyRepeat:
		return nil

	case recCellName, recCellNameRef, recPropName, recPropNameRef:
		if rec.str, err = s.ReadString(); err != nil {
			return err
		}
		if err = rr.chk.nString(off, id, rec.str); err != nil {
			return err
		}
		return rr.readRefnum(s, rec, id == recCellNameRef || id == recPropNameRef)

	case recTextString, recTextStringRef:
		if rec.str, err = s.ReadString(); err != nil {
			return err
		}
		if err = rr.chk.aString(off, id, rec.str); err != nil {
			return err
		}
		return rr.readRefnum(s, rec, id == recTextStringRef)

	case recPropString, recPropStringRef:
		if rec.str, err = s.ReadString(); err != nil {
			return err
		}
		return rr.readRefnum(s, rec, id == recPropStringRef)

	case recLayerName, recLayerNameText:
		if rec.str, err = s.ReadString(); err != nil {
			return err
		}
		if err = rr.chk.nString(off, id, rec.str); err != nil {
			return err
		}
		if rec.layers, err = readInterval(s); err != nil {
			return err
		}
		rec.types, err = readInterval(s)
		return err

	case recXName, recXNameRef:
		if rec.attr, err = s.ReadUint(); err != nil {
			return err
		}
		if rec.str, err = s.ReadString(); err != nil {
			return err
		}
		return rr.readRefnum(s, rec, id == recXNameRef)

	case recCellRef:
		rec.name.byRef = true
		rec.name.ref, err = s.ReadUint()
		return err

	case recCellNamed:
		if rec.name.lit, err = s.ReadString(); err != nil {
			return err
		}
		return rr.chk.nString(off, id, rec.name.lit)

	case recPlacement, recPlacementTransform:
		return rr.readPlacement(s, rec)

	case recText:
		return rr.readText(s, rec)

	case recXElement:
		if rec.attr, err = s.ReadUint(); err != nil {
			return err
		}
		rec.data, err = s.ReadString()
		return err

	case recProperty:
		return rr.readProperty(s, rec)
	}

	return rr.readGeometry(s, rec)
}

func (rr *recordReader) readTables(s *binary.Reader, rec *record) error {
	var err error
	for i := range rec.tables {
		t := &rec.tables[i]
		if t.strict, err = s.ReadUint(); err != nil {
			return err
		}
		if t.offset, err = s.ReadUint(); err != nil {
			return err
		}
		if t.strict > 1 {
			if err := rr.chk.violation(errors.PhaseScan, rec.offset, rec.id, "%s table strict flag %d", NameKind(i), t.strict); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rr *recordReader) readRefnum(s *binary.Reader, rec *record, explicit bool) error {
	if !explicit {
		return nil
	}
	var err error
	rec.hasRef = true
	rec.refnum, err = s.ReadUint()
	return err
}

func (rr *recordReader) readInfo(s *binary.Reader, rec *record) error {
	b, err := s.ReadByte()
	if err != nil {
		return err
	}
	rec.info = b
	if unused := unusedBits(rec.id) & b; unused != 0 {
		return rr.chk.violation(errors.PhaseScan, rec.offset, rec.id, "unused info bits 0x%02x set", unused)
	}
	return nil
}

func (rr *recordReader) readNameField(s *binary.Reader, rec *record, byRef bool, check func(int64, recordID, []byte) error) error {
	var err error
	if byRef {
		rec.name.byRef = true
		rec.name.ref, err = s.ReadUint()
		return err
	}
	if rec.name.lit, err = s.ReadString(); err != nil {
		return err
	}
	return check(rec.offset, rec.id, rec.name.lit)
}

func (rr *recordReader) readPlacement(s *binary.Reader, rec *record) error {
	var err error
	if err = rr.readInfo(s, rec); err != nil {
		return err
	}
	if rec.has(bitPlaceCell) {
		if err = rr.readNameField(s, rec, rec.has(bitPlaceRef), rr.chk.nString); err != nil {
			return err
		}
	}
	if rec.id == recPlacementTransform {
		if rec.has(bitMag) {
			if rec.mag, err = s.ReadReal(); err != nil {
				return err
			}
		}
		if rec.has(bitAngle) {
			if rec.angle, err = s.ReadReal(); err != nil {
				return err
			}
		}
	}
	if rec.has(bitPlaceX) {
		if rec.x, err = s.ReadSint(); err != nil {
			return err
		}
	}
	if rec.has(bitPlaceY) {
		if rec.y, err = s.ReadSint(); err != nil {
			return err
		}
	}
	if rec.has(bitPlaceRep) {
		rec.rep, err = readRepetition(s)
	}
	return err
}

func (rr *recordReader) readText(s *binary.Reader, rec *record) error {
	var err error
	if err = rr.readInfo(s, rec); err != nil {
		return err
	}
	if rec.has(bitTextString) {
		if err = rr.readNameField(s, rec, rec.has(bitTextRef), rr.chk.aString); err != nil {
			return err
		}
	}
	if rec.has(bitTextLayer) {
		if rec.layer, err = s.ReadUint(); err != nil {
			return err
		}
	}
	if rec.has(bitTextType) {
		if rec.datatype, err = s.ReadUint(); err != nil {
			return err
		}
	}
	return rr.readXYRep(s, rec)
}

func (rr *recordReader) readXYRep(s *binary.Reader, rec *record) error {
	var err error
	if rec.has(bitX) {
		if rec.x, err = s.ReadSint(); err != nil {
			return err
		}
	}
	if rec.has(bitY) {
		if rec.y, err = s.ReadSint(); err != nil {
			return err
		}
	}
	if rec.has(bitRep) {
		rec.rep, err = readRepetition(s)
	}
	return err
}

func (rr *recordReader) readProperty(s *binary.Reader, rec *record) error {
	var err error
	if rec.info, err = s.ReadByte(); err != nil {
		return err
	}
	if rec.has(bitPropName) {
		if err = rr.readNameField(s, rec, rec.has(bitPropRef), rr.chk.nString); err != nil {
			return err
		}
	}
	count := uint64(rec.info >> 4)
	if rec.has(bitPropReuse) {
		if count != 0 {
			return rr.chk.violation(errors.PhaseScan, rec.offset, rec.id, "value count %d with reused value list", count)
		}
		return nil
	}
	if count == 15 {
		if count, err = s.ReadUint(); err != nil {
			return err
		}
	}
	if count > uint64(s.Remaining()) {
		return errors.Structural(errors.PhaseScan, rec.offset, "property claims %d values", count)
	}
	rec.values = make([]rawPropValue, count)
	for i := range rec.values {
		v := &rec.values[i]
		if v.typ, err = s.ReadUint(); err != nil {
			return err
		}
		switch {
		case v.typ <= 7:
			v.real, err = s.ReadRealForm(v.typ)
		case v.typ == 8:
			v.u, err = s.ReadUint()
		case v.typ == 9:
			v.i, err = s.ReadSint()
		case v.typ <= 12:
			if v.s, err = s.ReadString(); err == nil {
				err = rr.checkPropString(rec, v)
			}
		case v.typ <= 15:
			v.u, err = s.ReadUint()
		default:
			return errors.InvalidEnum(errors.PhaseScan, rec.offset, v.typ, "property value type")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (rr *recordReader) checkPropString(rec *record, v *rawPropValue) error {
	switch v.typ {
	case 10:
		return rr.chk.aString(rec.offset, rec.id, v.s)
	case 12:
		return rr.chk.nString(rec.offset, rec.id, v.s)
	}
	return nil
}

func (rr *recordReader) readGeometry(s *binary.Reader, rec *record) error {
	var err error
	id := rec.id
	switch id {
	case recRectangle, recPolygon, recPath, recTrapezoid, recTrapezoidA,
		recTrapezoidB, recCTrapezoid, recCircle, recXGeometry:
	default:
		return errors.InvalidEnum(errors.PhaseScan, rec.offset, uint64(id), "record type")
	}
	if err = rr.readInfo(s, rec); err != nil {
		return err
	}
	if id == recXGeometry {
		if rec.attr, err = s.ReadUint(); err != nil {
			return err
		}
	}
	if rec.has(bitLayer) {
		if rec.layer, err = s.ReadUint(); err != nil {
			return err
		}
	}
	if rec.has(bitDatatype) {
		if rec.datatype, err = s.ReadUint(); err != nil {
			return err
		}
	}

	switch id {
	case recRectangle:
		if rec.has(bitSquare) && rec.has(bitHeight) {
			if err = rr.chk.violation(errors.PhaseScan, rec.offset, id, "square rectangle with height bit set"); err != nil {
				return err
			}
		}
		if err = rr.readWH(s, rec); err != nil {
			return err
		}
	case recPolygon:
		if rec.has(bitPoints) {
			if rec.points, err = readPointList(s, true); err != nil {
				return err
			}
		}
	case recPath:
		if rec.has(bitHalfWidth) {
			if rec.w, err = s.ReadUint(); err != nil {
				return err
			}
		}
		if rec.has(bitPathExt) {
			if err = readExtensions(s, rec); err != nil {
				return err
			}
		}
		if rec.has(bitPoints) {
			if rec.points, err = readPointList(s, false); err != nil {
				return err
			}
		}
	case recTrapezoid, recTrapezoidA, recTrapezoidB:
		if err = rr.readWH(s, rec); err != nil {
			return err
		}
		if id != recTrapezoidB {
			if rec.deltaA, err = s.Read1Delta(); err != nil {
				return err
			}
		}
		if id != recTrapezoidA {
			if rec.deltaB, err = s.Read1Delta(); err != nil {
				return err
			}
		}
	case recCTrapezoid:
		if rec.has(bitCTrapType) {
			if rec.ctype, err = s.ReadUint(); err != nil {
				return err
			}
			if rec.ctype > 25 {
				return errors.InvalidEnum(errors.PhaseScan, rec.offset, rec.ctype, "ctrapezoid type")
			}
		}
		if err = rr.readWH(s, rec); err != nil {
			return err
		}
	case recCircle:
		if rec.has(bitRadius) {
			if rec.w, err = s.ReadUint(); err != nil {
				return err
			}
		}
	case recXGeometry:
		if rec.data, err = s.ReadString(); err != nil {
			return err
		}
	}
	return rr.readXYRep(s, rec)
}

func (rr *recordReader) readWH(s *binary.Reader, rec *record) error {
	var err error
	if rec.has(bitWidth) {
		if rec.w, err = s.ReadUint(); err != nil {
			return err
		}
	}
	if rec.has(bitHeight) {
		rec.h, err = s.ReadUint()
	}
	return err
}

func readExtensions(s *binary.Reader, rec *record) error {
	scheme, err := s.ReadUint()
	if err != nil {
		return err
	}
	if scheme > 0x0f {
		return errors.InvalidEnum(errors.PhaseScan, rec.offset, scheme, "path extension scheme")
	}
	rec.startScheme = scheme >> 2 & 3
	rec.endScheme = scheme & 3
	if rec.startScheme == extExplicit {
		if rec.startExt, err = s.ReadSint(); err != nil {
			return err
		}
	}
	if rec.endScheme == extExplicit {
		rec.endExt, err = s.ReadSint()
	}
	return err
}

func readInterval(s *binary.Reader) (Interval, error) {
	start := s.Offset()
	kind, err := s.ReadUint()
	if err != nil {
		return Interval{}, err
	}
	iv := Interval{Kind: IntervalKind(kind)}
	switch kind {
	case 0:
	case 1:
		iv.Hi, err = s.ReadUint()
	case 2, 3:
		iv.Lo, err = s.ReadUint()
	case 4:
		if iv.Lo, err = s.ReadUint(); err == nil {
			iv.Hi, err = s.ReadUint()
		}
	default:
		return Interval{}, errors.InvalidEnum(errors.PhaseScan, start, kind, "interval type")
	}
	return iv, err
}

// readPointList reads a point list into vertex offsets. For polygons the
// vertex implied by a Manhattan list is appended.
func readPointList(s *binary.Reader, polygon bool) (PointList, error) {
	start := s.Offset()
	typ, err := s.ReadUint()
	if err != nil {
		return nil, err
	}
	count, err := s.ReadUint()
	if err != nil {
		return nil, err
	}
	if count > uint64(s.Remaining()) {
		return nil, errors.Structural(errors.PhaseScan, start, "point list claims %d deltas", count)
	}

	pts := make(PointList, 1, count+2)
	var cur, step Delta
	switch typ {
	case pointsManhattanH, pointsManhattanV:
		horizontal := typ == pointsManhattanH
		for i := uint64(0); i < count; i++ {
			d, err := s.Read1Delta()
			if err != nil {
				return nil, err
			}
			if horizontal {
				cur.X += d
			} else {
				cur.Y += d
			}
			pts = append(pts, cur)
			horizontal = !horizontal
		}
		if polygon {
			if horizontal {
				pts = append(pts, Delta{X: 0, Y: cur.Y})
			} else {
				pts = append(pts, Delta{X: cur.X, Y: 0})
			}
		}
	case pointsManhattan, pointsOctangular, pointsGeneral, pointsDoubleDelta:
		for i := uint64(0); i < count; i++ {
			var dx, dy int64
			switch typ {
			case pointsManhattan:
				dx, dy, err = s.Read2Delta()
			case pointsOctangular:
				dx, dy, err = s.Read3Delta()
			default:
				dx, dy, err = s.ReadGDelta()
			}
			if err != nil {
				return nil, err
			}
			if typ == pointsDoubleDelta {
				step = step.Add(Delta{X: dx, Y: dy})
				cur = cur.Add(step)
			} else {
				cur = cur.Add(Delta{X: dx, Y: dy})
			}
			pts = append(pts, cur)
		}
	default:
		return nil, errors.InvalidEnum(errors.PhaseScan, start, typ, "point list type")
	}
	return pts, nil
}

func readRepetition(s *binary.Reader) (*Repetition, error) {
	start := s.Offset()
	typ, err := s.ReadUint()
	if err != nil {
		return nil, err
	}
	u := func() uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = s.ReadUint()
		return v
	}
	g := func() Delta {
		if err != nil {
			return Delta{}
		}
		var dx, dy int64
		dx, dy, err = s.ReadGDelta()
		return Delta{X: dx, Y: dy}
	}
	dim := func() uint64 {
		n := u()
		if err == nil && n >= uint64(s.Remaining()) {
			err = errors.Structural(errors.PhaseScan, start, "repetition claims %d offsets", n+2)
		}
		return n
	}

	var rep *Repetition
	switch RepetitionType(typ) {
	case RepReuse:
		rep = NewReuse()
	case RepMatrix:
		nx, ny := u(), u()
		sx, sy := u(), u()
		rep = NewMatrix(nx+2, ny+2, int64(sx), int64(sy))
	case RepUniformX:
		n, sp := u(), u()
		rep = NewUniformX(n+2, int64(sp))
	case RepUniformY:
		n, sp := u(), u()
		rep = NewUniformY(n+2, int64(sp))
	case RepVaryingX, RepGridVaryingX, RepVaryingY, RepGridVaryingY:
		n := dim()
		grid := uint64(1)
		gridded := RepetitionType(typ) == RepGridVaryingX || RepetitionType(typ) == RepGridVaryingY
		if gridded {
			grid = u()
			if err == nil && grid == 0 {
				err = errors.Structural(errors.PhaseScan, start, "repetition grid is 0")
			}
		}
		if err != nil {
			return nil, err
		}
		coords := make([]int64, 1, n+2)
		var cur int64
		for i := uint64(0); i <= n && err == nil; i++ {
			cur += int64(u() * grid)
			coords = append(coords, cur)
		}
		switch RepetitionType(typ) {
		case RepVaryingX:
			rep = NewVaryingX(coords)
		case RepGridVaryingX:
			rep = NewGridVaryingX(grid, coords)
		case RepVaryingY:
			rep = NewVaryingY(coords)
		default:
			rep = NewGridVaryingY(grid, coords)
		}
	case RepTiltedMatrix:
		nn, nm := u(), u()
		a, b := g(), g()
		rep = NewTiltedMatrix(nn+2, nm+2, a, b)
	case RepDiagonal:
		n := u()
		rep = NewDiagonal(n+2, g())
	case RepArbitrary, RepGridArbitrary:
		n := dim()
		grid := uint64(1)
		if RepetitionType(typ) == RepGridArbitrary {
			grid = u()
			if err == nil && grid == 0 {
				err = errors.Structural(errors.PhaseScan, start, "repetition grid is 0")
			}
		}
		if err != nil {
			return nil, err
		}
		deltas := make([]Delta, 1, n+2)
		var cur Delta
		for i := uint64(0); i <= n && err == nil; i++ {
			d := g()
			cur = cur.Add(Delta{X: d.X * int64(grid), Y: d.Y * int64(grid)})
			deltas = append(deltas, cur)
		}
		if RepetitionType(typ) == RepArbitrary {
			rep = NewArbitrary(deltas)
		} else {
			rep = NewGridArbitrary(grid, deltas)
		}
	default:
		return nil, errors.InvalidEnum(errors.PhaseScan, start, typ, "repetition type")
	}
	if err != nil {
		return nil, err
	}
	return rep, nil
}
