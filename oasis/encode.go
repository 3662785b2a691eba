package oasis

import (
	"math"

	"github.com/wippyai/oasis/errors"
	"github.com/wippyai/oasis/oasis/internal/binary"
)

// fieldXY decides which coordinates a record must carry and returns the
// values to write, updating the modal pair.
func (c *Creator) fieldXY(mx, my *Modal[int64], x, y int64) (wx, wy int64, hasX, hasY bool) {
	if c.mv.XYMode == XYRelative {
		cx, _ := mx.Get()
		cy, _ := my.Get()
		mx.Set(x)
		my.Set(y)
		return x - cx, y - cy, x != cx, y != cy
	}
	return x, y, mx.SetIfDifferent(x), my.SetIfDifferent(y)
}

// repField decides whether a record carries a repetition and in which form.
// A repetition equal to the modal one is written as type 0.
func (c *Creator) repField(r *Repetition) (*Repetition, error) {
	if r == nil {
		return nil, nil
	}
	if r.Type() == RepReuse {
		if !c.mv.Repetition.IsSet() {
			return nil, c.contract("reused repetition with no previous repetition")
		}
		return r, nil
	}
	if err := r.Validate(); err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindStructural, err, "invalid repetition")
	}
	if !c.mv.Repetition.SetIfDifferent(r) {
		return NewReuse(), nil
	}
	return r, nil
}

func writeRepetition(w *binary.Writer, r *Repetition) {
	w.WriteUint(uint64(r.typ))
	switch r.typ {
	case RepMatrix:
		w.WriteUint(r.n - 2)
		w.WriteUint(r.m - 2)
		w.WriteUint(uint64(r.a.X))
		w.WriteUint(uint64(r.b.Y))
	case RepUniformX:
		w.WriteUint(r.n - 2)
		w.WriteUint(uint64(r.a.X))
	case RepUniformY:
		w.WriteUint(r.n - 2)
		w.WriteUint(uint64(r.a.Y))
	case RepVaryingX, RepGridVaryingX, RepVaryingY, RepGridVaryingY:
		w.WriteUint(uint64(len(r.coords) - 2))
		grid := int64(1)
		if r.typ == RepGridVaryingX || r.typ == RepGridVaryingY {
			grid = int64(r.grid)
			w.WriteUint(r.grid)
		}
		for i := 1; i < len(r.coords); i++ {
			w.WriteUint(uint64((r.coords[i] - r.coords[i-1]) / grid))
		}
	case RepTiltedMatrix:
		w.WriteUint(r.n - 2)
		w.WriteUint(r.m - 2)
		w.WriteGDelta(r.a.X, r.a.Y)
		w.WriteGDelta(r.b.X, r.b.Y)
	case RepDiagonal:
		w.WriteUint(r.n - 2)
		w.WriteGDelta(r.a.X, r.a.Y)
	case RepArbitrary, RepGridArbitrary:
		w.WriteUint(uint64(len(r.deltas) - 2))
		grid := int64(1)
		if r.typ == RepGridArbitrary {
			grid = int64(r.grid)
			w.WriteUint(r.grid)
		}
		for i := 1; i < len(r.deltas); i++ {
			d := r.deltas[i]
			p := r.deltas[i-1]
			w.WriteGDelta((d.X-p.X)/grid, (d.Y-p.Y)/grid)
		}
	}
}

// writePointList writes the vertex offsets of a polygon or path using the
// most compact of the general point list types.
func (c *Creator) writePointList(w *binary.Writer, pts PointList) error {
	if len(pts) < 2 || pts[0] != (Delta{}) {
		return c.contract("point list must have at least 2 points starting at (0,0)")
	}
	typ := uint64(pointsGeneral)
	switch {
	case pts.isManhattan(false):
		typ = pointsManhattan
	case pts.isOctangular(false):
		typ = pointsOctangular
	}
	w.WriteUint(typ)
	w.WriteUint(uint64(len(pts) - 1))
	for i := 1; i < len(pts); i++ {
		dx, dy := pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y
		switch typ {
		case pointsManhattan:
			w.Write2Delta(dx, dy)
		case pointsOctangular:
			w.Write3Delta(dx, dy)
		default:
			w.WriteGDelta(dx, dy)
		}
	}
	return nil
}

// geometryHeader holds the fields shared by all geometry records.
type geometryHeader struct {
	info     byte
	layer    uint64
	datatype uint64
	x, y     int64
	rep      *Repetition
}

func (c *Creator) geometry(layer, datatype uint64, x, y int64, r *Repetition) (geometryHeader, error) {
	var h geometryHeader
	if c.mv.Layer.SetIfDifferent(layer) {
		h.info |= bitLayer
		h.layer = layer
	}
	if c.mv.Datatype.SetIfDifferent(datatype) {
		h.info |= bitDatatype
		h.datatype = datatype
	}
	var hasX, hasY bool
	h.x, h.y, hasX, hasY = c.fieldXY(&c.mv.GeometryX, &c.mv.GeometryY, x, y)
	if hasX {
		h.info |= bitX
	}
	if hasY {
		h.info |= bitY
	}
	rep, err := c.repField(r)
	if err != nil {
		return h, err
	}
	if rep != nil {
		h.info |= bitRep
		h.rep = rep
	}
	return h, nil
}

func (h *geometryHeader) writeLayer(w *binary.Writer) {
	if h.info&bitLayer != 0 {
		w.WriteUint(h.layer)
	}
	if h.info&bitDatatype != 0 {
		w.WriteUint(h.datatype)
	}
}

func (h *geometryHeader) writeXYRep(w *binary.Writer) {
	if h.info&bitX != 0 {
		w.WriteSint(h.x)
	}
	if h.info&bitY != 0 {
		w.WriteSint(h.y)
	}
	if h.rep != nil {
		writeRepetition(w, h.rep)
	}
}

func (c *Creator) BeginPlacement(p *Placement) error {
	if err := c.inCell("PLACEMENT"); err != nil {
		return err
	}
	mag := p.Mag
	if mag == (Real{}) {
		mag = Integer(1)
	}
	m, a := mag.Float64(), p.Angle.Float64()
	if !(m > 0) || math.IsInf(m, 0) {
		return c.contract("invalid magnification %v", mag)
	}
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return c.contract("invalid angle %v", p.Angle)
	}

	var info byte
	id := recPlacementTransform
	if m == 1 {
		norm := math.Mod(a, 360)
		if norm < 0 {
			norm += 360
		}
		if norm == 0 || norm == 90 || norm == 180 || norm == 270 {
			id = recPlacement
			info |= byte(int(norm)/90) << 1
		}
	}
	if id == recPlacementTransform {
		if m != 1 {
			info |= bitMag
		}
		if a != 0 {
			info |= bitAngle
		}
	}
	if p.Flip {
		info |= bitFlip
	}

	var ref uint64
	var byRef bool
	writeCell := c.mv.PlacementCell.SetIfDifferent(p.Cell)
	if writeCell {
		info |= bitPlaceCell
		if ref, byRef = c.cellRef(p.Cell); byRef {
			info |= bitPlaceRef
		}
	}
	x, y, hasX, hasY := c.fieldXY(&c.mv.PlacementX, &c.mv.PlacementY, p.X, p.Y)
	if hasX {
		info |= bitPlaceX
	}
	if hasY {
		info |= bitPlaceY
	}
	rep, err := c.repField(p.Rep)
	if err != nil {
		return err
	}
	if rep != nil {
		info |= bitPlaceRep
	}

	w := c.begin(id)
	w.Byte(info)
	if writeCell {
		if byRef {
			w.WriteUint(ref)
		} else {
			w.WriteString(p.Cell.String())
		}
	}
	if id == recPlacementTransform {
		if info&bitMag != 0 {
			w.WriteReal(mag.wire())
		}
		if info&bitAngle != 0 {
			w.WriteReal(p.Angle.wire())
		}
	}
	if hasX {
		w.WriteSint(x)
	}
	if hasY {
		w.WriteSint(y)
	}
	if rep != nil {
		writeRepetition(w, rep)
	}
	return c.commit()
}

func (c *Creator) BeginText(t *Text) error {
	if err := c.inCell("TEXT"); err != nil {
		return err
	}
	var info byte
	var ref uint64
	var byRef bool
	writeString := c.mv.TextString.SetIfDifferent(t.String)
	if writeString {
		info |= bitTextString
		if ref, byRef = c.nameField(KindTextString, t.String); byRef {
			info |= bitTextRef
		}
	}
	writeLayer := c.mv.TextLayer.SetIfDifferent(t.TextLayer)
	if writeLayer {
		info |= bitTextLayer
	}
	writeType := c.mv.TextType.SetIfDifferent(t.TextType)
	if writeType {
		info |= bitTextType
	}
	x, y, hasX, hasY := c.fieldXY(&c.mv.TextX, &c.mv.TextY, t.X, t.Y)
	if hasX {
		info |= bitX
	}
	if hasY {
		info |= bitY
	}
	rep, err := c.repField(t.Rep)
	if err != nil {
		return err
	}
	if rep != nil {
		info |= bitRep
	}

	w := c.begin(recText)
	w.Byte(info)
	if writeString {
		if byRef {
			w.WriteUint(ref)
		} else {
			w.WriteString(t.String.String())
		}
	}
	if writeLayer {
		w.WriteUint(t.TextLayer)
	}
	if writeType {
		w.WriteUint(t.TextType)
	}
	h := geometryHeader{info: info, x: x, y: y, rep: rep}
	h.writeXYRep(w)
	return c.commit()
}

func (c *Creator) BeginRectangle(r *Rectangle) error {
	if err := c.inCell("RECTANGLE"); err != nil {
		return err
	}
	h, err := c.geometry(r.Layer, r.Datatype, r.X, r.Y, r.Rep)
	if err != nil {
		return err
	}
	writeW, writeH := false, false
	if r.Width == r.Height {
		h.info |= bitSquare
		writeW = c.mv.GeometryW.SetIfDifferent(r.Width)
		c.mv.GeometryH.Set(r.Width)
	} else {
		writeW = c.mv.GeometryW.SetIfDifferent(r.Width)
		writeH = c.mv.GeometryH.SetIfDifferent(r.Height)
	}
	if writeW {
		h.info |= bitWidth
	}
	if writeH {
		h.info |= bitHeight
	}

	w := c.begin(recRectangle)
	w.Byte(h.info)
	h.writeLayer(w)
	if writeW {
		w.WriteUint(r.Width)
	}
	if writeH {
		w.WriteUint(r.Height)
	}
	h.writeXYRep(w)
	return c.commit()
}

func (c *Creator) BeginPolygon(p *Polygon) error {
	if err := c.inCell("POLYGON"); err != nil {
		return err
	}
	h, err := c.geometry(p.Layer, p.Datatype, p.X, p.Y, p.Rep)
	if err != nil {
		return err
	}
	writePts := c.mv.PolygonPoints.SetIfDifferent(p.Points)
	if writePts {
		h.info |= bitPoints
	}
	w := c.begin(recPolygon)
	w.Byte(h.info)
	h.writeLayer(w)
	if writePts {
		if err := c.writePointList(w, p.Points); err != nil {
			return err
		}
	}
	h.writeXYRep(w)
	return c.commit()
}

// extensionScheme picks the cheapest scheme that yields ext.
func extensionScheme(ext int64, halfWidth uint64) uint64 {
	switch {
	case ext == 0:
		return extFlush
	case ext == int64(halfWidth):
		return extHalfWidth
	}
	return extExplicit
}

func (c *Creator) BeginPath(p *Path) error {
	if err := c.inCell("PATH"); err != nil {
		return err
	}
	h, err := c.geometry(p.Layer, p.Datatype, p.X, p.Y, p.Rep)
	if err != nil {
		return err
	}
	writeHW := c.mv.PathHalfWidth.SetIfDifferent(p.HalfWidth)
	if writeHW {
		h.info |= bitHalfWidth
	}

	var scheme uint64
	startNew := c.mv.PathStartExt.SetIfDifferent(p.StartExt)
	endNew := c.mv.PathEndExt.SetIfDifferent(p.EndExt)
	if startNew || endNew {
		h.info |= bitPathExt
		start, end := uint64(extReuse), uint64(extReuse)
		if startNew {
			start = extensionScheme(p.StartExt, p.HalfWidth)
		}
		if endNew {
			end = extensionScheme(p.EndExt, p.HalfWidth)
		}
		scheme = start<<2 | end
	}
	writePts := c.mv.PathPoints.SetIfDifferent(p.Points)
	if writePts {
		h.info |= bitPoints
	}

	w := c.begin(recPath)
	w.Byte(h.info)
	h.writeLayer(w)
	if writeHW {
		w.WriteUint(p.HalfWidth)
	}
	if h.info&bitPathExt != 0 {
		w.WriteUint(scheme)
		if scheme>>2 == extExplicit {
			w.WriteSint(p.StartExt)
		}
		if scheme&3 == extExplicit {
			w.WriteSint(p.EndExt)
		}
	}
	if writePts {
		if err := c.writePointList(w, p.Points); err != nil {
			return err
		}
	}
	h.writeXYRep(w)
	return c.commit()
}

func (c *Creator) BeginTrapezoid(t *Trapezoid) error {
	if err := c.inCell("TRAPEZOID"); err != nil {
		return err
	}
	h, err := c.geometry(t.Layer, t.Datatype, t.X, t.Y, t.Rep)
	if err != nil {
		return err
	}
	if t.Vertical {
		h.info |= bitVertical
	}
	writeW := c.mv.GeometryW.SetIfDifferent(t.Width)
	writeH := c.mv.GeometryH.SetIfDifferent(t.Height)
	if writeW {
		h.info |= bitWidth
	}
	if writeH {
		h.info |= bitHeight
	}
	id := recTrapezoid
	switch {
	case t.DeltaB == 0:
		id = recTrapezoidA
	case t.DeltaA == 0:
		id = recTrapezoidB
	}

	w := c.begin(id)
	w.Byte(h.info)
	h.writeLayer(w)
	if writeW {
		w.WriteUint(t.Width)
	}
	if writeH {
		w.WriteUint(t.Height)
	}
	if id != recTrapezoidB {
		w.Write1Delta(t.DeltaA)
	}
	if id != recTrapezoidA {
		w.Write1Delta(t.DeltaB)
	}
	h.writeXYRep(w)
	return c.commit()
}

func (c *Creator) BeginCTrapezoid(t *CTrapezoid) error {
	if err := c.inCell("CTRAPEZOID"); err != nil {
		return err
	}
	if t.Type > 25 {
		return errors.InvalidEnum(errors.PhaseEncode, c.out.off, t.Type, "ctrapezoid type")
	}
	h, err := c.geometry(t.Layer, t.Datatype, t.X, t.Y, t.Rep)
	if err != nil {
		return err
	}
	if c.mv.CTrapezoidType.SetIfDifferent(t.Type) {
		h.info |= bitCTrapType
	}
	needW, needH := ctrapezoidDims(t.Type)
	writeW := needW && c.mv.GeometryW.SetIfDifferent(t.Width)
	writeH := needH && c.mv.GeometryH.SetIfDifferent(t.Height)
	if writeW {
		h.info |= bitWidth
	}
	if writeH {
		h.info |= bitHeight
	}

	w := c.begin(recCTrapezoid)
	w.Byte(h.info)
	h.writeLayer(w)
	if h.info&bitCTrapType != 0 {
		w.WriteUint(uint64(t.Type))
	}
	if writeW {
		w.WriteUint(t.Width)
	}
	if writeH {
		w.WriteUint(t.Height)
	}
	h.writeXYRep(w)
	return c.commit()
}

func (c *Creator) BeginCircle(ci *Circle) error {
	if err := c.inCell("CIRCLE"); err != nil {
		return err
	}
	h, err := c.geometry(ci.Layer, ci.Datatype, ci.X, ci.Y, ci.Rep)
	if err != nil {
		return err
	}
	writeR := c.mv.CircleRadius.SetIfDifferent(ci.Radius)
	if writeR {
		h.info |= bitRadius
	}
	w := c.begin(recCircle)
	w.Byte(h.info)
	h.writeLayer(w)
	if writeR {
		w.WriteUint(ci.Radius)
	}
	h.writeXYRep(w)
	return c.commit()
}

func (c *Creator) BeginXElement(x *XElement) error {
	if err := c.inCell("XELEMENT"); err != nil {
		return err
	}
	w := c.begin(recXElement)
	w.WriteUint(x.Attribute)
	w.WriteUint(uint64(len(x.Data)))
	w.WriteBytes(x.Data)
	return c.commit()
}

func (c *Creator) BeginXGeometry(x *XGeometry) error {
	if err := c.inCell("XGEOMETRY"); err != nil {
		return err
	}
	h, err := c.geometry(x.Layer, x.Datatype, x.X, x.Y, x.Rep)
	if err != nil {
		return err
	}
	w := c.begin(recXGeometry)
	w.Byte(h.info)
	w.WriteUint(x.Attribute)
	h.writeLayer(w)
	w.WriteUint(uint64(len(x.Data)))
	w.WriteBytes(x.Data)
	h.writeXYRep(w)
	return c.commit()
}
