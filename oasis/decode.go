package oasis

import (
	"math"

	"github.com/wippyai/oasis/errors"
)

// decodeElement resolves one element record against the modal store and
// delivers it to b unless its category is unwanted. It reports whether an
// element event was opened.
func (p *Parser) decodeElement(rec *record, b Builder) (bool, error) {
	switch rec.id {
	case recPlacement, recPlacementTransform:
		pl, err := p.decodePlacement(rec)
		if err != nil {
			return false, err
		}
		return true, b.BeginPlacement(pl)

	case recText:
		if !p.opts.WantText {
			_, err := p.repetition(rec, rec.has(bitRep))
			return false, err
		}
		t, err := p.decodeText(rec)
		if err != nil {
			return false, err
		}
		return true, b.BeginText(t)

	case recRectangle:
		r, err := p.decodeRectangle(rec)
		if err != nil {
			return false, err
		}
		return true, b.BeginRectangle(r)

	case recPolygon:
		pg, err := p.decodePolygon(rec)
		if err != nil {
			return false, err
		}
		return true, b.BeginPolygon(pg)

	case recPath:
		pa, err := p.decodePath(rec)
		if err != nil {
			return false, err
		}
		return true, b.BeginPath(pa)

	case recTrapezoid, recTrapezoidA, recTrapezoidB:
		t, err := p.decodeTrapezoid(rec)
		if err != nil {
			return false, err
		}
		return true, b.BeginTrapezoid(t)

	case recCTrapezoid:
		t, err := p.decodeCTrapezoid(rec)
		if err != nil {
			return false, err
		}
		return true, b.BeginCTrapezoid(t)

	case recCircle:
		c, err := p.decodeCircle(rec)
		if err != nil {
			return false, err
		}
		return true, b.BeginCircle(c)

	case recXElement:
		if !p.opts.WantExtensions {
			return false, nil
		}
		return true, b.BeginXElement(&XElement{Attribute: rec.attr, Data: rec.data})

	case recXGeometry:
		x, err := p.decodeXGeometry(rec)
		if err != nil {
			return false, err
		}
		if !p.opts.WantExtensions {
			return false, nil
		}
		return true, b.BeginXGeometry(x)
	}
	return false, errors.InvalidEnum(errors.PhaseDecode, rec.offset, uint64(rec.id), "record type")
}

// modalUint takes the field from the record when present, else from the
// modal variable.
func (p *Parser) modalUint(rec *record, m *Modal[uint64], present bool, v uint64, name string) (uint64, error) {
	if present {
		m.Set(v)
		return v, nil
	}
	if v, ok := m.Get(); ok {
		return v, nil
	}
	return 0, p.undefined(rec, name)
}

func (p *Parser) repetition(rec *record, present bool) (*Repetition, error) {
	if !present {
		return nil, nil
	}
	if rec.rep.Type() != RepReuse {
		p.mv.Repetition.Set(rec.rep)
		return rec.rep, nil
	}
	r, ok := p.mv.Repetition.Get()
	if !ok {
		return nil, p.undefined(rec, "repetition")
	}
	return r, nil
}

func (p *Parser) layerDatatype(rec *record) (uint64, uint64, error) {
	layer, err := p.modalUint(rec, &p.mv.Layer, rec.has(bitLayer), rec.layer, "layer")
	if err != nil {
		return 0, 0, err
	}
	dt, err := p.modalUint(rec, &p.mv.Datatype, rec.has(bitDatatype), rec.datatype, "datatype")
	return layer, dt, err
}

func (p *Parser) geometryXY(rec *record) (int64, int64) {
	return p.mv.resolveXY(&p.mv.GeometryX, &p.mv.GeometryY, rec.x, rec.y, rec.has(bitX), rec.has(bitY))
}

func (p *Parser) decodePlacement(rec *record) (*Placement, error) {
	pl := &Placement{Mag: Integer(1)}
	if rec.has(bitPlaceCell) {
		n, err := p.resolveName(KindCellName, rec.name, rec.id, rec.offset)
		if err != nil {
			return nil, err
		}
		pl.Cell = n
		p.mv.PlacementCell.Set(n)
	} else {
		n, ok := p.mv.PlacementCell.Get()
		if !ok {
			return nil, p.undefined(rec, "placement-cell")
		}
		pl.Cell = n
	}
	if pl.Cell.String() == p.cell.String() {
		return nil, errors.New(errors.PhaseDecode, errors.KindReference).
			Record("PLACEMENT").
			Offset(rec.offset).
			Value(pl.Cell.String()).
			Detail("cell %q places itself", pl.Cell.String()).
			Build()
	}

	if rec.id == recPlacement {
		pl.Angle = Integer(int64((rec.info&maskAngle)>>1) * 90)
	} else {
		if rec.has(bitMag) {
			pl.Mag = realFromWire(rec.mag)
		}
		if rec.has(bitAngle) {
			pl.Angle = realFromWire(rec.angle)
		}
	}
	if m := pl.Mag.Float64(); !(m > 0) || math.IsInf(m, 0) {
		return nil, errors.New(errors.PhaseDecode, errors.KindStructural).
			Record("PLACEMENT").
			Offset(rec.offset).
			Value(m).
			Detail("invalid magnification %v", pl.Mag).
			Build()
	}
	if a := pl.Angle.Float64(); math.IsNaN(a) || math.IsInf(a, 0) {
		return nil, errors.New(errors.PhaseDecode, errors.KindStructural).
			Record("PLACEMENT").
			Offset(rec.offset).
			Value(a).
			Detail("invalid angle %v", pl.Angle).
			Build()
	}
	pl.Flip = rec.has(bitFlip)
	pl.X, pl.Y = p.mv.resolveXY(&p.mv.PlacementX, &p.mv.PlacementY, rec.x, rec.y, rec.has(bitPlaceX), rec.has(bitPlaceY))

	rep, err := p.repetition(rec, rec.has(bitPlaceRep))
	if err != nil {
		return nil, err
	}
	pl.Rep = rep
	return pl, nil
}

func (p *Parser) decodeText(rec *record) (*Text, error) {
	t := &Text{}
	if rec.has(bitTextString) {
		n, err := p.resolveName(KindTextString, rec.name, rec.id, rec.offset)
		if err != nil {
			return nil, err
		}
		t.String = n
		p.mv.TextString.Set(n)
	} else {
		n, ok := p.mv.TextString.Get()
		if !ok {
			return nil, p.undefined(rec, "text-string")
		}
		t.String = n
	}
	var err error
	if t.TextLayer, err = p.modalUint(rec, &p.mv.TextLayer, rec.has(bitTextLayer), rec.layer, "textlayer"); err != nil {
		return nil, err
	}
	if t.TextType, err = p.modalUint(rec, &p.mv.TextType, rec.has(bitTextType), rec.datatype, "texttype"); err != nil {
		return nil, err
	}
	t.X, t.Y = p.mv.resolveXY(&p.mv.TextX, &p.mv.TextY, rec.x, rec.y, rec.has(bitX), rec.has(bitY))
	if t.Rep, err = p.repetition(rec, rec.has(bitRep)); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Parser) decodeRectangle(rec *record) (*Rectangle, error) {
	r := &Rectangle{}
	var err error
	if r.Layer, r.Datatype, err = p.layerDatatype(rec); err != nil {
		return nil, err
	}
	if r.Width, err = p.modalUint(rec, &p.mv.GeometryW, rec.has(bitWidth), rec.w, "geometry-w"); err != nil {
		return nil, err
	}
	if rec.has(bitSquare) {
		r.Height = r.Width
		p.mv.GeometryH.Set(r.Width)
	} else if r.Height, err = p.modalUint(rec, &p.mv.GeometryH, rec.has(bitHeight), rec.h, "geometry-h"); err != nil {
		return nil, err
	}
	r.X, r.Y = p.geometryXY(rec)
	if r.Rep, err = p.repetition(rec, rec.has(bitRep)); err != nil {
		return nil, err
	}
	return r, nil
}

func (p *Parser) decodePolygon(rec *record) (*Polygon, error) {
	pg := &Polygon{}
	var err error
	if pg.Layer, pg.Datatype, err = p.layerDatatype(rec); err != nil {
		return nil, err
	}
	if rec.has(bitPoints) {
		pg.Points = rec.points
		p.mv.PolygonPoints.Set(rec.points)
	} else {
		pts, ok := p.mv.PolygonPoints.Get()
		if !ok {
			return nil, p.undefined(rec, "polygon-point-list")
		}
		pg.Points = pts
	}
	pg.X, pg.Y = p.geometryXY(rec)
	if pg.Rep, err = p.repetition(rec, rec.has(bitRep)); err != nil {
		return nil, err
	}
	return pg, nil
}

func (p *Parser) decodePath(rec *record) (*Path, error) {
	pa := &Path{}
	var err error
	if pa.Layer, pa.Datatype, err = p.layerDatatype(rec); err != nil {
		return nil, err
	}
	if pa.HalfWidth, err = p.modalUint(rec, &p.mv.PathHalfWidth, rec.has(bitHalfWidth), rec.w, "path-halfwidth"); err != nil {
		return nil, err
	}

	startScheme, endScheme := uint64(extReuse), uint64(extReuse)
	if rec.has(bitPathExt) {
		startScheme, endScheme = rec.startScheme, rec.endScheme
	}
	if pa.StartExt, err = p.extension(rec, &p.mv.PathStartExt, startScheme, rec.startExt, pa.HalfWidth, "path-start-extension"); err != nil {
		return nil, err
	}
	if pa.EndExt, err = p.extension(rec, &p.mv.PathEndExt, endScheme, rec.endExt, pa.HalfWidth, "path-end-extension"); err != nil {
		return nil, err
	}

	if rec.has(bitPoints) {
		pa.Points = rec.points
		p.mv.PathPoints.Set(rec.points)
	} else {
		pts, ok := p.mv.PathPoints.Get()
		if !ok {
			return nil, p.undefined(rec, "path-point-list")
		}
		pa.Points = pts
	}
	pa.X, pa.Y = p.geometryXY(rec)
	if pa.Rep, err = p.repetition(rec, rec.has(bitRep)); err != nil {
		return nil, err
	}
	return pa, nil
}

func (p *Parser) extension(rec *record, m *Modal[int64], scheme uint64, explicit int64, halfWidth uint64, name string) (int64, error) {
	var v int64
	switch scheme {
	case extReuse:
		ext, ok := m.Get()
		if !ok {
			return 0, p.undefined(rec, name)
		}
		return ext, nil
	case extFlush:
		v = 0
	case extHalfWidth:
		v = int64(halfWidth)
	default:
		v = explicit
	}
	m.Set(v)
	return v, nil
}

func (p *Parser) decodeTrapezoid(rec *record) (*Trapezoid, error) {
	t := &Trapezoid{Vertical: rec.has(bitVertical), DeltaA: rec.deltaA, DeltaB: rec.deltaB}
	var err error
	if t.Layer, t.Datatype, err = p.layerDatatype(rec); err != nil {
		return nil, err
	}
	if t.Width, err = p.modalUint(rec, &p.mv.GeometryW, rec.has(bitWidth), rec.w, "geometry-w"); err != nil {
		return nil, err
	}
	if t.Height, err = p.modalUint(rec, &p.mv.GeometryH, rec.has(bitHeight), rec.h, "geometry-h"); err != nil {
		return nil, err
	}
	t.X, t.Y = p.geometryXY(rec)
	if t.Rep, err = p.repetition(rec, rec.has(bitRep)); err != nil {
		return nil, err
	}
	return t, nil
}

// ctrapezoidDims reports which dimensions a compact trapezoid type stores.
// Types 16-19 and 25 have h = w, 20-21 have w = 2h and 22-23 have h = 2w.
func ctrapezoidDims(typ uint8) (needW, needH bool) {
	switch {
	case typ >= 16 && typ <= 19, typ == 25, typ == 22, typ == 23:
		return true, false
	case typ == 20 || typ == 21:
		return false, true
	}
	return true, true
}

func ctrapezoidImplied(typ uint8, w, h uint64) (uint64, uint64) {
	switch {
	case typ >= 16 && typ <= 19, typ == 25:
		return w, w
	case typ == 20 || typ == 21:
		return 2 * h, h
	case typ == 22 || typ == 23:
		return w, 2 * w
	}
	return w, h
}

func (p *Parser) decodeCTrapezoid(rec *record) (*CTrapezoid, error) {
	t := &CTrapezoid{}
	var err error
	if t.Layer, t.Datatype, err = p.layerDatatype(rec); err != nil {
		return nil, err
	}
	if rec.has(bitCTrapType) {
		t.Type = uint8(rec.ctype)
		p.mv.CTrapezoidType.Set(t.Type)
	} else {
		typ, ok := p.mv.CTrapezoidType.Get()
		if !ok {
			return nil, p.undefined(rec, "ctrapezoid-type")
		}
		t.Type = typ
	}
	needW, needH := ctrapezoidDims(t.Type)
	if needW {
		if t.Width, err = p.modalUint(rec, &p.mv.GeometryW, rec.has(bitWidth), rec.w, "geometry-w"); err != nil {
			return nil, err
		}
	}
	if needH {
		if t.Height, err = p.modalUint(rec, &p.mv.GeometryH, rec.has(bitHeight), rec.h, "geometry-h"); err != nil {
			return nil, err
		}
	}
	t.Width, t.Height = ctrapezoidImplied(t.Type, t.Width, t.Height)
	t.X, t.Y = p.geometryXY(rec)
	if t.Rep, err = p.repetition(rec, rec.has(bitRep)); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Parser) decodeCircle(rec *record) (*Circle, error) {
	c := &Circle{}
	var err error
	if c.Layer, c.Datatype, err = p.layerDatatype(rec); err != nil {
		return nil, err
	}
	if c.Radius, err = p.modalUint(rec, &p.mv.CircleRadius, rec.has(bitRadius), rec.w, "circle-radius"); err != nil {
		return nil, err
	}
	c.X, c.Y = p.geometryXY(rec)
	if c.Rep, err = p.repetition(rec, rec.has(bitRep)); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Parser) decodeXGeometry(rec *record) (*XGeometry, error) {
	x := &XGeometry{Attribute: rec.attr, Data: rec.data}
	var err error
	if x.Layer, x.Datatype, err = p.layerDatatype(rec); err != nil {
		return nil, err
	}
	x.X, x.Y = p.geometryXY(rec)
	if x.Rep, err = p.repetition(rec, rec.has(bitRep)); err != nil {
		return nil, err
	}
	return x, nil
}
