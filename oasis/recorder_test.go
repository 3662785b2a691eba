package oasis

import (
	"fmt"
	"slices"
	"strings"
)

// recorder captures Builder events as text.
type recorder struct {
	events []string
}

var _ Builder = (*recorder)(nil)

func (r *recorder) add(format string, args ...any) error {
	r.events = append(r.events, fmt.Sprintf(format, args...))
	return nil
}

// cells returns the names passed to BeginCell, in order.
func (r *recorder) cells() []string {
	var names []string
	for _, e := range r.events {
		if name, ok := strings.CutPrefix(e, "cell "); ok {
			names = append(names, name)
		}
	}
	return names
}

func repString(rep *Repetition) string {
	if rep == nil {
		return "-"
	}
	return fmt.Sprintf("%s%v", rep.Type(), slices.Collect(rep.Offsets()))
}

func propString(p *Property) string {
	vals := make([]string, len(p.Values))
	for i, v := range p.Values {
		vals[i] = v.String()
	}
	return fmt.Sprintf("%s std=%t [%s]", p.Name, p.Standard, strings.Join(vals, " "))
}

func (r *recorder) BeginFile(version string, unit Real, scheme ValidationScheme) error {
	return r.add("file %s unit=%s %s", version, unit, scheme)
}

func (r *recorder) EndFile() error { return r.add("endfile") }

func (r *recorder) BeginCell(n Name) error { return r.add("cell %s", n) }

func (r *recorder) EndCell() error { return r.add("endcell") }

func (r *recorder) BeginPlacement(p *Placement) error {
	return r.add("placement %s (%d,%d) mag=%g angle=%g flip=%t rep=%s",
		p.Cell, p.X, p.Y, p.Mag.Float64(), p.Angle.Float64(), p.Flip, repString(p.Rep))
}

func (r *recorder) BeginText(t *Text) error {
	return r.add("text %q %d/%d (%d,%d) rep=%s", t.String.String(), t.TextLayer, t.TextType, t.X, t.Y, repString(t.Rep))
}

func (r *recorder) BeginRectangle(x *Rectangle) error {
	return r.add("rectangle %d/%d (%d,%d) %dx%d rep=%s", x.Layer, x.Datatype, x.X, x.Y, x.Width, x.Height, repString(x.Rep))
}

func (r *recorder) BeginPolygon(p *Polygon) error {
	return r.add("polygon %d/%d (%d,%d) %v rep=%s", p.Layer, p.Datatype, p.X, p.Y, []Delta(p.Points), repString(p.Rep))
}

func (r *recorder) BeginPath(p *Path) error {
	return r.add("path %d/%d (%d,%d) hw=%d ext=%d,%d %v rep=%s",
		p.Layer, p.Datatype, p.X, p.Y, p.HalfWidth, p.StartExt, p.EndExt, []Delta(p.Points), repString(p.Rep))
}

func (r *recorder) BeginTrapezoid(t *Trapezoid) error {
	return r.add("trapezoid %d/%d (%d,%d) %dx%d v=%t a=%d b=%d rep=%s",
		t.Layer, t.Datatype, t.X, t.Y, t.Width, t.Height, t.Vertical, t.DeltaA, t.DeltaB, repString(t.Rep))
}

func (r *recorder) BeginCTrapezoid(t *CTrapezoid) error {
	return r.add("ctrapezoid %d/%d (%d,%d) type=%d %dx%d rep=%s",
		t.Layer, t.Datatype, t.X, t.Y, t.Type, t.Width, t.Height, repString(t.Rep))
}

func (r *recorder) BeginCircle(c *Circle) error {
	return r.add("circle %d/%d (%d,%d) r=%d rep=%s", c.Layer, c.Datatype, c.X, c.Y, c.Radius, repString(c.Rep))
}

func (r *recorder) BeginXElement(x *XElement) error {
	return r.add("xelement %d %q", x.Attribute, x.Data)
}

func (r *recorder) BeginXGeometry(x *XGeometry) error {
	return r.add("xgeometry %d/%d (%d,%d) %d %q rep=%s", x.Layer, x.Datatype, x.X, x.Y, x.Attribute, x.Data, repString(x.Rep))
}

func (r *recorder) EndElement() error { return r.add("end") }

func (r *recorder) AddFileProperty(p *Property) error { return r.add("fileprop %s", propString(p)) }

func (r *recorder) AddCellProperty(p *Property) error { return r.add("cellprop %s", propString(p)) }

func (r *recorder) AddElementProperty(p *Property) error {
	return r.add("elemprop %s", propString(p))
}

func (r *recorder) RegisterCellName(n Name) error { return r.add("cellname %s", n) }

func (r *recorder) RegisterTextString(n Name) error { return r.add("textstring %s", n) }

// RegisterPropName skips S_CELL_OFFSET, which every Creator adds to files
// with deferred tables.
func (r *recorder) RegisterPropName(n Name) error {
	if n.String() == PropCellOffset {
		return nil
	}
	return r.add("propname %s", n)
}

func (r *recorder) RegisterPropString(n Name) error { return r.add("propstring %s", n) }

func (r *recorder) RegisterLayerName(l *LayerName) error {
	return r.add("layername %s %s %s text=%t", l.Name, l.Layers, l.Types, l.Text)
}

func (r *recorder) RegisterXName(n Name) error { return r.add("xname %s attr=%d", n, n.Attribute()) }
