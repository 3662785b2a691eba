package oasis

import "fmt"

// Delta is a displacement in database units.
type Delta struct {
	X, Y int64
}

// Add returns d+o.
func (d Delta) Add(o Delta) Delta {
	return Delta{X: d.X + o.X, Y: d.Y + o.Y}
}

func (d Delta) String() string {
	return fmt.Sprintf("(%d,%d)", d.X, d.Y)
}

// PointList holds the vertices of a polygon or path as offsets from the
// element position. The first vertex is always (0,0). Polygons are closed
// implicitly; the closing edge is not stored.
type PointList []Delta

// Equal reports whether both lists hold the same vertices.
func (p PointList) Equal(o PointList) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

func (p PointList) isManhattan(closed bool) bool {
	return p.allEdges(closed, func(d Delta) bool { return d.X == 0 || d.Y == 0 })
}

func (p PointList) isOctangular(closed bool) bool {
	return p.allEdges(closed, func(d Delta) bool {
		return d.X == 0 || d.Y == 0 || d.X == d.Y || d.X == -d.Y
	})
}

func (p PointList) allEdges(closed bool, ok func(Delta) bool) bool {
	for i := 1; i < len(p); i++ {
		if !ok(Delta{X: p[i].X - p[i-1].X, Y: p[i].Y - p[i-1].Y}) {
			return false
		}
	}
	if closed && len(p) > 0 {
		last := p[len(p)-1]
		return ok(Delta{X: -last.X, Y: -last.Y})
	}
	return true
}

// IntervalKind selects the shape of an Interval.
type IntervalKind uint8

const (
	IntervalAll   IntervalKind = iota // 0..infinity
	IntervalUpTo                      // 0..Hi
	IntervalExact                     // Lo..Lo
	IntervalFrom                      // Lo..infinity
	IntervalRange                     // Lo..Hi
)

// Interval is a range of layer or datatype numbers as used by LAYERNAME
// records.
type Interval struct {
	Kind IntervalKind
	Lo   uint64
	Hi   uint64
}

// Contains reports whether v lies in the interval.
func (iv Interval) Contains(v uint64) bool {
	switch iv.Kind {
	case IntervalAll:
		return true
	case IntervalUpTo:
		return v <= iv.Hi
	case IntervalExact:
		return v == iv.Lo
	case IntervalFrom:
		return v >= iv.Lo
	default:
		return v >= iv.Lo && v <= iv.Hi
	}
}

func (iv Interval) String() string {
	switch iv.Kind {
	case IntervalAll:
		return "*"
	case IntervalUpTo:
		return fmt.Sprintf("0-%d", iv.Hi)
	case IntervalExact:
		return fmt.Sprintf("%d", iv.Lo)
	case IntervalFrom:
		return fmt.Sprintf("%d-*", iv.Lo)
	default:
		return fmt.Sprintf("%d-%d", iv.Lo, iv.Hi)
	}
}

// LayerName associates a name with a range of layers and types.
// Text selects the text-layer form (record 12) over the geometry form.
type LayerName struct {
	Name   Name
	Layers Interval
	Types  Interval
	Text   bool
}

// ValidationScheme is the END record's integrity check.
type ValidationScheme uint8

const (
	ValidationNone ValidationScheme = iota
	ValidationCRC32
	ValidationChecksum32
)

func (s ValidationScheme) String() string {
	switch s {
	case ValidationNone:
		return "none"
	case ValidationCRC32:
		return "crc32"
	case ValidationChecksum32:
		return "checksum32"
	default:
		return fmt.Sprintf("ValidationScheme(%d)", uint8(s))
	}
}

// Validation is the scheme and signature found in an END record.
type Validation struct {
	Scheme    ValidationScheme
	Signature uint32
}

// Position locates a record. Block is -1 for a record in the plain file
// stream; otherwise File is the offset of the enclosing CBLOCK and Block the
// offset within its decompressed contents.
type Position struct {
	File  int64
	Block int64
}

func (p Position) String() string {
	if p.Block < 0 {
		return fmt.Sprintf("%d", p.File)
	}
	return fmt.Sprintf("%d+%d", p.File, p.Block)
}

// Placement is an instance of a cell. Angle is counterclockwise in degrees;
// Flip mirrors across the x axis before rotation.
type Placement struct {
	Cell  Name
	X, Y  int64
	Mag   Real
	Angle Real
	Flip  bool
	Rep   *Repetition
}

// Text is a text element. String is a TextString name.
type Text struct {
	String    Name
	TextLayer uint64
	TextType  uint64
	X, Y      int64
	Rep       *Repetition
}

// Rectangle is an axis-aligned box with its lower left corner at X, Y.
type Rectangle struct {
	Layer, Datatype uint64
	X, Y            int64
	Width, Height   uint64
	Rep             *Repetition
}

// Polygon is a closed polygon.
type Polygon struct {
	Layer, Datatype uint64
	X, Y            int64
	Points          PointList
	Rep             *Repetition
}

// Path is a wire with a half-width and start and end extensions.
type Path struct {
	Layer, Datatype uint64
	X, Y            int64
	HalfWidth       uint64
	StartExt        int64
	EndExt          int64
	Points          PointList
	Rep             *Repetition
}

// Trapezoid has two horizontal (or, when Vertical, two vertical) edges.
// DeltaA and DeltaB displace the corners of the far edge.
type Trapezoid struct {
	Layer, Datatype uint64
	X, Y            int64
	Width, Height   uint64
	Vertical        bool
	DeltaA          int64
	DeltaB          int64
	Rep             *Repetition
}

// CTrapezoid is a compact trapezoid of one of the 26 predefined shapes.
type CTrapezoid struct {
	Layer, Datatype uint64
	X, Y            int64
	Type            uint8
	Width, Height   uint64
	Rep             *Repetition
}

// Circle is centered on X, Y.
type Circle struct {
	Layer, Datatype uint64
	X, Y            int64
	Radius          uint64
	Rep             *Repetition
}

// XElement is an opaque extension element.
type XElement struct {
	Attribute uint64
	Data      []byte
}

// XGeometry is an opaque extension geometry.
type XGeometry struct {
	Layer, Datatype uint64
	X, Y            int64
	Attribute       uint64
	Data            []byte
	Rep             *Repetition
}

// PropValueKind selects the payload of a PropValue.
type PropValueKind uint8

const (
	PropReal PropValueKind = iota
	PropUnsigned
	PropSigned
	PropAString
	PropBString
	PropNString
)

// PropValue is one property value. Strings are PropString names whether the
// file stored them literally or by reference number.
type PropValue struct {
	Kind PropValueKind
	Real Real
	Uint uint64
	Int  int64
	Str  Name
}

func (v PropValue) String() string {
	switch v.Kind {
	case PropReal:
		return v.Real.String()
	case PropUnsigned:
		return fmt.Sprintf("%d", v.Uint)
	case PropSigned:
		return fmt.Sprintf("%d", v.Int)
	default:
		return fmt.Sprintf("%q", v.Str.String())
	}
}

func (v PropValue) equal(o PropValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case PropReal:
		return v.Real == o.Real
	case PropUnsigned:
		return v.Uint == o.Uint
	case PropSigned:
		return v.Int == o.Int
	default:
		return v.Str.String() == o.Str.String()
	}
}

// PropValues is a property's value list.
type PropValues []PropValue

// Equal reports whether both lists hold equal values.
func (p PropValues) Equal(o PropValues) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].equal(o[i]) {
			return false
		}
	}
	return true
}

// Property is a named value list attached to the file, a cell, an element
// or a name record. Standard marks the S bit of standard properties.
type Property struct {
	Name     Name
	Values   PropValues
	Standard bool
}

// Standard property names.
const (
	PropCellOffset         = "S_CELL_OFFSET"
	PropMaxSignedInteger   = "S_MAX_SIGNED_INTEGER_WIDTH"
	PropMaxUnsignedInteger = "S_MAX_UNSIGNED_INTEGER_WIDTH"
	PropMaxStringLength    = "S_MAX_STRING_LENGTH"
	PropTopCell            = "S_TOP_CELL"
)
