package oasis

// Modal holds the last value of one modal variable.
type Modal[T comparable] struct {
	v  T
	ok bool
}

// Get returns the value and whether it is defined.
func (m *Modal[T]) Get() (T, bool) {
	return m.v, m.ok
}

// IsSet reports whether the variable is defined.
func (m *Modal[T]) IsSet() bool {
	return m.ok
}

// Set defines the variable.
func (m *Modal[T]) Set(v T) {
	m.v, m.ok = v, true
}

// Reset makes the variable undefined.
func (m *Modal[T]) Reset() {
	var zero T
	m.v, m.ok = zero, false
}

// SetIfDifferent stores v and reports whether it differs from the defined
// value, that is whether a record must carry the field explicitly.
func (m *Modal[T]) SetIfDifferent(v T) bool {
	if m.ok && m.v == v {
		return false
	}
	m.v, m.ok = v, true
	return true
}

// Equaler is implemented by values compared with an Equal method.
type Equaler[T any] interface {
	Equal(T) bool
}

// ModalValue is Modal for values that are not comparable with ==.
type ModalValue[T Equaler[T]] struct {
	v  T
	ok bool
}

func (m *ModalValue[T]) Get() (T, bool) {
	return m.v, m.ok
}

func (m *ModalValue[T]) IsSet() bool {
	return m.ok
}

func (m *ModalValue[T]) Set(v T) {
	m.v, m.ok = v, true
}

func (m *ModalValue[T]) Reset() {
	var zero T
	m.v, m.ok = zero, false
}

func (m *ModalValue[T]) SetIfDifferent(v T) bool {
	if m.ok && m.v.Equal(v) {
		return false
	}
	m.v, m.ok = v, true
	return true
}

// XYMode selects how element positions are stored.
type XYMode uint8

const (
	XYAbsolute XYMode = iota
	XYRelative
)

// ModalVars is the modal variable store of one decode or encode session.
// Magnification and angle are not modal: an omitted field means 1 or 0.
type ModalVars struct {
	XYMode XYMode

	PlacementX    Modal[int64]
	PlacementY    Modal[int64]
	PlacementCell Modal[Name]

	Layer    Modal[uint64]
	Datatype Modal[uint64]

	TextLayer  Modal[uint64]
	TextType   Modal[uint64]
	TextX      Modal[int64]
	TextY      Modal[int64]
	TextString Modal[Name]

	GeometryX Modal[int64]
	GeometryY Modal[int64]
	GeometryW Modal[uint64]
	GeometryH Modal[uint64]

	PolygonPoints ModalValue[PointList]

	PathHalfWidth Modal[uint64]
	PathPoints    ModalValue[PointList]
	PathStartExt  Modal[int64]
	PathEndExt    Modal[int64]

	CTrapezoidType Modal[uint8]
	CircleRadius   Modal[uint64]

	PropName     Modal[Name]
	PropValues   ModalValue[PropValues]
	PropStandard Modal[bool]

	Repetition ModalValue[*Repetition]
}

// Reset restores the state at the start of a cell: absolute mode, all
// positions 0 and every other variable undefined.
func (m *ModalVars) Reset() {
	*m = ModalVars{}
	m.PlacementX.Set(0)
	m.PlacementY.Set(0)
	m.TextX.Set(0)
	m.TextY.Set(0)
	m.GeometryX.Set(0)
	m.GeometryY.Set(0)
}

// resolveXY applies the xy mode to the coordinates a record carries and
// returns the absolute position, updating the modal pair.
func (m *ModalVars) resolveXY(mx, my *Modal[int64], x, y int64, hasX, hasY bool) (int64, int64) {
	cx, _ := mx.Get()
	cy, _ := my.Get()
	if hasX {
		if m.XYMode == XYRelative {
			cx += x
		} else {
			cx = x
		}
		mx.Set(cx)
	}
	if hasY {
		if m.XYMode == XYRelative {
			cy += y
		} else {
			cy = y
		}
		my.Set(cy)
	}
	return cx, cy
}
