package oasis

import (
	"fmt"
	"iter"
)

// RepetitionType is the wire type of a repetition.
type RepetitionType uint8

const (
	RepReuse RepetitionType = iota
	RepMatrix
	RepUniformX
	RepUniformY
	RepVaryingX
	RepGridVaryingX
	RepVaryingY
	RepGridVaryingY
	RepTiltedMatrix
	RepDiagonal
	RepArbitrary
	RepGridArbitrary
)

var repetitionNames = [...]string{
	"reuse", "matrix", "uniform-x", "uniform-y", "varying-x", "grid-varying-x",
	"varying-y", "grid-varying-y", "tilted-matrix", "diagonal", "arbitrary", "grid-arbitrary",
}

func (t RepetitionType) String() string {
	if int(t) < len(repetitionNames) {
		return repetitionNames[t]
	}
	return fmt.Sprintf("RepetitionType(%d)", uint8(t))
}

// Repetition stands for copies of one element at a set of offsets. The
// first offset is always (0,0). For list variants the offsets are the
// cumulative positions, already multiplied by the grid for grid variants.
// A Repetition is immutable once constructed.
type Repetition struct {
	typ    RepetitionType
	n, m   uint64  // counts: matrix x/y, tilted n/m, uniform and diagonal use n
	a, b   Delta   // spacing: matrix (a.X, b.Y), uniform a, tilted a and b, diagonal a
	grid   uint64  // grid variants
	coords []int64 // varying X/Y
	deltas []Delta // arbitrary
}

// NewReuse returns a repetition equal to the previous one in the cell.
func NewReuse() *Repetition {
	return &Repetition{typ: RepReuse}
}

// NewMatrix returns an xCount by yCount array with the given spacings.
func NewMatrix(xCount, yCount uint64, xSpace, ySpace int64) *Repetition {
	return &Repetition{typ: RepMatrix, n: xCount, m: yCount, a: Delta{X: xSpace}, b: Delta{Y: ySpace}}
}

// NewUniformX returns count copies spaced along the x axis.
func NewUniformX(count uint64, space int64) *Repetition {
	return &Repetition{typ: RepUniformX, n: count, a: Delta{X: space}}
}

// NewUniformY returns count copies spaced along the y axis.
func NewUniformY(count uint64, space int64) *Repetition {
	return &Repetition{typ: RepUniformY, n: count, a: Delta{Y: space}}
}

// NewVaryingX returns copies at the given x offsets. offsets[0] must be 0.
func NewVaryingX(offsets []int64) *Repetition {
	return &Repetition{typ: RepVaryingX, coords: offsets}
}

// NewGridVaryingX is NewVaryingX with every offset a multiple of grid.
func NewGridVaryingX(grid uint64, offsets []int64) *Repetition {
	return &Repetition{typ: RepGridVaryingX, grid: grid, coords: offsets}
}

// NewVaryingY returns copies at the given y offsets. offsets[0] must be 0.
func NewVaryingY(offsets []int64) *Repetition {
	return &Repetition{typ: RepVaryingY, coords: offsets}
}

// NewGridVaryingY is NewVaryingY with every offset a multiple of grid.
func NewGridVaryingY(grid uint64, offsets []int64) *Repetition {
	return &Repetition{typ: RepGridVaryingY, grid: grid, coords: offsets}
}

// NewTiltedMatrix returns the array i*n + j*m for i < nCount, j < mCount.
func NewTiltedMatrix(nCount, mCount uint64, n, m Delta) *Repetition {
	return &Repetition{typ: RepTiltedMatrix, n: nCount, m: mCount, a: n, b: m}
}

// NewDiagonal returns count copies along step.
func NewDiagonal(count uint64, step Delta) *Repetition {
	return &Repetition{typ: RepDiagonal, n: count, a: step}
}

// NewArbitrary returns copies at the given offsets. offsets[0] must be (0,0).
func NewArbitrary(offsets []Delta) *Repetition {
	return &Repetition{typ: RepArbitrary, deltas: offsets}
}

// NewGridArbitrary is NewArbitrary with every coordinate a multiple of grid.
func NewGridArbitrary(grid uint64, offsets []Delta) *Repetition {
	return &Repetition{typ: RepGridArbitrary, grid: grid, deltas: offsets}
}

// Type returns the variant.
func (r *Repetition) Type() RepetitionType {
	return r.typ
}

// Dimensions returns the two counts of a matrix or tilted matrix, or the
// count and 1 for one-dimensional variants.
func (r *Repetition) Dimensions() (uint64, uint64) {
	switch r.typ {
	case RepMatrix, RepTiltedMatrix:
		return r.n, r.m
	default:
		return r.Count(), 1
	}
}

// Spacing returns the step vectors: matrix spacings, tilted basis vectors,
// or the single step of uniform and diagonal variants as the first value.
func (r *Repetition) Spacing() (Delta, Delta) {
	return r.a, r.b
}

// Grid returns the grid of a grid variant, or 0.
func (r *Repetition) Grid() uint64 {
	return r.grid
}

// Count returns the number of instances.
func (r *Repetition) Count() uint64 {
	switch r.typ {
	case RepReuse:
		return 1
	case RepMatrix, RepTiltedMatrix:
		return r.n * r.m
	case RepUniformX, RepUniformY, RepDiagonal:
		return r.n
	case RepVaryingX, RepGridVaryingX, RepVaryingY, RepGridVaryingY:
		return uint64(len(r.coords))
	case RepArbitrary, RepGridArbitrary:
		return uint64(len(r.deltas))
	}
	panic(fmt.Sprintf("oasis: unknown repetition type %d", r.typ))
}

// Offsets yields every instance offset in wire order. The sequence may be
// iterated any number of times.
func (r *Repetition) Offsets() iter.Seq[Delta] {
	return func(yield func(Delta) bool) {
		switch r.typ {
		case RepReuse:
			yield(Delta{})
		case RepMatrix, RepTiltedMatrix:
			for j := uint64(0); j < r.m; j++ {
				for i := uint64(0); i < r.n; i++ {
					d := Delta{
						X: int64(i)*r.a.X + int64(j)*r.b.X,
						Y: int64(i)*r.a.Y + int64(j)*r.b.Y,
					}
					if !yield(d) {
						return
					}
				}
			}
		case RepUniformX, RepUniformY, RepDiagonal:
			for i := uint64(0); i < r.n; i++ {
				if !yield(Delta{X: int64(i) * r.a.X, Y: int64(i) * r.a.Y}) {
					return
				}
			}
		case RepVaryingX, RepGridVaryingX:
			for _, x := range r.coords {
				if !yield(Delta{X: x}) {
					return
				}
			}
		case RepVaryingY, RepGridVaryingY:
			for _, y := range r.coords {
				if !yield(Delta{Y: y}) {
					return
				}
			}
		case RepArbitrary, RepGridArbitrary:
			for _, d := range r.deltas {
				if !yield(d) {
					return
				}
			}
		default:
			panic(fmt.Sprintf("oasis: unknown repetition type %d", r.typ))
		}
	}
}

// Validate reports parameters that cannot be encoded.
func (r *Repetition) Validate() error {
	switch r.typ {
	case RepReuse:
		return nil
	case RepMatrix, RepTiltedMatrix:
		if r.n < 2 || r.m < 2 {
			return fmt.Errorf("%s repetition needs both counts >= 2, got %dx%d", r.typ, r.n, r.m)
		}
		if r.typ == RepMatrix && (r.a.X < 0 || r.b.Y < 0) {
			return fmt.Errorf("matrix repetition with negative spacing")
		}
	case RepUniformX, RepUniformY, RepDiagonal:
		if r.n < 2 {
			return fmt.Errorf("%s repetition needs count >= 2, got %d", r.typ, r.n)
		}
		if r.typ != RepDiagonal && (r.a.X < 0 || r.a.Y < 0) {
			return fmt.Errorf("%s repetition with negative spacing", r.typ)
		}
	case RepVaryingX, RepGridVaryingX, RepVaryingY, RepGridVaryingY:
		if len(r.coords) < 2 {
			return fmt.Errorf("%s repetition needs at least 2 offsets", r.typ)
		}
		if r.coords[0] != 0 {
			return fmt.Errorf("%s repetition must start at 0", r.typ)
		}
		for i := 1; i < len(r.coords); i++ {
			if r.coords[i] < r.coords[i-1] {
				return fmt.Errorf("%s repetition offsets decrease at %d", r.typ, i)
			}
		}
		if r.typ == RepGridVaryingX || r.typ == RepGridVaryingY {
			if err := r.checkGrid(); err != nil {
				return err
			}
		}
	case RepArbitrary, RepGridArbitrary:
		if len(r.deltas) < 2 {
			return fmt.Errorf("%s repetition needs at least 2 offsets", r.typ)
		}
		if r.deltas[0] != (Delta{}) {
			return fmt.Errorf("%s repetition must start at (0,0)", r.typ)
		}
		if r.typ == RepGridArbitrary {
			if err := r.checkGrid(); err != nil {
				return err
			}
		}
	default:
		panic(fmt.Sprintf("oasis: unknown repetition type %d", r.typ))
	}
	return nil
}

func (r *Repetition) checkGrid() error {
	if r.grid == 0 {
		return fmt.Errorf("%s repetition with zero grid", r.typ)
	}
	g := int64(r.grid)
	for _, c := range r.coords {
		if c%g != 0 {
			return fmt.Errorf("%s offset %d is not a multiple of grid %d", r.typ, c, g)
		}
	}
	for _, d := range r.deltas {
		if d.X%g != 0 || d.Y%g != 0 {
			return fmt.Errorf("%s offset %v is not a multiple of grid %d", r.typ, d, g)
		}
	}
	return nil
}

// Equal reports whether both repetitions have the same variant and
// parameters. A nil repetition equals only nil.
func (r *Repetition) Equal(o *Repetition) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.typ != o.typ || r.n != o.n || r.m != o.m || r.a != o.a || r.b != o.b || r.grid != o.grid {
		return false
	}
	if len(r.coords) != len(o.coords) || len(r.deltas) != len(o.deltas) {
		return false
	}
	for i := range r.coords {
		if r.coords[i] != o.coords[i] {
			return false
		}
	}
	for i := range r.deltas {
		if r.deltas[i] != o.deltas[i] {
			return false
		}
	}
	return true
}

func (r *Repetition) String() string {
	switch r.typ {
	case RepMatrix:
		return fmt.Sprintf("matrix %dx%d step (%d,%d)", r.n, r.m, r.a.X, r.b.Y)
	case RepTiltedMatrix:
		return fmt.Sprintf("tilted-matrix %dx%d n=%v m=%v", r.n, r.m, r.a, r.b)
	case RepUniformX, RepUniformY, RepDiagonal:
		return fmt.Sprintf("%s %d step %v", r.typ, r.n, r.a)
	default:
		return fmt.Sprintf("%s %d", r.typ, r.Count())
	}
}
