package oasis

import (
	"math"
	"strconv"

	"github.com/wippyai/oasis/oasis/internal/binary"
)

// Real is an OASIS real number kept in its wire form, so that rationals
// survive a decode/encode cycle without rounding. The zero value is the
// integer 0.
type Real struct {
	form uint8
	num  uint64
	den  uint64
	f    float64
}

// Integer returns v as a type 0 or 1 real.
func Integer(v int64) Real {
	if v < 0 {
		return Real{form: 1, num: uint64(-(v + 1)) + 1}
	}
	return Real{form: 0, num: uint64(v)}
}

// Reciprocal returns 1/den as a type 2 or 3 real. den must not be zero.
func Reciprocal(den int64) Real {
	if den < 0 {
		return Real{form: 3, den: uint64(-(den + 1)) + 1}
	}
	return Real{form: 2, den: uint64(den)}
}

// Ratio returns num/den as a type 4 or 5 real. den must not be zero.
func Ratio(num int64, den uint64) Real {
	if num < 0 {
		return Real{form: 5, num: uint64(-(num + 1)) + 1, den: den}
	}
	return Real{form: 4, num: uint64(num), den: den}
}

// Float returns v as a type 7 (double precision) real.
func Float(v float64) Real {
	return Real{form: 7, f: v}
}

// Float32 returns v as a type 6 (single precision) real.
func Float32(v float32) Real {
	return Real{form: 6, f: float64(v)}
}

// Form returns the wire type 0..7.
func (r Real) Form() uint8 {
	return r.form
}

// Float64 returns the value of r.
func (r Real) Float64() float64 {
	switch r.form {
	case 0:
		return float64(r.num)
	case 1:
		return -float64(r.num)
	case 2:
		return 1 / float64(r.den)
	case 3:
		return -1 / float64(r.den)
	case 4:
		return float64(r.num) / float64(r.den)
	case 5:
		return -float64(r.num) / float64(r.den)
	default:
		return r.f
	}
}

// IsInteger reports whether r has an exact integral value.
func (r Real) IsInteger() bool {
	v := r.Float64()
	return v == math.Trunc(v) && !math.IsInf(v, 0)
}

func (r Real) String() string {
	switch r.form {
	case 0:
		return strconv.FormatUint(r.num, 10)
	case 1:
		return "-" + strconv.FormatUint(r.num, 10)
	case 2:
		return "1/" + strconv.FormatUint(r.den, 10)
	case 3:
		return "-1/" + strconv.FormatUint(r.den, 10)
	case 4:
		return strconv.FormatUint(r.num, 10) + "/" + strconv.FormatUint(r.den, 10)
	case 5:
		return "-" + strconv.FormatUint(r.num, 10) + "/" + strconv.FormatUint(r.den, 10)
	default:
		return strconv.FormatFloat(r.f, 'g', -1, 64)
	}
}

func realFromWire(v binary.Real) Real {
	return Real{form: v.Form, num: v.Num, den: v.Den, f: v.Float}
}

func (r Real) wire() binary.Real {
	return binary.Real{Form: r.form, Num: r.num, Den: r.den, Float: r.f}
}
