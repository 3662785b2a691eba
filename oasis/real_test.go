package oasis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealForms(t *testing.T) {
	tests := []struct {
		r     Real
		form  uint8
		value float64
		text  string
	}{
		{Integer(1000), 0, 1000, "1000"},
		{Integer(-3), 1, -3, "-3"},
		{Integer(math.MinInt64), 1, math.MinInt64, "-9223372036854775808"},
		{Reciprocal(4), 2, 0.25, "1/4"},
		{Reciprocal(-2), 3, -0.5, "-1/2"},
		{Ratio(3, 4), 4, 0.75, "3/4"},
		{Ratio(-1, 8), 5, -0.125, "-1/8"},
		{Float32(1.5), 6, 1.5, "1.5"},
		{Float(0.1), 7, 0.1, "0.1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.form, tt.r.Form(), tt.text)
		assert.Equal(t, tt.value, tt.r.Float64(), tt.text)
		assert.Equal(t, tt.text, tt.r.String())
		assert.Equal(t, tt.r, realFromWire(tt.r.wire()))
	}
}

func TestRealIsInteger(t *testing.T) {
	assert.True(t, Integer(7).IsInteger())
	assert.True(t, Ratio(8, 4).IsInteger())
	assert.False(t, Ratio(1, 3).IsInteger())
	assert.False(t, Float(math.Inf(1)).IsInteger())
	assert.True(t, Real{}.IsInteger())
}

func TestIntervalContains(t *testing.T) {
	tests := []struct {
		iv   Interval
		in   []uint64
		out  []uint64
		text string
	}{
		{Interval{Kind: IntervalAll}, []uint64{0, math.MaxUint64}, nil, "*"},
		{Interval{Kind: IntervalUpTo, Hi: 5}, []uint64{0, 5}, []uint64{6}, "0-5"},
		{Interval{Kind: IntervalExact, Lo: 3}, []uint64{3}, []uint64{2, 4}, "3"},
		{Interval{Kind: IntervalFrom, Lo: 3}, []uint64{3, 100}, []uint64{2}, "3-*"},
		{Interval{Kind: IntervalRange, Lo: 2, Hi: 4}, []uint64{2, 4}, []uint64{1, 5}, "2-4"},
	}
	for _, tt := range tests {
		for _, v := range tt.in {
			assert.True(t, tt.iv.Contains(v), "%s contains %d", tt.text, v)
		}
		for _, v := range tt.out {
			assert.False(t, tt.iv.Contains(v), "%s excludes %d", tt.text, v)
		}
		assert.Equal(t, tt.text, tt.iv.String())
	}
}

func TestPointListShape(t *testing.T) {
	rect := PointList{{0, 0}, {10, 0}, {10, 5}, {0, 5}}
	assert.True(t, rect.isManhattan(true))
	assert.True(t, rect.isOctangular(true))

	tri := PointList{{0, 0}, {10, 0}, {10, 10}}
	assert.True(t, tri.isManhattan(false))
	assert.False(t, tri.isManhattan(true))
	assert.True(t, tri.isOctangular(true))

	skew := PointList{{0, 0}, {3, 4}}
	assert.False(t, skew.isOctangular(false))
}
