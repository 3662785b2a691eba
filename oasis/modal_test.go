package oasis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModalSetIfDifferent(t *testing.T) {
	var m Modal[uint64]
	assert.False(t, m.IsSet())
	assert.True(t, m.SetIfDifferent(0), "unset variable must be written")
	assert.False(t, m.SetIfDifferent(0))
	assert.True(t, m.SetIfDifferent(3))
	v, ok := m.Get()
	assert.True(t, ok)
	assert.Equal(t, uint64(3), v)

	m.Reset()
	assert.False(t, m.IsSet())
}

func TestModalValueUsesEqual(t *testing.T) {
	var m ModalValue[PointList]
	assert.True(t, m.SetIfDifferent(PointList{{0, 0}, {1, 0}}))
	assert.False(t, m.SetIfDifferent(PointList{{0, 0}, {1, 0}}))
	assert.True(t, m.SetIfDifferent(PointList{{0, 0}, {0, 1}}))

	var r ModalValue[*Repetition]
	assert.True(t, r.SetIfDifferent(NewUniformX(2, 5)))
	assert.False(t, r.SetIfDifferent(NewUniformX(2, 5)))
}

func TestModalVarsReset(t *testing.T) {
	var mv ModalVars
	mv.XYMode = XYRelative
	mv.Layer.Set(4)
	mv.PlacementX.Set(100)
	mv.PathStartExt.Set(3)
	mv.PropStandard.Set(true)

	mv.Reset()
	assert.Equal(t, XYAbsolute, mv.XYMode)
	assert.False(t, mv.Layer.IsSet())
	assert.False(t, mv.PathStartExt.IsSet())
	assert.False(t, mv.PropStandard.IsSet())
	assert.False(t, mv.Repetition.IsSet())
	for _, m := range []*Modal[int64]{&mv.PlacementX, &mv.PlacementY, &mv.TextX, &mv.TextY, &mv.GeometryX, &mv.GeometryY} {
		v, ok := m.Get()
		assert.True(t, ok)
		assert.Zero(t, v)
	}
}

func TestResolveXY(t *testing.T) {
	var mv ModalVars
	mv.Reset()

	x, y := mv.resolveXY(&mv.GeometryX, &mv.GeometryY, 5, 7, true, true)
	assert.Equal(t, []int64{5, 7}, []int64{x, y})
	x, y = mv.resolveXY(&mv.GeometryX, &mv.GeometryY, 9, 0, true, false)
	assert.Equal(t, []int64{9, 7}, []int64{x, y})

	mv.XYMode = XYRelative
	x, y = mv.resolveXY(&mv.GeometryX, &mv.GeometryY, 1, -2, true, true)
	assert.Equal(t, []int64{10, 5}, []int64{x, y})
	// Text positions are tracked separately.
	x, y = mv.resolveXY(&mv.TextX, &mv.TextY, 1, 1, true, true)
	assert.Equal(t, []int64{1, 1}, []int64{x, y})
}
