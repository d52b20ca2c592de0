package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/chartdesk/pkg/types"
)

func TestResolveYDomain_Auto(t *testing.T) {
	s := buildSeries(100, 120, 110, 140)
	min, max := ResolveYDomain(s, types.AutoDomain(types.DisplayUnitPrice))
	assert.InDelta(t, 98.0, min, 1e-9)
	assert.InDelta(t, 142.0, max, 1e-9)

	min, max = ResolveYDomain(s, types.AutoDomain(types.DisplayUnitPercentage))
	assert.InDelta(t, -2.0, min, 1e-9)
	assert.InDelta(t, 42.0, max, 1e-9)
}

func TestResolveYDomain_Idempotent(t *testing.T) {
	s := buildSeries(3, 1, 4, 1, 5, 9, 2, 6)
	for _, d := range []types.ViewportDomain{
		types.AutoDomain(types.DisplayUnitPrice),
		{Mode: types.DomainModeFixed, Range: 4, DisplayUnit: types.DisplayUnitPrice},
	} {
		min1, max1 := ResolveYDomain(s, d)
		min2, max2 := ResolveYDomain(s, d)
		assert.Equal(t, min1, min2)
		assert.Equal(t, max1, max2)
	}
}

func TestResolveYDomain_Fixed(t *testing.T) {
	s := buildSeries(100, 120, 110, 140)
	min, max := ResolveYDomain(s, types.ViewportDomain{
		Mode:        types.DomainModeFixed,
		Range:       20,
		DisplayUnit: types.DisplayUnitPrice,
	})
	assert.InDelta(t, 110.0, min, 1e-9)
	assert.InDelta(t, 130.0, max, 1e-9)

	// non-positive range falls back to the base range
	min, max = ResolveYDomain(s, types.ViewportDomain{Mode: types.DomainModeFixed})
	assert.InDelta(t, 100.0, min, 1e-9)
	assert.InDelta(t, 140.0, max, 1e-9)
}

func TestResolveYDomain_Degenerate(t *testing.T) {
	min, max := ResolveYDomain(types.Series{}, types.AutoDomain(types.DisplayUnitPrice))
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 1.0, max)

	flat := buildSeries(50, 50, 50)
	min, max = ResolveYDomain(flat, types.AutoDomain(types.DisplayUnitPrice))
	assert.Less(t, min, 50.0)
	assert.Greater(t, max, 50.0)

	assert.Equal(t, 1.0, BaseRange(flat, types.DisplayUnitPrice))

	ladder := DefaultZoomLadder()
	r := ladder.Range(BaseRange(flat, types.DisplayUnitPrice), ladder.DefaultLevel())
	min, max = ResolveYDomain(flat, types.ViewportDomain{Mode: types.DomainModeFixed, Range: r})
	assert.InDelta(t, 49.5, min, 1e-9)
	assert.InDelta(t, 50.5, max, 1e-9)
}

func TestZoomLadder(t *testing.T) {
	ladder := DefaultZoomLadder()
	require.NotNil(t, ladder)

	level := ladder.DefaultLevel()
	assert.Equal(t, 1.0, ladder.Multiplier(level))

	// zooming in narrows the range monotonically until the first step
	prev := ladder.Range(10, level)
	for l := ladder.ZoomIn(level); ; l = ladder.ZoomIn(l) {
		r := ladder.Range(10, l)
		if l == 0 {
			assert.InDelta(t, 0.5, r, 1e-9)
			assert.Equal(t, 0, ladder.ZoomIn(l))
			break
		}
		assert.Less(t, r, prev)
		prev = r
	}

	prev = ladder.Range(10, level)
	for l := ladder.ZoomOut(level); ; l = ladder.ZoomOut(l) {
		r := ladder.Range(10, l)
		assert.Greater(t, r, prev)
		prev = r
		if l == ladder.Len()-1 {
			assert.Equal(t, l, ladder.ZoomOut(l))
			break
		}
	}

	assert.Equal(t, 1.0, ladder.Range(0, level))
}

func TestNewZoomLadder_Invalid(t *testing.T) {
	_, err := NewZoomLadder(nil)
	assert.Error(t, err)

	_, err = NewZoomLadder([]float64{1, 0.5})
	assert.Error(t, err)

	_, err = NewZoomLadder([]float64{-1, 2})
	assert.Error(t, err)
}
