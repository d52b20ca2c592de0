package coord

import (
	"math"

	"github.com/c9s/chartdesk/pkg/types"
)

// IndexToX maps a data index onto the viewport width. A single point sits
// at the left edge.
func IndexToX(index, n int, vp types.Viewport) float64 {
	if n <= 1 {
		return vp.Left
	}

	return vp.Left + vp.Width*float64(index)/float64(n-1)
}

// TimeToX locates the first point with the exact timestamp and maps its
// index onto the viewport. ok is false when the timestamp is not in the series.
func TimeToX(ts int64, series types.Series, vp types.Viewport) (float64, bool) {
	idx, ok := series.IndexOf(ts)
	if !ok {
		return 0, false
	}

	return IndexToX(idx, series.Len(), vp), true
}

// XToIndex returns the data index nearest to the pixel x, clamped to the series.
func XToIndex(x float64, n int, vp types.Viewport) (int, bool) {
	if n <= 0 {
		return 0, false
	}

	if n == 1 || vp.Width <= 0 {
		return 0, true
	}

	pct := (x - vp.Left) / vp.Width
	pct = math.Max(0, math.Min(1, pct))
	return int(math.Round(pct * float64(n-1))), true
}

// ValueToY maps a value onto the viewport height, higher values to smaller y.
// The result is clamped to the viewport so off-domain values stick to the edges.
func ValueToY(value, domainMin, domainMax float64, vp types.Viewport) float64 {
	span := domainMax - domainMin
	if span == 0 {
		return vp.Top + vp.Height/2.0
	}

	y := vp.Top + vp.Height*(domainMax-value)/span
	return math.Max(vp.Top, math.Min(vp.Bottom(), y))
}

// YToValue is the unclamped inverse of ValueToY.
func YToValue(y, domainMin, domainMax float64, vp types.Viewport) float64 {
	if vp.Height == 0 {
		return (domainMin + domainMax) / 2.0
	}

	return domainMax - (y-vp.Top)/vp.Height*(domainMax-domainMin)
}

// PriceToDisplayValue converts an absolute price for display. In percentage
// unit the price is rebased to the baseline, the first close of the series
// currently loaded.
func PriceToDisplayValue(storedPrice, baselinePrice float64, unit types.DisplayUnit) float64 {
	if unit != types.DisplayUnitPercentage {
		return storedPrice
	}

	if baselinePrice == 0 {
		return 0
	}

	return (storedPrice - baselinePrice) / baselinePrice * 100.0
}

// ConvertValue converts a value between display units around the baseline.
func ConvertValue(value float64, from, to types.DisplayUnit, baselinePrice float64) float64 {
	from, to = from.OrDefault(), to.OrDefault()
	if from == to {
		return value
	}

	if to == types.DisplayUnitPercentage {
		return PriceToDisplayValue(value, baselinePrice, to)
	}

	// percentage -> price
	return baselinePrice * (1 + value/100.0)
}

// DisplayValue is the value of an annotation price as shown in the given unit.
func DisplayValue(stored float64, storedUnit types.DisplayUnit, baselinePrice float64, unit types.DisplayUnit) float64 {
	return ConvertValue(stored, storedUnit, unit, baselinePrice)
}
