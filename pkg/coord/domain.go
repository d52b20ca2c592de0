package coord

import (
	"gonum.org/v1/gonum/floats"

	"github.com/c9s/chartdesk/pkg/types"
)

// AutoPadding is the fraction of the value range added above and below
// the extremes in auto mode.
const AutoPadding = 0.05

// Extremes returns the unpadded min and max of values. A flat set is
// widened to a base range of 1 so the domain never collapses.
func Extremes(values []float64) (min, max, baseRange float64, ok bool) {
	if len(values) == 0 {
		return 0, 1, 1, false
	}

	min, max = floats.Min(values), floats.Max(values)
	baseRange = max - min
	if baseRange == 0 {
		baseRange = 1
	}

	return min, max, baseRange, true
}

// ResolveYDomainValues applies the domain rules to an arbitrary set of plotted values.
func ResolveYDomainValues(values []float64, domain types.ViewportDomain) (float64, float64) {
	min, max, baseRange, ok := Extremes(values)
	if !ok {
		return 0, 1
	}

	if domain.Mode == types.DomainModeFixed {
		center := (min + max) / 2.0
		r := domain.Range
		if r <= 0 {
			r = baseRange
		}
		return center - r/2.0, center + r/2.0
	}

	if max == min {
		center := min
		return center - baseRange/2.0 - AutoPadding*baseRange, center + baseRange/2.0 + AutoPadding*baseRange
	}

	pad := (max - min) * AutoPadding
	return min - pad, max + pad
}

// ResolveYDomain returns the [min, max] value range mapped onto the
// viewport height. Values are closes in price unit or the percentage change
// from the first point in percentage unit.
func ResolveYDomain(series types.Series, domain types.ViewportDomain) (float64, float64) {
	return ResolveYDomainValues(series.Values(domain.DisplayUnit.OrDefault()), domain)
}

// BaseRange is the unpadded extent of the series in the given unit, the
// quantity the zoom ladder multiplies.
func BaseRange(series types.Series, unit types.DisplayUnit) float64 {
	_, _, baseRange, _ := Extremes(series.Values(unit.OrDefault()))
	return baseRange
}
