package coord

import (
	"github.com/c9s/chartdesk/pkg/types"
)

// Frame bundles everything one render or interaction pass maps through:
// the active series, the target viewport and the Y-axis domain.
//
// DomainValues overrides the values the Y domain is resolved from, and a
// non-zero BaselinePrice overrides the first close of the series. The
// comparison view sets both.
type Frame struct {
	Series        types.Series
	Viewport      types.Viewport
	Domain        types.ViewportDomain
	DomainValues  []float64
	BaselinePrice float64
}

func NewFrame(series types.Series, vp types.Viewport, domain types.ViewportDomain) Frame {
	return Frame{Series: series, Viewport: vp, Domain: domain}
}

func (f Frame) Unit() types.DisplayUnit {
	return f.Domain.DisplayUnit.OrDefault()
}

func (f Frame) YDomain() (float64, float64) {
	if f.DomainValues != nil {
		return ResolveYDomainValues(f.DomainValues, f.Domain)
	}
	return ResolveYDomain(f.Series, f.Domain)
}

// Baseline is the first close of the currently loaded series.
func (f Frame) Baseline() float64 {
	if f.BaselinePrice != 0 {
		return f.BaselinePrice
	}

	b, _ := f.Series.Baseline()
	return b
}

// ValueAt is the display value of the i-th point of the series.
func (f Frame) ValueAt(i int) float64 {
	if i < 0 || i >= f.Series.Len() {
		return 0
	}

	return f.DisplayValue(f.Series.Points[i].Close.InexactFloat64(), types.DisplayUnitPrice)
}

func (f Frame) X(ts int64) (float64, bool) {
	return TimeToX(ts, f.Series, f.Viewport)
}

func (f Frame) IndexX(i int) float64 {
	return IndexToX(i, f.Series.Len(), f.Viewport)
}

// Y maps a value already expressed in the frame's display unit.
func (f Frame) Y(value float64) float64 {
	min, max := f.YDomain()
	return ValueToY(value, min, max, f.Viewport)
}

func (f Frame) ValueAtY(y float64) float64 {
	min, max := f.YDomain()
	return YToValue(y, min, max, f.Viewport)
}

// DisplayValue converts a stored annotation value into the frame's display unit.
func (f Frame) DisplayValue(stored float64, storedUnit types.DisplayUnit) float64 {
	return DisplayValue(stored, storedUnit, f.Baseline(), f.Unit())
}

// StoredValue converts a value in the frame's display unit back into storedUnit.
func (f Frame) StoredValue(display float64, storedUnit types.DisplayUnit) float64 {
	return ConvertValue(display, f.Unit(), storedUnit, f.Baseline())
}

// Project returns the pixel position of a stored (timestamp, value) pair.
// ok is false on a lookup miss; callers skip rendering in that case.
func (f Frame) Project(ts int64, stored float64, storedUnit types.DisplayUnit) (x, y float64, ok bool) {
	x, ok = f.X(ts)
	if !ok {
		return 0, 0, false
	}

	return x, f.Y(f.DisplayValue(stored, storedUnit)), true
}

func (f Frame) NearestIndex(x float64) (int, bool) {
	return XToIndex(x, f.Series.Len(), f.Viewport)
}
