package interact

import (
	"math"

	"github.com/c9s/chartdesk/pkg/types"
)

type hit struct {
	id       string
	kind     DragKind
	distance float64 // pixels
}

// hitTest finds the annotation grabbed by a pointer-down at (x, y).
//
// Text and note labels are checked first. Otherwise horizontal lines within
// the price tolerance and text marker lines within the index tolerance
// compete: the horizontal line wins unless its pixel distance is more than
// double the vertical line's.
func (m *Machine) hitTest(x, y float64) (hit, bool) {
	annotations := m.store.List()

	if h, ok := m.hitLabel(annotations, x, y); ok {
		return h, true
	}

	horizontal, hasHorizontal := m.hitHorizontalLine(annotations, y)
	vertical, hasVertical := m.hitVerticalLine(annotations, x)

	switch {
	case hasHorizontal && hasVertical:
		if horizontal.distance > 2*vertical.distance {
			return vertical, true
		}
		return horizontal, true

	case hasHorizontal:
		return horizontal, true

	case hasVertical:
		return vertical, true
	}

	return hit{}, false
}

func (m *Machine) hitLabel(annotations []types.Annotation, x, y float64) (hit, bool) {
	var best hit
	found := false
	for _, a := range annotations {
		if a.Type != types.AnnotationText && a.Type != types.AnnotationNote {
			continue
		}

		ax, ay, ok := m.frame.Project(a.Timestamp, a.Price, a.Unit)
		if !ok {
			continue
		}

		d := math.Hypot(x-(ax+a.HorizontalOffset), y-(ay+a.VerticalOffset))
		if d > m.tolerances.LabelRadius {
			continue
		}

		if !found || d < best.distance {
			best = hit{id: a.ID, kind: DragTextMove2D, distance: d}
			found = true
		}
	}

	return best, found
}

func (m *Machine) hitHorizontalLine(annotations []types.Annotation, y float64) (hit, bool) {
	min, max := m.frame.YDomain()
	tolerance := m.tolerances.PriceFraction * (max - min)
	pointerValue := m.frame.ValueAtY(y)

	var best hit
	found := false
	for _, a := range annotations {
		if a.Type != types.AnnotationHorizontal {
			continue
		}

		value := m.frame.DisplayValue(a.Price, a.Unit)
		if math.Abs(pointerValue-value) > tolerance {
			continue
		}

		d := math.Abs(y - m.frame.Y(value))
		if !found || d < best.distance {
			best = hit{id: a.ID, kind: DragVerticalMove, distance: d}
			found = true
		}
	}

	return best, found
}

func (m *Machine) hitVerticalLine(annotations []types.Annotation, x float64) (hit, bool) {
	series := m.frame.Series
	pointerIndex, ok := m.frame.NearestIndex(x)
	if !ok {
		return hit{}, false
	}

	tolerance := m.tolerances.indexTolerance(series.Len())

	var best hit
	found := false
	for _, a := range annotations {
		if a.Type != types.AnnotationText {
			continue
		}

		idx, ok := series.IndexOf(a.Timestamp)
		if !ok {
			continue
		}

		if math.Abs(float64(idx-pointerIndex)) > tolerance {
			continue
		}

		d := math.Abs(x - m.frame.IndexX(idx))
		if !found || d < best.distance {
			best = hit{id: a.ID, kind: DragHorizontalMove, distance: d}
			found = true
		}
	}

	return best, found
}
