package coord

import (
	"github.com/pkg/errors"
)

var DefaultZoomMultipliers = []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 3, 5, 10}

// ZoomLadder is the fixed ascending list of multipliers applied to the base
// range of a series in fixed domain mode. Level i selects multiplier i;
// a smaller multiplier shows a narrower value range (zoomed in).
type ZoomLadder struct {
	multipliers []float64
}

func NewZoomLadder(multipliers []float64) (*ZoomLadder, error) {
	if len(multipliers) == 0 {
		return nil, errors.New("zoom ladder can not be empty")
	}

	for i, m := range multipliers {
		if m <= 0 {
			return nil, errors.Errorf("zoom multiplier #%d must be positive, got %f", i, m)
		}

		if i > 0 && m <= multipliers[i-1] {
			return nil, errors.Errorf("zoom multipliers must be strictly ascending, got %f after %f", m, multipliers[i-1])
		}
	}

	ms := make([]float64, len(multipliers))
	copy(ms, multipliers)
	return &ZoomLadder{multipliers: ms}, nil
}

func DefaultZoomLadder() *ZoomLadder {
	l, _ := NewZoomLadder(DefaultZoomMultipliers)
	return l
}

func (l *ZoomLadder) Len() int {
	return len(l.multipliers)
}

// DefaultLevel is the level of multiplier 1, or the middle level if the
// ladder has no exact 1.
func (l *ZoomLadder) DefaultLevel() int {
	for i, m := range l.multipliers {
		if m == 1 {
			return i
		}
	}
	return len(l.multipliers) / 2
}

func (l *ZoomLadder) clamp(level int) int {
	if level < 0 {
		return 0
	}
	if level >= len(l.multipliers) {
		return len(l.multipliers) - 1
	}
	return level
}

func (l *ZoomLadder) Multiplier(level int) float64 {
	return l.multipliers[l.clamp(level)]
}

// Range returns the explicit fixed-mode range for the level. A non-positive
// base range is treated as 1.
func (l *ZoomLadder) Range(baseRange float64, level int) float64 {
	if baseRange <= 0 {
		baseRange = 1
	}
	return baseRange * l.Multiplier(level)
}

func (l *ZoomLadder) ZoomIn(level int) int {
	return l.clamp(l.clamp(level) - 1)
}

func (l *ZoomLadder) ZoomOut(level int) int {
	return l.clamp(l.clamp(level) + 1)
}
