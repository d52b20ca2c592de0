package types

import "time"

// OverlayPoint is one row of an auxiliary overlay: a calendar date and a
// value in [0, 1].
type OverlayPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Overlay is an auxiliary series drawn over the chart on its own [0, 1] scale.
type Overlay struct {
	Name   string         `json:"name"`
	Points []OverlayPoint `json:"points"`
}

func (o *Overlay) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Points)
}

func (o *Overlay) Empty() bool {
	return o.Len() == 0
}
