package types

import "fmt"

// Viewport is the pixel rectangle data-space coordinates are mapped into.
type Viewport struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func NewViewport(left, top, width, height float64) Viewport {
	return Viewport{Left: left, Top: top, Width: width, Height: height}
}

func (v Viewport) Right() float64 {
	return v.Left + v.Width
}

func (v Viewport) Bottom() float64 {
	return v.Top + v.Height
}

func (v Viewport) Contains(x, y float64) bool {
	return x >= v.Left && x <= v.Right() && y >= v.Top && y <= v.Bottom()
}

func (v Viewport) String() string {
	return fmt.Sprintf("%.0fx%.0f@(%.0f,%.0f)", v.Width, v.Height, v.Left, v.Top)
}

type DomainMode string

const (
	DomainModeAuto  DomainMode = "auto"
	DomainModeFixed DomainMode = "fixed"
)

type DisplayUnit string

const (
	DisplayUnitPrice      DisplayUnit = "price"
	DisplayUnitPercentage DisplayUnit = "percentage"
)

func (u DisplayUnit) Valid() bool {
	return u == DisplayUnitPrice || u == DisplayUnitPercentage
}

// OrDefault maps the empty unit to price.
func (u DisplayUnit) OrDefault() DisplayUnit {
	if u == "" {
		return DisplayUnitPrice
	}
	return u
}

// ViewportDomain governs the Y axis of one view session.
// Range is only used in fixed mode.
type ViewportDomain struct {
	Mode        DomainMode  `json:"mode" yaml:"mode"`
	Range       float64     `json:"range" yaml:"range"`
	DisplayUnit DisplayUnit `json:"displayUnit" yaml:"displayUnit"`
}

func AutoDomain(unit DisplayUnit) ViewportDomain {
	return ViewportDomain{Mode: DomainModeAuto, DisplayUnit: unit}
}
