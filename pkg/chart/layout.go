package chart

import (
	"fmt"

	"github.com/c9s/chartdesk/pkg/types"
)

// VolumeBandFraction is the share of the content height the volume bars use.
const VolumeBandFraction = 0.15

// Layout is the fixed-size canvas an export is painted on. Content is the
// plot rectangle every data-space coordinate is mapped into; the margins
// around it hold the axis labels and the title.
type Layout struct {
	Width   int            `json:"width" yaml:"width"`
	Height  int            `json:"height" yaml:"height"`
	Content types.Viewport `json:"content" yaml:"content"`
}

func DefaultLayout() Layout {
	return Layout{
		Width:   1760,
		Height:  600,
		Content: types.NewViewport(60, 40, 1680, 500),
	}
}

func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", l.Width, l.Height)
	}

	c := l.Content
	if c.Width <= 0 || c.Height <= 0 || c.Left < 0 || c.Top < 0 ||
		c.Right() > float64(l.Width) || c.Bottom() > float64(l.Height) {
		return fmt.Errorf("content box %s does not fit the %dx%d canvas", c, l.Width, l.Height)
	}

	return nil
}

// VolumeBand is the bottom strip of the content box.
func (l Layout) VolumeBand() types.Viewport {
	h := l.Content.Height * VolumeBandFraction
	return types.NewViewport(l.Content.Left, l.Content.Bottom()-h, l.Content.Width, h)
}
