package chart

import (
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/c9s/chartdesk/pkg/coord"
	"github.com/c9s/chartdesk/pkg/types"
)

type Point struct {
	X, Y float64
}

type ShapeKind string

const (
	ShapePath   ShapeKind = "path"
	ShapeArea   ShapeKind = "area"
	ShapeRect   ShapeKind = "rect"
	ShapeCircle ShapeKind = "circle"
	ShapeText   ShapeKind = "text"
)

type Layer string

const (
	LayerBackground  Layer = "background"
	LayerGrid        Layer = "grid"
	LayerAxis        Layer = "axis"
	LayerVolume      Layer = "volume"
	LayerSeries      Layer = "series"
	LayerOverlay     Layer = "overlay"
	LayerAnnotations Layer = "annotations"
	LayerTitle       Layer = "title"
)

// Shape is one display list entry. Rect points are the top-left and the
// bottom-right corners; a circle uses the first point as its center; text
// is anchored at the first point and aligned by its style.
type Shape struct {
	Kind   ShapeKind
	Layer  Layer
	Points []Point
	Radius float64
	Text   string
	Style  gochart.Style
}

// Mark records where an annotation landed. Start is the anchor (or the
// start of a measurement), End the end of a measurement or of a level line.
type Mark struct {
	ID    string
	Type  types.AnnotationType
	Start Point
	End   Point
	Label Point
}

// Scene is the renderer-independent display list of one export.
type Scene struct {
	Width, Height int
	Content       types.Viewport
	Frame         coord.Frame

	Shapes []Shape
	Marks  []Mark

	// Skipped counts annotations whose timestamps are not in the series.
	Skipped int

	// Caption is set on the empty state.
	Caption string
}

func (s *Scene) Empty() bool {
	return s.Caption != ""
}

func (s *Scene) Mark(id string) (Mark, bool) {
	for _, m := range s.Marks {
		if m.ID == id {
			return m, true
		}
	}
	return Mark{}, false
}

func (s *Scene) Layer(layer Layer) []Shape {
	var shapes []Shape
	for _, shape := range s.Shapes {
		if shape.Layer == layer {
			shapes = append(shapes, shape)
		}
	}
	return shapes
}

// Texts returns every text of the scene in painting order.
func (s *Scene) Texts() []string {
	var texts []string
	for _, shape := range s.Shapes {
		if shape.Kind == ShapeText {
			texts = append(texts, shape.Text)
		}
	}
	return texts
}

func (s *Scene) add(shapes ...Shape) {
	s.Shapes = append(s.Shapes, shapes...)
}

func path(layer Layer, style gochart.Style, points ...Point) Shape {
	return Shape{Kind: ShapePath, Layer: layer, Points: points, Style: style}
}

func area(layer Layer, style gochart.Style, points ...Point) Shape {
	return Shape{Kind: ShapeArea, Layer: layer, Points: points, Style: style}
}

func rect(layer Layer, style gochart.Style, left, top, right, bottom float64) Shape {
	return Shape{Kind: ShapeRect, Layer: layer, Points: []Point{{left, top}, {right, bottom}}, Style: style}
}

func circle(layer Layer, style gochart.Style, center Point, radius float64) Shape {
	return Shape{Kind: ShapeCircle, Layer: layer, Points: []Point{center}, Radius: radius, Style: style}
}

func text(layer Layer, style gochart.Style, at Point, body string) Shape {
	return Shape{Kind: ShapeText, Layer: layer, Points: []Point{at}, Text: body, Style: style}
}
