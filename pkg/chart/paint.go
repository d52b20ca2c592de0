package chart

import (
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	gochart "github.com/wcharczuk/go-chart/v2"
)

const textBoxPadding = 4

// Paint draws the scene onto a go-chart renderer created with the scene's
// width and height.
func Paint(r gochart.Renderer, scene Scene) error {
	return paint(r, scene, nil)
}

func paint(r gochart.Renderer, scene Scene, escape func(string) string) error {
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return errors.Wrap(err, "can not load the default font")
	}

	for _, shape := range scene.Shapes {
		if escape != nil && shape.Kind == ShapeText {
			shape.Text = escape(shape.Text)
		}
		paintShape(r, font, shape)
	}

	return nil
}

func paintShape(r gochart.Renderer, font *truetype.Font, shape Shape) {
	style := shape.Style
	style.Font = font
	defer r.ResetStyle()

	switch shape.Kind {

	case ShapePath:
		if len(shape.Points) < 2 {
			return
		}

		style.WriteToRenderer(r)
		trace(r, shape.Points)
		r.Stroke()

	case ShapeArea:
		if len(shape.Points) < 3 {
			return
		}

		style.WriteToRenderer(r)
		trace(r, shape.Points)
		r.Close()
		fillOrStroke(r, style)

	case ShapeRect:
		if len(shape.Points) < 2 {
			return
		}

		style.WriteToRenderer(r)
		box(r, shape.Points[0], shape.Points[1])
		fillOrStroke(r, style)

	case ShapeCircle:
		if len(shape.Points) < 1 {
			return
		}

		style.WriteToRenderer(r)
		c := shape.Points[0]
		cx, cy := round(c.X), round(c.Y)
		// two half arcs; a single full arc has coinciding end points in SVG
		r.ArcTo(cx, cy, shape.Radius, shape.Radius, 0, math.Pi)
		r.ArcTo(cx, cy, shape.Radius, shape.Radius, math.Pi, math.Pi)
		r.Close()
		fillOrStroke(r, style)

	case ShapeText:
		if len(shape.Points) < 1 || shape.Text == "" {
			return
		}

		paintText(r, style, shape.Points[0], shape.Text)
	}
}

// paintText draws a single line of text anchored at its baseline. A style
// with a fill color gets a padded box behind the text.
func paintText(r gochart.Renderer, style gochart.Style, at Point, body string) {
	style.GetTextOptions().WriteToRenderer(r)
	size := r.MeasureText(body)
	w, h := float64(size.Width()), float64(size.Height())

	x := at.X
	switch style.GetTextHorizontalAlign() {
	case gochart.TextHorizontalAlignCenter:
		x -= w / 2
	case gochart.TextHorizontalAlignRight:
		x -= w
	}

	if style.ShouldDrawFill() {
		style.GetFillAndStrokeOptions().WriteToRenderer(r)
		box(r,
			Point{x - textBoxPadding, at.Y - h - textBoxPadding},
			Point{x + w + textBoxPadding, at.Y + textBoxPadding})
		fillOrStroke(r, style)
		r.ResetStyle()
		style.GetTextOptions().WriteToRenderer(r)
	}

	r.Text(body, round(x), round(at.Y))
}

func trace(r gochart.Renderer, points []Point) {
	r.MoveTo(round(points[0].X), round(points[0].Y))
	for _, p := range points[1:] {
		r.LineTo(round(p.X), round(p.Y))
	}
}

func box(r gochart.Renderer, topLeft, bottomRight Point) {
	left, top := round(topLeft.X), round(topLeft.Y)
	right, bottom := round(bottomRight.X), round(bottomRight.Y)
	r.MoveTo(left, top)
	r.LineTo(right, top)
	r.LineTo(right, bottom)
	r.LineTo(left, bottom)
	r.Close()
}

func fillOrStroke(r gochart.Renderer, style gochart.Style) {
	switch {
	case style.ShouldDrawFill() && style.ShouldDrawStroke():
		r.FillStroke()
	case style.ShouldDrawFill():
		r.Fill()
	default:
		r.Stroke()
	}
}

func round(v float64) int {
	return int(math.Round(v))
}
