package chart

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	gochart "github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/c9s/chartdesk/pkg/compare"
	"github.com/c9s/chartdesk/pkg/coord"
	"github.com/c9s/chartdesk/pkg/types"
)

var log = logrus.WithField("component", "chart")

const (
	CaptionNoData    = "no data"
	CaptionNoOverlap = "no overlapping data"
)

const (
	yTicks = 5
	xTicks = 6

	markerRadius = 4.0
	arrowLength  = 10.0
	arrowWidth   = 5.0
)

// Input is everything one export depends on. Comparison, when set, takes
// precedence over Series.
type Input struct {
	Title       string
	Series      types.Series
	Comparison  *compare.Table
	Annotations []types.Annotation
	Domain      types.ViewportDomain
	Overlay     *types.Overlay
}

func (in Input) View() string {
	if in.Comparison != nil {
		return "comparison"
	}
	return "single"
}

// BuildScene lays the input out on the canvas. Every data-space position
// goes through pkg/coord with the layout's content box as the viewport,
// so the export matches the interactive view pixel for pixel.
func BuildScene(layout Layout, input Input) Scene {
	scene := Scene{Width: layout.Width, Height: layout.Height, Content: layout.Content}
	scene.add(rect(LayerBackground, backgroundStyle, 0, 0, float64(layout.Width), float64(layout.Height)))

	if input.Title != "" {
		scene.add(text(LayerTitle, titleStyle, Point{layout.Content.Left, layout.Content.Top - 14}, input.Title))
	}

	var frame coord.Frame
	if input.Comparison != nil {
		if input.Comparison.Empty() {
			scene.empty(CaptionNoOverlap)
			return scene
		}
		frame = input.Comparison.Frame(layout.Content, input.Domain)
	} else {
		if input.Series.Empty() {
			scene.empty(CaptionNoData)
			return scene
		}
		frame = coord.NewFrame(input.Series, layout.Content, input.Domain)
	}
	scene.Frame = frame

	b := &builder{scene: &scene, layout: layout, frame: frame}
	b.grid()

	if input.Comparison != nil {
		b.comparison(input.Comparison)
	} else {
		b.volume()
		b.series()
	}

	b.overlay(input.Overlay)

	for _, a := range input.Annotations {
		if !b.annotation(a) {
			scene.Skipped++
		}
	}

	if scene.Skipped > 0 {
		log.Debugf("skipped %d annotations not resolvable on %s %s", scene.Skipped, frame.Series.Symbol, frame.Series.Timeframe)
	}

	return scene
}

func (s *Scene) empty(caption string) {
	s.Caption = caption
	c := s.Content
	s.add(
		rect(LayerGrid, gochart.Style{StrokeColor: gridColor, StrokeWidth: 1}, c.Left, c.Top, c.Right(), c.Bottom()),
		text(LayerTitle, captionStyle, Point{c.Left + c.Width/2, c.Top + c.Height/2}, caption),
	)
}

type builder struct {
	scene  *Scene
	layout Layout
	frame  coord.Frame
}

func (b *builder) grid() {
	c := b.layout.Content
	lo, hi := b.frame.YDomain()
	unit := b.frame.Unit()

	for i := 0; i < yTicks; i++ {
		v := lo + (hi-lo)*float64(i)/float64(yTicks-1)
		y := b.frame.Y(v)
		b.scene.add(
			path(LayerGrid, gridStyle, Point{c.Left, y}, Point{c.Right(), y}),
			text(LayerAxis, axisLabel(gochart.TextHorizontalAlignRight), Point{c.Left - 6, y + 3}, FormatValue(v, unit)),
		)
	}

	n := b.frame.Series.Len()
	step := (n - 1) / (xTicks - 1)
	if step < 1 {
		step = 1
	}

	for i := 0; i < n; i += step {
		x := b.frame.IndexX(i)
		b.scene.add(
			path(LayerGrid, gridStyle, Point{x, c.Top}, Point{x, c.Bottom()}),
			text(LayerAxis, axisLabel(gochart.TextHorizontalAlignCenter), Point{x, c.Bottom() + 16}, b.frame.Series.TimeLabel(i)),
		)
	}
}

func (b *builder) volume() {
	volumes := b.frame.Series.Volumes()
	top := floats.Max(volumes)
	if top <= 0 {
		return
	}

	band := b.layout.VolumeBand()
	width := math.Max(1, band.Width/float64(len(volumes))*0.7)
	for i, v := range volumes {
		if v <= 0 {
			continue
		}

		x := b.frame.IndexX(i)
		h := band.Height * v / top
		b.scene.add(rect(LayerVolume, volumeStyle, x-width/2, band.Bottom()-h, x+width/2, band.Bottom()))
	}
}

func (b *builder) series() {
	n := b.frame.Series.Len()
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{b.frame.IndexX(i), b.frame.Y(b.frame.ValueAt(i))}
	}

	if n == 1 {
		b.scene.add(circle(LayerSeries, gochart.Style{FillColor: gochart.ColorBlue}, points[0], markerRadius))
		return
	}

	bottom := b.layout.Content.Bottom()
	filled := make([]Point, 0, n+2)
	filled = append(filled, Point{points[0].X, bottom})
	filled = append(filled, points...)
	filled = append(filled, Point{points[n-1].X, bottom})

	b.scene.add(
		area(LayerSeries, areaStyle, filled...),
		path(LayerSeries, seriesStyle, points...),
	)
}

func (b *builder) comparison(table *compare.Table) {
	c := b.layout.Content
	for si, symbol := range table.Symbols() {
		color := comparisonPalette[si%len(comparisonPalette)]
		percentages := table.Percentages(symbol)

		points := make([]Point, len(percentages))
		for i, p := range percentages {
			points[i] = Point{b.frame.IndexX(i), b.frame.Y(p)}
		}

		if len(points) == 1 {
			b.scene.add(circle(LayerSeries, gochart.Style{FillColor: color}, points[0], markerRadius))
		} else {
			b.scene.add(path(LayerSeries, gochart.Style{StrokeColor: color, StrokeWidth: 2}, points...))
		}

		last := percentages[len(percentages)-1]
		legend := gochart.Style{FontColor: color, FontSize: 11}
		b.scene.add(text(LayerTitle, legend, Point{c.Left + 320 + float64(si)*170, c.Top - 14}, fmt.Sprintf("%s %s", symbol, FormatChange(last))))
	}
}

// overlay draws the [0, 1] overlay on the full content height, matched to
// the series by calendar date.
func (b *builder) overlay(o *types.Overlay) {
	if o.Empty() {
		return
	}

	dates := make(map[string]int, b.frame.Series.Len())
	for i, p := range b.frame.Series.Points {
		key := p.Time().UTC().Format(types.DateLayout)
		if _, ok := dates[key]; !ok {
			dates[key] = i
		}
	}

	c := b.layout.Content
	var points []Point
	for _, p := range o.Points {
		i, ok := dates[p.Date.UTC().Format(types.DateLayout)]
		if !ok {
			continue
		}
		points = append(points, Point{b.frame.IndexX(i), c.Bottom() - p.Value*c.Height})
	}

	switch len(points) {
	case 0:
		return
	case 1:
		b.scene.add(circle(LayerOverlay, gochart.Style{FillColor: overlayStyle.StrokeColor}, points[0], markerRadius))
	default:
		b.scene.add(path(LayerOverlay, overlayStyle, points...))
	}

	if o.Name != "" {
		end := points[len(points)-1]
		b.scene.add(text(LayerOverlay, gochart.Style{FontColor: overlayStyle.StrokeColor, FontSize: 9}, Point{end.X + 4, end.Y - 4}, o.Name))
	}
}

// annotation adds the primitives of one annotation. It returns false when
// the annotation can not be placed on the current series.
func (b *builder) annotation(a types.Annotation) bool {
	c := b.layout.Content

	switch a.Type {

	case types.AnnotationText:
		x, y, ok := b.frame.Project(a.Timestamp, a.Price, a.Unit)
		if !ok {
			return false
		}

		anchor := Point{x, y}
		label := Point{x + a.HorizontalOffset, y + a.VerticalOffset}
		b.scene.add(
			path(LayerAnnotations, markerLineStyle, Point{x, c.Top}, Point{x, c.Bottom()}),
			circle(LayerAnnotations, markerStyle, anchor, markerRadius),
		)
		if a.Text != "" {
			b.scene.add(text(LayerAnnotations, labelStyle, Point{label.X + 6, label.Y - 6}, a.Text))
		}
		b.scene.Marks = append(b.scene.Marks, Mark{ID: a.ID, Type: a.Type, Start: anchor, End: anchor, Label: label})
		return true

	case types.AnnotationNote:
		x, y, ok := b.frame.Project(a.Timestamp, a.Price, a.Unit)
		if !ok {
			return false
		}

		label := Point{x + a.HorizontalOffset, y + a.VerticalOffset}
		style := noteBoxStyle
		style.FontColor = textColor
		style.FontSize = 11
		b.scene.add(text(LayerAnnotations, style, label, a.Text))
		b.scene.Marks = append(b.scene.Marks, Mark{ID: a.ID, Type: a.Type, Start: Point{x, y}, End: Point{x, y}, Label: label})
		return true

	case types.AnnotationHorizontal:
		value := b.frame.DisplayValue(a.Price, a.Unit)
		y := b.frame.Y(value)

		caption := FormatValue(value, b.frame.Unit())
		if a.Text != "" {
			caption = a.Text + "  " + caption
		}

		b.scene.add(
			path(LayerAnnotations, levelStyle, Point{c.Left, y}, Point{c.Right(), y}),
			text(LayerAnnotations, levelLabelStyle, Point{c.Right() - 4, y - 4}, caption),
		)
		b.scene.Marks = append(b.scene.Marks, Mark{ID: a.ID, Type: a.Type, Start: Point{c.Left, y}, End: Point{c.Right(), y}, Label: Point{c.Right() - 4, y - 4}})
		return true

	case types.AnnotationPercentage:
		x1, ok1 := b.frame.X(a.StartTimestamp)
		x2, ok2 := b.frame.X(a.EndTimestamp)
		if !ok1 || !ok2 {
			return false
		}

		v1 := b.frame.DisplayValue(a.StartPrice, a.Unit)
		v2 := b.frame.DisplayValue(a.EndPrice, a.Unit)
		start, end := Point{x1, b.frame.Y(v1)}, Point{x2, b.frame.Y(v2)}

		style := measureStyle(a.Percentage)
		b.scene.add(
			path(LayerAnnotations, style, start, end),
			circle(LayerAnnotations, style, start, markerRadius-1),
		)
		if head, ok := arrowHead(start, end); ok {
			b.scene.add(area(LayerAnnotations, style, head...))
		}

		unit := b.frame.Unit()
		mid := Point{(start.X + end.X) / 2, math.Min(start.Y, end.Y) - 12}
		callout := fmt.Sprintf("%s  %s -> %s  %s",
			FormatChange(a.Percentage),
			FormatValue(v1, unit), FormatValue(v2, unit),
			types.FormatSpan(a.EndTimestamp-a.StartTimestamp))

		calloutText := calloutStyle
		calloutText.FontColor = style.FontColor
		calloutText.FontSize = 11
		calloutText.TextHorizontalAlign = gochart.TextHorizontalAlignCenter
		b.scene.add(text(LayerAnnotations, calloutText, mid, callout))

		b.scene.Marks = append(b.scene.Marks, Mark{ID: a.ID, Type: a.Type, Start: start, End: end, Label: mid})
		return true
	}

	return false
}

// arrowHead returns the triangle at the end of the segment from -> to.
func arrowHead(from, to Point) ([]Point, bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil, false
	}

	ux, uy := dx/length, dy/length
	base := Point{to.X - ux*arrowLength, to.Y - uy*arrowLength}
	return []Point{
		to,
		{base.X - uy*arrowWidth, base.Y + ux*arrowWidth},
		{base.X + uy*arrowWidth, base.Y - ux*arrowWidth},
	}, true
}
