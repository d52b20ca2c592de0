package chart

import (
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/c9s/chartdesk/pkg/style"
)

var (
	textColor  = drawing.ColorFromHex("333333")
	mutedColor = gochart.ColorAlternateGray
	gridColor  = drawing.ColorFromHex("e6e6e6")
	noteColor  = drawing.ColorFromHex("fef3c7")
)

// comparisonPalette colors up to five compared symbols.
var comparisonPalette = []drawing.Color{
	gochart.ColorBlue,
	gochart.ColorOrange,
	drawing.ColorFromHex("7c3aed"),
	gochart.ColorCyan,
	drawing.ColorFromHex("be185d"),
}

var (
	backgroundStyle = gochart.Style{FillColor: drawing.ColorWhite}

	gridStyle = gochart.Style{StrokeColor: gridColor, StrokeWidth: 1}

	axisLabelStyle = gochart.Style{FontColor: mutedColor, FontSize: 9}

	titleStyle = gochart.Style{FontColor: textColor, FontSize: 13}

	captionStyle = gochart.Style{
		FontColor:           mutedColor,
		FontSize:            16,
		TextHorizontalAlign: gochart.TextHorizontalAlignCenter,
	}

	seriesStyle = gochart.Style{StrokeColor: gochart.ColorBlue, StrokeWidth: 2}

	areaStyle = gochart.Style{FillColor: gochart.ColorBlue.WithAlpha(36)}

	volumeStyle = gochart.Style{FillColor: mutedColor.WithAlpha(90)}

	overlayStyle = gochart.Style{
		StrokeColor:     drawing.ColorFromHex("9333ea"),
		StrokeWidth:     1.5,
		StrokeDashArray: []float64{6, 3},
	}

	markerLineStyle = gochart.Style{
		StrokeColor:     textColor.WithAlpha(140),
		StrokeWidth:     1,
		StrokeDashArray: []float64{4, 4},
	}

	markerStyle = gochart.Style{FillColor: textColor, StrokeColor: drawing.ColorWhite, StrokeWidth: 1.5}

	labelStyle = gochart.Style{FontColor: textColor, FontSize: 11}

	levelStyle = gochart.Style{StrokeColor: gochart.ColorOrange, StrokeWidth: 1.5}

	levelLabelStyle = gochart.Style{
		FontColor:           gochart.ColorOrange,
		FontSize:            10,
		TextHorizontalAlign: gochart.TextHorizontalAlignRight,
	}

	noteBoxStyle = gochart.Style{FillColor: noteColor, StrokeColor: drawing.ColorFromHex("d97706"), StrokeWidth: 1}

	calloutStyle = gochart.Style{FillColor: drawing.ColorWhite.WithAlpha(230), StrokeColor: mutedColor, StrokeWidth: 1}
)

func measureStyle(percentage float64) gochart.Style {
	c := drawing.ColorFromHex(strings.TrimPrefix(style.ChangeHexColor(percentage), "#"))
	return gochart.Style{StrokeColor: c, FillColor: c, StrokeWidth: 2, FontColor: c, FontSize: 11}
}

func axisLabel(align gochart.TextHorizontalAlign) gochart.Style {
	s := axisLabelStyle
	s.TextHorizontalAlign = align
	return s
}
