package chart

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/c9s/chartdesk/pkg/metrics"
	"github.com/c9s/chartdesk/pkg/types"
)

var (
	ErrCSVRequiresComparison = errors.New("csv export is only available for the comparison view")
	ErrUnsupportedFormat     = errors.New("unsupported export format")
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatSVG, FormatHTML, FormatPDF, FormatCSV:
		return f, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%q", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	}
	return "application/octet-stream"
}

func (f Format) Extension() string {
	return "." + string(f)
}

// Exporter renders inputs onto a fixed-size canvas, detached from any
// interactive viewport.
type Exporter struct {
	Layout Layout
}

func NewExporter(layout Layout) *Exporter {
	return &Exporter{Layout: layout}
}

// Export renders the input in the given format.
func (e *Exporter) Export(format Format, input Input) ([]byte, error) {
	switch format {
	case FormatPNG:
		return e.RenderPNG(input)
	case FormatSVG:
		return e.RenderSVG(input)
	case FormatHTML:
		return e.RenderHTML(input)
	case FormatPDF:
		return e.RenderPDF(input)
	case FormatCSV:
		var buf bytes.Buffer
		if err := e.WriteCSV(&buf, input); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
}

func (e *Exporter) RenderPNG(input Input) ([]byte, error) {
	return e.render(FormatPNG, gochart.PNG, input, nil)
}

func (e *Exporter) RenderSVG(input Input) ([]byte, error) {
	return e.render(FormatSVG, gochart.SVG, input, html.EscapeString)
}

// RenderHTML wraps the SVG export in an embeddable figure.
func (e *Exporter) RenderHTML(input Input) ([]byte, error) {
	svg, err := e.render(FormatHTML, gochart.SVG, input, html.EscapeString)
	if err != nil {
		return nil, err
	}

	caption := input.Title
	if caption == "" {
		caption = "chart"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<figure class=\"chartdesk-export\" style=\"margin:0;max-width:%dpx\">\n", e.Layout.Width)
	buf.Write(svg)
	fmt.Fprintf(&buf, "\n<figcaption>%s</figcaption>\n</figure>\n", html.EscapeString(caption))
	return buf.Bytes(), nil
}

// RenderPDF places the PNG export on a single page of the canvas size,
// one point per pixel.
func (e *Exporter) RenderPDF(input Input) ([]byte, error) {
	png, err := e.render(FormatPDF, gochart.PNG, input, nil)
	if err != nil {
		return nil, err
	}

	width, height := float64(e.Layout.Width), float64(e.Layout.Height)
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("chartdesk", true)
	if input.Title != "" {
		doc.SetTitle(input.Title, true)
	}
	doc.AddPage()

	options := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader(pdfImageName, options, bytes.NewReader(png))
	doc.ImageOptions(pdfImageName, 0, 0, width, height, false, options, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "can not encode pdf")
	}

	return buf.Bytes(), nil
}

const pdfImageName = "chart"

func (e *Exporter) render(format Format, provider gochart.RendererProvider, input Input, escape func(string) string) ([]byte, error) {
	if err := e.Layout.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	scene := BuildScene(e.Layout, input)

	r, err := provider(e.Layout.Width, e.Layout.Height)
	if err != nil {
		return nil, errors.Wrapf(err, "can not create %s renderer", format)
	}

	if err := paint(r, scene, escape); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, errors.Wrapf(err, "can not encode %s", format)
	}

	e.observe(format, input, scene, startTime)
	return buf.Bytes(), nil
}

func (e *Exporter) observe(format Format, input Input, scene Scene, startTime time.Time) {
	metrics.ExportsTotal.WithLabelValues(string(format), input.View()).Inc()
	metrics.ExportDuration.WithLabelValues(string(format)).Observe(time.Since(startTime).Seconds())
	if scene.Skipped > 0 {
		metrics.SkippedAnnotations.WithLabelValues(scene.Frame.Series.Symbol).Add(float64(scene.Skipped))
	}

	log.Infof("exported %s %s view %q (%d shapes, %d skipped annotations)", format, input.View(), input.Title, len(scene.Shapes), scene.Skipped)
}

// WriteCSV writes the aligned comparison table.
func (e *Exporter) WriteCSV(w io.Writer, input Input) error {
	if input.Comparison == nil {
		return ErrCSVRequiresComparison
	}

	if err := writeCsv(w, input.Comparison); err != nil {
		return err
	}

	metrics.ExportsTotal.WithLabelValues(string(FormatCSV), input.View()).Inc()
	return nil
}

func writeCsv(w io.Writer, formatter types.CsvFormatter) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(formatter.CsvHeader()); err != nil {
		return err
	}

	return writer.WriteAll(formatter.CsvRecords())
}
