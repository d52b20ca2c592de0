package csvsource

import (
	"encoding/csv"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/c9s/chartdesk/pkg/types"
)

// CSVSeriesReader reads data points from CSV records.
type CSVSeriesReader struct {
	csv     *csv.Reader
	decoder CSVPointDecoder

	line int
}

// NewCSVSeriesReader creates a new CSVSeriesReader with the OHLCV decoder.
func NewCSVSeriesReader(csv *csv.Reader) *CSVSeriesReader {
	return NewCSVSeriesReaderWithDecoder(csv, OHLCVDecoder)
}

// NewCSVSeriesReaderWithDecoder creates a new CSVSeriesReader with the given decoder.
func NewCSVSeriesReaderWithDecoder(csv *csv.Reader, decoder CSVPointDecoder) *CSVSeriesReader {
	csv.FieldsPerRecord = -1
	csv.TrimLeadingSpace = true
	return &CSVSeriesReader{
		csv:     csv,
		decoder: decoder,
	}
}

// Read reads the next data point. A header on the first line is skipped.
func (r *CSVSeriesReader) Read() (types.DataPoint, error) {
	for {
		rec, err := r.csv.Read()
		if err != nil {
			return types.DataPoint{}, err
		}

		r.line++
		if r.line == 1 && isHeader(rec) {
			continue
		}

		p, err := r.decoder(rec)
		if err != nil {
			return p, errors.Wrapf(err, "line %d", r.line)
		}

		return p, nil
	}
}

// ReadAll reads every data point, sorted ascending by timestamp.
func (r *CSVSeriesReader) ReadAll() ([]types.DataPoint, error) {
	var points []types.DataPoint
	for {
		p, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})

	return points, nil
}
