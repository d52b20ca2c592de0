package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/c9s/chartdesk/pkg/types"
)

// ErrInvalidOverlay matches every error returned by ParseOverlay.
var ErrInvalidOverlay = errors.New("invalid overlay")

// RowError is a rejected overlay row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// OverlayError collects every rejected row of one upload.
type OverlayError struct {
	errs error
}

func (e *OverlayError) Error() string {
	return ErrInvalidOverlay.Error() + ": " + e.errs.Error()
}

func (e *OverlayError) Is(target error) bool {
	return target == ErrInvalidOverlay
}

// Errors returns the row errors in line order.
func (e *OverlayError) Errors() []error {
	return multierr.Errors(e.errs)
}

// ParseOverlay reads `date,value` rows, dates in YYYY-MM-DD and values in
// [0, 1]. A header row is detected when the first field of the first record
// does not start with a digit. Any bad row rejects the whole upload.
func ParseOverlay(r io.Reader) (types.Overlay, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		overlay types.Overlay
		errs    error
		seen    = map[time.Time]int{}
	)

	for first := true; ; first = false {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				errs = multierr.Append(errs, &RowError{Line: parseErr.Line, Err: parseErr.Err})
				continue
			}
			return types.Overlay{}, &OverlayError{errs: multierr.Append(errs, err)}
		}

		if first && isHeader(rec) {
			continue
		}

		// csv.Reader skips blank lines, so count lines from the input
		line, _ := reader.FieldPos(0)

		p, err := decodeOverlayRow(rec)
		if err != nil {
			errs = multierr.Append(errs, &RowError{Line: line, Err: err})
			continue
		}

		if prev, ok := seen[p.Date]; ok {
			errs = multierr.Append(errs, &RowError{
				Line: line,
				Err:  fmt.Errorf("duplicate date %s, first seen on line %d", p.Date.Format(types.DateLayout), prev),
			})
			continue
		}

		seen[p.Date] = line
		overlay.Points = append(overlay.Points, p)
	}

	if errs != nil {
		return types.Overlay{}, &OverlayError{errs: errs}
	}

	if len(overlay.Points) == 0 {
		return types.Overlay{}, errors.Wrap(ErrInvalidOverlay, "no rows")
	}

	sort.Slice(overlay.Points, func(i, j int) bool {
		return overlay.Points[i].Date.Before(overlay.Points[j].Date)
	})

	return overlay, nil
}

func decodeOverlayRow(rec []string) (types.OverlayPoint, error) {
	if len(rec) < 2 {
		return types.OverlayPoint{}, ErrNotEnoughColumns
	}

	date, err := time.Parse(types.DateLayout, strings.TrimSpace(rec[0]))
	if err != nil {
		return types.OverlayPoint{}, fmt.Errorf("invalid date %q, expecting YYYY-MM-DD", rec[0])
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil || math.IsNaN(value) {
		return types.OverlayPoint{}, fmt.Errorf("invalid value %q", rec[1])
	}

	if value < 0 || value > 1 {
		return types.OverlayPoint{}, fmt.Errorf("value %v is out of range [0, 1]", value)
	}

	return types.OverlayPoint{Date: date, Value: value}, nil
}
