package types

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownAnnotationType = errors.New("unknown annotation type")
	ErrMissingField          = errors.New("missing required annotation field")
)

type AnnotationType string

const (
	AnnotationText       AnnotationType = "text"
	AnnotationHorizontal AnnotationType = "horizontal"
	AnnotationPercentage AnnotationType = "percentage"
	AnnotationNote       AnnotationType = "note"
)

func (t AnnotationType) Valid() bool {
	switch t {
	case AnnotationText, AnnotationHorizontal, AnnotationPercentage, AnnotationNote:
		return true
	}
	return false
}

// Annotation is a user-placed chart annotation. The Type field is the
// discriminant: point fields (Timestamp, Price, Text, offsets) belong to
// text, horizontal and note annotations, and the Start*/End*/Percentage
// fields belong to percentage measurements.
//
// Price values are stored in Unit, the display unit active when the
// annotation was placed.
type Annotation struct {
	ID   string         `json:"id"`
	Type AnnotationType `json:"type"`
	Unit DisplayUnit    `json:"unit,omitempty"`

	Timestamp        int64   `json:"timestamp,omitempty"`
	Time             string  `json:"time,omitempty"`
	Price            float64 `json:"price,omitempty"`
	Text             string  `json:"text,omitempty"`
	HorizontalOffset float64 `json:"horizontalOffset,omitempty"`
	VerticalOffset   float64 `json:"verticalOffset,omitempty"`

	StartTimestamp int64   `json:"startTimestamp,omitempty"`
	StartPrice     float64 `json:"startPrice,omitempty"`
	StartTime      string  `json:"startTime,omitempty"`
	EndTimestamp   int64   `json:"endTimestamp,omitempty"`
	EndPrice       float64 `json:"endPrice,omitempty"`
	EndTime        string  `json:"endTime,omitempty"`
	Percentage     float64 `json:"percentage,omitempty"`
}

// Validate checks the discriminant and the fields it requires.
func (a Annotation) Validate() error {
	if a.Type == "" {
		return errors.Wrap(ErrMissingField, "type")
	}

	if !a.Type.Valid() {
		return errors.Wrapf(ErrUnknownAnnotationType, "%q", a.Type)
	}

	if a.Unit != "" && !a.Unit.Valid() {
		return errors.Errorf("invalid display unit %q", a.Unit)
	}

	switch a.Type {
	case AnnotationPercentage:
		if a.StartTimestamp == 0 {
			return errors.Wrap(ErrMissingField, "startTimestamp")
		}
		if a.EndTimestamp == 0 {
			return errors.Wrap(ErrMissingField, "endTimestamp")
		}

	default:
		if a.Timestamp == 0 {
			return errors.Wrap(ErrMissingField, "timestamp")
		}
	}

	return nil
}

// Anchored reports whether the annotation is drawn at its timestamp.
// Horizontal lines span the whole chart and keep the timestamp only for identity.
func (a Annotation) Anchored() bool {
	return a.Type != AnnotationHorizontal
}

// PendingMeasurement is the first point of a two-click percentage measurement.
type PendingMeasurement struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	Time      string  `json:"time"`
}

// ComputePercentage measures the change from start to end.
//
// In price unit the result is the percentage return (end-start)/start*100.
// In percentage unit both values are already percentage changes from a common
// baseline, so the result is their difference in percentage points.
// The result is rounded to 2 decimals.
func ComputePercentage(start, end float64, unit DisplayUnit) float64 {
	var change decimal.Decimal
	if unit == DisplayUnitPercentage {
		change = decimal.NewFromFloat(end).Sub(decimal.NewFromFloat(start))
	} else {
		if start == 0 {
			return 0
		}

		s := decimal.NewFromFloat(start)
		change = decimal.NewFromFloat(end).Sub(s).Div(s).Mul(decimal.NewFromInt(100))
	}

	return change.Round(2).InexactFloat64()
}

// NewMeasurement builds a percentage annotation from the pending start point and the end point.
func NewMeasurement(start PendingMeasurement, end PendingMeasurement, unit DisplayUnit) Annotation {
	return Annotation{
		Type:           AnnotationPercentage,
		Unit:           unit,
		StartTimestamp: start.Timestamp,
		StartPrice:     start.Price,
		StartTime:      start.Time,
		EndTimestamp:   end.Timestamp,
		EndPrice:       end.Price,
		EndTime:        end.Time,
		Percentage:     ComputePercentage(start.Price, end.Price, unit),
	}
}
