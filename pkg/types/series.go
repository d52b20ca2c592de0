package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DataPoint is one OHLCV bar as delivered by the data source.
type DataPoint struct {
	Timestamp int64           `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

func (p DataPoint) Time() time.Time {
	return time.Unix(p.Timestamp, 0).UTC()
}

type Timeframe string

const (
	Timeframe1D     Timeframe = "1D"
	Timeframe5D     Timeframe = "5D"
	Timeframe1M     Timeframe = "1M"
	Timeframe3M     Timeframe = "3M"
	Timeframe6M     Timeframe = "6M"
	Timeframe1Y     Timeframe = "1Y"
	Timeframe5Y     Timeframe = "5Y"
	TimeframeMax    Timeframe = "MAX"
	TimeframeCustom Timeframe = "custom"
)

var SupportedTimeframes = []Timeframe{
	Timeframe1D, Timeframe5D, Timeframe1M, Timeframe3M, Timeframe6M,
	Timeframe1Y, Timeframe5Y, TimeframeMax, TimeframeCustom,
}

func (t Timeframe) Valid() bool {
	for _, s := range SupportedTimeframes {
		if s == t {
			return true
		}
	}
	return false
}

// Intraday reports whether bars of this timeframe fall within a trading day,
// which decides the label format of the time axis.
func (t Timeframe) Intraday() bool {
	return t == Timeframe1D || t == Timeframe5D
}

var timeframeLookbacks = map[Timeframe]time.Duration{
	Timeframe1D: 24 * time.Hour,
	Timeframe5D: 5 * 24 * time.Hour,
	Timeframe1M: 30 * 24 * time.Hour,
	Timeframe3M: 91 * 24 * time.Hour,
	Timeframe6M: 182 * 24 * time.Hour,
	Timeframe1Y: 365 * 24 * time.Hour,
	Timeframe5Y: 5 * 365 * 24 * time.Hour,
}

// Lookback is the window the timeframe covers back from the latest bar.
// MAX and custom have no fixed window and return 0.
func (t Timeframe) Lookback() time.Duration {
	return timeframeLookbacks[t]
}

func (t Timeframe) String() string {
	return string(t)
}

// DateRange is an inclusive custom range for TimeframeCustom.
type DateRange struct {
	From time.Time `json:"from" yaml:"from"`
	To   time.Time `json:"to" yaml:"to"`
}

func (r *DateRange) Contains(ts int64) bool {
	if r == nil {
		return true
	}

	t := time.Unix(ts, 0)
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}

	if !r.To.IsZero() && t.After(r.To) {
		return false
	}

	return true
}

func (r *DateRange) String() string {
	if r == nil {
		return ""
	}

	return r.From.Format(DateLayout) + "~" + r.To.Format(DateLayout)
}

// Series is the ordered OHLCV history for one symbol and timeframe.
// A Series is never mutated in place; a new one replaces it when the
// symbol, timeframe or range changes.
type Series struct {
	Symbol    string      `json:"symbol"`
	Timeframe Timeframe   `json:"timeframe"`
	Points    []DataPoint `json:"points"`
}

func (s Series) Len() int {
	return len(s.Points)
}

func (s Series) Empty() bool {
	return len(s.Points) == 0
}

// IndexOf returns the index of the first point whose timestamp equals ts.
func (s Series) IndexOf(ts int64) (int, bool) {
	for i, p := range s.Points {
		if p.Timestamp == ts {
			return i, true
		}
	}

	return -1, false
}

func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close.InexactFloat64()
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = float64(p.Volume)
	}
	return out
}

// Baseline returns the close of the first point.
func (s Series) Baseline() (float64, bool) {
	if len(s.Points) == 0 {
		return 0, false
	}

	return s.Points[0].Close.InexactFloat64(), true
}

// PercentChanges rebases every close to the percentage change from the first close.
func (s Series) PercentChanges() []float64 {
	out := make([]float64, len(s.Points))
	base, ok := s.Baseline()
	if !ok || base == 0 {
		return out
	}

	for i, p := range s.Points {
		out[i] = (p.Close.InexactFloat64() - base) / base * 100.0
	}
	return out
}

// Values returns the plotted value of every point in the given unit.
func (s Series) Values(unit DisplayUnit) []float64 {
	if unit == DisplayUnitPercentage {
		return s.PercentChanges()
	}

	return s.Closes()
}

// ValueAt returns the plotted value of the i-th point in the given unit.
func (s Series) ValueAt(i int, unit DisplayUnit) float64 {
	if i < 0 || i >= len(s.Points) {
		return 0
	}

	c := s.Points[i].Close.InexactFloat64()
	if unit != DisplayUnitPercentage {
		return c
	}

	base, _ := s.Baseline()
	if base == 0 {
		return 0
	}

	return (c - base) / base * 100.0
}

// TimeLabel formats the timestamp of the i-th point for annotation records.
func (s Series) TimeLabel(i int) string {
	if i < 0 || i >= len(s.Points) {
		return ""
	}

	return FormatTimeLabel(s.Points[i].Timestamp, s.Timeframe.Intraday())
}
