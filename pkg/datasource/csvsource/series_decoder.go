package csvsource

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/c9s/chartdesk/pkg/types"
)

var (
	// ErrNotEnoughColumns is returned when the CSV price record does not have enough columns.
	ErrNotEnoughColumns = errors.New("not enough columns")

	// ErrInvalidTimeFormat is returned when the CSV price record does not have a valid unix timestamp.
	ErrInvalidTimeFormat = errors.New("cannot parse time string")

	// ErrInvalidPriceFormat is returned when the CSV price record does not have prices in decimal format.
	ErrInvalidPriceFormat = errors.New("OHLC prices must be in valid decimal format")

	// ErrInvalidVolumeFormat is returned when the CSV price record does not have a valid volume format.
	ErrInvalidVolumeFormat = errors.New("volume must be in valid integer format")
)

// CSVPointDecoder is an extension point for CSVSeriesReader to support custom file formats.
type CSVPointDecoder func(record []string) (types.DataPoint, error)

// OHLCVDecoder decodes a `timestamp,open,high,low,close[,volume]` record.
// The timestamp is in unix seconds; millisecond timestamps are detected by magnitude.
func OHLCVDecoder(record []string) (types.DataPoint, error) {
	var p, empty types.DataPoint

	if len(record) < 5 {
		return empty, ErrNotEnoughColumns
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return empty, ErrInvalidTimeFormat
	}

	if ts > 1e12 {
		ts /= 1000
	}
	p.Timestamp = ts

	prices := make([]decimal.Decimal, 4)
	for i := range prices {
		prices[i], err = decimal.NewFromString(strings.TrimSpace(record[i+1]))
		if err != nil {
			return empty, ErrInvalidPriceFormat
		}
	}
	p.Open, p.High, p.Low, p.Close = prices[0], prices[1], prices[2], prices[3]

	if len(record) > 5 && strings.TrimSpace(record[5]) != "" {
		vol, err := decimal.NewFromString(strings.TrimSpace(record[5]))
		if err != nil {
			return empty, ErrInvalidVolumeFormat
		}
		p.Volume = vol.IntPart()
	}

	return p, nil
}

// isHeader reports whether the record is a column header: its first field
// does not start with a digit.
func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}

	first := strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff"))
	return first == "" || first[0] < '0' || first[0] > '9'
}
