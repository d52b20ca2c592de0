package datasource

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/c9s/chartdesk/pkg/types"
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks . Fetcher

var (
	ErrEmptySymbol      = errors.New("empty symbol")
	ErrInvalidTimeframe = errors.New("invalid timeframe")

	// ErrSeriesNotFound is returned when the source has no history for the symbol.
	ErrSeriesNotFound = errors.New("series not found")
)

// Query selects the history to fetch. Range is only used with TimeframeCustom.
type Query struct {
	Symbol    string           `json:"symbol"`
	Timeframe types.Timeframe  `json:"timeframe"`
	Range     *types.DateRange `json:"range,omitempty"`
}

func NewQuery(symbol string, timeframe types.Timeframe) Query {
	return Query{Symbol: strings.ToUpper(symbol), Timeframe: timeframe}
}

func (q Query) Validate() error {
	if strings.TrimSpace(q.Symbol) == "" {
		return ErrEmptySymbol
	}

	if !q.Timeframe.Valid() {
		return errors.Wrapf(ErrInvalidTimeframe, "%q", q.Timeframe)
	}

	return nil
}

// Key identifies the query for memoization.
func (q Query) Key() string {
	key := strings.ToUpper(q.Symbol) + ":" + q.Timeframe.String()
	if q.Timeframe == types.TimeframeCustom && q.Range != nil {
		key += ":" + q.Range.String()
	}
	return key
}

func (q Query) String() string {
	return q.Key()
}

// Fetcher loads the price history of one symbol.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (types.Series, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, q Query) (types.Series, error)

func (f FetcherFunc) Fetch(ctx context.Context, q Query) (types.Series, error) {
	return f(ctx, q)
}
