package datasource_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/c9s/chartdesk/pkg/datasource"
	"github.com/c9s/chartdesk/pkg/datasource/mocks"
	"github.com/c9s/chartdesk/pkg/types"
)

func series(symbol string, closes ...int64) types.Series {
	s := types.Series{Symbol: symbol, Timeframe: types.Timeframe1Y}
	for i, c := range closes {
		s.Points = append(s.Points, types.DataPoint{
			Timestamp: int64(1700000000 + i*86400),
			Close:     decimal.NewFromInt(c),
		})
	}
	return s
}

func TestQuery(t *testing.T) {
	q := datasource.NewQuery("aapl", types.Timeframe1Y)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.NoError(t, q.Validate())
	assert.Equal(t, "AAPL:1Y", q.Key())

	q.Timeframe = "2W"
	assert.ErrorIs(t, q.Validate(), datasource.ErrInvalidTimeframe)

	assert.ErrorIs(t, datasource.Query{Timeframe: types.Timeframe1Y}.Validate(), datasource.ErrEmptySymbol)

	custom := datasource.Query{
		Symbol:    "AAPL",
		Timeframe: types.TimeframeCustom,
		Range: &types.DateRange{
			From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	assert.Equal(t, "AAPL:custom:2024-01-01~2024-03-01", custom.Key())
}

func TestCachedFetcher_Memoizes(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	ctx := context.Background()
	q := datasource.NewQuery("AAPL", types.Timeframe1Y)

	fetcher := mocks.NewMockFetcher(mockCtrl)
	fetcher.EXPECT().Fetch(gomock.Any(), q).Return(series("AAPL", 100, 110), nil).Times(1)

	cached := datasource.NewCachedFetcher(fetcher)
	s1, err := cached.Fetch(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, s1.Len())

	s2, err := cached.Fetch(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	// the cached copy is not shared with callers
	s2.Points[0].Close = decimal.NewFromInt(1)
	s3, ok := cached.Get(q.Key())
	require.True(t, ok)
	assert.Equal(t, "100", s3.Points[0].Close.String())
}

func TestCachedFetcher_Expiry(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	q := datasource.NewQuery("MSFT", types.Timeframe1M)
	fetcher := mocks.NewMockFetcher(mockCtrl)
	fetcher.EXPECT().Fetch(gomock.Any(), q).Return(series("MSFT", 1), nil).Times(2)

	cached := datasource.NewCachedFetcher(fetcher, datasource.WithExpiry(-time.Second))
	_, err := cached.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, cached.IsOutdated(q.Key()))

	_, err = cached.Fetch(context.Background(), q)
	require.NoError(t, err)
}

func TestCachedFetcher_ErrorsAreNotCached(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	q := datasource.NewQuery("TSLA", types.Timeframe1Y)
	fetcher := mocks.NewMockFetcher(mockCtrl)
	gomock.InOrder(
		fetcher.EXPECT().Fetch(gomock.Any(), q).Return(types.Series{}, errors.New("timeout")),
		fetcher.EXPECT().Fetch(gomock.Any(), q).Return(series("TSLA", 200), nil),
	)

	cached := datasource.NewCachedFetcher(fetcher)
	_, err := cached.Fetch(context.Background(), q)
	assert.Error(t, err)
	assert.True(t, cached.IsOutdated(q.Key()))

	s, err := cached.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestCachedFetcher_RetryStopsOnNotFound(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	q := datasource.NewQuery("NOPE", types.Timeframe1Y)
	fetcher := mocks.NewMockFetcher(mockCtrl)
	fetcher.EXPECT().Fetch(gomock.Any(), q).Return(types.Series{}, datasource.ErrSeriesNotFound).Times(1)

	cached := datasource.NewCachedFetcher(fetcher, datasource.WithRetry(3))
	_, err := cached.Fetch(context.Background(), q)
	assert.ErrorIs(t, err, datasource.ErrSeriesNotFound)
}

func TestCachedFetcher_InvalidQuery(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	cached := datasource.NewCachedFetcher(mocks.NewMockFetcher(mockCtrl))
	_, err := cached.Fetch(context.Background(), datasource.Query{})
	assert.ErrorIs(t, err, datasource.ErrEmptySymbol)
}
