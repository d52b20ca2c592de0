package csvsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/chartdesk/pkg/datasource"
	"github.com/c9s/chartdesk/pkg/types"
)

func TestOHLCVDecoder(t *testing.T) {
	tests := []struct {
		name      string
		give      string
		wantTs    int64
		wantClose string
		wantVol   int64
		err       error
	}{
		{
			name:      "Read TOHLCV",
			give:      "1709251200,180.1,182.5,179.9,181.25,52000",
			wantTs:    1709251200,
			wantClose: "181.25",
			wantVol:   52000,
		},
		{
			name:      "Read TOHLC in milliseconds",
			give:      "1709251200000,180.1,182.5,179.9,181.25",
			wantTs:    1709251200,
			wantClose: "181.25",
		},
		{
			name: "Not enough columns",
			give: "1709251200,180.1,182.5",
			err:  ErrNotEnoughColumns,
		},
		{
			name: "Invalid time format",
			give: "2024-03-01,180.1,182.5,179.9,181.25",
			err:  ErrInvalidTimeFormat,
		},
		{
			name: "Invalid price format",
			give: "1709251200,abc,182.5,179.9,181.25",
			err:  ErrInvalidPriceFormat,
		},
		{
			name: "Invalid volume format",
			give: "1709251200,180.1,182.5,179.9,181.25,many",
			err:  ErrInvalidVolumeFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := OHLCVDecoder(strings.Split(tt.give, ","))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTs, p.Timestamp)
			assert.Equal(t, tt.wantClose, p.Close.String())
			assert.Equal(t, tt.wantVol, p.Volume)
		})
	}
}

func TestCSVSeriesReader_ReadAll(t *testing.T) {
	data := "timestamp,open,high,low,close,volume\n" +
		"1709337600,2,2,2,2,20\n" +
		"1709251200,1,1,1,1,10\n"

	points, err := NewCSVSeriesReader(csv.NewReader(strings.NewReader(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int64(1709251200), points[0].Timestamp)
	assert.Equal(t, int64(1709337600), points[1].Timestamp)

	_, err = NewCSVSeriesReader(csv.NewReader(strings.NewReader("1709251200,1,1,1,1\nbad,1,1,1,1\n"))).ReadAll()
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
	assert.Contains(t, err.Error(), "line 2")
}

func writeDaily(t *testing.T, path string, from time.Time, days int) {
	var sb strings.Builder
	sb.WriteString("timestamp,open,high,low,close,volume\n")
	for i := 0; i < days; i++ {
		ts := from.AddDate(0, 0, i).Unix()
		fmt.Fprintf(&sb, "%d,1,1,1,%d,1000\n", ts, 100+i)
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))
}

func TestDirectoryFetcher(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	writeDaily(t, filepath.Join(dir, "AAPL.csv"), start, 400)
	writeDaily(t, filepath.Join(dir, "AAPL_5D.csv"), start, 3)

	fetcher := NewDirectoryFetcher(dir)
	ctx := context.Background()

	t.Run("per timeframe file", func(t *testing.T) {
		s, err := fetcher.Fetch(ctx, datasource.NewQuery("aapl", types.Timeframe5D))
		require.NoError(t, err)
		assert.Equal(t, "AAPL", s.Symbol)
		assert.Equal(t, types.Timeframe5D, s.Timeframe)
		assert.Equal(t, 3, s.Len())
	})

	t.Run("lookback window", func(t *testing.T) {
		s, err := fetcher.Fetch(ctx, datasource.NewQuery("AAPL", types.Timeframe1M))
		require.NoError(t, err)
		assert.Equal(t, 31, s.Len())

		last := s.Points[s.Len()-1]
		assert.Equal(t, start.AddDate(0, 0, 399).Unix(), last.Timestamp)
	})

	t.Run("max", func(t *testing.T) {
		s, err := fetcher.Fetch(ctx, datasource.NewQuery("AAPL", types.TimeframeMax))
		require.NoError(t, err)
		assert.Equal(t, 400, s.Len())
	})

	t.Run("custom range", func(t *testing.T) {
		q := datasource.NewQuery("AAPL", types.TimeframeCustom)
		q.Range = &types.DateRange{From: start.AddDate(0, 0, 10), To: start.AddDate(0, 0, 19)}
		s, err := fetcher.Fetch(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 10, s.Len())
		assert.Equal(t, "110", s.Points[0].Close.String())
	})

	t.Run("missing symbol", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, datasource.NewQuery("MSFT", types.Timeframe1Y))
		assert.ErrorIs(t, err, datasource.ErrSeriesNotFound)
	})
}
