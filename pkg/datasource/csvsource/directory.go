package csvsource

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/chartdesk/pkg/datasource"
	"github.com/c9s/chartdesk/pkg/types"
)

var log = logrus.WithField("component", "csvsource")

var _ datasource.Fetcher = (*DirectoryFetcher)(nil)

// DirectoryFetcher serves series from OHLCV csv files in one directory.
//
// For a query of symbol S and timeframe T it reads S_T.csv. When that file
// does not exist, S.csv is read and trimmed to the timeframe lookback,
// counted back from its latest bar. Custom queries read S.csv and filter
// by the date range.
type DirectoryFetcher struct {
	Dir     string
	Decoder CSVPointDecoder
}

func NewDirectoryFetcher(dir string) *DirectoryFetcher {
	return &DirectoryFetcher{Dir: dir, Decoder: OHLCVDecoder}
}

func (f *DirectoryFetcher) candidates(q datasource.Query) []string {
	symbol := strings.ToUpper(q.Symbol)
	var files []string
	if q.Timeframe != types.TimeframeCustom {
		files = append(files, filepath.Join(f.Dir, symbol+"_"+q.Timeframe.String()+".csv"))
	}

	return append(files, filepath.Join(f.Dir, symbol+".csv"))
}

func (f *DirectoryFetcher) Fetch(ctx context.Context, q datasource.Query) (types.Series, error) {
	if err := q.Validate(); err != nil {
		return types.Series{}, err
	}

	for i, path := range f.candidates(q) {
		if err := ctx.Err(); err != nil {
			return types.Series{}, err
		}

		points, err := f.readFile(path)
		if os.IsNotExist(errors.Cause(err)) {
			continue
		}
		if err != nil {
			return types.Series{}, err
		}

		// the per-timeframe file is already windowed
		if i == 0 && q.Timeframe != types.TimeframeCustom {
			return newSeries(q, points), nil
		}

		return newSeries(q, window(points, q)), nil
	}

	return types.Series{}, errors.Wrapf(datasource.ErrSeriesNotFound, "%s in %s", q, f.Dir)
}

func (f *DirectoryFetcher) readFile(path string) ([]types.DataPoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	//nolint:errcheck // Read ops only so safe to ignore err return
	defer file.Close()

	decoder := f.Decoder
	if decoder == nil {
		decoder = OHLCVDecoder
	}

	points, err := NewCSVSeriesReaderWithDecoder(csv.NewReader(file), decoder).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "can not read %s", path)
	}

	log.Debugf("loaded %d points from %s", len(points), path)
	return points, nil
}

func newSeries(q datasource.Query, points []types.DataPoint) types.Series {
	return types.Series{
		Symbol:    strings.ToUpper(q.Symbol),
		Timeframe: q.Timeframe,
		Points:    points,
	}
}

// window keeps the points inside the query's date range or timeframe lookback.
func window(points []types.DataPoint, q datasource.Query) []types.DataPoint {
	if len(points) == 0 {
		return points
	}

	if q.Timeframe == types.TimeframeCustom {
		var out []types.DataPoint
		for _, p := range points {
			if q.Range.Contains(p.Timestamp) {
				out = append(out, p)
			}
		}
		return out
	}

	lookback := q.Timeframe.Lookback()
	if lookback == 0 {
		return points
	}

	since := points[len(points)-1].Timestamp - int64(lookback.Seconds())
	for i, p := range points {
		if p.Timestamp >= since {
			return points[i:]
		}
	}

	return nil
}
