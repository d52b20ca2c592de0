package compare

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/chartdesk/pkg/types"
)

func series(symbol string, timestamps []int64, closes []float64) types.Series {
	s := types.Series{Symbol: symbol, Timeframe: types.Timeframe1Y}
	for i, ts := range timestamps {
		d := decimal.NewFromFloat(closes[i])
		s.Points = append(s.Points, types.DataPoint{Timestamp: ts, Open: d, High: d, Low: d, Close: d})
	}
	return s
}

func TestNormalize_Intersection(t *testing.T) {
	a := series("A", []int64{1, 2, 3}, []float64{10, 20, 30})
	b := series("B", []int64{2, 3, 4}, []float64{5, 6, 9})

	table, err := Normalize(a, b)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, int64(2), table.Rows()[0].Timestamp)
	assert.Equal(t, int64(3), table.Rows()[1].Timestamp)

	// every symbol is rebased to the first close it was fetched with
	assert.Equal(t, []float64{100, 200}, table.Percentages("A"))
	assert.Equal(t, []float64{0, 20}, table.Percentages("B"))
	assert.Equal(t, []float64{100, 200, 0, 20}, table.AllPercentages())
	assert.Equal(t, "30", table.Rows()[1].Values["A"].Price.String())

	timeline := table.Timeline()
	assert.Equal(t, "A", timeline.Symbol)
	assert.Equal(t, 2, timeline.Len())

	frame := table.Frame(types.NewViewport(0, 0, 100, 100), types.AutoDomain(types.DisplayUnitPrice))
	assert.Equal(t, types.DisplayUnitPercentage, frame.Unit())
	assert.Equal(t, 10.0, frame.Baseline())
	assert.InDelta(t, 100.0, frame.ValueAt(0), 1e-9)
	assert.InDelta(t, 200.0, frame.ValueAt(1), 1e-9)

	min, max := frame.YDomain()
	assert.InDelta(t, -10.0, min, 1e-9)
	assert.InDelta(t, 210.0, max, 1e-9)
}

func TestNormalize_FullSeriesBaseline(t *testing.T) {
	a := series("A", []int64{1, 2, 3}, []float64{10, 20, 30})
	b := series("B", []int64{1, 2, 3}, []float64{5, 5, 6})

	table, err := Normalize(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 100, 200}, table.Percentages("A"))
	assert.Equal(t, []float64{0, 0, 20}, table.Percentages("B"))
}

func TestNormalize_Rounding(t *testing.T) {
	a := series("A", []int64{1, 2}, []float64{3, 4})

	table, err := Normalize(a)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 33.33}, table.Percentages("A"))
}

func TestNormalize_EmptyIntersection(t *testing.T) {
	a := series("A", []int64{1, 2}, []float64{1, 2})
	b := series("B", []int64{3, 4}, []float64{1, 2})

	table, err := Normalize(a, b)
	require.NoError(t, err, "mismatched calendars are not an error")
	assert.True(t, table.Empty())
	assert.Equal(t, []string{"A", "B"}, table.Symbols())
	assert.Empty(t, table.CsvRecords())

	table, err = Normalize()
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestNormalize_Rejects(t *testing.T) {
	var many []types.Series
	for _, s := range []string{"A", "B", "C", "D", "E", "F"} {
		many = append(many, series(s, []int64{1}, []float64{1}))
	}

	_, err := Normalize(many...)
	assert.ErrorIs(t, err, ErrTooManySeries)

	_, err = Normalize(many[0], many[0])
	assert.ErrorIs(t, err, ErrDuplicateSymbol)
}

func TestNormalize_ZeroBaseline(t *testing.T) {
	a := series("A", []int64{1, 2}, []float64{0, 5})

	table, err := Normalize(a)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, table.Percentages("A"))
}

func TestTable_Csv(t *testing.T) {
	a := series("A", []int64{1709251200, 1709337600}, []float64{10, 11})
	b := series("B", []int64{1709251200, 1709337600}, []float64{20, 19})

	table, err := Normalize(a, b)
	require.NoError(t, err)

	var formatter types.CsvFormatter = table
	assert.Equal(t, []string{"timestamp", "date", "A_percentage", "A_price", "B_percentage", "B_price"}, formatter.CsvHeader())
	assert.Equal(t, [][]string{
		{"1709251200", "2024-03-01", "0.00", "10", "0.00", "20"},
		{"1709337600", "2024-03-02", "10.00", "11", "-5.00", "19"},
	}, formatter.CsvRecords())
}
