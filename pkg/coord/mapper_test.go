package coord

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/c9s/chartdesk/pkg/types"
)

func buildSeries(closes ...float64) types.Series {
	s := types.Series{Symbol: "TEST", Timeframe: types.Timeframe1Y}
	for i, c := range closes {
		d := decimal.NewFromFloat(c)
		s.Points = append(s.Points, types.DataPoint{
			Timestamp: int64(i+1) * 100,
			Open:      d, High: d, Low: d, Close: d,
			Volume: 10,
		})
	}
	return s
}

var testViewport = types.NewViewport(50, 20, 400, 200)

func TestTimeToX_MonotonicAndBounded(t *testing.T) {
	s := buildSeries(10, 12, 11, 15, 14, 13, 18)

	prev := -1.0
	for i, p := range s.Points {
		x, ok := TimeToX(p.Timestamp, s, testViewport)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, x, prev, "index %d", i)
		assert.GreaterOrEqual(t, x, testViewport.Left)
		assert.LessOrEqual(t, x, testViewport.Right())
		prev = x
	}

	first, _ := TimeToX(100, s, testViewport)
	last, _ := TimeToX(700, s, testViewport)
	assert.Equal(t, testViewport.Left, first)
	assert.Equal(t, testViewport.Right(), last)
}

func TestTimeToX_Degenerate(t *testing.T) {
	s := buildSeries(10)
	x, ok := TimeToX(100, s, testViewport)
	assert.True(t, ok)
	assert.Equal(t, testViewport.Left, x)

	_, ok = TimeToX(999, s, testViewport)
	assert.False(t, ok)

	_, ok = TimeToX(100, types.Series{}, testViewport)
	assert.False(t, ok)
}

func TestXToIndex(t *testing.T) {
	n := 5 // step is 100px
	idx, ok := XToIndex(50, n, testViewport)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, _ = XToIndex(50+149, n, testViewport)
	assert.Equal(t, 1, idx)

	idx, _ = XToIndex(50+151, n, testViewport)
	assert.Equal(t, 2, idx)

	idx, _ = XToIndex(9999, n, testViewport)
	assert.Equal(t, 4, idx)

	idx, _ = XToIndex(-9999, n, testViewport)
	assert.Equal(t, 0, idx)

	_, ok = XToIndex(100, 0, testViewport)
	assert.False(t, ok)
}

func TestValueToY_StrictlyDecreasingAndClamped(t *testing.T) {
	min, max := 0.0, 100.0

	prev := ValueToY(min, min, max, testViewport)
	for v := 1.0; v <= 100; v++ {
		y := ValueToY(v, min, max, testViewport)
		assert.Less(t, y, prev, "value %f", v)
		prev = y
	}

	for _, v := range []float64{-1000, -1, 101, 1e9} {
		y := ValueToY(v, min, max, testViewport)
		assert.GreaterOrEqual(t, y, testViewport.Top)
		assert.LessOrEqual(t, y, testViewport.Bottom())
	}

	assert.Equal(t, testViewport.Top, ValueToY(1e9, min, max, testViewport))
	assert.Equal(t, testViewport.Bottom(), ValueToY(-1e9, min, max, testViewport))
	assert.Equal(t, testViewport.Top+testViewport.Height/2, ValueToY(5, 5, 5, testViewport))
}

func TestYToValue_InvertsValueToY(t *testing.T) {
	min, max := 40.0, 80.0
	for _, v := range []float64{40, 50, 62.5, 80} {
		y := ValueToY(v, min, max, testViewport)
		assert.InDelta(t, v, YToValue(y, min, max, testViewport), 1e-9)
	}
}

func TestPriceToDisplayValue(t *testing.T) {
	assert.Equal(t, 110.0, PriceToDisplayValue(110, 100, types.DisplayUnitPrice))
	assert.InDelta(t, 10.0, PriceToDisplayValue(110, 100, types.DisplayUnitPercentage), 1e-9)
	assert.Equal(t, 0.0, PriceToDisplayValue(110, 0, types.DisplayUnitPercentage))
}

func TestConvertValue(t *testing.T) {
	assert.InDelta(t, 10.0, ConvertValue(110, types.DisplayUnitPrice, types.DisplayUnitPercentage, 100), 1e-9)
	assert.InDelta(t, 110.0, ConvertValue(10, types.DisplayUnitPercentage, types.DisplayUnitPrice, 100), 1e-9)
	assert.Equal(t, 42.0, ConvertValue(42, "", types.DisplayUnitPrice, 100))
}

func TestFrame_DisplayToggleDoesNotChangeStoredPrice(t *testing.T) {
	s := buildSeries(100, 105, 110)
	a := types.NewMeasurement(
		types.PendingMeasurement{Timestamp: 100, Price: 100},
		types.PendingMeasurement{Timestamp: 300, Price: 110},
		types.DisplayUnitPrice,
	)
	assert.Equal(t, 10.0, a.Percentage)

	priceFrame := NewFrame(s, testViewport, types.AutoDomain(types.DisplayUnitPrice))
	pctFrame := NewFrame(s, testViewport, types.AutoDomain(types.DisplayUnitPercentage))

	_, yPrice, ok := priceFrame.Project(a.EndTimestamp, a.EndPrice, a.Unit)
	assert.True(t, ok)
	_, yPct, ok := pctFrame.Project(a.EndTimestamp, a.EndPrice, a.Unit)
	assert.True(t, ok)

	// both domains put the maximum at the same padded position
	assert.InDelta(t, yPrice, yPct, 1e-9)
	assert.Equal(t, 100.0, a.StartPrice)
	assert.Equal(t, 110.0, a.EndPrice)
	assert.InDelta(t, 10.0, pctFrame.DisplayValue(a.EndPrice, a.Unit), 1e-9)
}

func TestFrame_ProjectMiss(t *testing.T) {
	f := NewFrame(buildSeries(1, 2, 3), testViewport, types.AutoDomain(types.DisplayUnitPrice))
	_, _, ok := f.Project(12345, 2, types.DisplayUnitPrice)
	assert.False(t, ok)
}
