package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/chartdesk/pkg/chart"
	"github.com/c9s/chartdesk/pkg/interact"
	"github.com/c9s/chartdesk/pkg/service"
	"github.com/c9s/chartdesk/pkg/types"
)

func comparisonSource() fakeSource {
	start := int64(1700000000)
	return fakeSource{
		"A:1Y": dailySeries("A", types.Timeframe1Y, start, 10, 20, 30),
		"B:1Y": dailySeries("B", types.Timeframe1Y, start, 50, 60, 70),
	}
}

func TestComparisonKey(t *testing.T) {
	assert.Equal(t, "A-B_1Y", ComparisonKey([]string{"b", " a"}, types.Timeframe1Y, nil))
	assert.Equal(t, ComparisonKey([]string{"A", "B"}, types.Timeframe6M, nil), ComparisonKey([]string{"B", "A"}, types.Timeframe6M, nil))
	assert.NotEqual(t, ComparisonKey([]string{"A", "B"}, types.Timeframe6M, nil), ComparisonKey([]string{"A", "B"}, types.Timeframe1Y, nil))

	r := &types.DateRange{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "A-B_2024-01-01_2024-06-30", ComparisonKey([]string{"A", "B"}, types.TimeframeCustom, r))
}

func TestComparisonSession_Measurement(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(comparisonSource(), service.NewMemoryService(), WithQuietPeriod(time.Hour))
	defer func() { assert.NoError(t, manager.Close()) }()

	cs, err := manager.CompareSession(ctx, []string{"a", "b"}, types.Timeframe1Y, nil)
	require.NoError(t, err)
	assert.Equal(t, "A-B_1Y", cs.Key())
	assert.Equal(t, []string{"A", "B"}, cs.Table().Symbols())

	vp := types.NewViewport(0, 0, 200, 100)
	m := cs.Machine(vp)
	assert.Equal(t, types.DisplayUnitPercentage, m.Frame().Unit())

	require.NoError(t, m.SelectTool(interact.ToolPercentage))
	require.NoError(t, m.Click(0, 50))
	require.NoError(t, m.Click(200, 50))

	list := cs.Store().List()
	require.Len(t, list, 1)
	measurement := list[0]
	assert.Equal(t, types.DisplayUnitPercentage, measurement.Unit)
	assert.Equal(t, 0.0, measurement.StartPrice)
	assert.Equal(t, 200.0, measurement.EndPrice)
	assert.Equal(t, 200.0, measurement.Percentage, "end - start in percentage points")

	input := cs.ExportInput()
	assert.Equal(t, "A vs B 1Y", input.Title)
	assert.Same(t, cs.Table(), input.Comparison)
	require.Len(t, input.Annotations, 1)

	layout := chart.DefaultLayout()
	scene := chart.BuildScene(layout, input)
	mark, ok := scene.Mark(measurement.ID)
	require.True(t, ok)

	frame := cs.Table().Frame(layout.Content, types.AutoDomain(types.DisplayUnitPercentage))
	x1, _ := frame.X(measurement.StartTimestamp)
	x2, _ := frame.X(measurement.EndTimestamp)
	assert.Equal(t, chart.Point{X: x1, Y: frame.Y(0)}, mark.Start)
	assert.Equal(t, chart.Point{X: x2, Y: frame.Y(200)}, mark.End)

	svg, err := cs.Export(chart.FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "+200.00%")

	data, err := cs.Export(chart.FormatCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "timestamp,date,A_percentage"))
}

func TestComparisonSession_Persistence(t *testing.T) {
	ctx := context.Background()
	persistence := service.NewMemoryService()

	manager := NewManager(comparisonSource(), persistence, WithQuietPeriod(time.Hour))
	cs, err := manager.CompareSession(ctx, []string{"A", "B"}, types.Timeframe1Y, nil)
	require.NoError(t, err)

	_, err = cs.Store().Add(types.Annotation{Type: types.AnnotationHorizontal, Unit: types.DisplayUnitPercentage, Timestamp: 1700000000, Price: 50})
	require.NoError(t, err)
	assert.True(t, cs.AutoSaver().Pending())
	require.NoError(t, manager.Close())

	reopened := NewManager(comparisonSource(), persistence, WithQuietPeriod(time.Hour))
	defer func() { assert.NoError(t, reopened.Close()) }()

	again, err := reopened.CompareSession(ctx, []string{"b", "a"}, types.Timeframe1Y, nil)
	require.NoError(t, err)
	assert.Equal(t, cs.Key(), again.Key())
	assert.Equal(t, []string{"B", "A"}, again.Symbols())
	require.Equal(t, 1, again.Store().Len())
	assert.Equal(t, 50.0, again.Store().List()[0].Price)

	other, err := reopened.CompareSession(ctx, []string{"A"}, types.Timeframe1Y, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, other.Store().Len(), "another symbol set has its own annotations")
}
