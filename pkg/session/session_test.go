package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/chartdesk/pkg/chart"
	"github.com/c9s/chartdesk/pkg/compare"
	"github.com/c9s/chartdesk/pkg/datasource"
	"github.com/c9s/chartdesk/pkg/datasource/csvsource"
	"github.com/c9s/chartdesk/pkg/service"
	"github.com/c9s/chartdesk/pkg/types"
)

const day = int64(86400)

func dailySeries(symbol string, timeframe types.Timeframe, start int64, closes ...int64) types.Series {
	s := types.Series{Symbol: symbol, Timeframe: timeframe}
	for i, c := range closes {
		s.Points = append(s.Points, types.DataPoint{
			Timestamp: start + int64(i)*day,
			Close:     decimal.NewFromInt(c),
			Volume:    1000,
		})
	}
	return s
}

// fakeSource serves fixed series per query key and fails for unknown keys.
type fakeSource map[string]types.Series

func (f fakeSource) Fetch(_ context.Context, q datasource.Query) (types.Series, error) {
	s, ok := f[q.Key()]
	if !ok {
		return types.Series{}, datasource.ErrSeriesNotFound
	}
	return s, nil
}

func newTestSession(t *testing.T, persist service.Store) *Session {
	source := fakeSource{
		"AAPL:1Y": dailySeries("AAPL", types.Timeframe1Y, 1700000000, 100, 110, 120, 130),
		"AAPL:1M": dailySeries("AAPL", types.Timeframe1M, 1700000000+2*day, 120, 130),
	}

	s := New("aapl", source, persist, WithQuietPeriod(time.Hour), WithSaveRetries(0))
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestSession_LoadFresh(t *testing.T) {
	s := newTestSession(t, service.NewMemoryService().NewStore("AAPL"))

	assert.Equal(t, "AAPL", s.Symbol())
	assert.Equal(t, 4, s.Series().Len())

	state := s.State()
	assert.Equal(t, types.Timeframe1Y, state.Timeframe)
	assert.Equal(t, types.DisplayUnitPrice, state.DisplayUnit)
	assert.Equal(t, types.DomainModeAuto, state.DomainMode)
	assert.Empty(t, state.Annotations)
	assert.False(t, s.AutoSaver().Pending())
}

func TestSession_PersistRoundTrip(t *testing.T) {
	memory := service.NewMemoryService()
	store := memory.NewStore("AAPL")

	s := newTestSession(t, store)
	added, err := s.Store().Add(types.Annotation{
		Type:      types.AnnotationText,
		Timestamp: 1700000000 + day,
		Price:     110,
		Text:      "earnings",
	})
	require.NoError(t, err)
	require.NoError(t, s.SetDisplayUnit(types.DisplayUnitPercentage))
	assert.True(t, s.AutoSaver().Pending())
	require.NoError(t, s.Close())

	restored := newTestSession(t, store)
	state := restored.State()
	assert.Equal(t, types.DisplayUnitPercentage, state.DisplayUnit)
	require.Len(t, state.Annotations, 1)
	assert.Equal(t, added.ID, state.Annotations[0].ID)
	assert.Equal(t, "earnings", state.Annotations[0].Text)
}

func TestSession_SetTimeframeKeepsAnnotations(t *testing.T) {
	s := newTestSession(t, service.NewMemoryService().NewStore("AAPL"))
	_, err := s.Store().Add(types.Annotation{Type: types.AnnotationText, Timestamp: 1700000000, Price: 100, Text: "start"})
	require.NoError(t, err)

	require.NoError(t, s.SetTimeframe(context.Background(), types.Timeframe1M))
	assert.Equal(t, 2, s.Series().Len())
	assert.Equal(t, 1, s.Store().Len())

	// the annotation is not on the 1M series: it is retained, but skipped on export
	scene := chart.BuildScene(chart.DefaultLayout(), s.ExportInput())
	assert.Equal(t, 1, scene.Skipped)

	assert.ErrorIs(t, s.SetTimeframe(context.Background(), "2W"), datasource.ErrInvalidTimeframe)
	assert.ErrorIs(t, s.SetTimeframe(context.Background(), types.TimeframeCustom), datasource.ErrInvalidTimeframe)
}

func TestSession_FetchFailureShowsNoData(t *testing.T) {
	s := newTestSession(t, service.NewMemoryService().NewStore("AAPL"))
	require.NoError(t, s.SetTimeframe(context.Background(), types.Timeframe5Y))
	assert.True(t, s.Series().Empty())

	scene := chart.BuildScene(chart.DefaultLayout(), s.ExportInput())
	assert.Equal(t, chart.CaptionNoData, scene.Caption)
}

func TestSession_SetRange(t *testing.T) {
	s := newTestSession(t, service.NewMemoryService().NewStore("AAPL"))

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, s.SetRange(context.Background(), types.DateRange{From: from, To: from}), ErrInvalidRange)

	require.NoError(t, s.SetRange(context.Background(), types.DateRange{From: from, To: from.AddDate(0, 1, 0)}))
	state := s.State()
	assert.Equal(t, types.TimeframeCustom, state.Timeframe)
	require.NotNil(t, state.CustomRange)
	assert.True(t, s.Series().Empty())
}

func TestSession_Zoom(t *testing.T) {
	s := newTestSession(t, service.NewMemoryService().NewStore("AAPL"))
	def := s.State().ZoomLevel

	level := s.ZoomIn()
	assert.Equal(t, def-1, level)

	domain := s.Domain()
	assert.Equal(t, types.DomainModeFixed, domain.Mode)
	// base range 30, multiplier 0.75
	assert.InDelta(t, 22.5, domain.Range, 1e-9)

	assert.Equal(t, def, s.ZoomOut())
	assert.InDelta(t, 30, s.Domain().Range, 1e-9)

	frame := s.Frame(types.NewViewport(0, 0, 300, 100))
	min, max := frame.YDomain()
	assert.InDelta(t, 100, min, 1e-9)
	assert.InDelta(t, 130, max, 1e-9)

	s.ResetZoom()
	assert.Equal(t, types.DomainModeAuto, s.Domain().Mode)
	assert.Zero(t, s.Domain().Range)
}

func TestSession_ApplyOverlay(t *testing.T) {
	s := newTestSession(t, service.NewMemoryService().NewStore("AAPL"))

	overlay, err := s.ApplyOverlay("sentiment", strings.NewReader("date,value\n2023-11-14,0.5\n2023-11-15,0.6\n"))
	require.NoError(t, err)
	assert.Equal(t, "sentiment", overlay.Name)

	_, err = s.ApplyOverlay("bad", strings.NewReader("2023-11-14,0.5\n2025-13-40,0.5\n"))
	assert.ErrorIs(t, err, csvsource.ErrInvalidOverlay)

	current := s.Overlay()
	require.NotNil(t, current)
	assert.Equal(t, "sentiment", current.Name)
	assert.Equal(t, 2, current.Len())

	s.ClearOverlay()
	assert.Nil(t, s.Overlay())
}

func TestSession_Export(t *testing.T) {
	s := newTestSession(t, service.NewMemoryService().NewStore("AAPL"))

	svg, err := s.Export(chart.FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "AAPL 1Y")

	_, err = s.Export(chart.FormatCSV)
	assert.ErrorIs(t, err, chart.ErrCSVRequiresComparison)
}

func TestSession_Machine(t *testing.T) {
	s := newTestSession(t, service.NewMemoryService().NewStore("AAPL"))
	vp := types.NewViewport(0, 0, 300, 100)

	m := s.Machine(vp)
	assert.Same(t, m, s.Machine(vp))

	require.NoError(t, s.SetTimeframe(context.Background(), types.Timeframe1M))
	assert.Equal(t, 2, s.Machine(vp).Frame().Series.Len())
}

type failingStore struct{}

func (failingStore) Load(val interface{}) error { return errors.New("connection refused") }
func (failingStore) Save(val interface{}) error { return errors.New("connection refused") }
func (failingStore) Reset() error               { return nil }

func TestSession_PersistenceFailureIsNotFatal(t *testing.T) {
	s := newTestSession(t, failingStore{})
	_, err := s.Store().Add(types.Annotation{Type: types.AnnotationNote, Timestamp: 1700000000, Price: 100, Text: "n"})
	require.NoError(t, err)

	assert.Error(t, s.Close())
	assert.Equal(t, 1, s.Store().Len())
}

func TestManager(t *testing.T) {
	start := int64(1700000000)
	source := fakeSource{
		"A:1Y": dailySeries("A", types.Timeframe1Y, start, 10, 20, 30),
		"B:1Y": dailySeries("B", types.Timeframe1Y, start+day, 50, 60),
	}

	manager := NewManager(source, service.NewMemoryService(), WithQuietPeriod(time.Hour))

	s1, err := manager.Get(context.Background(), "a")
	require.NoError(t, err)
	s2, err := manager.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, []string{"A"}, manager.Keys())

	_, err = manager.Get(context.Background(), " ")
	assert.ErrorIs(t, err, datasource.ErrEmptySymbol)

	comparison, err := manager.Compare(context.Background(), []string{"A", "B", "C"}, types.Timeframe1Y, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, comparison.Missing)
	assert.Equal(t, []string{"A", "B"}, comparison.Table.Symbols())
	assert.Equal(t, 2, comparison.Table.Len())

	_, err = manager.Compare(context.Background(), []string{"A", "B", "C", "D", "E", "F"}, types.Timeframe1Y, nil)
	assert.ErrorIs(t, err, compare.ErrTooManySeries)

	assert.NoError(t, manager.Close())
}
