package session

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/chartdesk/pkg/annotation"
	"github.com/c9s/chartdesk/pkg/chart"
	"github.com/c9s/chartdesk/pkg/coord"
	"github.com/c9s/chartdesk/pkg/datasource"
	"github.com/c9s/chartdesk/pkg/datasource/csvsource"
	"github.com/c9s/chartdesk/pkg/interact"
	"github.com/c9s/chartdesk/pkg/metrics"
	"github.com/c9s/chartdesk/pkg/service"
	"github.com/c9s/chartdesk/pkg/types"
)

var log = logrus.WithField("component", "session")

var ErrInvalidRange = errors.New("invalid date range")

type Option func(s *Session)

func WithZoomLadder(ladder *coord.ZoomLadder) Option {
	return func(s *Session) {
		if ladder != nil {
			s.ladder = ladder
		}
	}
}

func WithQuietPeriod(d time.Duration) Option {
	return func(s *Session) {
		s.quiet = d
	}
}

func WithSaveRetries(n uint64) Option {
	return func(s *Session) {
		s.saveRetries = n
	}
}

func WithLayout(layout chart.Layout) Option {
	return func(s *Session) {
		s.exporter = chart.NewExporter(layout)
	}
}

func WithTolerances(t interact.Tolerances) Option {
	return func(s *Session) {
		s.tolerances = t.Normalize()
	}
}

func WithDefaultTimeframe(tf types.Timeframe) Option {
	return func(s *Session) {
		if tf.Valid() && tf != types.TimeframeCustom {
			s.defaultTimeframe = tf
		}
	}
}

// Session is the view of one symbol: its series, annotations, Y domain and
// overlay. It is shared by the HTTP handlers and the autosave timer.
type Session struct {
	mu sync.Mutex

	symbol  string
	fetcher datasource.Fetcher
	persist service.Store

	store    *annotation.Store
	saver    *AutoSaver
	ladder   *coord.ZoomLadder
	exporter *chart.Exporter

	tolerances       interact.Tolerances
	quiet            time.Duration
	saveRetries      uint64
	defaultTimeframe types.Timeframe

	loaded bool

	timeframe   types.Timeframe
	customRange *types.DateRange
	unit        types.DisplayUnit
	mode        types.DomainMode
	zoomLevel   int
	series      types.Series
	overlay     *types.Overlay
	machine     *interact.Machine
}

// configure applies the options onto the default settings.
func configure(options []Option) *Session {
	s := &Session{
		ladder:           coord.DefaultZoomLadder(),
		exporter:         chart.NewExporter(chart.DefaultLayout()),
		tolerances:       interact.DefaultTolerances(),
		quiet:            DefaultQuietPeriod,
		saveRetries:      DefaultSaveRetries,
		defaultTimeframe: types.Timeframe1Y,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func New(symbol string, fetcher datasource.Fetcher, persist service.Store, options ...Option) *Session {
	s := configure(options)
	s.symbol = strings.ToUpper(symbol)
	s.fetcher = fetcher
	s.persist = persist
	s.store = annotation.NewStore()

	def := s.defaultState()
	s.timeframe = def.Timeframe
	s.unit = def.DisplayUnit
	s.mode = def.DomainMode
	s.zoomLevel = def.ZoomLevel

	s.saver = NewAutoSaver(persist, s.quiet, s.State)
	s.saver.maxRetries = s.saveRetries
	return s
}

func (s *Session) defaultState() State {
	return DefaultState(s.symbol, s.defaultTimeframe, s.ladder.DefaultLevel())
}

func (s *Session) Symbol() string {
	return s.symbol
}

func (s *Session) Store() *annotation.Store {
	return s.store
}

func (s *Session) AutoSaver() *AutoSaver {
	return s.saver
}

// Load restores the persisted state and fetches the series. A missing or
// unreadable state starts a fresh session; a failed fetch leaves the
// session with an empty series. Invalid persisted annotations are rejected
// as a whole.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	def := s.defaultState()
	state := def
	if err := s.persist.Load(&state); err != nil {
		if !errors.Is(err, service.ErrPersistenceNotExists) {
			log.WithError(err).Warnf("can not load the persisted session %s, starting a new one", s.symbol)
		}
		state = def
	}
	state.normalize(def)

	if err := s.store.Replace(state.Annotations); err != nil {
		return errors.Wrapf(err, "can not restore the annotations of %s", s.symbol)
	}

	s.mu.Lock()
	s.timeframe = state.Timeframe
	s.customRange = state.CustomRange
	s.unit = state.DisplayUnit
	s.mode = state.DomainMode
	s.zoomLevel = state.ZoomLevel
	s.overlay = state.Overlay
	s.loaded = true
	s.mu.Unlock()

	s.store.OnChange(func(annotations []types.Annotation) {
		metrics.AnnotationCount.WithLabelValues(s.symbol).Set(float64(len(annotations)))
		s.saver.Notify()
	})
	metrics.AnnotationCount.WithLabelValues(s.symbol).Set(float64(s.store.Len()))

	s.refetch(ctx, state.Timeframe, state.CustomRange)
	return nil
}

func (s *Session) refetch(ctx context.Context, timeframe types.Timeframe, r *types.DateRange) {
	q := datasource.Query{Symbol: s.symbol, Timeframe: timeframe, Range: r}
	series, err := s.fetcher.Fetch(ctx, q)
	if err != nil {
		log.WithError(err).Warnf("can not fetch %s, showing no data", q)
		series = types.Series{Symbol: s.symbol, Timeframe: timeframe}
	}

	s.mu.Lock()
	s.series = series
	s.mu.Unlock()
}

// SetTimeframe swaps the series; the annotations are kept.
func (s *Session) SetTimeframe(ctx context.Context, timeframe types.Timeframe) error {
	if !timeframe.Valid() || timeframe == types.TimeframeCustom {
		return errors.Wrapf(datasource.ErrInvalidTimeframe, "%q", timeframe)
	}

	s.mu.Lock()
	s.timeframe = timeframe
	s.customRange = nil
	s.mu.Unlock()

	s.refetch(ctx, timeframe, nil)
	s.saver.Notify()
	return nil
}

// SetRange switches to a custom date range.
func (s *Session) SetRange(ctx context.Context, r types.DateRange) error {
	if r.From.IsZero() || r.To.IsZero() || !r.From.Before(r.To) {
		return errors.Wrapf(ErrInvalidRange, "%s", r.String())
	}

	s.mu.Lock()
	s.timeframe = types.TimeframeCustom
	s.customRange = &r
	s.mu.Unlock()

	s.refetch(ctx, types.TimeframeCustom, &r)
	s.saver.Notify()
	return nil
}

func (s *Session) SetDisplayUnit(unit types.DisplayUnit) error {
	if !unit.Valid() {
		return errors.Errorf("invalid display unit %q", unit)
	}

	s.mu.Lock()
	s.unit = unit
	s.mu.Unlock()

	s.saver.Notify()
	return nil
}

// ZoomIn narrows the fixed value range by one ladder step. Zooming
// switches an auto domain to fixed mode at the current level first.
func (s *Session) ZoomIn() int {
	return s.zoom(s.ladder.ZoomIn)
}

func (s *Session) ZoomOut() int {
	return s.zoom(s.ladder.ZoomOut)
}

func (s *Session) zoom(step func(level int) int) int {
	s.mu.Lock()
	if s.mode == types.DomainModeAuto {
		s.mode = types.DomainModeFixed
		s.zoomLevel = s.ladder.DefaultLevel()
	}
	s.zoomLevel = step(s.zoomLevel)
	level := s.zoomLevel
	s.mu.Unlock()

	s.saver.Notify()
	return level
}

// ResetZoom returns to the auto-fit domain.
func (s *Session) ResetZoom() {
	s.mu.Lock()
	s.mode = types.DomainModeAuto
	s.zoomLevel = s.ladder.DefaultLevel()
	s.mu.Unlock()

	s.saver.Notify()
}

func (s *Session) Series() types.Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.series
}

func (s *Session) Overlay() *types.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay
}

// Domain is the Y domain with the zoom ladder applied.
func (s *Session) Domain() types.ViewportDomain {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domainLocked()
}

func (s *Session) domainLocked() types.ViewportDomain {
	domain := types.ViewportDomain{Mode: s.mode, DisplayUnit: s.unit}
	if s.mode == types.DomainModeFixed {
		domain.Range = s.ladder.Range(coord.BaseRange(s.series, s.unit), s.zoomLevel)
	}
	return domain
}

func (s *Session) Frame(vp types.Viewport) coord.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return coord.NewFrame(s.series, vp, s.domainLocked())
}

// Machine returns the interaction machine of the session bound to the
// current frame at viewport vp. The machine survives series swaps.
func (s *Session) Machine(vp types.Viewport) *interact.Machine {
	frame := s.Frame(vp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine == nil {
		s.machine = interact.New(s.store, frame, interact.WithTolerances(s.tolerances))
	} else {
		s.machine.SetFrame(frame)
	}

	return s.machine
}

// ApplyOverlay replaces the overlay with the parsed csv upload. A rejected
// upload leaves the previous overlay in place.
func (s *Session) ApplyOverlay(name string, r io.Reader) (*types.Overlay, error) {
	overlay, err := csvsource.ParseOverlay(r)
	if err != nil {
		metrics.OverlayRejectionsTotal.Inc()
		return nil, err
	}

	overlay.Name = name

	s.mu.Lock()
	s.overlay = &overlay
	s.mu.Unlock()

	log.Infof("applied overlay %q to %s: %d points", name, s.symbol, overlay.Len())
	s.saver.Notify()
	return &overlay, nil
}

func (s *Session) ClearOverlay() {
	s.mu.Lock()
	s.overlay = nil
	s.mu.Unlock()

	s.saver.Notify()
}

// ExportInput is the export renderer's view of the session.
func (s *Session) ExportInput() chart.Input {
	annotations := s.store.List()

	s.mu.Lock()
	defer s.mu.Unlock()

	return chart.Input{
		Title:       s.title(),
		Series:      s.series,
		Annotations: annotations,
		Domain:      s.domainLocked(),
		Overlay:     s.overlay,
	}
}

func (s *Session) title() string {
	if s.timeframe == types.TimeframeCustom && s.customRange != nil {
		return s.symbol + " " + s.customRange.String()
	}
	return s.symbol + " " + s.timeframe.String()
}

func (s *Session) Export(format chart.Format) ([]byte, error) {
	if format == chart.FormatCSV {
		return nil, chart.ErrCSVRequiresComparison
	}

	return s.exporter.Export(format, s.ExportInput())
}

// State is a snapshot of the persisted fields.
func (s *Session) State() State {
	annotations := s.store.List()

	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Symbol:      s.symbol,
		Timeframe:   s.timeframe,
		CustomRange: s.customRange,
		DisplayUnit: s.unit,
		DomainMode:  s.mode,
		ZoomLevel:   s.zoomLevel,
		Annotations: annotations,
		Overlay:     s.overlay,
	}
}

// Close flushes a pending autosave and stops the saver.
func (s *Session) Close() error {
	err := s.saver.Flush()
	s.saver.Stop()
	return err
}
