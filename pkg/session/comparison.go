package session

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/c9s/chartdesk/pkg/annotation"
	"github.com/c9s/chartdesk/pkg/chart"
	"github.com/c9s/chartdesk/pkg/compare"
	"github.com/c9s/chartdesk/pkg/coord"
	"github.com/c9s/chartdesk/pkg/interact"
	"github.com/c9s/chartdesk/pkg/metrics"
	"github.com/c9s/chartdesk/pkg/service"
	"github.com/c9s/chartdesk/pkg/types"
)

const comparisonNamespace = "comparisons"

// ComparisonKey identifies a comparison view by its symbol set and period.
// The symbol order does not matter.
func ComparisonKey(symbols []string, timeframe types.Timeframe, r *types.DateRange) string {
	set := make([]string, len(symbols))
	for i, symbol := range symbols {
		set[i] = strings.ToUpper(strings.TrimSpace(symbol))
	}
	sort.Strings(set)

	period := timeframe.String()
	if timeframe == types.TimeframeCustom && r != nil {
		period = r.From.Format(types.DateLayout) + "_" + r.To.Format(types.DateLayout)
	}
	return strings.Join(set, "-") + "_" + period
}

// ComparisonSession is the annotated view of a normalized symbol set. Its
// annotations live in percentage units on the comparison timeline.
type ComparisonSession struct {
	mu sync.Mutex

	key         string
	timeframe   types.Timeframe
	customRange *types.DateRange
	persist     service.Store

	store      *annotation.Store
	saver      *AutoSaver
	exporter   *chart.Exporter
	tolerances interact.Tolerances

	loaded     bool
	symbols    []string
	comparison *Comparison
	machine    *interact.Machine
}

func NewComparisonSession(key string, timeframe types.Timeframe, r *types.DateRange, persist service.Store, options ...Option) *ComparisonSession {
	settings := configure(options)

	cs := &ComparisonSession{
		key:         key,
		timeframe:   timeframe,
		customRange: r,
		persist:     persist,
		store:       annotation.NewStore(),
		exporter:    settings.exporter,
		tolerances:  settings.tolerances,
		comparison:  &Comparison{},
	}

	cs.saver = NewAutoSaver(persist, settings.quiet, cs.State)
	cs.saver.maxRetries = settings.saveRetries
	return cs
}

func (cs *ComparisonSession) Key() string {
	return cs.key
}

func (cs *ComparisonSession) Store() *annotation.Store {
	return cs.store
}

func (cs *ComparisonSession) AutoSaver() *AutoSaver {
	return cs.saver
}

// Load restores the persisted annotations of the view. A missing or
// unreadable state starts with no annotations.
func (cs *ComparisonSession) Load() error {
	cs.mu.Lock()
	if cs.loaded {
		cs.mu.Unlock()
		return nil
	}
	cs.mu.Unlock()

	var state State
	if err := cs.persist.Load(&state); err != nil {
		if !errors.Is(err, service.ErrPersistenceNotExists) {
			log.WithError(err).Warnf("can not load the persisted comparison %s, starting a new one", cs.key)
		}
		state = State{}
	}

	if err := cs.store.Replace(state.Annotations); err != nil {
		return errors.Wrapf(err, "can not restore the annotations of %s", cs.key)
	}

	cs.mu.Lock()
	cs.loaded = true
	if len(cs.symbols) == 0 {
		cs.symbols = state.Symbols
	}
	cs.mu.Unlock()

	cs.store.OnChange(func(annotations []types.Annotation) {
		metrics.AnnotationCount.WithLabelValues(cs.key).Set(float64(len(annotations)))
		cs.saver.Notify()
	})
	metrics.AnnotationCount.WithLabelValues(cs.key).Set(float64(cs.store.Len()))
	return nil
}

// update swaps in a fresh fetch of the symbols. The annotations are kept.
func (cs *ComparisonSession) update(symbols []string, comparison *Comparison) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.symbols = symbols
	cs.comparison = comparison
	if cs.machine != nil {
		cs.machine.SetFrame(cs.frameLocked(cs.machine.Frame().Viewport))
	}
}

func (cs *ComparisonSession) Symbols() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.symbols
}

func (cs *ComparisonSession) Comparison() *Comparison {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.comparison
}

func (cs *ComparisonSession) Table() *compare.Table {
	return cs.Comparison().Table
}

func comparisonDomain() types.ViewportDomain {
	return types.AutoDomain(types.DisplayUnitPercentage)
}

// Frame maps the comparison timeline and the shared percentage domain.
func (cs *ComparisonSession) Frame(vp types.Viewport) coord.Frame {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.frameLocked(vp)
}

func (cs *ComparisonSession) frameLocked(vp types.Viewport) coord.Frame {
	if cs.comparison == nil || cs.comparison.Table == nil {
		return coord.NewFrame(types.Series{}, vp, comparisonDomain())
	}
	return cs.comparison.Table.Frame(vp, comparisonDomain())
}

// Machine returns the interaction machine of the view bound to the table
// frame at viewport vp. Measurements placed through it are percentage
// point differences.
func (cs *ComparisonSession) Machine(vp types.Viewport) *interact.Machine {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	frame := cs.frameLocked(vp)
	if cs.machine == nil {
		cs.machine = interact.New(cs.store, frame, interact.WithTolerances(cs.tolerances))
	} else {
		cs.machine.SetFrame(frame)
	}

	return cs.machine
}

func (cs *ComparisonSession) title() string {
	period := cs.timeframe.String()
	if cs.timeframe == types.TimeframeCustom && cs.customRange != nil {
		period = cs.customRange.String()
	}
	return strings.Join(cs.symbols, " vs ") + " " + period
}

// ExportInput is the export renderer's view of the comparison.
func (cs *ComparisonSession) ExportInput() chart.Input {
	annotations := cs.store.List()

	cs.mu.Lock()
	defer cs.mu.Unlock()

	input := chart.Input{
		Title:       cs.title(),
		Annotations: annotations,
		Domain:      comparisonDomain(),
		Comparison:  cs.comparison.Table,
	}
	if input.Comparison == nil {
		input.Comparison = &compare.Table{}
	}
	return input
}

func (cs *ComparisonSession) Export(format chart.Format) ([]byte, error) {
	return cs.exporter.Export(format, cs.ExportInput())
}

func (cs *ComparisonSession) State() State {
	annotations := cs.store.List()

	cs.mu.Lock()
	defer cs.mu.Unlock()

	return State{
		Symbol:      cs.key,
		Symbols:     cs.symbols,
		Timeframe:   cs.timeframe,
		CustomRange: cs.customRange,
		DisplayUnit: types.DisplayUnitPercentage,
		DomainMode:  types.DomainModeAuto,
		Annotations: annotations,
	}
}

// Close flushes a pending autosave and stops the saver.
func (cs *ComparisonSession) Close() error {
	err := cs.saver.Flush()
	cs.saver.Stop()
	return err
}
