package session

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/c9s/chartdesk/pkg/compare"
	"github.com/c9s/chartdesk/pkg/datasource"
	"github.com/c9s/chartdesk/pkg/service"
	"github.com/c9s/chartdesk/pkg/types"
)

const persistenceNamespace = "sessions"

// Manager keeps one loaded session per symbol and one per comparison view.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	comparisons map[string]*ComparisonSession

	fetcher     datasource.Fetcher
	persistence service.PersistenceService
	options     []Option
}

func NewManager(fetcher datasource.Fetcher, persistence service.PersistenceService, options ...Option) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		comparisons: make(map[string]*ComparisonSession),
		fetcher:     fetcher,
		persistence: persistence,
		options:     options,
	}
}

// Get returns the loaded session of the symbol, creating it on first use.
func (m *Manager) Get(ctx context.Context, symbol string) (*Session, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	if key == "" {
		return nil, datasource.ErrEmptySymbol
	}

	m.mu.Lock()
	s, ok := m.sessions[key]
	if !ok {
		s = New(key, m.fetcher, m.persistence.NewStore(key, persistenceNamespace), m.options...)
		m.sessions[key] = s
	}
	m.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.sessions))
	for k := range m.sessions {
		keys = append(keys, k)
	}
	return keys
}

// Close flushes and stops every session.
func (m *Manager) Close() error {
	m.mu.Lock()
	closers := make([]interface{ Close() error }, 0, len(m.sessions)+len(m.comparisons))
	for _, s := range m.sessions {
		closers = append(closers, s)
	}
	for _, cs := range m.comparisons {
		closers = append(closers, cs)
	}
	m.mu.Unlock()

	var err error
	for _, c := range closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// Comparison is a normalized multi-symbol table. Missing lists the symbols
// whose fetch failed; they are left out of the table.
type Comparison struct {
	Table   *compare.Table
	Missing []string
}

// Compare fetches the symbols concurrently and normalizes the series that
// could be fetched.
func (m *Manager) Compare(ctx context.Context, symbols []string, timeframe types.Timeframe, r *types.DateRange) (*Comparison, error) {
	if len(symbols) > compare.MaxSymbols {
		return nil, errors.Wrapf(compare.ErrTooManySeries, "got %d, at most %d", len(symbols), compare.MaxSymbols)
	}

	queries := make([]datasource.Query, len(symbols))
	for i, symbol := range symbols {
		queries[i] = datasource.Query{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Timeframe: timeframe, Range: r}
		if err := queries[i].Validate(); err != nil {
			return nil, err
		}
	}

	fetched := make([]types.Series, len(queries))
	failed := make([]bool, len(queries))

	g, subCtx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			series, err := m.fetcher.Fetch(subCtx, q)
			if err != nil {
				log.WithError(err).Warnf("can not fetch %s for comparison", q)
				failed[i] = true
				return nil
			}

			series.Symbol = q.Symbol
			fetched[i] = series
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		available []types.Series
		missing   []string
	)
	for i, q := range queries {
		if failed[i] {
			missing = append(missing, q.Symbol)
			continue
		}
		available = append(available, fetched[i])
	}

	table, err := compare.Normalize(available...)
	if err != nil {
		return nil, err
	}

	return &Comparison{Table: table, Missing: missing}, nil
}

// CompareSession fetches the comparison and returns the annotated view of
// the symbol set, creating it on first use. The view keeps its annotations
// across fetches.
func (m *Manager) CompareSession(ctx context.Context, symbols []string, timeframe types.Timeframe, r *types.DateRange) (*ComparisonSession, error) {
	comparison, err := m.Compare(ctx, symbols, timeframe, r)
	if err != nil {
		return nil, err
	}

	normalized := make([]string, len(symbols))
	for i, symbol := range symbols {
		normalized[i] = strings.ToUpper(strings.TrimSpace(symbol))
	}

	key := ComparisonKey(normalized, timeframe, r)

	m.mu.Lock()
	cs, ok := m.comparisons[key]
	if !ok {
		cs = NewComparisonSession(key, timeframe, r, m.persistence.NewStore(key, comparisonNamespace), m.options...)
		m.comparisons[key] = cs
	}
	m.mu.Unlock()

	if err := cs.Load(); err != nil {
		return nil, err
	}

	cs.update(normalized, comparison)
	return cs, nil
}
