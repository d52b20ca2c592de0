package compare

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/c9s/chartdesk/pkg/coord"
	"github.com/c9s/chartdesk/pkg/types"
)

const MaxSymbols = 5

var log = logrus.WithField("component", "compare")

var (
	ErrTooManySeries   = errors.New("too many series to compare")
	ErrDuplicateSymbol = errors.New("duplicate symbol")
)

var hundred = decimal.NewFromInt(100)

// Value is one symbol's cell in an aligned row.
type Value struct {
	Percentage float64         `json:"percentage"`
	Price      decimal.Decimal `json:"price"`
}

type Row struct {
	Timestamp int64            `json:"timestamp"`
	Label     string           `json:"date"`
	Values    map[string]Value `json:"values"`
}

// Table is the aligned, rebased view of several series. Every row carries
// a value for every symbol.
type Table struct {
	symbols   []string
	baselines map[string]decimal.Decimal
	rows      []Row
	timeline  types.Series
}

var _ types.CsvFormatter = (*Table)(nil)

// Normalize aligns the series on the exact intersection of their timestamps
// and rebases each symbol to the percentage change from the first close of
// its fetched series. An empty intersection yields an empty table.
func Normalize(series ...types.Series) (*Table, error) {
	if len(series) > MaxSymbols {
		return nil, errors.Wrapf(ErrTooManySeries, "got %d, at most %d", len(series), MaxSymbols)
	}

	table := &Table{baselines: make(map[string]decimal.Decimal, len(series))}
	seen := make(map[string]struct{}, len(series))
	for _, s := range series {
		key := strings.ToUpper(s.Symbol)
		if _, ok := seen[key]; ok {
			return nil, errors.Wrapf(ErrDuplicateSymbol, "%s", s.Symbol)
		}
		seen[key] = struct{}{}
		table.symbols = append(table.symbols, s.Symbol)
		if len(s.Points) > 0 {
			table.baselines[s.Symbol] = s.Points[0].Close
		}
	}

	if len(series) == 0 {
		return table, nil
	}

	common := intersect(series)
	if len(common) == 0 {
		log.Infof("no overlapping timestamps among %v", table.symbols)
		return table, nil
	}

	// first close per symbol at every common timestamp
	closes := make([]map[int64]decimal.Decimal, len(series))
	for i, s := range series {
		closes[i] = make(map[int64]decimal.Decimal, len(common))
		for _, p := range s.Points {
			if _, ok := closes[i][p.Timestamp]; !ok {
				closes[i][p.Timestamp] = p.Close
			}
		}
	}

	first := series[0]
	table.timeline = types.Series{Symbol: first.Symbol, Timeframe: first.Timeframe}
	intraday := first.Timeframe.Intraday()

	for _, ts := range common {
		row := Row{
			Timestamp: ts,
			Label:     types.FormatTimeLabel(ts, intraday),
			Values:    make(map[string]Value, len(series)),
		}

		for i, s := range series {
			base := table.baselines[s.Symbol]
			price := closes[i][ts]
			row.Values[s.Symbol] = Value{
				Percentage: rebase(price, base),
				Price:      price,
			}
		}

		table.rows = append(table.rows, row)

		idx, _ := first.IndexOf(ts)
		table.timeline.Points = append(table.timeline.Points, first.Points[idx])
	}

	return table, nil
}

func intersect(series []types.Series) []int64 {
	counts := make(map[int64]int)
	for _, s := range series {
		seen := make(map[int64]struct{}, len(s.Points))
		for _, p := range s.Points {
			if _, ok := seen[p.Timestamp]; ok {
				continue
			}
			seen[p.Timestamp] = struct{}{}
			counts[p.Timestamp]++
		}
	}

	var common []int64
	for ts, c := range counts {
		if c == len(series) {
			common = append(common, ts)
		}
	}

	sort.Slice(common, func(i, j int) bool {
		return common[i] < common[j]
	})
	return common
}

// rebase returns (price - base) / base * 100 rounded to 2 decimals; 0 on a zero baseline.
func rebase(price, base decimal.Decimal) float64 {
	if base.IsZero() {
		return 0
	}

	return price.Sub(base).Div(base).Mul(hundred).Round(2).InexactFloat64()
}

func (t *Table) Symbols() []string {
	return append([]string(nil), t.symbols...)
}

func (t *Table) Rows() []Row {
	return t.rows
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Percentages returns the rebased series of one symbol in row order.
func (t *Table) Percentages(symbol string) []float64 {
	out := make([]float64, 0, len(t.rows))
	for _, row := range t.rows {
		v, ok := row.Values[symbol]
		if !ok {
			return nil
		}
		out = append(out, v.Percentage)
	}
	return out
}

// AllPercentages flattens every symbol's percentages, the values a shared
// Y domain is resolved from.
func (t *Table) AllPercentages() []float64 {
	out := make([]float64, 0, len(t.rows)*len(t.symbols))
	for _, symbol := range t.symbols {
		out = append(out, t.Percentages(symbol)...)
	}
	return out
}

// Baseline is the close every percentage of the symbol is rebased to.
func (t *Table) Baseline(symbol string) float64 {
	return t.baselines[symbol].InexactFloat64()
}

// Timeline is the first symbol's series restricted to the aligned
// timestamps. It drives the x mapping of the comparison chart. Rebased to
// Baseline of the first symbol its closes equal that symbol's percentages.
func (t *Table) Timeline() types.Series {
	return t.timeline
}

// Frame builds the coordinate frame of the comparison chart: the timeline
// for x, every symbol's percentages for the shared Y domain.
func (t *Table) Frame(vp types.Viewport, domain types.ViewportDomain) coord.Frame {
	domain.DisplayUnit = types.DisplayUnitPercentage
	frame := coord.NewFrame(t.timeline, vp, domain)
	frame.DomainValues = t.AllPercentages()
	if len(t.symbols) > 0 {
		frame.BaselinePrice = t.Baseline(t.symbols[0])
	}
	return frame
}

func (t *Table) CsvHeader() []string {
	header := []string{"timestamp", "date"}
	for _, symbol := range t.symbols {
		header = append(header, symbol+"_percentage", symbol+"_price")
	}
	return header
}

func (t *Table) CsvRecords() [][]string {
	records := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		record := []string{strconv.FormatInt(row.Timestamp, 10), row.Label}
		for _, symbol := range t.symbols {
			v := row.Values[symbol]
			record = append(record, strconv.FormatFloat(v.Percentage, 'f', 2, 64), v.Price.String())
		}
		records = append(records, record)
	}
	return records
}
