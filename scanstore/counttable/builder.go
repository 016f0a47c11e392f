package counttable

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arthur-debert/scanstore/internal/logging"
	"github.com/arthur-debert/scanstore/scanstore/filter"
	"github.com/arthur-debert/scanstore/types"
)

// Option configures a Builder
type Option func(*Builder)

// WithRowBatching issues one query per row and tallies the last tag in
// memory instead of one query per cell. Grids are identical either way.
func WithRowBatching() Option {
	return func(b *Builder) {
		b.batchRows = true
	}
}

// WithLogger sets the builder's logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithTimeFunc sets the clock used for Grid.BuiltAt
func WithTimeFunc(fn func() time.Time) Option {
	return func(b *Builder) {
		b.timeFunc = fn
	}
}

// Builder builds count tables from a store
type Builder struct {
	store     Store
	enum      *Enumerator
	batchRows bool
	logger    *slog.Logger
	timeFunc  func() time.Time
}

// NewBuilder creates a builder reading the store's current collection
func NewBuilder(store Store, opts ...Option) *Builder {
	b := &Builder{
		store:    store,
		enum:     NewEnumerator(store),
		timeFunc: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.Default(b.logger).With("component", "counttable")
	return b
}

// Values returns the value set of one tag
func (b *Builder) Values(tag string) (ValueSet, error) {
	return b.enum.Values(tag)
}

// Build cross-tabulates the current scans by selection. Queries run
// sequentially, row by row. ctx is checked between rows; any failure returns
// no grid.
func (b *Builder) Build(ctx context.Context, selection []string) (*Grid, error) {
	if len(selection) < 2 {
		return nil, ErrNothingToDo
	}
	start := b.timeFunc()

	var revision string
	if r, ok := b.store.(revisioner); ok {
		revision = r.Revision()
	}

	last := selection[len(selection)-1]
	if _, err := b.store.GetFieldAttributes(types.CollectionCurrent, last); err != nil {
		return nil, fmt.Errorf("count table: %w", err)
	}

	valueSets := make([]ValueSet, len(selection))
	for i, tag := range selection {
		vs, err := b.enum.Values(tag)
		if err != nil {
			return nil, fmt.Errorf("count table: %w", err)
		}
		valueSets[i] = vs
	}

	leading := valueSets[:len(valueSets)-1]
	columns := valueSets[len(valueSets)-1]
	sizes := make([]int, len(leading))
	for i, vs := range leading {
		sizes[i] = vs.Len()
	}

	rowCount, err := Combinations(sizes)
	if err != nil {
		return nil, fmt.Errorf("count table: %w", err)
	}

	g := &Grid{
		selection: append([]string(nil), selection...),
		valueSets: valueSets,
		rows:      make([][]int, 0, rowCount),
		cells:     make([][]Cell, 0, rowCount),
		Revision:  revision,
	}

	queries := 0
	odo := NewOdometer(sizes)
	for digits, ok := odo.Next(); ok; digits, ok = odo.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rowPairs := make([]filter.Pair, len(digits))
		for i, idx := range digits {
			rowPairs[i] = filter.TypedPair(leading[i].Tag, leading[i].Values[idx])
		}

		var (
			cells []Cell
			n     int
			err   error
		)
		if b.batchRows {
			cells, n, err = b.countRow(rowPairs, columns)
		} else {
			cells, n, err = b.countCells(rowPairs, columns)
		}
		queries += n
		if err != nil {
			return nil, fmt.Errorf("count table row %d: %w", len(g.rows), err)
		}
		g.rows = append(g.rows, digits)
		g.cells = append(g.cells, cells)
	}

	g.totals = make([]int, g.ColCount())
	for i, vs := range leading {
		g.totals[i] = vs.Len()
	}
	for _, row := range g.cells {
		for j, c := range row {
			g.totals[len(leading)+j] += c.Count
		}
	}
	g.BuiltAt = b.timeFunc()

	b.logger.Info("count table built",
		"tags", selection,
		"rows", g.RowCount(),
		"cols", g.ColCount(),
		"queries", queries,
		"batched", b.batchRows,
		"duration", g.BuiltAt.Sub(start))
	return g, nil
}

// countCells issues one query per column of the row
func (b *Builder) countCells(rowPairs []filter.Pair, columns ValueSet) ([]Cell, int, error) {
	cells := make([]Cell, columns.Len())
	for j, v := range columns.Values {
		pairs := append(append([]filter.Pair(nil), rowPairs...), filter.TypedPair(columns.Tag, v))
		scans, err := b.store.FilterDocuments(types.CollectionCurrent, filter.Build(pairs))
		if err != nil {
			return nil, j + 1, err
		}
		cells[j] = newCell(scans)
	}
	return cells, columns.Len(), nil
}

// countRow issues a single query for the row and splits the matches by
// their value for the column tag
func (b *Builder) countRow(rowPairs []filter.Pair, columns ValueSet) ([]Cell, int, error) {
	scans, err := b.store.FilterDocuments(types.CollectionCurrent, filter.Build(rowPairs))
	if err != nil {
		return nil, 1, err
	}

	byColumn := make([][]types.Scan, columns.Len())
	for _, scan := range scans {
		v, ok := scan.Value(columns.Tag.Name)
		if !ok {
			continue
		}
		if j := columns.Index(v); j >= 0 {
			byColumn[j] = append(byColumn[j], scan)
		}
	}

	cells := make([]Cell, columns.Len())
	for j := range cells {
		cells[j] = newCell(byColumn[j])
	}
	return cells, 1, nil
}

func newCell(scans []types.Scan) Cell {
	c := Cell{Count: len(scans), Absent: len(scans) == 0, Computed: true}
	if len(scans) > 0 {
		c.Scans = make([]string, len(scans))
		for i, s := range scans {
			c.Scans[i] = s.Path
		}
	}
	return c
}
