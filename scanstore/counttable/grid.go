package counttable

import (
	"fmt"
	"time"
)

// Label is one row's value for one leading tag
type Label struct {
	Tag   string
	Value any
	Text  string
}

// Cell is one grid cell. Cells in the leading label columns are not
// Computed. A computed cell with no matching scans is Absent.
type Cell struct {
	Count    int
	Scans    []string
	Absent   bool
	Computed bool
}

// Grid is a built count table. It is immutable.
type Grid struct {
	selection []string
	valueSets []ValueSet
	rows      [][]int
	cells     [][]Cell
	totals    []int

	// Revision is the store revision the grid was built from, when known
	Revision string
	BuiltAt  time.Time
}

// Selection returns the tags the grid was built from
func (g *Grid) Selection() []string {
	return append([]string(nil), g.selection...)
}

// ValueSets returns the value set of every selected tag
func (g *Grid) ValueSets() []ValueSet {
	return append([]ValueSet(nil), g.valueSets...)
}

// LeadingCount is the number of label columns
func (g *Grid) LeadingCount() int {
	return len(g.selection) - 1
}

// RowCount is the number of data rows, excluding the totals row
func (g *Grid) RowCount() int {
	return len(g.rows)
}

// ColCount is the number of label columns plus one column per value of the
// last tag
func (g *Grid) ColCount() int {
	return g.LeadingCount() + g.valueSets[len(g.valueSets)-1].Len()
}

// RowLabels returns the values assigned to a row, one per leading tag
func (g *Grid) RowLabels(row int) ([]Label, error) {
	if row < 0 || row >= len(g.rows) {
		return nil, fmt.Errorf("%w: row %d", ErrOutOfRange, row)
	}
	labels := make([]Label, len(g.rows[row]))
	for i, idx := range g.rows[row] {
		vs := g.valueSets[i]
		labels[i] = Label{Tag: vs.Tag.Name, Value: vs.Values[idx], Text: vs.Text(idx)}
	}
	return labels, nil
}

// ColumnHeader returns the tag name of a label column or the formatted
// value of a count column
func (g *Grid) ColumnHeader(col int) (string, error) {
	if col < 0 || col >= g.ColCount() {
		return "", fmt.Errorf("%w: column %d", ErrOutOfRange, col)
	}
	if col < g.LeadingCount() {
		return g.selection[col], nil
	}
	return g.valueSets[len(g.valueSets)-1].Text(col - g.LeadingCount()), nil
}

// Cell returns the cell at row, col
func (g *Grid) Cell(row, col int) (Cell, error) {
	if row < 0 || row >= len(g.rows) {
		return Cell{}, fmt.Errorf("%w: row %d", ErrOutOfRange, row)
	}
	if col < 0 || col >= g.ColCount() {
		return Cell{}, fmt.Errorf("%w: column %d", ErrOutOfRange, col)
	}
	if col < g.LeadingCount() {
		return Cell{}, nil
	}
	c := g.cells[row][col-g.LeadingCount()]
	c.Scans = append([]string(nil), c.Scans...)
	return c, nil
}

// Total returns the totals row entry for col: the value set size for a label
// column, the column sum for a count column
func (g *Grid) Total(col int) (int, error) {
	if col < 0 || col >= g.ColCount() {
		return 0, fmt.Errorf("%w: column %d", ErrOutOfRange, col)
	}
	return g.totals[col], nil
}
