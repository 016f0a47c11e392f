// Package export renders count tables as text or markdown tables, CSV, JSON
// or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/scanstore/scanstore/counttable"
)

// AbsentMark is printed for cells without matching scans
const AbsentMark = "-"

// Format names an output format
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatMD    Format = "markdown"
)

// Formats lists the supported formats
var Formats = []Format{FormatTable, FormatCSV, FormatJSON, FormatYAML, FormatMD}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "md" {
		f = FormatMD
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (expected one of table, csv, json, yaml, markdown)", s)
}

// Document is the structured form of a grid
type Document struct {
	Tags     []string `json:"tags" yaml:"tags"`
	Columns  []string `json:"columns" yaml:"columns"`
	Rows     []Row    `json:"rows" yaml:"rows"`
	Totals   []int    `json:"totals" yaml:"totals"`
	Revision string   `json:"revision,omitempty" yaml:"revision,omitempty"`
}

// Row is one grid row: its labels, then one cell per column value
type Row struct {
	Labels []string `json:"labels" yaml:"labels"`
	Cells  []Cell   `json:"cells" yaml:"cells"`
}

// Cell is one computed cell
type Cell struct {
	Count  int      `json:"count" yaml:"count"`
	Absent bool     `json:"absent,omitempty" yaml:"absent,omitempty"`
	Scans  []string `json:"scans,omitempty" yaml:"scans,omitempty"`
}

// NewDocument converts a grid
func NewDocument(g *counttable.Grid) (*Document, error) {
	doc := &Document{
		Tags:     g.Selection(),
		Revision: g.Revision,
		Rows:     make([]Row, 0, g.RowCount()),
		Totals:   make([]int, g.ColCount()),
	}
	lead := g.LeadingCount()

	for col := 0; col < g.ColCount(); col++ {
		h, err := g.ColumnHeader(col)
		if err != nil {
			return nil, err
		}
		doc.Columns = append(doc.Columns, h)
		if doc.Totals[col], err = g.Total(col); err != nil {
			return nil, err
		}
	}

	for row := 0; row < g.RowCount(); row++ {
		labels, err := g.RowLabels(row)
		if err != nil {
			return nil, err
		}
		r := Row{Labels: make([]string, len(labels)), Cells: make([]Cell, 0, g.ColCount()-lead)}
		for i, l := range labels {
			r.Labels[i] = l.Text
		}
		for col := lead; col < g.ColCount(); col++ {
			c, err := g.Cell(row, col)
			if err != nil {
				return nil, err
			}
			r.Cells = append(r.Cells, Cell{Count: c.Count, Absent: c.Absent, Scans: c.Scans})
		}
		doc.Rows = append(doc.Rows, r)
	}
	return doc, nil
}

// Records flattens a grid to text: the header, one record per row, then the
// totals row (value set sizes under the label columns, column sums under the
// count columns). Absent cells read AbsentMark.
func Records(g *counttable.Grid) ([][]string, error) {
	doc, err := NewDocument(g)
	if err != nil {
		return nil, err
	}
	records := make([][]string, 0, len(doc.Rows)+2)
	records = append(records, doc.Columns)

	for _, r := range doc.Rows {
		rec := append([]string(nil), r.Labels...)
		for _, c := range r.Cells {
			if c.Absent {
				rec = append(rec, AbsentMark)
			} else {
				rec = append(rec, strconv.Itoa(c.Count))
			}
		}
		records = append(records, rec)
	}

	totals := make([]string, len(doc.Totals))
	for i, n := range doc.Totals {
		totals[i] = strconv.Itoa(n)
	}
	records = append(records, totals)
	return records, nil
}

// Write renders g to w in format f
func Write(w io.Writer, g *counttable.Grid, f Format) error {
	switch f {
	case FormatTable:
		return writeTable(w, g)
	case FormatCSV:
		return writeCSV(w, g)
	case FormatMD:
		records, err := Records(g)
		if err != nil {
			return err
		}
		return WriteMarkdown(w, strings.Join(g.Selection(), " x "), records[0], records[1:])
	case FormatJSON:
		doc, err := NewDocument(g)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		doc, err := NewDocument(g)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", f)
}

func writeTable(w io.Writer, g *counttable.Grid) error {
	records, err := Records(g)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(records[0])
	table.AppendBulk(records[1 : len(records)-1])
	table.SetFooter(records[len(records)-1])
	table.Render()
	return nil
}

func writeCSV(w io.Writer, g *counttable.Grid) error {
	records, err := Records(g)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// WriteMarkdown renders a pipe table, preceded by a "# title" heading when
// title is not empty. Pipes inside cells are escaped.
func WriteMarkdown(w io.Writer, title string, header []string, rows [][]string) error {
	if title != "" {
		if _, err := fmt.Fprintf(w, "# %s\n\n", title); err != nil {
			return err
		}
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetHeader(escapePipes(header))
	for _, r := range rows {
		table.Append(escapePipes(r))
	}
	table.Render()
	return nil
}

func escapePipes(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}
