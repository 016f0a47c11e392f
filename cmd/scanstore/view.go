package main

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/scanstore/scanstore/counttable"
	"github.com/arthur-debert/scanstore/scanstore/export"
)

func (cli *CLI) addViewCommand() {
	viewCmd := &cobra.Command{
		Use:   "view <tag> <tag>...",
		Short: "Browse a count table in the terminal",
		Long: `Build a count table and show it in an interactive terminal view. Selecting
a cell lists the matching scans. Press q or Escape to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := cli.buildGrid(cmd, args)
			if err != nil || grid == nil {
				return err
			}
			return newGridViewer(grid).Run()
		},
	}
	viewCmd.Flags().Bool("batch", false, "Issue one query per row instead of one per cell")
	cli.rootCmd.AddCommand(viewCmd)
}

// gridViewer shows a grid in a table with a details pane for the selected cell
type gridViewer struct {
	grid    *counttable.Grid
	table   *tview.Table
	details *tview.TextView
	app     *tview.Application
}

func newGridViewer(grid *counttable.Grid) *gridViewer {
	v := &gridViewer{
		grid:    grid,
		table:   gridTable(grid),
		details: tview.NewTextView().SetDynamicColors(true),
		app:     tview.NewApplication(),
	}
	v.table.SetBorder(true).SetTitle(" " + strings.Join(grid.Selection(), " x ") + " ")
	v.details.SetBorder(true).SetTitle(" Scans ")
	v.table.SetSelectionChangedFunc(func(row, col int) {
		v.details.SetText(v.describe(row, col))
	})

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.table, 0, 3, true).
		AddItem(v.details, 0, 1, false)
	v.app.SetRoot(flex, true).SetFocus(v.table).EnableMouse(true)
	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			v.app.Stop()
			return nil
		}
		return event
	})
	return v
}

// Run blocks until the user quits
func (v *gridViewer) Run() error {
	return v.app.Run()
}

// gridTable lays the grid out with the header in row 0 and the totals row
// last. Absent cells are dimmed.
func gridTable(grid *counttable.Grid) *tview.Table {
	table := tview.NewTable().SetBorders(false).SetFixed(1, grid.LeadingCount()).SetSelectable(true, true)

	for col := 0; col < grid.ColCount(); col++ {
		h, _ := grid.ColumnHeader(col)
		table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}

	for row := 0; row < grid.RowCount(); row++ {
		labels, _ := grid.RowLabels(row)
		for col, l := range labels {
			table.SetCell(row+1, col, tview.NewTableCell(l.Text).SetTextColor(tcell.ColorAqua))
		}
		for col := grid.LeadingCount(); col < grid.ColCount(); col++ {
			c, _ := grid.Cell(row, col)
			cell := tview.NewTableCell(strconv.Itoa(c.Count)).SetAlign(tview.AlignRight)
			if c.Absent {
				cell.SetText(export.AbsentMark).SetTextColor(tcell.ColorGray)
			}
			table.SetCell(row+1, col, cell)
		}
	}

	last := grid.RowCount() + 1
	for col := 0; col < grid.ColCount(); col++ {
		n, _ := grid.Total(col)
		table.SetCell(last, col, tview.NewTableCell(strconv.Itoa(n)).
			SetAlign(tview.AlignRight).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}
	return table
}

// describe lists the scans of the cell at a table position
func (v *gridViewer) describe(row, col int) string {
	if row < 1 || row > v.grid.RowCount() {
		return ""
	}
	labels, err := v.grid.RowLabels(row - 1)
	if err != nil {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.Tag + "=" + l.Text
	}
	if col < v.grid.LeadingCount() {
		return strings.Join(parts, ", ")
	}

	c, err := v.grid.Cell(row-1, col)
	if err != nil {
		return ""
	}
	sel := v.grid.Selection()
	h, _ := v.grid.ColumnHeader(col)
	parts = append(parts, sel[len(sel)-1]+"="+h)

	var b strings.Builder
	b.WriteString("[yellow]" + tview.Escape(strings.Join(parts, ", ")) + "[-]\n")
	if c.Absent {
		b.WriteString("no scans")
		return b.String()
	}
	for _, path := range c.Scans {
		b.WriteString(tview.Escape(path) + "\n")
	}
	return b.String()
}
