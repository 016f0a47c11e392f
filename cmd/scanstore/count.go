package main

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/scanstore/scanstore/counttable"
	"github.com/arthur-debert/scanstore/scanstore/export"
	"github.com/arthur-debert/scanstore/scanstore/filter"
	"github.com/arthur-debert/scanstore/types"
)

func (cli *CLI) addValuesCommand() {
	valuesCmd := &cobra.Command{
		Use:   "values <tag>",
		Short: "List the distinct values of a tag, with scan counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			b := counttable.NewBuilder(st, counttable.WithLogger(cli.logger))
			vs, err := b.Values(args[0])
			if err != nil {
				return WrapError("list values", err)
			}
			counts := make([]int, vs.Len())
			for i, v := range vs.Values {
				expr := filter.Build([]filter.Pair{filter.TypedPair(vs.Tag, v)})
				scans, err := st.FilterDocuments(types.CollectionCurrent, expr)
				if err != nil {
					return WrapError("list values", err)
				}
				counts[i] = len(scans)
			}
			return cli.outputResult(valueListing(vs, counts))
		},
	}
	cli.rootCmd.AddCommand(valuesCmd)
}

type valueDoc struct {
	Value string `json:"value" yaml:"value"`
	Scans int    `json:"scans" yaml:"scans"`
}

func valueListing(vs counttable.ValueSet, counts []int) listing {
	l := listing{header: []string{vs.Tag.Name, "Scans"}}
	docs := make([]valueDoc, vs.Len())
	for i := range vs.Values {
		docs[i] = valueDoc{Value: vs.Text(i), Scans: counts[i]}
		l.rows = append(l.rows, []string{vs.Text(i), strconv.Itoa(counts[i])})
	}
	l.doc = docs
	return l
}

func (cli *CLI) addCountCommand() {
	countCmd := &cobra.Command{
		Use:   "count <tag> <tag>...",
		Short: "Build a count table over two or more tags",
		Long: `Cross-tabulate the current scans. Every tag but the last forms the rows (all
combinations of their values), the last tag's values form the columns, and
each cell counts the scans matching its row and column. Cells without scans
print as "-". The last row holds the totals.

Examples:
  scanstore count PatientName TimePoint SequenceName
  scanstore count PatientName SequenceName --format csv
  scanstore count PatientName TimePoint SequenceName --batch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := cli.buildGrid(cmd, args)
			if err != nil || grid == nil {
				return err
			}
			f, err := cli.format()
			if err != nil {
				return err
			}
			return export.Write(cli.out, grid, f)
		},
	}
	countCmd.Flags().Bool("batch", false, "Issue one query per row instead of one per cell")
	cli.rootCmd.AddCommand(countCmd)
}

// buildGrid builds the count table for the command's tag arguments. A
// selection of fewer than two tags prints a notice and yields no grid and
// no error.
func (cli *CLI) buildGrid(cmd *cobra.Command, tags []string) (*counttable.Grid, error) {
	st, err := cli.openStore()
	if err != nil {
		return nil, err
	}

	opts := []counttable.Option{counttable.WithLogger(cli.logger)}
	if batch, _ := cmd.Flags().GetBool("batch"); batch {
		opts = append(opts, counttable.WithRowBatching())
	}
	grid, err := counttable.NewBuilder(st, opts...).Build(cmd.Context(), tags)
	if errors.Is(err, counttable.ErrNothingToDo) {
		cli.printf("Nothing to do: a count table needs at least two tags, got %d\n", len(tags))
		cli.printf("Pass the row tags first and the column tag last\n")
		return nil, nil
	}
	if err != nil {
		return nil, WrapError("build count table", err)
	}
	return grid, nil
}
