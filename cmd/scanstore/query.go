package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/scanstore/scanstore/filter"
	"github.com/arthur-debert/scanstore/scanstore/search"
	"github.com/arthur-debert/scanstore/types"
)

func (cli *CLI) addFilterCommand() {
	filterCmd := &cobra.Command{
		Use:   "filter <expression>",
		Short: "List the scans matching a filter expression",
		Long: `Evaluate a filter expression against the scans.

Grammar:
  {Tag} == "text"          comparisons: == != < <= > >=
  {Tag} IN ["a", "b"]      membership
  {Tag} CONTAINS "RA"      substring, or element of a list tag
  NOT, AND, OR and parentheses combine conditions; () matches every scan

Examples:
  scanstore filter '(({PatientName} == "P1") AND ({TimePoint} == "T1"))'
  scanstore filter '({Bricks} == [1, 2])' --initial`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			collection := types.CollectionCurrent
			if initial, _ := cmd.Flags().GetBool("initial"); initial {
				collection = types.CollectionInitial
			}
			scans, err := st.FilterDocuments(collection, args[0])
			if err != nil {
				return WrapError("filter scans", err)
			}
			columns, _ := cmd.Flags().GetStringSlice("show")
			return cli.outputResult(scanListing(scans, types.NewTagSet(st.Tags()), columns))
		},
	}
	filterCmd.Flags().Bool("initial", false, "Filter the values recorded at import time")
	filterCmd.Flags().StringSlice("show", nil, "Tags to show (default: all visible tags)")
	cli.rootCmd.AddCommand(filterCmd)
}

func (cli *CLI) addExprCommand() {
	exprCmd := &cobra.Command{
		Use:   "expr <Tag=value>...",
		Short: "Print the filter expression selecting the given tag values",
		Long: `Print the conjunctive filter expression for a list of tag values, as sent
to the store for one count table cell. Values are parsed by tag type.

Example:
  scanstore expr PatientName=P1 TimePoint=T1
  (({PatientName} == "P1") AND ({TimePoint} == "T1"))`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			schema := types.NewTagSet(st.Tags())

			pairs := make([]filter.Pair, 0, len(args))
			for _, arg := range args {
				values, err := parseAssignments(schema, []string{arg})
				if err != nil {
					return err
				}
				name, _, _ := strings.Cut(arg, "=")
				tag, _ := schema.Get(name)
				pairs = append(pairs, filter.TypedPair(tag, values[name]))
			}
			cli.printf("%s\n", filter.Build(pairs))
			return nil
		},
	}
	cli.rootCmd.AddCommand(exprCmd)
}

func (cli *CLI) addListCommand() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scans with optional filtering, sorting and pagination",
		Long: `List current scans.

Examples:
  scanstore list
  scanstore list --where SequenceName=RARE --where PatientName=P1
  scanstore list --expr '({FlipAngle} > 10)' --sort -SeriesNumber --limit 5
  scanstore list --search mdeft`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeListCommand(cmd)
		},
	}
	listCmd.Flags().StringSlice("where", nil, "Exact tag values (Tag=value, repeat a tag to match any)")
	listCmd.Flags().String("expr", "", "Filter expression")
	listCmd.Flags().String("search", "", "Rapid search text")
	listCmd.Flags().StringSlice("sort", nil, "Sort tags, prefix with - for descending")
	listCmd.Flags().Int("limit", 0, "Limit number of results")
	listCmd.Flags().Int("offset", 0, "Offset for pagination")
	listCmd.Flags().StringSlice("show", nil, "Tags to show (default: all visible tags)")
	cli.rootCmd.AddCommand(listCmd)
}

func (cli *CLI) executeListCommand(cmd *cobra.Command) error {
	st, err := cli.openStore()
	if err != nil {
		return err
	}
	schema := types.NewTagSet(st.Tags())

	opts := types.NewListOptions()
	where, _ := cmd.Flags().GetStringSlice("where")
	byTag := make(map[string][]any)
	for _, w := range where {
		values, err := parseAssignments(schema, []string{w})
		if err != nil {
			return err
		}
		for name, v := range values {
			byTag[name] = append(byTag[name], v)
		}
	}
	for name, values := range byTag {
		if len(values) == 1 {
			opts.Filters[name] = values[0]
		} else {
			opts.Filters[name] = values
		}
	}
	opts.Expression, _ = cmd.Flags().GetString("expr")
	opts.Search, _ = cmd.Flags().GetString("search")

	sorts, _ := cmd.Flags().GetStringSlice("sort")
	for _, s := range sorts {
		opts.OrderBy = append(opts.OrderBy, types.OrderClause{
			Tag:        strings.TrimPrefix(s, "-"),
			Descending: strings.HasPrefix(s, "-"),
		})
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		opts.Limit = &limit
	}
	if offset, _ := cmd.Flags().GetInt("offset"); offset > 0 {
		opts.Offset = &offset
	}

	scans, err := st.List(opts)
	if err != nil {
		return WrapError("list scans", err)
	}
	columns, _ := cmd.Flags().GetStringSlice("show")
	return cli.outputResult(scanListing(scans, schema, columns))
}

func (cli *CLI) addSearchCommand() {
	searchCmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Rank scans by how well their tag values match a text",
		Long: `Case-insensitive substring search over the scan path and tag values.
The query "*Not Defined*" finds scans missing a value for a searched tag.

Examples:
  scanstore search rare
  scanstore search P1 --tags PatientName
  scanstore search '*Not Defined*' --tags TimePoint`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			schema := types.NewTagSet(st.Tags())

			opts := search.Options{Query: args[0]}
			opts.Tags, _ = cmd.Flags().GetStringSlice("tags")
			opts.CaseSensitive, _ = cmd.Flags().GetBool("case-sensitive")
			opts.ExactMatch, _ = cmd.Flags().GetBool("exact")
			if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
				opts.MaxResults = &limit
			}

			results, err := search.NewEngine(st, schema).Search(opts, nil)
			if err != nil {
				return WrapError("search", err)
			}
			return cli.outputResult(searchListing(results))
		},
	}
	searchCmd.Flags().StringSlice("tags", nil, "Tags to search (default: path and all visible tags)")
	searchCmd.Flags().Bool("case-sensitive", false, "Match case")
	searchCmd.Flags().Bool("exact", false, "Require the whole value to match")
	searchCmd.Flags().Int("limit", 0, "Limit number of results")
	cli.rootCmd.AddCommand(searchCmd)
}

type searchDoc struct {
	Path    string   `json:"path" yaml:"path"`
	Score   float64  `json:"score" yaml:"score"`
	Matched []string `json:"matched" yaml:"matched"`
}

func searchListing(results []search.Result) listing {
	l := listing{header: []string{"Path", "Score", "Matched"}}
	docs := make([]searchDoc, len(results))
	for i, r := range results {
		docs[i] = searchDoc{Path: r.Scan.Path, Score: r.Score, Matched: r.MatchedTags}
		l.rows = append(l.rows, []string{r.Scan.Path, fmt.Sprintf("%.2f", r.Score), strings.Join(r.MatchedTags, ", ")})
	}
	l.doc = docs
	return l
}
