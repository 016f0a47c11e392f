package main

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/scanstore/scanstore/storage"
	"github.com/arthur-debert/scanstore/types"
)

func (cli *CLI) addEditCommands() {
	showCmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Show a scan's current and initial values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeShow(args[0])
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <path> <Tag=value>...",
		Short: "Set tag values of a scan; an empty value clears it",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeSet(args[0], args[1:])
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset <path> <tag>...",
		Short: "Restore tag values of a scan to their imported values",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			for _, tag := range args[1:] {
				if err := st.ResetValue(args[0], tag); err != nil {
					return WrapError("reset value", err)
				}
			}
			cli.printf("Reset %d value(s) of %s\n", len(args)-1, args[0])
			return nil
		},
	}

	undoCmd := &cobra.Command{
		Use:   "undo",
		Short: "Revert the last value change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			change, err := st.Undo()
			if err != nil {
				return WrapError("undo", err)
			}
			cli.printChange("Undid", st, reverse(change))
			return nil
		},
	}

	redoCmd := &cobra.Command{
		Use:   "redo",
		Short: "Re-apply the last undone value change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			change, err := st.Redo()
			if err != nil {
				return WrapError("redo", err)
			}
			cli.printChange("Redid", st, change)
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <path>...",
		Short: "Remove scans from the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			for _, path := range args {
				if err := st.RemoveScan(path); err != nil {
					return WrapError("remove scan", err, CommonSuggestions.CheckScan)
				}
			}
			cli.printf("Removed %d scan(s)\n", len(args))
			return nil
		},
	}

	cli.rootCmd.AddCommand(showCmd, setCmd, resetCmd, undoCmd, redoCmd, removeCmd)
}

func (cli *CLI) executeShow(path string) error {
	st, err := cli.openStore()
	if err != nil {
		return err
	}
	current, err := st.GetScan(types.CollectionCurrent, path)
	if err != nil {
		return WrapError("show scan", err, CommonSuggestions.CheckScan)
	}
	initial, err := st.GetScan(types.CollectionInitial, path)
	if err != nil {
		return WrapError("show scan", err)
	}

	type valueRow struct {
		Tag     string `json:"tag" yaml:"tag"`
		Current string `json:"current" yaml:"current"`
		Initial string `json:"initial" yaml:"initial"`
	}
	l := listing{header: []string{"Tag", "Current", "Initial"}}
	var docs []valueRow
	for _, tag := range st.Tags() {
		row := valueRow{Tag: tag.Name}
		if v, ok := current.Value(tag.Name); ok {
			row.Current = tag.Type.Format(v)
		}
		if v, ok := initial.Value(tag.Name); ok {
			row.Initial = tag.Type.Format(v)
		}
		docs = append(docs, row)
		l.rows = append(l.rows, []string{row.Tag, row.Current, row.Initial})
	}
	l.doc = docs
	return cli.outputResult(l)
}

func (cli *CLI) executeSet(path string, assignments []string) error {
	st, err := cli.openStore()
	if err != nil {
		return err
	}
	schema := types.NewTagSet(st.Tags())

	for _, a := range assignments {
		if name, text, ok := cutAssignment(a); ok && text == "" {
			if _, err := schema.Lookup(name); err != nil {
				return WrapError("set value", err)
			}
			if err := st.SetValue(path, name, nil); err != nil {
				return WrapError("set value", err)
			}
			continue
		}
		values, err := parseAssignments(schema, []string{a})
		if err != nil {
			return err
		}
		for name, v := range values {
			if err := st.SetValue(path, name, v); err != nil {
				return WrapError("set value", err, CommonSuggestions.CheckScan)
			}
		}
	}
	cli.printf("Updated %s\n", path)
	return nil
}

// reverse swaps a change's old and new values
func reverse(c storage.Change) storage.Change {
	c.Old, c.New = c.New, c.Old
	c.OldDefined, c.NewDefined = c.NewDefined, c.OldDefined
	return c
}

func (cli *CLI) printChange(verb string, st interface{ Tags() []types.Tag }, c storage.Change) {
	schema := types.NewTagSet(st.Tags())
	text := func(v any, defined bool) string {
		if !defined {
			return "(not defined)"
		}
		return formatValue(schema, c.Tag, v)
	}
	cli.printf("%s %s %s: %s -> %s\n", verb, c.Path, c.Tag, text(c.Old, c.OldDefined), text(c.New, c.NewDefined))
}
