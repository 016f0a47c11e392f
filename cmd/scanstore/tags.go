package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/scanstore/types"
)

func (cli *CLI) addTagsCommand() {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "List and edit the tag schema",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the tags in definition order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			return cli.outputResult(tagListing(st.Tags()))
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a user tag",
		Long: `Add a user tag. A default value is assigned to every existing scan.

Examples:
  scanstore tags add TimePoint --type string
  scanstore tags add Bricks --type list_int --default "[1]"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeAddTag(cmd, args[0])
		},
	}
	addCmd.Flags().String("type", "string", "Field type (string|int|float|bool|date|datetime|time|list_<type>)")
	addCmd.Flags().String("default", "", "Default value")
	addCmd.Flags().String("description", "", "Description")
	addCmd.Flags().String("unit", "", "Unit")
	addCmd.Flags().Bool("hidden", false, "Hide the tag from listings and rapid search")

	cloneCmd := &cobra.Command{
		Use:   "clone <source> <name>",
		Short: "Copy a tag and its values under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			if err := st.CloneTag(args[0], args[1]); err != nil {
				return WrapError("clone tag", err)
			}
			cli.printf("Cloned %s to %s\n", args[0], args[1])
			return nil
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <old-name> <new-name>",
		Short: "Rename a user tag, keeping its values",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeRenameTag(args[0], args[1])
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a user tag and its values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}
			if err := st.RemoveTag(args[0]); err != nil {
				return WrapError("remove tag", err)
			}
			cli.printf("Removed %s\n", args[0])
			return nil
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load <schema.yaml>",
		Short: "Add the tags of a YAML schema file",
		Long: `Add every tag of a YAML schema that the store does not define yet.

Schema format:
  tags:
    - name: TimePoint
      field_type: string
    - name: Bricks
      field_type: list_int
      default_value: [1]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.executeLoadSchema(args[0])
		},
	}

	tagsCmd.AddCommand(listCmd, addCmd, cloneCmd, renameCmd, removeCmd, loadCmd)
	cli.rootCmd.AddCommand(tagsCmd)
}

func (cli *CLI) executeAddTag(cmd *cobra.Command, name string) error {
	typeName, _ := cmd.Flags().GetString("type")
	ft, err := types.ParseFieldType(typeName)
	if err != nil {
		return NewValidationError("add tag", "field type", typeName,
			"Use string, int, float, bool, date, datetime, time or list_<type>")
	}

	tag := types.Tag{Name: name, Type: ft, Origin: types.OriginUser}
	tag.Description, _ = cmd.Flags().GetString("description")
	tag.Unit, _ = cmd.Flags().GetString("unit")
	tag.Hidden, _ = cmd.Flags().GetBool("hidden")
	if def, _ := cmd.Flags().GetString("default"); def != "" {
		v, err := ft.Parse(def)
		if err != nil {
			return NewValidationError("add tag", typeName+" default", def)
		}
		tag.DefaultValue = v
	}

	st, err := cli.openStore()
	if err != nil {
		return err
	}
	if err := st.AddTag(tag); err != nil {
		return WrapError("add tag", err)
	}
	cli.printf("Added %s (%s)\n", name, ft)
	return nil
}

// executeRenameTag clones the tag and removes the original
func (cli *CLI) executeRenameTag(oldName, newName string) error {
	st, err := cli.openStore()
	if err != nil {
		return err
	}
	tag, err := st.GetFieldAttributes(types.CollectionCurrent, oldName)
	if err != nil {
		return WrapError("rename tag", err, CommonSuggestions.CheckTags)
	}
	if tag.Origin == types.OriginBuiltin {
		return WrapError("rename tag", fmt.Errorf("%w: %s", types.ErrBuiltinTagReadOnly, oldName))
	}
	if err := st.CloneTag(oldName, newName); err != nil {
		return WrapError("rename tag", err)
	}
	if err := st.RemoveTag(oldName); err != nil {
		return WrapError("rename tag", err)
	}
	cli.printf("Renamed %s to %s\n", oldName, newName)
	return nil
}

func (cli *CLI) executeLoadSchema(path string) error {
	cfg, err := types.LoadConfig(path)
	if err != nil {
		return NewConfigError("load schema", err.Error())
	}
	st, err := cli.openStore()
	if err != nil {
		return err
	}
	existing := types.NewTagSet(st.Tags())

	added := 0
	for _, tag := range cfg.GetTagSet().All() {
		if _, ok := existing.Get(tag.Name); ok {
			cli.printf("Skipped %s (already defined)\n", tag.Name)
			continue
		}
		if err := st.AddTag(tag); err != nil {
			return WrapError("load schema", err)
		}
		added++
	}
	cli.printf("Added %d tag(s) from %s\n", added, path)
	return nil
}
