package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arthur-debert/scanstore/scanstore/export"
	"github.com/arthur-debert/scanstore/scanstore/store"
)

// CLI wires the cobra command tree to a viper configuration and a lazily
// opened store
type CLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper
	out       io.Writer

	st          store.Store
	logger      *slog.Logger
	queryLogger *slog.Logger
}

// NewCLI creates the command tree writing command output to out
func NewCLI(out io.Writer) *CLI {
	cli := &CLI{
		viperInst: viper.New(),
		out:       out,
	}
	cli.setupViperConfig()
	cli.createRootCommand()
	cli.addCommands()
	return cli
}

// setupViperConfig configures environment variables and config file discovery
func (cli *CLI) setupViperConfig() {
	if configFile := os.Getenv("SCANSTORE_CONFIG"); configFile != "" {
		cli.viperInst.SetConfigFile(configFile)
	} else {
		cli.viperInst.SetConfigName("scanstore")
		cli.viperInst.SetConfigType("yaml")
		cli.viperInst.AddConfigPath(".")
		cli.viperInst.AddConfigPath("$HOME/.scanstore")
	}

	cli.viperInst.SetEnvPrefix("SCANSTORE")
	cli.viperInst.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cli.viperInst.AutomaticEnv()

	// A missing config file is fine
	_ = cli.viperInst.ReadInConfig()
}

func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "scanstore",
		Short: "Scanstore - tag imaging scans and count them by tag values",
		Long: `Scanstore keeps imaging scans, keyed by their relative file path, with typed
user-defined tags. Scans can be imported from DICOM headers, filtered with tag
expressions and cross-tabulated into count tables.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (SCANSTORE_DB, SCANSTORE_FORMAT, ...)
3. Configuration file (SCANSTORE_CONFIG, ./scanstore.yaml, ~/.scanstore/scanstore.yaml)

Examples:
  scanstore --db scans.json import /data/study
  scanstore --db scans.json count PatientName TimePoint SequenceName
  scanstore --db scans.json filter '(({PatientName} == "P1") AND ({TimePoint} == "T1"))'`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = cli.viperInst.BindPFlags(cmd.Flags())
			return cli.initLogging()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return cli.closeStore()
		},
	}
	cli.rootCmd.SetOut(cli.out)

	flags := cli.rootCmd.PersistentFlags()
	flags.StringP("db", "d", "scans.json", "Store file path")
	flags.StringP("format", "f", string(export.FormatTable), "Output format (table|csv|json|yaml|markdown)")
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")
	flags.Bool("log-queries", false, "Mirror filter queries to stderr")

	for _, flag := range []string{"db", "format", "log-level", "log-queries"} {
		_ = cli.viperInst.BindPFlag(flag, flags.Lookup(flag))
	}
}

func (cli *CLI) addCommands() {
	cli.addTagsCommand()
	cli.addImportCommand()

	cli.addValuesCommand()
	cli.addCountCommand()
	cli.addViewCommand()

	cli.addFilterCommand()
	cli.addExprCommand()
	cli.addListCommand()
	cli.addSearchCommand()

	cli.addEditCommands()
	cli.addMCPCommand()
}

// Execute runs the CLI
func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// GetRootCommand returns the root cobra command for testing
func (cli *CLI) GetRootCommand() *cobra.Command {
	return cli.rootCmd
}

// format returns the configured output format
func (cli *CLI) format() (export.Format, error) {
	f, err := export.ParseFormat(cli.viperInst.GetString("format"))
	if err != nil {
		return "", NewValidationError("format output", "format", cli.viperInst.GetString("format"),
			"Use one of: table, csv, json, yaml, markdown")
	}
	return f, nil
}

// openStore opens the store named by --db once per command
func (cli *CLI) openStore() (store.Store, error) {
	if cli.st != nil {
		return cli.st, nil
	}
	path := cli.viperInst.GetString("db")
	if path == "" {
		return nil, NewConfigError("open store", "no store path",
			"Pass --db or set SCANSTORE_DB", CommonSuggestions.CheckConfig)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, NewValidationError("open store", "store path", path)
	}

	st, err := store.New(abs,
		store.WithLogger(cli.logger),
		store.WithQueryLogger(cli.queryLogger))
	if err != nil {
		return nil, NewStoreError("open store", err, CommonSuggestions.CheckDB, CommonSuggestions.CheckPerms)
	}
	cli.st = st
	return st, nil
}

func (cli *CLI) closeStore() error {
	if cli.st == nil {
		return nil
	}
	err := cli.st.Close()
	cli.st = nil
	return err
}

func (cli *CLI) printf(format string, args ...any) {
	fmt.Fprintf(cli.out, format, args...)
}
