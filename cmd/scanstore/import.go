package main

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/scanstore/scanstore/dicomimport"
)

func (cli *CLI) addImportCommand() {
	importCmd := &cobra.Command{
		Use:   "import <directory>",
		Short: "Add a scan for every DICOM file under a directory",
		Long: `Walk a directory and add one scan per DICOM file, keyed by its path relative
to the directory. Header elements fill the builtin tags (PatientName,
StudyDate, SequenceName, SeriesNumber, ...). Files that are not DICOM and
scans already in the store are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cli.openStore()
			if err != nil {
				return err
			}

			workers, _ := cmd.Flags().GetInt("workers")
			im := dicomimport.New(st,
				dicomimport.WithLogger(cli.logger),
				dicomimport.WithWorkers(workers))
			res, err := im.Import(cmd.Context(), args[0])
			if err != nil {
				return WrapError("import", err)
			}

			for _, w := range res.Warnings {
				cli.printf("WARN: %s\n", w)
			}
			for _, path := range sortedKeys(res.Failed) {
				cli.printf("ERROR: %s: %v\n", path, res.Failed[path])
			}
			cli.printf("Imported %d scan(s): %d already present, %d not DICOM, %d failed\n",
				len(res.Added), len(res.Existing), len(res.NotDICOM), len(res.Failed))
			return nil
		},
	}
	importCmd.Flags().Int("workers", 0, "Headers parsed concurrently (default: number of CPUs)")
	cli.rootCmd.AddCommand(importCmd)
}
