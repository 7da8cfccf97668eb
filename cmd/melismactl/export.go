package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"melisma/pkg/melisma"
)

var exportFlags struct {
	runID  string
	latest bool
	outDir string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-render a stored run's MIDI and JSON artifacts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		summary, err := client.Export(cmd.Context(), melisma.ExportRequest{
			RunID:  exportFlags.runID,
			Latest: exportFlags.latest,
			OutDir: exportFlags.outDir,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported run %s to %s\n", summary.RunID, summary.Directory)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.runID, "run", "", "run id")
	exportCmd.Flags().BoolVar(&exportFlags.latest, "latest", false, "export the most recent run")
	exportCmd.Flags().StringVar(&exportFlags.outDir, "out", "", "output directory (defaults to --exports-dir)")
	rootCmd.AddCommand(exportCmd)
}
