package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"melisma/pkg/melisma"
)

var runsFlags struct {
	limit int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		runs, err := client.Runs(cmd.Context(), melisma.RunsRequest{Limit: runsFlags.limit})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "no runs recorded")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(out, "%s  %s  %-24s pop=%d gen=%d seed=%d best=%.4f\n",
				run.ID, run.CreatedAtUTC, run.Progression,
				run.PopulationSize, run.Generations, run.Seed, run.BestFitness)
		}
		return nil
	},
}

var historyFlags struct {
	runID  string
	latest bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print a run's best fitness per generation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		history, err := client.FitnessHistory(cmd.Context(), melisma.FitnessHistoryRequest{
			RunID:  historyFlags.runID,
			Latest: historyFlags.latest,
		})
		if err != nil {
			return err
		}
		for generation, best := range history {
			fmt.Fprintf(cmd.OutOrStdout(), "%4d  %.4f\n", generation, best)
		}
		return nil
	},
}

var diagnosticsFlags struct {
	runID  string
	latest bool
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Print a run's per-generation population summaries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		diagnostics, err := client.Diagnostics(cmd.Context(), melisma.DiagnosticsRequest{
			RunID:  diagnosticsFlags.runID,
			Latest: diagnosticsFlags.latest,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, " gen    best    mean     min  uniq  density")
		for _, d := range diagnostics {
			fmt.Fprintf(out, "%4d  %.4f  %.4f  %.4f  %4d  %.3f\n",
				d.Generation, d.BestFitness, d.MeanFitness, d.MinFitness, d.Diversity, d.MeanDensity)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsFlags.limit, "limit", 20, "maximum runs to list")
	historyCmd.Flags().StringVar(&historyFlags.runID, "run", "", "run id")
	historyCmd.Flags().BoolVar(&historyFlags.latest, "latest", false, "use the most recent run")
	diagnosticsCmd.Flags().StringVar(&diagnosticsFlags.runID, "run", "", "run id")
	diagnosticsCmd.Flags().BoolVar(&diagnosticsFlags.latest, "latest", false, "use the most recent run")
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(diagnosticsCmd)
}
