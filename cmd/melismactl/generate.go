package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"melisma/pkg/melisma"
)

var generateFlags struct {
	preset       string
	xmlPath      string
	chords       []string
	population   int
	generations  int
	eliteCount   int
	mutationRate float64
	pairing      string
	workers      int
	seed         int64
	weights      []string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the evolutionary engine and store the resulting melody",
	RunE: func(cmd *cobra.Command, _ []string) error {
		overrides, err := parseWeightOverrides(generateFlags.weights)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		summary, err := client.Generate(cmd.Context(), melisma.GenerateRequest{
			Preset:          generateFlags.preset,
			XMLPath:         generateFlags.xmlPath,
			Chords:          generateFlags.chords,
			Population:      generateFlags.population,
			Generations:     generateFlags.generations,
			EliteCount:      generateFlags.eliteCount,
			MutationRate:    generateFlags.mutationRate,
			Pairing:         generateFlags.pairing,
			Workers:         generateFlags.workers,
			Seed:            generateFlags.seed,
			WeightOverrides: overrides,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "run id:       %s\n", summary.RunID)
		fmt.Fprintf(out, "progression:  %s (%s)\n", summary.Progression, strings.Join(summary.ChordNames, " | "))
		fmt.Fprintf(out, "seed:         %d\n", summary.Seed)
		fmt.Fprintf(out, "best fitness: %.4f\n", summary.BestFitness)
		fmt.Fprintf(out, "artifacts:    %s\n", summary.ArtifactsDir)
		fmt.Fprintln(out, "breakdown:")
		for _, metric := range client.Metrics(cmd.Context()) {
			fmt.Fprintf(out, "  %-22s %.4f\n", metric.Key, summary.Breakdown[metric.Key])
		}
		return nil
	},
}

// parseWeightOverrides turns repeated key=value flags into a weight map.
func parseWeightOverrides(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("weight override must be metric=value, got %q", pair)
		}
		weight, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("weight override %s: %w", key, err)
		}
		overrides[key] = weight
	}
	return overrides, nil
}

func init() {
	generateCmd.Flags().StringVar(&generateFlags.preset, "preset", "", "built-in progression key (see presets)")
	generateCmd.Flags().StringVar(&generateFlags.xmlPath, "xml", "", "MusicXML lead sheet to take the progression from")
	generateCmd.Flags().StringSliceVar(&generateFlags.chords, "chord", nil, "explicit chord as root:quality, repeat 8 times")
	generateCmd.Flags().IntVar(&generateFlags.population, "population", 100, "population size")
	generateCmd.Flags().IntVar(&generateFlags.generations, "generations", 500, "generation count")
	generateCmd.Flags().IntVar(&generateFlags.eliteCount, "elites", 5, "genomes carried unchanged each generation")
	generateCmd.Flags().Float64Var(&generateFlags.mutationRate, "mutation-rate", 0.1, "per-offspring mutation probability")
	generateCmd.Flags().StringVar(&generateFlags.pairing, "pairing", "random", "pairing strategy (see pairings)")
	generateCmd.Flags().IntVar(&generateFlags.workers, "workers", 4, "parallel fitness workers")
	generateCmd.Flags().Int64Var(&generateFlags.seed, "seed", 0, "random seed, 0 derives one from the clock")
	generateCmd.Flags().StringSliceVar(&generateFlags.weights, "weight", nil, "metric weight override as metric=value, repeatable")
	rootCmd.AddCommand(generateCmd)
}
