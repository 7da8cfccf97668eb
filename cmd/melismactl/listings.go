package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in chord progressions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		out := cmd.OutOrStdout()
		for _, preset := range client.Presets(cmd.Context()) {
			fmt.Fprintf(out, "%-14s %s\n", preset.Key, preset.Description)
			fmt.Fprintf(out, "%-14s %s\n", "", strings.Join(preset.ChordNames, " | "))
		}
		return nil
	},
}

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "List the fitness metrics and their default weights",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		out := cmd.OutOrStdout()
		for _, metric := range client.Metrics(cmd.Context()) {
			fmt.Fprintf(out, "%-22s %.2f  %s\n", metric.Key, metric.DefaultWeight, metric.Description)
		}
		return nil
	},
}

var pairingsCmd = &cobra.Command{
	Use:   "pairings",
	Short: "List the available parent pairing strategies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		for _, name := range client.Pairings(cmd.Context()) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(pairingsCmd)
}
