// melismactl is the command line front end for the melisma melody engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"melisma/internal/storage"
	"melisma/pkg/melisma"
)

var (
	flagStore      string
	flagDBPath     string
	flagExportsDir string
)

var rootCmd = &cobra.Command{
	Use:           "melismactl",
	Short:         "Evolve jazz melodies over chord progressions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db-path", "melisma.db", "sqlite database path")
	rootCmd.PersistentFlags().StringVar(&flagExportsDir, "exports-dir", "exports", "directory for run artifacts")
}

func newClient() (*melisma.Client, error) {
	return melisma.New(melisma.Options{
		StoreKind:  flagStore,
		DBPath:     flagDBPath,
		ExportsDir: flagExportsDir,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
