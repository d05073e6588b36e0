package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vaishaal/expdb/internal/config"
	"github.com/Vaishaal/expdb/internal/db"
)

var rootCmd = &cobra.Command{
	Use:   "expdb",
	Short: "Experiment Tracking Database",
	Long:  `expdb records projects, experiments and experiment states in a local SQLite database and provides listing, hiding and browsing of the records.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore builds a store from the environment-derived settings. Each
// command opens its own handle and closes it when done.
func openStore() (*db.Store, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := db.New(settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return store, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
