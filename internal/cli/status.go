package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-kind record counts",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	counts, err := store.CountRecords(context.Background())
	if err != nil {
		fatalf("Error counting records: %v\n", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KIND\tVISIBLE\tHIDDEN")
	fmt.Fprintf(w, "projects\t%d\t%d\n", counts.Projects, counts.HiddenProjects)
	fmt.Fprintf(w, "experiments\t%d\t%d\n", counts.Experiments, counts.HiddenExperiments)
	fmt.Fprintf(w, "experiment_states\t%d\t%d\n", counts.States, counts.HiddenStates)
	w.Flush()
}
