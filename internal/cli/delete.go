package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Hard-delete records",
	Long:  `Deleting removes records permanently, cascading over all descendants. Prefer hide unless the data really has to go.`,
}

var deleteProjectCmd = &cobra.Command{
	Use:   "project NAME",
	Short: "Delete a project and all its experiments and states",
	Args:  cobra.ExactArgs(1),
	Run:   runDeleteProject,
}

var deleteExperimentCmd = &cobra.Command{
	Use:   "experiment UUID",
	Short: "Delete an experiment and all its states",
	Args:  cobra.ExactArgs(1),
	Run:   runDeleteExperiment,
}

func init() {
	for _, cmd := range []*cobra.Command{deleteProjectCmd, deleteExperimentCmd} {
		cmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the confirmation check")
		deleteCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(deleteCmd)
}

func runDeleteProject(cmd *cobra.Command, args []string) {
	if !deleteYes {
		fatalf("Refusing to delete without --yes (this cascades to all experiments and states)\n")
	}
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	if err := store.DeleteProject(context.Background(), args[0]); err != nil {
		fatalf("Error deleting project: %v\n", err)
	}
	fmt.Printf("deleted project %s\n", args[0])
}

func runDeleteExperiment(cmd *cobra.Command, args []string) {
	if !deleteYes {
		fatalf("Refusing to delete without --yes (this cascades to all states)\n")
	}
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	if err := store.DeleteExperiment(context.Background(), args[0]); err != nil {
		fatalf("Error deleting experiment: %v\n", err)
	}
	fmt.Printf("deleted experiment %s\n", args[0])
}
