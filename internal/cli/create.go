package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Vaishaal/expdb/internal/db"
	"github.com/Vaishaal/expdb/pkg/models"
)

var (
	createName        string
	createData        string
	createDescription string
	createTags        string
	createProject     string
	createExperiment  string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create records",
}

var createProjectCmd = &cobra.Command{
	Use:   "project NAME",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	Run:   runCreateProject,
}

var createExperimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Create an experiment",
	Run:   runCreateExperiment,
}

var createStateCmd = &cobra.Command{
	Use:   "experiment_state",
	Short: "Create an experiment state",
	Run:   runCreateState,
}

func init() {
	for _, cmd := range []*cobra.Command{createProjectCmd, createExperimentCmd, createStateCmd} {
		cmd.Flags().StringVar(&createData, "data", "{}", "Metadata as a JSON object")
		cmd.Flags().StringVar(&createDescription, "description", "", "Free-form description")
		cmd.Flags().StringVar(&createTags, "tags", "", "Free-form tags")
		createCmd.AddCommand(cmd)
	}
	createExperimentCmd.Flags().StringVar(&createName, "name", "", "Experiment name")
	createExperimentCmd.Flags().StringVar(&createProject, "project", "", "Parent project name")
	createStateCmd.Flags().StringVar(&createName, "name", "", "State name")
	createStateCmd.Flags().StringVar(&createExperiment, "experiment", "", "Parent experiment identifier")
	rootCmd.AddCommand(createCmd)
}

func parseDataFlag() models.Data {
	var data models.Data
	if err := json.Unmarshal([]byte(createData), &data); err != nil {
		fatalf("Error: --data must be a JSON object: %v\n", err)
	}
	return data
}

func runCreateProject(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	proj, err := store.CreateProject(context.Background(), db.ProjectParams{
		Name:        args[0],
		Data:        parseDataFlag(),
		Description: createDescription,
		Tags:        createTags,
	})
	if err != nil {
		fatalf("Error creating project: %v\n", err)
	}
	fmt.Printf("created project %s\n", proj.Name)
}

func runCreateExperiment(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	exp, err := store.CreateExperiment(context.Background(), db.ExperimentParams{
		ProjectName: createProject,
		Name:        createName,
		Data:        parseDataFlag(),
		Description: createDescription,
		Tags:        createTags,
	})
	if err != nil {
		fatalf("Error creating experiment: %v\n", err)
	}
	fmt.Printf("created experiment %s\n", exp.UUID)
}

func runCreateState(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	state, err := store.CreateExperimentState(context.Background(), db.ExperimentStateParams{
		ExperimentUUID: createExperiment,
		Name:           createName,
		Data:           parseDataFlag(),
		Description:    createDescription,
		Tags:           createTags,
	})
	if err != nil {
		fatalf("Error creating experiment state: %v\n", err)
	}
	fmt.Printf("created experiment state %s\n", state.UUID)
}
