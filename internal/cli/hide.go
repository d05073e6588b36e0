package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vaishaal/expdb/internal/db"
)

var (
	hideUUID     string
	hideUUIDList string
	hideName     string
	hideNameList string
	hideAll      bool
	hideAfter    string
	hideBefore   string
)

var hideCmd = &cobra.Command{
	Use:   "hide",
	Short: "Soft-delete records",
	Long:  `Hidden records are excluded from default listings but never physically removed. Hiding is one-way; there is no unhide.`,
}

var hideProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Hide projects",
	Run:   runHideProjects,
}

var hideExperimentsCmd = &cobra.Command{
	Use:   "experiments",
	Short: "Hide experiments",
	Run:   runHideExperiments,
}

var hideStatesCmd = &cobra.Command{
	Use:   "experiment_states",
	Short: "Hide experiment states",
	Run:   runHideStates,
}

func init() {
	for _, cmd := range []*cobra.Command{hideExperimentsCmd, hideStatesCmd} {
		cmd.Flags().StringVar(&hideUUID, "uuid", "", "Hide one record by identifier")
		cmd.Flags().StringVar(&hideUUIDList, "uuid_list", "", "Hide a comma-separated list of identifiers")
	}
	hideProjectsCmd.Flags().StringVar(&hideName, "name", "", "Hide one project by name")
	hideProjectsCmd.Flags().StringVar(&hideNameList, "name_list", "", "Hide a comma-separated list of project names")
	for _, cmd := range []*cobra.Command{hideProjectsCmd, hideExperimentsCmd, hideStatesCmd} {
		cmd.Flags().BoolVar(&hideAll, "all", false, "Hide every visible record")
		cmd.Flags().StringVar(&hideAfter, "after", "", "Only records created at or after this date")
		cmd.Flags().StringVar(&hideBefore, "before", "", "Only records created at or before this date")
		hideCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(hideCmd)
}

// hideRow is a visible record eligible for range-mode hiding.
type hideRow struct {
	id           string
	creationTime time.Time
}

// hideOps adapts one record kind to the shared hide flow.
type hideOps struct {
	kind    string
	plural  string
	visible func(ctx context.Context) ([]hideRow, error)
	hide    func(ctx context.Context, id string) error
}

// runHide hides either an explicit identifier list (one confirmation line
// per record, a diagnostic for unknown identifiers) or, in range mode,
// every visible record inside the date window.
func runHide(ids []string, ops hideOps) {
	ctx := context.Background()
	rangeMode := hideAll || hideAfter != "" || hideBefore != ""

	if len(ids) > 0 && rangeMode {
		fatalf("Error: --all/--before/--after cannot be combined with explicit identifiers\n")
	}
	if len(ids) == 0 && !rangeMode {
		fatalf("Error: give identifiers to hide, or one of --all, --before, --after\n")
	}

	if len(ids) > 0 {
		for _, id := range ids {
			err := ops.hide(ctx, id)
			if errors.Is(err, db.ErrNotFound) {
				fmt.Printf("%s is not a valid %s id\n", id, ops.kind)
				continue
			}
			if err != nil {
				fatalf("Error hiding %s %s: %v\n", ops.kind, id, err)
			}
			fmt.Printf("%s %s is now hidden\n", ops.kind, id)
		}
		return
	}

	tr, err := parseTimeRange(hideAfter, hideBefore)
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	rows, err := ops.visible(ctx)
	if err != nil {
		fatalf("Error listing %s: %v\n", ops.plural, err)
	}

	numHidden := 0
	for _, r := range rows {
		if !tr.contains(r.creationTime) {
			continue
		}
		if err := ops.hide(ctx, r.id); err != nil {
			fatalf("Error hiding %s %s: %v\n", ops.kind, r.id, err)
		}
		numHidden++
	}
	if numHidden > 0 {
		fmt.Printf("Hid %d %s\n", numHidden, ops.plural)
	} else {
		fmt.Printf("No %s to hide\n", ops.plural)
	}
}

func collectIDs(single, list string) []string {
	var ids []string
	if single != "" {
		ids = append(ids, single)
	}
	ids = append(ids, splitList(list)...)
	return ids
}

func runHideProjects(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	runHide(collectIDs(hideName, hideNameList), hideOps{
		kind:   "project",
		plural: "projects",
		visible: func(ctx context.Context) ([]hideRow, error) {
			projs, err := store.GetProjects(ctx, db.ProjectFilter{})
			if err != nil {
				return nil, err
			}
			rows := make([]hideRow, len(projs))
			for i, p := range projs {
				rows[i] = hideRow{id: p.Name, creationTime: p.CreationTime}
			}
			return rows, nil
		},
		hide: store.HideProject,
	})
}

func runHideExperiments(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	runHide(collectIDs(hideUUID, hideUUIDList), hideOps{
		kind:   "experiment",
		plural: "experiments",
		visible: func(ctx context.Context) ([]hideRow, error) {
			exps, err := store.GetExperiments(ctx, db.ExperimentFilter{})
			if err != nil {
				return nil, err
			}
			rows := make([]hideRow, len(exps))
			for i, e := range exps {
				rows[i] = hideRow{id: e.UUID, creationTime: e.CreationTime}
			}
			return rows, nil
		},
		hide: store.HideExperiment,
	})
}

func runHideStates(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	runHide(collectIDs(hideUUID, hideUUIDList), hideOps{
		kind:   "experiment state",
		plural: "experiment states",
		visible: func(ctx context.Context) ([]hideRow, error) {
			states, err := store.GetExperimentStates(ctx, db.StateFilter{})
			if err != nil {
				return nil, err
			}
			rows := make([]hideRow, len(states))
			for i, st := range states {
				rows[i] = hideRow{id: st.UUID, creationTime: st.CreationTime}
			}
			return rows, nil
		},
		hide: store.HideExperimentState,
	})
}
