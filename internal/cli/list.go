package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vaishaal/expdb/internal/db"
)

var (
	listShowHidden   bool
	listShowData     bool
	listFilterFields string
	listUUID         string
	listNameFilter   string
	listAfter        string
	listBefore       string
	listProject      string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records",
}

var listProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	Run:   runListProjects,
}

var listExperimentsCmd = &cobra.Command{
	Use:   "experiments",
	Short: "List experiments",
	Run:   runListExperiments,
}

var listStatesCmd = &cobra.Command{
	Use:   "experiment_states",
	Short: "List experiment states",
	Run:   runListStates,
}

func init() {
	listCmd.PersistentFlags().BoolVar(&listShowHidden, "show_hidden", false, "Include hidden records")
	listCmd.PersistentFlags().BoolVar(&listShowData, "show_data", false, "Print description and metadata for each record")
	listCmd.PersistentFlags().StringVar(&listFilterFields, "filter_fields", "", "Comma-separated metadata keys to show (with --show_data)")
	listCmd.PersistentFlags().StringVar(&listUUID, "uuid", "", "Restrict to one identifier")
	listCmd.PersistentFlags().StringVar(&listNameFilter, "name_filter", "", "Substring match on record name")
	listCmd.PersistentFlags().StringVar(&listAfter, "after", "", "Only records created at or after this date")
	listCmd.PersistentFlags().StringVar(&listBefore, "before", "", "Only records created at or before this date")
	listExperimentsCmd.Flags().StringVar(&listProject, "project", "", "Restrict to experiments of one project")

	listCmd.AddCommand(listProjectsCmd)
	listCmd.AddCommand(listExperimentsCmd)
	listCmd.AddCommand(listStatesCmd)
	rootCmd.AddCommand(listCmd)
}

// listRow is one record prepared for display, any kind.
type listRow struct {
	id           string
	name         string
	tags         string
	description  string
	data         map[string]any
	creationTime time.Time
	hidden       bool
}

func runListProjects(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	projs, err := store.GetProjects(context.Background(), db.ProjectFilter{ShowHidden: listShowHidden})
	if err != nil {
		fatalf("Error listing projects: %v\n", err)
	}

	rows := make([]listRow, 0, len(projs))
	for _, p := range projs {
		rows = append(rows, listRow{
			id:           p.Name,
			name:         p.Name,
			tags:         p.Tags,
			description:  p.Description,
			data:         p.Data,
			creationTime: p.CreationTime,
			hidden:       p.Hidden,
		})
	}
	printRows("NAME", false, filterRows(rows))
}

func runListExperiments(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	exps, err := store.GetExperiments(context.Background(), db.ExperimentFilter{ShowHidden: listShowHidden})
	if err != nil {
		fatalf("Error listing experiments: %v\n", err)
	}

	rows := make([]listRow, 0, len(exps))
	for _, e := range exps {
		if listProject != "" && e.ProjectName != listProject {
			continue
		}
		rows = append(rows, listRow{
			id:           e.UUID,
			name:         e.Name,
			tags:         e.Tags,
			description:  e.Description,
			data:         e.Data,
			creationTime: e.CreationTime,
			hidden:       e.Hidden,
		})
	}
	printRows("UUID", true, filterRows(rows))
}

func runListStates(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	states, err := store.GetExperimentStates(context.Background(), db.StateFilter{ShowHidden: listShowHidden})
	if err != nil {
		fatalf("Error listing experiment states: %v\n", err)
	}

	rows := make([]listRow, 0, len(states))
	for _, st := range states {
		rows = append(rows, listRow{
			id:           st.UUID,
			name:         st.Name,
			tags:         st.Tags,
			description:  st.Description,
			data:         st.Data,
			creationTime: st.CreationTime,
			hidden:       st.Hidden,
		})
	}
	printRows("UUID", true, filterRows(rows))
}

// filterRows applies the client-side list filters: ascending creation-time
// sort, identifier restriction, name substring and inclusive date range.
func filterRows(rows []listRow) []listRow {
	tr, err := parseTimeRange(listAfter, listBefore)
	if err != nil {
		fatalf("Error: %v\n", err)
	}

	out := rows[:0]
	for _, r := range rows {
		if listUUID != "" && r.id != listUUID {
			continue
		}
		if listNameFilter != "" && !strings.Contains(r.name, listNameFilter) {
			continue
		}
		if !tr.contains(r.creationTime) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].creationTime.Before(out[j].creationTime)
	})
	return out
}

// printRows renders the records: a tabwriter table by default, one block
// per record with --show_data. withName is false for projects, whose
// identifier already is the name.
func printRows(idHeader string, withName bool, rows []listRow) {
	if listShowData {
		printRowsDetailed(withName, rows)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	header := idHeader + "\tTIME"
	if withName {
		header += "\tNAME"
	}
	header += "\tTAGS"
	if listShowHidden {
		header += "\tHIDDEN"
	}
	fmt.Fprintln(w, header)
	for _, r := range rows {
		line := r.id + "\t" + r.creationTime.UTC().Format("2006-01-02 15:04:05")
		if withName {
			line += "\t" + r.name
		}
		line += "\t" + r.tags
		if listShowHidden {
			line += fmt.Sprintf("\t%v", r.hidden)
		}
		fmt.Fprintln(w, line)
	}
	w.Flush()
}

func printRowsDetailed(withName bool, rows []listRow) {
	var filterFields []string
	if listFilterFields != "" {
		filterFields = splitList(listFilterFields)
	}
	for _, r := range rows {
		fmt.Printf("%s : creation_time %s", r.id, r.creationTime.UTC().Format("2006-01-02 15:04:05"))
		if withName {
			fmt.Printf("  name %s", r.name)
		}
		fmt.Printf("  tags: %s", r.tags)
		if listShowHidden {
			fmt.Printf("  hidden %v", r.hidden)
		}
		fmt.Println()
		fmt.Printf("\tDescription: %s\n", r.description)
		for _, line := range dataLines(r.data, filterFields) {
			fmt.Printf("\t\t%s\n", line)
		}
		fmt.Println()
	}
}
