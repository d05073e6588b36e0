package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Vaishaal/expdb/internal/db"
)

var browseCmd = &cobra.Command{
	Use:       "browse [projects|experiments|experiment_states]",
	Short:     "Browse records in an interactive table",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"projects", "experiments", "experiment_states"},
	Run:       runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

var (
	browseBaseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	browseHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type browseModel struct {
	store      *db.Store
	kind       string
	showHidden bool
	table      table.Model
	err        error
}

func newBrowseModel(store *db.Store, kind string) (browseModel, error) {
	m := browseModel{store: store, kind: kind}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 12},
			{Title: "TIME", Width: 20},
			{Title: "NAME", Width: 24},
			{Title: "TAGS", Width: 16},
			{Title: "HIDDEN", Width: 7},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)
	m.table = t

	if err := m.reload(); err != nil {
		return m, err
	}
	return m, nil
}

func (m *browseModel) reload() error {
	rows, err := browseRows(m.store, m.kind, m.showHidden)
	if err != nil {
		return err
	}
	m.table.SetRows(rows)
	return nil
}

func browseRows(store *db.Store, kind string, showHidden bool) ([]table.Row, error) {
	ctx := context.Background()
	format := func(id, name, tags string, row listRow) table.Row {
		return table.Row{
			id,
			row.creationTime.UTC().Format("2006-01-02 15:04:05"),
			name,
			tags,
			fmt.Sprintf("%v", row.hidden),
		}
	}

	var rows []table.Row
	switch kind {
	case "projects":
		projs, err := store.GetProjects(ctx, db.ProjectFilter{ShowHidden: showHidden})
		if err != nil {
			return nil, err
		}
		for _, p := range projs {
			rows = append(rows, format(p.Name, p.Name, p.Tags, listRow{creationTime: p.CreationTime, hidden: p.Hidden}))
		}
	case "experiments":
		exps, err := store.GetExperiments(ctx, db.ExperimentFilter{ShowHidden: showHidden})
		if err != nil {
			return nil, err
		}
		for _, e := range exps {
			rows = append(rows, format(e.UUID, e.Name, e.Tags, listRow{creationTime: e.CreationTime, hidden: e.Hidden}))
		}
	case "experiment_states":
		states, err := store.GetExperimentStates(ctx, db.StateFilter{ShowHidden: showHidden})
		if err != nil {
			return nil, err
		}
		for _, st := range states {
			rows = append(rows, format(st.UUID, st.Name, st.Tags, listRow{creationTime: st.CreationTime, hidden: st.Hidden}))
		}
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	return rows, nil
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "h":
			m.showHidden = !m.showHidden
			if err := m.reload(); err != nil {
				m.err = err
				return m, tea.Quit
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		if msg.Height > 6 {
			m.table.SetHeight(msg.Height - 6)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	visibility := "visible only"
	if m.showHidden {
		visibility = "including hidden"
	}
	return browseBaseStyle.Render(m.table.View()) + "\n" +
		browseHelpStyle.Render(fmt.Sprintf("  %s (%s)  h: toggle hidden  q: quit", m.kind, visibility)) + "\n"
}

func runBrowse(cmd *cobra.Command, args []string) {
	store, err := openStore()
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	defer store.Close()

	m, err := newBrowseModel(store, args[0])
	if err != nil {
		fatalf("Error loading records: %v\n", err)
	}

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		fatalf("Error running browser: %v\n", err)
	}
	if bm, ok := final.(browseModel); ok && bm.err != nil {
		fatalf("Error: %v\n", bm.err)
	}
}
