package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Vaishaal/expdb/pkg/models"
)

// ProjectParams holds the caller-supplied fields for a new project.
type ProjectParams struct {
	Name        string
	Data        models.Data
	Description string
	Tags        string
}

// ProjectFilter narrows a bulk project fetch.
type ProjectFilter struct {
	Names      []string
	ShowHidden bool
}

// CreateProject inserts a new project and returns it re-read from the
// database. Returns ErrDuplicate if the name is taken and
// ErrNotSerializable if the data cannot be encoded.
func (s *Store) CreateProject(ctx context.Context, params ProjectParams) (*models.Project, error) {
	raw, err := encodeData(params.Data)
	if err != nil {
		return nil, err
	}

	var created *models.Project
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (name, tags, description, data, creation_time, hidden)
			VALUES (?, ?, ?, ?, ?, 0)`,
			params.Name, params.Tags, params.Description, raw, time.Now().UTC(),
		)
		if err != nil {
			if isConstraintErr(err) {
				return fmt.Errorf("project %q: %w", params.Name, ErrDuplicate)
			}
			return fmt.Errorf("failed to insert project: %w", err)
		}
		created, err = s.getProjectTx(ctx, tx, params.Name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetProject fetches one project by name, hidden or not. Returns
// ErrNotFound when absent.
func (s *Store) GetProject(ctx context.Context, name string) (*models.Project, error) {
	var proj *models.Project
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		proj, err = s.getProjectTx(ctx, tx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return proj, nil
}

func (s *Store) getProjectTx(ctx context.Context, tx *sql.Tx, name string) (*models.Project, error) {
	projs, err := s.getProjectsTx(ctx, tx, ProjectFilter{Names: []string{name}, ShowHidden: true})
	if err != nil {
		return nil, err
	}
	if len(projs) == 0 {
		return nil, fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	return &projs[0], nil
}

// GetProjects fetches projects matching the filter, each with its child
// experiments (and their states) preloaded.
func (s *Store) GetProjects(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	var projs []models.Project
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		projs, err = s.getProjectsTx(ctx, tx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return projs, nil
}

func (s *Store) getProjectsTx(ctx context.Context, tx *sql.Tx, filter ProjectFilter) ([]models.Project, error) {
	query := `
	SELECT name, tags, description, data, creation_time, hidden
	FROM projects`

	var clauses []string
	var args []any
	if !filter.ShowHidden {
		clauses = append(clauses, "hidden = 0")
	}
	if filter.Names != nil {
		clauses = append(clauses, fmt.Sprintf("name IN (%s)", placeholders(len(filter.Names))))
		for _, n := range filter.Names {
			args = append(args, n)
		}
	}
	query += whereClause(clauses) + " ORDER BY creation_time"

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projs []models.Project
	for rows.Next() {
		var p models.Project
		var raw string
		if err := rows.Scan(&p.Name, &p.Tags, &p.Description, &raw, &p.CreationTime, &p.Hidden); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if p.Data, err = decodeData(raw); err != nil {
			return nil, err
		}
		projs = append(projs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}

	if err := s.loadProjectChildren(ctx, tx, projs); err != nil {
		return nil, err
	}
	return projs, nil
}

// loadProjectChildren attaches each project's experiments (with their
// states) in two bulk queries rather than one per project. Hidden children
// are included; visibility filters apply to the top level only.
func (s *Store) loadProjectChildren(ctx context.Context, tx *sql.Tx, projs []models.Project) error {
	if len(projs) == 0 {
		return nil
	}
	names := make([]string, len(projs))
	for i, p := range projs {
		names[i] = p.Name
	}

	exps, err := s.getExperimentsTx(ctx, tx, ExperimentFilter{
		ProjectNames: names,
		ShowHidden:   true,
	})
	if err != nil {
		return err
	}

	byProject := make(map[string][]models.Experiment)
	for _, e := range exps {
		byProject[e.ProjectName] = append(byProject[e.ProjectName], e)
	}
	for i := range projs {
		projs[i].Experiments = byProject[projs[i].Name]
	}
	return nil
}

// UpdateProjectData merges data into the project's stored metadata map.
// Existing keys not present in data are preserved.
func (s *Store) UpdateProjectData(ctx context.Context, name string, data models.Data) error {
	if !data.Serializable() {
		return ErrNotSerializable
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT data FROM projects WHERE name = ?`, name).Scan(&raw)
		if err == sql.ErrNoRows {
			return fmt.Errorf("project %q: %w", name, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read project data: %w", err)
		}
		merged, err := mergeData(raw, data)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE projects SET data = ? WHERE name = ?`, merged, name); err != nil {
			return fmt.Errorf("failed to update project data: %w", err)
		}
		return nil
	})
}

// HideProject soft-deletes a project. Its experiments stay visible.
func (s *Store) HideProject(ctx context.Context, name string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return hideRecord(ctx, tx, "projects", "name", "project", name)
	})
}

// DeleteProject hard-deletes a project and all descendant experiments and
// experiment states.
func (s *Store) DeleteProject(ctx context.Context, name string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM experiment_states WHERE experiment_uuid IN
				(SELECT uuid FROM experiments WHERE project_name = ?)`, name)
		if err != nil {
			return fmt.Errorf("failed to delete experiment states: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM experiments WHERE project_name = ?`, name); err != nil {
			return fmt.Errorf("failed to delete experiments: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("project %q: %w", name, ErrNotFound)
		}
		return nil
	})
}
