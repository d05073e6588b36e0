package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Vaishaal/expdb/pkg/models"
	"github.com/Vaishaal/expdb/pkg/shortid"
)

// ExperimentParams holds the caller-supplied fields for a new experiment.
// ProjectName is stored as given; it is not checked against the projects
// table.
type ExperimentParams struct {
	ProjectName string
	Data        models.Data
	Name        string
	Description string
	Tags        string
}

// ExperimentFilter narrows a bulk experiment fetch.
type ExperimentFilter struct {
	UUIDs        []string
	ProjectNames []string
	ShowHidden   bool
}

// CreateExperiment inserts a new experiment under a generated identifier
// and returns it re-read from the database.
func (s *Store) CreateExperiment(ctx context.Context, params ExperimentParams) (*models.Experiment, error) {
	raw, err := encodeData(params.Data)
	if err != nil {
		return nil, err
	}

	var created *models.Experiment
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		uuid := shortid.New()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO experiments (uuid, name, tags, description, data, project_name, creation_time, hidden)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
			uuid, params.Name, params.Tags, params.Description, raw, params.ProjectName, time.Now().UTC(),
		)
		if err != nil {
			if isConstraintErr(err) {
				return fmt.Errorf("experiment %q: %w", uuid, ErrDuplicate)
			}
			return fmt.Errorf("failed to insert experiment: %w", err)
		}
		created, err = s.getExperimentTx(ctx, tx, uuid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetExperiment fetches one experiment by identifier, hidden or not.
// Returns ErrNotFound when absent.
func (s *Store) GetExperiment(ctx context.Context, uuid string) (*models.Experiment, error) {
	var exp *models.Experiment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		exp, err = s.getExperimentTx(ctx, tx, uuid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *Store) getExperimentTx(ctx context.Context, tx *sql.Tx, uuid string) (*models.Experiment, error) {
	exps, err := s.getExperimentsTx(ctx, tx, ExperimentFilter{UUIDs: []string{uuid}, ShowHidden: true})
	if err != nil {
		return nil, err
	}
	if len(exps) == 0 {
		return nil, fmt.Errorf("experiment %q: %w", uuid, ErrNotFound)
	}
	return &exps[0], nil
}

// GetExperiments fetches experiments matching the filter, each with its
// child states preloaded.
func (s *Store) GetExperiments(ctx context.Context, filter ExperimentFilter) ([]models.Experiment, error) {
	var exps []models.Experiment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		exps, err = s.getExperimentsTx(ctx, tx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return exps, nil
}

func (s *Store) getExperimentsTx(ctx context.Context, tx *sql.Tx, filter ExperimentFilter) ([]models.Experiment, error) {
	query := `
	SELECT uuid, name, tags, description, data, project_name, creation_time, hidden
	FROM experiments`

	var clauses []string
	var args []any
	if !filter.ShowHidden {
		clauses = append(clauses, "hidden = 0")
	}
	if filter.UUIDs != nil {
		clauses = append(clauses, fmt.Sprintf("uuid IN (%s)", placeholders(len(filter.UUIDs))))
		for _, u := range filter.UUIDs {
			args = append(args, u)
		}
	}
	if filter.ProjectNames != nil {
		clauses = append(clauses, fmt.Sprintf("project_name IN (%s)", placeholders(len(filter.ProjectNames))))
		for _, n := range filter.ProjectNames {
			args = append(args, n)
		}
	}
	query += whereClause(clauses) + " ORDER BY creation_time"

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiments: %w", err)
	}
	defer rows.Close()

	var exps []models.Experiment
	for rows.Next() {
		var e models.Experiment
		var raw string
		if err := rows.Scan(&e.UUID, &e.Name, &e.Tags, &e.Description, &raw, &e.ProjectName, &e.CreationTime, &e.Hidden); err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		if e.Data, err = decodeData(raw); err != nil {
			return nil, err
		}
		exps = append(exps, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read experiments: %w", err)
	}

	if err := s.loadExperimentChildren(ctx, tx, exps); err != nil {
		return nil, err
	}
	return exps, nil
}

// loadExperimentChildren attaches each experiment's states in one bulk
// query. Hidden states are included.
func (s *Store) loadExperimentChildren(ctx context.Context, tx *sql.Tx, exps []models.Experiment) error {
	if len(exps) == 0 {
		return nil
	}
	uuids := make([]string, len(exps))
	for i, e := range exps {
		uuids[i] = e.UUID
	}

	states, err := s.getExperimentStatesTx(ctx, tx, StateFilter{
		ExperimentUUIDs: uuids,
		ShowHidden:      true,
	})
	if err != nil {
		return err
	}

	byExperiment := make(map[string][]models.ExperimentState)
	for _, st := range states {
		byExperiment[st.ExperimentUUID] = append(byExperiment[st.ExperimentUUID], st)
	}
	for i := range exps {
		exps[i].States = byExperiment[exps[i].UUID]
	}
	return nil
}

// UpdateExperimentData merges data into the experiment's stored metadata
// map.
func (s *Store) UpdateExperimentData(ctx context.Context, uuid string, data models.Data) error {
	if !data.Serializable() {
		return ErrNotSerializable
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT data FROM experiments WHERE uuid = ?`, uuid).Scan(&raw)
		if err == sql.ErrNoRows {
			return fmt.Errorf("experiment %q: %w", uuid, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read experiment data: %w", err)
		}
		merged, err := mergeData(raw, data)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE experiments SET data = ? WHERE uuid = ?`, merged, uuid); err != nil {
			return fmt.Errorf("failed to update experiment data: %w", err)
		}
		return nil
	})
}

// HideExperiment soft-deletes an experiment. Its states stay visible.
func (s *Store) HideExperiment(ctx context.Context, uuid string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return hideRecord(ctx, tx, "experiments", "uuid", "experiment", uuid)
	})
}

// DeleteExperiment hard-deletes an experiment and its states.
func (s *Store) DeleteExperiment(ctx context.Context, uuid string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM experiment_states WHERE experiment_uuid = ?`, uuid); err != nil {
			return fmt.Errorf("failed to delete experiment states: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM experiments WHERE uuid = ?`, uuid)
		if err != nil {
			return fmt.Errorf("failed to delete experiment: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("experiment %q: %w", uuid, ErrNotFound)
		}
		return nil
	})
}
