package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Vaishaal/expdb/pkg/models"
	"github.com/Vaishaal/expdb/pkg/shortid"
)

// ExperimentStateParams holds the caller-supplied fields for a new
// experiment state. ExperimentUUID is stored as given; it is not checked
// against the experiments table.
type ExperimentStateParams struct {
	ExperimentUUID string
	Data           models.Data
	Name           string
	Description    string
	Tags           string
}

// StateFilter narrows a bulk experiment-state fetch.
type StateFilter struct {
	UUIDs           []string
	ExperimentUUIDs []string
	ShowHidden      bool
}

// CreateExperimentState inserts a new state under a generated identifier
// and returns it re-read from the database.
func (s *Store) CreateExperimentState(ctx context.Context, params ExperimentStateParams) (*models.ExperimentState, error) {
	raw, err := encodeData(params.Data)
	if err != nil {
		return nil, err
	}

	var created *models.ExperimentState
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		uuid := shortid.New()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO experiment_states (uuid, name, tags, description, data, experiment_uuid, creation_time, hidden)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
			uuid, params.Name, params.Tags, params.Description, raw, params.ExperimentUUID, time.Now().UTC(),
		)
		if err != nil {
			if isConstraintErr(err) {
				return fmt.Errorf("experiment state %q: %w", uuid, ErrDuplicate)
			}
			return fmt.Errorf("failed to insert experiment state: %w", err)
		}
		created, err = s.getExperimentStateTx(ctx, tx, uuid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetExperimentState fetches one state by identifier, hidden or not.
// Returns ErrNotFound when absent.
func (s *Store) GetExperimentState(ctx context.Context, uuid string) (*models.ExperimentState, error) {
	var state *models.ExperimentState
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		state, err = s.getExperimentStateTx(ctx, tx, uuid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) getExperimentStateTx(ctx context.Context, tx *sql.Tx, uuid string) (*models.ExperimentState, error) {
	states, err := s.getExperimentStatesTx(ctx, tx, StateFilter{UUIDs: []string{uuid}, ShowHidden: true})
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("experiment state %q: %w", uuid, ErrNotFound)
	}
	return &states[0], nil
}

// GetExperimentStates fetches states matching the filter.
func (s *Store) GetExperimentStates(ctx context.Context, filter StateFilter) ([]models.ExperimentState, error) {
	var states []models.ExperimentState
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		states, err = s.getExperimentStatesTx(ctx, tx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (s *Store) getExperimentStatesTx(ctx context.Context, tx *sql.Tx, filter StateFilter) ([]models.ExperimentState, error) {
	query := `
	SELECT uuid, name, tags, description, data, experiment_uuid, creation_time, hidden
	FROM experiment_states`

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
	if filter.ExperimentUUIDs != nil {
		clauses = append(clauses, fmt.Sprintf("experiment_uuid IN (%s)", placeholders(len(filter.ExperimentUUIDs))))
		for _, u := range filter.ExperimentUUIDs {
			args = append(args, u)
		}
	}
	query += whereClause(clauses) + " ORDER BY creation_time"

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiment states: %w", err)
	}
	defer rows.Close()

	var states []models.ExperimentState
	for rows.Next() {
		var st models.ExperimentState
		var raw string
		if err := rows.Scan(&st.UUID, &st.Name, &st.Tags, &st.Description, &raw, &st.ExperimentUUID, &st.CreationTime, &st.Hidden); err != nil {
			return nil, fmt.Errorf("failed to scan experiment state: %w", err)
		}
		if st.Data, err = decodeData(raw); err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read experiment states: %w", err)
	}
	return states, nil
}

// UpdateExperimentStateData merges data into the state's stored metadata
// map.
func (s *Store) UpdateExperimentStateData(ctx context.Context, uuid string, data models.Data) error {
	if !data.Serializable() {
		return ErrNotSerializable
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT data FROM experiment_states WHERE uuid = ?`, uuid).Scan(&raw)
		if err == sql.ErrNoRows {
			return fmt.Errorf("experiment state %q: %w", uuid, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read experiment state data: %w", err)
		}
		merged, err := mergeData(raw, data)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE experiment_states SET data = ? WHERE uuid = ?`, merged, uuid); err != nil {
			return fmt.Errorf("failed to update experiment state data: %w", err)
		}
		return nil
	})
}

// HideExperimentState soft-deletes an experiment state.
func (s *Store) HideExperimentState(ctx context.Context, uuid string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return hideRecord(ctx, tx, "experiment_states", "uuid", "experiment state", uuid)
	})
}
