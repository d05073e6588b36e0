package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/Vaishaal/expdb/pkg/models"
)

// Sentinel errors returned by store operations. Callers distinguish them
// with errors.Is; anything else is a storage-engine failure.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrNotSerializable = errors.New("data is not JSON-serializable")
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	queryProjects := `
	CREATE TABLE IF NOT EXISTS projects (
		name TEXT PRIMARY KEY,
		tags TEXT,
		description TEXT,
		data TEXT NOT NULL,
		creation_time DATETIME NOT NULL,
		hidden BOOLEAN NOT NULL DEFAULT 0
	);`

	// Parent references are nullable and not validated on insert; dangling
	// references are tolerated. Deleting a project removes its subtree.
	queryExperiments := `
	CREATE TABLE IF NOT EXISTS experiments (
		uuid TEXT PRIMARY KEY,
		name TEXT,
		tags TEXT,
		description TEXT,
		data TEXT NOT NULL,
		project_name TEXT,
		creation_time DATETIME NOT NULL,
		hidden BOOLEAN NOT NULL DEFAULT 0,
		FOREIGN KEY(project_name) REFERENCES projects(name) ON DELETE CASCADE
	);`

	queryStates := `
	CREATE TABLE IF NOT EXISTS experiment_states (
		uuid TEXT PRIMARY KEY,
		name TEXT,
		tags TEXT,
		description TEXT,
		data TEXT NOT NULL,
		experiment_uuid TEXT,
		creation_time DATETIME NOT NULL,
		hidden BOOLEAN NOT NULL DEFAULT 0,
		FOREIGN KEY(experiment_uuid) REFERENCES experiments(uuid) ON DELETE CASCADE
	);`

	if _, err := s.db.Exec(queryProjects); err != nil {
		return fmt.Errorf("failed to create projects table: %w", err)
	}
	if _, err := s.db.Exec(queryExperiments); err != nil {
		return fmt.Errorf("failed to create experiments table: %w", err)
	}
	if _, err := s.db.Exec(queryStates); err != nil {
		return fmt.Errorf("failed to create experiment_states table: %w", err)
	}
	return nil
}

// withTx runs fn inside a single transaction: committed on success, rolled
// back on error. Every public store method is exactly one such scope.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// encodeData validates and serializes a metadata map for storage.
func encodeData(data models.Data) (string, error) {
	if data == nil {
		data = models.Data{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}
	return string(raw), nil
}

func decodeData(raw string) (models.Data, error) {
	var data models.Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to decode stored data: %w", err)
	}
	return data, nil
}

// isConstraintErr reports whether err is a uniqueness or primary-key
// violation from the driver.
func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	out := "?"
	for i := 1; i < n; i++ {
		out += ", ?"
	}
	return out
}

func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

// mergeData merges update into a stored JSON object and re-encodes it.
func mergeData(raw string, update models.Data) (string, error) {
	existing, err := decodeData(raw)
	if err != nil {
		return "", err
	}
	if existing == nil {
		existing = models.Data{}
	}
	existing.Merge(update)
	return encodeData(existing)
}

// hideRecord flips the hidden flag on one row. Hiding an already-hidden
// record is a no-op; a missing record is ErrNotFound.
func hideRecord(ctx context.Context, tx *sql.Tx, table, keyCol, kind, id string) error {
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET hidden = 1 WHERE %s = ?`, table, keyCol), id)
	if err != nil {
		return fmt.Errorf("failed to hide %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return nil
}

// Counts tallies records per kind, split by visibility.
type Counts struct {
	Projects          int
	HiddenProjects    int
	Experiments       int
	HiddenExperiments int
	States            int
	HiddenStates      int
}

// CountRecords returns per-kind visible/hidden tallies.
func (s *Store) CountRecords(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		counts := []struct {
			table   string
			visible *int
			hidden  *int
		}{
			{"projects", &c.Projects, &c.HiddenProjects},
			{"experiments", &c.Experiments, &c.HiddenExperiments},
			{"experiment_states", &c.States, &c.HiddenStates},
		}
		for _, cnt := range counts {
			row := tx.QueryRowContext(ctx, fmt.Sprintf(
				`SELECT
					COUNT(*) FILTER (WHERE hidden = 0),
					COUNT(*) FILTER (WHERE hidden = 1)
				FROM %s`, cnt.table))
			if err := row.Scan(cnt.visible, cnt.hidden); err != nil {
				return fmt.Errorf("failed to count %s: %w", cnt.table, err)
			}
		}
		return nil
	})
	return c, err
}
