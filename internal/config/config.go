package config

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds the process configuration. A single environment variable
// selects the database; everything else has a default.
type Settings struct {
	// DSN is the SQLite database path. Empty means the default store under
	// the user's data directory.
	DSN string `envconfig:"EXPDB_DSN"`
}

// Load reads settings from the environment and fills in defaults.
func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, err
	}
	if s.DSN == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		s.DSN = filepath.Join(home, ".local/share/expdb/expdb.db")
	}
	return &s, nil
}
