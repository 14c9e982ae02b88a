package database

import (
	"fmt"
	"os"

	"qbfrt/internal/config"
)

// NewDatabaseFromConfig opens the torrents.db named by cfg.DatabasePath.
// override, when set, takes precedence (the --db flag).
func NewDatabaseFromConfig(cfg *config.Config, override string) (*SQLiteDatabase, error) {
	path := cfg.DatabasePath
	if override != "" {
		path = override
	}
	if path == "" {
		return nil, fmt.Errorf("database_path required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("torrents database: %w", err)
	}
	return NewSQLiteDatabase(path)
}
