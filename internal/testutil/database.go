package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"qbfrt/internal/database"
	"qbfrt/internal/qbfrt"
)

// NewTestDatabase creates a new in-memory torrents database with the
// qBittorrent schema applied. The database is automatically closed when the
// test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := db.ApplySchema(); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CreateTorrentsFile writes a torrents.db with the qBittorrent schema and
// rows into a temp dir and returns its path. The file is closed on return.
func CreateTorrentsFile(t *testing.T, rows ...*qbfrt.TorrentRow) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "torrents.db")
	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if _, err := raw.Exec(database.Schema); err != nil {
		raw.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}
	raw.Close()

	db, err := database.NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	InsertTorrents(t, db, rows...)
	return path
}

// Torrent returns a row with qBittorrent's defaults. column is the
// target_save_path value; nil means AutoTMM.
func Torrent(hash string, column *string, resumeData []byte) *qbfrt.TorrentRow {
	row := &qbfrt.TorrentRow{
		TorrentID:                hash,
		QueuePosition:            -1,
		ContentLayout:            "Original",
		RatioLimit:               -2000,
		SeedingTimeLimit:         -2,
		InactiveSeedingTimeLimit: -2,
		OperatingMode:            "AutoManaged",
		StopCondition:            "None",
		ResumeData:               resumeData,
		Metadata:                 []byte("d4:infod4:name3:fooee"),
	}
	if column != nil {
		row.TargetSavePath = sql.NullString{String: *column, Valid: true}
	}
	return row
}

// InsertTorrents inserts rows and sets their ID fields.
func InsertTorrents(t *testing.T, db *database.SQLiteDatabase, rows ...*qbfrt.TorrentRow) {
	t.Helper()
	for _, row := range rows {
		id, err := db.InsertTorrent(context.Background(), row)
		if err != nil {
			t.Fatalf("InsertTorrent(%s) error = %v", row.TorrentID, err)
		}
		row.ID = id
	}
}

// ReadTorrents returns every row with all columns loaded, keyed by hash.
func ReadTorrents(t *testing.T, db qbfrt.Database) map[string]*qbfrt.TorrentRow {
	t.Helper()
	out := make(map[string]*qbfrt.TorrentRow)
	err := db.ForEachTorrent(context.Background(), qbfrt.ColumnsAll, func(row *qbfrt.TorrentRow) error {
		out[row.TorrentID] = row
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachTorrent() error = %v", err)
	}
	return out
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}
