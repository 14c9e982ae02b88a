package qbfrt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TorrentRow is one row of qBittorrent's torrents table. Which fields are
// populated depends on the ColumnSet passed to ForEachTorrent.
type TorrentRow struct {
	ID            int64
	TorrentID     string
	QueuePosition int64
	Name          sql.NullString
	Category      sql.NullString
	// Tags is comma-joined.
	Tags sql.NullString
	// TargetSavePath always uses forward slashes. It is NULL when the
	// torrent is in automatic management mode (AutoTMM).
	TargetSavePath           sql.NullString
	DownloadPath             sql.NullString
	ContentLayout            string
	RatioLimit               int64
	SeedingTimeLimit         int64
	InactiveSeedingTimeLimit int64
	ShareLimitAction         sql.NullString
	HasOuterPiecesPriority   int64
	HasSeedStatus            int64
	OperatingMode            string
	Stopped                  int64
	StopCondition            string
	ResumeData               []byte
	Metadata                 []byte
}

// ColumnSet selects which columns a scan loads.
type ColumnSet int

const (
	// ColumnsEdit loads id, torrent_id, target_save_path and
	// libtorrent_resume_data.
	ColumnsEdit ColumnSet = iota
	// ColumnsAll loads every column.
	ColumnsAll
)

// TorrentUpdate is the write-back for one changed row. Both columns are
// written in a single statement.
type TorrentUpdate struct {
	ID             int64
	TorrentID      string
	TargetSavePath sql.NullString
	ResumeData     []byte
}

// ErrTorrentNotFound is returned when an update matches no row.
var ErrTorrentNotFound = errors.New("torrent not found")

// PersistenceError wraps a failed write-back of one torrent.
type PersistenceError struct {
	TorrentID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.TorrentID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Database reads and writes qBittorrent's torrents table.
type Database interface {
	// ForEachTorrent calls fn for every row in id order. Rows are fetched
	// in pages so fn may call UpdateTorrent. An error from fn stops the
	// iteration and is returned.
	ForEachTorrent(ctx context.Context, cols ColumnSet, fn func(*TorrentRow) error) error

	// UpdateTorrent writes target_save_path and libtorrent_resume_data for
	// the row with the given id. Returns ErrTorrentNotFound when no row
	// matches.
	UpdateTorrent(ctx context.Context, update *TorrentUpdate) error

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(destPath string) error

	// Close closes the database connection.
	Close() error
}

// nullableString converts a nullable column to a pointer.
func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
