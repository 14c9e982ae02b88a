package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"qbfrt/internal/qbfrt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DefaultPageSize is the number of rows ForEachTorrent loads per query.
const DefaultPageSize = 256

const (
	editColumns = `id, torrent_id, target_save_path, libtorrent_resume_data`
	allColumns  = `id, torrent_id, queue_position, name, category, tags,
		target_save_path, download_path, content_layout, ratio_limit,
		seeding_time_limit, inactive_seeding_time_limit, share_limit_action,
		has_outer_pieces_priority, has_seed_status, operating_mode, stopped,
		stop_condition, libtorrent_resume_data, metadata`
)

// SQLiteDatabase implements qbfrt.Database over qBittorrent's torrents.db.
type SQLiteDatabase struct {
	db       *sql.DB
	path     string
	pageSize int
}

// NewSQLiteDatabase opens an existing torrents.db. path can also be
// ":memory:", for tests.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:       db,
		path:     path,
		pageSize: DefaultPageSize,
	}, nil
}

// OpenConnection opens and configures a SQLite connection. A file path must
// name an existing database; it is never created, so a mistyped path fails
// instead of producing an empty torrents.db.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		dsn = "file:" + path + "?mode=rw"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each pooled connection to :memory: would be a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// qBittorrent may hold the database briefly while shutting down.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return db, nil
}

// SetPageSize changes how many rows ForEachTorrent loads per query.
func (s *SQLiteDatabase) SetPageSize(n int) {
	if n > 0 {
		s.pageSize = n
	}
}

// ForEachTorrent calls fn for every row in id order. Rows are loaded a page
// at a time with keyset pagination, so no statement is open while fn runs
// and fn may write to the database.
func (s *SQLiteDatabase) ForEachTorrent(ctx context.Context, cols qbfrt.ColumnSet, fn func(*qbfrt.TorrentRow) error) error {
	after := int64(math.MinInt64)
	for {
		page, err := s.loadPage(ctx, cols, after)
		if err != nil {
			return err
		}

		for _, row := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(row); err != nil {
				return err
			}
		}

		if len(page) < s.pageSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}

func (s *SQLiteDatabase) loadPage(ctx context.Context, cols qbfrt.ColumnSet, after int64) ([]*qbfrt.TorrentRow, error) {
	columns := editColumns
	if cols == qbfrt.ColumnsAll {
		columns = allColumns
	}
	query := "SELECT " + columns + " FROM torrents WHERE id > ? ORDER BY id LIMIT ?"

	rows, err := s.db.QueryContext(ctx, query, after, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("querying torrents: %w", err)
	}
	defer rows.Close()

	var page []*qbfrt.TorrentRow
	for rows.Next() {
		row := &qbfrt.TorrentRow{}
		if cols == qbfrt.ColumnsAll {
			err = rows.Scan(
				&row.ID, &row.TorrentID, &row.QueuePosition, &row.Name, &row.Category, &row.Tags,
				&row.TargetSavePath, &row.DownloadPath, &row.ContentLayout, &row.RatioLimit,
				&row.SeedingTimeLimit, &row.InactiveSeedingTimeLimit, &row.ShareLimitAction,
				&row.HasOuterPiecesPriority, &row.HasSeedStatus, &row.OperatingMode, &row.Stopped,
				&row.StopCondition, &row.ResumeData, &row.Metadata,
			)
		} else {
			err = rows.Scan(&row.ID, &row.TorrentID, &row.TargetSavePath, &row.ResumeData)
		}
		if err != nil {
			return nil, fmt.Errorf("scanning torrent: %w", err)
		}
		page = append(page, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating torrents: %w", err)
	}
	return page, nil
}

// UpdateTorrent writes target_save_path and libtorrent_resume_data in one
// statement. When update.TorrentID is set the row must also carry that
// torrent id, so a stale id never overwrites another torrent.
func (s *SQLiteDatabase) UpdateTorrent(ctx context.Context, update *qbfrt.TorrentUpdate) error {
	var torrentID string
	err := s.db.QueryRowContext(ctx,
		`UPDATE torrents SET target_save_path = ?, libtorrent_resume_data = ?
		 WHERE id = ? AND (? = '' OR torrent_id = ?)
		 RETURNING torrent_id`,
		update.TargetSavePath, update.ResumeData, update.ID, update.TorrentID, update.TorrentID,
	).Scan(&torrentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return qbfrt.ErrTorrentNotFound
		}
		return fmt.Errorf("updating torrent: %w", err)
	}
	return nil
}

// InsertTorrent adds a row. Used to build fixture databases.
func (s *SQLiteDatabase) InsertTorrent(ctx context.Context, row *qbfrt.TorrentRow) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO torrents (torrent_id, queue_position, name, category, tags,
			target_save_path, download_path, content_layout, ratio_limit,
			seeding_time_limit, inactive_seeding_time_limit, share_limit_action,
			has_outer_pieces_priority, has_seed_status, operating_mode, stopped,
			stop_condition, libtorrent_resume_data, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.TorrentID, row.QueuePosition, row.Name, row.Category, row.Tags,
		row.TargetSavePath, row.DownloadPath, row.ContentLayout, row.RatioLimit,
		row.SeedingTimeLimit, row.InactiveSeedingTimeLimit, row.ShareLimitAction,
		row.HasOuterPiecesPriority, row.HasSeedStatus, row.OperatingMode, row.Stopped,
		row.StopCondition, row.ResumeData, row.Metadata,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting torrent: %w", err)
	}
	return res.LastInsertId()
}

// ApplySchema creates the qBittorrent tables. Used to build fixture
// databases.
func (s *SQLiteDatabase) ApplySchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Path returns the file path the database was opened from.
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements qbfrt.Database interface
var _ qbfrt.Database = (*SQLiteDatabase)(nil)
