package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"

	"qbfrt/internal/qbfrt"
)

// FakeDatabase is an in-memory qbfrt.Database that records every update
// and can be told to fail updates for chosen torrents.
type FakeDatabase struct {
	mu      sync.Mutex
	rows    map[int64]*qbfrt.TorrentRow
	nextID  int64
	updates []qbfrt.TorrentUpdate

	// FailUpdates maps torrent ids to the error UpdateTorrent returns.
	FailUpdates map[string]error
	// BackupErr is returned by BackupTo when set.
	BackupErr error
	// BackupContent is written by BackupTo.
	BackupContent []byte
}

// NewFakeDatabase creates a FakeDatabase holding rows. IDs are assigned in
// order.
func NewFakeDatabase(rows ...*qbfrt.TorrentRow) *FakeDatabase {
	db := &FakeDatabase{
		rows:          make(map[int64]*qbfrt.TorrentRow),
		FailUpdates:   make(map[string]error),
		BackupContent: []byte("SQLite format 3\x00"),
	}
	for _, row := range rows {
		db.nextID++
		row.ID = db.nextID
		cp := *row
		db.rows[row.ID] = &cp
	}
	return db
}

func (f *FakeDatabase) ForEachTorrent(ctx context.Context, _ qbfrt.ColumnSet, fn func(*qbfrt.TorrentRow) error) error {
	f.mu.Lock()
	ids := make([]int64, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	f.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.mu.Lock()
		cp := *f.rows[id]
		f.mu.Unlock()
		if err := fn(&cp); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeDatabase) UpdateTorrent(_ context.Context, update *qbfrt.TorrentUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.FailUpdates[update.TorrentID]; ok {
		return err
	}
	row, ok := f.rows[update.ID]
	if !ok {
		return qbfrt.ErrTorrentNotFound
	}
	row.TargetSavePath = update.TargetSavePath
	row.ResumeData = update.ResumeData
	f.updates = append(f.updates, *update)
	return nil
}

func (f *FakeDatabase) BackupTo(destPath string) error {
	if f.BackupErr != nil {
		return f.BackupErr
	}
	return writeNewFile(destPath, f.BackupContent)
}

func (f *FakeDatabase) Close() error { return nil }

// Updates returns every successful update in call order.
func (f *FakeDatabase) Updates() []qbfrt.TorrentUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]qbfrt.TorrentUpdate(nil), f.updates...)
}

// Row returns the stored row for a torrent id.
func (f *FakeDatabase) Row(torrentID string) (*qbfrt.TorrentRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.TorrentID == torrentID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, errors.New("no such torrent: " + torrentID)
}

var _ qbfrt.Database = (*FakeDatabase)(nil)
