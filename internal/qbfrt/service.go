package qbfrt

import (
	"context"
	"errors"
	"fmt"

	"qbfrt/internal/fastresume"
)

// Service runs bulk operations over qBittorrent's torrents database.
// Each torrent is read, decoded, changed and written back on its own; there
// is no transaction spanning torrents and no state carried between them.
type Service struct {
	database  Database
	vault     Vault
	encryptor Encryptor
	logger    Logger
	clock     Clock
}

// NewService creates a Service. vault may be nil when backups are disabled;
// encryptor may then be nil too.
func NewService(database Database, vault Vault, encryptor Encryptor, logger Logger, clock Clock) *Service {
	return &Service{
		database:  database,
		vault:     vault,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
	}
}

// ApplyEdits applies edits to every torrent in the database. A torrent is
// written back at most once, and only when at least one edit matched it.
// Torrents whose resume data cannot be decoded, and torrents whose update
// fails, are reported and skipped; they do not stop the run.
func (s *Service) ApplyEdits(ctx context.Context, edits EditSet, report ReportFunc) (Summary, error) {
	if edits.Empty() {
		return Summary{}, fmt.Errorf("no edits requested")
	}
	if err := edits.Validate(); err != nil {
		return Summary{}, fmt.Errorf("invalid edit: %w", err)
	}
	if report == nil {
		report = func(RecordReport) {}
	}

	if edits.SavePath != nil {
		s.logger.Info("replacing save path", "old", edits.SavePath.OldPlatform, "new", edits.SavePath.NewPlatform)
	}
	if edits.TrackerURL != nil {
		s.logger.Info("replacing tracker url", "old", edits.TrackerURL.Old, "new", edits.TrackerURL.New)
	}

	start := s.clock.Now()
	var summary Summary
	err := s.database.ForEachTorrent(ctx, ColumnsEdit, func(row *TorrentRow) error {
		r := s.editOne(ctx, row, edits)
		summary.add(r.Outcome)
		report(r)
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("scanning torrents: %w", err)
	}

	s.logger.Info("edit run finished",
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"failed", summary.Failed,
		"elapsed", s.clock.Now().Sub(start),
	)
	return summary, nil
}

func (s *Service) editOne(ctx context.Context, row *TorrentRow, edits EditSet) RecordReport {
	res, err := ApplyEdits(row, edits)
	if err != nil {
		var encErr *fastresume.EncodeError
		if errors.As(err, &encErr) {
			s.logger.Error("cannot re-encode resume data", "torrent", row.TorrentID, "error", err)
			return RecordReport{TorrentID: row.TorrentID, Outcome: OutcomeEncodeError, Err: err}
		}
		s.warnUnreadable(row, err)
		return RecordReport{TorrentID: row.TorrentID, Outcome: OutcomeDecodeError, Err: err}
	}

	if !res.Changed() {
		s.logger.Debug("torrent unchanged", "torrent", row.TorrentID)
		return RecordReport{TorrentID: row.TorrentID, Outcome: OutcomeUnchanged, Record: res.Record}
	}

	if err := s.database.UpdateTorrent(ctx, res.Update); err != nil {
		perr := &PersistenceError{TorrentID: row.TorrentID, Err: err}
		s.logger.Error("update failed", "torrent", row.TorrentID, "error", err)
		return RecordReport{TorrentID: row.TorrentID, Outcome: OutcomePersistError, Err: perr, Record: res.Record}
	}

	s.logger.Info("torrent updated",
		"torrent", row.TorrentID,
		"save_path", res.Record.SavePath,
		"target_save_path", res.Update.TargetSavePath.String,
	)
	return RecordReport{
		TorrentID: row.TorrentID,
		Outcome:   OutcomeUpdated,
		Record:    res.Record,
		Update:    res.Update,
	}
}

// unsupportedKeyHint accompanies skips caused by keys outside the fastresume
// schema, e.g. libtorrent 2.x mapped_files (renamed files) or trees (v2
// torrents). Such rows are never rewritten.
const unsupportedKeyHint = "resume data uses a libtorrent feature qbfrt does not support " +
	"(renamed files or v2 torrents); the torrent is left untouched, see DESIGN.md \"Unsupported resume keys\""

func (s *Service) warnUnreadable(row *TorrentRow, err error) {
	if errors.Is(err, fastresume.ErrUnknownKey) {
		s.logger.Warn("skipping torrent with unsupported resume data",
			"torrent", row.TorrentID, "error", err, "hint", unsupportedKeyHint)
		return
	}
	s.logger.Warn("skipping torrent with unreadable resume data", "torrent", row.TorrentID, "error", err)
}
