package qbfrt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"qbfrt/internal/fastresume"
)

// DefaultDumpDir is used when no output directory is configured.
const DefaultDumpDir = "qbfrt_dump"

// DumpSink receives the files re-created for one torrent.
type DumpSink interface {
	WriteTorrent(torrentID string, resumeData, metadata []byte) error
}

// RestoreColumns copies the qBittorrent settings that the database keeps
// only in columns back into the resume blob, producing what qBittorrent
// writes to a .fastresume file. Save and download paths are only restored
// when target_save_path is set: in AutoTMM mode a .fastresume has neither.
func RestoreColumns(rec *fastresume.Record, row *TorrentRow) {
	rec.QBtCategory = fastresume.Some(row.Category.String)
	rec.QBtContentLayout = fastresume.Some(row.ContentLayout)
	rec.QBtFirstLastPiecePriority = fastresume.Some(row.HasOuterPiecesPriority)
	rec.QBtInactiveSeedingTimeLimit = fastresume.Some(row.InactiveSeedingTimeLimit)
	rec.QBtName = fastresume.Some(row.Name.String)
	rec.QBtRatioLimit = fastresume.Some(row.RatioLimit)
	rec.QBtSeedStatus = fastresume.Some(row.HasSeedStatus)
	rec.QBtSeedingTimeLimit = fastresume.Some(row.SeedingTimeLimit)
	rec.QBtShareLimitAction = fastresume.Some(row.ShareLimitAction.String)
	rec.QBtStopCondition = fastresume.Some(row.StopCondition)

	if row.TargetSavePath.Valid {
		rec.QBtDownloadPath = fastresume.Some(row.DownloadPath.String)
		rec.QBtSavePath = fastresume.Some(row.TargetSavePath.String)
	}

	rec.QBtTags = fastresume.Some(fastresume.SplitTags(nullableString(row.Tags)))
}

// Dump writes a .fastresume and .torrent pair for every torrent to sink.
// Torrents with unreadable resume data are reported and skipped; a sink
// error stops the dump.
func (s *Service) Dump(ctx context.Context, sink DumpSink, report ReportFunc) (Summary, error) {
	if report == nil {
		report = func(RecordReport) {}
	}

	var summary Summary
	err := s.database.ForEachTorrent(ctx, ColumnsAll, func(row *TorrentRow) error {
		rec, err := fastresume.Decode(row.ResumeData)
		if err != nil {
			s.warnUnreadable(row, err)
			r := RecordReport{TorrentID: row.TorrentID, Outcome: OutcomeDecodeError, Err: err}
			summary.add(r.Outcome)
			report(r)
			return nil
		}

		RestoreColumns(rec, row)
		blob, err := fastresume.Encode(rec)
		if err != nil {
			s.logger.Error("cannot encode restored resume data", "torrent", row.TorrentID, "error", err)
			r := RecordReport{TorrentID: row.TorrentID, Outcome: OutcomeEncodeError, Err: err, Record: rec}
			summary.add(r.Outcome)
			report(r)
			return nil
		}

		if err := sink.WriteTorrent(row.TorrentID, blob, row.Metadata); err != nil {
			return fmt.Errorf("writing %s: %w", row.TorrentID, err)
		}

		s.logger.Debug("fastresume written", "torrent", row.TorrentID)
		r := RecordReport{TorrentID: row.TorrentID, Outcome: OutcomeDumped, Record: rec}
		summary.add(r.Outcome)
		report(r)
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("dumping torrents: %w", err)
	}

	s.logger.Info("dump finished", "dumped", summary.Dumped, "failed", summary.Failed)
	return summary, nil
}

// DirSink writes files in the BT_Backup layout:
//
//	<dir>/
//	  <hash>.fastresume
//	  <hash>.torrent
//
// Existing files are overwritten.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if dir == "" {
		dir = DefaultDumpDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Dir returns the output directory.
func (d *DirSink) Dir() string {
	return d.dir
}

// WriteTorrent writes <hash>.fastresume, and <hash>.torrent when metadata
// is non-empty. Magnet links added without metadata have none.
func (d *DirSink) WriteTorrent(torrentID string, resumeData, metadata []byte) error {
	if torrentID == "" || filepath.Base(torrentID) != torrentID {
		return errors.New("invalid torrent id")
	}
	if err := os.WriteFile(filepath.Join(d.dir, torrentID+".fastresume"), resumeData, 0644); err != nil {
		return fmt.Errorf("writing fastresume: %w", err)
	}
	if len(metadata) == 0 {
		return nil
	}
	if err := os.WriteFile(filepath.Join(d.dir, torrentID+".torrent"), metadata, 0644); err != nil {
		return fmt.Errorf("writing torrent file: %w", err)
	}
	return nil
}
