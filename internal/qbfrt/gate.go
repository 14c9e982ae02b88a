package qbfrt

import (
	"qbfrt/internal/fastresume"
)

// EditSet is the set of edits applied to each torrent in one run. Nil
// members are skipped.
type EditSet struct {
	SavePath   *SavePathEdit
	TrackerURL *TrackerURLEdit
}

// Empty reports whether the set contains no edit.
func (e EditSet) Empty() bool {
	return e.SavePath == nil && e.TrackerURL == nil
}

// Validate validates every edit in the set.
func (e EditSet) Validate() error {
	if e.SavePath != nil {
		if err := e.SavePath.Validate(); err != nil {
			return err
		}
	}
	if e.TrackerURL != nil {
		if err := e.TrackerURL.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EditResult is the outcome of applying an EditSet to one row.
type EditResult struct {
	// Record is the decoded blob with all edits applied.
	Record *fastresume.Record
	// Update is nil when no edit changed the row.
	Update *TorrentUpdate
}

// Changed reports whether the row needs to be written back.
func (r EditResult) Changed() bool {
	return r.Update != nil
}

// ApplyEdits decodes the resume blob of row once, applies every edit in the
// set and, only if at least one of them matched, re-encodes the blob. The
// returned update carries all edits so a row is written at most once.
// A decode failure is returned as is and leaves nothing half-applied.
func ApplyEdits(row *TorrentRow, edits EditSet) (EditResult, error) {
	rec, err := fastresume.Decode(row.ResumeData)
	if err != nil {
		return EditResult{}, err
	}

	changed := false
	column := nullableString(row.TargetSavePath)

	if edits.SavePath != nil {
		if next, ok := ApplySavePath(rec, column, *edits.SavePath); ok {
			column = next
			changed = true
		}
	}
	if edits.TrackerURL != nil {
		if ApplyTrackerURL(rec, *edits.TrackerURL) {
			changed = true
		}
	}

	if !changed {
		return EditResult{Record: rec}, nil
	}

	blob, err := fastresume.Encode(rec)
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{
		Record: rec,
		Update: &TorrentUpdate{
			ID:             row.ID,
			TorrentID:      row.TorrentID,
			TargetSavePath: toNullString(column),
			ResumeData:     blob,
		},
	}, nil
}
