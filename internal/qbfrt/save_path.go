package qbfrt

import (
	"fmt"
	"strings"

	"qbfrt/internal/fastresume"
)

// SavePathEdit replaces a save path prefix in both places qBittorrent keeps
// it. The target_save_path column always uses forward slashes, while the
// resume blob uses the separators of the OS qBittorrent runs on, so the old
// and new paths are given in both forms.
type SavePathEdit struct {
	OldNormalized string
	NewNormalized string
	OldPlatform   string
	NewPlatform   string
	// Separator is written in place of every / and \ in the rewritten blob
	// path, which allows moving a library between Windows and Unix hosts.
	Separator string
}

// Validate checks the fields the command layer fills in.
func (e SavePathEdit) Validate() error {
	if e.OldPlatform == "" {
		return fmt.Errorf("old save path must not be empty")
	}
	// Without the normalized pair the blob would move while
	// target_save_path kept the old path.
	if e.OldNormalized == "" {
		return fmt.Errorf("old normalized save path must not be empty")
	}
	if e.Separator != "/" && e.Separator != `\` {
		return fmt.Errorf("separator must be / or \\, got %q", e.Separator)
	}
	return nil
}

// PathState is the pair of save path representations of one torrent.
// Column is nil when target_save_path is NULL (AutoTMM).
type PathState struct {
	BlobPath string
	Column   *string
}

// ReconcileSavePath applies edit to both representations. The blob path
// decides whether the edit applies at all: when it does not contain
// OldPlatform neither value changes. The column is rewritten with the
// normalized pair independently of how the blob was rewritten, and a nil
// column stays nil.
func ReconcileSavePath(state PathState, edit SavePathEdit) (PathState, bool) {
	if edit.OldPlatform == "" || !strings.Contains(state.BlobPath, edit.OldPlatform) {
		return state, false
	}

	blobPath := strings.ReplaceAll(state.BlobPath, edit.OldPlatform, edit.NewPlatform)
	next := PathState{BlobPath: withSeparator(blobPath, edit.Separator)}

	if state.Column != nil {
		column := replaceNormalized(*state.Column, edit)
		next.Column = &column
	}
	return next, true
}

// ApplySavePath rewrites the save path of rec and returns the new
// target_save_path column. rec is only modified when the edit applies.
// qBt-savePath, when present, holds the normalized form and is rewritten
// like the column.
func ApplySavePath(rec *fastresume.Record, column *string, edit SavePathEdit) (*string, bool) {
	next, changed := ReconcileSavePath(PathState{BlobPath: rec.SavePath, Column: column}, edit)
	if !changed {
		return column, false
	}

	rec.SavePath = next.BlobPath
	if p, ok := rec.QBtSavePath.Get(); ok {
		rec.QBtSavePath = fastresume.Some(replaceNormalized(p, edit))
	}
	return next.Column, true
}

func replaceNormalized(p string, edit SavePathEdit) string {
	if edit.OldNormalized == "" {
		return p
	}
	return strings.ReplaceAll(p, edit.OldNormalized, edit.NewNormalized)
}

func withSeparator(p, sep string) string {
	if sep == "" {
		return p
	}
	return strings.NewReplacer("/", sep, `\`, sep).Replace(p)
}
