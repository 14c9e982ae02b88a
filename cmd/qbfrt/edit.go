package main

import (
	"fmt"

	"qbfrt/internal/qbfrt"

	"github.com/spf13/cobra"
)

// editFlags holds the edit command line. set records which path and
// tracker flags were given, since an empty new value is legal.
type editFlags struct {
	oldPath, newPath                 string
	oldPathPlatform, newPathPlatform string
	separator                        string
	oldTracker, newTracker           string
	db                               string
	noBackup                         bool
	set                              map[string]bool
}

func addEditFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("old-path", "", "Save path prefix to replace, forward-slash form")
	f.String("new-path", "", "Replacement save path, forward-slash form")
	f.String("old-path-platform", "", "Save path prefix as stored in resume data (default: --old-path)")
	f.String("new-path-platform", "", "Replacement as stored in resume data (default: --new-path)")
	f.String("separator", "", `Separator written into resume data paths, / or \ (default: separator from config)`)
	f.String("old-tracker", "", "Tracker URL substring to replace")
	f.String("new-tracker", "", "Replacement tracker URL substring")
	f.String("db", "", "Path to torrents.db (overrides config)")
	f.Bool("no-backup", false, "Do not back up torrents.db before editing")
}

func readEditFlags(cmd *cobra.Command) editFlags {
	f := cmd.Flags()
	e := editFlags{set: make(map[string]bool)}
	e.oldPath, _ = f.GetString("old-path")
	e.newPath, _ = f.GetString("new-path")
	e.oldPathPlatform, _ = f.GetString("old-path-platform")
	e.newPathPlatform, _ = f.GetString("new-path-platform")
	e.separator, _ = f.GetString("separator")
	e.oldTracker, _ = f.GetString("old-tracker")
	e.newTracker, _ = f.GetString("new-tracker")
	e.db, _ = f.GetString("db")
	e.noBackup, _ = f.GetBool("no-backup")
	for _, name := range []string{"old-path", "new-path", "old-path-platform", "new-path-platform", "old-tracker", "new-tracker"} {
		e.set[name] = f.Changed(name)
	}
	return e
}

// buildEditSet turns the flags into an EditSet. Path and tracker edits can
// be combined; each torrent is then written at most once.
func buildEditSet(f editFlags, defaultSeparator string) (qbfrt.EditSet, error) {
	var edits qbfrt.EditSet

	pathGiven := f.set["old-path"] || f.set["new-path"] ||
		f.set["old-path-platform"] || f.set["new-path-platform"]
	if pathGiven {
		// The platform flags only override the blob form; the normalized
		// pair is always needed for target_save_path.
		if !f.set["old-path"] || !f.set["new-path"] {
			return edits, fmt.Errorf("a path edit requires both --old-path and --new-path")
		}
		sep := f.separator
		if sep == "" {
			sep = defaultSeparator
		}
		edit := qbfrt.SavePathEdit{
			OldNormalized: f.oldPath,
			NewNormalized: f.newPath,
			OldPlatform:   f.oldPath,
			NewPlatform:   f.newPath,
			Separator:     sep,
		}
		if f.set["old-path-platform"] {
			edit.OldPlatform = f.oldPathPlatform
		}
		if f.set["new-path-platform"] {
			edit.NewPlatform = f.newPathPlatform
		}
		edits.SavePath = &edit
	}

	if f.set["old-tracker"] {
		if !f.set["new-tracker"] {
			return edits, fmt.Errorf("--old-tracker requires --new-tracker")
		}
		edits.TrackerURL = &qbfrt.TrackerURLEdit{Old: f.oldTracker, New: f.newTracker}
	} else if f.set["new-tracker"] {
		return edits, fmt.Errorf("--new-tracker requires --old-tracker")
	}

	if edits.Empty() {
		return edits, fmt.Errorf("nothing to do: give --old-path/--new-path and/or --old-tracker/--new-tracker")
	}
	return edits, edits.Validate()
}
