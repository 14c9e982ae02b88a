package qbfrt

import (
	"fmt"
	"strings"

	"qbfrt/internal/fastresume"
)

// TrackerURLEdit replaces a substring of announce URLs, e.g. "http://" with
// "https://" or an old tracker host with a new one.
type TrackerURLEdit struct {
	Old string
	New string
}

// Validate rejects an empty search string.
func (e TrackerURLEdit) Validate() error {
	if e.Old == "" {
		return fmt.Errorf("old tracker URL must not be empty")
	}
	return nil
}

// RewriteTrackers returns a copy of tiers with edit applied to every URL.
// Tier structure and order are kept; URLs that do not contain edit.Old are
// copied as is. The bool reports whether any URL matched.
func RewriteTrackers(tiers [][]string, edit TrackerURLEdit) ([][]string, bool) {
	changed := false
	out := make([][]string, len(tiers))
	for i, tier := range tiers {
		urls := make([]string, len(tier))
		for j, url := range tier {
			if edit.Old != "" && strings.Contains(url, edit.Old) {
				url = strings.ReplaceAll(url, edit.Old, edit.New)
				changed = true
			}
			urls[j] = url
		}
		out[i] = urls
	}
	return out, changed
}

// ApplyTrackerURL rewrites the trackers of rec in place.
func ApplyTrackerURL(rec *fastresume.Record, edit TrackerURLEdit) bool {
	tiers, changed := RewriteTrackers(rec.Trackers, edit)
	if changed {
		rec.Trackers = tiers
	}
	return changed
}
