package fastresume

import "strings"

// SplitTags converts the comma-joined tags column to the qBt-tags list.
// A NULL column yields an empty, non-nil list because qBittorrent always
// writes the key.
func SplitTags(column *string) []string {
	if column == nil || *column == "" {
		return []string{}
	}
	return strings.Split(*column, ",")
}

// JoinTags converts a qBt-tags list to the tags column. An empty list is
// stored as NULL.
func JoinTags(tags []string) *string {
	if len(tags) == 0 {
		return nil
	}
	joined := strings.Join(tags, ",")
	return &joined
}
