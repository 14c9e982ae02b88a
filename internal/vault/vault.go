// Package vault implements the backup stores torrents.db snapshots are
// uploaded to: memory, a local directory, or an S3 bucket.
package vault

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBackupNotFound is returned by GetBackup for an unknown name.
var ErrBackupNotFound = errors.New("backup not found")

// checkName rejects names that would escape the vault root or prefix.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name %q", name)
	}
	return nil
}
