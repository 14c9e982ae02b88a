package app

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// lockSuffix is appended to the torrents.db path to name its lock file.
const lockSuffix = ".qbfrt.lock"

// ErrLocked is returned when another qbfrt run holds the database lock.
var ErrLocked = errors.New("another qbfrt run is using this database")

// acquireLock takes an exclusive, non-blocking lock next to dbPath. The
// lock file is left in place on release.
func acquireLock(dbPath string) (*flock.Flock, error) {
	lock := flock.New(dbPath + lockSuffix)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, lock.Path())
	}
	return lock, nil
}
