package qbfrt

import (
	"context"
	"io"
	"time"
)

// BackupObject describes one stored database backup.
type BackupObject struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
}

// Vault stores database backups taken before a run modifies torrents.db.
// Objects are streamed so a large database is never held in memory.
type Vault interface {
	// PutBackup stores an object. size is the number of bytes read from r.
	PutBackup(ctx context.Context, name string, r io.Reader, size int64) error

	// GetBackup writes the named object to w.
	GetBackup(ctx context.Context, name string, w io.Writer) error

	// ListBackups returns all stored objects ordered by name.
	ListBackups(ctx context.Context) ([]BackupObject, error)

	// ValidateSetup verifies the vault is reachable and writable.
	ValidateSetup(ctx context.Context) error
}

// Encryptor protects backups at rest. Encryption needs only the public
// key; restoring needs the passphrase that unlocks the private key.
type Encryptor interface {
	// Setup generates the key pair, protecting the private key with
	// passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock returns a DecryptionContext, or an error for a wrong
	// passphrase.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether the keys exist.
	IsConfigured() bool

	// Suffix is appended to backup names, e.g. ".age". Empty means the
	// backups are stored in plaintext.
	Suffix() string
}

// DecryptionContext decrypts backups for the duration of a restore.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
