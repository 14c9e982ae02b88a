package qbfrt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrBackupsDisabled is returned by backup operations when no vault is
// configured.
var ErrBackupsDisabled = errors.New("backups are not configured")

// ErrKeysNotConfigured is returned when backups are encrypted but the key
// pair has not been generated.
var ErrKeysNotConfigured = errors.New("encryption keys not found; run 'qbfrt keys init'")

// backupExt is the name suffix of a plaintext database snapshot.
const backupExt = ".db"

// BackupDatabase snapshots the torrents database and stores it in the vault
// under <name>.db, plus the encryptor's suffix. Returns the object name.
func (s *Service) BackupDatabase(ctx context.Context, name string) (string, error) {
	if s.vault == nil {
		return "", ErrBackupsDisabled
	}
	if s.encryptor != nil && !s.encryptor.IsConfigured() {
		return "", ErrKeysNotConfigured
	}

	tmpDir, err := os.MkdirTemp("", "qbfrt-backup-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// VACUUM INTO refuses to overwrite, so the snapshot path must not exist.
	snapshot := filepath.Join(tmpDir, "torrents.db")
	if err := s.database.BackupTo(snapshot); err != nil {
		return "", fmt.Errorf("snapshotting database: %w", err)
	}

	objectName := name + backupExt
	payload := snapshot
	if suffix := s.suffix(); suffix != "" {
		objectName += suffix
		payload = snapshot + suffix
		if err := s.encryptFile(snapshot, payload); err != nil {
			return "", err
		}
	}

	f, err := os.Open(payload)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat snapshot: %w", err)
	}

	if err := s.vault.PutBackup(ctx, objectName, f, info.Size()); err != nil {
		return "", fmt.Errorf("uploading backup: %w", err)
	}

	s.logger.Info("database backed up", "backup", objectName, "size", info.Size())
	return objectName, nil
}

// ListBackups returns the stored backups ordered by name.
func (s *Service) ListBackups(ctx context.Context) ([]BackupObject, error) {
	if s.vault == nil {
		return nil, ErrBackupsDisabled
	}
	objs, err := s.vault.ListBackups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Name < objs[j].Name })
	return objs, nil
}

// RestoreBackup downloads the named backup to destPath, decrypting it with
// passphrase if it is encrypted. destPath must not exist: qBittorrent must
// be stopped and the current database moved away by the user first.
func (s *Service) RestoreBackup(ctx context.Context, name, passphrase, destPath string) error {
	if s.vault == nil {
		return ErrBackupsDisabled
	}
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("refusing to overwrite existing file %s", destPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking destination: %w", err)
	}

	encrypted := false
	switch suffix := s.suffix(); {
	case strings.HasSuffix(name, backupExt):
	case suffix != "" && strings.HasSuffix(name, backupExt+suffix):
		encrypted = true
	default:
		return fmt.Errorf("backup %s is not readable with the configured encryption", name)
	}

	var dc DecryptionContext
	if encrypted {
		var err error
		dc, err = s.encryptor.Unlock(passphrase)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".qbfrt-restore-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if encrypted {
		err = s.downloadDecrypted(ctx, name, dc, tmp)
	} else {
		err = s.vault.GetBackup(ctx, name, tmp)
	}
	if err != nil {
		tmp.Close()
		return fmt.Errorf("downloading backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("moving restored database into place: %w", err)
	}
	s.logger.Info("backup restored", "backup", name, "path", destPath)
	return nil
}

func (s *Service) suffix() string {
	if s.encryptor == nil {
		return ""
	}
	return s.encryptor.Suffix()
}

func (s *Service) encryptFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating encrypted snapshot: %w", err)
	}
	if err := s.encryptor.Encrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	return out.Close()
}

// downloadDecrypted stages the ciphertext in a temp file so a failed
// download never reaches the decryptor half-written.
func (s *Service) downloadDecrypted(ctx context.Context, name string, dc DecryptionContext, w *os.File) error {
	enc, err := os.CreateTemp("", "qbfrt-restore-*")
	if err != nil {
		return err
	}
	defer os.Remove(enc.Name())
	defer enc.Close()

	if err := s.vault.GetBackup(ctx, name, enc); err != nil {
		return err
	}
	if _, err := enc.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return dc.Decrypt(enc, w)
}
