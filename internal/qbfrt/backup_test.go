package qbfrt_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qbfrt/internal/config"
	"qbfrt/internal/encryption"
	"qbfrt/internal/qbfrt"
	"qbfrt/internal/testutil"
)

func TestService_BackupAndRestore(t *testing.T) {
	tests := []struct {
		name      string
		encryptor qbfrt.Encryptor
		wantName  string
	}{
		{"encrypted", testutil.NewTestEncryptor(), "run-1.db" + encryption.TestSuffix},
		{"plaintext", encryption.NoneEncryptor{}, "run-1.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := testutil.NewFakeDatabase()
			vault := testutil.NewTestVault()
			svc := qbfrt.NewService(db, vault, tt.encryptor, qbfrt.NopLogger{}, testutil.FixedClock())

			name, err := svc.BackupDatabase(ctx, "run-1")
			if err != nil {
				t.Fatalf("BackupDatabase() error = %v", err)
			}
			if name != tt.wantName {
				t.Errorf("BackupDatabase() = %q, want %q", name, tt.wantName)
			}

			var stored bytes.Buffer
			if err := vault.GetBackup(ctx, name, &stored); err != nil {
				t.Fatalf("GetBackup() error = %v", err)
			}
			encrypted := tt.encryptor.Suffix() != ""
			if encrypted == bytes.Equal(stored.Bytes(), db.BackupContent) {
				t.Errorf("stored object encrypted = %v, content %q", !encrypted, stored.Bytes())
			}

			objs, err := svc.ListBackups(ctx)
			if err != nil {
				t.Fatalf("ListBackups() error = %v", err)
			}
			if len(objs) != 1 || objs[0].Name != name || objs[0].Size != int64(stored.Len()) {
				t.Errorf("ListBackups() = %+v", objs)
			}

			dest := filepath.Join(t.TempDir(), "torrents.db")
			if err := svc.RestoreBackup(ctx, name, "secret", dest); err != nil {
				t.Fatalf("RestoreBackup() error = %v", err)
			}
			assertFile(t, dest, string(db.BackupContent))
		})
	}
}

func TestService_RestoreBackup_Errors(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewFakeDatabase()
	vault := testutil.NewTestVault()
	svc := qbfrt.NewService(db, vault, testutil.NewTestEncryptor(), qbfrt.NopLogger{}, testutil.FixedClock())

	name, err := svc.BackupDatabase(ctx, "run-1")
	if err != nil {
		t.Fatalf("BackupDatabase() error = %v", err)
	}

	t.Run("existing destination", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "torrents.db")
		if err := os.WriteFile(dest, []byte("live"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := svc.RestoreBackup(ctx, name, "secret", dest); err == nil {
			t.Error("RestoreBackup() over existing file expected error")
		}
		assertFile(t, dest, "live")
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "torrents.db")
		err := svc.RestoreBackup(ctx, name, encryption.WrongPassphrase, dest)
		if !errors.Is(err, encryption.ErrWrongPassphrase) {
			t.Errorf("RestoreBackup() error = %v, want ErrWrongPassphrase", err)
		}
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Error("destination created after failed unlock")
		}
	})

	t.Run("unknown backup leaves no file", func(t *testing.T) {
		dir := t.TempDir()
		err := svc.RestoreBackup(ctx, "missing.db"+encryption.TestSuffix, "secret", filepath.Join(dir, "torrents.db"))
		if err == nil {
			t.Fatal("RestoreBackup() of missing backup expected error")
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("leftover files: %v", entries)
		}
	})

	t.Run("foreign suffix", func(t *testing.T) {
		err := svc.RestoreBackup(ctx, "run-1.db.age", "secret", filepath.Join(t.TempDir(), "torrents.db"))
		if err == nil || !strings.Contains(err.Error(), "not readable") {
			t.Errorf("RestoreBackup() error = %v, want not readable", err)
		}
	})
}

func TestService_BackupDatabase_SnapshotFailure(t *testing.T) {
	db := testutil.NewFakeDatabase()
	db.BackupErr = errors.New("disk I/O error")
	vault := testutil.NewTestVault()
	svc := qbfrt.NewService(db, vault, testutil.NewTestEncryptor(), qbfrt.NopLogger{}, testutil.FixedClock())

	if _, err := svc.BackupDatabase(context.Background(), "run-1"); !errors.Is(err, db.BackupErr) {
		t.Errorf("BackupDatabase() error = %v, want %v", err, db.BackupErr)
	}
	objs, _ := vault.ListBackups(context.Background())
	if len(objs) != 0 {
		t.Errorf("vault holds %d objects after failed snapshot", len(objs))
	}
}

func TestService_BackupDatabase_KeysMissing(t *testing.T) {
	dir := t.TempDir()
	enc := encryption.NewAgeEncryptor(config.EncryptionConfig{
		Type:           "age",
		PublicKeyPath:  filepath.Join(dir, "qbfrt.pub"),
		PrivateKeyPath: filepath.Join(dir, "qbfrt.key"),
	})
	vault := testutil.NewTestVault()
	svc := qbfrt.NewService(testutil.NewFakeDatabase(), vault, enc, qbfrt.NopLogger{}, testutil.FixedClock())

	if _, err := svc.BackupDatabase(context.Background(), "run-1"); !errors.Is(err, qbfrt.ErrKeysNotConfigured) {
		t.Errorf("BackupDatabase() error = %v, want ErrKeysNotConfigured", err)
	}
	objs, _ := vault.ListBackups(context.Background())
	if len(objs) != 0 {
		t.Errorf("vault holds %d objects without keys", len(objs))
	}
}

func TestService_BackupsDisabled(t *testing.T) {
	ctx := context.Background()
	svc := qbfrt.NewService(testutil.NewFakeDatabase(), nil, nil, qbfrt.NopLogger{}, testutil.FixedClock())

	if _, err := svc.BackupDatabase(ctx, "run-1"); !errors.Is(err, qbfrt.ErrBackupsDisabled) {
		t.Errorf("BackupDatabase() error = %v, want ErrBackupsDisabled", err)
	}
	if _, err := svc.ListBackups(ctx); !errors.Is(err, qbfrt.ErrBackupsDisabled) {
		t.Errorf("ListBackups() error = %v, want ErrBackupsDisabled", err)
	}
	if err := svc.RestoreBackup(ctx, "run-1.db", "", filepath.Join(t.TempDir(), "x.db")); !errors.Is(err, qbfrt.ErrBackupsDisabled) {
		t.Errorf("RestoreBackup() error = %v, want ErrBackupsDisabled", err)
	}
}
