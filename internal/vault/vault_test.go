package vault

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"qbfrt/internal/qbfrt"
)

// vaultContract runs the behavior every Vault implementation shares.
func vaultContract(t *testing.T, newVault func(t *testing.T) qbfrt.Vault) {
	ctx := context.Background()

	t.Run("put and get", func(t *testing.T) {
		tests := []struct {
			name    string
			backup  string
			content string
		}{
			{"plain snapshot", "run-1.db", "SQLite format 3\x00payload"},
			{"encrypted snapshot", "run-2.db.age", "age-encryption.org/v1\n..."},
			{"empty", "run-3.db", ""},
			{"large", "run-4.db", strings.Repeat("x", 1<<16)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				v := newVault(t)
				if err := v.PutBackup(ctx, tt.backup, strings.NewReader(tt.content), int64(len(tt.content))); err != nil {
					t.Fatalf("PutBackup() error = %v", err)
				}
				var buf bytes.Buffer
				if err := v.GetBackup(ctx, tt.backup, &buf); err != nil {
					t.Fatalf("GetBackup() error = %v", err)
				}
				if buf.String() != tt.content {
					t.Errorf("GetBackup() returned %d bytes, want %d", buf.Len(), len(tt.content))
				}
			})
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		v := newVault(t)
		err := v.PutBackup(ctx, "run-1.db", strings.NewReader("abc"), 10)
		if err == nil {
			t.Fatal("PutBackup() expected size mismatch error")
		}
		objs, _ := v.ListBackups(ctx)
		if len(objs) != 0 {
			t.Errorf("ListBackups() = %v, want nothing after failed put", objs)
		}
	})

	t.Run("missing backup", func(t *testing.T) {
		v := newVault(t)
		err := v.GetBackup(ctx, "nope.db", &bytes.Buffer{})
		if !errors.Is(err, ErrBackupNotFound) {
			t.Errorf("GetBackup() error = %v, want ErrBackupNotFound", err)
		}
	})

	t.Run("rejects path names", func(t *testing.T) {
		v := newVault(t)
		for _, name := range []string{"", "..", "a/b.db", `a\b.db`} {
			if err := v.PutBackup(ctx, name, strings.NewReader("x"), 1); err == nil {
				t.Errorf("PutBackup(%q) expected error", name)
			}
		}
	})

	t.Run("list is sorted", func(t *testing.T) {
		v := newVault(t)
		for _, name := range []string{"run-b.db", "run-a.db", "run-c.db.age"} {
			if err := v.PutBackup(ctx, name, strings.NewReader(name), int64(len(name))); err != nil {
				t.Fatalf("PutBackup(%q) error = %v", name, err)
			}
		}
		objs, err := v.ListBackups(ctx)
		if err != nil {
			t.Fatalf("ListBackups() error = %v", err)
		}
		var names []string
		for _, o := range objs {
			names = append(names, o.Name)
			if o.Size != int64(len(o.Name)) {
				t.Errorf("%s size = %d, want %d", o.Name, o.Size, len(o.Name))
			}
		}
		want := "run-a.db,run-b.db,run-c.db.age"
		if got := strings.Join(names, ","); got != want {
			t.Errorf("ListBackups() = %s, want %s", got, want)
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		if err := newVault(t).ValidateSetup(ctx); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}

func TestMemoryVault(t *testing.T) {
	vaultContract(t, func(t *testing.T) qbfrt.Vault {
		return NewMemoryVault("test")
	})
}

func TestFileSystemVault(t *testing.T) {
	vaultContract(t, func(t *testing.T) qbfrt.Vault {
		v, err := NewFileSystemVault("test", t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}
		return v
	})
}
