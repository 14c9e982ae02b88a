package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"qbfrt/internal/qbfrt"
)

// MemoryVault keeps backups in memory. Used by tests and the "memory"
// vault type. Safe for concurrent use.
type MemoryVault struct {
	name    string
	objects map[string]memoryObject
	now     func() time.Time
	mu      sync.RWMutex
}

type memoryObject struct {
	data    []byte
	modTime time.Time
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:    name,
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// PutBackup stores a backup, replacing any object with the same name.
func (m *MemoryVault) PutBackup(_ context.Context, name string, r io.Reader, size int64) error {
	if err := checkName(name); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = memoryObject{data: data, modTime: m.now()}
	return nil
}

// GetBackup writes the named backup to w.
func (m *MemoryVault) GetBackup(_ context.Context, name string, w io.Writer) error {
	m.mu.RLock()
	obj, ok := m.objects[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}

	if _, err := io.Copy(w, bytes.NewReader(obj.data)); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// ListBackups returns all stored backups ordered by name.
func (m *MemoryVault) ListBackups(_ context.Context) ([]qbfrt.BackupObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]qbfrt.BackupObject, 0, len(m.objects))
	for name, obj := range m.objects {
		out = append(out, qbfrt.BackupObject{Name: name, Size: int64(len(obj.data)), ModifiedAt: obj.modTime})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup(context.Context) error {
	return nil
}

// Compile-time check that MemoryVault implements qbfrt.Vault interface
var _ qbfrt.Vault = (*MemoryVault)(nil)
