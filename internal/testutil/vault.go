package testutil

import (
	"qbfrt/internal/vault"
)

// NewTestVault creates an in-memory vault named "test-vault".
func NewTestVault() *vault.MemoryVault {
	return vault.NewMemoryVault("test-vault")
}
