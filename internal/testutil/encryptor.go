package testutil

import (
	"qbfrt/internal/encryption"
	"qbfrt/internal/qbfrt"
)

// NewTestEncryptor returns an encryptor that frames data with a fixed
// header instead of real encryption. Unlock fails for
// encryption.WrongPassphrase.
func NewTestEncryptor() qbfrt.Encryptor {
	return encryption.NewTestEncryptor()
}
