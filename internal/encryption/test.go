package encryption

import (
	"bytes"
	"fmt"
	"io"

	"qbfrt/internal/qbfrt"
)

// TestSuffix is appended to backups written by TestEncryptor.
const TestSuffix = ".test"

var testHeader = []byte("QBFRTENC")

// TestEncryptor is a deterministic stand-in for age. It prepends a fixed
// header on encryption and strips it on decryption. Any passphrase unlocks
// it except WrongPassphrase.
type TestEncryptor struct {
	setupCalled bool
}

// WrongPassphrase is rejected by TestEncryptor.Unlock.
const WrongPassphrase = "wrong"

var _ qbfrt.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(string) error {
	e.setupCalled = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (qbfrt.DecryptionContext, error) {
	if passphrase == WrongPassphrase {
		return nil, ErrWrongPassphrase
	}
	return testDecryptor{}, nil
}

func (e *TestEncryptor) IsConfigured() bool { return true }

func (e *TestEncryptor) Suffix() string { return TestSuffix }

type testDecryptor struct{}

func (testDecryptor) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
