package encryption

import (
	"errors"
	"io"

	"qbfrt/internal/qbfrt"
)

// NoneEncryptor stores backups in plaintext. Its empty Suffix tells the
// service to skip encryption altogether.
type NoneEncryptor struct{}

var _ qbfrt.Encryptor = NoneEncryptor{}

func (NoneEncryptor) Setup(string) error {
	return errors.New(`encryption type is "none"; set [encryption] type = "age" first`)
}

func (NoneEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	_, err := io.Copy(w, r)
	return err
}

func (NoneEncryptor) Unlock(string) (qbfrt.DecryptionContext, error) {
	return passthrough{}, nil
}

func (NoneEncryptor) IsConfigured() bool { return true }

func (NoneEncryptor) Suffix() string { return "" }

type passthrough struct{}

func (passthrough) Decrypt(r io.Reader, w io.Writer) error {
	_, err := io.Copy(w, r)
	return err
}
