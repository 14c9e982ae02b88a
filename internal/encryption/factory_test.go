package encryption

import (
	"testing"

	"qbfrt/internal/config"
)

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.EncryptionConfig
		wantSuffix string
		wantErr    bool
	}{
		{name: "default is none", cfg: config.EncryptionConfig{}, wantSuffix: ""},
		{name: "none", cfg: config.EncryptionConfig{Type: "none"}, wantSuffix: ""},
		{
			name:       "age",
			cfg:        config.EncryptionConfig{Type: "age", PublicKeyPath: "/k/pub", PrivateKeyPath: "/k/key"},
			wantSuffix: ".age",
		},
		{name: "age without paths", cfg: config.EncryptionConfig{Type: "age"}, wantErr: true},
		{name: "test", cfg: config.EncryptionConfig{Type: "test"}, wantSuffix: ".test"},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Suffix() != tt.wantSuffix {
				t.Errorf("Suffix() = %q, want %q", got.Suffix(), tt.wantSuffix)
			}
		})
	}
}
