package vault

import (
	"context"
	"fmt"

	"qbfrt/internal/config"
	"qbfrt/internal/qbfrt"
)

// NewVaultFromConfig opens the backup vault selected by cfg.Type.
func NewVaultFromConfig(ctx context.Context, cfg config.VaultConfig) (qbfrt.Vault, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%s vault: name is not set", cfg.Type)
	}

	switch cfg.Type {
	case "memory":
		return NewMemoryVault(cfg.Name), nil
	case "filesystem":
		if cfg.FSVaultRoot == "" {
			return nil, fmt.Errorf("filesystem vault %q: fs_vault_root is not set", cfg.Name)
		}
		v, err := NewFileSystemVault(cfg.Name, cfg.FSVaultRoot)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "s3":
		v, err := NewS3Vault(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 vault %q: %w", cfg.Name, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown vault type %q (want memory, filesystem or s3)", cfg.Type)
	}
}
