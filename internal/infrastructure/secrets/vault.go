// Package secrets fetches the signing secret from HashiCorp Vault when it
// is not supplied inline. Absence of a secret stays fatal at token
// creation/verification time; this source only fills the configuration
// before components are constructed.
package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/pkg/logger"
)

// DefaultSecretPath is the KV-v2 path holding the auth-core secrets.
const DefaultSecretPath = "redline-auth"

// VaultSource reads secrets from a KV-v2 mount.
type VaultSource struct {
	client *vault.Client
	cfg    config.VaultConfig
	log    logger.Logger
}

// NewVaultSource connects to the configured Vault address.
func NewVaultSource(cfg config.VaultConfig, log logger.Logger) (*VaultSource, error) {
	vc := vault.DefaultConfig()
	vc.Address = cfg.Address

	client, err := vault.NewClient(vc)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &VaultSource{client: client, cfg: cfg, log: log.WithComponent("vault_source")}, nil
}

// SigningSecret reads the signing secret from the configured mount and key.
func (s *VaultSource) SigningSecret(ctx context.Context) (string, error) {
	secret, err := s.client.KVv2(s.cfg.MountPath).Get(ctx, DefaultSecretPath)
	if err != nil {
		return "", fmt.Errorf("read %s/%s from vault: %w", s.cfg.MountPath, DefaultSecretPath, err)
	}

	value, ok := secret.Data[s.cfg.SecretKey].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("vault secret %s/%s has no %q key",
			s.cfg.MountPath, DefaultSecretPath, s.cfg.SecretKey)
	}

	s.log.Info(ctx, "signing secret loaded from vault")
	return value, nil
}
