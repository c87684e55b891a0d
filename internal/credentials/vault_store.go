package credentials

import (
	"fmt"

	"skilllink/internal/config"
	"skilllink/internal/errors"
)

// vaultSecretKey is the field inside each KVv2 secret that holds the
// service credential.
const vaultSecretKey = "apiKey"

// VaultStore reads service credentials from HashiCorp Vault.
// Secrets are read on every Get: the pipeline validates presence right
// before each stage and never caches credentials beyond the call, so
// rotated secrets apply to the next run without a restart.
type VaultStore struct {
	client *config.VaultClient
	paths  config.VaultSecrets
	logger *errors.Logger
}

// NewVaultStore creates a vault-backed credential store
func NewVaultStore(client *config.VaultClient, paths config.VaultSecrets, logger *errors.Logger) *VaultStore {
	return &VaultStore{
		client: client,
		paths:  paths,
		logger: logger,
	}
}

// Get implements Store
func (vs *VaultStore) Get(service string) (string, error) {
	path := vs.paths.PathFor(service)
	if path == "" {
		return "", notConfiguredError(service)
	}

	secret, err := vs.client.GetStringSecret(path, vaultSecretKey)
	if err != nil {
		return "", errors.NewConfigError(errors.ErrCodeCredentialMissing,
			fmt.Sprintf("Failed to read the %s service credential from Vault", service),
			err).WithContext("service", service).WithContext("path", path)
	}

	if IsPlaceholder(secret) {
		return "", notConfiguredError(service)
	}
	return secret, nil
}
