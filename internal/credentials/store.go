// Package credentials provides the credential store consumed by the
// analysis pipeline. A store holds one secret per external service and
// signals absence explicitly: an unset value and a placeholder sentinel
// are both reported as "not configured" before any network call is
// attempted.
package credentials

import (
	"fmt"
	"strings"
	"sync"

	"skilllink/internal/config"
	"skilllink/internal/errors"
)

// Service names used as store keys
const (
	ServiceParser    = "parser"
	ServiceAnalysis  = "analysis"
	ServiceRecommend = "recommend"
	ServiceEmbed     = "embed"
)

// ErrNotConfigured is returned (wrapped in a config AppError) when a
// service has no usable credential.
var ErrNotConfigured = fmt.Errorf("credential not configured")

// Store provides read-only access to per-service secrets
type Store interface {
	// Get returns the secret for a service, or a configuration error
	// naming the service when it is absent or a placeholder.
	Get(service string) (string, error)
}

// placeholderFragments mark values that were never replaced with a real
// secret. The original project shipped compile-time constants of the
// form "your-<service>-api-key-here"; those must fail exactly like an
// absent value.
var placeholderFragments = []string{
	"your-",
	"-here",
	"changeme",
	"placeholder",
}

// IsPlaceholder reports whether a configured value is a placeholder
// sentinel rather than a real secret.
func IsPlaceholder(value string) bool {
	lowered := strings.ToLower(strings.TrimSpace(value))
	if lowered == "" {
		return true
	}
	for _, fragment := range placeholderFragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}

// notConfiguredError builds the canonical configuration error for a
// missing service credential.
func notConfiguredError(service string) error {
	return errors.NewConfigError(errors.ErrCodeCredentialMissing,
		fmt.Sprintf("No credential configured for the %s service", service),
		ErrNotConfigured).WithContext("service", service)
}

// StaticStore serves secrets from a fixed in-memory map
type StaticStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewStaticStore creates a store from explicit per-service secrets
func NewStaticStore(secrets map[string]string) *StaticStore {
	copied := make(map[string]string, len(secrets))
	for k, v := range secrets {
		copied[k] = v
	}
	return &StaticStore{secrets: copied}
}

// NewStaticStoreFromConfig creates a store from the credentials section
// of the application configuration.
func NewStaticStoreFromConfig(cfg config.CredentialsConfig) *StaticStore {
	return NewStaticStore(map[string]string{
		ServiceParser:    cfg.Parser,
		ServiceAnalysis:  cfg.Analysis,
		ServiceRecommend: cfg.Recommend,
		ServiceEmbed:     cfg.Embed,
	})
}

// Get implements Store
func (s *StaticStore) Get(service string) (string, error) {
	s.mu.RLock()
	secret, ok := s.secrets[service]
	s.mu.RUnlock()

	if !ok || IsPlaceholder(secret) {
		return "", notConfiguredError(service)
	}
	return secret, nil
}

// replace swaps the full secret map. Used by the file store's reload
// path; not exported.
func (s *StaticStore) replace(secrets map[string]string) {
	copied := make(map[string]string, len(secrets))
	for k, v := range secrets {
		copied[k] = v
	}
	s.mu.Lock()
	s.secrets = copied
	s.mu.Unlock()
}

// NewStore builds the credential store selected by configuration.
// The returned closer stops any background watcher; it is a no-op for
// static and vault stores.
func NewStore(cfg *config.Config, vault *config.VaultClient, logger *errors.Logger) (Store, func(), error) {
	switch cfg.Credentials.Source {
	case "static":
		return NewStaticStoreFromConfig(cfg.Credentials), func() {}, nil
	case "file":
		fs, err := NewFileStore(cfg.Credentials.File, cfg.Credentials.Watch, logger)
		if err != nil {
			return nil, nil, err
		}
		return fs, fs.Close, nil
	case "vault":
		if vault == nil {
			return nil, nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"Vault credential source selected but vault client is not available", nil)
		}
		return NewVaultStore(vault, cfg.Vault.Secrets, logger), func() {}, nil
	default:
		return nil, nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported credentials source: %s", cfg.Credentials.Source), nil)
	}
}
