package config

import (
	"fmt"
	"os"
	"strings"
)

// applyServiceDefaults applies global fallbacks to a service-specific
// configuration
func (c *Config) applyServiceDefaults(svcCfg *ServiceConfig) {
	if svcCfg.Timeout == nil {
		svcCfg.Timeout = &c.Services.Timeout
	}
	if svcCfg.MaxRetries == nil {
		svcCfg.MaxRetries = &c.Services.MaxRetries
	}
	if svcCfg.Temperature == nil {
		svcCfg.Temperature = &c.Services.Temperature
	}
}

// GetParserConfig returns the resolved configuration for the document
// parsing service
func (c *Config) GetParserConfig() ServiceConfig {
	config := c.Services.Parser
	c.applyServiceDefaults(&config)
	return config
}

// GetAnalysisConfig returns the resolved configuration for the analysis
// service
func (c *Config) GetAnalysisConfig() ServiceConfig {
	config := c.Services.Analysis
	c.applyServiceDefaults(&config)
	if config.Provider == "" {
		config.Provider = "openai"
	}
	return config
}

// GetRecommendConfig returns the resolved configuration for the
// recommendation service
func (c *Config) GetRecommendConfig() ServiceConfig {
	config := c.Services.Recommend
	c.applyServiceDefaults(&config)
	return config
}

// GetEmbedConfig returns the resolved configuration for the embeddings
// service
func (c *Config) GetEmbedConfig() ServiceConfig {
	config := c.Services.Embed
	c.applyServiceDefaults(&config)
	return config
}

// applyFallbacks applies environment variable fallbacks and derived values
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyObservabilityDefaults()

	// The embed service shares the recommend vendor; an unset embed
	// secret falls back to the recommend secret.
	if c.Credentials.Embed == "" {
		c.Credentials.Embed = c.Credentials.Recommend
	}
}

// applyServerAPIKeyFallbacks applies API key fallbacks from environment variables
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("SKILLLINK_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = strings.Split(apiKeysEnv, ",")
			for i, key := range c.Server.APIKeys {
				c.Server.APIKeys[i] = strings.TrimSpace(key)
			}
		}
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}
