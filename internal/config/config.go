package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Credential precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Credentials file values
// 3. Config file / environment variables (SKILLLINK_CREDENTIALS_PARSER, etc.)
type Config struct {
	Services      ServicesConfig      `mapstructure:"services"`
	Credentials   CredentialsConfig   `mapstructure:"credentials"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServicesConfig holds per-service client configuration with global
// fallbacks, mirroring how the external pipeline stages are wired:
// parser (document parsing), analysis (AI assessment), recommend
// (job recommendations) and embed (skill embeddings).
type ServicesConfig struct {
	// Global fallbacks for all services
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"maxRetries"`
	Temperature float32       `mapstructure:"temperature"`

	Parser    ServiceConfig `mapstructure:"parser"`
	Analysis  ServiceConfig `mapstructure:"analysis"`
	Recommend ServiceConfig `mapstructure:"recommend"`
	Embed     ServiceConfig `mapstructure:"embed"`
}

// ServiceConfig holds the client configuration for one external service
type ServiceConfig struct {
	BaseURL         string               `mapstructure:"baseUrl"`
	Provider        string               `mapstructure:"provider"` // analysis only: "openai" or "gemini"
	Model           string               `mapstructure:"model"`
	Timeout         *time.Duration       `mapstructure:"timeout"`
	MaxRetries      *int                 `mapstructure:"maxRetries"`
	Temperature     *float32             `mapstructure:"temperature"`
	MaxOutputTokens int                  `mapstructure:"maxOutputTokens"`
	CircuitBreaker  CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// CredentialsConfig holds credential store configuration.
// Source selects the backing store: "static" (values below / env),
// "file" (watched key-value file) or "vault".
type CredentialsConfig struct {
	Source string `mapstructure:"source"`
	File   string `mapstructure:"file"`
	Watch  bool   `mapstructure:"watch"`

	// Static secrets, one per external service
	Parser    string `mapstructure:"parser"`
	Analysis  string `mapstructure:"analysis"`
	Recommend string `mapstructure:"recommend"`
	Embed     string `mapstructure:"embed"`
}

// PipelineConfig holds orchestrator behavior settings
type PipelineConfig struct {
	// OptionalRecommendations downgrades a recommendation-stage failure
	// to an empty list instead of aborting the run
	OptionalRecommendations bool `mapstructure:"optionalRecommendations"`

	// JobSearchBaseURL is the fixed endpoint used when rebuilding
	// opportunity search links
	JobSearchBaseURL string `mapstructure:"jobSearchBaseUrl"`

	// OpeningEstimator selects the opening-count stub: "deterministic"
	// or "random"
	OpeningEstimator string `mapstructure:"openingEstimator"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS configuration for serve mode
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
	Console         ConsoleConfig    `mapstructure:"console"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// PrometheusConfig holds Prometheus exporter configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// ConsoleConfig holds console exporter configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SKILLLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/skilllink/")
	v.AddConfigPath("$HOME/.skilllink")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileUsed = v.ConfigFileUsed()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	switch c.Credentials.Source {
	case "static", "file", "vault":
	default:
		return fmt.Errorf("unsupported credentials source: %s", c.Credentials.Source)
	}

	if c.Credentials.Source == "file" && c.Credentials.File == "" {
		return fmt.Errorf("credentials.file is required when credentials.source is 'file'")
	}

	if c.Credentials.Source == "vault" && !c.Vault.Enabled {
		return fmt.Errorf("vault must be enabled when credentials.source is 'vault'")
	}

	switch c.Services.Analysis.Provider {
	case "", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported analysis provider: %s", c.Services.Analysis.Provider)
	}

	switch c.Pipeline.OpeningEstimator {
	case "", "deterministic", "random":
	default:
		return fmt.Errorf("unsupported opening estimator: %s", c.Pipeline.OpeningEstimator)
	}

	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls.certFile and server.tls.keyFile are required when TLS is enabled")
	}

	return nil
}

// logConfigurationSources logs a summary of configuration sources with
// secrets masked
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	log.Printf("[CONFIG] Credentials source: %s", c.Credentials.Source)
	for _, svc := range []struct {
		name   string
		secret string
	}{
		{"parser", c.Credentials.Parser},
		{"analysis", c.Credentials.Analysis},
		{"recommend", c.Credentials.Recommend},
		{"embed", c.Credentials.Embed},
	} {
		if svc.secret != "" {
			log.Printf("[CONFIG] Credential %s: ***CONFIGURED***", svc.name)
		} else {
			log.Printf("[CONFIG] Credential %s: ***NOT SET***", svc.name)
		}
	}

	log.Printf("[CONFIG] Analysis provider: %s, model: %s", c.Services.Analysis.Provider, c.Services.Analysis.Model)
	log.Printf("[CONFIG] Parser endpoint: %s", c.Services.Parser.BaseURL)
	log.Printf("[CONFIG] Recommend endpoint: %s", c.Services.Recommend.BaseURL)
	log.Printf("[CONFIG] Log level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability enabled: %t", c.Observability.Enabled)
}
