package config

import (
	"testing"
	"time"
)

func baseConfig() *Config {
	return &Config{
		Services: ServicesConfig{
			Timeout:     30 * time.Second,
			MaxRetries:  3,
			Temperature: 0.3,
			Parser: ServiceConfig{
				BaseURL: "https://parse.example.com/v3",
			},
			Analysis: ServiceConfig{
				BaseURL: "https://ai.example.com/v1",
				Model:   "gpt-4",
			},
			Recommend: ServiceConfig{
				BaseURL: "https://reco.example.com/v1",
				Model:   "command-r-plus",
			},
			Embed: ServiceConfig{
				BaseURL: "https://reco.example.com/v1",
				Model:   "embed-english-v3.0",
			},
		},
	}
}

func TestServiceConfigInheritsGlobalDefaults(t *testing.T) {
	cfg := baseConfig()

	parser := cfg.GetParserConfig()
	if parser.Timeout == nil || *parser.Timeout != 30*time.Second {
		t.Errorf("expected inherited timeout 30s, got %v", parser.Timeout)
	}
	if parser.MaxRetries == nil || *parser.MaxRetries != 3 {
		t.Errorf("expected inherited maxRetries 3, got %v", parser.MaxRetries)
	}
	if parser.Temperature == nil || *parser.Temperature != 0.3 {
		t.Errorf("expected inherited temperature 0.3, got %v", parser.Temperature)
	}
}

func TestServiceConfigOverridesStick(t *testing.T) {
	cfg := baseConfig()
	timeout := 90 * time.Second
	retries := 1
	cfg.Services.Analysis.Timeout = &timeout
	cfg.Services.Analysis.MaxRetries = &retries

	analysis := cfg.GetAnalysisConfig()
	if *analysis.Timeout != 90*time.Second {
		t.Errorf("expected override timeout 90s, got %v", *analysis.Timeout)
	}
	if *analysis.MaxRetries != 1 {
		t.Errorf("expected override maxRetries 1, got %d", *analysis.MaxRetries)
	}

	// Other services keep the global values
	recommend := cfg.GetRecommendConfig()
	if *recommend.Timeout != 30*time.Second {
		t.Errorf("expected global timeout 30s for recommend, got %v", *recommend.Timeout)
	}
}

func TestAnalysisProviderDefaultsToOpenAI(t *testing.T) {
	cfg := baseConfig()

	analysis := cfg.GetAnalysisConfig()
	if analysis.Provider != "openai" {
		t.Errorf("expected default provider openai, got %s", analysis.Provider)
	}

	cfg.Services.Analysis.Provider = "gemini"
	analysis = cfg.GetAnalysisConfig()
	if analysis.Provider != "gemini" {
		t.Errorf("expected configured provider gemini, got %s", analysis.Provider)
	}
}

func TestEmbedCredentialFallsBackToRecommend(t *testing.T) {
	cfg := baseConfig()
	cfg.Credentials.Recommend = "r-secret"
	cfg.Credentials.Embed = ""

	cfg.applyFallbacks()

	if cfg.Credentials.Embed != "r-secret" {
		t.Errorf("expected embed to inherit recommend secret, got %q", cfg.Credentials.Embed)
	}

	// An explicit embed secret is never overwritten
	cfg.Credentials.Embed = "e-secret"
	cfg.applyFallbacks()
	if cfg.Credentials.Embed != "e-secret" {
		t.Errorf("expected explicit embed secret to stick, got %q", cfg.Credentials.Embed)
	}
}

func TestGetEmbedConfigResolution(t *testing.T) {
	cfg := baseConfig()

	embed := cfg.GetEmbedConfig()
	if embed.BaseURL != "https://reco.example.com/v1" {
		t.Errorf("unexpected embed base URL %s", embed.BaseURL)
	}
	if embed.Timeout == nil {
		t.Fatal("expected resolved timeout on embed config")
	}
}
