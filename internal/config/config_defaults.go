package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Services - global fallbacks
	v.SetDefault("services.timeout", 30*time.Second)
	v.SetDefault("services.maxRetries", 2)
	v.SetDefault("services.temperature", 0.3)

	// Parser service (document parsing API)
	v.SetDefault("services.parser.baseUrl", "https://api.affinda.com/v3")
	v.SetDefault("services.parser.timeout", 45*time.Second) // File uploads take longer
	v.SetDefault("services.parser.maxRetries", 0)           // Uploads are not retried automatically

	// Analysis service (AI assessment)
	v.SetDefault("services.analysis.provider", "openai")
	v.SetDefault("services.analysis.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("services.analysis.model", "gpt-4o")
	v.SetDefault("services.analysis.temperature", 0.3)
	v.SetDefault("services.analysis.maxOutputTokens", 2000)

	// Recommend service (job recommendations)
	v.SetDefault("services.recommend.baseUrl", "https://api.cohere.ai/v1")
	v.SetDefault("services.recommend.model", "command-r-plus")
	v.SetDefault("services.recommend.temperature", 0.3)
	v.SetDefault("services.recommend.maxOutputTokens", 1500)

	// Embed service (skill embeddings, shares the recommend vendor)
	v.SetDefault("services.embed.baseUrl", "https://api.cohere.ai/v1")
	v.SetDefault("services.embed.model", "embed-english-v3.0")
	v.SetDefault("services.embed.timeout", 15*time.Second)
	v.SetDefault("services.embed.maxRetries", 0)

	// Circuit breaker defaults, per service
	for _, svc := range []string{"parser", "analysis", "recommend", "embed"} {
		v.SetDefault("services."+svc+".circuitBreaker.enabled", true)
		v.SetDefault("services."+svc+".circuitBreaker.maxRequests", 3)
		v.SetDefault("services."+svc+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault("services."+svc+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault("services."+svc+".circuitBreaker.minRequests", 3)
		v.SetDefault("services."+svc+".circuitBreaker.failureThreshold", 0.6)
	}

	// Credentials
	v.SetDefault("credentials.source", "static")
	v.SetDefault("credentials.file", "")
	v.SetDefault("credentials.watch", true)
	v.SetDefault("credentials.parser", "")
	v.SetDefault("credentials.analysis", "")
	v.SetDefault("credentials.recommend", "")
	v.SetDefault("credentials.embed", "")

	// Pipeline
	v.SetDefault("pipeline.optionalRecommendations", false)
	v.SetDefault("pipeline.jobSearchBaseUrl", "https://www.linkedin.com/jobs/search")
	v.SetDefault("pipeline.openingEstimator", "deterministic")

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second) // Runs block on upstream AI calls
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024) // 10MB upload cap

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.parser", "")
	v.SetDefault("vault.secrets.analysis", "")
	v.SetDefault("vault.secrets.recommend", "")
	v.SetDefault("vault.secrets.embed", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "skilllink")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
}
