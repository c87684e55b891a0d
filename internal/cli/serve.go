package cli

import (
	"skilllink/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume analysis",
	Long: `Start an HTTP server that exposes the analysis pipeline.

Available endpoints:
- POST /v1/analyze: Upload a resume (multipart 'file' field) and run the pipeline
- GET /health: Credential and circuit breaker status
- GET /stats: Server statistics and rate limiting info

The pipeline processes one document at a time; a concurrent upload is
rejected with 409. API key authentication and per-client rate limiting
activate through the server.* configuration.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	services, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	srv := server.NewServer(
		cfg.Server,
		cfg.App.MaxFileSize,
		Version,
		server.Dependencies{
			Runner:      services.runner,
			Assessor:    services.assessor,
			Recommender: services.recommender,
			Store:       services.store,
		},
		services.obs,
		logger,
	)

	return srv.Start(cmd.Context())
}
