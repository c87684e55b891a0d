package cli

import (
	"fmt"

	"skilllink/internal/common"
	"skilllink/internal/pipeline"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Run the full analysis pipeline on a resume PDF",
	Long: `Analyze a resume through the four-stage pipeline:

1. Parse the document through the resume parsing service
2. Score the parsed resume with an AI assessment
3. Generate per-skill job recommendations with search links
4. Normalize the skill list (optionally refined via embeddings)

The stages run strictly in order; each failure stops the run and names
the stage that failed. Progress is logged per stage.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	services, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	fileProcessor := common.NewFileProcessor(cfg.App.MaxFileSize, logger)
	doc, err := fileProcessor.ReadDocument(args[0])
	if err != nil {
		return err
	}

	logger.Info("Starting resume analysis",
		"file", doc.FileName,
		"size_bytes", len(doc.Content),
		"output_format", analyzeConfig.OutputFormat)

	services.runner.OnTransition(func(state pipeline.State) {
		if state.Progress != "" {
			logger.Info(state.Progress, "status", string(state.Status))
		}
	})

	report, err := services.runner.Run(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(report, analyzeConfig); err != nil {
		return err
	}

	logger.Info("Resume analysis completed successfully",
		"overall_score", report.Assessment.OverallScore,
		"opportunities", len(report.Opportunities))
	return nil
}
