// Package pipeline orchestrates the four-stage resume analysis run:
// document parsing, AI assessment, job recommendations and skill
// enhancement. Stages are strictly sequential; each consumes the
// previous stage's output and a failure stops everything after it.
package pipeline

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"skilllink/internal/analysis"
	"skilllink/internal/credentials"
	skilllinkErrors "skilllink/internal/errors"
	"skilllink/internal/observability"
	"skilllink/internal/parser"
	"skilllink/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// DocumentParser is the parsing stage dependency
type DocumentParser interface {
	Parse(ctx context.Context, doc parser.Document, secret string) (types.ResumeRecord, error)
}

// Assessor is the AI assessment stage dependency
type Assessor interface {
	Assess(ctx context.Context, record types.ResumeRecord, secret string) (types.AssessmentResult, *analysis.Usage, error)
}

// Recommender is the job recommendation stage dependency
type Recommender interface {
	Recommend(ctx context.Context, record types.ResumeRecord, secret string) ([]types.Opportunity, error)
}

// Enhancer is the skill enhancement stage dependency. It never fails;
// on any trouble it returns the best normalization it can.
type Enhancer interface {
	Enhance(ctx context.Context, skills []string, secret string) []string
}

// Options tunes the runner's behavior
type Options struct {
	// OptionalRecommendations downgrades a recommendation-stage
	// failure to an empty opportunity list instead of aborting
	OptionalRecommendations bool
}

// Runner executes pipeline runs. A runner processes one document at a
// time; a second Run while one is in flight fails fast.
type Runner struct {
	parser      DocumentParser
	assessor    Assessor
	recommender Recommender
	enhancer    Enhancer
	store       credentials.Store
	options     Options
	metrics     *observability.Metrics
	logger      *skilllinkErrors.Logger

	running atomic.Bool

	mu       sync.RWMutex
	state    State
	observer func(State)
}

// NewRunner wires the four stage clients into a runner
func NewRunner(
	documentParser DocumentParser,
	assessor Assessor,
	recommender Recommender,
	enhancer Enhancer,
	store credentials.Store,
	options Options,
	metrics *observability.Metrics,
	logger *skilllinkErrors.Logger,
) *Runner {
	return &Runner{
		parser:      documentParser,
		assessor:    assessor,
		recommender: recommender,
		enhancer:    enhancer,
		store:       store,
		options:     options,
		metrics:     metrics,
		logger:      logger,
		state:       State{Status: StatusIdle},
	}
}

// OnTransition registers a callback invoked on every state change.
// The callback runs on the pipeline goroutine and must not block.
func (r *Runner) OnTransition(fn func(State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = fn
}

// State returns the current pipeline state
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Runner) transition(status Status) {
	state := State{Status: status}
	if stage, ok := stageOf[status]; ok {
		state.Progress = stage.Progress()
	}
	r.setState(state)
}

func (r *Runner) setState(state State) {
	r.mu.Lock()
	r.state = state
	observer := r.observer
	r.mu.Unlock()

	if observer != nil {
		observer(state)
	}
}

// Run processes one document through all four stages and returns the
// complete report. On failure the pipeline state records which stage
// failed and why; the document itself is never retried internally.
func (r *Runner) Run(ctx context.Context, doc parser.Document) (*types.AnalysisReport, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, skilllinkErrors.NewValidationError(skilllinkErrors.ErrCodePipelineBusy,
			"A pipeline run is already in progress", nil)
	}
	defer r.running.Store(false)

	tracer := otel.Tracer("skilllink.pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.name", doc.FileName),
		attribute.Int("document.bytes", len(doc.Content)),
	)

	report := &types.AnalysisReport{FileName: doc.FileName}

	// Stage 1: parse the document
	record, err := r.runParse(ctx, doc)
	if err != nil {
		return nil, r.fail(ctx, span, StageParse, err)
	}
	report.Resume = record
	r.transition(StatusParsed)

	// Stage 2: AI assessment
	assessment, err := r.runAssess(ctx, record)
	if err != nil {
		return nil, r.fail(ctx, span, StageAnalyze, err)
	}
	report.Assessment = assessment
	r.transition(StatusAnalyzed)

	// Stage 3: job recommendations
	opportunities, err := r.runRecommend(ctx, record)
	if err != nil {
		if !r.options.OptionalRecommendations || isCancellation(err) {
			return nil, r.fail(ctx, span, StageRecommend, err)
		}
		if r.logger != nil {
			r.logger.Warn("Recommendation stage failed, continuing without opportunities",
				"error", err.Error())
		}
		opportunities = []types.Opportunity{}
	}
	report.Opportunities = opportunities
	r.transition(StatusRecommended)

	// Stage 4: skill enhancement, never fatal
	enhanced, err := r.runEnhance(ctx, record.Skills)
	if err != nil {
		return nil, r.fail(ctx, span, StageEnhance, err)
	}
	report.Resume.Skills = enhanced

	r.transition(StatusComplete)
	r.metrics.RecordRun(ctx, true)
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("report.opportunities", len(report.Opportunities)),
		attribute.Int("assessment.overall_score", report.Assessment.OverallScore),
	)
	return report, nil
}

func (r *Runner) runParse(ctx context.Context, doc parser.Document) (types.ResumeRecord, error) {
	r.transition(StatusParsing)
	start := time.Now()

	secret, err := r.stageSecret(ctx, credentials.ServiceParser)
	if err != nil {
		r.metrics.RecordStage(ctx, string(StageParse), time.Since(start), false)
		return types.ResumeRecord{}, err
	}

	record, err := r.parser.Parse(ctx, doc, secret)
	r.metrics.RecordStage(ctx, string(StageParse), time.Since(start), err == nil)
	return record, err
}

func (r *Runner) runAssess(ctx context.Context, record types.ResumeRecord) (types.AssessmentResult, error) {
	r.transition(StatusAiAnalyzing)
	start := time.Now()

	secret, err := r.stageSecret(ctx, credentials.ServiceAnalysis)
	if err != nil {
		r.metrics.RecordStage(ctx, string(StageAnalyze), time.Since(start), false)
		return types.AssessmentResult{}, err
	}

	assessment, usage, err := r.assessor.Assess(ctx, record, secret)
	r.metrics.RecordStage(ctx, string(StageAnalyze), time.Since(start), err == nil)
	if usage != nil {
		r.metrics.RecordTokens(ctx, usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
		if r.logger != nil {
			r.logger.Info("Assessment token usage",
				"input_tokens", usage.InputTokens,
				"output_tokens", usage.OutputTokens,
				"total_tokens", usage.TotalTokens)
		}
	}
	return assessment, err
}

func (r *Runner) runRecommend(ctx context.Context, record types.ResumeRecord) ([]types.Opportunity, error) {
	r.transition(StatusRecommendationGenerating)
	start := time.Now()

	secret, err := r.stageSecret(ctx, credentials.ServiceRecommend)
	if err != nil {
		r.metrics.RecordStage(ctx, string(StageRecommend), time.Since(start), false)
		return nil, err
	}

	opportunities, err := r.recommender.Recommend(ctx, record, secret)
	r.metrics.RecordStage(ctx, string(StageRecommend), time.Since(start), err == nil)
	return opportunities, err
}

// runEnhance runs the best-effort enhancement stage. A missing embed
// credential is not an error here: the enhancer falls back to its
// canonical rewrites when handed an empty secret. Only cancellation can
// fail this stage.
func (r *Runner) runEnhance(ctx context.Context, skills []string) ([]string, error) {
	r.transition(StatusSkillEnhancing)
	start := time.Now()

	if err := ctx.Err(); err != nil {
		r.metrics.RecordStage(ctx, string(StageEnhance), time.Since(start), false)
		return nil, cancellationError(err)
	}

	secret, err := r.store.Get(credentials.ServiceEmbed)
	if err != nil {
		secret = ""
	}

	enhanced := r.enhancer.Enhance(ctx, skills, secret)
	r.metrics.RecordStage(ctx, string(StageEnhance), time.Since(start), true)
	return enhanced, nil
}

// stageSecret checks for cancellation and fetches the stage credential
// before any network traffic happens for the stage.
func (r *Runner) stageSecret(ctx context.Context, service string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", cancellationError(err)
	}
	return r.store.Get(service)
}

func (r *Runner) fail(ctx context.Context, span oteltrace.Span, stage Stage, err error) error {
	span.RecordError(err)
	span.SetAttributes(
		attribute.Bool("success", false),
		attribute.String("failed_stage", string(stage)),
	)
	r.setState(State{
		Status: StatusFailed,
		Stage:  stage,
		Reason: err.Error(),
	})
	r.metrics.RecordRun(ctx, false)
	if r.logger != nil {
		r.logger.LogError(err, "Pipeline run failed", "stage", string(stage))
	}
	return err
}

func cancellationError(cause error) error {
	return skilllinkErrors.NewInternalError(skilllinkErrors.ErrCodePipelineCancelled,
		"Pipeline run cancelled", cause)
}

func isCancellation(err error) bool {
	var appErr *skilllinkErrors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == skilllinkErrors.ErrCodePipelineCancelled
	}
	return false
}
