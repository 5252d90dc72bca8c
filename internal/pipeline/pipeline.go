// Package pipeline drives one generation job from intake to terminal state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avoigt/refgen/internal/document"
	"github.com/avoigt/refgen/internal/jobs"
	"github.com/avoigt/refgen/internal/llm"
	"github.com/avoigt/refgen/internal/markdown"
	"github.com/avoigt/refgen/internal/metrics"
	"github.com/avoigt/refgen/internal/models"
)

// TextGenerator produces the document body from a prompt pair.
type TextGenerator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// DocumentRenderer turns a complete HTML page into PDF bytes.
type DocumentRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Progress checkpoints for the fixed stage sequence. Values only move
// forward; the registry enforces monotonicity as a second line.
const (
	progressPrompt     = 5
	progressGenerating = 15
	progressGenerated  = 55
	progressConverting = 65
	progressAssembling = 75
	progressRendering  = 85
	progressFinalizing = 95
	progressDone       = 100
)

// Pipeline runs generation jobs against a shared registry. One Launch
// call spawns one goroutine; the pipeline is the sole writer for its job.
type Pipeline struct {
	registry  *jobs.Registry
	generator TextGenerator
	renderer  DocumentRenderer
	metrics   *metrics.Collector
	logger    *slog.Logger

	baseCtx         context.Context
	generateTimeout time.Duration
}

// Options configures a Pipeline.
type Options struct {
	Registry  *jobs.Registry
	Generator TextGenerator
	Renderer  DocumentRenderer
	Metrics   *metrics.Collector
	Logger    *slog.Logger

	// BaseCtx parents every job context so shutdown can reach in-flight
	// jobs. Defaults to context.Background().
	BaseCtx context.Context
	// GenerateTimeout bounds the LLM call. Zero means 5m.
	GenerateTimeout time.Duration
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.BaseCtx == nil {
		opts.BaseCtx = context.Background()
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}
	return &Pipeline{
		registry:        opts.Registry,
		generator:       opts.Generator,
		renderer:        opts.Renderer,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		baseCtx:         opts.BaseCtx,
		generateTimeout: opts.GenerateTimeout,
	}
}

// Launch starts the job's pipeline in the background and returns
// immediately. Each job gets its own cancellable context even though
// nothing cancels individual jobs today.
func (p *Pipeline) Launch(jobID string, req models.ProjectRequest) {
	ctx, cancel := context.WithCancel(p.baseCtx)

	p.metrics.JobStarted()

	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("pipeline panicked", "job_id", jobID, "panic", r)
				p.fail(jobID, "generation failed unexpectedly", fmt.Errorf("internal panic: %v", r))
			}
		}()

		p.run(ctx, jobID, req)
	}()
}

// run executes the fixed stage sequence. Any stage error terminates the
// job; nothing after the failure point executes.
func (p *Pipeline) run(ctx context.Context, jobID string, req models.ProjectRequest) {
	jobStart := time.Now()

	p.advance(jobID, progressPrompt, "building prompt")
	system, user := llm.BuildProjectPrompt(req)

	p.advance(jobID, progressGenerating, "generating content")
	genCtx, cancel := context.WithTimeout(ctx, p.generateTimeout)
	genStart := time.Now()
	body, err := p.generator.GenerateWithSystem(genCtx, system, user)
	cancel()
	p.metrics.RecordTiming(metrics.OpLLMGenerate, time.Since(genStart))
	if err != nil {
		p.fail(jobID, "content generation failed", err)
		return
	}
	if strings.TrimSpace(body) == "" {
		p.fail(jobID, "content generation failed", fmt.Errorf("empty response from generator"))
		return
	}
	p.advance(jobID, progressGenerated, "content received")

	p.advance(jobID, progressConverting, "converting markdown")
	convStart := time.Now()
	source := markdown.Normalize(body)
	fragment, err := markdown.ToHTML(source)
	p.metrics.RecordTiming(metrics.OpMarkdownConvert, time.Since(convStart))
	if err != nil {
		p.fail(jobID, "content conversion failed", err)
		return
	}

	p.advance(jobID, progressAssembling, "assembling document")
	title := markdown.ExtractTitle(source, req.Topic)
	page, err := document.Assemble(req, title, fragment)
	if err != nil {
		p.fail(jobID, "document assembly failed", err)
		return
	}

	p.advance(jobID, progressRendering, "rendering pdf")
	renderStart := time.Now()
	artifact, err := p.renderer.Render(ctx, page)
	p.metrics.RecordTiming(metrics.OpPDFRender, time.Since(renderStart))
	if err != nil {
		p.fail(jobID, "pdf rendering failed", err)
		return
	}

	p.advance(jobID, progressFinalizing, "finalizing")

	completed := jobs.StatusCompleted
	progress := progressDone
	message := "document ready"
	p.registry.Update(jobID, jobs.Update{
		Status:   &completed,
		Progress: &progress,
		Message:  &message,
		Result:   artifact,
	})

	p.metrics.RecordTiming(metrics.OpJobTotal, time.Since(jobStart))
	p.metrics.JobCompleted()
	p.logger.Info("job completed", "job_id", jobID,
		"pdf_bytes", len(artifact), "duration_ms", time.Since(jobStart).Milliseconds())
}

// advance moves the job to the next stage checkpoint.
func (p *Pipeline) advance(jobID string, progress int, message string) {
	p.registry.Update(jobID, jobs.Update{
		Progress: &progress,
		Message:  &message,
	})
	p.logger.Debug("stage", "job_id", jobID, "progress", progress, "message", message)
}

// fail records the terminal error state for the job.
func (p *Pipeline) fail(jobID, message string, err error) {
	status := jobs.StatusError
	errText := err.Error()
	p.registry.Update(jobID, jobs.Update{
		Status:  &status,
		Message: &message,
		Error:   &errText,
	})
	p.metrics.JobFailed()
	p.logger.Error("job failed", "job_id", jobID, "stage", message, "error", err)
}
