package agent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/toolsdir/api/internal/models"
	"github.com/toolsdir/api/internal/provider/anthropic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Generator is the provider adapter as seen by the orchestrator.
type Generator interface {
	Configured() bool
	Generate(ctx context.Context, p anthropic.Prompt) (*anthropic.Completion, error)
}

// UsageRecorder stores one ledger row per generation. It must not block the
// caller on failure.
type UsageRecorder interface {
	Record(ctx context.Context, log models.GenerationLog)
}

// Options are the optional collaborators of an Orchestrator.
type Options struct {
	Breaker *CircuitBreaker
	Limiter *SpendLimiter
	Usage   UsageRecorder
	// Timeout bounds each provider call. Zero means no extra bound.
	Timeout time.Duration
}

// Orchestrator validates input and produces a Result through one of three
// paths: fallback (no credential or over the spend limit), provider, or
// fallback after a provider failure.
type Orchestrator struct {
	registry *Registry
	provider Generator
	opts     Options
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewOrchestrator creates an orchestrator. provider may be nil.
func NewOrchestrator(registry *Registry, provider Generator, logger *zap.Logger, opts Options) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		provider: provider,
		opts:     opts,
		logger:   logger,
		tracer:   otel.Tracer("github.com/toolsdir/api/internal/agent"),
	}
}

// Registry returns the agent registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Run validates payload for the named agent and generates a result. The only
// errors are ErrUnknownAgent and *ValidationError; provider failures degrade
// to fallback content.
func (o *Orchestrator) Run(ctx context.Context, name string, payload any, rc RequestContext) (*Result, error) {
	def, ok := o.registry.Get(name)
	if !ok {
		return nil, unknownAgent(name)
	}
	v := Validate(def, payload)
	if !v.OK {
		return nil, &ValidationError{Field: v.Field, Message: v.Error}
	}
	if rc.RequestID == "" {
		rc.RequestID = uuid.NewString()
	}
	return o.generate(ctx, def, v.Value.Fields, rc), nil
}

func (o *Orchestrator) generate(ctx context.Context, def *Definition, fields Fields, rc RequestContext) *Result {
	ctx, span := o.tracer.Start(ctx, "agent.generate", trace.WithAttributes(
		attribute.String("agent.name", def.Name),
		attribute.String("request.id", rc.RequestID),
	))
	defer span.End()

	start := time.Now()
	result := o.choosePath(ctx, def, fields, rc)
	latency := time.Since(start)

	span.SetAttributes(
		attribute.String("agent.provider", string(result.Meta.Provider)),
		attribute.Bool("agent.fallback", result.Meta.IsFallback),
	)
	generationsTotal.WithLabelValues(def.Name, string(result.Meta.Provider)).Inc()
	generationDuration.WithLabelValues(def.Name, string(result.Meta.Provider)).Observe(latency.Seconds())

	if o.opts.Usage != nil {
		entry := models.GenerationLog{
			RequestID: rc.RequestID,
			Agent:     def.Name,
			Provider:  string(result.Meta.Provider),
			Model:     result.Meta.Model,
			LatencyMS: latency.Milliseconds(),
		}
		if u := result.Meta.Usage; u != nil {
			entry.InputTokens, entry.OutputTokens = u.InputTokens, u.OutputTokens
		}
		o.opts.Usage.Record(ctx, entry)
	}

	o.logger.Info("agent generation",
		zap.String("agent", def.Name),
		zap.String("request_id", rc.RequestID),
		zap.String("provider", string(result.Meta.Provider)),
		zap.Bool("is_fallback", result.Meta.IsFallback),
		zap.Duration("latency", latency),
		zap.String("client_ip", rc.ClientIP),
		zap.String("user_agent", rc.UserAgent),
		zap.String("user_id", rc.UserID),
	)
	return result
}

func (o *Orchestrator) choosePath(ctx context.Context, def *Definition, fields Fields, rc RequestContext) *Result {
	if o.provider == nil || !o.provider.Configured() {
		return fallbackResult(def, fields, rc, ProviderFallback)
	}

	if o.opts.Limiter != nil && !rc.Trusted && !o.opts.Limiter.Allow(rc.clientKey()) {
		o.logger.Info("spend limit reached, serving fallback",
			zap.String("agent", def.Name),
			zap.String("request_id", rc.RequestID),
		)
		return fallbackResult(def, fields, rc, ProviderFallback)
	}

	if o.opts.Breaker != nil && !o.opts.Breaker.Allow() {
		o.logFailure(ctx, def, rc, ErrCircuitOpen)
		return fallbackResult(def, fields, rc, ProviderFallbackAfterError)
	}

	callCtx := ctx
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	completion, err := o.provider.Generate(callCtx, def.prompt(fields))
	if err != nil {
		// A caller that went away says nothing about provider health.
		if o.opts.Breaker != nil && ctx.Err() == nil {
			o.opts.Breaker.RecordFailure()
		}
		o.logFailure(ctx, def, rc, err)
		return fallbackResult(def, fields, rc, ProviderFallbackAfterError)
	}
	if o.opts.Breaker != nil {
		o.opts.Breaker.RecordSuccess()
	}

	output := make(Fields, len(def.Outputs))
	for _, f := range def.Outputs {
		output[f] = completion.Output[f]
	}
	return &Result{
		Output: output,
		Meta: Meta{
			RequestID:  rc.RequestID,
			IsFallback: false,
			Provider:   ProviderAnthropic,
			Model:      completion.Model,
			Usage: &Usage{
				InputTokens:  completion.Usage.InputTokens,
				OutputTokens: completion.Usage.OutputTokens,
			},
		},
	}
}

func (o *Orchestrator) logFailure(ctx context.Context, def *Definition, rc RequestContext, err error) {
	fields := []zap.Field{
		zap.String("agent", def.Name),
		zap.String("request_id", rc.RequestID),
		zap.Error(err),
	}
	code := "unknown"
	var perr *anthropic.Error
	switch {
	case errors.As(err, &perr):
		code = perr.Code
		fields = append(fields,
			zap.String("error_name", "anthropic.Error"),
			zap.String("message", perr.Message),
			zap.Int("status", perr.Status),
			zap.String("code", perr.Code),
		)
	case errors.Is(err, ErrCircuitOpen):
		code = "circuit_open"
		fields = append(fields, zap.String("error_name", "ErrCircuitOpen"), zap.String("code", code))
	}
	providerFailuresTotal.WithLabelValues(def.Name, code).Inc()
	trace.SpanFromContext(ctx).SetStatus(codes.Error, code)
	o.logger.Warn("provider call failed, serving fallback", fields...)
}

func fallbackResult(def *Definition, fields Fields, rc RequestContext, provider Provider) *Result {
	return &Result{
		Output: synthesize(def, fields),
		Meta: Meta{
			RequestID:  rc.RequestID,
			IsFallback: true,
			Provider:   provider,
		},
	}
}
