package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolsdir/api/internal/models"
	"github.com/toolsdir/api/internal/provider/anthropic"
	"go.uber.org/zap/zaptest"
)

type fakeProvider struct {
	mu         sync.Mutex
	configured bool
	calls      int
	prompts    []anthropic.Prompt
	generate   func(ctx context.Context, p anthropic.Prompt) (*anthropic.Completion, error)
}

func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Generate(ctx context.Context, p anthropic.Prompt) (*anthropic.Completion, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, p)
	f.mu.Unlock()
	return f.generate(ctx, p)
}

func succeeding(ctx context.Context, p anthropic.Prompt) (*anthropic.Completion, error) {
	out := make(map[string]string, len(p.Fields))
	for _, f := range p.Fields {
		out[f] = "ai " + f
	}
	return &anthropic.Completion{
		Output: out,
		Model:  "claude-test",
		Usage:  anthropic.Usage{InputTokens: 120, OutputTokens: 80},
	}, nil
}

func failing(ctx context.Context, p anthropic.Prompt) (*anthropic.Completion, error) {
	return nil, &anthropic.Error{Message: "request failed", Code: anthropic.CodeNetwork, Err: errors.New("dial tcp: connection refused")}
}

type recordedUsage struct {
	mu   sync.Mutex
	logs []models.GenerationLog
}

func (r *recordedUsage) Record(_ context.Context, log models.GenerationLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
}

func newTestOrchestrator(t *testing.T, p Generator, opts Options) *Orchestrator {
	t.Helper()
	registry, err := DefaultRegistry()
	require.NoError(t, err)
	return NewOrchestrator(registry, p, zaptest.NewLogger(t), opts)
}

func coldEmailPayload() map[string]any {
	return map[string]any{"recipientRole": "VP Marketing", "product": "AdGen", "goal": "launch campaigns faster"}
}

func assertComplete(t *testing.T, def *Definition, out Fields) {
	t.Helper()
	for _, f := range def.Outputs {
		assert.NotEmpty(t, out[f], "output %s", f)
	}
}

func TestRunWithoutCredentialUsesFallback(t *testing.T) {
	for _, p := range []Generator{nil, &fakeProvider{configured: false, generate: succeeding}} {
		o := newTestOrchestrator(t, p, Options{})
		res, err := o.Run(context.Background(), ColdEmail, coldEmailPayload(), RequestContext{RequestID: "req-1"})
		require.NoError(t, err)

		assert.Equal(t, ProviderFallback, res.Meta.Provider)
		assert.True(t, res.Meta.IsFallback)
		assert.Equal(t, "req-1", res.Meta.RequestID)
		assert.Empty(t, res.Meta.Model)
		assert.Nil(t, res.Meta.Usage)
		assertComplete(t, mustDefinition(t, ColdEmail), res.Output)
	}
}

func TestRunProviderSuccess(t *testing.T) {
	p := &fakeProvider{configured: true, generate: succeeding}
	usage := &recordedUsage{}
	o := newTestOrchestrator(t, p, Options{Usage: usage})

	res, err := o.Run(context.Background(), ColdEmail, coldEmailPayload(), RequestContext{})
	require.NoError(t, err)

	assert.False(t, res.Meta.IsFallback)
	assert.Equal(t, ProviderAnthropic, res.Meta.Provider)
	assert.Equal(t, "claude-test", res.Meta.Model)
	require.NotNil(t, res.Meta.Usage)
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 80}, *res.Meta.Usage)
	assert.NotEmpty(t, res.Meta.RequestID, "request id generated when absent")
	assert.Equal(t, Fields{"subject": "ai subject", "body": "ai body", "callToAction": "ai callToAction"}, res.Output)

	require.Len(t, p.prompts, 1)
	assert.Equal(t, []string{"subject", "body", "callToAction"}, p.prompts[0].Fields)
	assert.Contains(t, p.prompts[0].User, "AdGen")

	require.Len(t, usage.logs, 1)
	assert.Equal(t, res.Meta.RequestID, usage.logs[0].RequestID)
	assert.Equal(t, "anthropic", usage.logs[0].Provider)
	assert.Equal(t, 120, usage.logs[0].InputTokens)
}

func TestRunProviderFailureFallsBack(t *testing.T) {
	p := &fakeProvider{configured: true, generate: failing}
	o := newTestOrchestrator(t, p, Options{})

	res, err := o.Run(context.Background(), ToolCopy, map[string]any{
		"toolName": "Scribe", "category": "Writing", "audience": "bloggers",
	}, RequestContext{RequestID: "r"})
	require.NoError(t, err)

	assert.True(t, res.Meta.IsFallback)
	assert.Equal(t, ProviderFallbackAfterError, res.Meta.Provider)
	assertComplete(t, mustDefinition(t, ToolCopy), res.Output)
	assert.Equal(t, 1, p.calls)
}

func TestRunProviderTimeoutFallsBack(t *testing.T) {
	p := &fakeProvider{configured: true, generate: func(ctx context.Context, _ anthropic.Prompt) (*anthropic.Completion, error) {
		<-ctx.Done()
		return nil, &anthropic.Error{Message: "request timed out", Code: anthropic.CodeTimeout, Err: ctx.Err()}
	}}
	o := newTestOrchestrator(t, p, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	res, err := o.Run(context.Background(), SEOResearch, map[string]any{"keyword": "ai avatars"}, RequestContext{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, ProviderFallbackAfterError, res.Meta.Provider)
}

func TestRunOpenCircuitSkipsProvider(t *testing.T) {
	p := &fakeProvider{configured: true, generate: failing}
	breaker := NewCircuitBreaker(2, 1, time.Hour)
	o := newTestOrchestrator(t, p, Options{Breaker: breaker})

	for i := 0; i < 2; i++ {
		_, err := o.Run(context.Background(), ColdEmail, coldEmailPayload(), RequestContext{})
		require.NoError(t, err)
	}
	require.Equal(t, CircuitOpen, breaker.State())
	require.Equal(t, 2, p.calls)

	res, err := o.Run(context.Background(), ColdEmail, coldEmailPayload(), RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, ProviderFallbackAfterError, res.Meta.Provider)
	assert.Equal(t, 2, p.calls, "provider not called while circuit is open")
}

func TestRunCancelledCallerKeepsCircuitClosed(t *testing.T) {
	p := &fakeProvider{configured: true, generate: func(ctx context.Context, _ anthropic.Prompt) (*anthropic.Completion, error) {
		return nil, ctx.Err()
	}}
	breaker := NewCircuitBreaker(1, 1, time.Hour)
	o := newTestOrchestrator(t, p, Options{Breaker: breaker})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := o.Run(ctx, ColdEmail, coldEmailPayload(), RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, ProviderFallbackAfterError, res.Meta.Provider)
	assert.Equal(t, CircuitClosed, breaker.State())

	_, err = o.Run(context.Background(), ColdEmail, coldEmailPayload(), RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, CircuitOpen, breaker.State(), "provider failures still count")
}

func TestRunSpendLimitServesFallback(t *testing.T) {
	p := &fakeProvider{configured: true, generate: succeeding}
	o := newTestOrchestrator(t, p, Options{Limiter: NewSpendLimiter(1, 1, time.Hour)})
	rc := RequestContext{ClientIP: "203.0.113.9"}

	first, err := o.Run(context.Background(), ColdEmail, coldEmailPayload(), rc)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, first.Meta.Provider)

	second, err := o.Run(context.Background(), ColdEmail, coldEmailPayload(), rc)
	require.NoError(t, err)
	assert.Equal(t, ProviderFallback, second.Meta.Provider)
	assert.True(t, second.Meta.IsFallback)

	other, err := o.Run(context.Background(), ColdEmail, coldEmailPayload(), RequestContext{ClientIP: "198.51.100.1"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, other.Meta.Provider)

	trusted, err := o.Run(context.Background(), ColdEmail, coldEmailPayload(), RequestContext{ClientIP: "203.0.113.9", Trusted: true})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, trusted.Meta.Provider, "job traffic bypasses the limiter")
	assert.Equal(t, 3, p.calls)
}

func TestRunSpendLimitIgnoresUserID(t *testing.T) {
	p := &fakeProvider{configured: true, generate: succeeding}
	limiter := NewSpendLimiter(1, 1, time.Hour)
	o := newTestOrchestrator(t, p, Options{Limiter: limiter})

	for i := 0; i < 5; i++ {
		rc := RequestContext{ClientIP: "203.0.113.9", UserID: fmt.Sprintf("user-%d", i)}
		_, err := o.Run(context.Background(), ColdEmail, coldEmailPayload(), rc)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 1, limiter.Len())
}

func TestRunErrors(t *testing.T) {
	p := &fakeProvider{configured: true, generate: succeeding}
	o := newTestOrchestrator(t, p, Options{})

	_, err := o.Run(context.Background(), "haiku", map[string]any{}, RequestContext{})
	assert.ErrorIs(t, err, ErrUnknownAgent)

	_, err = o.Run(context.Background(), ColdEmail, map[string]any{"product": "x"}, RequestContext{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "recipientRole", verr.Field)
	assert.Zero(t, p.calls, "no provider call on invalid input")
}
