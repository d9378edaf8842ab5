// Package agent hosts the content-generation agents: their input schemas,
// prompts and fallback templates, and the orchestrator that picks between the
// provider and the fallback for every request.
package agent

import (
	"errors"
	"fmt"
)

// Provider tags reported in Meta.Provider.
type Provider string

const (
	ProviderAnthropic          Provider = "anthropic"
	ProviderFallback           Provider = "fallback"
	ProviderFallbackAfterError Provider = "fallback_after_error"
)

// Fields is a validated agent input, or an agent output, keyed by field name.
type Fields map[string]string

// Get returns the trimmed value of key, or def when it is empty.
func (f Fields) Get(key, def string) string {
	if v := trim(f[key]); v != "" {
		return v
	}
	return def
}

// Request is a validated generation request. Required fields are non-empty
// after trimming; unknown fields have been dropped.
type Request struct {
	Agent  string
	Fields Fields
}

type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

type Meta struct {
	RequestID  string   `json:"requestId"`
	IsFallback bool     `json:"isFallback"`
	Provider   Provider `json:"provider"`
	Model      string   `json:"model,omitempty"`
	Usage      *Usage   `json:"usage,omitempty"`
}

// Result is the single output contract of every agent regardless of path.
type Result struct {
	Output Fields `json:"output"`
	Meta   Meta   `json:"meta"`
}

// RequestContext is ambient request metadata. It is logged, never returned.
type RequestContext struct {
	RequestID string
	ClientIP  string
	UserAgent string
	UserID    string
	// Trusted marks background job traffic, which is exempt from the per-client spend limit.
	Trusted bool
}

// clientKey identifies the caller for spend limiting. UserID comes from the
// request body and is not authenticated, so only the client IP counts.
func (rc RequestContext) clientKey() string {
	if rc.ClientIP != "" {
		return "ip:" + rc.ClientIP
	}
	return "anonymous"
}

// ErrUnknownAgent is returned for names missing from the registry.
var ErrUnknownAgent = errors.New("unknown agent")

// ValidationError is returned when a payload fails input validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func unknownAgent(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownAgent, name)
}
