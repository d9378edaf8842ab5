// Package anthropic adapts the Anthropic Messages API to the fixed
// prompt/completion shape used by the agents. All provider-specific request and
// response handling lives here.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const ProviderName = "anthropic"

// Config configures the client. An empty APIKey leaves the client unconfigured.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Version   string
	MaxTokens int
	Timeout   time.Duration
}

// Prompt is one generation request. Fields lists the keys the reply's JSON
// object must contain.
type Prompt struct {
	System    string
	User      string
	MaxTokens int
	Fields    []string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Completion is a parsed reply. Output holds exactly the requested Fields.
type Completion struct {
	Output     map[string]string
	Model      string
	StopReason string
	Usage      Usage
}

// Client calls POST {BaseURL}/v1/messages. It never retries.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a client. A nil httpClient gets one bounded by cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Version == "" {
		cfg.Version = "2023-06-01"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one Messages API request and parses the first JSON object in
// the reply text. Failures are always *Error.
func (c *Client) Generate(ctx context.Context, p Prompt) (*Completion, error) {
	if !c.Configured() {
		return nil, &Error{Message: "api key not configured", Code: CodeNetwork}
	}

	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	body, err := json.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens,
		System:    p.System,
		Messages:  []message{{Role: "user", Content: p.User}},
	})
	if err != nil {
		return nil, &Error{Message: "marshal request", Code: CodeDecode, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Message: "build request", Code: CodeNetwork, Err: err}
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", c.cfg.Version)
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, transportError(ctx, ctxErr)
		}
		return nil, &Error{Message: "decode response body", Status: resp.StatusCode, Code: CodeDecode, Err: err}
	}

	output, err := parseOutput(replyText(decoded.Content), p.Fields)
	if err != nil {
		return nil, &Error{Message: err.Error(), Status: resp.StatusCode, Code: CodeMalformedOutput, Err: err}
	}

	model := decoded.Model
	if model == "" {
		model = c.cfg.Model
	}
	return &Completion{
		Output:     output,
		Model:      model,
		StopReason: decoded.StopReason,
		Usage: Usage{
			InputTokens:  decoded.Usage.InputTokens,
			OutputTokens: decoded.Usage.OutputTokens,
		},
	}, nil
}

func transportError(ctx context.Context, err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &Error{Message: "request timed out", Code: CodeTimeout, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Message: "request timed out", Code: CodeTimeout, Err: err}
	default:
		return &Error{Message: "request failed", Code: CodeNetwork, Err: err}
	}
}

func statusError(resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error.Type != "" {
		return &Error{Message: er.Error.Message, Status: resp.StatusCode, Code: er.Error.Type}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = resp.Status
	}
	return &Error{Message: fmt.Sprintf("unexpected status: %s", msg), Status: resp.StatusCode, Code: CodeHTTPStatus}
}

func replyText(blocks []contentBlock) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}
