package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		Model:     "claude-test",
		MaxTokens: 256,
		Timeout:   2 * time.Second,
	}, nil)
}

func messagesReply(text string) string {
	resp := map[string]any{
		"id":          "msg_1",
		"model":       "claude-test-20240601",
		"stop_reason": "end_turn",
		"content":     []map[string]string{{"type": "text", "text": text}},
		"usage":       map[string]int{"input_tokens": 42, "output_tokens": 17},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestGenerateSuccess(t *testing.T) {
	var got messagesRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("content-type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(messagesReply("Here you go:\n```json\n{\"subject\": \"Hi\", \"body\": \"Hello {there}\", \"callToAction\": \"Reply\"}\n```")))
	})

	completion, err := client.Generate(context.Background(), Prompt{
		System: "be brief",
		User:   "write an email",
		Fields: []string{"subject", "body", "callToAction"},
	})
	require.NoError(t, err)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	assert.Equal(t, "be brief", got.System)
	assert.Equal(t, []message{{Role: "user", Content: "write an email"}}, got.Messages)

	assert.Equal(t, map[string]string{"subject": "Hi", "body": "Hello {there}", "callToAction": "Reply"}, completion.Output)
	assert.Equal(t, "claude-test-20240601", completion.Model)
	assert.Equal(t, Usage{InputTokens: 42, OutputTokens: 17}, completion.Usage)
	assert.Equal(t, "end_turn", completion.StopReason)
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantCode   string
		wantStatus int
	}{
		{
			name: "provider error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(529)
				w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
			},
			wantCode:   "overloaded_error",
			wantStatus: 529,
		},
		{
			name: "plain non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
			wantCode:   CodeHTTPStatus,
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "invalid body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
			wantCode:   CodeDecode,
			wantStatus: http.StatusOK,
		},
		{
			name: "no json object in reply",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(messagesReply("I cannot help with that.")))
			},
			wantCode:   CodeMalformedOutput,
			wantStatus: http.StatusOK,
		},
		{
			name: "missing field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(messagesReply(`{"subject": "Hi", "body": "  "}`)))
			},
			wantCode:   CodeMalformedOutput,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.Generate(context.Background(), Prompt{User: "x", Fields: []string{"subject", "body"}})

			var perr *Error
			require.True(t, errors.As(err, &perr), "expected *Error, got %T", err)
			assert.Equal(t, tt.wantCode, perr.Code)
			assert.Equal(t, tt.wantStatus, perr.Status)
			assert.NotEmpty(t, perr.Message)
		})
	}
}

func TestGenerateNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: url, Model: "m"}, nil)
	_, err := client.Generate(context.Background(), Prompt{User: "x", Fields: []string{"a"}})

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, CodeNetwork, perr.Code)
	assert.Zero(t, perr.Status)
	assert.NotNil(t, perr.Unwrap())
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, Prompt{User: "x", Fields: []string{"a"}})
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, CodeTimeout, perr.Code)
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient(Config{}, nil).Configured())
	assert.True(t, NewClient(Config{APIKey: "k"}, nil).Configured())

	var nilClient *Client
	assert.False(t, nilClient.Configured())
}
