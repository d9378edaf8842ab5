package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Section is one heading/body block of a generated SEO page
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// FAQ is a single question/answer pair rendered at the bottom of an SEO page
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SEOPage is a generated landing page targeting one search keyword.
// Slug is unique; regeneration updates the existing row.
type SEOPage struct {
	ID              uuid.UUID   `json:"id"`
	Keyword         string      `json:"keyword"`
	Slug            string      `json:"slug"`
	Title           string      `json:"title"`
	MetaDescription string      `json:"meta_description"`
	Intro           string      `json:"intro"`
	Sections        []Section   `json:"sections"`
	FAQ             []FAQ       `json:"faq"`
	RelatedToolIDs  []uuid.UUID `json:"related_tool_ids"`
	ImageURL        *string     `json:"image_url,omitempty"`
	CanonicalURL    string      `json:"canonical_url,omitempty"`
	Provider        string      `json:"provider"`
	Published       bool        `json:"published"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// AgentEvent is an append-only record of a client-reported agent interaction
type AgentEvent struct {
	ID        uuid.UUID       `json:"id"`
	AgentID   string          `json:"agent_id"`
	EventType string          `json:"event_type"`
	UserID    *string         `json:"user_id,omitempty"`
	SessionID *string         `json:"session_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Tool is a directory entry found by the tools discovery job
type Tool struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Website     string    `json:"website"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	SourceQuery string    `json:"source_query"`
	CreatedAt   time.Time `json:"created_at"`
}

// Prompt is a reusable prompt found by the prompts discovery job
type Prompt struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Category    string    `json:"category"`
	SourceQuery string    `json:"source_query"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewsItem is a summarised article in the news feed. URL is unique.
type NewsItem struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	Takeaway  string    `json:"takeaway"`
	Source    string    `json:"source"`
	Provider  string    `json:"provider"`
	FetchedAt time.Time `json:"fetched_at"`
}

// GenerationLog records provider usage for one agent generation
type GenerationLog struct {
	RequestID    string
	Agent        string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	LatencyMS    int64
}
