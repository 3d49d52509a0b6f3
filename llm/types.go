package llm

import (
	"context"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // "user" or "assistant" or "system"
	Content string `json:"content"`
}

// Provider interface defines the common interface for all inference backends.
// The assistant issues two kinds of calls: a free-form conversational reply
// and a structured extraction call whose response must come back as JSON.
type Provider interface {
	// Chat sends messages and returns the complete plain-text response
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatJSON sends messages with a JSON response shape requested. The
	// returned string should parse as a JSON document, but callers must
	// still validate it.
	ChatJSON(ctx context.Context, messages []Message) (string, error)

	// Name returns the provider name
	Name() string

	// ValidateConfig validates the provider configuration
	ValidateConfig() error
}

// Config represents provider configuration
type Config struct {
	ProviderName string // Display name for the provider
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      int // seconds
	MaxTokens    int
	Temperature  float64
}
