package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model chat operations.
// Implementations use cloud APIs (Anthropic Claude, Google Gemini).
type LLMService interface {
	// Chat generates a completion for the conversation
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the service is reachable and configured
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the service
	Close() error
}
