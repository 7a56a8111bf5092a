package driven

import "context"

// CompletionService produces schema-constrained structured output from
// a language model. The model itself is a black box mapping a prompt
// plus schema to a structured payload.
//
// Implementations may include:
//   - OpenAI (gpt-4o, gpt-4o-mini)
//   - OpenAI-compatible local inference servers
type CompletionService interface {
	// Complete sends the role-tagged messages and returns the raw JSON
	// payload the model produced. When opts.ResponseSchema is set, the
	// provider is instructed to constrain output to that schema; the
	// caller still validates the payload.
	//
	// Transient failures (timeout, rate limit) are reported wrapping
	// domain.ErrRateLimited or a context deadline error so callers can
	// decide to retry.
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) ([]byte, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system" or "user".
	Role string

	// Content is the message text.
	Content string
}

// CompletionOptions configures a completion request.
type CompletionOptions struct {
	// Temperature controls randomness. Extraction uses 0: fully
	// deterministic sampling intent, best effort on the provider side.
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// ResponseSchema is a JSON-schema map constraining the output shape.
	ResponseSchema map[string]any
}
