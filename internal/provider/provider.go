// Package provider defines the Provider interface and LLM provider adapters.
//
// Every upstream (OpenAI, Gemini over REST, Gemini through the genai SDK,
// Anthropic) implements Provider. Handlers build a Request, hand it to
// whichever provider the endpoint is bound to, and get back a Response or a
// typed *UpstreamError. They never see a provider's wire format.
package provider

import "context"

// Provider is the interface that every LLM backend must satisfy.
type Provider interface {
	// Name returns the provider identifier, e.g. "openai" or "google".
	// Used in logs and error values.
	Name() string

	// Ready reports whether the provider can serve requests. It returns
	// ErrNotConfigured when no credential was resolved at startup. Handlers
	// call it before touching the request body.
	Ready() error

	// Generate sends exactly one request upstream and returns the
	// extracted text. There is no retry. ctx cancels the in-flight call.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// ---------------------------------------------------------------------------
// Unified request types
// ---------------------------------------------------------------------------

// Request is the provider-agnostic payload. Handlers build one per HTTP
// request and never reuse it.
type Request struct {
	// Model overrides the provider's configured default model when set.
	Model string

	// System is an optional system instruction.
	System string

	// Prompt is the user text sent as the single user turn.
	Prompt string

	// Images are passed to the provider by reference alongside Prompt.
	Images []ImageRef

	// Temperature is the sampling temperature. Handlers always set it.
	Temperature float64

	// JSON asks the provider for a JSON object response where the API
	// supports it.
	JSON bool
}

// ---------------------------------------------------------------------------
// Unified response types
// ---------------------------------------------------------------------------

// Response is the normalized result of a successful Generate call.
type Response struct {
	Model string // the model that generated the response
	Text  string // the extracted, trimmed answer text
	Usage Usage
}

// Usage holds token counts. Providers name these differently; they are
// normalized here and only used for logging.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
