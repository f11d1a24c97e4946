package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ---------------------------------------------------------------------------
// AnthropicProvider struct + constructor
// ---------------------------------------------------------------------------

// AnthropicProvider implements the Provider interface for Anthropic's
// Messages API. Same pattern as GoogleProvider: translate our unified
// Request into Anthropic's format, make the HTTP call, extract the text.
type AnthropicProvider struct {
	apiKey  string
	baseURL string // e.g. "https://api.anthropic.com/v1"
	model   string
	client  *http.Client
}

// NewAnthropicProvider creates an AnthropicProvider ready to make API calls.
func NewAnthropicProvider(apiKey, baseURL, model string, client *http.Client) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

// Name returns the provider identifier.
func (a *AnthropicProvider) Name() string {
	return "anthropic"
}

// Ready always succeeds: an AnthropicProvider only exists once a key resolved.
func (a *AnthropicProvider) Ready() error {
	return nil
}

// ---------------------------------------------------------------------------
// Anthropic API types (unexported)
// ---------------------------------------------------------------------------

// anthropicRequest is the top-level request body for /v1/messages.
//
// Key differences from Gemini:
//   - "system" is a top-level string, not nested inside messages
//   - "max_tokens" is REQUIRED (Anthropic rejects requests without it)
//   - "model" is in the request body (Gemini puts it in the URL path)
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

// anthropicMessage is one message in the conversation. Content is a list
// of blocks so text and images can travel together.
type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

// anthropicContentBlock is either {"type":"text"} or {"type":"image"}.
type anthropicContentBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

// anthropicImageSource is base64 bytes or a remote URL.
type anthropicImageSource struct {
	Type      string `json:"type"` // "base64" or "url"
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// anthropicAPIVersion pins the Anthropic API behavior. Anthropic requires
// this header on every request.
const anthropicAPIVersion = "2023-06-01"

// defaultMaxTokens is used because Anthropic requires max_tokens.
const defaultMaxTokens = 2048

// jsonInstruction is appended to the system prompt in JSON mode; the
// Messages API has no response_format switch.
const jsonInstruction = "Respond with a single JSON object and nothing else."

// ---------------------------------------------------------------------------
// Request translation
// ---------------------------------------------------------------------------

// toAnthropicRequest translates our unified Request into Anthropic's format.
func toAnthropicRequest(req *Request, model string) (*anthropicRequest, error) {
	ar := &anthropicRequest{
		Model:       model,
		MaxTokens:   defaultMaxTokens,
		System:      req.System,
		Temperature: req.Temperature,
	}

	if req.JSON {
		ar.System = strings.TrimSpace(ar.System + "\n" + jsonInstruction)
	}

	blocks := []anthropicContentBlock{{Type: "text", Text: req.Prompt}}
	for i, img := range req.Images {
		if img.IsDataURL() {
			mime, data, err := img.Decode()
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", i, err)
			}
			blocks = append(blocks, anthropicContentBlock{
				Type:   "image",
				Source: &anthropicImageSource{Type: "base64", MediaType: mime, Data: encodeBase64(data)},
			})
			continue
		}
		blocks = append(blocks, anthropicContentBlock{
			Type:   "image",
			Source: &anthropicImageSource{Type: "url", URL: string(img)},
		})
	}

	ar.Messages = []anthropicMessage{{Role: "user", Content: blocks}}
	return ar, nil
}

// ---------------------------------------------------------------------------
// Response extraction
// ---------------------------------------------------------------------------

// extractAnthropic finds the first text block in "content". Responses can
// mix block types, so the first block is not assumed to be text.
func extractAnthropic(body []byte) Extraction {
	if !gjson.ValidBytes(body) {
		return malformed("response is not valid JSON")
	}

	content := gjson.GetBytes(body, "content")
	if !content.Exists() || !content.IsArray() {
		return malformed("content missing")
	}

	blocks := content.Array()
	if len(blocks) == 0 {
		return empty("no content blocks")
	}

	for _, block := range blocks {
		if block.Get("type").String() == "text" {
			if text := block.Get("text"); text.Type == gjson.String {
				return extracted(text.String())
			}
		}
	}

	return malformed("no text block in content")
}

// ---------------------------------------------------------------------------
// Generate
// ---------------------------------------------------------------------------

// Generate sends a request to Anthropic's /v1/messages endpoint.
//
// Same flow as GoogleProvider.Generate:
//
//	translate → serialize → HTTP POST → extract
//
// The main difference is auth: Anthropic uses its own x-api-key header
// plus a date-based anthropic-version header.
func (a *AnthropicProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	anthropicReq, err := toAnthropicRequest(req, model)
	if err != nil {
		return nil, fmt.Errorf("building anthropic request: %w", err)
	}

	body, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/messages", a.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, transportError(a.Name(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, errorBodyLimit))
		msg := gjson.GetBytes(raw, "error.message").String()
		slog.Error("anthropic API error",
			"provider", a.Name(),
			"status", httpResp.StatusCode,
			"body", string(raw))
		return nil, rejectedError(a.Name(), httpResp.StatusCode, msg)
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, transportError(a.Name(), fmt.Errorf("reading anthropic response: %w", err))
	}

	ex := extractAnthropic(raw)
	if ex.Kind != ExtractText {
		slog.Error("anthropic response had no answer text",
			"provider", a.Name(),
			"reason", ex.Reason)
		return nil, extractionError(a.Name(), ex)
	}

	// Note the different usage names from Gemini: input_tokens and
	// output_tokens, with no total.
	in := int(gjson.GetBytes(raw, "usage.input_tokens").Int())
	out := int(gjson.GetBytes(raw, "usage.output_tokens").Int())

	respModel := gjson.GetBytes(raw, "model").String()
	if respModel == "" {
		respModel = model
	}

	return &Response{
		Model: respModel,
		Text:  ex.Text,
		Usage: Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}, nil
}
