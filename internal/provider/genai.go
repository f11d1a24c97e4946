package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"
)

// GenAIProvider implements Provider for Gemini through Google's genai SDK.
type GenAIProvider struct {
	client *genai.Client
	model  string
}

// NewGenAIProvider creates the SDK client. baseURL is optional and only
// used to point tests at a local server.
func NewGenAIProvider(ctx context.Context, apiKey, baseURL, model string, httpClient *http.Client) (*GenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai: api key cannot be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("genai: model name cannot be empty")
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GenAIProvider{client: client, model: model}, nil
}

// Name returns the provider identifier.
func (g *GenAIProvider) Name() string {
	return "genai"
}

// Ready always succeeds once the client exists.
func (g *GenAIProvider) Ready() error {
	return nil
}

// toGenAIContents builds the single user turn: prompt text first, then the
// images as inline bytes or file URIs.
func toGenAIContents(req *Request) ([]*genai.Content, error) {
	parts := []*genai.Part{{Text: req.Prompt}}

	for i, img := range req.Images {
		if img.IsDataURL() {
			mime, data, err := img.Decode()
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", i, err)
			}
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: data}})
			continue
		}
		parts = append(parts, &genai.Part{FileData: &genai.FileData{MIMEType: img.MIMEType(), FileURI: string(img)}})
	}

	return []*genai.Content{{Role: "user", Parts: parts}}, nil
}

func toGenAIConfig(req *Request) *genai.GenerateContentConfig {
	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

// extractGenAI reads the first candidate's text parts. Safety-blocked
// candidates count as empty results, not shape errors.
func extractGenAI(resp *genai.GenerateContentResponse) Extraction {
	if resp == nil {
		return malformed("nil response")
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return empty("prompt blocked: " + string(resp.PromptFeedback.BlockReason))
		}
		return empty("no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		if candidate != nil && candidate.FinishReason == genai.FinishReasonSafety {
			return empty("content blocked by safety filters")
		}
		return malformed("candidates[0].content missing")
	}

	var text string
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return malformed("candidates[0].content.parts has no text")
	}

	return extracted(text)
}

// Generate sends one generateContent call through the SDK.
func (g *GenAIProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	contents, err := toGenAIContents(req)
	if err != nil {
		return nil, fmt.Errorf("building genai request: %w", err)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, toGenAIConfig(req))
	if err != nil {
		if status, msg, ok := genaiAPIError(err); ok {
			slog.Error("genai API error",
				"provider", g.Name(),
				"status", status,
				"message", msg)
			return nil, rejectedError(g.Name(), status, msg)
		}
		return nil, transportError(g.Name(), err)
	}

	ex := extractGenAI(resp)
	if ex.Kind != ExtractText {
		slog.Error("genai response had no answer text",
			"provider", g.Name(),
			"reason", ex.Reason)
		return nil, extractionError(g.Name(), ex)
	}

	out := &Response{Model: model, Text: ex.Text}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// genaiAPIError unpacks the SDK's API error, which it returns by value.
func genaiAPIError(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message, true
	}
	return 0, "", false
}
