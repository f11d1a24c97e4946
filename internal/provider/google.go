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

// errorBodyLimit caps how much of an upstream error body is read and logged.
const errorBodyLimit = 4096

// ---------------------------------------------------------------------------
// GoogleProvider struct + constructor
// ---------------------------------------------------------------------------

// GoogleProvider implements the Provider interface for Gemini's REST
// generateContent endpoint. It translates our unified Request into Gemini's
// format, makes the HTTP call, and extracts candidates[0].content.parts[0].text.
type GoogleProvider struct {
	apiKey  string       // sent as the x-goog-api-key header, never in the URL
	baseURL string       // e.g. "https://generativelanguage.googleapis.com/v1beta"
	model   string       // default model when Request.Model is empty
	client  *http.Client // shared across requests, safe for concurrent use
}

// NewGoogleProvider creates a GoogleProvider ready to make API calls.
// The *http.Client is injected so tests can point it at httptest servers
// and main can set timeouts.
func NewGoogleProvider(apiKey, baseURL, model string, client *http.Client) *GoogleProvider {
	return &GoogleProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

// Name returns the provider identifier.
func (g *GoogleProvider) Name() string {
	return "google"
}

// Ready always succeeds: a GoogleProvider only exists once a key resolved.
func (g *GoogleProvider) Ready() error {
	return nil
}

// ---------------------------------------------------------------------------
// Gemini API types (unexported)
// ---------------------------------------------------------------------------

// geminiRequest is the top-level request body for Gemini's generateContent.
type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// geminiContent represents one message in the conversation. Gemini uses
// "parts" because it supports multimodal input: the prompt text is one part
// and every attached image is another.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is one piece of content. Exactly one field is set.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
	FileData   *geminiFileData   `json:"fileData,omitempty"`
}

// geminiInlineData carries base64 image bytes from a data URL.
type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// geminiFileData references a remote image by URI.
type geminiFileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

// geminiGenerationConfig holds generation parameters.
type geminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

// ---------------------------------------------------------------------------
// Request translation
// ---------------------------------------------------------------------------

// toGeminiRequest translates our unified Request into Gemini's format:
//  1. System text goes into systemInstruction
//  2. Prompt text and images become parts of a single user content
//  3. Temperature and JSON mode go into generationConfig
func toGeminiRequest(req *Request) (*geminiRequest, error) {
	gr := &geminiRequest{}

	if req.System != "" {
		gr.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.System}},
		}
	}

	user := geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: req.Prompt}},
	}

	for i, img := range req.Images {
		if img.IsDataURL() {
			mime, data, err := img.Decode()
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", i, err)
			}
			user.Parts = append(user.Parts, geminiPart{
				InlineData: &geminiInlineData{
					MimeType: mime,
					Data:     encodeBase64(data),
				},
			})
			continue
		}
		user.Parts = append(user.Parts, geminiPart{
			FileData: &geminiFileData{
				MimeType: img.MIMEType(),
				FileURI:  string(img),
			},
		})
	}
	gr.Contents = []geminiContent{user}

	temp := req.Temperature
	gr.GenerationConfig = &geminiGenerationConfig{Temperature: &temp}
	if req.JSON {
		gr.GenerationConfig.ResponseMimeType = "application/json"
	}

	return gr, nil
}

// ---------------------------------------------------------------------------
// Response extraction
// ---------------------------------------------------------------------------

// extractGemini walks candidates[0].content.parts[0].text with every step
// guarded. Safety-filtered and truncated responses routinely drop
// "content" or "parts", so each hop is checked with gjson instead of
// being decoded into structs that would silently zero out.
func extractGemini(body []byte) Extraction {
	if !gjson.ValidBytes(body) {
		return malformed("response is not valid JSON")
	}

	candidates := gjson.GetBytes(body, "candidates")
	if !candidates.Exists() {
		if reason := gjson.GetBytes(body, "promptFeedback.blockReason"); reason.Exists() {
			return empty("prompt blocked: " + reason.String())
		}
		return empty("no candidates")
	}
	if !candidates.IsArray() {
		return malformed("candidates is not an array")
	}
	if len(candidates.Array()) == 0 {
		return empty("no candidates")
	}

	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text")
	if !text.Exists() || text.Type != gjson.String {
		reason := "candidates[0].content.parts[0].text missing"
		if finish := gjson.GetBytes(body, "candidates.0.finishReason"); finish.Exists() {
			reason += " (finishReason " + finish.String() + ")"
		}
		return malformed(reason)
	}

	return extracted(text.String())
}

// geminiUsage reads usageMetadata if present; absent counts stay zero.
func geminiUsage(body []byte) Usage {
	meta := gjson.GetBytes(body, "usageMetadata")
	return Usage{
		PromptTokens:     int(meta.Get("promptTokenCount").Int()),
		CompletionTokens: int(meta.Get("candidatesTokenCount").Int()),
		TotalTokens:      int(meta.Get("totalTokenCount").Int()),
	}
}

// ---------------------------------------------------------------------------
// Generate
// ---------------------------------------------------------------------------

// Generate sends a request to Gemini's generateContent endpoint and returns
// the extracted answer.
//
// The flow: translate request → HTTP POST → read body → extract.
func (g *GoogleProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	// Step 1: Translate our unified request into Gemini's format.
	geminiReq, err := toGeminiRequest(req)
	if err != nil {
		return nil, fmt.Errorf("building gemini request: %w", err)
	}

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	// Step 2: Build the HTTP request.
	// The endpoint pattern is {baseURL}/models/{model}:generateContent.
	// The key goes in a header so it never shows up in *url.Error
	// messages, which include the full URL and end up in logs.
	model := req.Model
	if model == "" {
		model = g.model
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	// Step 3: Make the HTTP call. A failure here never got a response.
	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, transportError(g.Name(), err)
	}
	defer httpResp.Body.Close()

	// Step 4: Check for HTTP errors.
	if httpResp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, errorBodyLimit))
		msg := gjson.GetBytes(raw, "error.message").String()
		slog.Error("gemini API error",
			"provider", g.Name(),
			"status", httpResp.StatusCode,
			"body", string(raw))
		return nil, rejectedError(g.Name(), httpResp.StatusCode, msg)
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, transportError(g.Name(), fmt.Errorf("reading gemini response: %w", err))
	}

	// Step 5: Extract the answer text.
	ex := extractGemini(raw)
	if ex.Kind != ExtractText {
		slog.Error("gemini response had no answer text",
			"provider", g.Name(),
			"reason", ex.Reason)
		return nil, extractionError(g.Name(), ex)
	}

	return &Response{
		Model: model,
		Text:  ex.Text,
		Usage: geminiUsage(raw),
	}, nil
}
