package provider

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAIProvider implements Provider for any OpenAI-compatible
// chat-completions API through the official SDK.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider builds the SDK client once. SDK retries are disabled:
// every Generate call is exactly one upstream request.
func NewOpenAIProvider(apiKey, baseURL, model string, httpClient *http.Client) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Name returns the provider identifier.
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// Ready always succeeds: an OpenAIProvider only exists once a key resolved.
func (o *OpenAIProvider) Ready() error {
	return nil
}

// toOpenAIParams translates our unified Request into SDK params. Images turn
// the user message into a content-part list: the text part first, then one
// image_url part per image in order.
func toOpenAIParams(req *Request, model string) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	if len(req.Images) == 0 {
		messages = append(messages, openai.UserMessage(req.Prompt))
	} else {
		parts := []openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Prompt),
		}
		for _, img := range req.Images {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: string(img),
			}))
		}
		messages = append(messages, openai.UserMessage(parts))
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}

	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	return params
}

// extractOpenAI pulls choices[0].message.content out of a decoded completion.
func extractOpenAI(c *openai.ChatCompletion) Extraction {
	if c == nil {
		return malformed("nil completion")
	}
	if len(c.Choices) == 0 {
		return empty("no choices")
	}

	msg := c.Choices[0].Message
	if msg.Content == "" {
		if msg.Refusal != "" {
			return empty("model refused: " + msg.Refusal)
		}
		return malformed("choices[0].message.content missing")
	}

	return extracted(msg.Content)
}

// Generate sends one chat completion request.
func (o *OpenAIProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	// httpResp is filled by the SDK whenever an HTTP response arrived. It
	// tells a decode failure on a 200 (shape problem) apart from a
	// request that never reached the server (transport problem).
	var httpResp *http.Response
	completion, err := o.client.Chat.Completions.New(ctx, toOpenAIParams(req, model),
		option.WithResponseInto(&httpResp))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			slog.Error("openai API error",
				"provider", o.Name(),
				"status", apiErr.StatusCode,
				"body", apiErr.RawJSON())
			return nil, rejectedError(o.Name(), apiErr.StatusCode, apiErr.Message)
		}
		if httpResp != nil && httpResp.StatusCode < http.StatusMultipleChoices {
			slog.Error("openai response could not be decoded",
				"provider", o.Name(),
				"error", err)
			return nil, &UpstreamError{Provider: o.Name(), Kind: ErrShape, Err: err}
		}
		return nil, transportError(o.Name(), err)
	}

	ex := extractOpenAI(completion)
	if ex.Kind != ExtractText {
		slog.Error("openai response had no answer text",
			"provider", o.Name(),
			"reason", ex.Reason)
		return nil, extractionError(o.Name(), ex)
	}

	return &Response{
		Model: completion.Model,
		Text:  ex.Text,
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}
