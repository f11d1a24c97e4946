package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAnthropic(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind ExtractKind
		text string
	}{
		{"text block", `{"content":[{"type":"text","text":" Yes. "}]}`, ExtractText, "Yes."},
		{"text after tool block", `{"content":[{"type":"tool_use","id":"t1"},{"type":"text","text":"ok"}]}`, ExtractText, "ok"},
		{"empty content", `{"content":[]}`, ExtractEmpty, ""},
		{"no content", `{"type":"message"}`, ExtractMalformed, ""},
		{"no text block", `{"content":[{"type":"tool_use"}]}`, ExtractMalformed, ""},
		{"not json", `oops`, ExtractMalformed, ""},
		{"blank text block", `{"content":[{"type":"text","text":"  "}]}`, ExtractMalformed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := extractAnthropic([]byte(tt.body))
			assert.Equal(t, tt.kind, ex.Kind)
			assert.Equal(t, tt.text, ex.Text)
		})
	}
}

func TestAnthropicGenerate(t *testing.T) {
	var got anthropicRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "a-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		_, _ = w.Write([]byte(`{
			"id":"msg_1","model":"claude-test","stop_reason":"end_turn",
			"content":[{"type":"text","text":"The answer is 4."}],
			"usage":{"input_tokens":9,"output_tokens":6}
		}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("a-key", srv.URL+"/v1", "claude-test", srv.Client())
	resp, err := p.Generate(context.Background(), &Request{
		Prompt:      "2+2?",
		Images:      []ImageRef{"data:image/jpeg;base64,aGk=", "https://example.com/x.png"},
		Temperature: 0.3,
		JSON:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, "The answer is 4.", resp.Text)
	assert.Equal(t, "claude-test", resp.Model)
	assert.Equal(t, Usage{PromptTokens: 9, CompletionTokens: 6, TotalTokens: 15}, resp.Usage)

	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
	assert.Contains(t, got.System, jsonInstruction)
	require.Len(t, got.Messages, 1)
	blocks := got.Messages[0].Content
	require.Len(t, blocks, 3)
	assert.Equal(t, "text", blocks[0].Type)
	assert.Equal(t, "base64", blocks[1].Source.Type)
	assert.Equal(t, "image/jpeg", blocks[1].Source.MediaType)
	assert.Equal(t, "url", blocks[2].Source.Type)
}

func TestAnthropicGenerate_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("a-key", srv.URL, "claude-test", srv.Client())
	_, err := p.Generate(context.Background(), &Request{Prompt: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "invalid x-api-key")
}
