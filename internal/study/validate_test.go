package study

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeErr decodes body into v and returns the *FieldError, failing the
// test if the error is of any other type.
func decodeErr(t *testing.T, body string, v any) *FieldError {
	t.Helper()
	err := Decode(strings.NewReader(body), v)
	if err == nil {
		return nil
	}
	var fe *FieldError
	require.True(t, errors.As(err, &fe), "want *FieldError, got %T", err)
	return fe
}

func TestDecodeQuestion(t *testing.T) {
	var q Question
	require.Nil(t, decodeErr(t, `{"question":"  What is osmosis?  ","temperature":0.2}`, &q))
	assert.Equal(t, "What is osmosis?", q.Question)
	require.NotNil(t, q.Temperature)
	assert.InDelta(t, 0.2, *q.Temperature, 1e-9)
}

func TestDecodeQuestion_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
		kind error
	}{
		{"missing", `{}`, "Question is required", ErrMissingField},
		{"blank", `{"question":"   \n\t"}`, "Question is required", ErrMissingField},
		{"wrong type", `{"question":42}`, "Invalid request body", ErrMissingField},
		{"not json", `question=hi`, "Invalid request body", ErrMissingField},
		{"empty body", ``, "Invalid request body", ErrMissingField},
		{"temperature too high", `{"question":"q","temperature":5}`, "Invalid temperature", ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Question
			fe := decodeErr(t, tt.body, &q)
			require.NotNil(t, fe)
			assert.Equal(t, tt.msg, fe.Error())
			assert.ErrorIs(t, fe, tt.kind)
		})
	}
}

func TestDecodeReviewPrompt(t *testing.T) {
	var p ReviewPrompt
	fe := decodeErr(t, `{"prompt":"  "}`, &p)
	require.NotNil(t, fe)
	assert.Equal(t, "Prompt is required", fe.Message)

	require.Nil(t, decodeErr(t, `{"prompt":" grade my essay "}`, &p))
	assert.Equal(t, "grade my essay", p.Prompt)
}

func TestDecodeReviewRequest(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"input text", `{"input_as_text":"check this"}`, true},
		{"prompt only", `{"prompt":"check this"}`, true},
		{"question image only", `{"questionImages":["https://example.com/q.png"]}`, true},
		{"answer image only", `{"answerImages":["data:image/png;base64,AAAA"]}`, true},
		{"nothing", `{}`, false},
		{"blank everything", `{"input_as_text":" ","prompt":"","questionImages":[""," "],"answerImages":[]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r ReviewRequest
			fe := decodeErr(t, tt.body, &r)
			if tt.valid {
				assert.Nil(t, fe)
				return
			}
			require.NotNil(t, fe)
			assert.Equal(t, "Input text or images are required", fe.Message)
			assert.ErrorIs(t, fe, ErrMissingField)
		})
	}
}

func TestDecodeReviewRequest_InvalidImages(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad base64", `{"prompt":"grade","questionImages":["data:image/png;base64,@@@notbase64"]}`, "questionImages"},
		{"not a url", `{"prompt":"grade","answerImages":["not a url"]}`, "answerImages"},
		{"images only", `{"questionImages":["https://example.com/q.png"],"answerImages":["ftp://example.com/a.png"]}`, "answerImages"},
		{"question images checked first", `{"questionImages":["nope"],"answerImages":["also nope"]}`, "questionImages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r ReviewRequest
			fe := decodeErr(t, tt.body, &r)
			require.NotNil(t, fe)
			assert.Equal(t, "Invalid image reference", fe.Message)
			assert.Equal(t, tt.field, fe.Field)
			assert.ErrorIs(t, fe, ErrInvalidField)
		})
	}
}

func TestDecodeArtifactRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string // empty means valid
	}{
		{"topic notes", `{"mode":"notes","source":"topic","topic":"Photosynthesis"}`, ""},
		{"audio notes", `{"mode":"notes","source":"audio","text":"um so today..."}`, ""},
		{"flashcards from notes", `{"mode":"flashcards","source":"notes","text":"cells","flashCount":10}`, ""},
		{"mixed case mode", `{"mode":" Flashcards ","source":"TOPIC","topic":"WW2"}`, ""},
		{"missing mode", `{"source":"topic","topic":"x"}`, "Invalid mode"},
		{"unknown mode", `{"mode":"quiz","source":"topic","topic":"x"}`, "Invalid mode"},
		{"unknown source", `{"mode":"notes","source":"video","text":"x"}`, "Invalid source"},
		{"topic missing", `{"mode":"notes","source":"topic","text":"ignored"}`, "Topic is required"},
		{"topic blank", `{"mode":"flashcards","source":"topic","topic":"  "}`, "Topic is required"},
		{"notes text missing", `{"mode":"notes","source":"notes","topic":"ignored"}`, "Text is required"},
		{"audio text missing", `{"mode":"flashcards","source":"audio"}`, "Text is required"},
		{"zero cards", `{"mode":"flashcards","source":"topic","topic":"x","flashCount":0}`, "flashCount must be between 1 and 50"},
		{"too many cards", `{"mode":"flashcards","source":"topic","topic":"x","flashCount":51}`, "flashCount must be between 1 and 50"},
		{"bad length", `{"mode":"notes","source":"topic","topic":"x","length":"epic"}`, "Invalid length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a ArtifactRequest
			fe := decodeErr(t, tt.body, &a)
			if tt.msg == "" {
				assert.Nil(t, fe)
				return
			}
			require.NotNil(t, fe)
			assert.Equal(t, tt.msg, fe.Message)
		})
	}
}

func TestArtifactRequestDefaults(t *testing.T) {
	var a ArtifactRequest
	require.Nil(t, decodeErr(t, `{"mode":"flashcards","source":"topic","topic":"Mitosis"}`, &a))

	assert.Equal(t, DefaultFlashCount, a.Count())
	assert.Equal(t, "Mitosis", a.Material())
}
