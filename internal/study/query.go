// Package study holds the typed requests accepted by the /api endpoints and
// the pure steps between an HTTP body and a provider call: validation,
// prompt rendering, the canned-answer bypass and flashcard parsing.
package study

import (
	"fmt"
	"strings"

	"github.com/howard-nolan/studyproxy/internal/provider"
)

// Question is the body of both free-text ask endpoints.
type Question struct {
	Question    string   `json:"question" validate:"required"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

func (q *Question) Normalize() {
	q.Question = strings.TrimSpace(q.Question)
}

// ReviewPrompt is the body of the simple review endpoint.
type ReviewPrompt struct {
	Prompt string `json:"prompt" validate:"required"`
}

func (p *ReviewPrompt) Normalize() {
	p.Prompt = strings.TrimSpace(p.Prompt)
}

// ReviewRequest is the body of the workflow review endpoint. Any one of the
// text fields or a single image is enough.
type ReviewRequest struct {
	InputAsText    string              `json:"input_as_text"`
	Prompt         string              `json:"prompt"`
	QuestionImages []provider.ImageRef `json:"questionImages"`
	AnswerImages   []provider.ImageRef `json:"answerImages"`
}

func (r *ReviewRequest) Normalize() {
	r.InputAsText = strings.TrimSpace(r.InputAsText)
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.QuestionImages = compactImages(r.QuestionImages)
	r.AnswerImages = compactImages(r.AnswerImages)
}

// Validate replaces struct tags: the rule spans several fields.
func (r *ReviewRequest) Validate() error {
	if r.InputAsText == "" && r.Prompt == "" && len(r.QuestionImages) == 0 && len(r.AnswerImages) == 0 {
		return &FieldError{
			Field:   "input_as_text",
			Message: "Input text or images are required",
			Err:     ErrMissingField,
		}
	}
	if err := validateImages("questionImages", r.QuestionImages); err != nil {
		return err
	}
	return validateImages("answerImages", r.AnswerImages)
}

// validateImages rejects references no provider could fetch or decode, so
// they never cost an upstream call.
func validateImages(field string, refs []provider.ImageRef) error {
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			return &FieldError{
				Field:   field,
				Message: "Invalid image reference",
				Err:     fmt.Errorf("%w: %v", ErrInvalidField, err),
			}
		}
	}
	return nil
}

// Text returns the review text, preferring input_as_text over prompt.
func (r *ReviewRequest) Text() string {
	if r.InputAsText != "" {
		return r.InputAsText
	}
	return r.Prompt
}

// compactImages trims every reference and drops blanks, so [""] counts as
// no images at all.
func compactImages(refs []provider.ImageRef) []provider.ImageRef {
	out := refs[:0]
	for _, ref := range refs {
		if s := strings.TrimSpace(string(ref)); s != "" {
			out = append(out, provider.ImageRef(s))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Mode selects the kind of study artifact.
type Mode string

const (
	ModeNotes      Mode = "notes"
	ModeFlashcards Mode = "flashcards"
)

// Source says where the artifact's material comes from.
type Source string

const (
	SourceTopic Source = "topic"
	SourceNotes Source = "notes"
	SourceAudio Source = "audio"
)

// Artifact defaults.
const (
	DefaultFlashCount = 6
	DefaultLength     = "medium"
)

// ArtifactRequest is the body of the study artifact endpoint.
type ArtifactRequest struct {
	Mode        Mode     `json:"mode" validate:"required,oneof=notes flashcards"`
	Source      Source   `json:"source" validate:"required,oneof=topic notes audio"`
	Topic       string   `json:"topic" validate:"required_if=Source topic"`
	Text        string   `json:"text" validate:"required_if=Source notes,required_if=Source audio"`
	FlashCount  *int     `json:"flashCount,omitempty" validate:"omitempty,min=1,max=50"`
	Length      string   `json:"length,omitempty" validate:"omitempty,oneof=short medium long"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

func (a *ArtifactRequest) Normalize() {
	a.Mode = Mode(strings.ToLower(strings.TrimSpace(string(a.Mode))))
	a.Source = Source(strings.ToLower(strings.TrimSpace(string(a.Source))))
	a.Topic = strings.TrimSpace(a.Topic)
	a.Text = strings.TrimSpace(a.Text)
	a.Length = strings.ToLower(strings.TrimSpace(a.Length))
}

// Count returns the requested number of flashcards or the default.
func (a *ArtifactRequest) Count() int {
	if a.FlashCount == nil {
		return DefaultFlashCount
	}
	return *a.FlashCount
}

// Material returns the text the artifact is built from.
func (a *ArtifactRequest) Material() string {
	if a.Source == SourceTopic {
		return a.Topic
	}
	return a.Text
}

// Flashcard is one question/answer pair.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
