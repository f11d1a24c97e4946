package study

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseFlashcards reads the model's flashcard JSON. It accepts
// {"flashcards":[...]} or a bare array, optionally inside a markdown code
// fence. Cards come back exactly as the model wrote them.
//
// Every failure wraps ErrMalformedArtifact. The raw text is never part of
// the error.
func ParseFlashcards(text string) ([]Flashcard, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrMalformedArtifact)
	}

	var cards []Flashcard
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &cards); err != nil {
			return nil, fmt.Errorf("%w: decoding card array: %v", ErrMalformedArtifact, jsonReason(err))
		}
	} else {
		var wrapped struct {
			Flashcards []Flashcard `json:"flashcards"`
		}
		if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: decoding card object: %v", ErrMalformedArtifact, jsonReason(err))
		}
		cards = wrapped.Flashcards
	}

	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: no flashcards", ErrMalformedArtifact)
	}
	for i, c := range cards {
		if strings.TrimSpace(c.Question) == "" || strings.TrimSpace(c.Answer) == "" {
			return nil, fmt.Errorf("%w: card %d is missing a question or answer", ErrMalformedArtifact, i)
		}
	}

	return cards, nil
}

// stripCodeFence removes a ```json ... ``` wrapper if present.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line, which may carry a language tag.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// jsonReason keeps the error class and offset but not the offending text.
func jsonReason(err error) string {
	switch e := err.(type) {
	case *json.SyntaxError:
		return fmt.Sprintf("syntax error at offset %d", e.Offset)
	case *json.UnmarshalTypeError:
		return fmt.Sprintf("unexpected %s at offset %d", e.Value, e.Offset)
	default:
		return "invalid JSON"
	}
}
