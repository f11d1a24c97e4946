package provider

import "strings"

// ExtractKind tags the outcome of pulling answer text out of an upstream
// envelope.
type ExtractKind int

const (
	// ExtractText means Text holds the (trimmed) answer.
	ExtractText ExtractKind = iota
	// ExtractEmpty means the envelope was well formed but had no
	// choices or candidates.
	ExtractEmpty
	// ExtractMalformed means the documented path was missing or had the
	// wrong type somewhere along the way.
	ExtractMalformed
)

// Extraction is the result of a per-provider extract function. Those
// functions are pure: they only look at an already-decoded envelope.
type Extraction struct {
	Kind   ExtractKind
	Text   string
	Reason string // short description for non-text outcomes
}

// extracted trims the answer. Blank text counts as malformed for every
// provider, so no adapter can hand back an empty answer.
func extracted(text string) Extraction {
	text = strings.TrimSpace(text)
	if text == "" {
		return malformed("answer text is empty")
	}
	return Extraction{Kind: ExtractText, Text: text}
}

func empty(reason string) Extraction {
	return Extraction{Kind: ExtractEmpty, Reason: reason}
}

func malformed(reason string) Extraction {
	return Extraction{Kind: ExtractMalformed, Reason: reason}
}
