package study

import "strings"

// Bypass answers a fixed set of reserved questions without calling a
// provider. A question matches only if it equals a phrase exactly after
// trimming; case and substrings do not count.
type Bypass struct {
	phrases map[string]struct{}
	answer  string
}

// NewBypass builds a Bypass from configured phrases. Blank phrases are
// ignored, and with no answer configured nothing ever matches.
func NewBypass(phrases []string, answer string) *Bypass {
	b := &Bypass{phrases: make(map[string]struct{}, len(phrases)), answer: answer}
	if answer == "" {
		return b
	}
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			b.phrases[p] = struct{}{}
		}
	}
	return b
}

// Match returns the canned answer when question is reserved.
func (b *Bypass) Match(question string) (string, bool) {
	if b == nil {
		return "", false
	}
	if _, ok := b.phrases[strings.TrimSpace(question)]; !ok {
		return "", false
	}
	return b.answer, true
}
