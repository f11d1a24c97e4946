package study

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/howard-nolan/studyproxy/internal/provider"
)

// Per-endpoint temperatures, used unless the body sets one.
const (
	AskTemperature        = 0.7
	AskGeminiTemperature  = 0.5
	NotesTemperature      = 0.6
	FlashcardsTemperature = 0.4
	ReviewTemperature     = 0.5
	WorkflowTemperature   = 0.4
)

const artifactSystem = "You are a study assistant. You write accurate, well-organized material for students and never invent facts."

// lengthHints turns the length option into a target the model can follow.
var lengthHints = map[string]string{
	"short":  "about 150 words",
	"medium": "about 400 words",
	"long":   "about 800 words",
}

var artifactTemplates = map[Mode]map[Source]*template.Template{
	ModeNotes: {
		SourceTopic: template.Must(template.New("notes-topic").Parse(
			`Write {{.Length}} study notes ({{.LengthHint}}) on the topic below.
Explain the key ideas in connected paragraphs under short headings. Avoid long bullet lists and deeply nested structure.

Topic: {{.Material}}`)),
		SourceAudio: template.Must(template.New("notes-audio").Parse(
			`The text below is a transcription of a lecture or recording.
Turn it into structured study notes with headings. Keep every definition, fact and example; drop filler words and repetition.

Transcription:
{{.Material}}`)),
		SourceNotes: template.Must(template.New("notes-notes").Parse(
			`Rewrite the raw notes below as clean study notes.
Fix mistakes, expand terse points into full explanations and group related ideas under headings.

Notes:
{{.Material}}`)),
	},
}

// flashcardTemplate is shared by every source; only the label changes.
var flashcardTemplate = template.Must(template.New("flashcards").Parse(
	`Create exactly {{.Count}} flashcards from the {{.Label}} below.
Respond with strict JSON only, with no prose and no code fences, in exactly this form:
{"flashcards":[{"question":"...","answer":"..."}]}
Each question must be answerable from the material. Keep answers short.

{{.Label}}:
{{.Material}}`))

var sourceLabels = map[Source]string{
	SourceTopic: "topic",
	SourceNotes: "notes",
	SourceAudio: "transcription",
}

type artifactData struct {
	Material   string
	Length     string
	LengthHint string
	Count      int
	Label      string
}

// temperature returns the caller's value when set, else the default.
func temperature(override *float64, def float64) float64 {
	if override != nil {
		return *override
	}
	return def
}

// BuildAsk sends the trimmed question as-is.
func BuildAsk(q *Question, defaultTemp float64) *provider.Request {
	return &provider.Request{
		Prompt:      q.Question,
		Temperature: temperature(q.Temperature, defaultTemp),
	}
}

// BuildReview sends the trimmed prompt as-is.
func BuildReview(p *ReviewPrompt) *provider.Request {
	return &provider.Request{
		Prompt:      p.Prompt,
		Temperature: ReviewTemperature,
	}
}

// BuildReviewWorkflow sends the review text with a note on how many images
// came with the question and the answer. Images travel by reference,
// question images first.
func BuildReviewWorkflow(r *ReviewRequest) *provider.Request {
	prompt := r.Text()

	if nq, na := len(r.QuestionImages), len(r.AnswerImages); nq+na > 0 {
		note := fmt.Sprintf("[Attached: %d question image(s), %d answer image(s)]", nq, na)
		if prompt == "" {
			prompt = note
		} else {
			prompt += "\n\n" + note
		}
	}

	images := make([]provider.ImageRef, 0, len(r.QuestionImages)+len(r.AnswerImages))
	images = append(images, r.QuestionImages...)
	images = append(images, r.AnswerImages...)

	return &provider.Request{
		Prompt:      prompt,
		Images:      images,
		Temperature: WorkflowTemperature,
	}
}

// BuildArtifact renders the prompt for a validated artifact request. The
// same request always renders the same prompt.
func BuildArtifact(a *ArtifactRequest) (*provider.Request, error) {
	length := a.Length
	if length == "" {
		length = DefaultLength
	}

	data := artifactData{
		Material:   a.Material(),
		Length:     length,
		LengthHint: lengthHints[length],
		Count:      a.Count(),
		Label:      sourceLabels[a.Source],
	}

	req := &provider.Request{System: artifactSystem}

	var tmpl *template.Template
	switch a.Mode {
	case ModeFlashcards:
		tmpl = flashcardTemplate
		req.JSON = true
		req.Temperature = temperature(a.Temperature, FlashcardsTemperature)
	case ModeNotes:
		tmpl = artifactTemplates[ModeNotes][a.Source]
		req.Temperature = temperature(a.Temperature, NotesTemperature)
	}
	if tmpl == nil {
		return nil, fmt.Errorf("no template for mode %q source %q", a.Mode, a.Source)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return nil, fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	req.Prompt = sb.String()

	return req, nil
}
