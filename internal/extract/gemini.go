package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/calebhart/jobsift/internal/gemini"
)

const defaultModel = "gemini-2.0-flash"

// postingList is the JSON document the model is asked to return.
type postingList struct {
	Postings []Candidate `json:"postings"`
}

// postingSchema constrains the model to the posting list shape.
var postingSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"postings": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"job_title": map[string]any{"type": "string"},
					"company":   map[string]any{"type": "string"},
					"location":  map[string]any{"type": "string"},
					"link":      map[string]any{"type": "string"},
				},
				"required": []string{"job_title", "company"},
			},
		},
	},
	"required": []string{"postings"},
}

// GeminiExtractor is the primary extraction path: one generateContent
// call per message with a fixed instruction template and a JSON
// response schema.
type GeminiExtractor struct {
	client *gemini.Client
	model  string
}

// NewGeminiExtractor creates the primary extractor.
func NewGeminiExtractor(client *gemini.Client, model string) *GeminiExtractor {
	if model == "" {
		model = defaultModel
	}
	return &GeminiExtractor{client: client, model: model}
}

// Extract asks the model for the postings mentioned in the email body.
// Service errors and malformed responses come back as errors; an email
// that contains no postings comes back as an empty list.
func (e *GeminiExtractor) Extract(ctx context.Context, subject, body string) ([]Candidate, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	req := &gemini.GenerateContentRequest{
		Contents: []gemini.Content{{
			Role:  "user",
			Parts: []gemini.Part{{Text: buildPrompt(subject, body)}},
		}},
		GenerationConfig: &gemini.GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   postingSchema,
		},
	}

	resp, err := e.client.GenerateContent(ctx, e.model, req)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var list postingList
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, fmt.Errorf("parse response JSON: %w (response: %s)", err, truncate(text, 200))
	}

	return filterCandidates(list.Postings), nil
}

func buildPrompt(subject, body string) string {
	var sb strings.Builder
	sb.WriteString("You extract job postings from emails.\n")
	sb.WriteString("List every job posting mentioned in the email below.\n\n")
	sb.WriteString("<EMAIL_SUBJECT>\n")
	sb.WriteString(subject)
	sb.WriteString("\n</EMAIL_SUBJECT>\n\n")
	sb.WriteString("<EMAIL_BODY>\n")
	sb.WriteString(body)
	sb.WriteString("\n</EMAIL_BODY>\n\n")
	sb.WriteString(`## Instructions

For each posting provide:
- job_title: the role title exactly as written
- company: the hiring organization
- location: city/region/remote if stated, otherwise ""
- link: the posting URL if present, otherwise ""

Rules:
- Only list postings actually present in the email. Do not invent any.
- If the email contains no job postings, return an empty postings list.
- Use "N/A" for job_title only when a posting clearly exists but its
  title is unreadable.

Return ONLY a JSON object: {"postings": [...]}
`)
	return sb.String()
}

// truncate trims s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
