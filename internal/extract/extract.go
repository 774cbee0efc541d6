// Package extract turns raw email text into job-posting candidates.
// The primary path asks Gemini for a structured list; a deterministic
// pattern matcher covers known notification templates when no AI
// extractor is configured.
package extract

import (
	"context"
	"strings"

	"github.com/calebhart/jobsift/internal/schema"
)

// Candidate is an unvalidated posting proposed by an extractor, before
// quality filtering.
type Candidate struct {
	Title    string `json:"job_title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Link     string `json:"link"`
	Status   string `json:"status,omitempty"`
}

// Extractor produces zero or more candidates from one message. A
// returned error means the extraction call itself failed; an empty
// candidate list with a nil error is a successful extraction that
// found nothing. Implementations must treat a whitespace-only body as
// nothing to extract, not as a failure.
type Extractor interface {
	Extract(ctx context.Context, subject, body string) ([]Candidate, error)
}

// Chain composes the primary AI extractor with the deterministic
// fallback. The fallback engages only when no primary is configured;
// a primary that errors is reported as a failure so the conversation
// is retried, and a primary that returns zero candidates is a valid
// empty result.
type Chain struct {
	Primary  Extractor
	Fallback Extractor
}

func (c *Chain) Extract(ctx context.Context, subject, body string) ([]Candidate, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	if c.Primary != nil {
		return c.Primary.Extract(ctx, subject, body)
	}
	if c.Fallback != nil {
		return c.Fallback.Extract(ctx, subject, body)
	}
	return nil, nil
}

// filterCandidates drops candidates whose title is missing or a
// sentinel, and defaults the status. Dropping is silent: sentinel
// titles are a quality issue, not an error.
func filterCandidates(cands []Candidate) []Candidate {
	kept := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if !schema.ValidTitle(c.Title) {
			continue
		}
		c.Title = strings.TrimSpace(c.Title)
		c.Company = strings.TrimSpace(c.Company)
		c.Location = strings.TrimSpace(c.Location)
		c.Link = strings.TrimSpace(c.Link)
		if c.Status == "" {
			c.Status = schema.StatusNew
		}
		kept = append(kept, c)
	}
	return kept
}
