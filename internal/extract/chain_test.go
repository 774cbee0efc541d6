package extract

import (
	"context"
	"errors"
	"testing"
)

type stubExtractor struct {
	cands []Candidate
	err   error
	calls int
}

func (s *stubExtractor) Extract(ctx context.Context, subject, body string) ([]Candidate, error) {
	s.calls++
	return s.cands, s.err
}

func TestChain_PrimaryWins(t *testing.T) {
	primary := &stubExtractor{cands: []Candidate{{Title: "Engineer", Company: "Acme"}}}
	fallback := &stubExtractor{cands: []Candidate{{Title: "Wrong", Company: "Wrong"}}}
	chain := &Chain{Primary: primary, Fallback: fallback}

	cands, err := chain.Extract(context.Background(), "subj", "body")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(cands) != 1 || cands[0].Title != "Engineer" {
		t.Errorf("unexpected candidates: %+v", cands)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestChain_PrimaryErrorIsNotFallback(t *testing.T) {
	// A failing primary is an extraction failure to be retried, not a
	// reason to guess with patterns.
	primary := &stubExtractor{err: errors.New("service unreachable")}
	fallback := &stubExtractor{cands: []Candidate{{Title: "Guess", Company: "Guess"}}}
	chain := &Chain{Primary: primary, Fallback: fallback}

	if _, err := chain.Extract(context.Background(), "subj", "body"); err == nil {
		t.Fatal("expected error from primary")
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestChain_PrimaryEmptyIsSuccess(t *testing.T) {
	primary := &stubExtractor{}
	fallback := &stubExtractor{cands: []Candidate{{Title: "Guess", Company: "Guess"}}}
	chain := &Chain{Primary: primary, Fallback: fallback}

	cands, err := chain.Extract(context.Background(), "subj", "body")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected empty result, got %+v", cands)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestChain_FallbackWhenNoPrimary(t *testing.T) {
	fallback := &stubExtractor{cands: []Candidate{{Title: "Engineer", Company: "Acme"}}}
	chain := &Chain{Fallback: fallback}

	cands, err := chain.Extract(context.Background(), "subj", "body")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(cands) != 1 || cands[0].Title != "Engineer" {
		t.Errorf("unexpected candidates: %+v", cands)
	}
}

func TestChain_EmptyBodyShortCircuits(t *testing.T) {
	primary := &stubExtractor{err: errors.New("should not be called")}
	chain := &Chain{Primary: primary}

	cands, err := chain.Extract(context.Background(), "subj", " \n\t ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no candidates, got %+v", cands)
	}
	if primary.calls != 0 {
		t.Errorf("primary called %d times, want 0", primary.calls)
	}
}

func TestFilterCandidates(t *testing.T) {
	in := []Candidate{
		{Title: "Engineer", Company: " Acme "},
		{Title: "N/A", Company: "Acme"},
		{Title: "error", Company: "Acme"},
		{Title: "", Company: "Acme"},
		{Title: "  Analyst  ", Company: "Initech", Status: "Viewed"},
	}
	out := filterCandidates(in)
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(out), out)
	}
	if out[0].Title != "Engineer" || out[0].Company != "Acme" || out[0].Status != "New" {
		t.Errorf("unexpected first candidate: %+v", out[0])
	}
	if out[1].Title != "Analyst" || out[1].Status != "Viewed" {
		t.Errorf("unexpected second candidate: %+v", out[1])
	}
}
