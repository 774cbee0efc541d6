package extract

import (
	"context"
	"testing"
)

func TestPatternExtractor_KnownTemplates(t *testing.T) {
	tests := []struct {
		name        string
		subject     string
		body        string
		wantTitle   string
		wantCompany string
		wantStatus  string
	}{
		{
			name:        "application viewed with subject title",
			subject:     "Your application to Backend Engineer at Initech",
			body:        "Good news! Your application was viewed by Initech today.",
			wantTitle:   "Backend Engineer",
			wantCompany: "Initech",
			wantStatus:  "Viewed",
		},
		{
			name:        "application sent",
			subject:     "Your application for Data Scientist at Hooli",
			body:        "Your application was sent to Hooli.\nWe'll let you know what happens next.",
			wantTitle:   "Data Scientist",
			wantCompany: "Hooli",
			wantStatus:  "Applied",
		},
		{
			name:        "thanks for applying with body title",
			subject:     "We received your application",
			body:        "Thank you for applying to Acme Corp!\nPosition: Site Reliability Engineer\nWe will be in touch.",
			wantTitle:   "Site Reliability Engineer",
			wantCompany: "Acme Corp",
			wantStatus:  "Applied",
		},
		{
			name:        "title recovered from body phrase",
			subject:     "Application received",
			body:        "Thank you for applying to Vandelay Industries. You applied for the Import Export Analyst position on Monday.",
			wantTitle:   "Import Export Analyst",
			wantCompany: "Vandelay Industries",
			wantStatus:  "Applied",
		},
	}

	p := NewPatternExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands, err := p.Extract(context.Background(), tt.subject, tt.body)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(cands) != 1 {
				t.Fatalf("got %d candidates, want 1: %+v", len(cands), cands)
			}
			c := cands[0]
			if c.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", c.Title, tt.wantTitle)
			}
			if c.Company != tt.wantCompany {
				t.Errorf("Company = %q, want %q", c.Company, tt.wantCompany)
			}
			if c.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", c.Status, tt.wantStatus)
			}
		})
	}
}

func TestPatternExtractor_Conservative(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
	}{
		{
			name:    "no known template",
			subject: "Weekly newsletter",
			body:    "Here are this week's top stories in tech.",
		},
		{
			name:    "template matched but title unrecoverable",
			subject: "Update on your application",
			body:    "Your application was viewed by Initech.",
		},
		{
			name:    "empty body",
			subject: "Your application to Backend Engineer at Initech",
			body:    "   \n\t ",
		},
	}

	p := NewPatternExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands, err := p.Extract(context.Background(), tt.subject, tt.body)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(cands) != 0 {
				t.Errorf("expected no candidates, got %+v", cands)
			}
		})
	}
}
