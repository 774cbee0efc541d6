package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/calebhart/jobsift/internal/schema"
)

// patternRule recognizes one well-known notification template in a
// message body. The first capture group is the company.
type patternRule struct {
	name   string
	re     *regexp.Regexp
	status string
}

var bodyRules = []patternRule{
	{
		name:   "application-viewed",
		re:     regexp.MustCompile(`(?i)your application was viewed by\s+([^\n.,!]{2,60})`),
		status: "Viewed",
	},
	{
		name:   "application-sent",
		re:     regexp.MustCompile(`(?i)your application was sent to\s+([^\n.,!]{2,60})`),
		status: "Applied",
	},
	{
		name:   "thanks-for-applying",
		re:     regexp.MustCompile(`(?i)thank you for applying to\s+([^\n.,!]{2,60})`),
		status: "Applied",
	},
}

// Title recovery, tried in order. Subject lines carry the role on most
// templates; a few put it in the body.
var (
	subjectTitleCompanyRe = regexp.MustCompile(`(?i)^(?:re:\s*)?(?:your )?application (?:for|to)(?: the)?\s+(.+?)\s+at\s+(.+)$`)
	subjectTitleRe        = regexp.MustCompile(`(?i)^(?:re:\s*)?thank you for applying (?:for|to)(?: the)?\s+(.+?)\s+(?:position|role|opening)`)
	bodyTitleLabelRe      = regexp.MustCompile(`(?i)(?:position|role|job title)\s*:\s*([^\n]+)`)
	bodyTitlePhraseRe     = regexp.MustCompile(`(?i)applied (?:for|to) the\s+([^\n]+?)\s+(?:position|role)`)
)

// PatternExtractor is the deterministic fallback: it recognizes a
// handful of known application-notification templates and nothing
// else. When no rule matches, or a rule matches but the role title
// cannot be recovered, it returns zero candidates rather than guess.
type PatternExtractor struct{}

// NewPatternExtractor creates the fallback extractor.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

func (p *PatternExtractor) Extract(ctx context.Context, subject, body string) ([]Candidate, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	var company, status string
	for _, rule := range bodyRules {
		if m := rule.re.FindStringSubmatch(body); m != nil {
			company = strings.TrimSpace(m[1])
			status = rule.status
			break
		}
	}
	if company == "" {
		return nil, nil
	}

	title, subjectCompany := recoverTitle(subject, body)
	if !schema.ValidTitle(title) {
		return nil, nil
	}
	if subjectCompany != "" {
		company = subjectCompany
	}

	return filterCandidates([]Candidate{{
		Title:   title,
		Company: company,
		Status:  status,
	}}), nil
}

func recoverTitle(subject, body string) (title, company string) {
	subject = strings.TrimSpace(subject)
	if m := subjectTitleCompanyRe.FindStringSubmatch(subject); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := subjectTitleRe.FindStringSubmatch(subject); m != nil {
		return strings.TrimSpace(m[1]), ""
	}
	if m := bodyTitleLabelRe.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1]), ""
	}
	if m := bodyTitlePhraseRe.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1]), ""
	}
	return "", ""
}
