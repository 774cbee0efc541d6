package schema

import (
	"strings"
	"time"
)

// StatusNew is the default pipeline status for a freshly extracted posting.
// Downstream views may overwrite it later; this pipeline never does.
const StatusNew = "New"

// Record is one extracted job posting, written exactly once to the
// records tab. Fields map to sheet columns via the header map, never
// by fixed position.
type Record struct {
	Title       string
	Company     string
	Location    string
	SourceURL   string
	Status      string
	DateAdded   time.Time
	MessageID   string
	Subject     string
	ProcessedAt time.Time
}

// ErrorRecord audits a per-message processing failure. Error rows never
// block progress; whether they count as terminal is a config decision.
type ErrorRecord struct {
	MessageID string
	Subject   string
	Reason    string
	Detail    string
	Timestamp time.Time
}

// Canonical header names for the records tab.
const (
	ColTitle       = "Job Title"
	ColCompany     = "Company"
	ColLocation    = "Location"
	ColSourceURL   = "Link"
	ColStatus      = "Status"
	ColDateAdded   = "Date Added"
	ColMessageID   = "Message ID"
	ColSubject     = "Email Subject"
	ColProcessedAt = "Processed At"
)

// Canonical header names for the errors tab.
const (
	ColErrMessageID = "Message ID"
	ColErrSubject   = "Email Subject"
	ColErrReason    = "Reason"
	ColErrDetail    = "Detail"
	ColErrTimestamp = "Timestamp"
)

// RecordHeaders lists the records-tab columns this pipeline writes.
func RecordHeaders() []string {
	return []string{
		ColTitle, ColCompany, ColLocation, ColSourceURL, ColStatus,
		ColDateAdded, ColMessageID, ColSubject, ColProcessedAt,
	}
}

// ErrorHeaders lists the errors-tab columns this pipeline writes.
func ErrorHeaders() []string {
	return []string{
		ColErrMessageID, ColErrSubject, ColErrReason, ColErrDetail, ColErrTimestamp,
	}
}

// sentinel titles the extraction service emits when it has nothing real
var sentinelTitles = []string{"n/a", "error"}

// ValidTitle reports whether a candidate title is usable: present and
// not a known sentinel, case-insensitively.
func ValidTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	for _, s := range sentinelTitles {
		if t == s {
			return false
		}
	}
	return true
}
