// Package sheet persists extraction outcomes to a sheet-like tabular
// store: append-only record and error rows, plus the full-column scan
// that rebuilds the processed-id set each run.
package sheet

import (
	"context"

	"github.com/calebhart/jobsift/internal/schema"
)

// Store is the destination table boundary. Writes are append-only; the
// pipeline never updates or deletes rows.
type Store interface {
	// AppendRecord writes one extracted posting row.
	AppendRecord(ctx context.Context, rec schema.Record) error

	// AppendError writes one failure-audit row.
	AppendError(ctx context.Context, e schema.ErrorRecord) error

	// ProcessedMessageIDs scans the store for every message id with a
	// terminal outcome. A header-only table yields an empty set.
	ProcessedMessageIDs(ctx context.Context) (map[string]bool, error)
}
