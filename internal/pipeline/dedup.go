package pipeline

import (
	"context"
	"fmt"

	"github.com/calebhart/jobsift/internal/sheet"
)

// BuildProcessedSet rebuilds the set of already-handled message ids
// from the persisted store. It runs once at run start; the returned
// set is extended in memory as the run progresses and discarded at run
// end. The store scan is the idempotency anchor: any message id found
// here is never sent through extraction again.
func BuildProcessedSet(ctx context.Context, store sheet.Store) (map[string]bool, error) {
	ids, err := store.ProcessedMessageIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild processed-id set: %w", err)
	}
	if ids == nil {
		ids = make(map[string]bool)
	}
	return ids, nil
}
