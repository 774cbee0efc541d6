package pipeline

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/calebhart/jobsift/internal/mailbox"
	"github.com/calebhart/jobsift/internal/schema"
)

// convOutcome accumulates what happened to one conversation this run.
type convOutcome struct {
	attempted int
	records   int
	errors    int
	failed    bool
	// stoppedBy is set when a budget cap interrupted the conversation
	// mid-way; the conversation keeps its pending label untouched.
	stoppedBy string
}

// processConversation attempts every not-yet-processed message in the
// conversation, then transitions its label from aggregate success:
// all attempts succeeded -> done; any extraction failed -> stays
// pending and the whole conversation is retried next run; nothing new
// -> done defensively; no messages -> pending label removed as
// cleanup.
func (r *Runner) processConversation(ctx context.Context, conv mailbox.Conversation, tr *tracker, processed map[string]bool) convOutcome {
	var out convOutcome

	if len(conv.Messages) == 0 {
		log.Printf("pipeline: conversation %s has no messages, clearing pending label", conv.ID)
		r.relabel(ctx, conv.ID, r.PendingLabel, "")
		return out
	}

	var unseen []mailbox.Message
	for _, m := range conv.Messages {
		if !processed[m.ID] {
			unseen = append(unseen, m)
		}
	}

	// Fully processed but still labeled pending: self-heal.
	if len(unseen) == 0 {
		log.Printf("pipeline: conversation %s already fully processed, marking done", conv.ID)
		r.relabel(ctx, conv.ID, r.PendingLabel, r.DoneLabel)
		return out
	}

	for _, msg := range unseen {
		// Whitespace-only bodies never reach extraction: a successful
		// no-op that draws no message budget and needs no pacing.
		if strings.TrimSpace(msg.PlainBody) == "" {
			log.Printf("pipeline: message %s has empty body, nothing to extract", msg.ID)
			continue
		}
		if reason, stop := tr.messageStop(); stop {
			out.stoppedBy = reason
			return out
		}
		if out.attempted > 0 {
			r.sleep(r.messagePause())
		}

		tr.noteMessage()
		out.attempted++
		if r.processMessage(ctx, msg, processed, &out) {
			continue
		}
		out.failed = true
	}

	if out.failed {
		log.Printf("pipeline: conversation %s had failures, leaving pending for retry", conv.ID)
		return out
	}

	r.relabel(ctx, conv.ID, r.PendingLabel, r.DoneLabel)
	for _, m := range conv.Messages {
		processed[m.ID] = true
	}
	return out
}

// processMessage runs extraction for one message and persists the
// outcome. It reports success; a false return keeps the whole
// conversation pending.
func (r *Runner) processMessage(ctx context.Context, msg mailbox.Message, processed map[string]bool, out *convOutcome) bool {
	cands, err := r.Extractor.Extract(ctx, msg.Subject, msg.PlainBody)
	if err != nil {
		log.Printf("pipeline: extraction failed for message %s (%q): %v", msg.ID, msg.Subject, err)
		r.appendError(ctx, msg, "extraction failed", err.Error(), out)
		return false
	}

	now := r.now()
	wrote := false
	for _, c := range cands {
		rec := schema.Record{
			Title:       c.Title,
			Company:     c.Company,
			Location:    c.Location,
			SourceURL:   c.Link,
			Status:      c.Status,
			DateAdded:   now,
			MessageID:   msg.ID,
			Subject:     msg.Subject,
			ProcessedAt: now,
		}
		if rec.Status == "" {
			rec.Status = schema.StatusNew
		}
		if err := r.Store.AppendRecord(ctx, rec); err != nil {
			log.Printf("pipeline: writing record for message %s: %v", msg.ID, err)
			r.appendError(ctx, msg, "record write failed", err.Error(), out)
			return false
		}
		out.records++
		wrote = true
	}

	// Guard against a second attempt inside this same run; the next
	// run sees these ids in the store scan anyway.
	if wrote {
		processed[msg.ID] = true
	}
	return true
}

func (r *Runner) appendError(ctx context.Context, msg mailbox.Message, reason, detail string, out *convOutcome) {
	e := schema.ErrorRecord{
		MessageID: msg.ID,
		Subject:   msg.Subject,
		Reason:    reason,
		Detail:    detail,
		Timestamp: r.now(),
	}
	if err := r.Store.AppendError(ctx, e); err != nil {
		log.Printf("pipeline: writing error row for message %s: %v", msg.ID, err)
		return
	}
	out.errors++
}

// relabel performs a label transition, degrading gracefully: a partial
// relabel is a warning, any other failure is logged and the run moves
// on (the conversation simply resurfaces next run).
func (r *Runner) relabel(ctx context.Context, convID, remove, add string) {
	err := r.Source.Relabel(ctx, convID, remove, add)
	switch {
	case err == nil:
	case errors.Is(err, mailbox.ErrPartialRelabel):
		log.Printf("pipeline: warning: conversation %s left without %q label: %v", convID, add, err)
	default:
		log.Printf("pipeline: relabeling conversation %s: %v", convID, err)
	}
}
