// Package pipeline drives one budgeted run: rebuild the processed-id
// set from the store, walk pending conversations, extract from unseen
// messages, persist outcomes, and transition conversation labels.
package pipeline

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/calebhart/jobsift/internal/extract"
	"github.com/calebhart/jobsift/internal/mailbox"
	"github.com/calebhart/jobsift/internal/sheet"
)

// Runner wires one run's collaborators. All fields are constructed by
// the caller; fatal configuration problems (missing labels, missing
// sheet headers) surface there, before a Runner ever exists.
type Runner struct {
	Source    mailbox.Source
	Store     sheet.Store
	Extractor extract.Extractor
	Budget    Budget

	PendingLabel string
	DoneLabel    string

	// Pacing between extraction calls, to stay inside the extraction
	// service's rate limits. MessagePause gets up to MessageJitter
	// added; ConversationPause is fixed and shorter.
	MessagePause      time.Duration
	MessageJitter     time.Duration
	ConversationPause time.Duration

	// Sleep and Now are injectable for tests; nil means the real ones.
	Sleep func(time.Duration)
	Now   func() time.Time
}

// Result summarizes one run for logs and the run ledger.
type Result struct {
	StartedAt              time.Time `json:"started_at"`
	FinishedAt             time.Time `json:"finished_at"`
	ConversationsScanned   int       `json:"conversations_scanned"`
	ConversationsCompleted int       `json:"conversations_completed"`
	MessagesAttempted      int       `json:"messages_attempted"`
	RecordsWritten         int       `json:"records_written"`
	ErrorRowsWritten       int       `json:"error_rows_written"`
	StoppedBy              string    `json:"stopped_by"`
}

// Run executes one budgeted pass. Failures local to one message or
// conversation never abort the run; only the up-front store scan and
// conversation listing can.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	tr := newTracker(r.Budget, r.now)
	res := &Result{StartedAt: tr.start, StoppedBy: StopCompleted}

	processed, err := BuildProcessedSet(ctx, r.Store)
	if err != nil {
		return nil, err
	}
	log.Printf("pipeline: run starting, %d message ids already processed", len(processed))

	listMax := r.Budget.MaxConversations
	if listMax <= 0 {
		listMax = 100
	}
	convs, err := r.Source.ListPending(ctx, listMax)
	if err != nil {
		return nil, err
	}
	log.Printf("pipeline: %d pending conversations", len(convs))

	for i, conv := range convs {
		if reason, stop := tr.conversationStop(); stop {
			res.StoppedBy = reason
			break
		}
		if i > 0 {
			r.sleep(r.ConversationPause)
		}

		tr.noteConversation()
		res.ConversationsScanned++

		out := r.processConversation(ctx, conv, tr, processed)
		res.MessagesAttempted += out.attempted
		res.RecordsWritten += out.records
		res.ErrorRowsWritten += out.errors
		if !out.failed && out.stoppedBy == "" {
			res.ConversationsCompleted++
		}
		if out.stoppedBy != "" {
			res.StoppedBy = out.stoppedBy
			break
		}
	}

	res.FinishedAt = r.now()
	log.Printf("pipeline: run finished (%s): %d conversations, %d messages, %d records, %d error rows",
		res.StoppedBy, res.ConversationsScanned, res.MessagesAttempted,
		res.RecordsWritten, res.ErrorRowsWritten)
	return res, nil
}

func (r *Runner) messagePause() time.Duration {
	pause := r.MessagePause
	if r.MessageJitter > 0 {
		pause += time.Duration(rand.Int63n(int64(r.MessageJitter)))
	}
	return pause
}

func (r *Runner) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
