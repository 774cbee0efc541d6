// Package mailbox is the read side of the pipeline: conversations
// fetched from the upstream mail source by label, plus the label
// transitions the pipeline owns.
package mailbox

import (
	"context"
	"errors"
)

// Message is one immutable email. The pipeline only ever reads it.
type Message struct {
	ID             string
	ConversationID string
	Subject        string
	PlainBody      string
}

// Conversation is an ordered set of messages sharing a thread id. Its
// label state is the only thing the pipeline mutates upstream.
type Conversation struct {
	ID       string
	Messages []Message
}

// ErrPartialRelabel reports a relabel where the old label was removed
// but the new one could not be applied (e.g. it no longer exists).
// Callers should warn and move on: the conversation left the pending
// set, which is the half that matters for progress.
var ErrPartialRelabel = errors.New("old label removed but new label could not be applied")

// Source enumerates conversations awaiting processing and transitions
// their labels.
type Source interface {
	// ListPending returns up to max conversations carrying the
	// pending label, each with its full message list.
	ListPending(ctx context.Context, max int) ([]Conversation, error)

	// Relabel removes one label and adds another on a conversation,
	// as a single logical step. add may be empty for a pure removal.
	// May return ErrPartialRelabel (possibly wrapped).
	Relabel(ctx context.Context, conversationID, remove, add string) error
}
