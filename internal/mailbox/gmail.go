package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
)

const gmailUser = "me"

// GmailSource reads labeled threads through the Gmail API. Label names
// are resolved to ids once at construction; a missing pending label is
// a configuration error because nothing could ever be listed.
type GmailSource struct {
	srv          *gmailapi.Service
	labelIDs     map[string]string
	pendingLabel string
}

// NewGmailSource resolves mailbox labels. pendingLabel must exist; any
// other label (e.g. the done label) is looked up at relabel time, so a
// missing one degrades to a partial relabel instead of blocking runs.
func NewGmailSource(ctx context.Context, srv *gmailapi.Service, pendingLabel string) (*GmailSource, error) {
	resp, err := srv.Users.Labels.List(gmailUser).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	ids := make(map[string]string, len(resp.Labels))
	for _, l := range resp.Labels {
		ids[l.Name] = l.Id
	}
	if _, ok := ids[pendingLabel]; !ok {
		return nil, fmt.Errorf("pending label %q does not exist in this mailbox", pendingLabel)
	}
	return &GmailSource{srv: srv, labelIDs: ids, pendingLabel: pendingLabel}, nil
}

func (g *GmailSource) labelID(name string) (string, bool) {
	id, ok := g.labelIDs[name]
	return id, ok
}

// ListPending lists up to max threads carrying the pending label and
// hydrates each into a Conversation. A thread that fails to hydrate is
// skipped with a log line; one bad thread must not starve the run.
func (g *GmailSource) ListPending(ctx context.Context, max int) ([]Conversation, error) {
	pendingID, _ := g.labelID(g.pendingLabel)
	list, err := g.srv.Users.Threads.List(gmailUser).
		LabelIds(pendingID).
		MaxResults(int64(max)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list threads with label %q: %w", g.pendingLabel, err)
	}

	convs := make([]Conversation, 0, len(list.Threads))
	for _, t := range list.Threads {
		full, err := g.srv.Users.Threads.Get(gmailUser, t.Id).Format("full").Context(ctx).Do()
		if err != nil {
			log.Printf("gmail: fetching thread %s: %v", t.Id, err)
			continue
		}
		convs = append(convs, conversationFromThread(full))
	}
	return convs, nil
}

// Relabel swaps labels on a thread. Both changes go in one Modify call
// when possible; when the label to add cannot be resolved the removal
// still happens and ErrPartialRelabel is returned so the caller can
// warn without treating the conversation as failed.
func (g *GmailSource) Relabel(ctx context.Context, conversationID, remove, add string) error {
	req := &gmailapi.ModifyThreadRequest{}
	if remove != "" {
		if id, ok := g.labelID(remove); ok {
			req.RemoveLabelIds = append(req.RemoveLabelIds, id)
		} else {
			// Nothing to remove; treat as already gone.
			log.Printf("gmail: label %q not found while removing from thread %s", remove, conversationID)
		}
	}

	addOK := true
	if add != "" {
		var id string
		if id, addOK = g.labelID(add); addOK {
			req.AddLabelIds = append(req.AddLabelIds, id)
		}
	}

	if len(req.AddLabelIds) > 0 || len(req.RemoveLabelIds) > 0 {
		if _, err := g.srv.Users.Threads.Modify(gmailUser, conversationID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("modify thread %s: %w", conversationID, err)
		}
	}
	if add != "" && !addOK {
		return fmt.Errorf("thread %s: %w", conversationID, ErrPartialRelabel)
	}
	return nil
}

// conversationFromThread hydrates a full-format thread.
func conversationFromThread(t *gmailapi.Thread) Conversation {
	conv := Conversation{ID: t.Id, Messages: make([]Message, 0, len(t.Messages))}
	for _, m := range t.Messages {
		conv.Messages = append(conv.Messages, Message{
			ID:             m.Id,
			ConversationID: t.Id,
			Subject:        headerValue(m.Payload, "Subject"),
			PlainBody:      plainTextBody(m.Payload),
		})
	}
	return conv
}

func headerValue(payload *gmailapi.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// plainTextBody walks the MIME tree for the first decodable text part,
// preferring text/plain leaves.
func plainTextBody(payload *gmailapi.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return string(data)
		}
		log.Printf("gmail: decoding text/plain body: %v", err)
	}
	for _, part := range payload.Parts {
		mt := strings.ToLower(part.MimeType)
		if strings.HasPrefix(mt, "text/") || strings.HasPrefix(mt, "multipart/") {
			if body := plainTextBody(part); body != "" {
				return body
			}
		}
	}
	return ""
}
