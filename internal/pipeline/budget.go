package pipeline

import "time"

// Stop reasons reported in Result.StoppedBy.
const (
	StopCompleted         = "completed"
	StopConversationLimit = "conversation-limit"
	StopMessageLimit      = "message-limit"
	StopTimeLimit         = "time-limit"
)

// Budget caps one run on three independent axes. Whichever cap is hit
// first ends the run cleanly; unvisited conversations keep their
// pending label and are picked up by the next scheduled run.
type Budget struct {
	MaxConversations int
	MaxMessages      int
	MaxRuntime       time.Duration
}

// tracker enforces a Budget against run-scoped counters and a clock.
// The wall clock is checked at both conversation and message
// boundaries; a single extraction call is bounded separately by the
// extraction client's own timeout.
type tracker struct {
	budget        Budget
	start         time.Time
	now           func() time.Time
	conversations int
	messages      int
}

func newTracker(b Budget, now func() time.Time) *tracker {
	t := &tracker{budget: b, now: now}
	t.start = now()
	return t
}

func (t *tracker) timeExceeded() bool {
	return t.budget.MaxRuntime > 0 && t.now().Sub(t.start) >= t.budget.MaxRuntime
}

// conversationStop returns a stop reason if no further conversation
// may be scanned.
func (t *tracker) conversationStop() (string, bool) {
	if t.timeExceeded() {
		return StopTimeLimit, true
	}
	if t.budget.MaxConversations > 0 && t.conversations >= t.budget.MaxConversations {
		return StopConversationLimit, true
	}
	return "", false
}

// messageStop returns a stop reason if no further message may be sent
// through extraction.
func (t *tracker) messageStop() (string, bool) {
	if t.timeExceeded() {
		return StopTimeLimit, true
	}
	if t.budget.MaxMessages > 0 && t.messages >= t.budget.MaxMessages {
		return StopMessageLimit, true
	}
	return "", false
}

func (t *tracker) noteConversation() { t.conversations++ }
func (t *tracker) noteMessage()      { t.messages++ }
