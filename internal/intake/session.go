// Package intake implements the conversation session engine: the per-sender
// state machine that sequences the intake questionnaire, the answer
// validation policy, and the summarization pipeline that closes a
// consultation.
package intake

import (
	"sync"
	"time"

	"github.com/robosushie/medintake/internal/catalog"
)

// Session tracks one in-progress consultation for one sender. Answers are
// keyed by question text and populated strictly in catalog order; a key is
// never overwritten within the same session.
type Session struct {
	// mu serializes turns for this sender. Messages from the same sender
	// must be processed in strict arrival order.
	mu sync.Mutex

	Sender       string
	CurrentIndex int
	Answers      map[string]string
	// Clarified records questions that have already been re-asked once.
	// Once a question is present here, subsequent non-empty answers are
	// accepted unconditionally.
	Clarified map[string]bool
	Completed bool
	StartedAt time.Time
}

func newSession(sender string) *Session {
	return &Session{
		Sender:    sender,
		Answers:   make(map[string]string),
		Clarified: make(map[string]bool),
		StartedAt: time.Now(),
	}
}

// Lock acquires the per-sender turn lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-sender turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// AnswerFor returns the recorded answer for the first catalog question of
// the given kind, or empty string if unanswered.
func (s *Session) AnswerFor(c *catalog.Catalog, kind catalog.Kind) string {
	q, ok := c.Find(kind)
	if !ok {
		return ""
	}
	return s.Answers[q.Text]
}
