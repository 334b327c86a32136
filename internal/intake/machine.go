package intake

import (
	"context"
	"log/slog"

	"github.com/robosushie/medintake/internal/catalog"
)

// AdvanceKind tags the result of advancing a session by one answer.
type AdvanceKind int

const (
	// AdvanceNeedsClarification means the answer was rejected; the session
	// is unchanged and Prompt carries the clarification to send.
	AdvanceNeedsClarification AdvanceKind = iota
	// AdvanceNextQuestion means the answer was accepted and Question holds
	// the next question to ask.
	AdvanceNextQuestion
	// AdvanceCompleted means the catalog is exhausted; Answers holds the
	// full answer set.
	AdvanceCompleted
)

// AdvanceResult is the outcome of one state machine step.
type AdvanceResult struct {
	Kind     AdvanceKind
	Prompt   string
	Question catalog.Question
	Answers  map[string]string
}

// Machine drives a session through the question catalog one validated
// answer at a time.
type Machine struct {
	catalog   *catalog.Catalog
	validator *Validator
}

// NewMachine creates a state machine over the given catalog and validator.
func NewMachine(c *catalog.Catalog, v *Validator) *Machine {
	return &Machine{catalog: c, validator: v}
}

// Catalog returns the question catalog the machine sequences.
func (m *Machine) Catalog() *catalog.Catalog {
	return m.catalog
}

// Advance validates rawAnswer against the current question. On rejection
// nothing is mutated. On acceptance the answer is recorded and the index
// advances; len(Answers) equals CurrentIndex after every accepted call.
func (m *Machine) Advance(ctx context.Context, s *Session, rawAnswer string) AdvanceResult {
	q := m.catalog.Get(s.CurrentIndex)

	outcome := m.validator.Validate(ctx, s, q, rawAnswer)
	if !outcome.Accepted {
		return AdvanceResult{Kind: AdvanceNeedsClarification, Prompt: outcome.Prompt}
	}

	s.Answers[q.Text] = rawAnswer
	s.CurrentIndex++

	if s.CurrentIndex == m.catalog.Len() {
		s.Completed = true
		slog.Info("Intake conversation completed", "sender", s.Sender, "answers", len(s.Answers))
		return AdvanceResult{Kind: AdvanceCompleted, Answers: s.Answers}
	}
	return AdvanceResult{Kind: AdvanceNextQuestion, Question: m.catalog.Get(s.CurrentIndex)}
}
