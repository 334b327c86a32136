package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/robosushie/medintake/internal/catalog"
)

// Outcome is the tagged result of validating one answer: either accepted,
// or rejected with a clarification prompt. An answer is never silently
// dropped.
type Outcome struct {
	Accepted bool
	Prompt   string
}

func accepted() Outcome {
	return Outcome{Accepted: true}
}

func rejected(prompt string) Outcome {
	return Outcome{Prompt: prompt}
}

// emptyAnswerPrompt is re-issued on every empty answer; empty input never
// consumes the clarify-once budget.
const emptyAnswerPrompt = "Please provide a response."

// structuralRule is a question-kind-specific check applied before the
// generic relevance check. looksValid reports whether the trimmed answer
// passes; prompt is the tailored clarification on first failure.
type structuralRule struct {
	looksValid func(answer string) bool
	prompt     string
}

var structuralRules = map[catalog.Kind]structuralRule{
	catalog.KindAge: {
		looksValid: ageLooksNumeric,
		prompt:     "Please provide your age in years.",
	},
	catalog.KindSymptoms: {
		looksValid: symptomsDescriptive,
		prompt:     "Please briefly describe what health issues you're experiencing.",
	},
}

// Validator applies the answer validation policy. Every question can be
// rejected at most once per session, so a conversation over an N-question
// catalog always terminates within 2N turns regardless of input.
type Validator struct {
	relevance RelevanceChecker
}

// NewValidator creates a validator using the given relevance checker.
func NewValidator(relevance RelevanceChecker) *Validator {
	return &Validator{relevance: relevance}
}

// Validate decides whether rawAnswer is acceptable for the question, in
// policy order: clarify-once auto-accept, empty rejection, structural
// checks, then the generic relevance check.
func (v *Validator) Validate(ctx context.Context, s *Session, q catalog.Question, rawAnswer string) Outcome {
	trimmed := strings.TrimSpace(rawAnswer)

	// A question already clarified once is never rejected again.
	if s.Clarified[q.Text] && trimmed != "" {
		return accepted()
	}

	if trimmed == "" {
		return rejected(emptyAnswerPrompt)
	}

	if rule, ok := structuralRules[q.Kind]; ok {
		if !rule.looksValid(trimmed) {
			s.Clarified[q.Text] = true
			slog.Debug("Validator structural check failed", "sender", s.Sender, "question", q.Text)
			return rejected(rule.prompt)
		}
		return accepted()
	}

	if v.relevance.Check(ctx, q.Text, trimmed) == VerdictInvalid {
		s.Clarified[q.Text] = true
		slog.Debug("Validator relevance check failed", "sender", s.Sender, "question", q.Text)
		return rejected(fmt.Sprintf("Please provide a relevant answer to: %s", q.Text))
	}
	return accepted()
}

// ageLooksNumeric reports whether the answer reduces to a numeric string
// once unit words are stripped.
func ageLooksNumeric(answer string) bool {
	return isDigits(stripAgeUnits(answer))
}

// symptomsDescriptive requires at least two whitespace-separated tokens.
func symptomsDescriptive(answer string) bool {
	return len(strings.Fields(answer)) >= 2
}

func stripAgeUnits(answer string) string {
	cleaned := strings.ToLower(answer)
	cleaned = strings.ReplaceAll(cleaned, "years", "")
	cleaned = strings.ReplaceAll(cleaned, "old", "")
	return strings.TrimSpace(cleaned)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// AgeFromAnswer coerces an age answer to an integer, defaulting to zero
// when the clarify-once budget let a non-numeric answer through.
func AgeFromAnswer(answer string) int {
	n, err := strconv.Atoi(stripAgeUnits(answer))
	if err != nil {
		return 0
	}
	return n
}
