package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"

	"github.com/robosushie/medintake/internal/genai"
)

// Verdict is the strict outcome of a relevance check.
type Verdict string

const (
	// VerdictValid means the answer is at least somewhat relevant.
	VerdictValid Verdict = "valid"
	// VerdictInvalid means the answer is completely irrelevant.
	VerdictInvalid Verdict = "invalid"
)

// Sentinel tokens the model is instructed to return. Matching on the valid
// sentinel is case-insensitive.
const (
	sentinelValid   = "#VALID#"
	sentinelInvalid = "#INCORRECT#"
)

// RelevanceChecker decides whether a free-text answer is relevant to a
// question. Implementations must never fail: on any upstream fault they
// return VerdictValid so an external outage cannot block the conversation.
type RelevanceChecker interface {
	Check(ctx context.Context, question, answer string) Verdict
}

// GenAIRelevanceChecker performs relevance checks through the
// text-completion capability. All sentinel parsing and fail-open fallback
// behavior is isolated here so the validator stays deterministic.
type GenAIRelevanceChecker struct {
	client genai.ClientInterface
}

// NewGenAIRelevanceChecker creates a relevance checker backed by the given client.
func NewGenAIRelevanceChecker(client genai.ClientInterface) *GenAIRelevanceChecker {
	return &GenAIRelevanceChecker{client: client}
}

// Check asks the model whether the answer is relevant to the question.
func (g *GenAIRelevanceChecker) Check(ctx context.Context, question, answer string) Verdict {
	prompt := fmt.Sprintf(`Quick check - is this answer somewhat relevant to the question: %q
Answer: %q
If it's completely irrelevant, respond with %s.
Otherwise respond with %s.
Keep it simple, no explanations needed.`, question, answer, sentinelInvalid, sentinelValid)

	resp, err := g.client.GenerateWithMessages(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(consultationSystemContext),
		openai.UserMessage(prompt),
	})
	if err != nil {
		slog.Warn("Relevance check failed, accepting answer", "error", err, "question", question)
		return VerdictValid
	}
	return parseVerdict(resp)
}

// parseVerdict maps a raw model response onto a Verdict. A response that
// carries neither sentinel is malformed and treated as valid (fail-open).
func parseVerdict(resp string) Verdict {
	upper := strings.ToUpper(resp)
	if strings.Contains(upper, sentinelValid) {
		return VerdictValid
	}
	if strings.Contains(upper, sentinelInvalid) {
		return VerdictInvalid
	}
	slog.Warn("Relevance check returned no sentinel, accepting answer", "response_length", len(resp))
	return VerdictValid
}
