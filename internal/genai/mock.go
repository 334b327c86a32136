package genai

import (
	"context"

	"github.com/openai/openai-go"
)

// MockClient implements ClientInterface without calling OpenAI (for tests).
// Responses are returned in order; when exhausted, the last one repeats.
type MockClient struct {
	Responses []string
	Err       error

	// Calls records the user-visible prompt of each invocation, in order.
	Calls []string

	next int
}

// NewMockClient creates a mock client returning the given responses.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{Responses: responses}
}

// GenerateWithMessages returns the next canned response.
func (m *MockClient) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	var prompt string
	if len(messages) > 0 {
		if content := messages[len(messages)-1].OfUser; content != nil {
			prompt = content.Content.OfString.Value
		}
	}
	return m.generate(prompt)
}

// GeneratePrompt returns the next canned response.
func (m *MockClient) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.generate(userPrompt)
}

func (m *MockClient) generate(prompt string) (string, error) {
	m.Calls = append(m.Calls, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if m.next >= len(m.Responses) {
		return m.Responses[len(m.Responses)-1], nil
	}
	resp := m.Responses[m.next]
	m.next++
	return resp, nil
}
