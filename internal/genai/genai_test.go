package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := NewClient(); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewClient(WithAPIKey("sk-test")); err != nil {
		t.Errorf("expected client with explicit key, got error %v", err)
	}
}

func TestNewClientEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	c, err := NewClient()
	if err != nil {
		t.Fatalf("expected env fallback to succeed, got %v", err)
	}
	if c.model != DefaultModel {
		t.Errorf("unexpected default model %q", c.model)
	}
	if c.timeout != DefaultTimeout {
		t.Errorf("unexpected default timeout %v", c.timeout)
	}
}

func TestNewClientOptions(t *testing.T) {
	c, err := NewClient(WithAPIKey("sk-test"), WithModel(openai.ChatModelGPT4o), WithTimeout(DefaultTimeout/2))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.model != openai.ChatModelGPT4o {
		t.Errorf("unexpected model %q", c.model)
	}
	if c.timeout != DefaultTimeout/2 {
		t.Errorf("unexpected timeout %v", c.timeout)
	}
}

func TestMockClientSequencing(t *testing.T) {
	m := NewMockClient("first", "second")
	ctx := context.Background()

	for _, want := range []string{"first", "second", "second"} {
		got, err := m.GeneratePrompt(ctx, "system", "user")
		if err != nil {
			t.Fatalf("GeneratePrompt failed: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if len(m.Calls) != 3 {
		t.Errorf("expected 3 recorded calls, got %d", len(m.Calls))
	}
}

func TestMockClientError(t *testing.T) {
	m := NewMockClient("unused")
	m.Err = errors.New("boom")
	if _, err := m.GeneratePrompt(context.Background(), "s", "u"); err == nil {
		t.Error("expected configured error")
	}
}
