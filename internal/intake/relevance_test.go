package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/robosushie/medintake/internal/genai"
)

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		resp string
		want Verdict
	}{
		{"#VALID#", VerdictValid},
		{"#valid#", VerdictValid},
		{"The answer is #VALID# here.", VerdictValid},
		{"#INCORRECT#", VerdictInvalid},
		{"response: #incorrect#", VerdictInvalid},
		// Malformed responses fail open.
		{"I cannot determine that.", VerdictValid},
		{"", VerdictValid},
	}
	for _, tc := range cases {
		if got := parseVerdict(tc.resp); got != tc.want {
			t.Errorf("parseVerdict(%q) = %q, want %q", tc.resp, got, tc.want)
		}
	}
}

func TestCheckFailsOpenOnClientError(t *testing.T) {
	client := genai.NewMockClient()
	client.Err = errors.New("upstream unavailable")
	checker := NewGenAIRelevanceChecker(client)

	if got := checker.Check(context.Background(), "What is your name?", "John"); got != VerdictValid {
		t.Errorf("expected fail-open valid verdict, got %q", got)
	}
}

func TestCheckParsesSentinels(t *testing.T) {
	client := genai.NewMockClient("#INCORRECT#")
	checker := NewGenAIRelevanceChecker(client)

	if got := checker.Check(context.Background(), "What is your name?", "blue"); got != VerdictInvalid {
		t.Errorf("expected invalid verdict, got %q", got)
	}
	if len(client.Calls) != 1 {
		t.Fatalf("expected 1 client call, got %d", len(client.Calls))
	}
}
