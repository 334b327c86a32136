package intake

import (
	"context"
	"testing"

	"github.com/robosushie/medintake/internal/catalog"
)

// stubChecker returns a fixed verdict and records invocations.
type stubChecker struct {
	verdict Verdict
	calls   int
}

func (s *stubChecker) Check(ctx context.Context, question, answer string) Verdict {
	s.calls++
	return s.verdict
}

func newTestValidator(verdict Verdict) (*Validator, *stubChecker) {
	checker := &stubChecker{verdict: verdict}
	return NewValidator(checker), checker
}

func TestValidateEmptyAnswerAlwaysReprompted(t *testing.T) {
	v, checker := newTestValidator(VerdictValid)
	s := newSession("15551234567")
	q := catalog.Default().Get(0)

	for i := 0; i < 3; i++ {
		outcome := v.Validate(context.Background(), s, q, "   ")
		if outcome.Accepted {
			t.Fatalf("attempt %d: empty answer must not be accepted", i)
		}
		if outcome.Prompt != "Please provide a response." {
			t.Fatalf("attempt %d: unexpected prompt %q", i, outcome.Prompt)
		}
	}
	// Empty input never consumes the clarify-once budget.
	if s.Clarified[q.Text] {
		t.Error("empty answers must not mark the question clarified")
	}
	if checker.calls != 0 {
		t.Errorf("empty answers must not reach the relevance check, got %d calls", checker.calls)
	}
}

func TestValidateAgeStructural(t *testing.T) {
	v, checker := newTestValidator(VerdictValid)
	c := catalog.Default()
	q, _ := c.Find(catalog.KindAge)

	cases := []struct {
		answer string
		want   bool
	}{
		{"25", true},
		{"25 years", true},
		{"25 years old", true},
		{"twenty five", false},
		{"old", false},
	}
	for _, tc := range cases {
		s := newSession("15551234567")
		outcome := v.Validate(context.Background(), s, q, tc.answer)
		if outcome.Accepted != tc.want {
			t.Errorf("age answer %q: accepted=%v, want %v", tc.answer, outcome.Accepted, tc.want)
		}
		if !tc.want && outcome.Prompt != "Please provide your age in years." {
			t.Errorf("age answer %q: unexpected prompt %q", tc.answer, outcome.Prompt)
		}
	}
	// Structural checks bypass the relevance check entirely.
	if checker.calls != 0 {
		t.Errorf("age answers must not reach the relevance check, got %d calls", checker.calls)
	}
}

func TestValidateSymptomsStructural(t *testing.T) {
	v, _ := newTestValidator(VerdictValid)
	c := catalog.Default()
	q, _ := c.Find(catalog.KindSymptoms)
	s := newSession("15551234567")

	outcome := v.Validate(context.Background(), s, q, "ok")
	if outcome.Accepted {
		t.Fatal("single-token symptoms answer must be rejected")
	}
	if outcome.Prompt != "Please briefly describe what health issues you're experiencing." {
		t.Errorf("unexpected prompt %q", outcome.Prompt)
	}

	outcome = v.Validate(context.Background(), s, q, "severe headache")
	if !outcome.Accepted {
		t.Error("two-token symptoms answer must be accepted")
	}
}

func TestValidateClarifyOnceBudget(t *testing.T) {
	v, _ := newTestValidator(VerdictInvalid)
	s := newSession("15551234567")
	q := catalog.Default().Get(0)

	first := v.Validate(context.Background(), s, q, "blue")
	if first.Accepted {
		t.Fatal("irrelevant answer must be rejected on first attempt")
	}
	if first.Prompt != "Please provide a relevant answer to: What is your name?" {
		t.Errorf("unexpected clarification prompt %q", first.Prompt)
	}

	// Second non-empty answer is accepted regardless of relevance.
	second := v.Validate(context.Background(), s, q, "still blue")
	if !second.Accepted {
		t.Fatal("answer after clarification must be accepted")
	}
}

func TestValidateClarifiedThenEmptyStillReprompted(t *testing.T) {
	v, _ := newTestValidator(VerdictInvalid)
	s := newSession("15551234567")
	q := catalog.Default().Get(0)

	v.Validate(context.Background(), s, q, "blue")
	outcome := v.Validate(context.Background(), s, q, "")
	if outcome.Accepted {
		t.Fatal("empty answer must be rejected even after clarification")
	}
	if outcome.Prompt != "Please provide a response." {
		t.Errorf("unexpected prompt %q", outcome.Prompt)
	}
}

func TestValidateStructuralFailureConsumesBudget(t *testing.T) {
	v, _ := newTestValidator(VerdictValid)
	c := catalog.Default()
	q, _ := c.Find(catalog.KindAge)
	s := newSession("15551234567")

	v.Validate(context.Background(), s, q, "twenty five")
	outcome := v.Validate(context.Background(), s, q, "twenty five")
	if !outcome.Accepted {
		t.Fatal("non-numeric age must be accepted after clarification")
	}
}

func TestAgeFromAnswer(t *testing.T) {
	cases := []struct {
		answer string
		want   int
	}{
		{"25", 25},
		{"25 years", 25},
		{"25 years old", 25},
		{"twenty five", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := AgeFromAnswer(tc.answer); got != tc.want {
			t.Errorf("AgeFromAnswer(%q) = %d, want %d", tc.answer, got, tc.want)
		}
	}
}
