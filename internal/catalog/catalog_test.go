package catalog

import "testing"

func TestDefaultCatalogShape(t *testing.T) {
	c := Default()
	if c.Len() != 10 {
		t.Fatalf("expected 10 questions, got %d", c.Len())
	}
	if got := c.Get(0).Text; got != "What is your name?" {
		t.Errorf("expected name question first, got %q", got)
	}
	if got := c.Get(c.Len() - 1).Kind; got != KindEmail {
		t.Errorf("expected email question last, got %q", got)
	}
}

func TestNewAssignsIndices(t *testing.T) {
	c := New([]Question{
		{Text: "a", Kind: KindName},
		{Text: "b", Kind: KindAge},
	})
	for i, q := range c.All() {
		if q.Index != i {
			t.Errorf("question %q has index %d, want %d", q.Text, q.Index, i)
		}
	}
}

func TestFind(t *testing.T) {
	c := Default()
	q, ok := c.Find(KindSymptoms)
	if !ok {
		t.Fatal("expected symptoms question to be found")
	}
	if q.Text != "What symptoms are you currently experiencing?" {
		t.Errorf("unexpected symptoms question text: %q", q.Text)
	}
	if _, ok := c.Find(Kind("nonexistent")); ok {
		t.Error("expected lookup of unknown kind to fail")
	}
}

func TestGetOutOfRangePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for out-of-range index")
		}
	}()
	Default().Get(10)
}

func TestAllReturnsCopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Text = "mutated"
	if c.Get(0).Text == "mutated" {
		t.Error("All() must not expose internal storage")
	}
}
