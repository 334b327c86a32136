// Package catalog defines the fixed, ordered set of intake questions.
//
// The order is semantically meaningful: later questions may reference
// earlier answers in the generated summaries, so the catalog must never be
// reordered at runtime.
package catalog

import "fmt"

// Kind classifies a question so the validator can apply structural checks
// and the orchestrator can map answers onto patient fields.
type Kind string

const (
	KindName        Kind = "name"
	KindAge         Kind = "age"
	KindBloodGroup  Kind = "blood_group"
	KindAllergies   Kind = "allergies"
	KindSymptoms    Kind = "symptoms"
	KindDuration    Kind = "duration"
	KindMedications Kind = "medications"
	KindHistory     Kind = "history"
	KindRecurrence  Kind = "recurrence"
	KindEmail       Kind = "email"
)

// Question is one immutable catalog entry: its position, display text and kind.
type Question struct {
	Index int
	Text  string
	Kind  Kind
}

// Catalog is an immutable ordered sequence of questions.
type Catalog struct {
	questions []Question
}

// New builds a catalog from the given ordered questions, assigning indices.
func New(questions []Question) *Catalog {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	for i := range qs {
		qs[i].Index = i
	}
	return &Catalog{questions: qs}
}

// Default returns the medical intake question catalog.
func Default() *Catalog {
	return New([]Question{
		{Text: "What is your name?", Kind: KindName},
		{Text: "What is your age?", Kind: KindAge},
		{Text: "What is your blood group?", Kind: KindBloodGroup},
		{Text: "Do you have any known allergies? If yes, please list them.", Kind: KindAllergies},
		{Text: "What symptoms are you currently experiencing?", Kind: KindSymptoms},
		{Text: "How long have you been experiencing these symptoms?", Kind: KindDuration},
		{Text: "Are you currently taking any medications? If yes, please list them.", Kind: KindMedications},
		{Text: "Do you have any previous medical conditions or surgeries?", Kind: KindHistory},
		{Text: "Have you experienced these symptoms before?", Kind: KindRecurrence},
		{Text: "Do you have an email address? If yes, please enter you email address, else enter no/No", Kind: KindEmail},
	})
}

// Get returns the question at the given index. An out-of-range index is a
// programming error, not a runtime fault.
func (c *Catalog) Get(index int) Question {
	if index < 0 || index >= len(c.questions) {
		panic(fmt.Sprintf("catalog: index %d out of range [0,%d)", index, len(c.questions)))
	}
	return c.questions[index]
}

// Len returns the number of questions in the catalog.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// All returns a copy of the ordered question sequence.
func (c *Catalog) All() []Question {
	qs := make([]Question, len(c.questions))
	copy(qs, c.questions)
	return qs
}

// Find returns the first question of the given kind, if any.
func (c *Catalog) Find(kind Kind) (Question, bool) {
	for _, q := range c.questions {
		if q.Kind == kind {
			return q, true
		}
	}
	return Question{}, false
}
