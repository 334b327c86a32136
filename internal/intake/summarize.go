package intake

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/openai/openai-go"

	"github.com/robosushie/medintake/internal/genai"
)

// consultationSystemContext frames every completion call in the pipeline.
const consultationSystemContext = `You are a medical consultation chatbot. Your role is to gather information from patients and provide initial assessments while maintaining a professional and caring demeanor.`

// Fallback texts returned verbatim when the capability fails; the
// conversation must always be able to close.
const (
	patientSummaryFallback   = "Unable to generate summary. Please contact medical support."
	clinicianSummaryFallback = "Error generating medical summary."
)

// Summarizer turns a collected answer set into the patient-facing and
// clinician-facing summaries. Both stages are pure functions of their
// inputs plus the capability's non-determinism; no retries are performed.
type Summarizer struct {
	client genai.ClientInterface
}

// NewSummarizer creates a summarizer backed by the given client.
func NewSummarizer(client genai.ClientInterface) *Summarizer {
	return &Summarizer{client: client}
}

// PatientSummary generates the patient-facing summary from the answer set.
func (s *Summarizer) PatientSummary(ctx context.Context, answers map[string]string) string {
	prompt := `Based on this consultation, provide:
1. Brief summary of condition
2. Basic recommendations
3. Whether immediate medical attention is needed

Details: ` + FormatAnswers(answers) + `

Keep it simple and clear.`

	summary, err := s.client.GenerateWithMessages(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(consultationSystemContext),
		openai.UserMessage(prompt),
	})
	if err != nil {
		slog.Error("Patient summary generation failed, using fallback", "error", err)
		return patientSummaryFallback
	}
	return summary
}

// ClinicianSummary generates the clinician-facing summary from the answer
// set and the already-generated patient summary.
func (s *Summarizer) ClinicianSummary(ctx context.Context, answers map[string]string, patientSummary string) string {
	prompt := `Create a clinical summary:
1. Patient condition overview
2. Key symptoms and duration
3. Relevant medical history
4. Recommendations

Patient Details: ` + FormatAnswers(answers) + `
Patient Summary: ` + patientSummary

	summary, err := s.client.GenerateWithMessages(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(consultationSystemContext),
		openai.UserMessage(prompt),
	})
	if err != nil {
		slog.Error("Clinician summary generation failed, using fallback", "error", err)
		return clinicianSummaryFallback
	}
	return summary
}

// FormatAnswers renders the answer set as indented JSON with stable key
// order, suitable for prompts and notification bodies.
func FormatAnswers(answers map[string]string) string {
	data, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		// A map[string]string cannot fail to marshal; guard anyway.
		return "{}"
	}
	return string(data)
}
