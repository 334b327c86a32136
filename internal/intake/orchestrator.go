package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robosushie/medintake/internal/catalog"
	"github.com/robosushie/medintake/internal/models"
	"github.com/robosushie/medintake/internal/util"
)

// User-visible messages. The user only ever sees these, clarification
// prompts, catalog questions, or the final summary.
const (
	greetingPreamble = "Hello! I'm your medical consultation bot. I'll ask you a few questions to understand your condition better. Please answer them accurately."
	endedMessage     = "Your consultation has ended. Say 'Hi' to start a new consultation."
	apologyMessage   = "I apologize, but I encountered an error. Please try again by saying 'Hi'."
	closingNotice    = "Your consultation details have been sent to our medical team. They will contact you if immediate attention is needed. Say 'Hi' to start a new consultation."
)

// whatsappPrefix is the channel prefix stripped from sender identities.
const whatsappPrefix = "whatsapp:"

// PatientStore is the persistence collaborator. Failures are non-fatal to
// conversation completion.
type PatientStore interface {
	UpsertPatient(ctx context.Context, p models.Patient) (int64, error)
	RecordConsultation(ctx context.Context, c models.Consultation) (int64, error)
}

// Notifier is the care-team notification collaborator. Failures are
// non-fatal to conversation completion.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, subject, htmlBody string) error
}

// Orchestrator consumes one inbound message at a time, drives the state
// machine one step, and returns the outbound reply. Every inbound message
// yields exactly one reply.
type Orchestrator struct {
	registry   *Registry
	machine    *Machine
	summarizer *Summarizer
	store      PatientStore
	notifier   Notifier
	careTeam   []string
}

// NewOrchestrator wires the conversation core to its external collaborators.
// careTeam lists the notification recipients for completed consultations.
func NewOrchestrator(registry *Registry, machine *Machine, summarizer *Summarizer, store PatientStore, notifier Notifier, careTeam []string) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		machine:    machine,
		summarizer: summarizer,
		store:      store,
		notifier:   notifier,
		careTeam:   careTeam,
	}
}

// NormalizeSender strips the channel prefix from a sender identity.
func NormalizeSender(sender string) string {
	return strings.TrimSpace(strings.TrimPrefix(sender, whatsappPrefix))
}

// HandleMessage processes one turn for the given sender and returns the
// reply text. Nothing below the orchestrator ever escapes to the transport
// boundary; any unexpected failure yields a generic apology.
func (o *Orchestrator) HandleMessage(ctx context.Context, sender, body string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Orchestrator recovered from panic", "sender", sender, "panic", r)
			reply = apologyMessage
		}
	}()

	sender = NormalizeSender(sender)

	session, created := o.registry.GetOrCreate(sender)
	if created {
		slog.Info("Orchestrator starting consultation", "sender", sender)
		return greetingPreamble + "\n\n" + o.machine.Catalog().Get(0).Text
	}

	session.Lock()
	defer session.Unlock()

	if session.Completed {
		return endedMessage
	}

	result := o.machine.Advance(ctx, session, body)
	switch result.Kind {
	case AdvanceNeedsClarification:
		return result.Prompt
	case AdvanceNextQuestion:
		return result.Question.Text
	case AdvanceCompleted:
		return o.finishConsultation(ctx, session)
	default:
		slog.Error("Orchestrator unknown advance result", "sender", sender, "kind", result.Kind)
		return apologyMessage
	}
}

// finishConsultation runs the summarization pipeline, dispatches the
// persistence and notification side effects, and tears the session down.
// Collaborator failures are logged and swallowed; the user always receives
// the patient summary.
func (o *Orchestrator) finishConsultation(ctx context.Context, session *Session) string {
	patientSummary := o.summarizer.PatientSummary(ctx, session.Answers)
	clinicianSummary := o.summarizer.ClinicianSummary(ctx, session.Answers, patientSummary)

	o.persistConsultation(ctx, session, patientSummary, clinicianSummary)
	o.notifyCareTeam(ctx, session, clinicianSummary)

	o.registry.Remove(session.Sender)
	slog.Info("Orchestrator consultation closed", "sender", session.Sender)

	return fmt.Sprintf("Consultation Summary:\n\n%s\n\n%s", patientSummary, closingNotice)
}

func (o *Orchestrator) persistConsultation(ctx context.Context, session *Session, patientSummary, clinicianSummary string) {
	cat := o.machine.Catalog()

	email := session.AnswerFor(cat, catalog.KindEmail)
	if strings.EqualFold(strings.TrimSpace(email), "no") {
		email = ""
	}

	name := session.AnswerFor(cat, catalog.KindName)
	if name == "" {
		name = "Unknown"
	}

	patientID, err := o.store.UpsertPatient(ctx, models.Patient{
		Name:         name,
		MobileNumber: session.Sender,
		Age:          AgeFromAnswer(session.AnswerFor(cat, catalog.KindAge)),
		BloodGroup:   session.AnswerFor(cat, catalog.KindBloodGroup),
		Allergies:    session.AnswerFor(cat, catalog.KindAllergies),
		Email:        email,
	})
	if err != nil {
		slog.Error("Orchestrator failed to save patient", "error", err, "sender", session.Sender)
		return
	}

	if _, err := o.store.RecordConsultation(ctx, models.Consultation{
		PatientID:        patientID,
		Symptoms:         session.AnswerFor(cat, catalog.KindSymptoms),
		SymptomsDuration: session.AnswerFor(cat, catalog.KindDuration),
		PatientSummary:   patientSummary,
		DoctorSummary:    clinicianSummary,
	}); err != nil {
		slog.Error("Orchestrator failed to save consultation", "error", err, "sender", session.Sender, "patient_id", patientID)
		return
	}
	slog.Debug("Orchestrator consultation persisted", "sender", session.Sender, "patient_id", patientID)
}

func (o *Orchestrator) notifyCareTeam(ctx context.Context, session *Session, clinicianSummary string) {
	if len(o.careTeam) == 0 {
		slog.Debug("Orchestrator skipping notification, no care team configured", "sender", session.Sender)
		return
	}

	name := session.AnswerFor(o.machine.Catalog(), catalog.KindName)
	if name == "" {
		name = "Patient"
	}

	subject := fmt.Sprintf("Medical Consultation Summary - %s", name)
	body := buildNotificationBody(name, clinicianSummary, session.Answers)

	if err := o.notifier.Notify(ctx, o.careTeam, subject, body); err != nil {
		slog.Error("Orchestrator failed to notify care team", "error", err, "sender", session.Sender)
		return
	}
	slog.Info("Orchestrator care team notified", "sender", session.Sender, "recipients", len(o.careTeam))
}

// buildNotificationBody renders the care-team email: clinician summary plus
// the raw answer set, tagged with a reference code for follow-up.
func buildNotificationBody(name, clinicianSummary string, answers map[string]string) string {
	ref := util.GenerateConsultationRef()
	var b strings.Builder
	b.WriteString("<h2>Medical Consultation Summary</h2>\n")
	b.WriteString(fmt.Sprintf("<p><strong>Patient Name:</strong> %s</p>\n", name))
	b.WriteString(fmt.Sprintf("<p><strong>Reference:</strong> %s</p>\n", ref))
	b.WriteString("<hr>\n<h3>Doctor's Summary:</h3>\n")
	b.WriteString(fmt.Sprintf("<p>%s</p>\n", clinicianSummary))
	b.WriteString("<hr>\n<h3>Raw Consultation Data:</h3>\n")
	b.WriteString(fmt.Sprintf("<pre>%s</pre>\n", FormatAnswers(answers)))
	return b.String()
}
