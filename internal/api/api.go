// Package api provides the HTTP surface and the main server wiring for
// MedIntake.
//
// It exposes the Twilio webhook for inbound WhatsApp messages plus read
// endpoints for patients and consultations, and assembles the messaging,
// intake, store, genai and email modules into a running service.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robosushie/medintake/internal/catalog"
	"github.com/robosushie/medintake/internal/email"
	"github.com/robosushie/medintake/internal/genai"
	"github.com/robosushie/medintake/internal/intake"
	"github.com/robosushie/medintake/internal/messaging"
	"github.com/robosushie/medintake/internal/store"
	"github.com/robosushie/medintake/internal/twiliowhatsapp"
	"github.com/robosushie/medintake/internal/whatsapp"
)

// Constants for server configuration
const (
	// DefaultAddr is the default listen address for the HTTP server
	DefaultAddr = ":8080"
	// DefaultShutdownTimeout bounds graceful HTTP shutdown
	DefaultShutdownTimeout = 10 * time.Second

	// BackendTwilio routes WhatsApp traffic through the Twilio API
	BackendTwilio = "twilio"
	// BackendWhatsmeow routes WhatsApp traffic through a direct whatsmeow session
	BackendWhatsmeow = "whatsmeow"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr             string
	MessagingBackend string
	CareTeamEmails   []string
	EmailEnabled     bool

	StoreOpts    []store.Option
	GenAIOpts    []genai.Option
	EmailOpts    []email.Option
	TwilioOpts   []twiliowhatsapp.Option
	WhatsAppOpts []whatsapp.Option
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the HTTP listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithMessagingBackend selects the WhatsApp transport ("twilio" or "whatsmeow").
func WithMessagingBackend(backend string) Option {
	return func(o *Opts) { o.MessagingBackend = backend }
}

// WithCareTeamEmails sets the recipients for consultation notifications.
func WithCareTeamEmails(emails []string) Option {
	return func(o *Opts) { o.CareTeamEmails = emails }
}

// WithEmailEnabled toggles care-team email notifications.
func WithEmailEnabled(enabled bool) Option {
	return func(o *Opts) { o.EmailEnabled = enabled }
}

// WithStoreOpts passes options through to the store module.
func WithStoreOpts(opts ...store.Option) Option {
	return func(o *Opts) { o.StoreOpts = append(o.StoreOpts, opts...) }
}

// WithGenAIOpts passes options through to the genai module.
func WithGenAIOpts(opts ...genai.Option) Option {
	return func(o *Opts) { o.GenAIOpts = append(o.GenAIOpts, opts...) }
}

// WithEmailOpts passes options through to the email module.
func WithEmailOpts(opts ...email.Option) Option {
	return func(o *Opts) { o.EmailOpts = append(o.EmailOpts, opts...) }
}

// WithTwilioOpts passes options through to the Twilio WhatsApp module.
func WithTwilioOpts(opts ...twiliowhatsapp.Option) Option {
	return func(o *Opts) { o.TwilioOpts = append(o.TwilioOpts, opts...) }
}

// WithWhatsAppOpts passes options through to the whatsmeow WhatsApp module.
func WithWhatsAppOpts(opts ...whatsapp.Option) Option {
	return func(o *Opts) { o.WhatsAppOpts = append(o.WhatsAppOpts, opts...) }
}

// Server assembles the intake pipeline behind an HTTP listener.
type Server struct {
	addr          string
	store         store.Store
	msgService    messaging.Service
	twilioService *messaging.TwilioService
	waClient      *whatsapp.Client
	dispatcher    *messaging.Dispatcher
	orchestrator  *intake.Orchestrator
	httpServer    *http.Server
}

// NewServer builds a fully wired server from the given options.
func NewServer(opts ...Option) (*Server, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MessagingBackend == "" {
		cfg.MessagingBackend = BackendTwilio
	}
	slog.Debug("Server options resolved", "addr", cfg.Addr, "backend", cfg.MessagingBackend,
		"care_team_count", len(cfg.CareTeamEmails), "email_enabled", cfg.EmailEnabled)

	st, err := store.New(cfg.StoreOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	genaiClient, err := genai.NewClient(cfg.GenAIOpts...)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize GenAI client: %w", err)
	}

	var notifier intake.Notifier = email.DisabledNotifier{}
	if cfg.EmailEnabled {
		sg, err := email.NewSendGridNotifier(cfg.EmailOpts...)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to initialize email notifier: %w", err)
		}
		notifier = sg
	}

	questions := catalog.Default()
	validator := intake.NewValidator(intake.NewGenAIRelevanceChecker(genaiClient))
	machine := intake.NewMachine(questions, validator)
	summarizer := intake.NewSummarizer(genaiClient)
	orchestrator := intake.NewOrchestrator(intake.NewRegistry(), machine, summarizer, st, notifier, cfg.CareTeamEmails)

	s := &Server{
		addr:         cfg.Addr,
		store:        st,
		orchestrator: orchestrator,
	}

	switch cfg.MessagingBackend {
	case BackendTwilio:
		twilioClient, err := twiliowhatsapp.NewClient(cfg.TwilioOpts...)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to initialize Twilio client: %w", err)
		}
		s.twilioService = messaging.NewTwilioService(twilioClient)
		s.msgService = s.twilioService
	case BackendWhatsmeow:
		waClient, err := whatsapp.NewClient(cfg.WhatsAppOpts...)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to initialize WhatsApp client: %w", err)
		}
		s.waClient = waClient
		s.msgService = messaging.NewWhatsAppService(waClient)
	default:
		st.Close()
		return nil, fmt.Errorf("unknown messaging backend: %s", cfg.MessagingBackend)
	}

	s.dispatcher = messaging.NewDispatcher(s.msgService, func(ctx context.Context, from, body string, timestamp int64) (string, error) {
		return orchestrator.HandleMessage(ctx, from, body), nil
	})

	return s, nil
}

// Run starts the server and blocks until the context is cancelled, then
// shuts everything down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.msgService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	if err := s.dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/webhook", s.webhookHandler)
	mux.HandleFunc("/patients", s.patientHandler)
	mux.HandleFunc("/consultations", s.consultationsHandler)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("MedIntake API running", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.shutdown()
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping server")
		s.shutdown()
		return nil
	}
}

// shutdown tears the service down in reverse dependency order.
func (s *Server) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}
	if s.dispatcher != nil {
		s.dispatcher.Stop()
	}
	if s.msgService != nil {
		if err := s.msgService.Stop(); err != nil {
			slog.Error("Messaging service stop error", "error", err)
		}
	}
	if s.waClient != nil {
		s.waClient.Disconnect()
	}
	if err := s.store.Close(); err != nil {
		slog.Error("Store close error", "error", err)
	}
}

// Run builds a server from the given options and runs it until the context
// is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	server, err := NewServer(opts...)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}
