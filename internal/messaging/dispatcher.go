package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robosushie/medintake/internal/models"
)

// DefaultSenderQueueSize bounds the per-sender queue of pending inbound messages.
const DefaultSenderQueueSize = 32

// TurnHandler processes one inbound message from a patient and returns the
// reply to send back. It receives the canonical phone number, the message
// text and the message timestamp.
type TurnHandler func(ctx context.Context, from, body string, timestamp int64) (reply string, err error)

// Dispatcher consumes inbound responses from a messaging Service and routes
// each one through a TurnHandler, sending the handler's reply back over the
// same service. Messages from the same sender are processed strictly in
// arrival order; distinct senders proceed concurrently.
type Dispatcher struct {
	svc     Service
	handler TurnHandler

	mu      sync.Mutex
	queues  map[string]chan models.Response
	stopped bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewDispatcher creates a Dispatcher routing responses from svc through handler.
func NewDispatcher(svc Service, handler TurnHandler) *Dispatcher {
	return &Dispatcher{
		svc:     svc,
		handler: handler,
		queues:  make(map[string]chan models.Response),
	}
}

// Start begins consuming the service's Responses channel. It returns
// immediately; processing continues until Stop is called or the context is
// cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.handler == nil {
		return fmt.Errorf("dispatcher requires a turn handler")
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.consume(ctx)
	}()

	slog.Debug("Dispatcher started")
	return nil
}

// Stop cancels processing and waits for in-flight turns to finish.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Lock()
	d.stopped = true
	for _, q := range d.queues {
		close(q)
	}
	d.queues = make(map[string]chan models.Response)
	d.mu.Unlock()
	d.wg.Wait()
	slog.Debug("Dispatcher stopped")
}

// consume reads inbound responses and hands them to per-sender workers.
func (d *Dispatcher) consume(ctx context.Context) {
	responses := d.svc.Responses()
	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-responses:
			if !ok {
				slog.Debug("Dispatcher responses channel closed")
				return
			}
			d.enqueue(ctx, resp)
		}
	}
}

// enqueue routes a response onto its sender's ordered queue, creating the
// queue and worker on first contact.
func (d *Dispatcher) enqueue(ctx context.Context, resp models.Response) {
	canonicalFrom, err := d.svc.ValidateAndCanonicalizeRecipient(resp.From)
	if err != nil {
		slog.Error("Dispatcher dropping message with invalid sender", "error", err, "from", resp.From)
		return
	}
	resp.From = canonicalFrom

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	q, ok := d.queues[canonicalFrom]
	if !ok {
		q = make(chan models.Response, DefaultSenderQueueSize)
		d.queues[canonicalFrom] = q
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.senderWorker(ctx, q)
		}()
	}

	select {
	case q <- resp:
	default:
		slog.Warn("Dispatcher sender queue full, dropping message", "from", canonicalFrom)
	}
}

// senderWorker processes one sender's messages strictly in order.
func (d *Dispatcher) senderWorker(ctx context.Context, q <-chan models.Response) {
	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-q:
			if !ok {
				return
			}
			d.processTurn(ctx, resp)
		}
	}
}

// processTurn runs the handler for a single inbound message and sends the reply.
func (d *Dispatcher) processTurn(ctx context.Context, resp models.Response) {
	slog.Debug("Dispatcher processing turn", "from", resp.From, "body_length", len(resp.Body))

	reply, err := d.handler(ctx, resp.From, resp.Body, resp.Time)
	if err != nil {
		slog.Error("Dispatcher turn handler failed", "error", err, "from", resp.From)
	}
	if reply == "" {
		return
	}

	if err := d.svc.SendMessage(ctx, resp.From, reply); err != nil {
		slog.Error("Dispatcher failed to send reply", "error", err, "to", resp.From)
	}
}
