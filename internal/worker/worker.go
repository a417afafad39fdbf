package worker

import (
	"context"
	"fmt"
	"sync"

	"checkout-service/internal/broker"
	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// Consumer delivers broker messages to a handler until ctx is cancelled
type Consumer interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// Deduplicator tracks handled events. An event is marked only after its
// confirmation was sent, so a failed send is retried on redelivery.
type Deduplicator interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// Confirmation is one order confirmation to deliver to the buyer
type Confirmation struct {
	OrderID    string
	Email      string
	Resend     bool
	GrandTotal int64
	Lines      []models.OrderLine
}

// Notifier delivers order confirmations
type Notifier interface {
	SendConfirmation(ctx context.Context, c Confirmation) error
}

// LogNotifier writes confirmations to the log. It stands in until a mail
// provider is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: util.ComponentLogger("notifier")}
}

func (n *LogNotifier) SendConfirmation(ctx context.Context, c Confirmation) error {
	n.logger.Info("Order confirmation",
		zap.String("order_id", c.OrderID),
		zap.String("email", c.Email),
		zap.Bool("resend", c.Resend),
		zap.Int64("grand_total", c.GrandTotal),
		zap.Int("lines", len(c.Lines)))
	return nil
}

// ConfirmationWorker turns checkout events into order confirmations
type ConfirmationWorker struct {
	consumer     Consumer
	eventHandler *broker.EventHandler
	notifier     Notifier
	dedup        Deduplicator
	logger       *zap.Logger
}

// NewConfirmationWorker creates a new confirmation worker. dedup may be nil,
// in which case redelivered events are processed again.
func NewConfirmationWorker(consumer Consumer, notifier Notifier, dedup Deduplicator) *ConfirmationWorker {
	w := &ConfirmationWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		notifier:     notifier,
		dedup:        dedup,
		logger:       util.ComponentLogger("confirmation-worker"),
	}

	w.eventHandler.OnCheckoutCompleted(w.handleCompleted)
	w.eventHandler.OnConfirmationResend(w.handleResend)
	return w
}

// Start starts the worker
func (w *ConfirmationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting confirmation worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ConfirmationWorker) Stop() error {
	w.logger.Info("Stopping confirmation worker")
	return w.consumer.Close()
}

// deliver sends c unless eventID was handled before, then marks it
func (w *ConfirmationWorker) deliver(ctx context.Context, eventID string, c Confirmation) error {
	track := w.dedup != nil && eventID != ""

	if track {
		processed, err := w.dedup.IsProcessed(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to check event processed: %w", err)
		}
		if processed {
			w.logger.Info("Event already processed", zap.String("event_id", eventID))
			return nil
		}
	}

	if err := w.notifier.SendConfirmation(ctx, c); err != nil {
		return err
	}

	if track {
		if err := w.dedup.MarkProcessed(ctx, eventID); err != nil {
			w.logger.Warn("Failed to mark event processed",
				zap.String("event_id", eventID),
				zap.Error(err))
		}
	}
	return nil
}

func (w *ConfirmationWorker) handleCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error {
	return w.deliver(ctx, event.EventID, Confirmation{
		OrderID:    event.OrderID,
		Email:      event.Email,
		GrandTotal: event.GrandTotal,
		Lines:      event.Lines,
	})
}

func (w *ConfirmationWorker) handleResend(ctx context.Context, event *models.ConfirmationResendEvent) error {
	return w.deliver(ctx, event.EventID, Confirmation{
		OrderID: event.OrderID,
		Email:   event.Email,
		Resend:  true,
	})
}

// MemoryDeduplicator remembers processed event ids in process memory
type MemoryDeduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryDeduplicator() *MemoryDeduplicator {
	return &MemoryDeduplicator{seen: make(map[string]struct{})}
}

func (d *MemoryDeduplicator) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.seen[eventID]
	return ok, nil
}

func (d *MemoryDeduplicator) MarkProcessed(ctx context.Context, eventID string) error {
	d.mu.Lock()
	d.seen[eventID] = struct{}{}
	d.mu.Unlock()
	return nil
}
