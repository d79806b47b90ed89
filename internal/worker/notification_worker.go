package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/soportek/helpdesk/internal/events"
	"github.com/soportek/helpdesk/internal/mail"
)

// NotificationWorker turns domain events into outbound mail. Delivery
// is best-effort: a failed send is logged and never surfaces to the
// operation that raised the event.
type NotificationWorker struct {
	mailer mail.Mailer
	logger *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(mailer mail.Mailer, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{mailer: mailer, logger: logger}
}

// Register subscribes the worker's handlers on the dispatcher.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketFinalized, w.handleTicketFinalized)
}

func (w *NotificationWorker) handleTicketFinalized(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketFinalizedPayload)
	if !ok {
		w.logger.Warn("unexpected payload type",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
		return nil
	}
	if payload.CreatorEmail == "" {
		w.logger.Warn("finalized ticket has no creator email",
			zap.String("ticket_id", event.TicketID))
		return nil
	}

	subject := fmt.Sprintf("Your ticket %q has been completed", payload.TicketTitle)
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your ticket has been completed on %s.\n\n"+
			"Title: %s\n"+
			"Description: %s\n\n"+
			"Log in to review the finalization report.\n",
		payload.CreatorName,
		payload.CompletedAtUTC,
		payload.TicketTitle,
		payload.TicketDesc,
	)

	if err := w.mailer.Send(payload.CreatorEmail, subject, body); err != nil {
		w.logger.Error("completion mail failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("to", payload.CreatorEmail),
			zap.Error(err))
		return err
	}
	w.logger.Info("completion mail sent",
		zap.String("ticket_id", event.TicketID),
		zap.String("to", payload.CreatorEmail))
	return nil
}
