package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/soportek/helpdesk/internal/events"
)

type fakeMailer struct {
	sent []sentMail
	fail bool
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func finalizedEvent() events.Event {
	return events.Event{
		ID:       "evt-1",
		Type:     events.EventTicketFinalized,
		TicketID: "ticket-1",
		Payload: events.TicketFinalizedPayload{
			ReportID:       "report-1",
			CreatorID:      "user-1",
			CreatorEmail:   "ana@example.com",
			CreatorName:    "Ana",
			TicketTitle:    "Printer down",
			TicketDesc:     "Third floor printer rejects every job",
			CompletedAtUTC: "01/09/2026 10:30",
		},
	}
}

func TestFinalizedEventSendsMail(t *testing.T) {
	mailer := &fakeMailer{}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationWorker(mailer, zap.NewNop()).Register(dispatcher)

	if err := dispatcher.Publish(context.Background(), finalizedEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.to != "ana@example.com" {
		t.Fatalf("sent to %q", mail.to)
	}
	if !strings.Contains(mail.subject, "Printer down") {
		t.Fatalf("subject %q missing ticket title", mail.subject)
	}
	if !strings.Contains(mail.body, "Ana") || !strings.Contains(mail.body, "01/09/2026 10:30") {
		t.Fatalf("body missing greeting or timestamp: %q", mail.body)
	}
}

func TestFinalizedEventWithoutEmailSkipped(t *testing.T) {
	mailer := &fakeMailer{}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationWorker(mailer, zap.NewNop()).Register(dispatcher)

	event := finalizedEvent()
	payload := event.Payload.(events.TicketFinalizedPayload)
	payload.CreatorEmail = ""
	event.Payload = payload

	if err := dispatcher.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("mail sent without a recipient")
	}
}

func TestMailFailureDoesNotSurface(t *testing.T) {
	mailer := &fakeMailer{fail: true}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationWorker(mailer, zap.NewNop()).Register(dispatcher)

	if err := dispatcher.Publish(context.Background(), finalizedEvent()); err != nil {
		t.Fatalf("publish must swallow mail errors: %v", err)
	}
}
