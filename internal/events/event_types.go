package events

import (
	"time"

	"github.com/soportek/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketAssigned       EventType = "ticket_assigned"
	EventTicketStatusChanged  EventType = "ticket_status_changed"
	EventTicketUrgencyChanged EventType = "ticket_urgency_changed"
	EventTicketHeld           EventType = "ticket_held"
	EventTicketCancelled      EventType = "ticket_cancelled"
	EventTicketFinalized      EventType = "ticket_finalized"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category domain.Department   `json:"category"`
	Urgency  domain.Urgency      `json:"urgency"`
	Title    string              `json:"title"`
	Status   domain.TicketStatus `json:"status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID      *string `json:"assignee_id,omitempty"`
	AssignedByAdmin bool    `json:"assigned_by_admin"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketUrgencyChangedPayload payload.
type TicketUrgencyChangedPayload struct {
	OldUrgency domain.Urgency `json:"old_urgency"`
	NewUrgency domain.Urgency `json:"new_urgency"`
}

// TicketHeldPayload payload.
type TicketHeldPayload struct {
	Reason string `json:"reason"`
}

// TicketCancelledPayload payload.
type TicketCancelledPayload struct {
	Reason string `json:"reason"`
}

// TicketFinalizedPayload payload.
type TicketFinalizedPayload struct {
	ReportID       string `json:"report_id"`
	CreatorID      string `json:"creator_id"`
	CreatorEmail   string `json:"creator_email"`
	CreatorName    string `json:"creator_name"`
	TicketTitle    string `json:"ticket_title"`
	TicketDesc     string `json:"ticket_description"`
	CompletedAtUTC string `json:"completed_at_utc"`
}
