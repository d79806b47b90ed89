package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusGenerated TicketStatus = "generated"
	TicketStatusInProcess TicketStatus = "in_process"
	TicketStatusOnHold    TicketStatus = "on_hold"
	TicketStatusCancelled TicketStatus = "cancelled"
	TicketStatusFinalized TicketStatus = "finalized"
)

// Valid reports whether the status is a recognized value.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusGenerated, TicketStatusInProcess, TicketStatusOnHold,
		TicketStatusCancelled, TicketStatusFinalized:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition is permitted.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCancelled || s == TicketStatusFinalized
}

// Urgency is the ordered severity rank of a ticket.
type Urgency int

const (
	UrgencyLow      Urgency = 1
	UrgencyMedium   Urgency = 2
	UrgencyHigh     Urgency = 3
	UrgencyCritical Urgency = 4
)

// Valid reports whether the rank is one of the fixed levels.
func (u Urgency) Valid() bool {
	return u >= UrgencyLow && u <= UrgencyCritical
}

// Label returns the display name of the rank.
func (u Urgency) Label() string {
	switch u {
	case UrgencyLow:
		return "Low"
	case UrgencyMedium:
		return "Medium"
	case UrgencyHigh:
		return "High"
	case UrgencyCritical:
		return "Critical"
	}
	return "Unknown"
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string
	Title           string
	Description     string
	Notes           string
	Category        Department
	Urgency         Urgency
	Status          TicketStatus
	CreatorID       string
	AssigneeID      *string
	AssignedByAdmin bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Normalize enforces the assignment/status coupling. An assigned ticket
// never sits in generated; an unassigned ticket never sits in
// in_process. Every mutating operation calls this before persisting.
func (t *Ticket) Normalize() {
	if t.AssigneeID != nil && t.Status == TicketStatusGenerated {
		t.Status = TicketStatusInProcess
	}
	if t.AssigneeID == nil && t.Status == TicketStatusInProcess {
		t.Status = TicketStatusGenerated
	}
}

// ViewableBy reports whether the user may see this ticket: its creator,
// its current assignee, or any admin/staff account.
func (t *Ticket) ViewableBy(u *User) bool {
	if u == nil {
		return false
	}
	if t.CreatorID == u.ID {
		return true
	}
	if t.AssigneeID != nil && *t.AssigneeID == u.ID {
		return true
	}
	return u.Role.IsOperator()
}
