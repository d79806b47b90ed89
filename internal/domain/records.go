package domain

import "time"

// FinalizationReport is the terminal record produced when a ticket is
// completed. A finalized ticket owns exactly one.
type FinalizationReport struct {
	ID            string
	TicketID      string
	Title         string
	Report        string
	Description   string
	Notes         string
	AuthorID      string
	SeenByCreator bool
	CreatedAt     time.Time
	Attachments   []Attachment
}

// HoldReason explains an on_hold transition. A ticket owns at most one;
// repeated holds update it in place.
type HoldReason struct {
	ID        string
	TicketID  string
	Reason    string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CancellationReason records why a ticket was cancelled. Created once,
// immutable thereafter.
type CancellationReason struct {
	ID        string
	TicketID  string
	Reason    string
	AuthorID  string
	CreatedAt time.Time
}
