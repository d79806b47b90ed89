package dto

import (
	"time"

	"github.com/soportek/helpdesk/internal/domain"
)

// AssignTicketRequest hands a ticket to a specific staff user.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// ReassignTicketRequest moves a ticket; a null assignee returns it to
// the unassigned pool.
type ReassignTicketRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// HoldTicketRequest parks a ticket with a motive.
type HoldTicketRequest struct {
	Reason string `json:"reason"`
}

// CancelTicketRequest cancels a ticket with a motive.
type CancelTicketRequest struct {
	Reason string `json:"reason"`
}

// ChangeStatusRequest is the admin status override.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// ChangeUrgencyRequest is the admin urgency override.
type ChangeUrgencyRequest struct {
	Urgency int `json:"urgency"`
}

// TicketSummary is the listing view of a ticket.
type TicketSummary struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Category        domain.Department   `json:"category"`
	CategoryLabel   string              `json:"category_label"`
	Urgency         domain.Urgency      `json:"urgency"`
	UrgencyLabel    string              `json:"urgency_label"`
	Status          domain.TicketStatus `json:"status"`
	CreatorID       string              `json:"creator_id"`
	AssigneeID      *string             `json:"assignee_id,omitempty"`
	AssignedByAdmin bool                `json:"assigned_by_admin"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TicketDetailResponse is the full ticket view.
type TicketDetailResponse struct {
	TicketSummary
	Description string               `json:"description"`
	Notes       string               `json:"notes,omitempty"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// AttachmentResponse describes a stored file.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportResponse is the finalization report view.
type ReportResponse struct {
	ID          string               `json:"id"`
	TicketID    string               `json:"ticket_id"`
	Title       string               `json:"title"`
	Report      string               `json:"report"`
	Description string               `json:"description"`
	Notes       string               `json:"notes,omitempty"`
	AuthorID    string               `json:"author_id"`
	Seen        bool                 `json:"seen"`
	CreatedAt   time.Time            `json:"created_at"`
	Attachments []AttachmentResponse `json:"attachments,omitempty"`
}

// HoldReasonResponse is the hold motive view.
type HoldReasonResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Reason    string    `json:"reason"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CancellationResponse is the cancellation motive view.
type CancellationResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Reason    string    `json:"reason"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UrgencyChangeResponse reports an urgency override.
type UrgencyChangeResponse struct {
	OldUrgency string `json:"old_urgency"`
	NewUrgency string `json:"new_urgency"`
}

// NewTicketSummary maps a domain ticket.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:              ticket.ID,
		Title:           ticket.Title,
		Category:        ticket.Category,
		CategoryLabel:   ticket.Category.Label(),
		Urgency:         ticket.Urgency,
		UrgencyLabel:    ticket.Urgency.Label(),
		Status:          ticket.Status,
		CreatorID:       ticket.CreatorID,
		AssigneeID:      ticket.AssigneeID,
		AssignedByAdmin: ticket.AssignedByAdmin,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

// NewTicketDetail maps a domain ticket with its attachments.
func NewTicketDetail(ticket *domain.Ticket, attachments []domain.Attachment) TicketDetailResponse {
	return TicketDetailResponse{
		TicketSummary: NewTicketSummary(ticket),
		Description:   ticket.Description,
		Notes:         ticket.Notes,
		Attachments:   NewAttachmentResponses(attachments),
	}
}

// NewAttachmentResponses maps stored attachments.
func NewAttachmentResponses(attachments []domain.Attachment) []AttachmentResponse {
	result := make([]AttachmentResponse, 0, len(attachments))
	for _, att := range attachments {
		result = append(result, AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
			CreatedAt: att.CreatedAt,
		})
	}
	return result
}

// NewReportResponse maps a finalization report.
func NewReportResponse(report *domain.FinalizationReport) ReportResponse {
	return ReportResponse{
		ID:          report.ID,
		TicketID:    report.TicketID,
		Title:       report.Title,
		Report:      report.Report,
		Description: report.Description,
		Notes:       report.Notes,
		AuthorID:    report.AuthorID,
		Seen:        report.SeenByCreator,
		CreatedAt:   report.CreatedAt,
		Attachments: NewAttachmentResponses(report.Attachments),
	}
}

// NewHoldReasonResponse maps a hold motive.
func NewHoldReasonResponse(reason *domain.HoldReason) HoldReasonResponse {
	return HoldReasonResponse{
		ID:        reason.ID,
		TicketID:  reason.TicketID,
		Reason:    reason.Reason,
		AuthorID:  reason.AuthorID,
		CreatedAt: reason.CreatedAt,
		UpdatedAt: reason.UpdatedAt,
	}
}

// NewCancellationResponse maps a cancellation motive.
func NewCancellationResponse(reason *domain.CancellationReason) CancellationResponse {
	return CancellationResponse{
		ID:        reason.ID,
		TicketID:  reason.TicketID,
		Reason:    reason.Reason,
		AuthorID:  reason.AuthorID,
		CreatedAt: reason.CreatedAt,
	}
}
