package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/soportek/helpdesk/internal/cache"
	"github.com/soportek/helpdesk/internal/domain"
	"github.com/soportek/helpdesk/internal/events"
	"github.com/soportek/helpdesk/internal/repository"
	"github.com/soportek/helpdesk/internal/storage"
	apperrors "github.com/soportek/helpdesk/pkg/util"
)

// allowedImageExts is the fixed extension allow-list for uploads.
var allowedImageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {},
}

// TicketService is the ticket lifecycle engine. Every operation takes
// the acting user explicitly and enforces role and state preconditions
// before any write.
type TicketService struct {
	tickets       repository.TicketRepository
	users         repository.UserRepository
	attachments   repository.AttachmentRepository
	reports       repository.ReportRepository
	holds         repository.HoldReasonRepository
	cancellations repository.CancellationRepository
	files         storage.FileStore
	dispatcher    events.Dispatcher
	dashboards    *cache.DashboardCache
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	UserRepo         repository.UserRepository
	AttachmentRepo   repository.AttachmentRepository
	ReportRepo       repository.ReportRepository
	HoldReasonRepo   repository.HoldReasonRepository
	CancellationRepo repository.CancellationRepository
	FileStore        storage.FileStore
	Dispatcher       events.Dispatcher
	DashboardCache   *cache.DashboardCache
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:       deps.TicketRepo,
		users:         deps.UserRepo,
		attachments:   deps.AttachmentRepo,
		reports:       deps.ReportRepo,
		holds:         deps.HoldReasonRepo,
		cancellations: deps.CancellationRepo,
		files:         deps.FileStore,
		dispatcher:    deps.Dispatcher,
		dashboards:    deps.DashboardCache,
	}
}

// AttachmentUpload carries one uploaded file through validation.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Notes       string
	Category    domain.Department
	Urgency     domain.Urgency
	Attachments []AttachmentUpload
}

// TicketEditInput describes an edit to a generated ticket.
type TicketEditInput struct {
	Title               string
	Description         string
	Notes               string
	Category            domain.Department
	Urgency             domain.Urgency
	RemoveAttachmentIDs []string
	NewAttachments      []AttachmentUpload
}

// TicketCompleteInput describes the finalization payload.
type TicketCompleteInput struct {
	Report      string
	Description string
	Notes       string
	Attachments []AttachmentUpload
}

// CreateTicket opens a new ticket with status generated and no
// assignee. Attachment validation is all-or-nothing: a single bad file
// rejects the whole operation before anything is persisted.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if creator == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	urgency := input.Urgency
	if urgency == 0 {
		urgency = domain.UrgencyMedium
	}
	if !urgency.Valid() {
		return nil, apperrors.NewValidationError("unknown urgency level", map[string]any{"urgency": urgency})
	}
	if err := validateUploads(input.Attachments); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Notes:       strings.TrimSpace(input.Notes),
		Category:    input.Category,
		Urgency:     urgency,
		Status:      domain.TicketStatusGenerated,
		CreatorID:   creator.ID,
	}
	ticket.Normalize()

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.storeAttachments(ctx, domain.AttachmentOwnerTicket, ticket.ID, input.Attachments); err != nil {
		return nil, err
	}

	s.invalidateDashboards(ctx, ticket)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  creator.ID,
		Payload: events.TicketCreatedPayload{
			Category: ticket.Category,
			Urgency:  ticket.Urgency,
			Title:    ticket.Title,
			Status:   ticket.Status,
		},
	})
	return ticket, nil
}

// EditTicket updates a ticket still in generated status. Only the
// creator may edit. New files are validated before any removal or write
// takes effect.
func (s *TicketService) EditTicket(ctx context.Context, editor *domain.User, ticketID string, input TicketEditInput) (*domain.Ticket, error) {
	if editor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatorID != editor.ID {
		return nil, apperrors.NewForbidden("only the ticket creator may edit it")
	}
	if ticket.Status != domain.TicketStatusGenerated {
		return nil, apperrors.NewInvalidState("only generated tickets may be edited", map[string]any{"status": ticket.Status})
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	if !input.Urgency.Valid() {
		return nil, apperrors.NewValidationError("unknown urgency level", map[string]any{"urgency": input.Urgency})
	}
	if err := validateUploads(input.NewAttachments); err != nil {
		return nil, err
	}

	ticket.Title = strings.TrimSpace(input.Title)
	ticket.Description = strings.TrimSpace(input.Description)
	ticket.Notes = strings.TrimSpace(input.Notes)
	ticket.Category = input.Category
	ticket.Urgency = input.Urgency
	ticket.Normalize()

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if len(input.RemoveAttachmentIDs) > 0 {
		removals, err := s.attachments.GetTicketAttachments(ctx, ticket.ID, input.RemoveAttachmentIDs)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for _, att := range removals {
			if err := s.attachments.Delete(ctx, att.ID); err != nil {
				return nil, apperrors.MapError(err)
			}
			// Backing file may already be gone; that is fine.
			_ = s.files.Delete(att.StorageKey)
		}
	}
	if err := s.storeAttachments(ctx, domain.AttachmentOwnerTicket, ticket.ID, input.NewAttachments); err != nil {
		return nil, err
	}
	return ticket, nil
}

// AcceptTicket lets a staff or admin user claim an unassigned ticket in
// their department. The claim is conditional on the assignee still
// being null, so concurrent accepts resolve to exactly one winner.
func (s *TicketService) AcceptTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !actor.Role.IsOperator() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewInvalidState("ticket is closed", map[string]any{"status": ticket.Status})
	}
	if ticket.AssigneeID != nil {
		return nil, apperrors.NewConflict("ticket already assigned", nil)
	}
	if !actor.WorksDepartment(ticket.Category) {
		return nil, apperrors.NewForbidden("ticket belongs to another department")
	}
	return s.claim(ctx, ticket.ID, actor.ID, actor.ID, false)
}

// AssignTicket lets an admin hand an unassigned ticket to a staff user
// of the matching department.
func (s *TicketService) AssignTicket(ctx context.Context, admin *domain.User, ticketID, assigneeID string) (*domain.Ticket, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff user", map[string]any{"user_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if assignee.Role != domain.RoleStaff {
		return nil, apperrors.NewValidationError("assignee must be a staff user", map[string]any{"role": assignee.Role})
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewInvalidState("ticket is closed", map[string]any{"status": ticket.Status})
	}
	if ticket.AssigneeID != nil {
		return nil, apperrors.NewConflict("ticket already assigned", nil)
	}
	if !assignee.WorksDepartment(ticket.Category) {
		return nil, apperrors.NewValidationError("department mismatch", map[string]any{
			"category":   ticket.Category,
			"department": assignee.Department,
		})
	}
	return s.claim(ctx, ticket.ID, assignee.ID, admin.ID, true)
}

// claim runs the conditional update and maps a lost race to CONFLICT.
func (s *TicketService) claim(ctx context.Context, ticketID, assigneeID, actorID string, byAdmin bool) (*domain.Ticket, error) {
	ticket, err := s.tickets.Claim(ctx, ticketID, assigneeID, byAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The ticket existed a moment ago, so a vanished row means
			// someone else claimed it first.
			return nil, apperrors.NewConflict("ticket already assigned", nil)
		}
		return nil, apperrors.MapError(err)
	}
	s.invalidateDashboards(ctx, ticket)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload: events.TicketAssignedPayload{
			AssigneeID:      ticket.AssigneeID,
			AssignedByAdmin: byAdmin,
		},
	})
	return ticket, nil
}

// ReassignTicket moves an open ticket to another operator, or back to
// the unassigned pool when assigneeID is nil.
func (s *TicketService) ReassignTicket(ctx context.Context, admin *domain.User, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewInvalidState("finalized or cancelled tickets cannot be reassigned", map[string]any{"status": ticket.Status})
	}

	oldAssignee := ticket.AssigneeID
	if assigneeID == nil {
		ticket.AssigneeID = nil
		ticket.AssignedByAdmin = false
		if ticket.Status == domain.TicketStatusInProcess {
			ticket.Status = domain.TicketStatusGenerated
		}
	} else {
		assignee, err := s.users.GetByID(ctx, *assigneeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("staff user", map[string]any{"user_id": *assigneeID})
			}
			return nil, apperrors.MapError(err)
		}
		if !assignee.Role.IsOperator() {
			return nil, apperrors.NewValidationError("assignee must be staff or admin", map[string]any{"role": assignee.Role})
		}
		if !assignee.WorksDepartment(ticket.Category) {
			return nil, apperrors.NewValidationError("department mismatch", map[string]any{
				"category":   ticket.Category,
				"department": assignee.Department,
			})
		}
		ticket.AssigneeID = &assignee.ID
	}
	ticket.Normalize()

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateDashboards(ctx, ticket)
	if oldAssignee != nil {
		s.dashboards.Invalidate(ctx, *oldAssignee)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  admin.ID,
		Payload: events.TicketAssignedPayload{
			AssigneeID:      ticket.AssigneeID,
			AssignedByAdmin: ticket.AssignedByAdmin,
		},
	})
	return ticket, nil
}

// CompleteTicket finalizes a ticket with its one-time report. Only the
// current assignee may complete. The creator is notified best-effort
// through the finalized event; notification failure never rolls back
// the transition.
func (s *TicketService) CompleteTicket(ctx context.Context, actor *domain.User, ticketID string, input TicketCompleteInput) (*domain.FinalizationReport, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.AssigneeID == nil || *ticket.AssigneeID != actor.ID {
		return nil, apperrors.NewForbidden("only the assignee may complete this ticket")
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewInvalidState("ticket is closed", map[string]any{"status": ticket.Status})
	}
	if strings.TrimSpace(input.Report) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("report and description are required", nil)
	}
	if err := validateUploads(input.Attachments); err != nil {
		return nil, err
	}

	report := &domain.FinalizationReport{
		TicketID:    ticket.ID,
		Title:       ticket.Title,
		Report:      strings.TrimSpace(input.Report),
		Description: strings.TrimSpace(input.Description),
		Notes:       strings.TrimSpace(input.Notes),
		AuthorID:    actor.ID,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.storeAttachments(ctx, domain.AttachmentOwnerReport, report.ID, input.Attachments); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusFinalized
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateDashboards(ctx, ticket)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		},
	})

	payload := events.TicketFinalizedPayload{
		ReportID:       report.ID,
		CreatorID:      ticket.CreatorID,
		TicketTitle:    ticket.Title,
		TicketDesc:     ticket.Description,
		CompletedAtUTC: time.Now().UTC().Format("02/01/2006 15:04"),
	}
	if creator, err := s.users.GetByID(ctx, ticket.CreatorID); err == nil {
		payload.CreatorEmail = creator.Email
		payload.CreatorName = creator.FirstName
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketFinalized,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  payload,
	})
	return report, nil
}

// CancelTicket cancels an open ticket with a required motive. Creator
// or admin only. Cancelling an already-cancelled ticket returns the
// existing record instead of erroring.
func (s *TicketService) CancelTicket(ctx context.Context, actor *domain.User, ticketID, reason string) (*domain.CancellationReason, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatorID != actor.ID && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only the creator or an admin may cancel this ticket")
	}
	if ticket.Status == domain.TicketStatusCancelled {
		existing, err := s.cancellations.GetByTicket(ctx, ticket.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("cancellation record", nil)
			}
			return nil, apperrors.MapError(err)
		}
		return existing, nil
	}
	if ticket.Status == domain.TicketStatusFinalized {
		return nil, apperrors.NewInvalidState("finalized tickets cannot be cancelled", nil)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("cancellation motive is required", nil)
	}

	record := &domain.CancellationReason{
		TicketID: ticket.ID,
		Reason:   strings.TrimSpace(reason),
		AuthorID: actor.ID,
	}
	if err := s.cancellations.Create(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusCancelled
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateDashboards(ctx, ticket)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCancelled,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketCancelledPayload{Reason: record.Reason},
	})
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		},
	})
	return record, nil
}

// HoldTicket parks an open ticket with a motive. Admin only. The hold
// reason is a single record per ticket, updated in place on repeat
// holds.
func (s *TicketService) HoldTicket(ctx context.Context, admin *domain.User, ticketID, reason string) (*domain.HoldReason, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewInvalidState("finalized or cancelled tickets cannot be put on hold", map[string]any{"status": ticket.Status})
	}
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("hold motive is required", nil)
	}

	record := &domain.HoldReason{
		TicketID: ticket.ID,
		Reason:   trimmed,
		AuthorID: admin.ID,
	}
	if err := s.holds.Upsert(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusOnHold
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateDashboards(ctx, ticket)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketHeld,
		TicketID: ticket.ID,
		ActorID:  admin.ID,
		Payload:  events.TicketHeldPayload{Reason: record.Reason},
	})
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  admin.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		},
	})
	return record, nil
}

// ViewHoldReason returns the hold reason read-only for anyone with view
// rights on the ticket.
func (s *TicketService) ViewHoldReason(ctx context.Context, actor *domain.User, ticketID string) (*domain.HoldReason, error) {
	ticket, err := s.viewableTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	record, err := s.holds.GetByTicket(ctx, ticket.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("hold reason", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// ViewCancellation returns the cancellation record for anyone with view
// rights on the ticket.
func (s *TicketService) ViewCancellation(ctx context.Context, actor *domain.User, ticketID string) (*domain.CancellationReason, error) {
	ticket, err := s.viewableTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	record, err := s.cancellations.GetByTicket(ctx, ticket.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("cancellation record", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// ChangeStatus is the admin override for ticket status. Terminal
// tickets stay terminal, and finalized requires an existing report.
func (s *TicketService) ChangeStatus(ctx context.Context, admin *domain.User, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() && newStatus != ticket.Status {
		return nil, apperrors.NewInvalidState("ticket is closed", map[string]any{"status": ticket.Status})
	}
	if newStatus == domain.TicketStatusFinalized {
		if _, err := s.reports.GetByTicket(ctx, ticket.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewInvalidState("cannot finalize without a finalization report", nil)
			}
			return nil, apperrors.MapError(err)
		}
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	ticket.Normalize()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateDashboards(ctx, ticket)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  admin.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		},
	})
	return ticket, nil
}

// ChangeUrgency updates the urgency rank and returns the old and new
// display labels for the caller to present.
func (s *TicketService) ChangeUrgency(ctx context.Context, admin *domain.User, ticketID string, newUrgency domain.Urgency) (oldLabel, newLabel string, err error) {
	if err := requireAdmin(admin); err != nil {
		return "", "", err
	}
	if !newUrgency.Valid() {
		return "", "", apperrors.NewValidationError("unknown urgency level", map[string]any{"urgency": newUrgency})
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return "", "", err
	}

	oldUrgency := ticket.Urgency
	ticket.Urgency = newUrgency
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return "", "", apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketUrgencyChanged,
		TicketID: ticket.ID,
		ActorID:  admin.ID,
		Payload: events.TicketUrgencyChangedPayload{
			OldUrgency: oldUrgency,
			NewUrgency: newUrgency,
		},
	})
	return oldUrgency.Label(), newUrgency.Label(), nil
}

// DeleteTicket permanently removes a ticket, its side records and
// attachment files. Admin only.
func (s *TicketService) DeleteTicket(ctx context.Context, admin *domain.User, ticketID string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	// Collect storage keys before the cascade wipes the rows.
	keys := []string{}
	if attachments, err := s.attachments.ListByTicket(ctx, ticket.ID); err == nil {
		for _, att := range attachments {
			keys = append(keys, att.StorageKey)
		}
	}
	if report, err := s.reports.GetByTicket(ctx, ticket.ID); err == nil {
		if attachments, err := s.attachments.ListByReport(ctx, report.ID); err == nil {
			for _, att := range attachments {
				keys = append(keys, att.StorageKey)
			}
		}
	}

	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}
	for _, key := range keys {
		_ = s.files.Delete(key)
	}
	s.invalidateDashboards(ctx, ticket)
	return nil
}

// GetTicket returns a ticket and its attachments for a viewer with
// rights on it: creator, assignee, or any admin/staff account.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, []domain.Attachment, error) {
	ticket, err := s.viewableTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, attachments, nil
}

// ViewReport returns the finalization report to the ticket creator and
// flips the seen flag on first view.
func (s *TicketService) ViewReport(ctx context.Context, actor *domain.User, ticketID string) (*domain.FinalizationReport, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatorID != actor.ID {
		return nil, apperrors.NewForbidden("only the ticket creator may view the report")
	}
	report, err := s.reports.GetByTicket(ctx, ticket.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("finalization report", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !report.SeenByCreator {
		if err := s.reports.MarkSeen(ctx, report.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
		report.SeenByCreator = true
	}
	attachments, err := s.attachments.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report.Attachments = attachments
	return report, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) viewableTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.ViewableBy(actor) {
		return nil, apperrors.NewForbidden("no access to this ticket")
	}
	return ticket, nil
}

func (s *TicketService) storeAttachments(ctx context.Context, owner domain.AttachmentOwner, ownerID string, uploads []AttachmentUpload) error {
	for _, upload := range uploads {
		key, err := s.files.Save(upload.FileName, upload.Data)
		if err != nil {
			return apperrors.MapError(err)
		}
		record := &domain.Attachment{
			OwnerType:  owner,
			OwnerID:    ownerID,
			StorageKey: key,
			FileName:   upload.FileName,
			MimeType:   upload.ContentType,
			SizeBytes:  int64(len(upload.Data)),
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			_ = s.files.Delete(key)
			return apperrors.MapError(err)
		}
	}
	return nil
}

func validateUploads(uploads []AttachmentUpload) error {
	for _, upload := range uploads {
		if !strings.HasPrefix(upload.ContentType, "image/") {
			return apperrors.NewValidationError("only image files are allowed", map[string]any{"file": upload.FileName})
		}
		ext := strings.ToLower(filepath.Ext(upload.FileName))
		if _, ok := allowedImageExts[ext]; !ok {
			return apperrors.NewValidationError("file extension not allowed", map[string]any{"file": upload.FileName})
		}
	}
	return nil
}

func requireAdmin(user *domain.User) error {
	if user == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if user.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func (s *TicketService) invalidateDashboards(ctx context.Context, ticket *domain.Ticket) {
	ids := []string{ticket.CreatorID}
	if ticket.AssigneeID != nil {
		ids = append(ids, *ticket.AssigneeID)
	}
	s.dashboards.Invalidate(ctx, ids...)
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
