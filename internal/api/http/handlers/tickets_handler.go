package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soportek/helpdesk/internal/api/dto"
	"github.com/soportek/helpdesk/internal/auth"
	"github.com/soportek/helpdesk/internal/domain"
	"github.com/soportek/helpdesk/internal/service"
	apperrors "github.com/soportek/helpdesk/pkg/util"
)

// TicketsHandler exposes the ticket lifecycle endpoints. Creation,
// editing and completion accept multipart forms so image attachments
// ride along with the fields; the remaining operations take JSON.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)

	uploads, err := collectUploads(c, "attachments")
	if err != nil {
		return err
	}
	input := service.TicketCreateInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Notes:       c.FormValue("notes"),
		Category:    domain.Department(c.FormValue("category")),
		Attachments: uploads,
	}
	if raw := c.FormValue("urgency"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.NewValidationError("urgency must be numeric", nil)
		}
		input.Urgency = domain.Urgency(level)
	}

	ticket, err := h.service.CreateTicket(c.Context(), user, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// EditTicket PUT /tickets/:id.
func (h *TicketsHandler) EditTicket(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)

	uploads, err := collectUploads(c, "attachments")
	if err != nil {
		return err
	}
	input := service.TicketEditInput{
		Title:          c.FormValue("title"),
		Description:    c.FormValue("description"),
		Notes:          c.FormValue("notes"),
		Category:       domain.Department(c.FormValue("category")),
		NewAttachments: uploads,
	}
	if raw := c.FormValue("urgency"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.NewValidationError("urgency must be numeric", nil)
		}
		input.Urgency = domain.Urgency(level)
	}
	if raw := c.FormValue("remove_attachment_ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				input.RemoveAttachmentIDs = append(input.RemoveAttachmentIDs, id)
			}
		}
	}

	ticket, err := h.service.EditTicket(c.Context(), user, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	ticket, attachments, err := h.service.GetTicket(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, attachments)})
}

// AcceptTicket POST /tickets/:id/accept.
func (h *TicketsHandler) AcceptTicket(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	ticket, err := h.service.AcceptTicket(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}
	ticket, err := h.service.AssignTicket(c.Context(), user, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// ReassignTicket POST /tickets/:id/reassign.
func (h *TicketsHandler) ReassignTicket(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	var req dto.ReassignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ReassignTicket(c.Context(), user, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// HoldTicket POST /tickets/:id/hold.
func (h *TicketsHandler) HoldTicket(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	var req dto.HoldTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reason, err := h.service.HoldTicket(c.Context(), user, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHoldReasonResponse(reason)})
}

// GetHoldReason GET /tickets/:id/hold.
func (h *TicketsHandler) GetHoldReason(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	reason, err := h.service.ViewHoldReason(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHoldReasonResponse(reason)})
}

// CancelTicket POST /tickets/:id/cancel.
func (h *TicketsHandler) CancelTicket(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	var req dto.CancelTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	record, err := h.service.CancelTicket(c.Context(), user, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCancellationResponse(record)})
}

// GetCancellation GET /tickets/:id/cancellation.
func (h *TicketsHandler) GetCancellation(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	record, err := h.service.ViewCancellation(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCancellationResponse(record)})
}

// CompleteTicket POST /tickets/:id/complete.
func (h *TicketsHandler) CompleteTicket(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)

	uploads, err := collectUploads(c, "attachments")
	if err != nil {
		return err
	}
	input := service.TicketCompleteInput{
		Report:      c.FormValue("report"),
		Description: c.FormValue("description"),
		Notes:       c.FormValue("notes"),
		Attachments: uploads,
	}
	report, err := h.service.CompleteTicket(c.Context(), user, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewReportResponse(report)})
}

// GetReport GET /tickets/:id/report.
func (h *TicketsHandler) GetReport(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	report, err := h.service.ViewReport(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReportResponse(report)})
}

// ChangeStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ChangeStatus(c.Context(), user, c.Params("id"), domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// ChangeUrgency PATCH /tickets/:id/urgency.
func (h *TicketsHandler) ChangeUrgency(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	var req dto.ChangeUrgencyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	oldLabel, newLabel, err := h.service.ChangeUrgency(c.Context(), user, c.Params("id"), domain.Urgency(req.Urgency))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UrgencyChangeResponse{
		OldUrgency: oldLabel,
		NewUrgency: newLabel,
	}})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	if err := h.service.DeleteTicket(c.Context(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// collectUploads reads multipart files from the named field. A request
// without a multipart body yields no uploads.
func collectUploads(c *fiber.Ctx, field string) ([]service.AttachmentUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	files := form.File[field]
	uploads := make([]service.AttachmentUpload, 0, len(files))
	for _, header := range files {
		data, err := readUpload(header)
		if err != nil {
			return nil, apperrors.NewValidationError("unreadable upload", map[string]any{"file": header.Filename})
		}
		uploads = append(uploads, service.AttachmentUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
