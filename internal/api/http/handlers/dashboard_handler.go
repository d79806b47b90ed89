package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soportek/helpdesk/internal/api/dto"
	"github.com/soportek/helpdesk/internal/auth"
	"github.com/soportek/helpdesk/internal/domain"
	"github.com/soportek/helpdesk/internal/service"
)

// DashboardHandler exposes the role-dependent landing views.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// PersonalTickets GET /dashboard/tickets.
func (h *DashboardHandler) PersonalTickets(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	tickets, err := h.service.PersonalTickets(c.Context(), user, parseListQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// AssignedTickets GET /dashboard/assigned.
func (h *DashboardHandler) AssignedTickets(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	tickets, err := h.service.AssignedTickets(c.Context(), user, parseListQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// DepartmentQueue GET /dashboard/queue.
func (h *DashboardHandler) DepartmentQueue(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	tickets, err := h.service.DepartmentQueue(c.Context(), user, parseListQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// ActiveBoard GET /dashboard/active.
func (h *DashboardHandler) ActiveBoard(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	tickets, err := h.service.ActiveBoard(c.Context(), user, parseListQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// StatusCounts GET /dashboard/counts.
func (h *DashboardHandler) StatusCounts(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	counts, err := h.service.StatusCounts(c.Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// PendingReports GET /dashboard/reports/pending.
func (h *DashboardHandler) PendingReports(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	reports, err := h.service.PendingReports(c.Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponses(reports)})
}

// SeenReports GET /dashboard/reports/seen.
func (h *DashboardHandler) SeenReports(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	reports, err := h.service.SeenReports(c.Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponses(reports)})
}

func parseListQuery(c *fiber.Ctx) service.TicketListInput {
	input := service.TicketListInput{Search: c.Query("search")}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				input.Statuses = append(input.Statuses, domain.TicketStatus(part))
			}
		}
	}
	if raw := c.Query("urgency"); raw != "" {
		if level, err := strconv.Atoi(raw); err == nil {
			urgency := domain.Urgency(level)
			input.Urgency = &urgency
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	input.Offset = (page - 1) * pageSize
	input.Limit = pageSize
	return input
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return items
}

func reportResponses(reports []domain.FinalizationReport) []dto.ReportResponse {
	items := make([]dto.ReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, dto.NewReportResponse(&reports[i]))
	}
	return items
}
