package service

import (
	"context"

	"github.com/soportek/helpdesk/internal/cache"
	"github.com/soportek/helpdesk/internal/domain"
	"github.com/soportek/helpdesk/internal/repository"
	apperrors "github.com/soportek/helpdesk/pkg/util"
)

// DashboardService assembles the role-dependent landing views: personal
// tickets, the department queue for staff, the active board for admins
// and the unseen report list for regular users.
type DashboardService struct {
	tickets    repository.TicketRepository
	reports    repository.ReportRepository
	dashboards *cache.DashboardCache
}

// DashboardDependencies bundles collaborators for the dashboard service.
type DashboardDependencies struct {
	TicketRepo     repository.TicketRepository
	ReportRepo     repository.ReportRepository
	DashboardCache *cache.DashboardCache
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		tickets:    deps.TicketRepo,
		reports:    deps.ReportRepo,
		dashboards: deps.DashboardCache,
	}
}

// TicketListInput carries caller-tunable listing parameters.
type TicketListInput struct {
	Statuses []domain.TicketStatus
	Urgency  *domain.Urgency
	Search   string
	Limit    int
	Offset   int
}

// PersonalTickets lists tickets the user created, open states first.
func (s *DashboardService) PersonalTickets(ctx context.Context, user *domain.User, input TicketListInput) ([]domain.Ticket, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	filter := repository.TicketFilter{
		CreatorID: &user.ID,
		Statuses:  input.Statuses,
		Urgency:   input.Urgency,
		Search:    input.Search,
		Order:     repository.OrderPersonal,
		Limit:     input.Limit,
		Offset:    input.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// AssignedTickets lists the open tickets the operator currently works.
func (s *DashboardService) AssignedTickets(ctx context.Context, user *domain.User, input TicketListInput) ([]domain.Ticket, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !user.Role.IsOperator() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	filter := repository.TicketFilter{
		AssigneeID:      &user.ID,
		Statuses:        input.Statuses,
		ExcludeStatuses: []domain.TicketStatus{domain.TicketStatusCancelled, domain.TicketStatusFinalized},
		Urgency:         input.Urgency,
		Search:          input.Search,
		Order:           repository.OrderActive,
		Limit:           input.Limit,
		Offset:          input.Offset,
	}
	if len(filter.Statuses) > 0 {
		filter.ExcludeStatuses = nil
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// DepartmentQueue lists unassigned generated tickets for the operator's
// department. Admins see every department.
func (s *DashboardService) DepartmentQueue(ctx context.Context, user *domain.User, input TicketListInput) ([]domain.Ticket, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !user.Role.IsOperator() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	filter := repository.TicketFilter{
		Statuses:       []domain.TicketStatus{domain.TicketStatusGenerated},
		Urgency:        input.Urgency,
		Search:         input.Search,
		UnassignedOnly: true,
		Order:          repository.OrderPersonal,
		Limit:          input.Limit,
		Offset:         input.Offset,
	}
	if user.Role == domain.RoleStaff {
		filter.Category = user.Department
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ActiveBoard lists every non-terminal ticket for admins, holds first.
func (s *DashboardService) ActiveBoard(ctx context.Context, admin *domain.User, input TicketListInput) ([]domain.Ticket, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	filter := repository.TicketFilter{
		ExcludeStatuses: []domain.TicketStatus{domain.TicketStatusCancelled, domain.TicketStatusFinalized},
		Urgency:         input.Urgency,
		Search:          input.Search,
		Order:           repository.OrderActive,
		Limit:           input.Limit,
		Offset:          input.Offset,
	}
	if len(input.Statuses) > 0 {
		filter.Statuses = input.Statuses
		filter.ExcludeStatuses = nil
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// StatusCounts returns per-status totals for the user's dashboard
// header, served from the Redis cache when fresh.
func (s *DashboardService) StatusCounts(ctx context.Context, user *domain.User) (map[domain.TicketStatus]int64, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if counts, ok := s.dashboards.GetCounts(ctx, user.ID); ok {
		return counts, nil
	}

	filter := repository.TicketFilter{}
	switch {
	case user.Role == domain.RoleAdmin:
		// Admins count the whole board.
	case user.Role == domain.RoleStaff:
		filter.AssigneeID = &user.ID
	default:
		filter.CreatorID = &user.ID
	}
	counts, err := s.tickets.CountByStatus(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.dashboards.SetCounts(ctx, user.ID, counts)
	return counts, nil
}

// PendingReports returns finalization reports on the user's tickets the
// user has not opened yet.
func (s *DashboardService) PendingReports(ctx context.Context, user *domain.User) ([]domain.FinalizationReport, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	reports, err := s.reports.ListByCreator(ctx, user.ID, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reports, nil
}

// SeenReports returns the reports the user has already opened.
func (s *DashboardService) SeenReports(ctx context.Context, user *domain.User) ([]domain.FinalizationReport, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	reports, err := s.reports.ListByCreator(ctx, user.ID, true)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reports, nil
}
