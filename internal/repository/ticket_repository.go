package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportek/helpdesk/internal/domain"
)

// TicketOrder selects the fixed status-rank ordering applied before the
// creation-time tiebreak.
type TicketOrder int

const (
	// OrderPersonal ranks generated < on_hold < in_process < finalized < cancelled.
	OrderPersonal TicketOrder = iota
	// OrderActive ranks on_hold < in_process < generated; used for the
	// admin view of every ticket currently being worked.
	OrderActive
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CreatorID       *string
	AssigneeID      *string
	Category        *domain.Department
	Statuses        []domain.TicketStatus
	ExcludeStatuses []domain.TicketStatus
	Urgency         *domain.Urgency
	Search          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	UnassignedOnly  bool
	AssignedOnly    bool
	Order           TicketOrder
	Limit           int
	Offset          int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// Claim atomically assigns an unassigned ticket. It returns
	// pgx.ErrNoRows when the ticket id does not resolve or the ticket is
	// already claimed; callers distinguish the two by re-reading.
	Claim(ctx context.Context, ticketID, assigneeID string, byAdmin bool) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, notes, category, urgency, status, creator_id, assignee_id, assigned_by_admin, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, notes, category, urgency, status, creator_id, assignee_id, assigned_by_admin)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Notes,
		ticket.Category,
		ticket.Urgency,
		ticket.Status,
		ticket.CreatorID,
		ticket.AssigneeID,
		ticket.AssignedByAdmin,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, notes=$3, category=$4, urgency=$5,
            status=$6, assignee_id=$7, assigned_by_admin=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Notes,
		ticket.Category,
		ticket.Urgency,
		ticket.Status,
		ticket.AssigneeID,
		ticket.AssignedByAdmin,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(scanTargets(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Claim performs the conditional update guarding the accept/assign race:
// the WHERE clause only matches while the ticket is unassigned, so of
// two concurrent claims exactly one sees an affected row.
func (r *ticketRepository) Claim(ctx context.Context, ticketID, assigneeID string, byAdmin bool) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET assignee_id=$1, assigned_by_admin=$2, status=$3, updated_at=NOW()
        WHERE id=$4 AND assignee_id IS NULL
        RETURNING ` + ticketColumns
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query,
		assigneeID,
		byAdmin,
		domain.TicketStatusInProcess,
		ticketID,
	).Scan(scanTargets(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := buildTicketClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s, created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), statusRankExpr(filter.Order), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int64, error) {
	clauses, args := buildTicketClauses(filter)
	query := fmt.Sprintf(`SELECT status, COUNT(*) FROM tickets WHERE %s GROUP BY status`,
		strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int64)
	for rows.Next() {
		var status domain.TicketStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func buildTicketClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("creator_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.ExcludeStatuses) > 0 {
		placeholders := make([]string, len(filter.ExcludeStatuses))
		for i, status := range filter.ExcludeStatuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status NOT IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Urgency != nil {
		args = append(args, *filter.Urgency)
		clauses = append(clauses, fmt.Sprintf("urgency=$%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.UnassignedOnly {
		clauses = append(clauses, "assignee_id IS NULL")
	}
	if filter.AssignedOnly {
		clauses = append(clauses, "assignee_id IS NOT NULL")
	}
	return clauses, args
}

func statusRankExpr(order TicketOrder) string {
	switch order {
	case OrderActive:
		return `CASE status
            WHEN 'on_hold' THEN 1
            WHEN 'in_process' THEN 2
            WHEN 'generated' THEN 3
            ELSE 4 END`
	default:
		return `CASE status
            WHEN 'generated' THEN 1
            WHEN 'on_hold' THEN 2
            WHEN 'in_process' THEN 3
            WHEN 'finalized' THEN 4
            WHEN 'cancelled' THEN 5
            ELSE 6 END`
	}
}

func scanTargets(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Notes,
		&ticket.Category,
		&ticket.Urgency,
		&ticket.Status,
		&ticket.CreatorID,
		&ticket.AssigneeID,
		&ticket.AssignedByAdmin,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(scanTargets(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
