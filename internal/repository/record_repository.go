package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportek/helpdesk/internal/domain"
)

// ReportRepository persists finalization reports.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.FinalizationReport) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.FinalizationReport, error)
	MarkSeen(ctx context.Context, reportID string) error
	// ListByCreator returns reports on finalized tickets created by the
	// given user, split by the seen flag.
	ListByCreator(ctx context.Context, creatorID string, seen bool) ([]domain.FinalizationReport, error)
}

// HoldReasonRepository persists the at-most-one hold reason per ticket.
type HoldReasonRepository interface {
	// Upsert creates the reason on first hold and updates text and
	// author in place on later holds.
	Upsert(ctx context.Context, reason *domain.HoldReason) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.HoldReason, error)
}

// CancellationRepository persists the one-time cancellation record.
type CancellationRepository interface {
	Create(ctx context.Context, reason *domain.CancellationReason) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.CancellationReason, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository constructs repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) Create(ctx context.Context, report *domain.FinalizationReport) error {
	const query = `
        INSERT INTO finalization_reports (ticket_id, title, report, description, notes, author_id, seen_by_creator)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		report.TicketID,
		report.Title,
		report.Report,
		report.Description,
		report.Notes,
		report.AuthorID,
		report.SeenByCreator,
	).Scan(&report.ID, &report.CreatedAt)
}

func (r *reportRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.FinalizationReport, error) {
	const query = `
        SELECT id, ticket_id, title, report, description, notes, author_id, seen_by_creator, created_at
        FROM finalization_reports WHERE ticket_id=$1`
	var report domain.FinalizationReport
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&report.ID,
		&report.TicketID,
		&report.Title,
		&report.Report,
		&report.Description,
		&report.Notes,
		&report.AuthorID,
		&report.SeenByCreator,
		&report.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) MarkSeen(ctx context.Context, reportID string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE finalization_reports SET seen_by_creator=TRUE WHERE id=$1`, reportID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reportRepository) ListByCreator(ctx context.Context, creatorID string, seen bool) ([]domain.FinalizationReport, error) {
	const query = `
        SELECT fr.id, fr.ticket_id, fr.title, fr.report, fr.description, fr.notes, fr.author_id, fr.seen_by_creator, fr.created_at
        FROM finalization_reports fr
        JOIN tickets t ON t.id = fr.ticket_id
        WHERE t.creator_id=$1 AND t.status=$2 AND fr.seen_by_creator=$3
        ORDER BY fr.created_at DESC`
	rows, err := r.pool.Query(ctx, query, creatorID, domain.TicketStatusFinalized, seen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FinalizationReport
	for rows.Next() {
		var report domain.FinalizationReport
		if err := rows.Scan(
			&report.ID,
			&report.TicketID,
			&report.Title,
			&report.Report,
			&report.Description,
			&report.Notes,
			&report.AuthorID,
			&report.SeenByCreator,
			&report.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}

type holdReasonRepository struct {
	pool *pgxpool.Pool
}

// NewHoldReasonRepository constructs repository.
func NewHoldReasonRepository(pool *pgxpool.Pool) HoldReasonRepository {
	return &holdReasonRepository{pool: pool}
}

func (r *holdReasonRepository) Upsert(ctx context.Context, reason *domain.HoldReason) error {
	const query = `
        INSERT INTO hold_reasons (ticket_id, reason, author_id)
        VALUES ($1,$2,$3)
        ON CONFLICT (ticket_id) DO UPDATE SET reason=EXCLUDED.reason, author_id=EXCLUDED.author_id, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		reason.TicketID,
		reason.Reason,
		reason.AuthorID,
	).Scan(&reason.ID, &reason.CreatedAt, &reason.UpdatedAt)
}

func (r *holdReasonRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.HoldReason, error) {
	const query = `
        SELECT id, ticket_id, reason, author_id, created_at, updated_at
        FROM hold_reasons WHERE ticket_id=$1`
	var reason domain.HoldReason
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&reason.ID,
		&reason.TicketID,
		&reason.Reason,
		&reason.AuthorID,
		&reason.CreatedAt,
		&reason.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &reason, nil
}

type cancellationRepository struct {
	pool *pgxpool.Pool
}

// NewCancellationRepository constructs repository.
func NewCancellationRepository(pool *pgxpool.Pool) CancellationRepository {
	return &cancellationRepository{pool: pool}
}

func (r *cancellationRepository) Create(ctx context.Context, reason *domain.CancellationReason) error {
	const query = `
        INSERT INTO cancellation_reasons (ticket_id, reason, author_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		reason.TicketID,
		reason.Reason,
		reason.AuthorID,
	).Scan(&reason.ID, &reason.CreatedAt)
}

func (r *cancellationRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.CancellationReason, error) {
	const query = `
        SELECT id, ticket_id, reason, author_id, created_at
        FROM cancellation_reasons WHERE ticket_id=$1`
	var reason domain.CancellationReason
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&reason.ID,
		&reason.TicketID,
		&reason.Reason,
		&reason.AuthorID,
		&reason.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &reason, nil
}
