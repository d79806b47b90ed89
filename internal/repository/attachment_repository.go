package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportek/helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata for tickets and
// finalization reports.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	ListByReport(ctx context.Context, reportID string) ([]domain.Attachment, error)
	// GetTicketAttachments resolves the given ids scoped to one ticket;
	// ids belonging to other tickets are silently dropped.
	GetTicketAttachments(ctx context.Context, ticketID string, ids []string) ([]domain.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	var ticketID, reportID *string
	switch attachment.OwnerType {
	case domain.AttachmentOwnerReport:
		reportID = &attachment.OwnerID
	default:
		ticketID = &attachment.OwnerID
	}

	const query = `
        INSERT INTO attachments (ticket_id, report_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticketID,
		reportID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.MimeType,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM attachments WHERE ticket_id=$1 ORDER BY created_at`
	return r.list(ctx, query, domain.AttachmentOwnerTicket, ticketID)
}

func (r *attachmentRepository) ListByReport(ctx context.Context, reportID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM attachments WHERE report_id=$1 ORDER BY created_at`
	return r.list(ctx, query, domain.AttachmentOwnerReport, reportID)
}

func (r *attachmentRepository) list(ctx context.Context, query string, owner domain.AttachmentOwner, ownerID string) ([]domain.Attachment, error) {
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		attachment := domain.Attachment{OwnerType: owner, OwnerID: ownerID}
		if err := rows.Scan(
			&attachment.ID,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.MimeType,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) GetTicketAttachments(ctx context.Context, ticketID string, ids []string) ([]domain.Attachment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := []any{ticketID}
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`
        SELECT id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM attachments WHERE ticket_id=$1 AND id IN (%s)`,
		strings.Join(placeholders, ","))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		attachment := domain.Attachment{OwnerType: domain.AttachmentOwnerTicket, OwnerID: ticketID}
		if err := rows.Scan(
			&attachment.ID,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.MimeType,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
