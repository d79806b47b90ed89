package domain

import "time"

// AttachmentOwner identifies which aggregate an attachment belongs to.
type AttachmentOwner string

const (
	AttachmentOwnerTicket AttachmentOwner = "ticket"
	AttachmentOwnerReport AttachmentOwner = "report"
)

// Attachment is an uploaded image belonging to a ticket or to a
// finalization report.
type Attachment struct {
	ID         string
	OwnerType  AttachmentOwner
	OwnerID    string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
