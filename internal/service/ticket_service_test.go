package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/soportek/helpdesk/internal/domain"
	"github.com/soportek/helpdesk/internal/events"
	"github.com/soportek/helpdesk/internal/repository"
	apperrors "github.com/soportek/helpdesk/pkg/util"
)

type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	nextID  int
	// getHook mutates the copy returned by GetByID, used to simulate a
	// stale read racing a concurrent claim.
	getHook func(*domain.Ticket)
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	if r.getHook != nil {
		r.getHook(&clone)
	}
	return &clone, nil
}

func (r *fakeTicketRepo) Claim(_ context.Context, ticketID, assigneeID string, byAdmin bool) (*domain.Ticket, error) {
	ticket, ok := r.tickets[ticketID]
	if !ok || ticket.AssigneeID != nil {
		return nil, pgx.ErrNoRows
	}
	ticket.AssigneeID = &assigneeID
	ticket.AssignedByAdmin = byAdmin
	ticket.Status = domain.TicketStatusInProcess
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatorID != nil && ticket.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.UnassignedOnly && ticket.AssigneeID != nil {
			continue
		}
		if filter.Category != nil && ticket.Category != *filter.Category {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.ExcludeStatuses) > 0 && containsStatus(filter.ExcludeStatuses, ticket.Status) {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) CountByStatus(_ context.Context, filter repository.TicketFilter) (map[domain.TicketStatus]int64, error) {
	counts := make(map[domain.TicketStatus]int64)
	tickets, _ := r.ListWithFilter(context.Background(), filter)
	for _, ticket := range tickets {
		counts[ticket.Status]++
	}
	return counts, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		clone := *user
		repo.users[user.ID] = &clone
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	if user, err := r.GetByEmail(context.Background(), login); err == nil {
		return user, nil
	}
	for _, user := range r.users {
		if strings.EqualFold(user.FirstName, login) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Admitted != nil && user.Admitted != *filter.Admitted {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

func (r *fakeUserRepo) AdmittedAdminExists(_ context.Context) (bool, error) {
	for _, user := range r.users {
		if user.Role == domain.RoleAdmin && user.Admitted {
			return true, nil
		}
	}
	return false, nil
}

type fakeAttachmentRepo struct {
	attachments map[string]*domain.Attachment
	nextID      int
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[string]*domain.Attachment)}
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	r.nextID++
	attachment.ID = fmt.Sprintf("att-%d", r.nextID)
	clone := *attachment
	r.attachments[attachment.ID] = &clone
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	return r.listOwned(domain.AttachmentOwnerTicket, ticketID), nil
}

func (r *fakeAttachmentRepo) ListByReport(_ context.Context, reportID string) ([]domain.Attachment, error) {
	return r.listOwned(domain.AttachmentOwnerReport, reportID), nil
}

func (r *fakeAttachmentRepo) listOwned(owner domain.AttachmentOwner, ownerID string) []domain.Attachment {
	var result []domain.Attachment
	for _, att := range r.attachments {
		if att.OwnerType == owner && att.OwnerID == ownerID {
			result = append(result, *att)
		}
	}
	return result
}

func (r *fakeAttachmentRepo) GetTicketAttachments(_ context.Context, ticketID string, ids []string) ([]domain.Attachment, error) {
	var result []domain.Attachment
	for _, id := range ids {
		att, ok := r.attachments[id]
		if ok && att.OwnerType == domain.AttachmentOwnerTicket && att.OwnerID == ticketID {
			result = append(result, *att)
		}
	}
	return result, nil
}

func (r *fakeAttachmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.attachments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.attachments, id)
	return nil
}

type fakeReportRepo struct {
	reports map[string]*domain.FinalizationReport
	nextID  int
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]*domain.FinalizationReport)}
}

func (r *fakeReportRepo) Create(_ context.Context, report *domain.FinalizationReport) error {
	if _, ok := r.reports[report.TicketID]; ok {
		return errors.New("duplicate report for ticket")
	}
	r.nextID++
	report.ID = fmt.Sprintf("report-%d", r.nextID)
	clone := *report
	r.reports[report.TicketID] = &clone
	return nil
}

func (r *fakeReportRepo) GetByTicket(_ context.Context, ticketID string) (*domain.FinalizationReport, error) {
	report, ok := r.reports[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *report
	return &clone, nil
}

func (r *fakeReportRepo) MarkSeen(_ context.Context, reportID string) error {
	for _, report := range r.reports {
		if report.ID == reportID {
			report.SeenByCreator = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeReportRepo) ListByCreator(_ context.Context, _ string, _ bool) ([]domain.FinalizationReport, error) {
	return nil, nil
}

type fakeHoldRepo struct {
	reasons map[string]*domain.HoldReason
	upserts int
	nextID  int
}

func newFakeHoldRepo() *fakeHoldRepo {
	return &fakeHoldRepo{reasons: make(map[string]*domain.HoldReason)}
}

func (r *fakeHoldRepo) Upsert(_ context.Context, reason *domain.HoldReason) error {
	r.upserts++
	if existing, ok := r.reasons[reason.TicketID]; ok {
		existing.Reason = reason.Reason
		existing.AuthorID = reason.AuthorID
		reason.ID = existing.ID
		return nil
	}
	r.nextID++
	reason.ID = fmt.Sprintf("hold-%d", r.nextID)
	clone := *reason
	r.reasons[reason.TicketID] = &clone
	return nil
}

func (r *fakeHoldRepo) GetByTicket(_ context.Context, ticketID string) (*domain.HoldReason, error) {
	reason, ok := r.reasons[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *reason
	return &clone, nil
}

type fakeCancellationRepo struct {
	reasons map[string]*domain.CancellationReason
	creates int
	nextID  int
}

func newFakeCancellationRepo() *fakeCancellationRepo {
	return &fakeCancellationRepo{reasons: make(map[string]*domain.CancellationReason)}
}

func (r *fakeCancellationRepo) Create(_ context.Context, reason *domain.CancellationReason) error {
	if _, ok := r.reasons[reason.TicketID]; ok {
		return errors.New("duplicate cancellation for ticket")
	}
	r.creates++
	r.nextID++
	reason.ID = fmt.Sprintf("cancel-%d", r.nextID)
	clone := *reason
	r.reasons[reason.TicketID] = &clone
	return nil
}

func (r *fakeCancellationRepo) GetByTicket(_ context.Context, ticketID string) (*domain.CancellationReason, error) {
	reason, ok := r.reasons[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *reason
	return &clone, nil
}

type fakeFileStore struct {
	files  map[string][]byte
	nextID int
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: make(map[string][]byte)}
}

func (s *fakeFileStore) Save(_ string, data []byte) (string, error) {
	s.nextID++
	key := fmt.Sprintf("file-%d", s.nextID)
	s.files[key] = data
	return key, nil
}

func (s *fakeFileStore) Delete(key string) error {
	delete(s.files, key)
	return nil
}

func (s *fakeFileStore) Path(key string) string { return key }

type fixture struct {
	service       *TicketService
	tickets       *fakeTicketRepo
	users         *fakeUserRepo
	attachments   *fakeAttachmentRepo
	reports       *fakeReportRepo
	holds         *fakeHoldRepo
	cancellations *fakeCancellationRepo
	files         *fakeFileStore
	dispatcher    events.Dispatcher

	creator *domain.User
	staff   *domain.User
	devDept *domain.User
	admin   *domain.User
}

func newFixture() *fixture {
	infra := domain.DepartmentInfrastructure
	dev := domain.DepartmentDevelopment

	creator := &domain.User{ID: "user-1", FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com", Role: domain.RoleRegular, Admitted: true}
	staff := &domain.User{ID: "staff-1", FirstName: "Luis", Email: "luis@example.com", Role: domain.RoleStaff, Department: &infra, Admitted: true}
	devStaff := &domain.User{ID: "staff-2", FirstName: "Marta", Email: "marta@example.com", Role: domain.RoleStaff, Department: &dev, Admitted: true}
	admin := &domain.User{ID: "admin-1", FirstName: "Root", Email: "root@example.com", Role: domain.RoleAdmin, Department: &infra, Admitted: true}

	f := &fixture{
		tickets:       newFakeTicketRepo(),
		users:         newFakeUserRepo(creator, staff, devStaff, admin),
		attachments:   newFakeAttachmentRepo(),
		reports:       newFakeReportRepo(),
		holds:         newFakeHoldRepo(),
		cancellations: newFakeCancellationRepo(),
		files:         newFakeFileStore(),
		dispatcher:    events.NewInMemoryDispatcher(),
		creator:       creator,
		staff:         staff,
		devDept:       devStaff,
		admin:         admin,
	}
	f.service = NewTicketService(TicketDependencies{
		TicketRepo:       f.tickets,
		UserRepo:         f.users,
		AttachmentRepo:   f.attachments,
		ReportRepo:       f.reports,
		HoldReasonRepo:   f.holds,
		CancellationRepo: f.cancellations,
		FileStore:        f.files,
		Dispatcher:       f.dispatcher,
	})
	return f
}

func (f *fixture) newTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.CreateTicket(context.Background(), f.creator, TicketCreateInput{
		Title:       "Printer down",
		Description: "Third floor printer rejects every job",
		Category:    domain.DepartmentInfrastructure,
		Urgency:     domain.UrgencyHigh,
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestCreateTicketStartsGenerated(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	if ticket.Status != domain.TicketStatusGenerated {
		t.Fatalf("expected generated, got %s", ticket.Status)
	}
	if ticket.AssigneeID != nil {
		t.Fatal("new ticket must be unassigned")
	}
}

func TestCreateTicketRejectsBadAttachment(t *testing.T) {
	f := newFixture()
	_, err := f.service.CreateTicket(context.Background(), f.creator, TicketCreateInput{
		Title:       "Broken screen",
		Description: "Cracked on arrival",
		Category:    domain.DepartmentTechnicalSupport,
		Attachments: []AttachmentUpload{
			{FileName: "photo.png", ContentType: "image/png", Data: []byte("ok")},
			{FileName: "notes.pdf", ContentType: "application/pdf", Data: []byte("bad")},
		},
	})
	assertCode(t, err, "VALIDATION_FAILED")

	if len(f.tickets.tickets) != 0 {
		t.Fatal("ticket persisted despite invalid attachment")
	}
	if len(f.files.files) != 0 {
		t.Fatal("files stored despite invalid attachment")
	}
}

func TestCreateTicketRejectsSpoofedExtension(t *testing.T) {
	f := newFixture()
	_, err := f.service.CreateTicket(context.Background(), f.creator, TicketCreateInput{
		Title:       "Spoof",
		Description: "content type lies",
		Category:    domain.DepartmentTechnicalSupport,
		Attachments: []AttachmentUpload{
			{FileName: "script.exe", ContentType: "image/png", Data: []byte("x")},
		},
	})
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestAcceptTicket(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	accepted, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != domain.TicketStatusInProcess {
		t.Fatalf("expected in_process, got %s", accepted.Status)
	}
	if accepted.AssigneeID == nil || *accepted.AssigneeID != f.staff.ID {
		t.Fatal("assignee not set")
	}
	if accepted.AssignedByAdmin {
		t.Fatal("self-accept must not be flagged as admin assignment")
	}
}

func TestAcceptTicketDepartmentMismatch(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	_, err := f.service.AcceptTicket(context.Background(), f.devDept, ticket.ID)
	assertCode(t, err, "FORBIDDEN")
}

func TestAcceptTicketRegularUserForbidden(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	_, err := f.service.AcceptTicket(context.Background(), f.creator, ticket.ID)
	assertCode(t, err, "FORBIDDEN")
}

func TestAcceptTicketAlreadyAssigned(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err := f.service.AcceptTicket(context.Background(), f.admin, ticket.ID)
	assertCode(t, err, "CONFLICT")
}

func TestAcceptTicketLosesRace(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	// The precondition read sees the ticket unassigned, but by claim
	// time another operator has taken it.
	other := "staff-2"
	stored := f.tickets.tickets[ticket.ID]
	stored.AssigneeID = &other
	stored.Status = domain.TicketStatusInProcess
	f.tickets.getHook = func(tk *domain.Ticket) {
		tk.AssigneeID = nil
		tk.Status = domain.TicketStatusGenerated
	}

	_, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID)
	assertCode(t, err, "CONFLICT")

	if *f.tickets.tickets[ticket.ID].AssigneeID != other {
		t.Fatal("winner's assignment was overwritten")
	}
}

func TestAssignTicket(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	assigned, err := f.service.AssignTicket(context.Background(), f.admin, ticket.ID, f.staff.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !assigned.AssignedByAdmin {
		t.Fatal("admin assignment must be flagged")
	}
	if assigned.Status != domain.TicketStatusInProcess {
		t.Fatalf("expected in_process, got %s", assigned.Status)
	}
}

func TestAssignTicketDepartmentMismatch(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	_, err := f.service.AssignTicket(context.Background(), f.admin, ticket.ID, f.devDept.ID)
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestAssignTicketRejectsRegularTarget(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	_, err := f.service.AssignTicket(context.Background(), f.admin, ticket.ID, f.creator.ID)
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestAssignTicketRequiresAdmin(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	_, err := f.service.AssignTicket(context.Background(), f.staff, ticket.ID, f.staff.ID)
	assertCode(t, err, "FORBIDDEN")
}

func TestReassignTicketNilReturnsToPool(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	updated, err := f.service.ReassignTicket(context.Background(), f.admin, ticket.ID, nil)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if updated.AssigneeID != nil {
		t.Fatal("assignee not cleared")
	}
	if updated.Status != domain.TicketStatusGenerated {
		t.Fatalf("expected generated, got %s", updated.Status)
	}
}

func TestReassignKeepsAssignmentOrigin(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	var assigned []events.TicketAssignedPayload
	f.dispatcher.Subscribe(events.EventTicketAssigned, func(_ context.Context, e events.Event) error {
		assigned = append(assigned, e.Payload.(events.TicketAssignedPayload))
		return nil
	})

	// Moving a self-accepted ticket between operators does not turn it
	// into an admin assignment.
	updated, err := f.service.ReassignTicket(context.Background(), f.admin, ticket.ID, &f.admin.ID)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if updated.AssignedByAdmin {
		t.Fatal("reassign must not flip the admin-assignment flag")
	}
	if len(assigned) != 1 {
		t.Fatalf("expected 1 assigned event, got %d", len(assigned))
	}
	if assigned[0].AssignedByAdmin {
		t.Fatal("event must carry the ticket's admin-assignment flag")
	}
}

func TestReassignTerminalRejected(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.CancelTicket(context.Background(), f.creator, ticket.ID, "no longer needed"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := f.service.ReassignTicket(context.Background(), f.admin, ticket.ID, &f.staff.ID)
	assertCode(t, err, "INVALID_STATE")
}

func TestCompleteTicket(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	var finalized []events.TicketFinalizedPayload
	f.dispatcher.Subscribe(events.EventTicketFinalized, func(_ context.Context, e events.Event) error {
		finalized = append(finalized, e.Payload.(events.TicketFinalizedPayload))
		return nil
	})

	report, err := f.service.CompleteTicket(context.Background(), f.staff, ticket.ID, TicketCompleteInput{
		Report:      "Replaced the fuser unit",
		Description: "Printer back in service",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if report.Title != ticket.Title {
		t.Fatalf("report title %q, want ticket title %q", report.Title, ticket.Title)
	}
	if f.tickets.tickets[ticket.ID].Status != domain.TicketStatusFinalized {
		t.Fatal("ticket not finalized")
	}
	if len(finalized) != 1 {
		t.Fatalf("expected 1 finalized event, got %d", len(finalized))
	}
	if finalized[0].CreatorEmail != f.creator.Email {
		t.Fatalf("event email %q, want %q", finalized[0].CreatorEmail, f.creator.Email)
	}
}

func TestCompleteTicketSurvivesNotificationFailure(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	f.dispatcher.Subscribe(events.EventTicketFinalized, func(_ context.Context, _ events.Event) error {
		return errors.New("smtp unreachable")
	})

	if _, err := f.service.CompleteTicket(context.Background(), f.staff, ticket.ID, TicketCompleteInput{
		Report:      "Done",
		Description: "All good",
	}); err != nil {
		t.Fatalf("complete must not fail on notification error: %v", err)
	}
	if f.tickets.tickets[ticket.ID].Status != domain.TicketStatusFinalized {
		t.Fatal("ticket not finalized")
	}
}

func TestCompleteTicketOnlyAssignee(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := f.service.CompleteTicket(context.Background(), f.admin, ticket.ID, TicketCompleteInput{
		Report:      "x",
		Description: "y",
	})
	assertCode(t, err, "FORBIDDEN")
}

func TestCompleteTicketRequiresReportText(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := f.service.CompleteTicket(context.Background(), f.staff, ticket.ID, TicketCompleteInput{
		Report: "  ",
	})
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestCancelTicketIdempotent(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	first, err := f.service.CancelTicket(context.Background(), f.creator, ticket.ID, "ordered the wrong part")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	second, err := f.service.CancelTicket(context.Background(), f.creator, ticket.ID, "different text ignored")
	if err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
	if second.ID != first.ID || second.Reason != first.Reason {
		t.Fatal("repeat cancel must return the original record")
	}
	if f.cancellations.creates != 1 {
		t.Fatalf("expected 1 cancellation record, got %d", f.cancellations.creates)
	}
}

func TestCancelFinalizedRejected(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.service.CompleteTicket(context.Background(), f.staff, ticket.ID, TicketCompleteInput{
		Report:      "done",
		Description: "done",
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := f.service.CancelTicket(context.Background(), f.creator, ticket.ID, "too late")
	assertCode(t, err, "INVALID_STATE")
}

func TestCancelTicketOnlyCreatorOrAdmin(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	_, err := f.service.CancelTicket(context.Background(), f.staff, ticket.ID, "not mine")
	assertCode(t, err, "FORBIDDEN")

	if _, err := f.service.CancelTicket(context.Background(), f.admin, ticket.ID, "admin closes it"); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
}

func TestHoldTicketUpserts(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	first, err := f.service.HoldTicket(context.Background(), f.admin, ticket.ID, "waiting for parts")
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	second, err := f.service.HoldTicket(context.Background(), f.admin, ticket.ID, "parts delayed again")
	if err != nil {
		t.Fatalf("second hold: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("repeat hold must update the same record")
	}
	if len(f.holds.reasons) != 1 {
		t.Fatalf("expected 1 hold record, got %d", len(f.holds.reasons))
	}
	stored, _ := f.holds.GetByTicket(context.Background(), ticket.ID)
	if stored.Reason != "parts delayed again" {
		t.Fatalf("reason not updated: %q", stored.Reason)
	}
	if f.tickets.tickets[ticket.ID].Status != domain.TicketStatusOnHold {
		t.Fatal("ticket not on hold")
	}
}

func TestHoldTicketRequiresAdmin(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	_, err := f.service.HoldTicket(context.Background(), f.staff, ticket.ID, "nope")
	assertCode(t, err, "FORBIDDEN")
}

func TestChangeStatusTerminalGuard(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.CancelTicket(context.Background(), f.creator, ticket.ID, "mistake"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := f.service.ChangeStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusGenerated)
	assertCode(t, err, "INVALID_STATE")
}

func TestChangeStatusFinalizedRequiresReport(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	_, err := f.service.ChangeStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatusFinalized)
	assertCode(t, err, "INVALID_STATE")
}

func TestChangeStatusUnknownRejected(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	_, err := f.service.ChangeStatus(context.Background(), f.admin, ticket.ID, domain.TicketStatus("archived"))
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestChangeUrgencyReturnsLabels(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	oldLabel, newLabel, err := f.service.ChangeUrgency(context.Background(), f.admin, ticket.ID, domain.UrgencyCritical)
	if err != nil {
		t.Fatalf("change urgency: %v", err)
	}
	if oldLabel != "High" || newLabel != "Critical" {
		t.Fatalf("labels %q -> %q, want High -> Critical", oldLabel, newLabel)
	}
}

func TestEditTicketOnlyWhileGenerated(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := f.service.EditTicket(context.Background(), f.creator, ticket.ID, TicketEditInput{
		Title:       "New title",
		Description: "New description",
		Category:    domain.DepartmentInfrastructure,
		Urgency:     domain.UrgencyLow,
	})
	assertCode(t, err, "INVALID_STATE")
}

func TestEditTicketOnlyCreator(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	_, err := f.service.EditTicket(context.Background(), f.admin, ticket.ID, TicketEditInput{
		Title:       "New title",
		Description: "New description",
		Category:    domain.DepartmentInfrastructure,
		Urgency:     domain.UrgencyLow,
	})
	assertCode(t, err, "FORBIDDEN")
}

func TestViewReportMarksSeenOnce(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.service.CompleteTicket(context.Background(), f.staff, ticket.ID, TicketCompleteInput{
		Report:      "fixed",
		Description: "fixed",
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	report, err := f.service.ViewReport(context.Background(), f.creator, ticket.ID)
	if err != nil {
		t.Fatalf("view report: %v", err)
	}
	if !report.SeenByCreator {
		t.Fatal("first view must mark the report seen")
	}

	again, err := f.service.ViewReport(context.Background(), f.creator, ticket.ID)
	if err != nil {
		t.Fatalf("second view: %v", err)
	}
	if !again.SeenByCreator {
		t.Fatal("seen flag lost")
	}
}

func TestViewReportOnlyCreator(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)
	if _, err := f.service.AcceptTicket(context.Background(), f.staff, ticket.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.service.CompleteTicket(context.Background(), f.staff, ticket.ID, TicketCompleteInput{
		Report:      "fixed",
		Description: "fixed",
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := f.service.ViewReport(context.Background(), f.staff, ticket.ID)
	assertCode(t, err, "FORBIDDEN")
}

func TestGetTicketVisibility(t *testing.T) {
	f := newFixture()
	ticket := f.newTicket(t)

	other := &domain.User{ID: "user-9", Role: domain.RoleRegular, Admitted: true}
	_, _, err := f.service.GetTicket(context.Background(), other, ticket.ID)
	assertCode(t, err, "FORBIDDEN")

	if _, _, err := f.service.GetTicket(context.Background(), f.creator, ticket.ID); err != nil {
		t.Fatalf("creator view: %v", err)
	}
	if _, _, err := f.service.GetTicket(context.Background(), f.devDept, ticket.ID); err != nil {
		t.Fatalf("staff view: %v", err)
	}
}

func TestDeleteTicketRemovesFiles(t *testing.T) {
	f := newFixture()
	ticket, err := f.service.CreateTicket(context.Background(), f.creator, TicketCreateInput{
		Title:       "With photo",
		Description: "See attached",
		Category:    domain.DepartmentTechnicalSupport,
		Attachments: []AttachmentUpload{
			{FileName: "evidence.jpg", ContentType: "image/jpeg", Data: []byte("jpg")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(f.files.files) != 1 {
		t.Fatalf("expected 1 stored file, got %d", len(f.files.files))
	}

	if err := f.service.DeleteTicket(context.Background(), f.admin, ticket.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.files.files) != 0 {
		t.Fatal("attachment files not cleaned up")
	}
	if _, err := f.tickets.GetByID(context.Background(), ticket.ID); err == nil {
		t.Fatal("ticket still present")
	}
}
