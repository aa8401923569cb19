package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/internal-crm/internal/domain"
	"github.com/spec-kit/internal-crm/internal/events"
	"github.com/spec-kit/internal-crm/internal/repository"
	apperrors "github.com/spec-kit/internal-crm/pkg/util/errorutil"
)

// memoryTicketRepo is an in-memory stand-in for the postgres repository.
type memoryTicketRepo struct {
	seq     int
	tickets map[string]domain.Ticket
}

func newMemoryTicketRepo() *memoryTicketRepo {
	return &memoryTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *memoryTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("t%d", r.seq)
	ticket.CreatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.seq) * time.Minute)
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	// the store stamps updated_at on every write and hands it back
	ticket.UpdatedAt = ticket.UpdatedAt.Add(time.Second)
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *memoryTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatedByID != nil && ticket.CreatedByID != *filter.CreatedByID {
			continue
		}
		if filter.AssignedStaffID != nil {
			if ticket.AssignedStaffID == nil || *ticket.AssignedStaffID != *filter.AssignedStaffID {
				continue
			}
		}
		out = append(out, ticket)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range d.published {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	repo       *memoryTicketRepo
	dispatcher *recordingDispatcher
	service    *TicketService
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:       newMemoryTicketRepo(),
		dispatcher: &recordingDispatcher{},
		now:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.service = NewTicketService(TicketDependencies{
		TicketRepo: f.repo,
		Dispatcher: f.dispatcher,
		Now:        func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

var (
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	staff    = domain.Actor{ID: "staff-1", Role: domain.RoleStaff}
	resident = domain.Actor{ID: "resident-1", Role: domain.RoleResident}
)

func mustCreate(t *testing.T, f *fixture, actor domain.Actor, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.Create(context.Background(), actor, TicketCreateInput{
		Title:       "leaky faucet",
		Description: "unit 4B, kitchen",
		Priority:    priority,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ticket
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("not a DomainError: %v", err)
	}
	return de.Code
}

func TestCreateDerivesDeadlineFromPriority(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityHigh)

	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status: got %s, want OPEN", ticket.Status)
	}
	if ticket.CreatedByID != resident.ID {
		t.Fatalf("created_by: got %s, want %s", ticket.CreatedByID, resident.ID)
	}
	if ticket.SLADeadline == nil {
		t.Fatalf("no SLA deadline set")
	}
	if want := f.now.Add(24 * time.Hour); !ticket.SLADeadline.Equal(want) {
		t.Fatalf("deadline: got %v, want %v", ticket.SLADeadline, want)
	}
}

func TestCreateDefaultsToMediumPriority(t *testing.T) {
	f := newFixture(t)
	ticket, err := f.service.Create(context.Background(), resident, TicketCreateInput{
		Title:       "noise complaint",
		Description: "unit 2A",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Fatalf("priority: got %s, want MEDIUM", ticket.Priority)
	}
	if want := f.now.Add(48 * time.Hour); !ticket.SLADeadline.Equal(want) {
		t.Fatalf("deadline: got %v, want %v", ticket.SLADeadline, want)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), resident, TicketCreateInput{Title: "  ", Description: "x"})
	if code := domainCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("blank title: got code %s, want VALIDATION_FAILED", code)
	}

	_, err = f.service.Create(context.Background(), resident, TicketCreateInput{
		Title: "x", Description: "y", Priority: domain.TicketPriority("URGENT"),
	})
	if code := domainCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("bad priority: got code %s, want VALIDATION_FAILED", code)
	}
}

func TestCreateForbiddenForStaff(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Create(context.Background(), staff, TicketCreateInput{Title: "x", Description: "y"})
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Fatalf("staff create: got code %s, want FORBIDDEN", code)
	}
}

func TestGetEscalatesOverdueAndPersists(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityHigh)

	f.advance(25 * time.Hour)
	got, err := f.service.Get(context.Background(), resident, ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.TicketStatusOverdue {
		t.Fatalf("status after deadline: got %s, want OVERDUE", got.Status)
	}

	stored := f.repo.tickets[ticket.ID]
	if stored.Status != domain.TicketStatusOverdue {
		t.Fatalf("escalation not persisted: stored status %s", stored.Status)
	}
}

func TestGetErrors(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)

	_, err := f.service.Get(context.Background(), resident, "missing")
	if code := domainCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("missing ticket: got code %s, want NOT_FOUND", code)
	}

	other := domain.Actor{ID: "resident-2", Role: domain.RoleResident}
	_, err = f.service.Get(context.Background(), other, ticket.ID)
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Fatalf("foreign ticket: got code %s, want FORBIDDEN", code)
	}
}

func TestListScopedByRole(t *testing.T) {
	f := newFixture(t)
	mine := mustCreate(t, f, resident, domain.TicketPriorityLow)
	other := domain.Actor{ID: "resident-2", Role: domain.RoleResident}
	theirs := mustCreate(t, f, other, domain.TicketPriorityLow)

	assigned := mustCreate(t, f, admin, domain.TicketPriorityLow)
	staffID := staff.ID
	if _, err := f.service.Update(context.Background(), admin, assigned.ID, domain.TicketChanges{
		Assignment: &domain.StaffAssignment{StaffID: &staffID},
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	adminView, err := f.service.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminView) != 3 {
		t.Fatalf("admin sees %d tickets, want 3", len(adminView))
	}

	staffView, err := f.service.List(context.Background(), staff)
	if err != nil {
		t.Fatalf("staff list: %v", err)
	}
	if len(staffView) != 1 || staffView[0].ID != assigned.ID {
		t.Fatalf("staff view wrong: %+v", staffView)
	}

	residentView, err := f.service.List(context.Background(), resident)
	if err != nil {
		t.Fatalf("resident list: %v", err)
	}
	if len(residentView) != 1 || residentView[0].ID != mine.ID {
		t.Fatalf("resident view wrong: %+v", residentView)
	}
	for _, ticket := range residentView {
		if ticket.ID == theirs.ID {
			t.Fatalf("resident saw a foreign ticket")
		}
	}
}

func TestListNewestFirstAndReconciled(t *testing.T) {
	f := newFixture(t)
	first := mustCreate(t, f, resident, domain.TicketPriorityHigh)
	second := mustCreate(t, f, resident, domain.TicketPriorityLow)

	f.advance(25 * time.Hour)
	view, err := f.service.List(context.Background(), resident)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(view) != 2 {
		t.Fatalf("got %d tickets, want 2", len(view))
	}
	if view[0].ID != second.ID || view[1].ID != first.ID {
		t.Fatalf("ordering wrong: %s then %s", view[0].ID, view[1].ID)
	}
	if view[1].Status != domain.TicketStatusOverdue {
		t.Fatalf("HIGH ticket not escalated in list: %s", view[1].Status)
	}
	if view[0].Status != domain.TicketStatusOpen {
		t.Fatalf("LOW ticket escalated early: %s", view[0].Status)
	}
}

func TestUpdateResidentFieldFiltering(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)

	status := domain.TicketStatusResolved
	desc := "still leaking, now worse"
	got, err := f.service.Update(context.Background(), resident, ticket.ID, domain.TicketChanges{
		Status:      &status,
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != domain.TicketStatusOpen {
		t.Fatalf("resident changed status: got %s, want OPEN", got.Status)
	}
	if got.Description != desc {
		t.Fatalf("description: got %q, want %q", got.Description, desc)
	}
}

func TestUpdateEmptyDescriptionLeavesStoredText(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)

	for _, requested := range []string{"", "   "} {
		desc := requested
		got, err := f.service.Update(context.Background(), resident, ticket.ID, domain.TicketChanges{
			Description: &desc,
		})
		if err != nil {
			t.Fatalf("Update(%q): %v", requested, err)
		}
		if got.Description != "unit 4B, kitchen" {
			t.Fatalf("Update(%q) changed description to %q", requested, got.Description)
		}
	}

	stored := f.repo.tickets[ticket.ID]
	if stored.Description != "unit 4B, kitchen" {
		t.Fatalf("stored description blanked: %q", stored.Description)
	}
}

func TestUpdateRefreshesUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)
	createdStamp := ticket.UpdatedAt

	desc := "now flooding"
	got, err := f.service.Update(context.Background(), resident, ticket.ID, domain.TicketChanges{
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.UpdatedAt.After(createdStamp) {
		t.Fatalf("returned UpdatedAt %v not refreshed past %v", got.UpdatedAt, createdStamp)
	}
}

func TestUpdatePriorityRecomputesDeadline(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)
	originalDeadline := *ticket.SLADeadline

	f.advance(10 * time.Hour)
	priority := domain.TicketPriorityHigh
	got, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChanges{
		Priority: &priority,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := f.now.Add(24 * time.Hour)
	if !got.SLADeadline.Equal(want) {
		t.Fatalf("deadline: got %v, want %v", got.SLADeadline, want)
	}
	if got.SLADeadline.Equal(originalDeadline) {
		t.Fatalf("deadline was not recomputed")
	}
}

func TestUpdateAssignmentEmitsExactlyOneEvent(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)

	staffID := "staff-7"
	got, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChanges{
		Assignment: &domain.StaffAssignment{StaffID: &staffID},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.AssignedStaffID == nil || *got.AssignedStaffID != staffID {
		t.Fatalf("assignee: got %v, want %s", got.AssignedStaffID, staffID)
	}

	assigned := f.dispatcher.ofType(events.EventTicketAssigned)
	if len(assigned) != 1 {
		t.Fatalf("got %d ticket_assigned events, want 1", len(assigned))
	}
	payload, ok := assigned[0].Payload.(events.TicketAssignedPayload)
	if !ok {
		t.Fatalf("payload type %T", assigned[0].Payload)
	}
	if payload.Ticket.AssignedStaffID == nil || *payload.Ticket.AssignedStaffID != staffID {
		t.Fatalf("event carries assignee %v, want %s", payload.Ticket.AssignedStaffID, staffID)
	}
}

func TestUpdateAssignmentClearEmitsEvent(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)

	staffID := "staff-7"
	if _, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChanges{
		Assignment: &domain.StaffAssignment{StaffID: &staffID},
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	got, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChanges{
		Assignment: &domain.StaffAssignment{StaffID: nil},
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got.AssignedStaffID != nil {
		t.Fatalf("assignment not cleared: %v", *got.AssignedStaffID)
	}
	if n := len(f.dispatcher.ofType(events.EventTicketAssigned)); n != 2 {
		t.Fatalf("got %d ticket_assigned events, want 2", n)
	}
}

func TestUpdateReassignSameStaffStillEmits(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)

	staffID := "staff-7"
	for i := 0; i < 2; i++ {
		if _, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChanges{
			Assignment: &domain.StaffAssignment{StaffID: &staffID},
		}); err != nil {
			t.Fatalf("assign #%d: %v", i+1, err)
		}
	}
	if n := len(f.dispatcher.ofType(events.EventTicketAssigned)); n != 2 {
		t.Fatalf("got %d ticket_assigned events, want 2 (one per requested assignment)", n)
	}
}

func TestUpdateFilteredAssignmentStillEmits(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)

	// A resident may not assign; the field is dropped silently, but the
	// request carried the assignment key, which is what triggers the event.
	staffID := "staff-7"
	got, err := f.service.Update(context.Background(), resident, ticket.ID, domain.TicketChanges{
		Assignment: &domain.StaffAssignment{StaffID: &staffID},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.AssignedStaffID != nil {
		t.Fatalf("resident assignment applied: %v", *got.AssignedStaffID)
	}

	assigned := f.dispatcher.ofType(events.EventTicketAssigned)
	if len(assigned) != 1 {
		t.Fatalf("got %d ticket_assigned events, want 1", len(assigned))
	}
	payload, ok := assigned[0].Payload.(events.TicketAssignedPayload)
	if !ok {
		t.Fatalf("payload type %T", assigned[0].Payload)
	}
	if payload.Ticket.AssignedStaffID != nil {
		t.Fatalf("event carries assignee %v, want none", *payload.Ticket.AssignedStaffID)
	}
}

func TestUpdateWithoutAssignmentEmitsNoEvent(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)

	status := domain.TicketStatusResolved
	if _, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChanges{
		Status: &status,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n := len(f.dispatcher.ofType(events.EventTicketAssigned)); n != 0 {
		t.Fatalf("got %d ticket_assigned events, want 0", n)
	}
}

func TestUpdateNoopStillReconciles(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityHigh)

	f.advance(25 * time.Hour)
	// A resident requesting only a status change ends up with an empty
	// allowed set; the update is a no-op but the overdue check still runs.
	status := domain.TicketStatusResolved
	got, err := f.service.Update(context.Background(), resident, ticket.ID, domain.TicketChanges{
		Status: &status,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != domain.TicketStatusOverdue {
		t.Fatalf("status: got %s, want OVERDUE", got.Status)
	}
}

func TestUpdateResolvedStaysResolvedPastDeadline(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityHigh)

	status := domain.TicketStatusResolved
	if _, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChanges{
		Status: &status,
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	f.advance(100 * time.Hour)
	got, err := f.service.Get(context.Background(), resident, ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.TicketStatusResolved {
		t.Fatalf("status: got %s, want RESOLVED", got.Status)
	}
}

func TestUpdateValidatesAllowedEnumValues(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)

	bad := domain.TicketStatus("ARCHIVED")
	_, err := f.service.Update(context.Background(), admin, ticket.ID, domain.TicketChanges{
		Status: &bad,
	})
	if code := domainCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("bad status: got code %s, want VALIDATION_FAILED", code)
	}
}

func TestDeleteAdminOnly(t *testing.T) {
	f := newFixture(t)
	ticket := mustCreate(t, f, resident, domain.TicketPriorityMedium)

	err := f.service.Delete(context.Background(), resident, ticket.ID)
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Fatalf("resident delete: got code %s, want FORBIDDEN", code)
	}

	if err := f.service.Delete(context.Background(), admin, ticket.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if err := f.service.Delete(context.Background(), admin, ticket.ID); err == nil {
		t.Fatalf("second delete succeeded")
	} else if code := domainCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("second delete: got code %s, want NOT_FOUND", code)
	}
}
