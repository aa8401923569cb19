package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/internal-crm/internal/access"
	"github.com/spec-kit/internal-crm/internal/domain"
	"github.com/spec-kit/internal-crm/internal/events"
	"github.com/spec-kit/internal-crm/internal/repository"
	"github.com/spec-kit/internal-crm/internal/sla"
	apperrors "github.com/spec-kit/internal-crm/pkg/util/errorutil"
)

// TicketService is the ticket lifecycle engine. It creates tickets with a
// priority-derived SLA deadline, applies role-filtered mutations, runs the
// lazy overdue check on every read and write path, and emits an assignment
// event when an update requested a change of assignee.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        now,
	}
}

// Create files a new ticket on behalf of the actor. Residents and admins may
// create; staff may not. The SLA deadline is derived from priority at the
// call instant.
func (s *TicketService) Create(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if actor.Role != domain.RoleResident && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only residents and admins may create tickets")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	deadline := sla.DeadlineFor(priority, s.now())
	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		SLADeadline: &deadline,
		CreatedByID: actor.ID,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, actor, events.EventTicketCreated, ticket.ID, events.TicketCreatedPayload{
		Ticket: events.SnapshotOf(ticket),
	})
	return ticket, nil
}

// List returns the actor's ticket view, newest first: admins see all tickets,
// staff the tickets assigned to them, residents the tickets they created.
// Every returned ticket has passed the overdue check.
func (s *TicketService) List(ctx context.Context, actor domain.Actor) ([]domain.Ticket, error) {
	var filter repository.TicketFilter
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleStaff:
		filter.AssignedStaffID = &actor.ID
	case domain.RoleResident:
		filter.CreatedByID = &actor.ID
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range tickets {
		if err := s.reconcile(ctx, &tickets[i]); err != nil {
			return nil, err
		}
	}
	return tickets, nil
}

// Get fetches a single ticket, enforcing the access gate and running the
// overdue check before returning it.
func (s *TicketService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(actor, ticket) {
		return nil, apperrors.NewForbidden("not your ticket")
	}
	if err := s.reconcile(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Update applies the subset of requested changes the actor's role allows.
// A priority change recomputes the SLA deadline at the call instant. When
// the request included an assignment change, a ticket_assigned event carrying
// the final ticket is published after the write, whether or not the stored
// assignee actually changed.
func (s *TicketService) Update(ctx context.Context, actor domain.Actor, id string, changes domain.TicketChanges) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(actor, ticket) {
		return nil, apperrors.NewForbidden("not your ticket")
	}

	allowed := access.FilterChanges(actor, changes)
	if err := validateChanges(allowed); err != nil {
		return nil, err
	}

	dirty := false
	if allowed.Status != nil {
		ticket.Status = *allowed.Status
		dirty = true
	}
	if allowed.Description != nil {
		// An empty description is treated as not requested, never as a blank-out.
		if trimmed := strings.TrimSpace(*allowed.Description); trimmed != "" {
			ticket.Description = trimmed
			dirty = true
		}
	}
	if allowed.Priority != nil {
		ticket.Priority = *allowed.Priority
		deadline := sla.DeadlineFor(ticket.Priority, s.now())
		ticket.SLADeadline = &deadline
		dirty = true
	}
	if allowed.Assignment != nil {
		ticket.AssignedStaffID = allowed.Assignment.StaffID
		dirty = true
	}

	if dirty {
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if err := s.reconcile(ctx, ticket); err != nil {
		return nil, err
	}

	// The request carrying the assignment key triggers the broadcast, even
	// when the filter dropped the field or the value is unchanged.
	if changes.Assignment != nil {
		s.publish(ctx, actor, events.EventTicketAssigned, ticket.ID, events.TicketAssignedPayload{
			Ticket: events.SnapshotOf(ticket),
		})
	}
	return ticket, nil
}

// Delete permanently removes a ticket. Admin only; there is no soft delete.
func (s *TicketService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only admins may delete tickets")
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TicketService) fetch(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// reconcile runs the lazy overdue check and persists an escalation before the
// ticket leaves the service, so callers never observe a stale status.
func (s *TicketService) reconcile(ctx context.Context, ticket *domain.Ticket) error {
	updated, changed := sla.Reconcile(*ticket, s.now())
	if !changed {
		return nil
	}
	if err := s.tickets.Update(ctx, &updated); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("ticket escalated to overdue", zap.String("ticket_id", updated.ID))
	*ticket = updated
	return nil
}

func validateChanges(changes domain.TicketChanges) error {
	if changes.Status != nil && !changes.Status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": *changes.Status})
	}
	if changes.Priority != nil && !changes.Priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": *changes.Priority})
	}
	return nil
}

func (s *TicketService) publish(ctx context.Context, actor domain.Actor, eventType events.EventType, ticketID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Timestamp: s.now(),
		Payload:   payload,
	}
	_ = s.dispatcher.Publish(ctx, event)
}
