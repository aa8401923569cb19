package events

import (
	"time"

	"github.com/spec-kit/internal-crm/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketAssigned EventType = "ticket_assigned"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSnapshot is the wire form of a ticket carried inside event payloads.
type TicketSnapshot struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Priority        domain.TicketPriority `json:"priority"`
	Status          domain.TicketStatus   `json:"status"`
	SLADeadline     *time.Time            `json:"sla_deadline"`
	CreatedByID     string                `json:"created_by_id"`
	AssignedStaffID *string               `json:"assigned_staff_id"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// SnapshotOf captures a ticket for event payloads.
func SnapshotOf(t *domain.Ticket) TicketSnapshot {
	return TicketSnapshot{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Priority:        t.Priority,
		Status:          t.Status,
		SLADeadline:     t.SLADeadline,
		CreatedByID:     t.CreatedByID,
		AssignedStaffID: t.AssignedStaffID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket TicketSnapshot `json:"ticket"`
}

// TicketAssignedPayload carries the full post-update ticket.
type TicketAssignedPayload struct {
	Ticket TicketSnapshot `json:"ticket"`
}
