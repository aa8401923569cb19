package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/internal-crm/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload. AssignedStaffID is raw so that an explicit
// null (clear the assignment) can be told apart from an absent key.
type UpdateTicketRequest struct {
	Status          *domain.TicketStatus   `json:"status"`
	Priority        *domain.TicketPriority `json:"priority"`
	Description     *string                `json:"description"`
	AssignedStaffID json.RawMessage        `json:"assigned_staff_id"`
}

// Changes converts the request into the engine's change set.
func (r UpdateTicketRequest) Changes() (domain.TicketChanges, error) {
	changes := domain.TicketChanges{
		Status:      r.Status,
		Priority:    r.Priority,
		Description: r.Description,
	}
	if len(r.AssignedStaffID) > 0 {
		var staffID *string
		if err := json.Unmarshal(r.AssignedStaffID, &staffID); err != nil {
			return domain.TicketChanges{}, err
		}
		changes.Assignment = &domain.StaffAssignment{StaffID: staffID}
	}
	return changes, nil
}

// TicketResponse carries the full ticket representation.
type TicketResponse struct {
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

// TicketResponseOf maps a domain ticket to its wire form.
func TicketResponseOf(t *domain.Ticket) TicketResponse {
	return TicketResponse{
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
