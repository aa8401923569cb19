package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusOverdue    TicketStatus = "OVERDUE"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusOverdue:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Valid reports whether the priority is one of the known levels.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for resident service requests.
type Ticket struct {
	ID              string
	Title           string
	Description     string
	Priority        TicketPriority
	Status          TicketStatus
	SLADeadline     *time.Time
	CreatedByID     string
	AssignedStaffID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TicketChanges carries a partial update request. A nil field was not
// requested; fields the caller's role may not touch are dropped by the
// access policy before the remainder is applied.
type TicketChanges struct {
	Status      *TicketStatus
	Priority    *TicketPriority
	Description *string
	Assignment  *StaffAssignment
}

// StaffAssignment sets or clears the assigned staff member. A nil StaffID
// clears the assignment; the wrapper itself marks an explicit request.
type StaffAssignment struct {
	StaffID *string
}
