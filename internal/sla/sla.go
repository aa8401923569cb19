// Package sla derives service-level deadlines from ticket priority and
// performs the lazy overdue check that runs on every read and write path.
package sla

import (
	"time"

	"github.com/spec-kit/internal-crm/internal/domain"
)

// Deadline offsets per priority.
const (
	OffsetHigh   = 24 * time.Hour
	OffsetMedium = 48 * time.Hour
	OffsetLow    = 72 * time.Hour
)

// DeadlineFor computes the absolute deadline for a ticket whose priority was
// set at the given instant. Unknown priorities fall back to the LOW offset;
// callers are expected to validate against the closed enumeration first.
func DeadlineFor(priority domain.TicketPriority, now time.Time) time.Time {
	switch priority {
	case domain.TicketPriorityHigh:
		return now.Add(OffsetHigh)
	case domain.TicketPriorityMedium:
		return now.Add(OffsetMedium)
	case domain.TicketPriorityLow:
		return now.Add(OffsetLow)
	default:
		return now.Add(OffsetLow)
	}
}

// Reconcile decides whether a ticket must be escalated to OVERDUE at the
// given instant. RESOLVED tickets are exempt and OVERDUE is idempotent, so
// neither is ever touched. The returned bool reports whether the caller must
// persist the escalated copy.
func Reconcile(ticket domain.Ticket, now time.Time) (domain.Ticket, bool) {
	if ticket.Status == domain.TicketStatusResolved || ticket.Status == domain.TicketStatusOverdue {
		return ticket, false
	}
	if ticket.SLADeadline == nil || !now.After(*ticket.SLADeadline) {
		return ticket, false
	}
	ticket.Status = domain.TicketStatusOverdue
	return ticket, true
}
