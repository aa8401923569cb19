// Package access decides which tickets an actor may touch and which ticket
// fields their role may change. The field rules live in a single per-role
// allow-list so the permission matrix is data, not branch logic.
package access

import "github.com/spec-kit/internal-crm/internal/domain"

// Field names a mutable ticket attribute.
type Field string

const (
	FieldStatus          Field = "status"
	FieldPriority        Field = "priority"
	FieldDescription     Field = "description"
	FieldAssignedStaffID Field = "assigned_staff_id"
)

// mutableFields is the per-role allow-list consulted by FilterChanges.
var mutableFields = map[domain.Role]map[Field]bool{
	domain.RoleResident: {
		FieldDescription: true,
	},
	domain.RoleStaff: {
		FieldStatus: true,
	},
	domain.RoleAdmin: {
		FieldStatus:          true,
		FieldPriority:        true,
		FieldDescription:     true,
		FieldAssignedStaffID: true,
	},
}

// CanAccess is the hard gate run before any read or mutation. Admins see
// everything, staff only tickets assigned to them, residents only tickets
// they created.
func CanAccess(actor domain.Actor, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleStaff:
		return ticket.AssignedStaffID != nil && *ticket.AssignedStaffID == actor.ID
	case domain.RoleResident:
		return ticket.CreatedByID == actor.ID
	}
	return false
}

// CanMutate reports whether the role may change the given field.
func CanMutate(role domain.Role, field Field) bool {
	return mutableFields[role][field]
}

// FilterChanges returns the subset of requested changes the actor's role is
// allowed to make. Disallowed fields are dropped silently rather than
// rejected; an empty result is a legal no-op update.
func FilterChanges(actor domain.Actor, changes domain.TicketChanges) domain.TicketChanges {
	allowed := mutableFields[actor.Role]
	var out domain.TicketChanges
	if changes.Status != nil && allowed[FieldStatus] {
		out.Status = changes.Status
	}
	if changes.Priority != nil && allowed[FieldPriority] {
		out.Priority = changes.Priority
	}
	if changes.Description != nil && allowed[FieldDescription] {
		out.Description = changes.Description
	}
	if changes.Assignment != nil && allowed[FieldAssignedStaffID] {
		out.Assignment = changes.Assignment
	}
	return out
}
