package dto

import (
	"encoding/json"
	"testing"

	"github.com/spec-kit/internal-crm/internal/domain"
)

func parseUpdate(t *testing.T, body string) domain.TicketChanges {
	t.Helper()
	var req UpdateTicketRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	changes, err := req.Changes()
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	return changes
}

func TestUpdateRequestAbsentAssignment(t *testing.T) {
	changes := parseUpdate(t, `{"status":"RESOLVED"}`)
	if changes.Assignment != nil {
		t.Fatalf("absent key produced an assignment request")
	}
	if changes.Status == nil || *changes.Status != domain.TicketStatusResolved {
		t.Fatalf("status lost: %+v", changes)
	}
}

func TestUpdateRequestNullAssignmentClears(t *testing.T) {
	changes := parseUpdate(t, `{"assigned_staff_id":null}`)
	if changes.Assignment == nil {
		t.Fatalf("explicit null did not produce an assignment request")
	}
	if changes.Assignment.StaffID != nil {
		t.Fatalf("explicit null kept a staff id: %v", *changes.Assignment.StaffID)
	}
}

func TestUpdateRequestAssignmentValue(t *testing.T) {
	changes := parseUpdate(t, `{"assigned_staff_id":"staff-7"}`)
	if changes.Assignment == nil || changes.Assignment.StaffID == nil {
		t.Fatalf("assignment not parsed: %+v", changes)
	}
	if *changes.Assignment.StaffID != "staff-7" {
		t.Fatalf("staff id: got %s, want staff-7", *changes.Assignment.StaffID)
	}
}

func TestUpdateRequestBadAssignment(t *testing.T) {
	var req UpdateTicketRequest
	if err := json.Unmarshal([]byte(`{"assigned_staff_id":{"id":1}}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := req.Changes(); err == nil {
		t.Fatalf("object value accepted as staff id")
	}
}
