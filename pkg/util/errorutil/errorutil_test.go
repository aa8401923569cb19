package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestErrorKindsMapToDistinctStatuses(t *testing.T) {
	tests := []struct {
		err        error
		wantCode   string
		wantStatus int
	}{
		{NewValidationError("bad input", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{NewForbidden("nope"), "FORBIDDEN", http.StatusForbidden},
		{NewNotFound("ticket", nil), "NOT_FOUND", http.StatusNotFound},
		{NewStorageError(errors.New("db down")), "STORAGE_ERROR", http.StatusInternalServerError},
		{NewUnauthorized("who"), "UNAUTHORIZED", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		de := ToDomainError(tc.err)
		if de.Code != tc.wantCode || de.HTTPStatus != tc.wantStatus {
			t.Fatalf("got (%s, %d), want (%s, %d)", de.Code, de.HTTPStatus, tc.wantCode, tc.wantStatus)
		}
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	de := ToDomainError(fmt.Errorf("lookup: %w", pgx.ErrNoRows))
	if de.Code != "NOT_FOUND" {
		t.Fatalf("pgx.ErrNoRows mapped to %s, want NOT_FOUND", de.Code)
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("connection refused")
	de := ToDomainError(cause)
	if de.Code != "STORAGE_ERROR" {
		t.Fatalf("unknown error mapped to %s, want STORAGE_ERROR", de.Code)
	}
	if !errors.Is(de, cause) {
		t.Fatalf("wrapped error lost its cause")
	}
}

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewForbidden("nope")
	de := ToDomainError(fmt.Errorf("handler: %w", original))
	if de.Code != "FORBIDDEN" {
		t.Fatalf("wrapped DomainError mapped to %s, want FORBIDDEN", de.Code)
	}
}

func TestToDomainErrorNil(t *testing.T) {
	if de := ToDomainError(nil); de != nil {
		t.Fatalf("nil error produced %+v", de)
	}
}
