package apperrors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapsCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{InvalidArgument("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Unauthenticated("who"), http.StatusUnauthorized},
		{PermissionDenied("no"), http.StatusForbidden},
		{Conflict("dup"), http.StatusConflict},
		{Internal("boom", sql.ErrConnDone), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFound("task not found")), http.StatusNotFound},
	}
	for _, tc := range tests {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("load: %w", NotFound("client not found"))
	if !errors.Is(err, NotFound("")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if errors.Is(err, Conflict("")) {
		t.Fatal("did not expect conflict to match")
	}
}

func TestPublicMessageHidesInternalCause(t *testing.T) {
	t.Parallel()

	err := Internal("list tasks", errors.New("disk I/O error"))
	if got := PublicMessage(err); got != "internal error" {
		t.Fatalf("PublicMessage = %q, want %q", got, "internal error")
	}
	if got := PublicMessage(InvalidArgument("name is required")); got != "name is required" {
		t.Fatalf("PublicMessage = %q", got)
	}
	if !errors.Is(err, err.Cause) {
		t.Fatal("expected cause to unwrap")
	}
}
