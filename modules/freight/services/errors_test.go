package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapPgError(t *testing.T) {
	require.NoError(t, mapPgError(nil))

	plain := errors.New("boom")
	require.Same(t, plain, mapPgError(plain))

	svc := newServiceError(http.StatusTeapot, "X", "x", nil)
	require.Same(t, svc, mapPgError(fmt.Errorf("wrapped: %w", svc)))

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no rows", pgx.ErrNoRows, http.StatusNotFound, "FREIGHT_NOT_FOUND"},
		{"lane route", &pgconn.PgError{Code: "23505", ConstraintName: laneRouteConstraint}, http.StatusConflict, "FREIGHT_LANE_CONFLICT"},
		{"other unique", &pgconn.PgError{Code: "23505", ConstraintName: "freight_outbox_event_id_key"}, http.StatusConflict, "FREIGHT_CONFLICT"},
		{"foreign key", &pgconn.PgError{Code: "23503"}, http.StatusUnprocessableEntity, "FREIGHT_INVALID_REFERENCE"},
		{"check", &pgconn.PgError{Code: "23514"}, http.StatusUnprocessableEntity, "FREIGHT_INVALID_BODY"},
		{"serialization", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), http.StatusConflict, "FREIGHT_RETRYABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireServiceError(t, mapPgError(tt.err), tt.status, tt.code)
		})
	}

	other := &pgconn.PgError{Code: "42P01"}
	require.Same(t, other, mapPgError(other))
}

func TestServiceError_ErrorIncludesCause(t *testing.T) {
	err := newServiceError(http.StatusConflict, "C", "conflict", errors.New("dup"))
	require.Equal(t, "conflict: dup", err.Error())
	require.EqualError(t, errors.Unwrap(err), "dup")
	require.Equal(t, "conflict", newServiceError(http.StatusConflict, "C", "conflict", nil).Error())
}
