package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const laneRouteConstraint = "freight_contract_lanes_route_key"

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, "FREIGHT_NOT_FOUND", "not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		recordWriteConflict("unique")
		if pgErr.ConstraintName == laneRouteConstraint {
			return newServiceError(http.StatusConflict, "FREIGHT_LANE_CONFLICT", "contract lane already exists for this route", err)
		}
		return newServiceError(http.StatusConflict, "FREIGHT_CONFLICT", "conflict", err)
	case "23503": // foreign_key_violation
		recordWriteConflict("foreign_key")
		return newServiceError(http.StatusUnprocessableEntity, "FREIGHT_INVALID_REFERENCE", "referenced record does not exist", err)
	case "23514": // check_violation
		recordWriteConflict("check")
		return newServiceError(http.StatusUnprocessableEntity, "FREIGHT_INVALID_BODY", "value violates a constraint", err)
	case "40001", "40P01": // serialization_failure, deadlock_detected
		recordWriteConflict("serialization")
		return newServiceError(http.StatusConflict, "FREIGHT_RETRYABLE", "concurrent update, retry the request", err)
	}
	return err
}
