package api

import (
	"errors"
	"net/http"

	"metacat/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
//
// Validation failures and unknown lineage endpoints are 422 (the request is
// well-formed JSON but semantically unprocessable); graph violations are 400.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var unknown *domain.UnknownDatasetError
	var selfLineage *domain.SelfLineageError
	var cycle *domain.CycleDetectedError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unknown):
		return http.StatusUnprocessableEntity
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &selfLineage):
		return http.StatusBadRequest
	case errors.As(err, &cycle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
