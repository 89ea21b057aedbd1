// Package server provides the HTTP REST API for the prospecting engine.
package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pellera/prospect-engine/internal/store"
)

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var notFound *store.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}

	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}
