package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/pellera/prospect-engine/internal/store"
	"github.com/pellera/prospect-engine/internal/types"
)

func TestHTTPStatus(t *testing.T) {
	validationErr := func() error {
		return (&types.ProspectRequest{}).Validate()
	}()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "not found",
			err:  &store.NotFoundError{Kind: "run", ID: "abc"},
			want: http.StatusNotFound,
		},
		{
			name: "wrapped not found",
			err:  fmt.Errorf("lookup: %w", &store.NotFoundError{Kind: "project", ID: "p1"}),
			want: http.StatusNotFound,
		},
		{
			name: "conflict",
			err:  &store.ConflictError{Message: "play already saved"},
			want: http.StatusConflict,
		},
		{
			name: "validation",
			err:  validationErr,
			want: http.StatusBadRequest,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}

	// Sanity: the validation error really is validator.ValidationErrors.
	var vErrs validator.ValidationErrors
	assert.True(t, errors.As(validationErr, &vErrs))
}
