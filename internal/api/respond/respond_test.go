package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stine-ri/wings-of-memory/internal/model"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.NewValidationError("name", "is required"), http.StatusBadRequest},
		{fmt.Errorf("%w: bad", model.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized), http.StatusUnauthorized},
		{model.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("get: %w", model.ErrNotFound), http.StatusNotFound},
		{model.ErrConflict, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestWriteServiceErrorHidesInternals(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteServiceError(rr, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("pq: password leaked"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "internal error", body.Message)
	assert.Equal(t, 500, body.Code)
}

func TestWriteServiceErrorValidationMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteServiceError(rr, httptest.NewRequest(http.MethodPost, "/x", nil), model.NewValidationError("name", "is required"))
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, body.Code)
	assert.Contains(t, body.Message, "name")
}
