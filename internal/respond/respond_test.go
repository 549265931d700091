package respond_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/internal/apperr"
	"videotube/internal/respond"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) respond.Envelope {
	t.Helper()

	var envelope respond.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestJSONWritesSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.JSON(rec, http.StatusCreated, "created", map[string]string{"id": "1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	envelope := decode(t, rec)
	assert.True(t, envelope.Success)
	assert.Equal(t, "created", envelope.Message)
}

func TestErrorMapsKindsToStatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Validation("bad input"), http.StatusBadRequest},
		{apperr.Unauthorized("nope"), http.StatusUnauthorized},
		{apperr.NotFound("missing"), http.StatusNotFound},
		{apperr.Conflict("taken"), http.StatusConflict},
		{apperr.Internal("boom", errors.New("cause")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		respond.Error(rec, tc.err)

		assert.Equal(t, tc.status, rec.Code)
		envelope := decode(t, rec)
		assert.False(t, envelope.Success)
	}
}

func TestErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Error(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	envelope := decode(t, rec)
	assert.Equal(t, "something went wrong", envelope.Message)
}

func TestErrorCarriesValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Error(rec, apperr.Validation("all fields are required", "username is required"))

	envelope := decode(t, rec)
	assert.Equal(t, []string{"username is required"}, envelope.Errors)
}

func TestErrorKeepsWrappedDomainKind(t *testing.T) {
	wrapped := fmt.Errorf("create account: %w", apperr.Conflict("taken"))
	rec := httptest.NewRecorder()
	respond.Error(rec, wrapped)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "taken")
}
