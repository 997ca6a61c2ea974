package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
)

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantTag    string
	}{
		{"validation", apperror.ValidationFailed("mac_address", "MAC address is required"), http.StatusBadRequest, "validation_error"},
		{"not found", apperror.NotFound("machine", "AA:BB"), http.StatusNotFound, "not_found"},
		{"already exists", apperror.AlreadyExists("email", "ana@example.com"), http.StatusBadRequest, "already_exists"},
		{"ownership", apperror.OwnershipConflict("AA:BB"), http.StatusBadRequest, "ownership_conflict"},
		{"unauthorized", apperror.Unauthorized("invalid credentials"), http.StatusUnauthorized, "unauthorized"},
		{"unknown error hidden", errors.New("pq: connection refused to 10.0.0.5"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantTag, body.Error)
			assert.NotEmpty(t, body.Message)
			// Internals never leak to clients.
			assert.NotContains(t, body.Message, "10.0.0.5")
		})
	}
}

func TestWriteErrorWrappedSentinelSurvives(t *testing.T) {
	err := fmt.Errorf("refreshing configuration: %w", apperror.NotFound("machine", "AA:BB"))

	rec := httptest.NewRecorder()
	writeError(rec, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
