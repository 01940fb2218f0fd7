package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-gateway/services"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   map[string]interface{}
	}{
		{
			name:           "exhausted with last error",
			err:            services.NewExhaustedError(errors.New("[Cerebras System] HTTP 500: down")),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody: map[string]interface{}{
				"error":  MsgAllProvidersFailed,
				"detail": "[Cerebras System] HTTP 500: down",
			},
		},
		{
			name:           "malformed request",
			err:            services.WrapError(services.ErrorTypeMalformedRequest, "invalid JSON body", errors.New("unexpected EOF")),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   map[string]interface{}{"error": MsgInvalidJSON},
		},
		{
			name:           "session not found",
			err:            services.NewSessionNotFoundError("session_1"),
			expectedStatus: http.StatusNotFound,
			expectedBody: map[string]interface{}{
				"error":      MsgSessionNotFound,
				"session_id": "session_1",
			},
		},
		{
			name:           "internal error",
			err:            services.WrapInternal("request cancelled", errors.New("context canceled")),
			expectedStatus: http.StatusInternalServerError,
			expectedBody: map[string]interface{}{
				"error":  MsgProcessingError,
				"detail": "context canceled",
			},
		},
		{
			name:           "unknown error",
			err:            errors.New("something went wrong"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody: map[string]interface{}{
				"error":  MsgProcessingError,
				"detail": "something went wrong",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedBody, response)
		})
	}
}

func TestHandleServiceError_NilError(t *testing.T) {
	w := httptest.NewRecorder()

	HandleServiceError(w, nil, zap.NewNop())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
