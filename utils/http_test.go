package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]string{"message": "test"}

		err := WriteJSON(w, http.StatusOK, data)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "test", decodeBody(t, w)["message"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusNoContent, nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteOK(w, map[string]string{"status": "ok"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter) error
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name:       "bad request omits detail",
			write:      func(w http.ResponseWriter) error { return WriteBadRequest(w, "Invalid JSON body") },
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]interface{}{"error": "Invalid JSON body"},
		},
		{
			name: "service unavailable with detail",
			write: func(w http.ResponseWriter) error {
				return WriteServiceUnavailable(w, "All providers failed", "[Groq System] HTTP 500: boom")
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: map[string]interface{}{
				"error":  "All providers failed",
				"detail": "[Groq System] HTTP 500: boom",
			},
		},
		{
			name:       "not found echoes session id",
			write:      func(w http.ResponseWriter) error { return WriteNotFound(w, "Session not found", "session_1") },
			wantStatus: http.StatusNotFound,
			wantBody: map[string]interface{}{
				"error":      "Session not found",
				"session_id": "session_1",
			},
		},
		{
			name:       "not found default message",
			write:      func(w http.ResponseWriter) error { return WriteNotFound(w, "", "") },
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]interface{}{"error": "Resource not found"},
		},
		{
			name:       "internal server error default message",
			write:      func(w http.ResponseWriter) error { return WriteInternalServerError(w, "", "") },
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]interface{}{"error": "Internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, decodeBody(t, w))
		})
	}
}
