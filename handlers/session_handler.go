package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/upb/llm-gateway/services"
	"github.com/upb/llm-gateway/services/providers"
	"github.com/upb/llm-gateway/services/session"
	"github.com/upb/llm-gateway/utils"
	"go.uber.org/zap"
)

// SessionStore is the read and delete surface of the session store
type SessionStore interface {
	Get(id string) (session.Session, bool)
	Delete(id string) bool
	List() []session.Summary
	Stats() session.Stats
}

// SessionDetailResponse describes one session with its messages
type SessionDetailResponse struct {
	SessionID    string              `json:"session_id"`
	MessageCount int                 `json:"message_count"`
	Messages     []providers.Message `json:"messages"`
	CreatedAt    time.Time           `json:"created_at"`
	LastUsed     time.Time           `json:"last_used"`
}

// SessionListResponse is the store statistics plus one summary per session
type SessionListResponse struct {
	session.Stats
	Sessions []session.Summary `json:"sessions"`
}

// SessionDeleteResponse confirms a deletion
type SessionDeleteResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// SessionHandler handles session inspection requests
type SessionHandler struct {
	store  SessionStore
	logger *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(store SessionStore, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		logger: logger,
	}
}

// HandleList handles GET /v1/sessions
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sessions := h.store.List()
	if sessions == nil {
		sessions = []session.Summary{}
	}

	response := SessionListResponse{
		Stats:    h.store.Stats(),
		Sessions: sessions,
	}
	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write session list", zap.Error(err))
	}
}

// HandleGet handles GET /v1/sessions/{id}
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, ok := h.store.Get(id)
	if !ok {
		HandleServiceError(w, services.NewSessionNotFoundError(id), h.logger)
		return
	}

	messages := sess.Messages
	if messages == nil {
		messages = []providers.Message{}
	}

	response := SessionDetailResponse{
		SessionID:    sess.ID,
		MessageCount: len(messages),
		Messages:     messages,
		CreatedAt:    sess.CreatedAt,
		LastUsed:     sess.LastUsed,
	}
	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write session", zap.Error(err))
	}
}

// HandleDelete handles DELETE /v1/sessions/{id}
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.store.Delete(id) {
		HandleServiceError(w, services.NewSessionNotFoundError(id), h.logger)
		return
	}

	h.logger.Info("session deleted", zap.String("session_id", id))
	response := SessionDeleteResponse{
		Success:   true,
		Message:   "Session deleted successfully",
		SessionID: id,
	}
	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write delete response", zap.Error(err))
	}
}
