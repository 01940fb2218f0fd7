package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/upb/llm-gateway/middleware"
	"github.com/upb/llm-gateway/services"
	"github.com/upb/llm-gateway/services/conversation"
	"github.com/upb/llm-gateway/services/providers"
	"go.uber.org/zap"
)

// Response headers set on chat replies
const (
	HeaderSessionID    = "X-Session-ID"
	HeaderProviderUsed = "X-Provider-Used"
)

// ChatService runs a chat request through session context and failover
type ChatService interface {
	Handle(ctx context.Context, req *providers.ChatRequest, inbound http.Header) (*conversation.Exchange, error)
}

// ChatHandler handles chat completion requests
type ChatHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChatCompletion handles POST /v1/chat/completions
func (h *ChatHandler) HandleChatCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req providers.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, services.WrapError(services.ErrorTypeMalformedRequest, services.ErrMalformedRequest.Message, err), h.logger)
		return
	}

	exchange, err := h.service.Handle(ctx, &req, r.Header)
	if exchange != nil && exchange.SessionID != "" {
		w.Header().Set(HeaderSessionID, exchange.SessionID)
	}
	if err != nil {
		h.logger.Warn("chat request failed",
			zap.String("request_id", requestID),
			zap.String("model", req.Model),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	w.Header().Set(HeaderProviderUsed, exchange.ProviderID)
	w.Header().Set("Content-Type", exchange.ContentType)

	if exchange.Stream != nil {
		h.relay(w, r, exchange.Stream, requestID)
		return
	}

	w.WriteHeader(exchange.StatusCode)
	if _, err := w.Write(exchange.Body); err != nil {
		h.logger.Debug("failed to write response body",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// relay copies a streaming upstream body chunk by chunk. It stops at the end
// of the body, on an upstream read error, or on the first failed client write.
func (h *ChatHandler) relay(w http.ResponseWriter, r *http.Request, stream *providers.Stream, requestID string) {
	defer stream.Close()

	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(stream.StatusCode)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		chunk, err := stream.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) && r.Context().Err() == nil {
				h.logger.Warn("upstream stream interrupted",
					zap.String("request_id", requestID),
					zap.Error(err))
			}
			return
		}

		if _, err := w.Write(chunk); err != nil {
			h.logger.Debug("client disconnected during stream",
				zap.String("request_id", requestID),
				zap.Error(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
