// Package conversation merges stored session history into chat requests and
// records completed non-streaming turns.
package conversation

import (
	"context"
	"net/http"

	"github.com/upb/llm-gateway/services"
	"github.com/upb/llm-gateway/services/providers"
	"github.com/upb/llm-gateway/services/providers/openai"
	"github.com/upb/llm-gateway/services/routing"
	"github.com/upb/llm-gateway/services/session"
	"go.uber.org/zap"
)

// Dispatcher sends a request through failover
type Dispatcher interface {
	Dispatch(ctx context.Context, req *providers.ChatRequest, inbound http.Header) (*routing.Result, error)
}

// SessionStore is the subset of the session store the injector uses
type SessionStore interface {
	GetOrCreate(id string) session.Session
	Append(id string, msgs ...providers.Message)
}

// Exchange is the outcome of one chat request. SessionID is always set,
// also when dispatch fails.
type Exchange struct {
	SessionID   string
	ProviderID  string
	StatusCode  int
	ContentType string

	// Stream is set for streaming requests; the caller must close it
	Stream *providers.Stream

	// Body is set for non-streaming requests
	Body []byte
}

// Injector applies session context around dispatch
type Injector struct {
	sessions   SessionStore
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewInjector creates an injector
func NewInjector(sessions SessionStore, dispatcher Dispatcher, logger *zap.Logger) *Injector {
	return &Injector{
		sessions:   sessions,
		dispatcher: dispatcher,
		logger:     logger.Named("context"),
	}
}

// Handle resolves the session, prepends history when UseContext is set,
// dispatches, and for non-streaming replies records the user messages and
// the assistant reply.
func (i *Injector) Handle(ctx context.Context, req *providers.ChatRequest, inbound http.Header) (*Exchange, error) {
	sess := i.sessions.GetOrCreate(req.SessionID)
	exchange := &Exchange{SessionID: sess.ID}

	outbound := req.Clone()
	if req.UseContext && len(sess.Messages) > 0 {
		outbound.Messages = append(sess.Messages, req.Messages...)
		i.logger.Debug("history prepended",
			zap.String("session_id", sess.ID),
			zap.Int("history", len(sess.Messages)),
			zap.Int("new", len(req.Messages)))
	}

	result, err := i.dispatcher.Dispatch(ctx, outbound, inbound)
	if err != nil {
		return exchange, err
	}

	exchange.ProviderID = result.ProviderID
	exchange.StatusCode = result.Stream.StatusCode

	if req.Stream {
		exchange.ContentType = "text/event-stream"
		exchange.Stream = result.Stream
		return exchange, nil
	}

	exchange.ContentType = result.Stream.ContentType("application/json")
	body, err := result.Stream.ReadAll()
	if err != nil {
		return exchange, services.WrapInternal("failed to read upstream response", err)
	}
	exchange.Body = body

	if req.UseContext {
		i.capture(sess.ID, req, body)
	}
	return exchange, nil
}

func (i *Injector) capture(sessionID string, req *providers.ChatRequest, body []byte) {
	reply, err := openai.AssistantContent(body)
	if err != nil {
		i.logger.Warn("upstream reply not captured",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}

	turn := append(req.UserMessages(), providers.Message{
		Role:    providers.RoleAssistant,
		Content: reply,
	})
	i.sessions.Append(sessionID, turn...)
}
