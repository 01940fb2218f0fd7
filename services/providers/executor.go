package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Executor performs single upstream calls
type Executor struct {
	client *http.Client
	logger *zap.Logger
}

// NewExecutor creates an executor. A nil client means a client without a
// timeout; the caller's context bounds each request.
func NewExecutor(client *http.Client, logger *zap.Logger) *Executor {
	if client == nil {
		client = &http.Client{}
	}
	return &Executor{
		client: client,
		logger: logger.Named("executor"),
	}
}

// Execute issues one POST to cfg.URL for targetModel. On a 2xx response the
// body is returned as a Stream the caller must drain or close. Any other
// outcome is a *ProviderError.
func (e *Executor) Execute(ctx context.Context, cfg ProviderConfig, targetModel string, req *ChatRequest, inbound http.Header) (*Stream, error) {
	body, err := req.OutboundBody(targetModel)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, NewTransportError(cfg.Name, err)
	}
	httpReq.Header = outboundHeaders(inbound, cfg.Key)

	e.logger.Debug("executing upstream request",
		zap.String("provider", cfg.Name),
		zap.String("model", targetModel),
		zap.Bool("stream", req.Stream))

	resp, err := e.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, NewTransportError(cfg.Name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		// The whole body is read: rate-limit markers may appear anywhere in it
		text, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			e.logger.Debug("failed to read upstream error body",
				zap.String("provider", cfg.Name),
				zap.Error(readErr))
		}
		return nil, ClassifyResponse(cfg.Name, resp.StatusCode, string(text))
	}

	return NewStream(resp), nil
}

// outboundHeaders copies the inbound headers and applies upstream overrides.
// Host and Content-Length are invalid once the body is re-encoded;
// Accept-Encoding is left to the transport so bodies arrive decoded.
func outboundHeaders(inbound http.Header, key string) http.Header {
	h := inbound.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Set("Authorization", "Bearer "+key)
	h.Set("Content-Type", "application/json")
	h.Del("Host")
	h.Del("Content-Length")
	h.Del("Accept-Encoding")
	return h
}
