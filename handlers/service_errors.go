package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/llm-gateway/services"
	"github.com/upb/llm-gateway/utils"
	"go.uber.org/zap"
)

// Caller-facing error messages
const (
	MsgAllProvidersFailed = "All providers failed"
	MsgInvalidJSON        = "Invalid JSON"
	MsgProcessingError    = "Error processing request"
	MsgSessionNotFound    = "Session not found"
	MsgEndpointNotFound   = "endpoint not found"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	detail := errorDetail(err)

	var writeErr error
	switch {
	case services.IsExhaustedError(err):
		writeErr = utils.WriteServiceUnavailable(w, MsgAllProvidersFailed, detail)

	case services.IsMalformedRequestError(err):
		writeErr = utils.WriteBadRequest(w, MsgInvalidJSON)

	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, MsgSessionNotFound, sessionIDDetail(err))

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, MsgProcessingError, detail)

	default:
		// Unknown error type - log and return internal error
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, MsgProcessingError, err.Error())
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

func errorDetail(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Detail()
	}
	return err.Error()
}

func sessionIDDetail(err error) string {
	if id, ok := services.GetErrorDetails(err)["session_id"].(string); ok {
		return id
	}
	return ""
}
