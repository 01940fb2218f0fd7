package providers

import (
	"fmt"
	"net/http"
	"strings"
)

// FailureKind classifies an upstream failure
type FailureKind int

const (
	// FailureUpstream is any failure that does not indicate throttling
	FailureUpstream FailureKind = iota

	// FailureRateLimited means the provider throttled or ran out of quota
	FailureRateLimited
)

// String returns the metric label for the kind
func (k FailureKind) String() string {
	switch k {
	case FailureRateLimited:
		return "rate_limited"
	default:
		return "upstream_error"
	}
}

var rateLimitMarkers = []string{"rate limit", "quota exceeded"}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Kind drives failover: rate-limited failures open the circuit
	Kind FailureKind

	// Provider is the display name of the provider
	Provider string

	// StatusCode is the HTTP status code, 0 for transport failures
	StatusCode int

	// Body is the upstream error body as text
	Body string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	switch {
	case e.Kind == FailureRateLimited:
		return fmt.Sprintf("[%s] Limit Exceeded: %s", e.Provider, e.Body)
	case e.StatusCode == 0 && e.Cause != nil:
		return fmt.Sprintf("[%s] request failed: %v", e.Provider, e.Cause)
	default:
		return fmt.Sprintf("[%s] HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
	}
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// IsRateLimited reports whether the failure should trip the circuit breaker
func (e *ProviderError) IsRateLimited() bool {
	return e.Kind == FailureRateLimited
}

// ClassifyResponse builds the error for a non-2xx upstream response
func ClassifyResponse(provider string, statusCode int, body string) *ProviderError {
	kind := FailureUpstream
	if statusCode == http.StatusTooManyRequests || statusCode == http.StatusPaymentRequired {
		kind = FailureRateLimited
	} else {
		lower := strings.ToLower(body)
		for _, marker := range rateLimitMarkers {
			if strings.Contains(lower, marker) {
				kind = FailureRateLimited
				break
			}
		}
	}

	return &ProviderError{
		Kind:       kind,
		Provider:   provider,
		StatusCode: statusCode,
		Body:       body,
	}
}

// NewTransportError wraps a failure that produced no HTTP response
func NewTransportError(provider string, cause error) *ProviderError {
	return &ProviderError{
		Kind:     FailureUpstream,
		Provider: provider,
		Cause:    cause,
	}
}
