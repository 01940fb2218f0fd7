// Package observability provides structured logging and Prometheus metrics
// for the gateway.
//
// This package implements:
//   - zap logger construction (JSON for production, console for development)
//   - Prometheus collectors for upstream attempts, circuit cooldowns,
//     exhausted requests and session store pressure
//   - A no-op Metrics implementation for tests and disabled metrics
package observability
