package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/upb/llm-gateway/internal/observability"
	"github.com/upb/llm-gateway/services"
	"github.com/upb/llm-gateway/services/providers"
	"go.uber.org/zap"
)

// Resolver supplies the route and provider snapshot for a model
type Resolver interface {
	Resolve(model string, overrides map[string]providers.ProviderConfig) providers.Plan
}

// Executor performs one upstream attempt
type Executor interface {
	Execute(ctx context.Context, cfg providers.ProviderConfig, targetModel string, req *providers.ChatRequest, inbound http.Header) (*providers.Stream, error)
}

// Result is a successful dispatch
type Result struct {
	ProviderID  string
	TargetModel string
	Attempts    int
	Stream      *providers.Stream
}

// Coordinator walks the ordered candidates of a request until one succeeds
type Coordinator struct {
	resolver  Resolver
	breaker   *Breaker
	scheduler *Scheduler
	executor  Executor
	logger    *zap.Logger
	metrics   observability.Metrics
	now       func() time.Time
}

// NewCoordinator wires the failover engine
func NewCoordinator(resolver Resolver, breaker *Breaker, scheduler *Scheduler, executor Executor, logger *zap.Logger, metrics observability.Metrics) *Coordinator {
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &Coordinator{
		resolver:  resolver,
		breaker:   breaker,
		scheduler: scheduler,
		executor:  executor,
		logger:    logger.Named("failover"),
		metrics:   metrics,
		now:       time.Now,
	}
}

// Plan resolves the attempt order for req at now. If the breaker would
// exclude every step, the base route is used as-is and the rotation counter
// is not advanced.
func (c *Coordinator) Plan(req *providers.ChatRequest, now time.Time) providers.Plan {
	plan := c.resolver.Resolve(req.Model, req.CustomProviders)

	eligible, failOpen := c.breaker.Filter(plan.Steps, now)
	if failOpen {
		c.logger.Error("all providers cooling down, failing open",
			zap.String("model", req.Model),
			zap.Int("candidates", len(plan.Steps)))
		c.metrics.RecordFailOpen(req.Model)
		return plan
	}

	plan.Steps = c.scheduler.Order(req.Model, eligible, req.PreferredProvider)
	return plan
}

// Dispatch tries each candidate at most once. Rate-limited failures open the
// provider's cooldown; other failures only advance to the next candidate.
// When every candidate fails the error is exhausted and carries the last
// failure.
func (c *Coordinator) Dispatch(ctx context.Context, req *providers.ChatRequest, inbound http.Header) (*Result, error) {
	plan := c.Plan(req, c.now())

	var lastErr error
	attempts := 0

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return nil, services.WrapInternal("request cancelled", err)
		}

		cfg, ok := plan.Provider(step.ProviderID)
		if !ok {
			c.logger.Warn("route step references unknown provider, skipping",
				zap.String("model", req.Model),
				zap.String("provider", step.ProviderID))
			continue
		}

		attempts++
		start := c.now()
		stream, err := c.executor.Execute(ctx, cfg, step.TargetModel, req, inbound)
		elapsed := c.now().Sub(start)

		if err == nil {
			c.metrics.RecordAttempt(step.ProviderID, req.Model, observability.OutcomeSuccess, elapsed)
			c.logger.Info("upstream request succeeded",
				zap.String("model", req.Model),
				zap.String("provider", step.ProviderID),
				zap.String("target_model", step.TargetModel),
				zap.Int("attempt", attempts),
				zap.Int("status", stream.StatusCode))
			return &Result{
				ProviderID:  step.ProviderID,
				TargetModel: step.TargetModel,
				Attempts:    attempts,
				Stream:      stream,
			}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, services.WrapInternal("request cancelled", ctxErr)
		}

		lastErr = err
		c.handleFailure(req.Model, step, err, elapsed)
	}

	c.metrics.RecordExhausted(req.Model)
	if lastErr == nil {
		lastErr = fmt.Errorf("no providers available for model %s", req.Model)
	}
	c.logger.Error("all providers failed",
		zap.String("model", req.Model),
		zap.Int("attempts", attempts),
		zap.Error(lastErr))

	return nil, services.NewExhaustedError(lastErr)
}

func (c *Coordinator) handleFailure(model string, step providers.RouteStep, err error, elapsed time.Duration) {
	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		c.metrics.RecordAttempt(step.ProviderID, model, observability.OutcomeUpstream, elapsed)
		c.logger.Warn("upstream attempt failed",
			zap.String("model", model),
			zap.String("provider", step.ProviderID),
			zap.Error(err))
		return
	}

	switch provErr.Kind {
	case providers.FailureRateLimited:
		until := c.breaker.Open(step.ProviderID, c.now(), 0)
		c.metrics.RecordAttempt(step.ProviderID, model, observability.OutcomeRateLimited, elapsed)
		c.metrics.RecordCooldown(step.ProviderID)
		c.logger.Warn("provider rate limited, cooling down",
			zap.String("model", model),
			zap.String("provider", step.ProviderID),
			zap.Int("status", provErr.StatusCode),
			zap.Time("until", until),
			zap.Error(err))
	default:
		c.metrics.RecordAttempt(step.ProviderID, model, observability.OutcomeUpstream, elapsed)
		c.logger.Warn("upstream attempt failed",
			zap.String("model", model),
			zap.String("provider", step.ProviderID),
			zap.Int("status", provErr.StatusCode),
			zap.Error(err))
	}
}

// Breaker returns the coordinator's circuit breaker
func (c *Coordinator) Breaker() *Breaker {
	return c.breaker
}

// Scheduler returns the coordinator's scheduler
func (c *Coordinator) Scheduler() *Scheduler {
	return c.scheduler
}
