package search

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/identity-cli/internal/resilience"
)

// ExecutorOptions configures one executor.
type ExecutorOptions struct {
	// QPS and Burst shape the provider's token bucket. Zero QPS means
	// unlimited.
	QPS   float64
	Burst int

	Retry    resilience.RetryConfig
	Breakers *resilience.ProviderBreakers
	Log      *zap.Logger
}

// Executor runs queries against one provider behind a token bucket, a
// circuit breaker, and retry with backoff. It counts executed queries so
// the pipeline can enforce its budget.
type Executor struct {
	provider Provider
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	breakers *resilience.ProviderBreakers
	log      *zap.Logger

	executed atomic.Int64
}

// NewExecutor wraps a provider with the resilience stack.
func NewExecutor(p Provider, opts ExecutorOptions) *Executor {
	limit := rate.Inf
	if opts.QPS > 0 {
		limit = rate.Limit(opts.QPS)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	breakers := opts.Breakers
	if breakers == nil {
		breakers = resilience.NewProviderBreakers(resilience.DefaultCircuitBreakerConfig())
	}
	log := opts.Log
	if log == nil {
		log = zap.L()
	}
	retry := opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(p.Name(), "search")
	}
	return &Executor{
		provider: p,
		limiter:  rate.NewLimiter(limit, burst),
		retry:    retry,
		breakers: breakers,
		log:      log,
	}
}

// Do executes one query. The returned error carries a resilience kind;
// callers decide whether a failed query fails the phase or just skips a
// result.
func (e *Executor) Do(ctx context.Context, query string) (*Response, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, resilience.E(resilience.KindTimeout, err)
	}

	breaker := e.breakers.Get(e.provider.Name())
	start := time.Now()

	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*Response, error) {
		return resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (*Response, error) {
			return e.provider.Search(ctx, query)
		})
	})

	e.executed.Add(1)
	if err != nil {
		e.log.Warn("search query failed",
			zap.String("provider", e.provider.Name()),
			zap.String("query", query),
			zap.String("kind", string(resilience.KindOf(err))),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil, err
	}

	e.log.Debug("search query executed",
		zap.String("provider", e.provider.Name()),
		zap.String("query", query),
		zap.Int("results", len(resp.Results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// Executed reports how many queries this executor has run, successful
// or not.
func (e *Executor) Executed() int {
	return int(e.executed.Load())
}

// ProviderName exposes the wrapped provider's name for traces.
func (e *Executor) ProviderName() string {
	return e.provider.Name()
}
