package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/identity-cli/internal/config"
	"github.com/sells-group/identity-cli/internal/events"
	"github.com/sells-group/identity-cli/internal/monitoring"
	"github.com/sells-group/identity-cli/internal/pipeline"
	"github.com/sells-group/identity-cli/internal/platform"
	"github.com/sells-group/identity-cli/internal/queryplan"
	"github.com/sells-group/identity-cli/internal/resilience"
	"github.com/sells-group/identity-cli/internal/search"
	"github.com/sells-group/identity-cli/internal/store"
	"github.com/sells-group/identity-cli/internal/summary"
	anthropicpkg "github.com/sells-group/identity-cli/pkg/anthropic"
	"github.com/sells-group/identity-cli/pkg/brave"
	"github.com/sells-group/identity-cli/pkg/githubapi"
	"github.com/sells-group/identity-cli/pkg/serper"
)

// appEnv holds the initialized store, pipeline, and the shared metrics
// and progress-event hub the serve/worker/resolve commands need.
type appEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Hub      *events.Hub
	Metrics  *monitoring.Metrics
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "identity.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// buildProvider picks the web-search provider chain: replay fixtures in
// replay mode, otherwise Serper with Brave as fallback.
func buildProvider() (search.Provider, config.RateConfig, error) {
	if cfg.Discovery.ReplayMode {
		p, err := search.NewReplayProvider("serper", cfg.Discovery.FixturePath)
		if err != nil {
			return nil, config.RateConfig{}, err
		}
		zap.L().Info("replay mode enabled", zap.String("fixtures", cfg.Discovery.FixturePath))
		return p, config.RateConfig{}, nil
	}

	var serperProv, braveProv search.Provider
	if cfg.Serper.Key != "" {
		serperProv = search.NewSerperProvider(serper.NewClient(cfg.Serper.Key, serper.WithBaseURL(cfg.Serper.BaseURL)))
	}
	if cfg.Brave.Key != "" {
		braveProv = search.NewBraveProvider(brave.NewClient(cfg.Brave.Key, brave.WithBaseURL(cfg.Brave.BaseURL)))
	}

	switch {
	case serperProv != nil && braveProv != nil:
		return search.NewFallbackProvider(serperProv, braveProv), cfg.Rates.Serper, nil
	case serperProv != nil:
		return serperProv, cfg.Rates.Serper, nil
	case braveProv != nil:
		return braveProv, cfg.Rates.Brave, nil
	default:
		return nil, config.RateConfig{}, eris.New("no search provider configured (set IDENTITY_SERPER_KEY or IDENTITY_BRAVE_KEY)")
	}
}

// initEnv sets up the store, search stack, platform sources, summarizer,
// metrics, and the pipeline. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	provider, rates, err := buildProvider()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	breakers := resilience.NewProviderBreakers(resilience.DefaultCircuitBreakerConfig())
	webExec := search.NewExecutor(provider, search.ExecutorOptions{
		QPS:      rates.QPS,
		Burst:    rates.Burst,
		Breakers: breakers,
	})

	sources := platform.NewRegistry()
	sources.Register(platform.NewGitHubSource(
		webExec,
		githubapi.NewClient(cfg.GitHub.Token, githubapi.WithBaseURL(cfg.GitHub.BaseURL)),
		cfg.Discovery.GatherCommitEvidence,
	))
	for _, p := range queryplan.HandlePlatforms() {
		sources.Register(platform.NewSERPSource(p, webExec))
	}

	var summarizer pipeline.Summarizer
	if cfg.Anthropic.Key != "" {
		summarizer = summary.New(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, zap.L())
	} else {
		zap.L().Warn("anthropic key not set, summary generation disabled")
	}

	metrics := monitoring.New()
	hub := events.NewHub(zap.L())

	p := pipeline.New(pipeline.Options{
		Store:      st,
		Sources:    sources,
		Web:        webExec,
		Scoring:    cfg.Scoring,
		Discovery:  cfg.Discovery,
		Summarizer: summarizer,
		Events:     hub,
		Observer:   metrics,
		Log:        zap.L(),
	})

	zap.L().Info("pipeline initialized",
		zap.Int("platforms", len(sources.Platforms())),
		zap.String("provider", webExec.ProviderName()),
		zap.Bool("summaries", summarizer != nil))

	return &appEnv{Store: st, Pipeline: p, Hub: hub, Metrics: metrics}, nil
}
