package injector

import (
	"time"

	"github.com/lk2023060901/meo-insight/internal/ai/generator"
	"github.com/lk2023060901/meo-insight/internal/conf"
	"github.com/lk2023060901/meo-insight/internal/gbp"
	"github.com/lk2023060901/meo-insight/internal/meo/biz"
	"github.com/lk2023060901/meo-insight/internal/meo/service"
	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"github.com/lk2023060901/meo-insight/internal/pkg/ratelimit"
	"github.com/lk2023060901/meo-insight/internal/pkg/workerpool"
	"github.com/lk2023060901/meo-insight/internal/places/provider"
	placestypes "github.com/lk2023060901/meo-insight/internal/places/types"
	"github.com/lk2023060901/meo-insight/internal/server"
	"go.uber.org/zap"
)

// Provider functions shared by wire.go and wire_gen.go

func provideZapLogger(log *logger.Logger) *zap.Logger {
	return log.Logger
}

func provideWorkerPool(config *conf.Config, log *zap.Logger) (*workerpool.Pool, func(), error) {
	pool, err := workerpool.New(&workerpool.Config{
		Size:           config.Search.MaxConcurrency,
		ExpiryDuration: 10 * time.Second,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Shutdown, nil
}

func providePlaces(config *conf.Config) (provider.Provider, error) {
	pc := config.Places
	return provider.NewFactory().Create(&placestypes.ProviderConfig{
		ID:           placestypes.ProviderID(pc.Provider),
		APIHost:      pc.APIHost,
		APIKey:       pc.APIKey,
		LanguageCode: pc.LanguageCode,
		MaxResults:   pc.MaxResults,
		Timeout:      pc.Timeout,
		FixtureDelay: pc.FixtureDelay,
	})
}

func provideClaimEstimator(config *conf.Config, log *zap.Logger) (gbp.ClaimEstimator, error) {
	gc := config.GBP
	return gbp.New(&gbp.Config{
		Mode:     gbp.Mode(gc.Mode),
		Marker:   gc.Marker,
		MinDelay: gc.MinDelay,
		MaxDelay: gc.MaxDelay,
		ProbeURL: gc.ProbeURL,
		Timeout:  gc.Timeout,
	}, log)
}

func provideGenerator(config *conf.Config, log *logger.Logger) (generator.TextGenerator, error) {
	gc := config.Generator
	return generator.New(&generator.Config{
		Provider:    generator.ProviderID(gc.Provider),
		APIKey:      gc.APIKey,
		BaseURL:     gc.BaseURL,
		Model:       gc.Model,
		Temperature: gc.Temperature,
		Timeout:     gc.Timeout,
	}, log)
}

func provideOrchestratorConfig(config *conf.Config) biz.OrchestratorConfig {
	return biz.OrchestratorConfig{
		DisplayLanguage: config.Search.DisplayLanguage,
		LookupTimeout:   config.Search.LookupTimeout,
		CallTimeout:     config.Search.CallTimeout,
	}
}

func provideSearchRunner(o *biz.Orchestrator) biz.SearchRunner {
	return o
}

func provideSessionStore(config *conf.Config, runner biz.SearchRunner) *biz.SessionStore {
	return biz.NewSessionStore(runner, config.Search.SessionTTL)
}

// /check-claim 始终用启发式应答，避免 http 模式指向自身时递归
func provideMEOService(
	config *conf.Config,
	sessions *biz.SessionStore,
	translator *biz.Translator,
	log *logger.Logger,
) *service.MEOService {
	gc := config.GBP
	probe := gbp.NewHeuristicEstimator(gc.Marker, gc.MinDelay, gc.MaxDelay)
	return service.NewMEOService(sessions, translator, probe, config.Search.DisplayLanguage, log)
}

func provideLimiter(config *conf.Config, log *logger.Logger) (*ratelimit.Limiter, func()) {
	rc := config.RateLimit
	if !rc.Enabled {
		return nil, func() {}
	}
	limiter := ratelimit.New(ratelimit.Config{
		Addr:        rc.RedisAddr,
		Password:    rc.RedisPassword,
		DB:          rc.RedisDB,
		MaxRequests: rc.MaxRequests,
		Window:      time.Duration(rc.WindowSeconds) * time.Second,
	}, log)
	return limiter, func() {
		if err := limiter.Close(); err != nil {
			log.Warn("failed to close rate limiter", zap.Error(err))
		}
	}
}

func newApp(
	config *conf.Config,
	log *logger.Logger,
	httpServer *server.HTTPServer,
	sessions *biz.SessionStore,
) *App {
	return &App{
		Config:     config,
		Logger:     log,
		HTTPServer: httpServer,
		Sessions:   sessions,
	}
}
