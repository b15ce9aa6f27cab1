//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"
	"github.com/lk2023060901/meo-insight/internal/conf"
	"github.com/lk2023060901/meo-insight/internal/meo/biz"
	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"github.com/lk2023060901/meo-insight/internal/server"
)

// ProviderSet is the Wire provider set for all dependencies
var ProviderSet = wire.NewSet(
	// Infrastructure
	infraProviderSet,

	// Adapters
	adapterProviderSet,

	// Use cases
	useCaseProviderSet,

	// Services
	serviceProviderSet,

	// Servers
	serverProviderSet,
)

var infraProviderSet = wire.NewSet(
	provideZapLogger,
	provideWorkerPool,
	provideLimiter,
)

var adapterProviderSet = wire.NewSet(
	providePlaces,
	provideClaimEstimator,
	provideGenerator,
)

var useCaseProviderSet = wire.NewSet(
	biz.NewAnalyzer,
	biz.NewTranslator,
	provideOrchestratorConfig,
	biz.NewOrchestrator,
	provideSearchRunner,
	provideSessionStore,
)

var serviceProviderSet = wire.NewSet(
	provideMEOService,
)

var serverProviderSet = wire.NewSet(
	server.NewHTTPServer,
)

// InitializeApp initializes the application with Wire
func InitializeApp(config *conf.Config, log *logger.Logger) (*App, func(), error) {
	wire.Build(ProviderSet, newApp)
	return nil, nil, nil
}
