//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"voicescribe/internal/app/repository"
	"voicescribe/internal/config"
)

var repositorySet = wire.NewSet(
	OpenDatabase,
	provideCommonDB,
	repository.NewJobStore,
	repository.NewQuotaStore,
	repository.NewSettingsStore,
)

var domainSet = wire.NewSet(
	provideLimitsStore,
	provideLedger,
	provideGateway,
	provideAnalyzer,
	provideBus,
	provideStore,
	provideController,
	provideReconciler,
	provideWatchdog,
	provideRunner,
)

var httpSet = wire.NewSet(
	provideHTTPLogger,
	provideAuthenticator,
	provideHealth,
	provideContainer,
	provideServerConfig,
	provideServer,
)

// InitializeApp builds the whole service graph from cfg
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(provideLogger, repositorySet, domainSet, httpSet, newApp)
	return &App{}, nil, nil
}
