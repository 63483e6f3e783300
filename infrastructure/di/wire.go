//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"templatehub/application/services"
	"templatehub/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracing,
	ProvideMongoClient,
	ProvideMongoDatabase,
	ProvideDocumentStore,
	ProvideNeo4jDriver,
	ProvideGraphStore,
	ProvideEventPublisher,
	ProvideSchema,
	ProvidePasswordHasher,
	ProvideJWTService,
	ProvideLoginLimiter,
	ProvideErrorHandler,
	services.NewMirror,
	services.NewProjectService,
	services.NewTemplateService,
	services.NewSectionService,
	services.NewUserService,
	ProvideUserHandler,
	ProvideProjectHandler,
	ProvideTemplateHandler,
	ProvideSectionHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
