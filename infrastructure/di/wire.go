//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"chatapi/application/repositories"
	"chatapi/application/services"
	"chatapi/infrastructure/config"
	"chatapi/interfaces/http/rest"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideSecretProvider,
	ProvideJWTService,
	ProvideTokenIssuer,
	ProvideIdentityVerifier,
	ProvidePasswordHasher,
	ProvideClock,
	ProvideIDGenerator,
	ProvideTracer,
	ProvideDocumentStore,
	ProvideRepositoryDeps,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideUserCache,
	ProvideLoginThrottle,
	ProvideObjectStore,
	ProvideFileService,
	ProvideErrorHandler,
	ProvideCoordinator,
	ProvideRouterOptions,
	rest.NewRouter,
	wire.Struct(new(rest.Services), "*"),
	repositories.NewUserRepository,
	repositories.NewTopicRepository,
	repositories.NewMessageRepository,
	repositories.NewTagRepository,
	repositories.NewCategoryRepository,
	repositories.NewPromptRepository,
	services.NewAuthService,
	services.NewUserService,
	services.NewTopicService,
	services.NewMessageService,
	services.NewTagService,
	services.NewCategoryService,
	services.NewPromptService,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
