package di

import (
	"context"

	"chatapi/application/cascade"
	"chatapi/application/ports"
	"chatapi/application/repositories"
	"chatapi/application/services"
	"chatapi/infrastructure/cache"
	"chatapi/infrastructure/config"
	"chatapi/infrastructure/messaging/eventbridge"
	"chatapi/infrastructure/persistence/dynamodb"
	"chatapi/infrastructure/persistence/memory"
	"chatapi/infrastructure/secrets"
	s3store "chatapi/infrastructure/storage/s3"
	"chatapi/interfaces/http/rest"
	"chatapi/pkg/auth"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/observability"
	"chatapi/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awssecretsmanager "github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

const serviceName = "chatapi"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideAWSConfig creates AWS configuration. Store failures surface to the
// caller, so the SDK makes a single attempt.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithRetryMaxAttempts(1),
	)
}

// ProvideSecretProvider selects where secrets are read from.
func ProvideSecretProvider(awsCfg aws.Config, cfg *config.Config) ports.SecretProvider {
	if cfg.SecretsProvider == config.SecretsProviderSecretsManager {
		return secrets.NewSecretsManagerProvider(awssecretsmanager.NewFromConfig(awsCfg), cfg.SecretsPrefix)
	}
	return secrets.NewEnvProvider()
}

// ProvideJWTService resolves the signing key and builds the token service.
func ProvideJWTService(ctx context.Context, cfg *config.Config, provider ports.SecretProvider) (*auth.JWTService, error) {
	if cfg.JWTSecret == "" {
		if err := cfg.ResolveSecrets(ctx, provider); err != nil {
			return nil, err
		}
	}
	return auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
}

func ProvideTokenIssuer(j *auth.JWTService) ports.TokenIssuer { return j }

func ProvideIdentityVerifier(j *auth.JWTService) ports.IdentityVerifier { return j }

func ProvidePasswordHasher(cfg *config.Config) ports.PasswordHasher {
	return auth.NewBcryptHasher(cfg.BcryptCost)
}

func ProvideClock() ports.Clock { return utils.SystemClock{} }

func ProvideIDGenerator() ports.IDGenerator { return utils.UUIDv7Generator{} }

func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideDocumentStore selects the store backend from STORE_DRIVER.
func ProvideDocumentStore(awsCfg aws.Config, cfg *config.Config, tracer *observability.Tracer, logger *zap.Logger) ports.DocumentStore {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory document store; data is lost on exit")
		return memory.NewStore(memory.WithPageSize(cfg.PageSize))
	}
	return dynamodb.NewStore(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName, tracer, logger)
}

func ProvideRepositoryDeps(store ports.DocumentStore, clock ports.Clock, ids ports.IDGenerator, logger *zap.Logger) repositories.Deps {
	return repositories.Deps{Store: store, Clock: clock, IDs: ids, Logger: logger}
}

// ProvideEventPublisher creates an EventBridge publisher. Without a bus name
// events are only logged.
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NewPublisher(nil, "", logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideMetrics creates metrics instance
func ProvideMetrics(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.Metrics {
	if !cfg.EnableMetrics {
		return observability.NewMetrics(cfg.MetricsNamespace, nil, logger)
	}
	return observability.NewMetrics(cfg.MetricsNamespace, awscloudwatch.NewFromConfig(awsCfg), logger)
}

// ProvideUserCache connects to Redis when REDIS_ADDR is set and falls back
// to a process-local cache otherwise.
func ProvideUserCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.UserCache, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewInMemoryCache(cfg.CacheTTL), func() {}, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisCache(client, cfg.CacheTTL, logger), func() { _ = client.Close() }, nil
}

func ProvideLoginThrottle(cfg *config.Config) services.LoginThrottle {
	return services.LoginThrottle{
		Limiter: auth.NewSlidingWindowLimiter(cfg.LoginMaxAttempts, cfg.LoginWindow),
		Limit:   cfg.LoginMaxAttempts,
		Window:  cfg.LoginWindow,
	}
}

func ProvideObjectStore(awsCfg aws.Config, cfg *config.Config) ports.ObjectStore {
	return s3store.NewObjectStore(awss3.NewFromConfig(awsCfg), cfg.Bucket)
}

func ProvideFileService(objects ports.ObjectStore, ids ports.IDGenerator, clock ports.Clock, cfg *config.Config) *services.FileService {
	return services.NewFileService(objects, ids, clock, cfg.DownloadPrefix)
}

func ProvideErrorHandler(logger *zap.Logger, cfg *config.Config) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideCoordinator wires the cascade coordinator.
func ProvideCoordinator(
	topics *repositories.TopicRepository,
	messages *repositories.MessageRepository,
	tags *repositories.TagRepository,
	categories *repositories.CategoryRepository,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	clock ports.Clock,
	logger *zap.Logger,
) *cascade.Coordinator {
	return cascade.NewCoordinator(topics, messages, tags, categories, publisher, metrics, clock, logger)
}

func ProvideRouterOptions(cfg *config.Config) rest.Options {
	return rest.Options{
		EnableCORS:        cfg.EnableCORS,
		AllowedOrigins:    cfg.AllowedOrigins,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}
}
