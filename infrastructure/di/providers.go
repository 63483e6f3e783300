package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/uuid"
	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"templatehub/application/ports"
	"templatehub/application/services"
	"templatehub/infrastructure/config"
	"templatehub/infrastructure/messaging"
	"templatehub/infrastructure/messaging/eventbridge"
	"templatehub/infrastructure/persistence/mongodb"
	graphstore "templatehub/infrastructure/persistence/neo4j"
	"templatehub/infrastructure/persistence/schema"
	"templatehub/interfaces/http/rest"
	"templatehub/interfaces/http/rest/handlers"
	"templatehub/pkg/auth"
	pkgerrors "templatehub/pkg/errors"
	"templatehub/pkg/observability"
)

const serviceName = "templatehub"

// Tracing marks that the tracer provider has been installed.
type Tracing struct {
	Enabled bool
}

// ProvideLogger creates the root logger at the configured level.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}

// ProvideMetrics creates the collector, or nil when metrics are disabled.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(serviceName)
}

// ProvideTracing installs the OTLP exporter when tracing is enabled.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Tracing, func(), error) {
	if !cfg.EnableTracing {
		return &Tracing{}, func() {}, nil
	}
	shutdown, err := observability.InitTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return &Tracing{Enabled: true}, cleanup, nil
}

// ProvideMongoClient connects to the document store.
func ProvideMongoClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*mongo.Client, func(), error) {
	client, err := mongodb.Connect(ctx, cfg.MongoClient(), logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideMongoDatabase selects the configured database.
func ProvideMongoDatabase(client *mongo.Client, cfg *config.Config) *mongo.Database {
	return client.Database(cfg.Mongo.Database)
}

// ProvideDocumentStore creates the document store adapter.
func ProvideDocumentStore(db *mongo.Database, logger *zap.Logger, metrics *observability.Collector) ports.DocumentStore {
	return mongodb.NewStore(db, logger, metrics)
}

// ProvideNeo4jDriver connects to the graph store.
func ProvideNeo4jDriver(ctx context.Context, cfg *config.Config, logger *zap.Logger) (neo4jdriver.DriverWithContext, func(), error) {
	driver, err := graphstore.Connect(ctx, cfg.Neo4jClient(), logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := driver.Close(context.Background()); err != nil {
			logger.Warn("Neo4j driver close failed", zap.Error(err))
		}
	}
	return driver, cleanup, nil
}

// ProvideGraphStore creates the graph store adapter, behind the circuit
// breaker when enabled.
func ProvideGraphStore(driver neo4jdriver.DriverWithContext, cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) ports.GraphStore {
	store := graphstore.NewStore(driver, cfg.Neo4j.Database, logger, metrics)
	if !cfg.GraphBreakerEnabled {
		return store
	}
	return graphstore.NewBreakerStore(store, graphstore.DefaultBreakerConfig(), logger)
}

// ProvideEventPublisher publishes to EventBridge when events are enabled
// and to the log otherwise.
func ProvideEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	if !cfg.EnableEvents {
		return messaging.NewLogPublisher(logger), nil
	}
	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, pkgerrors.NewExternalError("aws config", err)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger), nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideSchema creates the schema bootstrapper.
func ProvideSchema(docs ports.DocumentStore, graph ports.GraphStore, logger *zap.Logger) *schema.Bootstrapper {
	return schema.NewBootstrapper(docs, graph, logger)
}

// ProvidePasswordHasher returns the bcrypt hasher.
func ProvidePasswordHasher() auth.PasswordHasher {
	return auth.NewBcryptHasher()
}

// ProvideJWTService creates the token service. Outside production a
// missing secret is replaced by a random one, so tokens do not survive a
// restart.
func ProvideJWTService(cfg *config.Config, logger *zap.Logger) (*auth.JWTService, error) {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = uuid.NewString()
		logger.Warn("JWT_SECRET not set, using an ephemeral secret")
	}
	return auth.NewJWTService(secret, cfg.JWTIssuer, cfg.JWTTTL())
}

// loginPruneInterval is how often expired login throttle keys are evicted.
const loginPruneInterval = 5 * time.Minute

// ProvideLoginLimiter creates the login throttle and starts evicting
// expired keys. The cleanup stops the eviction loop.
func ProvideLoginLimiter(cfg *config.Config) (*auth.LoginLimiter, func()) {
	limiter := auth.NewLoginLimiter(cfg.LoginRatePerMinute)
	stop := limiter.StartPruning(loginPruneInterval)
	return limiter, stop
}

// ProvideErrorHandler creates the HTTP error renderer. Stack traces are
// included outside production.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideUserHandler creates the user endpoints.
func ProvideUserHandler(users *services.UserService, tokens *auth.JWTService, limiter *auth.LoginLimiter, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.UserHandler {
	return handlers.NewUserHandler(users, tokens, limiter, errs, logger)
}

// ProvideProjectHandler creates the project endpoints.
func ProvideProjectHandler(projects *services.ProjectService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.ProjectHandler {
	return handlers.NewProjectHandler(projects, errs, logger)
}

// ProvideTemplateHandler creates the template endpoints.
func ProvideTemplateHandler(templates *services.TemplateService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.TemplateHandler {
	return handlers.NewTemplateHandler(templates, errs, logger)
}

// ProvideSectionHandler creates the questionnaire endpoints.
func ProvideSectionHandler(sections *services.SectionService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.SectionHandler {
	return handlers.NewSectionHandler(sections, errs, logger)
}

// ProvideRouter assembles the HTTP router. /ready pings both stores.
func ProvideRouter(
	cfg *config.Config,
	client *mongo.Client,
	driver neo4jdriver.DriverWithContext,
	users *handlers.UserHandler,
	projects *handlers.ProjectHandler,
	templates *handlers.TemplateHandler,
	sections *handlers.SectionHandler,
	tokens *auth.JWTService,
	errs *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	logger *zap.Logger,
) *rest.Router {
	opts := rest.Options{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.EnableMetrics,
		Checks: map[string]rest.ReadinessCheck{
			"mongodb": func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
			"neo4j":   driver.VerifyConnectivity,
		},
	}
	return rest.NewRouter(users, projects, templates, sections, tokens, errs, metrics, opts, logger)
}
