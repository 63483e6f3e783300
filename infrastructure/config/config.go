package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"templatehub/infrastructure/persistence/mongodb"
	"templatehub/infrastructure/persistence/neo4j"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`
	IsLambda      bool   `yaml:"is_lambda"`

	// Stores
	Mongo        MongoConfig `yaml:"mongo"`
	Neo4j        Neo4jConfig `yaml:"neo4j"`
	StoreTimeout int         `yaml:"store_timeout_seconds"` // connect and ping only

	// Graph circuit breaker
	GraphBreakerEnabled bool `yaml:"graph_breaker_enabled"`

	// Events
	EnableEvents bool   `yaml:"enable_events"`
	EventBusName string `yaml:"event_bus_name"`
	AWSRegion    string `yaml:"aws_region"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret     string `yaml:"jwt_secret"`
	JWTIssuer     string `yaml:"jwt_issuer"`
	JWTTTLMinutes int    `yaml:"jwt_ttl_minutes"`

	// Login throttling per client address
	LoginRatePerMinute int `yaml:"login_rate_per_minute"`

	// Feature flags
	EnableMetrics  bool     `yaml:"enable_metrics"`
	EnableTracing  bool     `yaml:"enable_tracing"`
	OTLPEndpoint   string   `yaml:"otlp_endpoint"`
	EnableCORS     bool     `yaml:"enable_cors"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MongoConfig locates the document store.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// Neo4jConfig locates the graph store.
type Neo4jConfig struct {
	URI         string `yaml:"uri"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	MaxPoolSize int    `yaml:"max_pool_size"`
}

func defaults() *Config {
	return &Config{
		ServerAddress:       ":8080",
		Environment:         "development",
		Mongo:               MongoConfig{URI: "mongodb://localhost:27017", Database: "test_db"},
		Neo4j:               Neo4jConfig{URI: "neo4j://localhost:7687", Username: "neo4j"},
		StoreTimeout:        10,
		GraphBreakerEnabled: true,
		EventBusName:        "templatehub-events",
		AWSRegion:           "us-west-2",
		LogLevel:            "info",
		JWTIssuer:           "templatehub",
		JWTTTLMinutes:       60,
		LoginRatePerMinute:  10,
		EnableCORS:          true,
		AllowedOrigins:      []string{"*"},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file
// named by CONFIG_FILE if set, then environment variables. Later sources
// win.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DATABASE", c.Mongo.Database)
	c.Neo4j.URI = getEnv("NEO4J_URI", c.Neo4j.URI)
	c.Neo4j.Username = getEnv("NEO4J_USERNAME", c.Neo4j.Username)
	c.Neo4j.Password = getEnv("NEO4J_PASSWORD", c.Neo4j.Password)
	c.Neo4j.Database = getEnv("NEO4J_DATABASE", c.Neo4j.Database)
	c.Neo4j.MaxPoolSize = getEnvInt("NEO4J_MAX_POOL_SIZE", c.Neo4j.MaxPoolSize)
	c.StoreTimeout = getEnvInt("STORE_TIMEOUT_SECONDS", c.StoreTimeout)
	c.GraphBreakerEnabled = getEnvBool("GRAPH_BREAKER_ENABLED", c.GraphBreakerEnabled)

	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.JWTTTLMinutes = getEnvInt("JWT_TTL_MINUTES", c.JWTTTLMinutes)
	c.LoginRatePerMinute = getEnvInt("LOGIN_RATE_PER_MINUTE", c.LoginRatePerMinute)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTLP_ENDPOINT", c.OTLPEndpoint)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = strings.Split(origins, ",")
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("MONGO_DATABASE is required")
	}
	if c.Neo4j.URI == "" || c.Neo4j.Username == "" {
		return fmt.Errorf("NEO4J_URI and NEO4J_USERNAME are required")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT_SECONDS must be positive")
	}
	if c.JWTTTLMinutes <= 0 {
		return fmt.Errorf("JWT_TTL_MINUTES must be positive")
	}
	if c.EnableTracing && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP_ENDPOINT is required when tracing is enabled")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.Neo4j.Password == "" {
			return fmt.Errorf("NEO4J_PASSWORD is required in production")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// StoreTimeoutDuration is the connect and ping deadline for both stores.
func (c *Config) StoreTimeoutDuration() time.Duration {
	return time.Duration(c.StoreTimeout) * time.Second
}

// JWTTTL is the lifetime of issued tokens.
func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

// MongoClient returns the document store connection settings.
func (c *Config) MongoClient() mongodb.ClientConfig {
	return mongodb.ClientConfig{
		URI:            c.Mongo.URI,
		Database:       c.Mongo.Database,
		ConnectTimeout: c.StoreTimeoutDuration(),
	}
}

// Neo4jClient returns the graph store connection settings.
func (c *Config) Neo4jClient() neo4j.Config {
	return neo4j.Config{
		URI:               c.Neo4j.URI,
		Username:          c.Neo4j.Username,
		Password:          c.Neo4j.Password,
		Database:          c.Neo4j.Database,
		ConnectionTimeout: c.StoreTimeoutDuration(),
		MaxPoolSize:       c.Neo4j.MaxPoolSize,
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
