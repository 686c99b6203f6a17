package config

import (
	"fmt"
	"strings"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/pkg/db"
	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server          ServerConfig
	Ledger          LedgerConfig
	Database        DatabaseConfig
	Redis           RedisConfig
	MetadataStorage MetadataStorageConfig
	Auth            AuthConfig
	EventTriggers   EventTriggerFunctionsConfig
	Events          EventsConfig
	Logging         LoggingConfig
	Observability   ObservabilityConfig
	Profiling       ProfilingConfig
	Cache           CacheConfig
	WalletSession   WalletSessionConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type LedgerConfig struct {
	StateDir              string // badger directory, empty means in-memory
	PlatformWallet        string
	LedgerAddress         string
	TokenAddress          string
	RegistryAddress       string
	InitialPlatformFee    uint64
	BootstrapWireRegistry bool
}

type DatabaseConfig struct {
	URL           string
	MaxConns      int32
	MinConns      int32
	WorkOffline   bool
	CACertPath    string
	TLSServerName string
}

type RedisConfig struct {
	URL     string
	Channel string
}

type MetadataStorageConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Region          string
}

type AuthConfig struct {
	InternalAPIToken string
}

type EventTriggerFunctionsConfig struct {
	SessionEndedTriggerURL      string
	AchievementMintedTriggerURL string
}

type EventsConfig struct {
	QueueSize int
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	AlloyEndpoint     string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
	TraceSampleRatio  float64
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

type CacheConfig struct {
	MentorDirectoryTTLSeconds int
}

type WalletSessionConfig struct {
	JWTSecret       string
	JWTIssuer       string
	SessionTTLHours int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := build()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PoolConfig returns the event log pool settings
func (c DatabaseConfig) PoolConfig() db.PoolConfig {
	return db.PoolConfig{
		URL:      c.URL,
		MaxConns: c.MaxConns,
		MinConns: c.MinConns,
		TLS:      c.TLS(),
	}
}

// TLS returns the CA settings shared by the pool and the migrator
func (c DatabaseConfig) TLS() db.TLSOptions {
	return db.TLSOptions{CACertPath: c.CACertPath, ServerName: c.TLSServerName}
}

// LoadForMigrations reads configuration needing only the database settings
func LoadForMigrations() (*Config, error) {
	cfg := build()
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func build() *Config {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("STATE_DIR", "/app/state")
	v.SetDefault("DATABASE_CA_CERT", "certs/postgres-ca.crt")
	v.SetDefault("LEDGER_ADDRESS", "0x5fbdb2315678afecb367f032d93f642f64180aa3")
	v.SetDefault("TOKEN_ADDRESS", "0x104a0f99728d5a79dbebb4a0a58eccb456e82411")
	v.SetDefault("ACHIEVEMENT_REGISTRY_ADDRESS", "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512")
	v.SetDefault("INITIAL_PLATFORM_FEE", 5)
	v.SetDefault("BOOTSTRAP_WIRE_ACHIEVEMENTS", true)
	v.SetDefault("EVENTS_REDIS_CHANNEL", "escrow:events")
	v.SetDefault("EVENTS_QUEUE_SIZE", 1024)
	v.SetDefault("METADATA_STORAGE_REGION", "us-east-1")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "alloy:4318") // OTLP over HTTP
	v.SetDefault("O11Y_TRACE_SAMPLE_RATIO", 1.0)
	v.SetDefault("O11Y_BE_SERVICE_NAME", "getmentor-escrow")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "getmentor-dev")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "getmentor-escrow")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)
	v.SetDefault("MENTOR_DIRECTORY_TTL", 300) // 5 minutes in seconds

	// Wallet session defaults
	v.SetDefault("JWT_ISSUER", "getmentor-escrow")
	v.SetDefault("WALLET_SESSION_TTL_HOURS", 24)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	// Parse allowed CORS origins (comma-separated)
	allowedOrigins := []string{}
	originsStr := v.GetString("ALLOWED_CORS_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins = append(allowedOrigins, origin)
			}
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: allowedOrigins,
		},
		Ledger: LedgerConfig{
			StateDir:              v.GetString("STATE_DIR"),
			PlatformWallet:        v.GetString("PLATFORM_WALLET"),
			LedgerAddress:         v.GetString("LEDGER_ADDRESS"),
			TokenAddress:          v.GetString("TOKEN_ADDRESS"),
			RegistryAddress:       v.GetString("ACHIEVEMENT_REGISTRY_ADDRESS"),
			InitialPlatformFee:    v.GetUint64("INITIAL_PLATFORM_FEE"),
			BootstrapWireRegistry: v.GetBool("BOOTSTRAP_WIRE_ACHIEVEMENTS"),
		},
		Database: DatabaseConfig{
			URL:           v.GetString("DATABASE_URL"),
			MaxConns:      10,
			MinConns:      1,
			WorkOffline:   v.GetBool("DB_WORK_OFFLINE"),
			CACertPath:    v.GetString("DATABASE_CA_CERT"),
			TLSServerName: v.GetString("DATABASE_TLS_SERVER_NAME"),
		},
		Redis: RedisConfig{
			URL:     v.GetString("REDIS_URL"),
			Channel: v.GetString("EVENTS_REDIS_CHANNEL"),
		},
		MetadataStorage: MetadataStorageConfig{
			AccessKeyID:     v.GetString("METADATA_STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("METADATA_STORAGE_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("METADATA_STORAGE_BUCKET_NAME"),
			Endpoint:        v.GetString("METADATA_STORAGE_ENDPOINT"),
			Region:          v.GetString("METADATA_STORAGE_REGION"),
		},
		Auth: AuthConfig{
			InternalAPIToken: v.GetString("INTERNAL_API_TOKEN"),
		},
		EventTriggers: EventTriggerFunctionsConfig{
			SessionEndedTriggerURL:      v.GetString("SESSION_ENDED_TRIGGER_URL"),
			AchievementMintedTriggerURL: v.GetString("ACHIEVEMENT_MINTED_TRIGGER_URL"),
		},
		Events: EventsConfig{
			QueueSize: v.GetInt("EVENTS_QUEUE_SIZE"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			AlloyEndpoint:     v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
			TraceSampleRatio:  v.GetFloat64("O11Y_TRACE_SAMPLE_RATIO"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
		Cache: CacheConfig{
			MentorDirectoryTTLSeconds: v.GetInt("MENTOR_DIRECTORY_TTL"),
		},
		WalletSession: WalletSessionConfig{
			JWTSecret:       v.GetString("JWT_SECRET"),
			JWTIssuer:       v.GetString("JWT_ISSUER"),
			SessionTTLHours: v.GetInt("WALLET_SESSION_TTL_HOURS"),
		},
	}
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	// Database configuration
	if !c.Database.WorkOffline && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when not in offline mode")
	}

	// Ledger deployment
	if c.Ledger.PlatformWallet == "" {
		return fmt.Errorf("PLATFORM_WALLET is required")
	}
	addresses := map[string]string{
		"PLATFORM_WALLET":              c.Ledger.PlatformWallet,
		"LEDGER_ADDRESS":               c.Ledger.LedgerAddress,
		"TOKEN_ADDRESS":                c.Ledger.TokenAddress,
		"ACHIEVEMENT_REGISTRY_ADDRESS": c.Ledger.RegistryAddress,
	}
	for key, value := range addresses {
		if _, err := models.ParseAddress(value); err != nil {
			return fmt.Errorf("%s must be a 0x-prefixed 20-byte hex address", key)
		}
	}
	if c.Ledger.InitialPlatformFee > models.MaxPlatformFee {
		return fmt.Errorf("INITIAL_PLATFORM_FEE cannot exceed %d", models.MaxPlatformFee)
	}

	// Authentication
	if c.WalletSession.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.InternalAPIToken == "" {
		return fmt.Errorf("INTERNAL_API_TOKEN is required")
	}

	// Server configuration
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

// MetadataStorageEnabled reports whether achievement metadata should be uploaded
func (c *Config) MetadataStorageEnabled() bool {
	return c.MetadataStorage.BucketName != "" && c.MetadataStorage.AccessKeyID != ""
}
