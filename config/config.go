package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Keycloak      KeycloakConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence
// over individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// KeycloakConfig holds identity provider configuration. AuthServerURL is
// the realm URL and may carry the token-endpoint suffix; components strip
// it where they need the realm root.
type KeycloakConfig struct {
	AuthServerURL string
	ClientID      string
	ClientSecret  string
	RedirectURI   string

	// AllowedAudiences is the set of acceptable aud values. Keycloak
	// stamps "account" on tokens besides the client id.
	AllowedAudiences []string

	// Scope requested on the authorization URL.
	Scope string

	// ExchangeTimeout bounds the outbound token-endpoint call. Zero
	// means no client-side deadline, the historical default.
	ExchangeTimeout time.Duration

	// VerifySignature enables RS256 signature verification against the
	// realm JWKS before claims are trusted. Off by default: the decoder
	// alone trusts the payload, and turning this on is an explicit
	// hardening step.
	VerifySignature bool

	// JWKSCacheTTL bounds how long fetched realm keys are reused.
	JWKSCacheTTL time.Duration
}

// ObservabilityConfig holds logging configuration.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables.
func New() (*Config, error) {
	// Load .env if present; real env vars win.
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Keycloak: KeycloakConfig{
			AuthServerURL:    getEnv("KEYCLOAK_AUTH_SERVER_URL", ""),
			ClientID:         getEnv("KEYCLOAK_CLIENT_ID", ""),
			ClientSecret:     getEnv("KEYCLOAK_CLIENT_SECRET", ""),
			RedirectURI:      getEnv("KEYCLOAK_REDIRECT_URI", "http://localhost:3000/callback"),
			AllowedAudiences: loadAllowedAudiences(),
			Scope:            getEnv("KEYCLOAK_SCOPE", "openid profile email"),
			ExchangeTimeout:  getEnvAsDuration("OAUTH_EXCHANGE_TIMEOUT", 0),
			VerifySignature:  getEnvAsBool("KEYCLOAK_VERIFY_SIGNATURE", false),
			JWKSCacheTTL:     getEnvAsDuration("KEYCLOAK_JWKS_CACHE_TTL", 1*time.Hour),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.IsProduction() {
		if c.Keycloak.AuthServerURL == "" {
			return fmt.Errorf("keycloak auth server URL is required in production")
		}
		if c.Keycloak.ClientID == "" {
			return fmt.Errorf("keycloak client ID is required in production")
		}
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Audiences returns the allowed audiences, defaulting to the client id
// plus Keycloak's "account" audience when none are configured.
func (k *KeycloakConfig) Audiences() []string {
	if len(k.AllowedAudiences) > 0 {
		return k.AllowedAudiences
	}
	return []string{k.ClientID, "account"}
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password).
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address returns the HTTP server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func loadDatabaseConfig() DatabaseConfig {
	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "identity"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "identity"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func loadAllowedAudiences() []string {
	raw := getEnv("KEYCLOAK_ALLOWED_AUDIENCES", "")
	if raw == "" {
		return nil
	}
	var audiences []string
	for _, aud := range strings.Split(raw, ",") {
		if aud = strings.TrimSpace(aud); aud != "" {
			audiences = append(audiences, aud)
		}
	}
	return audiences
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
