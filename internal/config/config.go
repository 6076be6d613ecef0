package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envStoreDriver           = "STORE_DRIVER"
	envDBHost                = "DB_HOST"
	envDBPort                = "DB_PORT"
	envDBName                = "DB_NAME"
	envDBUser                = "DB_USER"
	envDBPassword            = "DB_PASSWORD"
	envDBSSLMode             = "DB_SSL_MODE"
	envDBMaxConns            = "DB_MAX_CONNS"
	envDBMinConns            = "DB_MIN_CONNS"
	envSQLitePath            = "SQLITE_PATH"
	envJWTSecret             = "JWT_SECRET"
	envJWTExpiry             = "JWT_EXPIRY_MINUTES"
	envBcryptCost            = "BCRYPT_COST"
	envAuthRealm             = "AUTH_REALM"
	envAdminUsername         = "ADMIN_USERNAME"
	envAdminPassword         = "ADMIN_PASSWORD"
	envAdminEmail            = "ADMIN_EMAIL"
	envRateLimitRPS          = "RATE_LIMIT_RPS"
	envRateLimitBurst        = "RATE_LIMIT_BURST"
	envStrictRateLimitRPS    = "STRICT_RATE_LIMIT_RPS"
	envStrictRateLimitBurst  = "STRICT_RATE_LIMIT_BURST"
	envLogLevel              = "LOG_LEVEL"
	envLogFormat             = "LOG_FORMAT"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"

	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

const (
	defaultServerPort         = "8080"
	defaultServerReadTimeout  = 10 * time.Second
	defaultServerWriteTimeout = 10 * time.Second
	defaultServerShutdown     = 10 * time.Second
	defaultStoreDriver        = StoreDriverPostgres
	defaultDBHost             = "localhost"
	defaultDBPort             = 5432
	defaultDBName             = "userservice"
	defaultDBUser             = "userservice_app"
	defaultDBSSLMode          = "disable"
	defaultDBMaxConns         = 25
	defaultDBMinConns         = 5
	defaultSQLitePath         = "users.db"
	defaultJWTExpiry          = 60 * time.Minute
	defaultBcryptCost         = 12
	defaultAuthRealm          = "user-service"
	defaultRateLimitRPS       = 100
	defaultRateLimitBurst     = 200
	defaultStrictRPS          = 5
	defaultStrictBurst        = 10
	defaultLogLevel           = "info"
	defaultLogFormat          = LogFormatJSON
	minBcryptCost             = 4
	maxBcryptCost             = 31
	minJWTSecretLength        = 32
	minUniqueCharsInSecret    = 16
	minRepeatedCharThreshold  = 4
	maxRepeatedChars          = 2

	errPortRequiredFmt         = "PORT must be set"
	errRequiredEnvNotSetFmt    = "required environment variable %s is not set"
	errStoreDriverInvalidFmt   = "STORE_DRIVER must be %q or %q, got %q"
	errJWTSecretMinLengthFmt   = "JWT_SECRET must be at least %d characters"
	errJWTSecretLowEntropyFmt  = "JWT_SECRET has insufficient entropy (appears non-random). Use a cryptographically secure random string."
	errBcryptCostRangeFmt      = "BCRYPT_COST must be between %d and %d"
	errAdminPartialFmt         = "ADMIN_USERNAME and ADMIN_PASSWORD must be set together"
	errRateLimitInvalidFmt     = "%s must be positive"
	errLogFormatInvalidFmt     = "LOG_FORMAT must be %q or %q, got %q"
	errInvalidConfigurationFmt = "invalid configuration: %w"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	SQLite    SQLiteConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

type SQLiteConfig struct {
	Path string
}

type JWTConfig struct {
	Secret         string
	ExpiryDuration time.Duration
}

type AuthConfig struct {
	BcryptCost int
	Realm      string
}

// AdminConfig seeds an initial administrator on startup when set.
type AdminConfig struct {
	Username string
	Password string
	Email    string
}

func (a AdminConfig) Enabled() bool {
	return a.Username != "" && a.Password != ""
}

type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	StrictRPS         int
	StrictBurst       int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv(envStoreDriver, defaultStoreDriver)),
		},
		Database: DatabaseConfig{
			Host:     getEnv(envDBHost, defaultDBHost),
			Port:     getIntEnv(envDBPort, defaultDBPort),
			Database: getEnv(envDBName, defaultDBName),
			User:     getEnv(envDBUser, defaultDBUser),
			Password: os.Getenv(envDBPassword),
			SSLMode:  getEnv(envDBSSLMode, defaultDBSSLMode),
			MaxConns: getIntEnv(envDBMaxConns, defaultDBMaxConns),
			MinConns: getIntEnv(envDBMinConns, defaultDBMinConns),
		},
		SQLite: SQLiteConfig{
			Path: getEnv(envSQLitePath, defaultSQLitePath),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv(envJWTSecret),
			ExpiryDuration: getDurationEnv(envJWTExpiry, defaultJWTExpiry),
		},
		Auth: AuthConfig{
			BcryptCost: getIntEnv(envBcryptCost, defaultBcryptCost),
			Realm:      getEnv(envAuthRealm, defaultAuthRealm),
		},
		Admin: AdminConfig{
			Username: os.Getenv(envAdminUsername),
			Password: os.Getenv(envAdminPassword),
			Email:    os.Getenv(envAdminEmail),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getIntEnv(envRateLimitRPS, defaultRateLimitRPS),
			Burst:             getIntEnv(envRateLimitBurst, defaultRateLimitBurst),
			StrictRPS:         getIntEnv(envStrictRateLimitRPS, defaultStrictRPS),
			StrictBurst:       getIntEnv(envStrictRateLimitBurst, defaultStrictBurst),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv(envLogLevel, defaultLogLevel)),
			Format: strings.ToLower(getEnv(envLogFormat, defaultLogFormat)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New(errPortRequiredFmt)
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf(errRequiredEnvNotSetFmt, envDBPassword)
		}
	case StoreDriverSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf(errRequiredEnvNotSetFmt, envSQLitePath)
		}
	default:
		return fmt.Errorf(errStoreDriverInvalidFmt, StoreDriverPostgres, StoreDriverSQLite, c.Store.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf(errRequiredEnvNotSetFmt, envJWTSecret)
	}

	if len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf(errJWTSecretMinLengthFmt, minJWTSecretLength)
	}

	if !hasMinimumEntropy(c.JWT.Secret) {
		return errors.New(errJWTSecretLowEntropyFmt)
	}

	if c.Auth.BcryptCost < minBcryptCost || c.Auth.BcryptCost > maxBcryptCost {
		return fmt.Errorf(errBcryptCostRangeFmt, minBcryptCost, maxBcryptCost)
	}

	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		return errors.New(errAdminPartialFmt)
	}

	limits := map[string]int{
		envRateLimitRPS:         c.RateLimit.RequestsPerSecond,
		envRateLimitBurst:       c.RateLimit.Burst,
		envStrictRateLimitRPS:   c.RateLimit.StrictRPS,
		envStrictRateLimitBurst: c.RateLimit.StrictBurst,
	}
	for key, v := range limits {
		if v <= 0 {
			return fmt.Errorf(errRateLimitInvalidFmt, key)
		}
	}

	if c.Log.Format != LogFormatJSON && c.Log.Format != LogFormatConsole {
		return fmt.Errorf(errLogFormatInvalidFmt, LogFormatJSON, LogFormatConsole, c.Log.Format)
	}

	return nil
}

func hasMinimumEntropy(secret string) bool {
	if len(secret) < minJWTSecretLength {
		return false
	}

	charCounts := make(map[rune]int)
	for _, char := range secret {
		charCounts[char]++
	}

	uniqueChars := len(charCounts)
	if uniqueChars < minUniqueCharsInSecret {
		return false
	}

	repeatedChars := 0
	for _, count := range charCounts {
		if count > len(secret)/minRepeatedCharThreshold {
			repeatedChars++
		}
	}

	return repeatedChars <= maxRepeatedChars
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
