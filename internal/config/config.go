// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Store       StoreConfig
	Realtime    RealtimeConfig
	Business    BusinessConfig
	Backup      BackupConfig
	AWS         AWSConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// StoreConfig bounds every remote call made through the gateway.
type StoreConfig struct {
	Timeout time.Duration
}

type RealtimeConfig struct {
	Enabled      bool
	Channel      string
	MinReconnect time.Duration
	MaxReconnect time.Duration
	HubBuffer    int
}

type BusinessConfig struct {
	Name          string
	BackupVersion string
	BackupOrigin  string
	Locale        string
	Currency      string
}

type BackupConfig struct {
	Dir string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	KeyPrefix       string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "tallerpiolin"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		Store: StoreConfig{
			Timeout: getEnvAsDuration("STORE_TIMEOUT", 10*time.Second),
		},
		Realtime: RealtimeConfig{
			Enabled:      getEnvAsBool("REALTIME_ENABLED", true),
			Channel:      getEnv("REALTIME_CHANNEL", "tallerpiolin_changes"),
			MinReconnect: getEnvAsDuration("REALTIME_MIN_RECONNECT", 2*time.Second),
			MaxReconnect: getEnvAsDuration("REALTIME_MAX_RECONNECT", time.Minute),
			HubBuffer:    getEnvAsInt("REALTIME_HUB_BUFFER", 256),
		},
		Business: BusinessConfig{
			Name:          getEnv("BUSINESS_NAME", "TallerPiolin"),
			BackupVersion: getEnv("BACKUP_VERSION", "2.2"),
			BackupOrigin:  getEnv("BACKUP_ORIGIN", "supabase"),
			Locale:        getEnv("DEFAULT_LOCALE", "es"),
			Currency:      getEnv("CURRENCY", "CRC"),
		},
		Backup: BackupConfig{
			Dir: getEnv("BACKUP_DIR", "./backups"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "tallerpiolin-backups"),
			KeyPrefix:       getEnv("AWS_S3_PREFIX", "respaldos"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "capacitor://localhost"}),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store timeout must be positive, got %s", c.Store.Timeout)
	}

	if strings.TrimSpace(c.Business.Name) == "" {
		return fmt.Errorf("business name is required")
	}

	return nil
}

// lookupEnv parses key with parse, falling back to def when unset or malformed.
func lookupEnv[T any](key string, def T, parse func(string) (T, error)) T {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return def
	}
	parsed, err := parse(value)
	if err != nil {
		return def
	}
	return parsed
}

func getEnv(key, def string) string {
	return lookupEnv(key, def, func(v string) (string, error) { return v, nil })
}

func getEnvAsInt(key string, def int) int {
	return lookupEnv(key, def, strconv.Atoi)
}

func getEnvAsFloat(key string, def float64) float64 {
	return lookupEnv(key, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func getEnvAsBool(key string, def bool) bool {
	return lookupEnv(key, def, func(v string) (bool, error) { return strconv.ParseBool(strings.ToLower(v)) })
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	return lookupEnv(key, def, time.ParseDuration)
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
