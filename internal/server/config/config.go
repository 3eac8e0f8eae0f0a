// Package config handles configuration for the API server: built-in
// defaults, an optional YAML/JSON file, environment variables and finally
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/foodable/internal/dbx"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	defaultAccessSecret  = "foodable-dev-access-secret"
	defaultRefreshSecret = "foodable-dev-refresh-secret"
)

// Config holds runtime settings for the Foodable API server.
type Config struct {
	Environment string `koanf:"environment"`
	Port        int    `koanf:"port"`
	APIVersion  string `koanf:"api_version"`

	DB        DBConfig        `koanf:"db"`
	JWT       JWTConfig       `koanf:"jwt"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Redis     RedisConfig     `koanf:"redis"`
	Log       LogConfig       `koanf:"log"`
	S3        S3Config        `koanf:"s3"`

	BcryptRounds       int           `koanf:"bcrypt_rounds"`
	GRPCHealthAddr     string        `koanf:"grpc_health_addr"`
	MetricsEnabled     bool          `koanf:"metrics_enabled"`
	TokenPurgeSchedule string        `koanf:"token_purge_schedule"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`
}

type DBConfig struct {
	Driver          string        `koanf:"driver"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	ConnectionLimit int           `koanf:"connection_limit"`
	SlowQuery       time.Duration `koanf:"slow_query"`
}

// JWTConfig: access and refresh tokens are signed with distinct secrets.
type JWTConfig struct {
	Secret           string        `koanf:"secret"`
	ExpiresIn        time.Duration `koanf:"expires_in"`
	RefreshSecret    string        `koanf:"refresh_secret"`
	RefreshExpiresIn time.Duration `koanf:"refresh_expires_in"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// RateLimitConfig covers the general API limiter and the stricter limiter
// for failed authentication attempts. Store is memory or redis.
type RateLimitConfig struct {
	Window      time.Duration `koanf:"window"`
	MaxRequests int           `koanf:"max_requests"`
	AuthWindow  time.Duration `koanf:"auth_window"`
	AuthMax     int           `koanf:"auth_max"`
	Store       string        `koanf:"store"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// S3Config configures presigned image uploads. PublicURL is the base used to
// build the image URL stored on a donation; when empty it is derived from
// Endpoint and Bucket.
type S3Config struct {
	Enabled   bool   `koanf:"enabled"`
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	PublicURL string `koanf:"public_url"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the JWT secrets are insecure and rejected in production.
func (c *Config) LoadDefaults() {
	c.Environment = EnvDevelopment
	c.Port = 8080
	c.APIVersion = "v1"

	c.DB = DBConfig{
		Driver:          "mysql",
		Host:            "localhost",
		Port:            3306,
		User:            "root",
		Password:        "root",
		Name:            "foodable",
		ConnectionLimit: 10,
		SlowQuery:       time.Second,
	}
	c.JWT = JWTConfig{
		Secret:           defaultAccessSecret,
		ExpiresIn:        24 * time.Hour,
		RefreshSecret:    defaultRefreshSecret,
		RefreshExpiresIn: 7 * 24 * time.Hour,
	}
	c.CORS = CORSConfig{AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"}}
	c.RateLimit = RateLimitConfig{
		Window:      15 * time.Minute,
		MaxRequests: 100,
		AuthWindow:  15 * time.Minute,
		AuthMax:     5,
		Store:       "memory",
	}
	c.Redis = RedisConfig{Addr: "localhost:6379"}
	c.Log = LogConfig{Level: "info"}
	c.S3 = S3Config{
		Bucket:    "foodable",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000/",
		AccessKey: "admin",
		SecretKey: "secretpassword",
	}

	c.BcryptRounds = 10
	c.GRPCHealthAddr = ":50051"
	c.MetricsEnabled = true
	c.TokenPurgeSchedule = "@hourly"
	c.ShutdownTimeout = 30 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and the environment, and finally from
// command-line flags.
func LoadConfig() (*Config, error) {
	cfg, err := loadKoanf()
	if err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	cfg.applyDerived()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDerived() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	if c.Log.Format == "" {
		if c.Environment == EnvDevelopment {
			c.Log.Format = "console"
		} else {
			c.Log.Format = "json"
		}
	}
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("environment must be one of development, production, test, got %q", c.Environment))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}
	if c.DB.Driver != "mysql" && c.DB.Driver != "postgres" {
		errs = append(errs, fmt.Errorf("db driver must be mysql or postgres, got %q", c.DB.Driver))
	}
	if c.DB.ConnectionLimit < 1 {
		errs = append(errs, errors.New("db connection limit must be positive"))
	}
	if c.JWT.Secret == "" || c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("jwt secrets must be set"))
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("access and refresh tokens must use different secrets"))
	}
	if c.JWT.ExpiresIn <= 0 || c.JWT.RefreshExpiresIn <= 0 {
		errs = append(errs, errors.New("jwt expiry durations must be positive"))
	}
	if c.IsProduction() && (c.JWT.Secret == defaultAccessSecret || c.JWT.RefreshSecret == defaultRefreshSecret) {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must be set in production"))
	}
	if c.BcryptRounds < 4 || c.BcryptRounds > 31 {
		errs = append(errs, fmt.Errorf("bcrypt rounds must be between 4 and 31, got %d", c.BcryptRounds))
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.MaxRequests <= 0 || c.RateLimit.AuthWindow <= 0 || c.RateLimit.AuthMax <= 0 {
		errs = append(errs, errors.New("rate limit windows and maximums must be positive"))
	}
	if c.RateLimit.Store != "memory" && c.RateLimit.Store != "redis" {
		errs = append(errs, fmt.Errorf("rate limit store must be memory or redis, got %q", c.RateLimit.Store))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, errors.New("s3 bucket must be set when s3 is enabled"))
	}

	return errors.Join(errs...)
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// Database converts the DB section into connection settings.
func (c *Config) Database() dbx.Config {
	return dbx.Config{
		Driver:       c.DB.Driver,
		Host:         c.DB.Host,
		Port:         c.DB.Port,
		User:         c.DB.User,
		Password:     c.DB.Password,
		Name:         c.DB.Name,
		MaxOpenConns: c.DB.ConnectionLimit,
	}
}
