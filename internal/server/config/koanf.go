package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/foodable/internal/flagx"
	"github.com/dmitrijs2005/foodable/internal/timex"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the config file when no -c/-config flag is given.
const ConfigPathEnvVar = "CONFIG_PATH"

// envKeys maps environment variables to config paths.
var envKeys = map[string]string{
	"ENVIRONMENT": "environment",
	"NODE_ENV":    "environment",
	"PORT":        "port",
	"API_VERSION": "api_version",

	"DB_DRIVER":           "db.driver",
	"DB_HOST":             "db.host",
	"DB_PORT":             "db.port",
	"DB_USER":             "db.user",
	"DB_PASSWORD":         "db.password",
	"DB_NAME":             "db.name",
	"DB_CONNECTION_LIMIT": "db.connection_limit",
	"DB_SLOW_QUERY":       "db.slow_query",

	"JWT_SECRET":             "jwt.secret",
	"JWT_EXPIRES_IN":         "jwt.expires_in",
	"JWT_REFRESH_SECRET":     "jwt.refresh_secret",
	"JWT_REFRESH_EXPIRES_IN": "jwt.refresh_expires_in",

	"ALLOWED_ORIGINS": "cors.allowed_origins",

	"RATE_LIMIT_WINDOW":       "rate_limit.window",
	"RATE_LIMIT_WINDOW_MS":    "rate_limit.window",
	"RATE_LIMIT_MAX_REQUESTS": "rate_limit.max_requests",
	"AUTH_RATE_LIMIT_WINDOW":  "rate_limit.auth_window",
	"AUTH_RATE_LIMIT_MAX":     "rate_limit.auth_max",
	"RATE_LIMIT_STORE":        "rate_limit.store",

	"REDIS_ADDR":     "redis.addr",
	"REDIS_PASSWORD": "redis.password",
	"REDIS_DB":       "redis.db",

	"LOG_LEVEL":  "log.level",
	"LOG_FORMAT": "log.format",

	"S3_ENABLED":    "s3.enabled",
	"S3_BUCKET":     "s3.bucket",
	"S3_REGION":     "s3.region",
	"S3_ENDPOINT":   "s3.endpoint",
	"S3_ACCESS_KEY": "s3.access_key",
	"S3_SECRET_KEY": "s3.secret_key",
	"S3_PUBLIC_URL": "s3.public_url",

	"BCRYPT_ROUNDS":        "bcrypt_rounds",
	"GRPC_HEALTH_ADDR":     "grpc_health_addr",
	"METRICS_ENABLED":      "metrics_enabled",
	"TOKEN_PURGE_SCHEDULE": "token_purge_schedule",
	"SHUTDOWN_TIMEOUT":     "shutdown_timeout",
}

var durationKeys = []string{
	"db.slow_query",
	"jwt.expires_in",
	"jwt.refresh_expires_in",
	"rate_limit.window",
	"rate_limit.auth_window",
	"shutdown_timeout",
}

var sliceKeys = []string{"cors.allowed_origins"}

// loadKoanf layers defaults, the optional config file and the environment.
func loadKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{}
	defaults.LoadDefaults()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := configFilePath(); path != "" {
		// JSON is valid YAML, so one parser serves both.
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processDurationFields(k); err != nil {
		return nil, err
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func configFilePath() string {
	if p := flagx.ConfigFileFlag(); p != "" {
		return p
	}
	return os.Getenv(ConfigPathEnvVar)
}

// envTransformFunc maps an environment variable name to its config path.
// Unknown variables map to "" and are skipped. NODE_ENV only counts when
// ENVIRONMENT is unset.
func envTransformFunc(key string) string {
	if key == "NODE_ENV" && os.Getenv("ENVIRONMENT") != "" {
		return ""
	}
	return envKeys[key]
}

func processDurationFields(k *koanf.Koanf) error {
	for _, key := range durationKeys {
		var d time.Duration
		switch v := k.Get(key).(type) {
		case string:
			parsed, err := timex.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration for %s: %w", key, err)
			}
			d = parsed
		case int:
			d = time.Duration(v) * time.Millisecond
		case int64:
			d = time.Duration(v) * time.Millisecond
		case float64:
			d = time.Duration(v) * time.Millisecond
		default:
			continue
		}
		if err := k.Set(key, d); err != nil {
			return err
		}
	}
	return nil
}

func processSliceFields(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		v, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var out []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(key, out); err != nil {
			return err
		}
	}
	return nil
}
