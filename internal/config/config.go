package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cstatsentry/backend/internal/platform/logging"
	"github.com/cstatsentry/backend/internal/platform/resilience"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool
	CacheEnabled            bool
	CacheTTL                time.Duration
	CORSAllowedOrigins      []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	MetricsEnabled          bool
	PprofEnabled            bool
	PprofAddr               string

	LeetifyEnabled    bool
	LeetifyBaseURL    string
	LeetifyTimeout    time.Duration
	LeetifyMaxRetries int
	LeetifyCircuit    resilience.CircuitBreakerConfig

	SteamEnabled    bool
	SteamAPIKey     string
	SteamBaseURL    string
	SteamTimeout    time.Duration
	SteamMaxRetries int
	SteamCircuit    resilience.CircuitBreakerConfig

	SyncEnabled     bool
	SyncMatchLimit  int
	SyncMaxWorkers  int
	SyncJoinTimeout time.Duration

	SweepEnabled        bool
	SweepInterval       time.Duration
	SweepMaxConcurrency int

	InternalJobToken string
	QStashEnabled    bool
	QStashBaseURL    string
	QStashToken      string
	QStashTargetURL  string
	QStashRetries    int
	QStashCircuit    resilience.CircuitBreakerConfig

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	leetifyEnabled, err := strconv.ParseBool(getEnv("LEETIFY_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEETIFY_ENABLED: %w", err)
	}
	leetifyTimeout, err := time.ParseDuration(getEnv("LEETIFY_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEETIFY_TIMEOUT: %w", err)
	}
	if leetifyTimeout <= 0 {
		return Config{}, fmt.Errorf("LEETIFY_TIMEOUT must be > 0")
	}
	leetifyMaxRetries, err := getEnvAsInt("LEETIFY_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEETIFY_MAX_RETRIES: %w", err)
	}
	if leetifyMaxRetries < 0 {
		return Config{}, fmt.Errorf("LEETIFY_MAX_RETRIES must be >= 0")
	}
	leetifyCircuit, err := parseCircuitConfig("LEETIFY")
	if err != nil {
		return Config{}, err
	}

	steamEnabled, err := strconv.ParseBool(getEnv("STEAM_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STEAM_ENABLED: %w", err)
	}
	steamAPIKey := strings.TrimSpace(getEnv("STEAM_API_KEY", ""))
	if steamEnabled && steamAPIKey == "" && appEnv == EnvProd {
		return Config{}, fmt.Errorf("STEAM_API_KEY is required when STEAM_ENABLED=true in prod")
	}
	steamTimeout, err := time.ParseDuration(getEnv("STEAM_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STEAM_TIMEOUT: %w", err)
	}
	if steamTimeout <= 0 {
		return Config{}, fmt.Errorf("STEAM_TIMEOUT must be > 0")
	}
	steamMaxRetries, err := getEnvAsInt("STEAM_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse STEAM_MAX_RETRIES: %w", err)
	}
	if steamMaxRetries < 0 {
		return Config{}, fmt.Errorf("STEAM_MAX_RETRIES must be >= 0")
	}
	steamCircuit, err := parseCircuitConfig("STEAM")
	if err != nil {
		return Config{}, err
	}

	syncEnabled, err := strconv.ParseBool(getEnv("SYNC_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_ENABLED: %w", err)
	}
	syncMatchLimit, err := getEnvAsInt("SYNC_MATCH_LIMIT", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_MATCH_LIMIT: %w", err)
	}
	if syncMatchLimit < 1 {
		return Config{}, fmt.Errorf("SYNC_MATCH_LIMIT must be >= 1")
	}
	syncMaxWorkers, err := getEnvAsInt("SYNC_MAX_WORKERS", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_MAX_WORKERS: %w", err)
	}
	if syncMaxWorkers < 1 {
		return Config{}, fmt.Errorf("SYNC_MAX_WORKERS must be >= 1")
	}
	syncJoinTimeout, err := time.ParseDuration(getEnv("SYNC_JOIN_TIMEOUT", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_JOIN_TIMEOUT: %w", err)
	}
	if syncJoinTimeout <= 0 {
		return Config{}, fmt.Errorf("SYNC_JOIN_TIMEOUT must be > 0")
	}

	sweepEnabled, err := strconv.ParseBool(getEnv("SYNC_SWEEP_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_SWEEP_ENABLED: %w", err)
	}
	sweepInterval, err := time.ParseDuration(getEnv("SYNC_SWEEP_INTERVAL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_SWEEP_INTERVAL: %w", err)
	}
	if sweepInterval <= 0 {
		return Config{}, fmt.Errorf("SYNC_SWEEP_INTERVAL must be > 0")
	}
	sweepMaxConcurrency, err := getEnvAsInt("SYNC_SWEEP_MAX_CONCURRENCY", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_SWEEP_MAX_CONCURRENCY: %w", err)
	}
	if sweepMaxConcurrency < 1 {
		return Config{}, fmt.Errorf("SYNC_SWEEP_MAX_CONCURRENCY must be >= 1")
	}

	qstashEnabled, err := strconv.ParseBool(getEnv("QSTASH_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_ENABLED: %w", err)
	}
	qstashRetries, err := getEnvAsInt("QSTASH_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if qstashRetries < 0 {
		return Config{}, fmt.Errorf("QSTASH_RETRIES must be >= 0")
	}
	qstashCircuit, err := parseCircuitConfig("QSTASH")
	if err != nil {
		return Config{}, err
	}
	qstashBaseURL := strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io"))
	qstashToken := strings.TrimSpace(getEnv("QSTASH_TOKEN", ""))
	qstashTargetURL := strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", ""))
	internalJobToken := strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", ""))
	if qstashEnabled {
		if qstashToken == "" {
			return Config{}, fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
		}
		if qstashTargetURL == "" {
			return Config{}, fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
		}
		if internalJobToken == "" {
			return Config{}, fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
		}
	}

	cfg := Config{
		AppEnv:              appEnv,
		ServiceName:         getEnv("APP_SERVICE_NAME", "cstatsentry-api"),
		ServiceVersion:      getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:            getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:               strings.TrimSpace(getEnv("DB_URL", "")),
		CORSAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MetricsEnabled:      metricsEnabled,
		PprofEnabled:        pprofEnabled,
		PprofAddr:           pprofAddr,
		LeetifyEnabled:      leetifyEnabled,
		LeetifyBaseURL:      strings.TrimSpace(getEnv("LEETIFY_BASE_URL", "https://api.leetify.com")),
		LeetifyTimeout:      leetifyTimeout,
		LeetifyMaxRetries:   leetifyMaxRetries,
		LeetifyCircuit:      leetifyCircuit,
		SteamEnabled:        steamEnabled,
		SteamAPIKey:         steamAPIKey,
		SteamBaseURL:        strings.TrimSpace(getEnv("STEAM_BASE_URL", "https://api.steampowered.com")),
		SteamTimeout:        steamTimeout,
		SteamMaxRetries:     steamMaxRetries,
		SteamCircuit:        steamCircuit,
		SyncEnabled:         syncEnabled,
		SyncMatchLimit:      syncMatchLimit,
		SyncMaxWorkers:      syncMaxWorkers,
		SyncJoinTimeout:     syncJoinTimeout,
		SweepEnabled:        sweepEnabled,
		SweepInterval:       sweepInterval,
		SweepMaxConcurrency: sweepMaxConcurrency,
		InternalJobToken:    internalJobToken,
		QStashEnabled:       qstashEnabled,
		QStashBaseURL:       qstashBaseURL,
		QStashToken:         qstashToken,
		QStashTargetURL:     qstashTargetURL,
		QStashRetries:       qstashRetries,
		QStashCircuit:       qstashCircuit,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheTTL = cacheTTL

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
}

func parseCircuitConfig(prefix string) (resilience.CircuitBreakerConfig, error) {
	defaults := resilience.DefaultCircuitBreakerConfig()

	enabled, err := strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}
	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", defaults.FailureThreshold)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := time.ParseDuration(getEnv(prefix+"_CIRCUIT_OPEN_TIMEOUT", defaults.OpenTimeout.String()))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_OPEN_TIMEOUT: %w", prefix, err)
	}
	if openTimeout <= 0 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_OPEN_TIMEOUT must be > 0", prefix)
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", defaults.HalfOpenMaxReq)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
