package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cueclub/league-night/internal/platform/logging"
)

// Config stores runtime configuration for the service. An empty DBURL runs
// the process against the in-memory store; any other value selects Postgres.
type Config struct {
	AppEnv                         string
	ServiceName                    string
	ServiceVersion                 string
	HTTPAddr                       string
	DBURL                          string
	DBDisablePreparedBinary        bool
	CacheEnabled                   bool
	CacheTTL                       time.Duration
	CORSAllowedOrigins             []string
	ReadTimeout                    time.Duration
	WriteTimeout                   time.Duration
	PprofEnabled                   bool
	PprofAddr                      string
	SwaggerEnabled                 bool
	InternalOpsToken               string
	NotifierWorkers                int
	UptraceEnabled                 bool
	UptraceDSN                     string
	UptraceLogsEnabled             bool
	UptraceCaptureRequestBody      bool
	UptraceRequestBodyMaxBytes     int
	BetterStackEnabled             bool
	BetterStackEndpoint            string
	BetterStackToken               string
	BetterStackTimeout             time.Duration
	BetterStackMinLevel            logging.Level
	PyroscopeEnabled               bool
	PyroscopeServerAddress         string
	PyroscopeAppName               string
	PyroscopeAuthToken             string
	PyroscopeBasicAuthUser         string
	PyroscopeBasicAuthPassword     string
	PyroscopeUploadRate            time.Duration
	LeagueHubEnabled               bool
	LeagueHubBaseURL               string
	LeagueHubServiceKey            string
	LeagueHubTimeout               time.Duration
	LeagueHubMaxRetries            int
	LeagueHubVerdictTTL            time.Duration
	LeagueHubRosterTTL             time.Duration
	LeagueHubCircuitEnabled        bool
	LeagueHubCircuitFailureCount   int
	LeagueHubCircuitOpenTimeout    time.Duration
	LeagueHubCircuitHalfOpenMaxReq int
	ScorePushEnabled               bool
	ScorePushWebhookURL            string
	ScorePushToken                 string
	ScorePushTimeout               time.Duration
	ScorePushRetries               int
	ScorePushCircuitEnabled        bool
	ScorePushCircuitFailureCount   int
	ScorePushCircuitOpenTimeout    time.Duration
	ScorePushCircuitHalfOpenMaxReq int
	LogLevel                       logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	betterStackEnabled, err := strconv.ParseBool(getEnv("BETTERSTACK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BETTERSTACK_ENABLED: %w", err)
	}
	betterStackEndpoint := strings.TrimSpace(getEnv("BETTERSTACK_ENDPOINT", ""))
	if betterStackEnabled && betterStackEndpoint == "" {
		return Config{}, fmt.Errorf("BETTERSTACK_ENDPOINT is required when BETTERSTACK_ENABLED=true")
	}
	betterStackTimeout, err := time.ParseDuration(getEnv("BETTERSTACK_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BETTERSTACK_TIMEOUT: %w", err)
	}
	if betterStackTimeout <= 0 {
		return Config{}, fmt.Errorf("BETTERSTACK_TIMEOUT must be > 0")
	}
	betterStackMinLevel := parseLogLevel(getEnv("BETTERSTACK_MIN_LEVEL", "error"))

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	notifierWorkers, err := getEnvAsInt("NOTIFIER_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFIER_WORKERS: %w", err)
	}
	if notifierWorkers < 1 {
		return Config{}, fmt.Errorf("NOTIFIER_WORKERS must be >= 1")
	}

	leagueHubEnabled, err := strconv.ParseBool(getEnv("LEAGUEHUB_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_ENABLED: %w", err)
	}
	leagueHubTimeout, err := time.ParseDuration(getEnv("LEAGUEHUB_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_TIMEOUT: %w", err)
	}
	if leagueHubTimeout <= 0 {
		return Config{}, fmt.Errorf("LEAGUEHUB_TIMEOUT must be > 0")
	}
	leagueHubMaxRetries, err := getEnvAsInt("LEAGUEHUB_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_MAX_RETRIES: %w", err)
	}
	if leagueHubMaxRetries < 0 {
		return Config{}, fmt.Errorf("LEAGUEHUB_MAX_RETRIES must be >= 0")
	}
	leagueHubVerdictTTL, err := time.ParseDuration(getEnv("LEAGUEHUB_VERDICT_TTL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_VERDICT_TTL: %w", err)
	}
	if leagueHubVerdictTTL <= 0 {
		return Config{}, fmt.Errorf("LEAGUEHUB_VERDICT_TTL must be > 0")
	}
	leagueHubRosterTTL, err := time.ParseDuration(getEnv("LEAGUEHUB_ROSTER_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_ROSTER_TTL: %w", err)
	}
	if leagueHubRosterTTL <= 0 {
		return Config{}, fmt.Errorf("LEAGUEHUB_ROSTER_TTL must be > 0")
	}
	leagueHubCircuitEnabled, err := strconv.ParseBool(getEnv("LEAGUEHUB_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_CIRCUIT_ENABLED: %w", err)
	}
	leagueHubCircuitFailureCount, err := getEnvAsInt("LEAGUEHUB_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if leagueHubCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("LEAGUEHUB_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	leagueHubCircuitOpenTimeout, err := time.ParseDuration(getEnv("LEAGUEHUB_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if leagueHubCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("LEAGUEHUB_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	leagueHubCircuitHalfOpenMaxReq, err := getEnvAsInt("LEAGUEHUB_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUEHUB_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if leagueHubCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("LEAGUEHUB_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	leagueHubBaseURL := strings.TrimSpace(getEnv("LEAGUEHUB_BASE_URL", ""))
	leagueHubServiceKey := strings.TrimSpace(getEnv("LEAGUEHUB_SERVICE_KEY", ""))
	if leagueHubEnabled {
		if leagueHubBaseURL == "" {
			return Config{}, fmt.Errorf("LEAGUEHUB_BASE_URL is required when LEAGUEHUB_ENABLED=true")
		}
		if leagueHubServiceKey == "" {
			return Config{}, fmt.Errorf("LEAGUEHUB_SERVICE_KEY is required when LEAGUEHUB_ENABLED=true")
		}
	}

	scorePushEnabled, err := strconv.ParseBool(getEnv("SCOREPUSH_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCOREPUSH_ENABLED: %w", err)
	}
	scorePushTimeout, err := time.ParseDuration(getEnv("SCOREPUSH_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCOREPUSH_TIMEOUT: %w", err)
	}
	if scorePushTimeout <= 0 {
		return Config{}, fmt.Errorf("SCOREPUSH_TIMEOUT must be > 0")
	}
	scorePushRetries, err := getEnvAsInt("SCOREPUSH_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCOREPUSH_RETRIES: %w", err)
	}
	if scorePushRetries < 0 {
		return Config{}, fmt.Errorf("SCOREPUSH_RETRIES must be >= 0")
	}
	scorePushCircuitEnabled, err := strconv.ParseBool(getEnv("SCOREPUSH_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCOREPUSH_CIRCUIT_ENABLED: %w", err)
	}
	scorePushCircuitFailureCount, err := getEnvAsInt("SCOREPUSH_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCOREPUSH_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if scorePushCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SCOREPUSH_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	scorePushCircuitOpenTimeout, err := time.ParseDuration(getEnv("SCOREPUSH_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCOREPUSH_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if scorePushCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("SCOREPUSH_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	scorePushCircuitHalfOpenMaxReq, err := getEnvAsInt("SCOREPUSH_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCOREPUSH_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if scorePushCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("SCOREPUSH_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	scorePushWebhookURL := strings.TrimSpace(getEnv("SCOREPUSH_WEBHOOK_URL", ""))
	if scorePushEnabled && scorePushWebhookURL == "" {
		return Config{}, fmt.Errorf("SCOREPUSH_WEBHOOK_URL is required when SCOREPUSH_ENABLED=true")
	}

	cfg := Config{
		AppEnv:                         appEnv,
		ServiceName:                    getEnv("APP_SERVICE_NAME", "league-night-api"),
		ServiceVersion:                 getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                       getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                          strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary:        true,
		CORSAllowedOrigins:             splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:                   pprofEnabled,
		PprofAddr:                      pprofAddr,
		SwaggerEnabled:                 swaggerEnabled,
		InternalOpsToken:               strings.TrimSpace(getEnv("INTERNAL_OPS_TOKEN", "")),
		NotifierWorkers:                notifierWorkers,
		UptraceEnabled:                 uptraceEnabled,
		UptraceDSN:                     uptraceDSN,
		UptraceLogsEnabled:             uptraceLogsEnabled,
		UptraceCaptureRequestBody:      uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes:     uptraceRequestBodyMaxBytes,
		BetterStackEnabled:             betterStackEnabled,
		BetterStackEndpoint:            betterStackEndpoint,
		BetterStackToken:               strings.TrimSpace(getEnv("BETTERSTACK_TOKEN", "")),
		BetterStackTimeout:             betterStackTimeout,
		BetterStackMinLevel:            betterStackMinLevel,
		PyroscopeEnabled:               pyroscopeEnabled,
		PyroscopeServerAddress:         pyroscopeServerAddress,
		PyroscopeAuthToken:             strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:         strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:            pyroscopeUploadRate,
		LeagueHubEnabled:               leagueHubEnabled,
		LeagueHubBaseURL:               leagueHubBaseURL,
		LeagueHubServiceKey:            leagueHubServiceKey,
		LeagueHubTimeout:               leagueHubTimeout,
		LeagueHubMaxRetries:            leagueHubMaxRetries,
		LeagueHubVerdictTTL:            leagueHubVerdictTTL,
		LeagueHubRosterTTL:             leagueHubRosterTTL,
		LeagueHubCircuitEnabled:        leagueHubCircuitEnabled,
		LeagueHubCircuitFailureCount:   leagueHubCircuitFailureCount,
		LeagueHubCircuitOpenTimeout:    leagueHubCircuitOpenTimeout,
		LeagueHubCircuitHalfOpenMaxReq: leagueHubCircuitHalfOpenMaxReq,
		ScorePushEnabled:               scorePushEnabled,
		ScorePushWebhookURL:            scorePushWebhookURL,
		ScorePushToken:                 strings.TrimSpace(getEnv("SCOREPUSH_TOKEN", "")),
		ScorePushTimeout:               scorePushTimeout,
		ScorePushRetries:               scorePushRetries,
		ScorePushCircuitEnabled:        scorePushCircuitEnabled,
		ScorePushCircuitFailureCount:   scorePushCircuitFailureCount,
		ScorePushCircuitOpenTimeout:    scorePushCircuitOpenTimeout,
		ScorePushCircuitHalfOpenMaxReq: scorePushCircuitHalfOpenMaxReq,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
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
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "10s"))
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

	logLevel := parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.LogLevel = logLevel

	return cfg, nil
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

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
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
