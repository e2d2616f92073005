package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool
	CORSAllowedOrigins      []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	LogLevel                logging.Level

	PprofEnabled bool
	PprofAddr    string

	MemberAuthBaseURL               string
	MemberAuthIntrospectPath        string
	MemberAuthAdminKey              string
	MemberAuthTimeout               time.Duration
	MemberAuthCircuitEnabled        bool
	MemberAuthCircuitFailureCount   int
	MemberAuthCircuitOpenTimeout    time.Duration
	MemberAuthCircuitHalfOpenMaxReq int

	WebhookEnabled               bool
	WebhookEndpoint              string
	WebhookToken                 string
	WebhookTimeout               time.Duration
	WebhookMaxRetries            int
	WebhookCircuitEnabled        bool
	WebhookCircuitFailureCount   int
	WebhookCircuitOpenTimeout    time.Duration
	WebhookCircuitHalfOpenMaxReq int

	InternalJobToken   string
	MarketTickInterval time.Duration
	NotifyDedupWindow  time.Duration

	SettlementMaxAttempts  int
	SettlementInitialDelay time.Duration
	SettlementMaxDelay     time.Duration

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	memberAuthTimeout, err := time.ParseDuration(getEnv("MEMBERAUTH_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MEMBERAUTH_TIMEOUT: %w", err)
	}
	memberAuthCircuitEnabled, err := strconv.ParseBool(getEnv("MEMBERAUTH_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MEMBERAUTH_CIRCUIT_ENABLED: %w", err)
	}
	memberAuthCircuitFailureCount, err := getEnvAsInt("MEMBERAUTH_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse MEMBERAUTH_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if memberAuthCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("MEMBERAUTH_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	memberAuthCircuitOpenTimeout, err := time.ParseDuration(getEnv("MEMBERAUTH_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MEMBERAUTH_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if memberAuthCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("MEMBERAUTH_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	memberAuthCircuitHalfOpenMaxReq, err := getEnvAsInt("MEMBERAUTH_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse MEMBERAUTH_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if memberAuthCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("MEMBERAUTH_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	webhookEnabled, err := strconv.ParseBool(getEnv("WEBHOOK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_ENABLED: %w", err)
	}
	webhookEndpoint := strings.TrimSpace(getEnv("WEBHOOK_ENDPOINT", ""))
	if webhookEnabled && webhookEndpoint == "" {
		return Config{}, fmt.Errorf("WEBHOOK_ENDPOINT is required when WEBHOOK_ENABLED=true")
	}
	webhookTimeout, err := time.ParseDuration(getEnv("WEBHOOK_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_TIMEOUT: %w", err)
	}
	if webhookTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_TIMEOUT must be > 0")
	}
	webhookMaxRetries, err := getEnvAsInt("WEBHOOK_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_MAX_RETRIES: %w", err)
	}
	if webhookMaxRetries < 1 {
		return Config{}, fmt.Errorf("WEBHOOK_MAX_RETRIES must be >= 1")
	}
	webhookCircuitEnabled, err := strconv.ParseBool(getEnv("WEBHOOK_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_ENABLED: %w", err)
	}
	webhookCircuitFailureCount, err := getEnvAsInt("WEBHOOK_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if webhookCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	webhookCircuitOpenTimeout, err := time.ParseDuration(getEnv("WEBHOOK_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if webhookCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	webhookCircuitHalfOpenMaxReq, err := getEnvAsInt("WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if webhookCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	marketTickInterval, err := time.ParseDuration(getEnv("MARKET_TICK_INTERVAL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MARKET_TICK_INTERVAL: %w", err)
	}
	if marketTickInterval <= 0 {
		return Config{}, fmt.Errorf("MARKET_TICK_INTERVAL must be > 0")
	}
	notifyDedupWindow, err := time.ParseDuration(getEnv("NOTIFY_DEDUP_WINDOW", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_DEDUP_WINDOW: %w", err)
	}
	if notifyDedupWindow <= 0 {
		return Config{}, fmt.Errorf("NOTIFY_DEDUP_WINDOW must be > 0")
	}

	settlementMaxAttempts, err := getEnvAsInt("SETTLEMENT_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse SETTLEMENT_MAX_ATTEMPTS: %w", err)
	}
	if settlementMaxAttempts < 1 {
		return Config{}, fmt.Errorf("SETTLEMENT_MAX_ATTEMPTS must be >= 1")
	}
	settlementInitialDelay, err := time.ParseDuration(getEnv("SETTLEMENT_INITIAL_DELAY", "100ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SETTLEMENT_INITIAL_DELAY: %w", err)
	}
	if settlementInitialDelay <= 0 {
		return Config{}, fmt.Errorf("SETTLEMENT_INITIAL_DELAY must be > 0")
	}
	settlementMaxDelay, err := time.ParseDuration(getEnv("SETTLEMENT_MAX_DELAY", "2s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SETTLEMENT_MAX_DELAY: %w", err)
	}
	if settlementMaxDelay < settlementInitialDelay {
		return Config{}, fmt.Errorf("SETTLEMENT_MAX_DELAY must be >= SETTLEMENT_INITIAL_DELAY")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
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

	cfg := Config{
		AppEnv:                  appEnv,
		ServiceName:             getEnv("APP_SERVICE_NAME", "trade-engine-api"),
		ServiceVersion:          getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                   getEnv("DB_URL", ""),
		DBDisablePreparedBinary: dbDisablePreparedBinary,
		CORSAllowedOrigins:      splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:             readTimeout,
		WriteTimeout:            writeTimeout,
		LogLevel:                parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		MemberAuthBaseURL:               getEnv("MEMBERAUTH_BASE_URL", "http://localhost:8081"),
		MemberAuthIntrospectPath:        getEnv("MEMBERAUTH_INTROSPECT_PATH", "/v1/auth/introspect"),
		MemberAuthAdminKey:              strings.TrimSpace(getEnv("MEMBERAUTH_ADMIN_KEY", "")),
		MemberAuthTimeout:               memberAuthTimeout,
		MemberAuthCircuitEnabled:        memberAuthCircuitEnabled,
		MemberAuthCircuitFailureCount:   memberAuthCircuitFailureCount,
		MemberAuthCircuitOpenTimeout:    memberAuthCircuitOpenTimeout,
		MemberAuthCircuitHalfOpenMaxReq: memberAuthCircuitHalfOpenMaxReq,

		WebhookEnabled:               webhookEnabled,
		WebhookEndpoint:              webhookEndpoint,
		WebhookToken:                 strings.TrimSpace(getEnv("WEBHOOK_TOKEN", "")),
		WebhookTimeout:               webhookTimeout,
		WebhookMaxRetries:            webhookMaxRetries,
		WebhookCircuitEnabled:        webhookCircuitEnabled,
		WebhookCircuitFailureCount:   webhookCircuitFailureCount,
		WebhookCircuitOpenTimeout:    webhookCircuitOpenTimeout,
		WebhookCircuitHalfOpenMaxReq: webhookCircuitHalfOpenMaxReq,

		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		MarketTickInterval: marketTickInterval,
		NotifyDedupWindow:  notifyDedupWindow,

		SettlementMaxAttempts:  settlementMaxAttempts,
		SettlementInitialDelay: settlementInitialDelay,
		SettlementMaxDelay:     settlementMaxDelay,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
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
