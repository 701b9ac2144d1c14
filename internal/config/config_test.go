package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("UPTRACE_ENABLED", "false")
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("UPTRACE_ENABLED", "false")
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_EmptyDBURLSelectsMemoryMode(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("DB_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBURL != "" {
		t.Fatalf("expected empty DBURL by default, got %q", cfg.DBURL)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://board.cueclub.test, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://board.cueclub.test" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 10*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_NotifierWorkersValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default", func(t *testing.T) {
		t.Setenv("NOTIFIER_WORKERS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.NotifierWorkers != 4 {
			t.Fatalf("unexpected default notifier workers: %d", cfg.NotifierWorkers)
		}
	})

	t.Run("zero is rejected", func(t *testing.T) {
		t.Setenv("NOTIFIER_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for NOTIFIER_WORKERS=0")
		}
	})
}

func TestLoad_LeagueHubConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("LEAGUEHUB_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.LeagueHubEnabled {
			t.Fatalf("expected LeagueHubEnabled=false by default")
		}
	})

	t.Run("enabled requires base url and service key", func(t *testing.T) {
		t.Setenv("LEAGUEHUB_ENABLED", "true")
		t.Setenv("LEAGUEHUB_BASE_URL", "")
		t.Setenv("LEAGUEHUB_SERVICE_KEY", "")

		if _, err := Load(); err == nil {
			t.Fatalf("expected error when LEAGUEHUB_ENABLED=true without required env")
		}
	})

	t.Run("enabled with valid values", func(t *testing.T) {
		t.Setenv("LEAGUEHUB_ENABLED", "true")
		t.Setenv("LEAGUEHUB_BASE_URL", "https://hub.cueclub.test")
		t.Setenv("LEAGUEHUB_SERVICE_KEY", "hub-secret")
		t.Setenv("LEAGUEHUB_TIMEOUT", "5s")
		t.Setenv("LEAGUEHUB_MAX_RETRIES", "2")
		t.Setenv("LEAGUEHUB_VERDICT_TTL", "45s")
		t.Setenv("LEAGUEHUB_ROSTER_TTL", "10m")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.LeagueHubEnabled {
			t.Fatalf("expected LeagueHubEnabled=true")
		}
		if cfg.LeagueHubBaseURL != "https://hub.cueclub.test" {
			t.Fatalf("unexpected LeagueHubBaseURL: %q", cfg.LeagueHubBaseURL)
		}
		if cfg.LeagueHubTimeout != 5*time.Second {
			t.Fatalf("unexpected LeagueHubTimeout: %s", cfg.LeagueHubTimeout)
		}
		if cfg.LeagueHubMaxRetries != 2 {
			t.Fatalf("unexpected LeagueHubMaxRetries: %d", cfg.LeagueHubMaxRetries)
		}
		if cfg.LeagueHubVerdictTTL != 45*time.Second {
			t.Fatalf("unexpected LeagueHubVerdictTTL: %s", cfg.LeagueHubVerdictTTL)
		}
		if cfg.LeagueHubRosterTTL != 10*time.Minute {
			t.Fatalf("unexpected LeagueHubRosterTTL: %s", cfg.LeagueHubRosterTTL)
		}
	})
}

func TestLoad_ScorePushConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("SCOREPUSH_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.ScorePushEnabled {
			t.Fatalf("expected ScorePushEnabled=false by default")
		}
		if cfg.ScorePushRetries != 3 {
			t.Fatalf("unexpected default scorepush retries: %d", cfg.ScorePushRetries)
		}
	})

	t.Run("enabled requires webhook url", func(t *testing.T) {
		t.Setenv("SCOREPUSH_ENABLED", "true")
		t.Setenv("SCOREPUSH_WEBHOOK_URL", "")

		if _, err := Load(); err == nil {
			t.Fatalf("expected error when SCOREPUSH_ENABLED=true without SCOREPUSH_WEBHOOK_URL")
		}
	})

	t.Run("enabled with valid values", func(t *testing.T) {
		t.Setenv("SCOREPUSH_ENABLED", "true")
		t.Setenv("SCOREPUSH_WEBHOOK_URL", "https://board.cueclub.test/hooks/scores")
		t.Setenv("SCOREPUSH_TOKEN", "board-secret")
		t.Setenv("SCOREPUSH_RETRIES", "1")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.ScorePushEnabled {
			t.Fatalf("expected ScorePushEnabled=true")
		}
		if cfg.ScorePushWebhookURL != "https://board.cueclub.test/hooks/scores" {
			t.Fatalf("unexpected ScorePushWebhookURL: %q", cfg.ScorePushWebhookURL)
		}
		if cfg.ScorePushToken != "board-secret" {
			t.Fatalf("unexpected ScorePushToken")
		}
		if cfg.ScorePushRetries != 1 {
			t.Fatalf("unexpected scorepush retries: %d", cfg.ScorePushRetries)
		}
	})
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "league-night-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "league-night-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_BetterStackRequiresEndpointWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when BETTERSTACK_ENABLED=true without BETTERSTACK_ENDPOINT")
	}
}
