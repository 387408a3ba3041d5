package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	Addr         string
	PublicURL    *url.URL
	DBDSN        string
	Migrate      bool
	TrustProxy   bool
	CookieSecret string
	SessionTTL   time.Duration
	TokenTTL     time.Duration
	LogLevel     string

	SimilarPageSize int

	GoogleClientID string
	AppleServiceID string

	FCMProjectID       string
	FCMCredentialsFile string
}

// Load reads .env from the working directory, if present, and then the
// process environment. Variables already set in the environment win.
func Load() (Config, error) {
	if err := loadDotEnvFile(".env", os.Setenv, os.Getenv); err != nil {
		return Config{}, err
	}
	return LoadFromEnv(os.Getenv)
}

func loadDotEnvFile(path string, setenv func(string, string) error, getenv func(string) string) error {
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	for k, v := range vals {
		if v == "" || getenv(k) != "" {
			continue
		}
		if err := setenv(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:            getenv("APP_ENV"),
		Addr:           getenv("APP_ADDR"),
		DBDSN:          getenv("APP_DB_DSN"),
		LogLevel:       getenv("APP_LOG_LEVEL"),
		CookieSecret:   getenv("APP_COOKIE_SECRET"),
		GoogleClientID: strings.TrimSpace(getenv("APP_GOOGLE_CLIENT_ID")),
		AppleServiceID: strings.TrimSpace(getenv("APP_APPLE_SERVICE_ID")),

		FCMProjectID:       strings.TrimSpace(getenv("APP_FCM_PROJECT_ID")),
		FCMCredentialsFile: strings.TrimSpace(getenv("APP_FCM_CREDENTIALS")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}

	if raw := getenv("APP_PUBLIC_URL"); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUBLIC_URL: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return Config{}, errors.New("APP_PUBLIC_URL: must be an absolute URL")
		}
		switch parsed.Scheme {
		case "http", "https":
		default:
			return Config{}, errors.New("APP_PUBLIC_URL: scheme must be http or https")
		}
		cfg.PublicURL = parsed
	}

	var err error
	if cfg.SessionTTL, err = parseTTL(getenv, "APP_SESSION_TTL", 14*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = parseTTL(getenv, "APP_TOKEN_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	cfg.SimilarPageSize = 10
	if raw := strings.TrimSpace(getenv("APP_SIMILAR_PAGE_SIZE")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return Config{}, errors.New("APP_SIMILAR_PAGE_SIZE: must be between 1 and 100")
		}
		cfg.SimilarPageSize = n
	}

	if raw := strings.TrimSpace(getenv("APP_MIGRATE")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_MIGRATE: %w", err)
		}
		cfg.Migrate = b
	}

	if raw := strings.TrimSpace(getenv("APP_TRUST_PROXY")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_TRUST_PROXY: %w", err)
		}
		cfg.TrustProxy = b
	}

	if (cfg.FCMProjectID == "") != (cfg.FCMCredentialsFile == "") {
		return Config{}, errors.New("APP_FCM_PROJECT_ID and APP_FCM_CREDENTIALS must be set together")
	}

	if cfg.IsProd() {
		if cfg.PublicURL == nil {
			return Config{}, errors.New("APP_PUBLIC_URL: required in prod")
		}
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.CookieSecret) < 32 {
			return Config{}, errors.New("APP_COOKIE_SECRET: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func parseTTL(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("%s: must be > 0", key)
	}
	return ttl, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func (c Config) CookieSecure() bool {
	if c.PublicURL != nil {
		return c.PublicURL.Scheme == "https"
	}
	return c.IsProd()
}

// PushEnabled reports whether FCM delivery is configured.
func (c Config) PushEnabled() bool {
	return c.FCMProjectID != "" && c.FCMCredentialsFile != ""
}
