package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "FaceTeller"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultOTPTTL         = 5 * time.Minute
	defaultAttemptTTL     = 5 * time.Minute
	defaultSMSTimeout     = 10 * time.Second
	defaultFaceTimeout    = 15 * time.Second
	defaultFaceThreshold  = 0.4
	defaultOTPPerMinute   = 5
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// OTP challenge settings.
	OTPTTL       time.Duration
	AttemptTTL   time.Duration
	OTPPerMinute int

	// SMS transport (Twilio-compatible). Empty account SID selects the
	// logging stub sender.
	SMSAccountSID string
	SMSAuthToken  string
	SMSFrom       string
	SMSTimeout    time.Duration

	// Face similarity oracle. Empty URL selects the static matcher.
	FaceOracleURL string
	FaceThreshold float64
	FaceTimeout   time.Duration

	// EnforceMinLimit switches the withdrawal floor policy on.
	EnforceMinLimit bool
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		OTPTTL:         defaultOTPTTL,
		AttemptTTL:     defaultAttemptTTL,
		OTPPerMinute:   defaultOTPPerMinute,
		SMSAccountSID:  os.Getenv("SMS_ACCOUNT_SID"),
		SMSAuthToken:   os.Getenv("SMS_AUTH_TOKEN"),
		SMSFrom:        os.Getenv("SMS_FROM"),
		SMSTimeout:     defaultSMSTimeout,
		FaceOracleURL:  os.Getenv("FACE_ORACLE_URL"),
		FaceThreshold:  defaultFaceThreshold,
		FaceTimeout:    defaultFaceTimeout,
	}

	durations := []struct {
		envVar string
		dst    *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"OTP_TTL", &cfg.OTPTTL},
		{"ATTEMPT_TTL", &cfg.AttemptTTL},
		{"SMS_TIMEOUT", &cfg.SMSTimeout},
		{"FACE_TIMEOUT", &cfg.FaceTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.envVar); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.envVar, err)
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("OTP_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid OTP_PER_MINUTE: %w", err)
		}
		cfg.OTPPerMinute = n
	}

	if v := os.Getenv("FACE_MATCH_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FACE_MATCH_THRESHOLD: %w", err)
		}
		cfg.FaceThreshold = f
	}

	if v := os.Getenv("ENFORCE_MIN_LIMIT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ENFORCE_MIN_LIMIT: %w", err)
		}
		cfg.EnforceMinLimit = b
	}

	// Outside development the service needs real backing stores; in dev the
	// in-memory repositories take over when the URLs are absent.
	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the application runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
