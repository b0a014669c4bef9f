// Package config loads rollcall settings from a YAML file and ROLLCALL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/podyouths/rollcall/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. It may be absent.
const DefaultPath = "rollcall.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

// Config is the full application configuration.
type Config struct {
	VerificationCode string `mapstructure:"verification_code"`

	Log        LogConfig        `mapstructure:"log"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Session    SessionConfig    `mapstructure:"session"`
	Enrollment EnrollmentConfig `mapstructure:"enrollment"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	WebhookURL  string `mapstructure:"webhook_url"`
	PollTimeout int    `mapstructure:"poll_timeout"`
	Debug       bool   `mapstructure:"debug"`

	// WebhookSecret is sent to Telegram at registration and required on every webhook request.
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// StoreConfig selects the roster and attendance backend.
type StoreConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// SessionConfig selects where in-progress conversations live.
type SessionConfig struct {
	Backend string        `mapstructure:"backend"`
	Dir     string        `mapstructure:"dir"`
	TTL     time.Duration `mapstructure:"ttl"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`

	// SealingIdentity is an AGE-SECRET-KEY-1... key. When set, sessions are encrypted at rest.
	SealingIdentity string `mapstructure:"sealing_identity"`
}

type EnrollmentConfig struct {
	Role      string `mapstructure:"role"`
	BirthDate string `mapstructure:"birth_date"`
}

// Default returns the configuration used for keys absent from every source.
func Default() Config {
	return Config{
		Log:      LogConfig{Level: "info", Format: "text"},
		HTTP:     HTTPConfig{Addr: ":8080"},
		Telegram: TelegramConfig{PollTimeout: 60},
		Store:    StoreConfig{Backend: BackendMemory, SQLitePath: "rollcall.db"},
		Redis:    RedisConfig{Addr: "localhost:6379", Prefix: "rollcall:"},
		Session: SessionConfig{
			Backend: BackendMemory,
			Dir:     ".rollcall/sessions",
			LockTTL: 30 * time.Second,
		},
		Enrollment: EnrollmentConfig{Role: "New Friend", BirthDate: "2000-01-01"},
	}
}

// Telegram accepts 1-256 characters from this set as a webhook secret.
var webhookSecretPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

// envKeys maps environment variables onto configuration keys.
var envKeys = map[string][]string{
	"ROLLCALL_VERIFICATION_CODE": {"verification_code"},
	"ROLLCALL_LOG_LEVEL":         {"log", "level"},
	"ROLLCALL_LOG_FORMAT":        {"log", "format"},
	"ROLLCALL_HTTP_ADDR":         {"http", "addr"},
	"ROLLCALL_TELEGRAM_TOKEN":    {"telegram", "token"},
	"ROLLCALL_TELEGRAM_WEBHOOK":  {"telegram", "webhook_url"},
	"ROLLCALL_TELEGRAM_DEBUG":    {"telegram", "debug"},
	"ROLLCALL_TELEGRAM_SECRET":   {"telegram", "webhook_secret"},
	"ROLLCALL_STORE_BACKEND":     {"store", "backend"},
	"ROLLCALL_SQLITE_PATH":       {"store", "sqlite_path"},
	"ROLLCALL_REDIS_ADDR":        {"redis", "addr"},
	"ROLLCALL_REDIS_PASSWORD":    {"redis", "password"},
	"ROLLCALL_REDIS_DB":          {"redis", "db"},
	"ROLLCALL_REDIS_PREFIX":      {"redis", "prefix"},
	"ROLLCALL_SESSION_BACKEND":   {"session", "backend"},
	"ROLLCALL_SESSION_DIR":       {"session", "dir"},
	"ROLLCALL_SESSION_TTL":       {"session", "ttl"},
	"ROLLCALL_SESSION_LOCK_TTL":  {"session", "lock_ttl"},
	"ROLLCALL_SEALING_IDENTITY":  {"session", "sealing_identity"},
	"ROLLCALL_ENROLLMENT_ROLE":   {"enrollment", "role"},
	"ROLLCALL_ENROLLMENT_BIRTH":  {"enrollment", "birth_date"},
}

// Load reads path (if it exists), overlays the environment and validates the result.
// A missing file is an error only when explicit is true.
func Load(path string, explicit bool) (*Config, error) {
	return load(path, explicit, os.LookupEnv)
}

func load(path string, explicit bool, lookup func(string) (string, bool)) (*Config, error) {
	raw := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			if raw == nil {
				raw = map[string]any{}
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	for env, key := range envKeys {
		if val, ok := lookup(env); ok {
			set(raw, key, val)
		}
	}

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func set(raw map[string]any, key []string, val string) {
	m := raw
	for _, part := range key[:len(key)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[key[len(key)-1]] = val
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Validate reports configuration that cannot run.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.VerificationCode) == "" {
		errs = append(errs, errors.New("verification_code is required"))
	}
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	switch c.Session.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Session.Backend))
	}
	if c.Telegram.WebhookSecret != "" && !webhookSecretPattern.MatchString(c.Telegram.WebhookSecret) {
		errs = append(errs, errors.New("telegram.webhook_secret must be 1-256 characters of A-Z, a-z, 0-9, _ or -"))
	}
	if c.Enrollment.BirthDate != "" {
		if _, err := domain.ParseDate(c.Enrollment.BirthDate); err != nil {
			errs = append(errs, fmt.Errorf("enrollment.birth_date: %w", err))
		}
	}
	return errors.Join(errs...)
}

// EnrollmentBirthDate returns the parsed default birth date for newcomers.
func (c *Config) EnrollmentBirthDate() domain.Date {
	d, err := domain.ParseDate(c.Enrollment.BirthDate)
	if err != nil {
		return domain.Date{}
	}
	return d
}
