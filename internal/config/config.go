package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Provider is the read-only view of configuration handed to packages.
type Provider interface {
	GetServerAddr() string
	GetSessionSecret() string
	GetSecureCookies() bool
	GetLogFormat() string
	GetLogLevel() string

	GetCooldown() time.Duration
	GetStyle() string
	GetVoice() string
	GetMaxSessions() int
	GetHistoryLimit() int
	GetEventRateLimit() float64

	GetPhrasePackPath() string
	GetPhrasePackHotReload() bool
	GetRulesScriptPath() string
	GetRulesTimeout() time.Duration

	GetDBUrl() string
	GetDBNs() string
	GetDBDb() string
	GetDBUser() string
	GetDBPass() string

	GetTracingEnabled() bool
	GetTracingServiceName() string
	GetTracingZipkinURL() string
}

// Config holds all configuration for the service.
type Config struct {
	ServerAddr    string `validate:"required"`
	SessionSecret string `validate:"required,min=16"`
	SecureCookies bool
	LogFormat     string `validate:"oneof=text json"`
	LogLevel      string `validate:"oneof=debug info warn error"`

	CooldownMS     int     `validate:"min=0"`
	Style          string  `validate:"oneof=neutral trashtalk trash-talk"`
	Voice          string
	MaxSessions    int     `validate:"min=1"`
	HistoryLimit   int     `validate:"min=1"`
	EventRateLimit float64 `validate:"gt=0"`

	PhrasePackPath      string
	PhrasePackHotReload bool
	RulesScriptPath     string
	RulesTimeoutMS      int `validate:"min=1"`

	// SurrealDB is optional. Without a URL commentary history stays in memory.
	DBUrl  string `validate:"omitempty,url"`
	DBNs   string `validate:"required_with=DBUrl"`
	DBDb   string `validate:"required_with=DBUrl"`
	DBUser string
	DBPass string

	TracingEnabled     bool
	TracingServiceName string
	TracingZipkinURL   string `validate:"required_if=TracingEnabled true"`
}

var _ Provider = (*Config)(nil)

// New loads configuration from a .env file, if present, and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// slog is not configured yet.
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from environment variables only.
func FromEnv() (*Config, error) {
	var errs []error
	cfg := &Config{
		ServerAddr:    getString("SERVER_ADDR", ":8080"),
		SessionSecret: getString("SESSION_SECRET", "dev-session-secret-change-me"),
		SecureCookies: getBool("SESSION_SECURE_COOKIES", false, &errs),
		LogFormat:     getString("LOG_FORMAT", "text"),
		LogLevel:      getString("LOG_LEVEL", "debug"),

		CooldownMS:     getInt("COMMENTARY_COOLDOWN_MS", 3000, &errs),
		Style:          getString("COMMENTARY_STYLE", "neutral"),
		Voice:          getString("COMMENTARY_VOICE", "random"),
		MaxSessions:    getInt("COMMENTARY_MAX_SESSIONS", 1024, &errs),
		HistoryLimit:   getInt("COMMENTARY_HISTORY_LIMIT", 200, &errs),
		EventRateLimit: getFloat("COMMENTARY_EVENT_RATE", 50, &errs),

		PhrasePackPath:      os.Getenv("PHRASE_PACK_PATH"),
		PhrasePackHotReload: getBool("PHRASE_PACK_HOT_RELOAD", false, &errs),
		RulesScriptPath:     os.Getenv("RULES_SCRIPT_PATH"),
		RulesTimeoutMS:      getInt("RULES_TIMEOUT_MS", 50, &errs),

		DBUrl:  os.Getenv("SURREAL_URL"),
		DBNs:   os.Getenv("SURREAL_NS"),
		DBDb:   os.Getenv("SURREAL_DB"),
		DBUser: os.Getenv("SURREAL_USER"),
		DBPass: os.Getenv("SURREAL_PASS"),

		TracingEnabled:     getBool("PUBSUB_TRACING_ENABLED", false, &errs),
		TracingServiceName: getString("PUBSUB_TRACING_SERVICE_NAME", "announcer"),
		TracingZipkinURL:   getString("PUBSUB_TRACING_ZIPKIN_URL", "http://localhost:9411/api/v2/spans"),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errs[0])
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func getFloat(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func getBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (c *Config) GetServerAddr() string    { return c.ServerAddr }
func (c *Config) GetSessionSecret() string { return c.SessionSecret }
func (c *Config) GetSecureCookies() bool   { return c.SecureCookies }
func (c *Config) GetLogFormat() string     { return c.LogFormat }
func (c *Config) GetLogLevel() string      { return c.LogLevel }

func (c *Config) GetCooldown() time.Duration {
	return time.Duration(c.CooldownMS) * time.Millisecond
}
func (c *Config) GetStyle() string           { return c.Style }
func (c *Config) GetVoice() string           { return c.Voice }
func (c *Config) GetMaxSessions() int        { return c.MaxSessions }
func (c *Config) GetHistoryLimit() int       { return c.HistoryLimit }
func (c *Config) GetEventRateLimit() float64 { return c.EventRateLimit }

func (c *Config) GetPhrasePackPath() string    { return c.PhrasePackPath }
func (c *Config) GetPhrasePackHotReload() bool { return c.PhrasePackHotReload }
func (c *Config) GetRulesScriptPath() string   { return c.RulesScriptPath }
func (c *Config) GetRulesTimeout() time.Duration {
	return time.Duration(c.RulesTimeoutMS) * time.Millisecond
}

func (c *Config) GetDBUrl() string  { return c.DBUrl }
func (c *Config) GetDBNs() string   { return c.DBNs }
func (c *Config) GetDBDb() string   { return c.DBDb }
func (c *Config) GetDBUser() string { return c.DBUser }
func (c *Config) GetDBPass() string { return c.DBPass }

func (c *Config) GetTracingEnabled() bool       { return c.TracingEnabled }
func (c *Config) GetTracingServiceName() string { return c.TracingServiceName }
func (c *Config) GetTracingZipkinURL() string   { return c.TracingZipkinURL }
