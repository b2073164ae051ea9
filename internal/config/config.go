package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// Values come from the environment (optionally seeded from a .env file by
// the process entrypoint). No business logic reads raw env vars.
type Config struct {
	App      AppConfig
	Session  SessionConfig
	Redis    RedisConfig
	DB       DBConfig
	OpenAI   OpenAIConfig
	Agent    AgentConfig
	Twilio   TwilioConfig
	Voice    VoiceConfig
	Debug    DebugConfig
	Auth     AuthConfig
	AMQP     AMQPConfig
	Campaign CampaignConfig
}

type AppConfig struct {
	Env      string
	Port     int
	BaseURL  string
	LogLevel string
}

type SessionConfig struct {
	// Backend is memory or redis.
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type DBConfig struct {
	// Driver is memory, postgres or sqlite.
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type OpenAIConfig struct {
	APIKey          string
	Model           string
	TranscribeModel string
	Timeout         time.Duration
}

type AgentConfig struct {
	// Engine is llm or rules.
	Engine string
}

type TwilioConfig struct {
	AccountSID        string
	AuthToken         string
	CallerID          string
	ValidateSignature bool
	TTSVoice          string
}

type VoiceConfig struct {
	CallerLanguage       string
	EnableTranslation    bool
	InputMode            string
	RecordingFallback    bool
	RecordMaxLength      int
	RecordSilenceTimeout int
}

type DebugConfig struct {
	CallEvents         bool
	CallEventsMax      int
	LogTranscript      bool
	TranscriptMaxChars int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type CampaignConfig struct {
	Delay time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = envString("APP_ENV", "local")
	c.App.Port, parseErrs = envInt(parseErrs, "APP_PORT", 8080)
	c.App.BaseURL = strings.TrimRight(envString("BASE_URL", ""), "/")
	c.App.LogLevel = envString("LOG_LEVEL", "")

	c.Session.Backend = envString("SESSION_STORE", "memory")
	c.Session.TTL, parseErrs = envDuration(parseErrs, "SESSION_TTL", time.Hour)

	c.Redis.Host = envString("REDIS_HOST", "localhost")
	c.Redis.Port, parseErrs = envInt(parseErrs, "REDIS_PORT", 6379)
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	c.Redis.DB, parseErrs = envInt(parseErrs, "REDIS_DB", 0)

	c.DB.Driver = envString("DB_DRIVER", "memory")
	c.DB.Host = envString("DB_HOST", "localhost")
	c.DB.Port, parseErrs = envInt(parseErrs, "DB_PORT", 5432)
	c.DB.User = envString("DB_USER", "")
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = envString("DB_NAME", "")
	c.DB.SSLMode = envString("DB_SSLMODE", "")
	c.DB.SQLitePath = envString("SQLITE_PATH", "agent.db")

	c.OpenAI.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	c.OpenAI.Model = envString("OPENAI_MODEL", "gpt-4o-mini")
	c.OpenAI.TranscribeModel = envString("OPENAI_TRANSCRIBE_MODEL", "gpt-4o-mini-transcribe")
	c.OpenAI.Timeout, parseErrs = envDuration(parseErrs, "OPENAI_TIMEOUT", 15*time.Second)

	c.Agent.Engine = envString("DECISION_ENGINE", "llm")

	c.Twilio.AccountSID = envString("TWILIO_ACCOUNT_SID", "")
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.CallerID = envString("TWILIO_CALLER_ID", "")
	c.Twilio.ValidateSignature, parseErrs = envBool(parseErrs, "TWILIO_VALIDATE_SIGNATURE", false)
	c.Twilio.TTSVoice = envString("TWILIO_TTS_VOICE", "")

	c.Voice.CallerLanguage = envString("CALLER_LANGUAGE", "he-IL")
	c.Voice.EnableTranslation, parseErrs = envBool(parseErrs, "ENABLE_TRANSLATION", true)
	c.Voice.InputMode = envString("INPUT_MODE", "record")
	c.Voice.RecordingFallback, parseErrs = envBool(parseErrs, "RECORDING_FALLBACK", true)
	c.Voice.RecordMaxLength, parseErrs = envInt(parseErrs, "RECORD_MAX_LENGTH_SECONDS", 15)
	c.Voice.RecordSilenceTimeout, parseErrs = envInt(parseErrs, "RECORD_SILENCE_TIMEOUT_SECONDS", 2)

	c.Debug.CallEvents, parseErrs = envBool(parseErrs, "DEBUG_CALL_EVENTS", false)
	c.Debug.CallEventsMax, parseErrs = envInt(parseErrs, "DEBUG_CALL_EVENTS_MAX", 200)
	c.Debug.LogTranscript, parseErrs = envBool(parseErrs, "LOG_CALL_TRANSCRIPT", false)
	c.Debug.TranscriptMaxChars, parseErrs = envInt(parseErrs, "LOG_CALL_TRANSCRIPT_MAX_CHARS", 500)

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = envString("JWT_ISSUER", "")
	c.Auth.JWTAudience = envString("JWT_AUDIENCE", "")
	c.Auth.AccessTokenTTL, parseErrs = envDuration(parseErrs, "JWT_ACCESS_TTL", 15*time.Minute)

	c.AMQP.URL = envString("AMQP_URL", "")
	c.AMQP.Exchange = envString("AMQP_EXCHANGE", "call_outcomes")

	c.Campaign.Delay, parseErrs = envDuration(parseErrs, "CAMPAIGN_DELAY", 5*time.Second)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks cross-field rules and fills defaults that depend on
// other fields.
func (c *Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.BaseURL == "" {
		errs = append(errs, errors.New("BASE_URL is required (public URL Twilio calls back)"))
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required when SESSION_STORE=redis"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be memory or redis, got %q", c.Session.Backend))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	switch c.DB.Driver {
	case "memory":
	case "sqlite":
		if c.DB.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when DB_DRIVER=sqlite"))
		}
	case "postgres":
		if c.DB.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be memory, postgres or sqlite, got %q", c.DB.Driver))
	}

	switch c.Agent.Engine {
	case "llm", "rules":
	default:
		errs = append(errs, fmt.Errorf("DECISION_ENGINE must be llm or rules, got %q", c.Agent.Engine))
	}
	if c.OpenAI.Timeout <= 0 {
		errs = append(errs, errors.New("OPENAI_TIMEOUT must be positive"))
	}

	switch c.Voice.InputMode {
	case "record", "gather":
	default:
		errs = append(errs, fmt.Errorf("INPUT_MODE must be record or gather, got %q", c.Voice.InputMode))
	}
	if c.Voice.CallerLanguage == "" {
		errs = append(errs, errors.New("CALLER_LANGUAGE is required"))
	}
	if c.Voice.RecordMaxLength <= 0 {
		errs = append(errs, errors.New("RECORD_MAX_LENGTH_SECONDS must be positive"))
	}
	if c.Voice.RecordSilenceTimeout <= 0 {
		errs = append(errs, errors.New("RECORD_SILENCE_TIMEOUT_SECONDS must be positive"))
	}
	if c.Twilio.ValidateSignature && c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required when TWILIO_VALIDATE_SIGNATURE=true"))
	}

	if c.Debug.CallEventsMax <= 0 {
		c.Debug.CallEventsMax = 200
	}

	if c.Auth.JWTSecret == "" && c.IsProduction() {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Campaign.Delay < 0 {
		errs = append(errs, errors.New("CAMPAIGN_DELAY must not be negative"))
	}

	return joinErrors(errs)
}

// LoadAuth reads only the JWT settings. Tools that mint tokens use it so
// they do not need the full service environment.
func LoadAuth() (AuthConfig, error) {
	var (
		a    AuthConfig
		errs []error
	)
	a.JWTSecret = os.Getenv("JWT_SECRET")
	a.JWTIssuer = envString("JWT_ISSUER", "")
	a.JWTAudience = envString("JWT_AUDIENCE", "")
	a.AccessTokenTTL, errs = envDuration(errs, "JWT_ACCESS_TTL", 15*time.Minute)
	if a.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if err := joinErrors(errs); err != nil {
		return AuthConfig{}, err
	}
	return a, nil
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// HasOpenAI reports whether generative decision credentials are present.
func (c Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// HasTwilio reports whether REST credentials are present.
func (c Config) HasTwilio() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != ""
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(errs []error, key string, def int) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func envBool(errs []error, key string, def bool) (bool, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, append(errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
	}
	return b, errs
}

func envDuration(errs []error, key string, def time.Duration) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, append(errs, fmt.Errorf("%s must be a duration, got %q", key, v))
	}
	return d, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
