package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/llm"
	"github.com/motionai/motion-engine/internal/retry"
	"github.com/motionai/motion-engine/internal/transcribe"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"5m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	// Provider credentials. A missing key leaves the provider in its chain;
	// it fails fast and the chain moves on.
	GroqAPIKey        string `env:"GROQ_API_KEY"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	HuggingFaceAPIKey string `env:"HUGGINGFACE_API_KEY"`
	ElevenLabsAPIKey  string `env:"ELEVENLABS_API_KEY"`
	AnthropicAPIKey   string `env:"ANTHROPIC_API_KEY"`

	// Provider chains, highest priority first.
	TranscribeProviders []string `env:"TRANSCRIBE_PROVIDERS" envDefault:"groq,openai,huggingface" envSeparator:","`
	GenerateProviders   []string `env:"GENERATE_PROVIDERS" envDefault:"groq,openai,anthropic" envSeparator:","`

	// Models and output limits
	GroqSTTModel        string `env:"GROQ_STT_MODEL" envDefault:"whisper-large-v3"`
	OpenAISTTModel      string `env:"OPENAI_STT_MODEL" envDefault:"whisper-1"`
	HuggingFaceSTTModel string `env:"HUGGINGFACE_STT_MODEL" envDefault:"openai/whisper-large-v3"`
	ElevenLabsSTTModel  string `env:"ELEVENLABS_STT_MODEL" envDefault:"scribe_v1"`
	ElevenLabsKeyterms  string `env:"ELEVENLABS_KEYTERMS"`
	GroqLLMModel        string `env:"GROQ_LLM_MODEL" envDefault:"llama-3.1-8b-instant"`
	GroqMaxTokens       int    `env:"GROQ_MAX_TOKENS" envDefault:"2000"`
	OpenAILLMModel      string `env:"OPENAI_LLM_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIMaxTokens     int    `env:"OPENAI_MAX_TOKENS" envDefault:"1000"`
	AnthropicModel      string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`
	AnthropicMaxTokens  int    `env:"ANTHROPIC_MAX_TOKENS" envDefault:"2000"`

	// Endpoint overrides, mostly for self-hosted gateways and tests.
	GroqBaseURL        string `env:"GROQ_BASE_URL"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL"`
	HuggingFaceBaseURL string `env:"HUGGINGFACE_BASE_URL"`
	ElevenLabsBaseURL  string `env:"ELEVENLABS_BASE_URL"`
	AnthropicBaseURL   string `env:"ANTHROPIC_BASE_URL"`

	// Retry policies
	TranscribeRetryAttempts  int           `env:"TRANSCRIBE_RETRY_ATTEMPTS" envDefault:"3"`
	TranscribeRetryBaseDelay time.Duration `env:"TRANSCRIBE_RETRY_BASE_DELAY" envDefault:"2s"`
	GenerateRetryAttempts    int           `env:"GENERATE_RETRY_ATTEMPTS" envDefault:"2"`
	GenerateRetryBaseDelay   time.Duration `env:"GENERATE_RETRY_BASE_DELAY" envDefault:"1s"`
	RetryMaxDelay            time.Duration `env:"RETRY_MAX_DELAY" envDefault:"0s"`
	ProviderTimeout          time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"120s"`

	// Translation
	MyMemoryURL   string `env:"MYMEMORY_URL" envDefault:"https://api.mymemory.translated.net"`
	MyMemoryEmail string `env:"MYMEMORY_EMAIL"`

	// Media
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	MediaDir       string `env:"MEDIA_DIR" envDefault:"./media"`
	S3             S3Config

	// Job events
	MQTTBrokerURL   string `env:"MQTT_BROKER_URL"`
	MQTTClientID    string `env:"MQTT_CLIENT_ID" envDefault:"motion-engine"`
	MQTTUsername    string `env:"MQTT_USERNAME"`
	MQTTPassword    string `env:"MQTT_PASSWORD"`
	MQTTTopicPrefix string `env:"MQTT_TOPIC_PREFIX" envDefault:"motion-engine"`

	// Watch-folder ingest
	WatchDir            string `env:"WATCH_DIR"`
	WatchUserID         string `env:"WATCH_USER_ID"`
	WatchTargetLanguage string `env:"WATCH_TARGET_LANGUAGE" envDefault:"en"`
	WatchTemplate       string `env:"WATCH_TEMPLATE"`

	// Pipeline
	Workers   int `env:"WORKERS" envDefault:"2"`
	QueueSize int `env:"QUEUE_SIZE" envDefault:"100"`

	// Rate limiting (per user, generation endpoints)
	RateLimit       int           `env:"RATE_LIMIT" envDefault:"10"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	RedisURL        string        `env:"REDIS_URL"`

	// Tracing
	TraceEnabled  bool   `env:"TRACE_ENABLED" envDefault:"false"`
	TraceEndpoint string `env:"TRACE_ENDPOINT"`

	TemplatesFile string `env:"TEMPLATES_FILE"`
}

// S3Config holds S3-compatible object storage settings for uploaded media.
type S3Config struct {
	Bucket    string `env:"S3_BUCKET"`
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Prefix    string `env:"S3_PREFIX"`
}

// Enabled reports whether S3 storage is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	MediaDir    string
	WatchDir    string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Parse environment variables into config struct
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.MediaDir != "" {
		cfg.MediaDir = overrides.MediaDir
	}
	if overrides.WatchDir != "" {
		cfg.WatchDir = overrides.WatchDir
	}

	cfg.TranscribeProviders = normalizeList(cfg.TranscribeProviders)
	cfg.GenerateProviders = normalizeList(cfg.GenerateProviders)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.TranscribeRetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("TRANSCRIBE_RETRY_ATTEMPTS must be >= 1, got %d", c.TranscribeRetryAttempts))
	}
	if c.GenerateRetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("GENERATE_RETRY_ATTEMPTS must be >= 1, got %d", c.GenerateRetryAttempts))
	}
	if c.TranscribeRetryBaseDelay < 0 || c.GenerateRetryBaseDelay < 0 || c.RetryMaxDelay < 0 {
		errs = append(errs, errors.New("retry delays must not be negative"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("WORKERS must be >= 1, got %d", c.Workers))
	}
	if c.WatchDir != "" && c.WatchUserID == "" {
		errs = append(errs, errors.New("WATCH_USER_ID is required when WATCH_DIR is set"))
	}
	if _, ok := language.Normalize(c.WatchTargetLanguage); !ok {
		errs = append(errs, fmt.Errorf("WATCH_TARGET_LANGUAGE %q is not supported", c.WatchTargetLanguage))
	}
	return errors.Join(errs...)
}

func normalizeList(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TranscribeSettings maps config onto the speech-to-text provider registry.
func (c *Config) TranscribeSettings() transcribe.Settings {
	return transcribe.Settings{
		Timeout:            c.ProviderTimeout,
		Groq:               transcribe.Endpoint{APIKey: c.GroqAPIKey, BaseURL: c.GroqBaseURL, Model: c.GroqSTTModel},
		OpenAI:             transcribe.Endpoint{APIKey: c.OpenAIAPIKey, BaseURL: c.OpenAIBaseURL, Model: c.OpenAISTTModel},
		HuggingFace:        transcribe.Endpoint{APIKey: c.HuggingFaceAPIKey, BaseURL: c.HuggingFaceBaseURL, Model: c.HuggingFaceSTTModel},
		ElevenLabs:         transcribe.Endpoint{APIKey: c.ElevenLabsAPIKey, BaseURL: c.ElevenLabsBaseURL, Model: c.ElevenLabsSTTModel},
		ElevenLabsKeyterms: c.ElevenLabsKeyterms,
	}
}

// LLMSettings maps config onto the generation provider registry.
func (c *Config) LLMSettings() llm.Settings {
	return llm.Settings{
		Timeout:   c.ProviderTimeout,
		Groq:      llm.Endpoint{APIKey: c.GroqAPIKey, BaseURL: c.GroqBaseURL, Model: c.GroqLLMModel, MaxTokens: c.GroqMaxTokens},
		OpenAI:    llm.Endpoint{APIKey: c.OpenAIAPIKey, BaseURL: c.OpenAIBaseURL, Model: c.OpenAILLMModel, MaxTokens: c.OpenAIMaxTokens},
		Anthropic: llm.Endpoint{APIKey: c.AnthropicAPIKey, BaseURL: c.AnthropicBaseURL, Model: c.AnthropicModel, MaxTokens: c.AnthropicMaxTokens},
	}
}

// WatchLanguage is the normalized target language for watch-folder jobs.
func (c *Config) WatchLanguage() language.Code {
	return language.NormalizeOrDefault(c.WatchTargetLanguage, language.English)
}

func (c *Config) TranscribePolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.TranscribeRetryAttempts, BaseDelay: c.TranscribeRetryBaseDelay, MaxDelay: c.RetryMaxDelay}
}

func (c *Config) GeneratePolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.GenerateRetryAttempts, BaseDelay: c.GenerateRetryBaseDelay, MaxDelay: c.RetryMaxDelay}
}
