package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/test",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.MediaDir != "./media" {
			t.Errorf("MediaDir = %q, want ./media", cfg.MediaDir)
		}
		if cfg.MQTTTopicPrefix != "motion-engine" {
			t.Errorf("MQTTTopicPrefix = %q", cfg.MQTTTopicPrefix)
		}
		if cfg.TranscribeRetryAttempts != 3 || cfg.TranscribeRetryBaseDelay != 2*time.Second {
			t.Errorf("transcribe retry = %d/%s, want 3/2s", cfg.TranscribeRetryAttempts, cfg.TranscribeRetryBaseDelay)
		}
		if cfg.GenerateRetryAttempts != 2 || cfg.GenerateRetryBaseDelay != time.Second {
			t.Errorf("generate retry = %d/%s, want 2/1s", cfg.GenerateRetryAttempts, cfg.GenerateRetryBaseDelay)
		}
		if cfg.RetryMaxDelay != 0 {
			t.Errorf("RetryMaxDelay = %s, want 0 (uncapped)", cfg.RetryMaxDelay)
		}
		if cfg.MaxUploadBytes != 50<<20 {
			t.Errorf("MaxUploadBytes = %d, want 50MB", cfg.MaxUploadBytes)
		}
		if got := cfg.TranscribeProviders; len(got) != 3 || got[0] != "groq" || got[2] != "huggingface" {
			t.Errorf("TranscribeProviders = %v", got)
		}
		if got := cfg.GenerateProviders; len(got) != 3 || got[2] != "anthropic" {
			t.Errorf("GenerateProviders = %v", got)
		}
		if cfg.GroqMaxTokens != 2000 || cfg.OpenAIMaxTokens != 1000 {
			t.Errorf("max tokens = %d/%d, want 2000/1000", cfg.GroqMaxTokens, cfg.OpenAIMaxTokens)
		}
		if cfg.RateLimit != 10 || cfg.RateLimitWindow != time.Minute {
			t.Errorf("rate limit = %d per %s", cfg.RateLimit, cfg.RateLimitWindow)
		}
		if cfg.S3.Enabled() {
			t.Error("S3 should be disabled without a bucket")
		}
		if cfg.WatchLanguage() != "en" {
			t.Errorf("WatchLanguage = %q, want en", cfg.WatchLanguage())
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:     "nonexistent.env",
			HTTPAddr:    ":9090",
			LogLevel:    "debug",
			DatabaseURL: "postgres://override/db",
			MediaDir:    "/tmp/media",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.DatabaseURL != "postgres://override/db" {
			t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
		}
		if cfg.MediaDir != "/tmp/media" {
			t.Errorf("MediaDir = %q, want /tmp/media", cfg.MediaDir)
		}
	})

	t.Run("empty_overrides_use_env", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.DatabaseURL != "postgres://localhost/test" {
			t.Errorf("DatabaseURL = %q, want env value", cfg.DatabaseURL)
		}
	})
}

func TestLoadProviderLists(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"TRANSCRIBE_PROVIDERS": " ElevenLabs , groq,,",
		"S3_BUCKET":            "media",
	})
	defer cleanup()

	cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := cfg.TranscribeProviders
	if len(got) != 2 || got[0] != "elevenlabs" || got[1] != "groq" {
		t.Errorf("TranscribeProviders = %v, want [elevenlabs groq]", got)
	}
	if !cfg.S3.Enabled() || cfg.S3.Region != "us-east-1" {
		t.Errorf("S3 = %+v", cfg.S3)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("WORKERS=7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cleanup := setEnvs(t, map[string]string{})
	defer cleanup()
	defer os.Unsetenv("WORKERS")

	cfg, err := Load(Overrides{EnvFile: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 7 {
		t.Errorf("Workers = %d, want 7 from env file", cfg.Workers)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		envs map[string]string
	}{
		{"zero_attempts", map[string]string{"TRANSCRIBE_RETRY_ATTEMPTS": "0"}},
		{"negative_delay", map[string]string{"GENERATE_RETRY_BASE_DELAY": "-1s"}},
		{"watch_without_user", map[string]string{"WATCH_DIR": "/tmp/in"}},
		{"bad_duration", map[string]string{"RETRY_MAX_DELAY": "soon"}},
		{"bad_watch_language", map[string]string{"WATCH_TARGET_LANGUAGE": "xx-invalid-tag"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setEnvs(t, tt.envs)
			defer cleanup()
			if _, err := Load(Overrides{EnvFile: "nonexistent.env"}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}

func TestProviderSettings(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"GROQ_API_KEY":    "gk",
		"GROQ_BASE_URL":   "http://gw.local",
		"RETRY_MAX_DELAY": "10s",
	})
	defer cleanup()

	cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ts := cfg.TranscribeSettings()
	if ts.Groq.APIKey != "gk" || ts.Groq.BaseURL != "http://gw.local" || ts.Groq.Model != "whisper-large-v3" {
		t.Errorf("transcribe groq = %+v", ts.Groq)
	}
	ls := cfg.LLMSettings()
	if ls.Groq.APIKey != "gk" || ls.Groq.Model != "llama-3.1-8b-instant" || ls.Groq.MaxTokens != 2000 {
		t.Errorf("llm groq = %+v", ls.Groq)
	}
	if p := cfg.TranscribePolicy(); p.MaxAttempts != 3 || p.BaseDelay != 2*time.Second || p.MaxDelay != 10*time.Second {
		t.Errorf("TranscribePolicy = %+v", p)
	}
	if p := cfg.GeneratePolicy(); p.MaxAttempts != 2 || p.BaseDelay != time.Second {
		t.Errorf("GeneratePolicy = %+v", p)
	}
}
