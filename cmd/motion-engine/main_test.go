package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/storage"
)

// runCLI executes the root command with an isolated environment.
func runCLI(t *testing.T, args []string, stdin string) (string, error) {
	t.Helper()
	for _, key := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "HUGGINGFACE_API_KEY", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
	t.Setenv("GENERATE_RETRY_ATTEMPTS", "1")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	envFile := filepath.Join(t.TempDir(), "missing.env")
	cmd.SetArgs(append([]string{"--env-file", envFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"serve", "transcribe", "generate", "migrate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			if err != nil || sub.Name() != name {
				t.Fatalf("subcommand %q not registered (err=%v)", name, err)
			}
		})
	}
}

func TestGenerate_FallsBackWithoutProviders(t *testing.T) {
	out, err := runCLI(t, []string{"generate", "--text", "hello from the command line", "--lang", "fr"}, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(out, "# AI Generated Blog Post") {
		t.Errorf("expected fallback document, got %q", out)
	}
	if !strings.Contains(out, "hello from the command line") {
		t.Errorf("fallback should embed the transcription, got %q", out)
	}
}

func TestGenerate_ReadsStdin(t *testing.T) {
	out, err := runCLI(t, []string{"generate"}, "  piped transcription text  \n")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "piped transcription text") {
		t.Errorf("output missing stdin text: %q", out)
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"empty_input", []string{"generate", "--text", "   "}, "empty"},
		{"bad_language", []string{"generate", "--text", "hi", "--lang", "klingon"}, "unsupported language"},
		{"missing_file", []string{"generate", "--file", "/nonexistent/transcript.txt"}, "read transcription"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args, "")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestTranscribe_RejectsOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.mp3")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAX_UPLOAD_BYTES", "4")

	_, err := runCLI(t, []string{"transcribe", path}, "")
	if !errors.Is(err, storage.ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestTranscribe_RequiresOneArg(t *testing.T) {
	if _, err := runCLI(t, []string{"transcribe"}, ""); err == nil {
		t.Fatal("expected an argument error")
	}
}

func TestMigrate_RequiresDatabase(t *testing.T) {
	if _, err := runCLI(t, []string{"migrate"}, ""); err == nil {
		t.Fatal("expected an error without DATABASE_URL")
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := newLogger(&bytes.Buffer{}, tt.in).GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}
