package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/motionai/motion-engine/internal/generate"
	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/storage"
	"github.com/motionai/motion-engine/internal/transcribe"
)

func newTranscribeCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe a local audio or video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			log := cliLogger(cfg)

			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", path)
			}
			if info.Size() > cfg.MaxUploadBytes {
				return fmt.Errorf("%s: %w (%d > %d bytes)", path, storage.ErrTooLarge, info.Size(), cfg.MaxUploadBytes)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}

			eng, err := newEngine(cfg, log)
			if err != nil {
				return err
			}
			defer eng.Close()

			name := filepath.Base(path)
			res, err := eng.transcriber.Transcribe(cmd.Context(), transcribe.Media{
				Data:        data,
				Filename:    name,
				ContentType: storage.ContentTypeFor(name),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "language=%s provider=%s model=%s\n", res.Language, res.Provider, res.Model)
			fmt.Fprintln(out, res.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func newGenerateCommand(flags *globalFlags) *cobra.Command {
	var text, file, lang, template string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a blog post from a transcription",
		Long: "Generate a blog post from transcription text given with --text, --file, or on stdin.\n" +
			"The post is printed as markdown and not saved.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			log := cliLogger(cfg)

			input, err := readTranscription(cmd.InOrStdin(), text, file)
			if err != nil {
				return err
			}
			target, ok := language.Normalize(lang)
			if !ok {
				return fmt.Errorf("unsupported language %q", lang)
			}

			eng, err := newEngine(cfg, log)
			if err != nil {
				return err
			}
			defer eng.Close()

			res := eng.generator.Generate(cmd.Context(), generate.Context{
				Transcription:  input,
				TargetLanguage: target,
				SourceLanguage: language.Detect(input),
				Template:       template,
			})
			if res.Fallback {
				log.Warn().Msg("all generation providers failed, printing fallback document")
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Transcription text")
	cmd.Flags().StringVar(&file, "file", "", "Read the transcription from a file")
	cmd.Flags().StringVar(&lang, "lang", "en", "Target language")
	cmd.Flags().StringVar(&template, "template", "", "Template ID or literal instructions")
	cmd.MarkFlagsMutuallyExclusive("text", "file")
	return cmd
}

// readTranscription picks the transcription from --text, --file or stdin.
func readTranscription(stdin io.Reader, text, file string) (string, error) {
	switch {
	case text != "":
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read transcription: %w", err)
		}
		text = string(b)
	default:
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(b)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("transcription is empty")
	}
	return text, nil
}

func newMigrateCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			log := cliLogger(cfg)

			eng, err := newEngine(cfg, log)
			if err != nil {
				return err
			}
			defer eng.Close()

			// The handle runs schema setup and migrations on first open.
			if _, err := eng.db.Get(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			return nil
		},
	}
}
