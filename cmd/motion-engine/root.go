package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/motionai/motion-engine/internal/config"
)

// globalFlags are shared by every subcommand and override the environment.
type globalFlags struct {
	envFile     string
	logLevel    string
	databaseURL string
	mediaDir    string
}

func (f *globalFlags) load() (*config.Config, error) {
	return config.Load(config.Overrides{
		EnvFile:     f.envFile,
		LogLevel:    f.logLevel,
		DatabaseURL: f.databaseURL,
		MediaDir:    f.mediaDir,
	})
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "motion-engine",
		Short:         "Turn audio and video into blog posts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serveCmd := newServeCommand(flags)
	rootCmd.RunE = serveCmd.RunE

	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.databaseURL, "database-url", "", "PostgreSQL connection URL")
	rootCmd.PersistentFlags().StringVar(&flags.mediaDir, "media-dir", "", "Directory for uploaded media")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newTranscribeCommand(flags))
	rootCmd.AddCommand(newGenerateCommand(flags))
	rootCmd.AddCommand(newMigrateCommand(flags))
	return rootCmd
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(w io.Writer, levelName string) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil || levelName == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// cliLogger logs to stderr so command output on stdout stays clean.
func cliLogger(cfg *config.Config) zerolog.Logger {
	return newLogger(zerolog.ConsoleWriter{Out: os.Stderr}, cfg.LogLevel)
}
