package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	motionengine "github.com/motionai/motion-engine"
	"github.com/motionai/motion-engine/internal/config"
	"github.com/motionai/motion-engine/internal/database"
	"github.com/motionai/motion-engine/internal/generate"
	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/llm"
	"github.com/motionai/motion-engine/internal/templates"
	"github.com/motionai/motion-engine/internal/transcribe"
)

// engine holds the services every subcommand shares.
type engine struct {
	db          *database.Handle
	transcriber *transcribe.Service
	generator   *generate.Service
}

func newEngine(cfg *config.Config, log zerolog.Logger) (*engine, error) {
	sttProviders, err := transcribe.NewProviders(cfg.TranscribeProviders, cfg.TranscribeSettings())
	if err != nil {
		return nil, fmt.Errorf("transcription providers: %w", err)
	}
	llmProviders, err := llm.NewProviders(cfg.GenerateProviders, cfg.LLMSettings())
	if err != nil {
		return nil, fmt.Errorf("generation providers: %w", err)
	}
	catalog, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	dbLog := log.With().Str("component", "database").Logger()
	db := database.NewHandle(cfg.DatabaseURL, dbLog, func(ctx context.Context, db *database.DB) error {
		return db.Prepare(ctx, motionengine.SchemaSQL)
	})

	return &engine{
		db:          db,
		transcriber: transcribe.NewService(sttProviders, cfg.TranscribePolicy(), log),
		generator: generate.NewService(generate.Options{
			Providers: llmProviders,
			Policy:    cfg.GeneratePolicy(),
			Machine:   language.NewMyMemoryClient(cfg.MyMemoryURL, cfg.MyMemoryEmail, cfg.ProviderTimeout),
			Catalog:   catalog,
			Log:       log,
		}),
	}, nil
}

func (e *engine) Close() {
	e.db.Close()
}
