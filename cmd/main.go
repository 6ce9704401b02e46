package main

import (
	"context"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Forecaster/internal/aggregate"
	"github.com/Alias1177/Forecaster/internal/api/metaculus"
	"github.com/Alias1177/Forecaster/internal/api/perplexity"
	"github.com/Alias1177/Forecaster/internal/checkpoint"
	"github.com/Alias1177/Forecaster/internal/config"
	"github.com/Alias1177/Forecaster/internal/database"
	"github.com/Alias1177/Forecaster/internal/llm"
	"github.com/Alias1177/Forecaster/internal/notify"
	"github.com/Alias1177/Forecaster/internal/pipeline"
	platformhttp "github.com/Alias1177/Forecaster/internal/platform/http"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger

	httpClient := platformhttp.NewClient(platformhttp.ClientOptions{
		Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})

	metac := metaculus.NewClient(metaculus.ClientOptions{
		BaseURL:      cfg.MetaculusBaseURL,
		Token:        cfg.MetaculusToken,
		TournamentID: cfg.TournamentID,
		PageSize:     cfg.PageSize,
		Model:        cfg.LLMModel,
		HTTPClient:   httpClient,
	})

	provider, err := llm.NewProvider(cfg.LLMModel, metac)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid model configuration")
	}

	opts := pipeline.Options{
		Client:     metac,
		Aggregator: aggregate.New(provider),
		Store:      checkpoint.New(cfg.CheckpointFile),
		Config:     cfg,
	}

	if cfg.UseResearch {
		opts.Research = perplexity.NewClient(cfg.PerplexityAPIKey, cfg.ResearchModel)
	}

	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()
		opts.History = db
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Telegram notifier")
		}
		opts.Notifier = tg
	}

	if err := pipeline.New(opts).Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Run failed")
	}
}
