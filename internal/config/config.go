package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Forecaster/models"
)

// Load initializes configuration from environment variables
func Load() (*models.Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg models.Config

	cfg.MetaculusToken = os.Getenv("METACULUS_TOKEN")
	cfg.PerplexityAPIKey = os.Getenv("PERPLEXITY_API_KEY")
	cfg.MetaculusBaseURL = getEnvWithDefault("METACULUS_BASE_URL", "https://www.metaculus.com/api2")
	cfg.TournamentID = getEnvIntWithDefault("TOURNAMENT_ID", 32506)
	cfg.LLMModel = getEnvWithDefault("LLM_MODEL", "gpt-4o")
	cfg.ResearchModel = getEnvWithDefault("RESEARCH_MODEL", "llama-3.1-sonar-huge-128k-online")
	cfg.RunsPerQuestion = getEnvIntWithDefault("RUNS_PER_QUESTION", 5)
	cfg.PageSize = getEnvIntWithDefault("PAGE_SIZE", 30)
	cfg.CheckpointFile = getEnvWithDefault("CHECKPOINT_FILE", "processed_questions.json")
	cfg.UseResearch = getEnvBoolWithDefault("USE_RESEARCH", true)
	cfg.SubmitPredictions = getEnvBoolWithDefault("SUBMIT_PREDICTIONS", true)
	cfg.SkipProcessed = getEnvBoolWithDefault("SKIP_PROCESSED", true)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	if cfg.MetaculusToken == "" {
		return nil, fmt.Errorf("METACULUS_TOKEN is not set")
	}
	if cfg.UseResearch && cfg.PerplexityAPIKey == "" {
		return nil, fmt.Errorf("USE_RESEARCH is enabled but PERPLEXITY_API_KEY is not set")
	}
	if cfg.RunsPerQuestion < 1 {
		return nil, fmt.Errorf("RUNS_PER_QUESTION must be at least 1, got %d", cfg.RunsPerQuestion)
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("PAGE_SIZE must be at least 1, got %d", cfg.PageSize)
	}

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
