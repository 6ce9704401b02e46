package models

import (
	"time"
)

type Config struct {
	MetaculusToken    string `env:"METACULUS_TOKEN" envDefault:"-"`
	PerplexityAPIKey  string `env:"PERPLEXITY_API_KEY" envDefault:"-"`
	MetaculusBaseURL  string `env:"METACULUS_BASE_URL" envDefault:"https://www.metaculus.com/api2"`
	TournamentID      int    `env:"TOURNAMENT_ID" envDefault:"32506"`
	LLMModel          string `env:"LLM_MODEL" envDefault:"gpt-4o"`
	ResearchModel     string `env:"RESEARCH_MODEL" envDefault:"llama-3.1-sonar-huge-128k-online"`
	RunsPerQuestion   int    `env:"RUNS_PER_QUESTION" envDefault:"5"`
	PageSize          int    `env:"PAGE_SIZE" envDefault:"30"`
	CheckpointFile    string `env:"CHECKPOINT_FILE" envDefault:"processed_questions.json"`
	UseResearch       bool   `env:"USE_RESEARCH" envDefault:"true"`
	SubmitPredictions bool   `env:"SUBMIT_PREDICTIONS" envDefault:"true"`
	SkipProcessed     bool   `env:"SKIP_PROCESSED" envDefault:"true"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout    int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	DatabaseURL       string `env:"DATABASE_URL" envDefault:""`
	TelegramBotToken  string `env:"TELEGRAM_BOT_TOKEN" envDefault:""`
	TelegramChatID    int64  `env:"TELEGRAM_CHAT_ID" envDefault:"0"`
}

// Question represents a single binary forecasting question on the platform
type Question struct {
	ID                 int    `json:"id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	ResolutionCriteria string `json:"resolution_criteria"`
	FinePrint          string `json:"fine_print"`
}

// QuestionsResponse represents the API response from the questions endpoint.
// Question details are nested under a "question" key on each result.
type QuestionsResponse struct {
	Results []struct {
		ID       int `json:"id"`
		Question struct {
			Title              string `json:"title"`
			Description        string `json:"description"`
			ResolutionCriteria string `json:"resolution_criteria"`
			FinePrint          string `json:"fine_print"`
		} `json:"question"`
	} `json:"results"`
}

// ChatMessage is a single message in a chat-completions request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body for a chat-completions-compatible endpoint
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// ChatResponse is the response body from a chat-completions-compatible endpoint
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ForecastRun holds the outcome of one model invocation against a prompt
type ForecastRun struct {
	Run         int    // 1-based run number
	Response    string // raw model text
	Probability int    // extracted percentage in [1,99], valid only if Extracted
	Extracted   bool
}

// AggregatedForecast is the usable result of a full batch of forecast runs
type AggregatedForecast struct {
	Mean       float64  // arithmetic mean of extracted probabilities, as a percentage
	Rationales []string // one labeled rationale per run, extraction success or not
}

// ForecastRecord is a row in the forecast history table
type ForecastRecord struct {
	QuestionID  int
	Title       string
	Probability float64 // percentage
	Runs        int
	Rationale   string
	CreatedAt   time.Time
}
