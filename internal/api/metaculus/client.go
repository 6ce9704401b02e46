package metaculus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/Alias1177/Forecaster/internal/platform/http"
	"github.com/Alias1177/Forecaster/models"
)

// The completion proxy lives under the site root, not the API base
const proxyCompletionsURL = "https://www.metaculus.com/proxy/openai/v1/chat/completions/"

// Client talks to the Metaculus API (questions, predictions, comments)
// and to its OpenAI completion proxy.
type Client struct {
	httpClient   *platformhttp.Client
	baseURL      string
	proxyURL     string
	token        string
	tournamentID int
	pageSize     int
	model        string
	logger       zerolog.Logger
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	BaseURL      string
	ProxyURL     string
	Token        string
	TournamentID int
	PageSize     int
	Model        string
	HTTPClient   *platformhttp.Client
}

// NewClient creates a new Metaculus API client
func NewClient(opts ClientOptions) *Client {
	if opts.ProxyURL == "" {
		opts.ProxyURL = proxyCompletionsURL
	}
	if opts.PageSize == 0 {
		opts.PageSize = 30
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = platformhttp.NewClient(platformhttp.ClientOptions{})
	}

	return &Client{
		httpClient:   opts.HTTPClient,
		baseURL:      opts.BaseURL,
		proxyURL:     opts.ProxyURL,
		token:        opts.Token,
		tournamentID: opts.TournamentID,
		pageSize:     opts.PageSize,
		model:        opts.Model,
		logger:       log.With().Str("component", "metaculus_client").Logger(),
	}
}

// ListQuestions fetches one page of open binary questions for the tournament,
// ordered by descending recent activity. An empty slice means no more pages.
func (c *Client) ListQuestions(ctx context.Context, offset int) ([]models.Question, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("has_group", "false")
	params.Set("order_by", "-activity")
	params.Set("forecast_type", "binary")
	params.Set("project", strconv.Itoa(c.tournamentID))
	params.Set("status", "open")
	params.Set("type", "forecast")
	params.Set("include_description", "true")

	reqURL := fmt.Sprintf("%s/questions/?%s", c.baseURL, params.Encode())
	c.logger.Debug().Str("url", reqURL).Int("offset", offset).Msg("Fetching questions")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data models.QuestionsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing questions JSON")
		return nil, fmt.Errorf("parsing questions JSON: %w", err)
	}

	questions := make([]models.Question, 0, len(data.Results))
	for _, r := range data.Results {
		questions = append(questions, models.Question{
			ID:                 r.ID,
			Title:              r.Question.Title,
			Description:        r.Question.Description,
			ResolutionCriteria: r.Question.ResolutionCriteria,
			FinePrint:          r.Question.FinePrint,
		})
	}

	c.logger.Debug().Int("count", len(questions)).Msg("Fetched questions")
	return questions, nil
}

// PostPrediction submits a unit-fraction probability for a question
func (c *Client) PostPrediction(ctx context.Context, questionID int, prediction float64) error {
	payload := map[string]float64{"prediction": prediction}
	reqURL := fmt.Sprintf("%s/questions/%d/predict/", c.baseURL, questionID)

	if err := c.postJSON(ctx, reqURL, payload); err != nil {
		return fmt.Errorf("posting prediction for question %d: %w", questionID, err)
	}

	c.logger.Info().Int("question_id", questionID).Float64("prediction", prediction).Msg("Posted prediction")
	return nil
}

// PostComment attaches a private note to a question
func (c *Client) PostComment(ctx context.Context, questionID int, text string) error {
	payload := map[string]any{
		"comment_text":              text,
		"submit_type":               "N",
		"include_latest_prediction": true,
		"question":                  questionID,
	}
	reqURL := fmt.Sprintf("%s/comments/", c.baseURL)

	if err := c.postJSON(ctx, reqURL, payload); err != nil {
		return fmt.Errorf("posting comment for question %d: %w", questionID, err)
	}

	c.logger.Info().Int("question_id", questionID).Msg("Posted comment")
	return nil
}

// GenerateCompletion sends a prompt to the OpenAI proxy and returns the completion.
// This makes the client a models.CompletionProvider for the configured model.
func (c *Client) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	payload := models.ChatRequest{
		Model: c.model,
		Messages: []models.ChatMessage{
			{Role: "system", Content: "You are a helpful assistant."},
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return "", fmt.Errorf("proxy completion: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var data models.ChatResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(respBody)).Msg("Error parsing completion JSON")
		return "", fmt.Errorf("parsing completion JSON: %w", err)
	}

	if len(data.Choices) == 0 {
		c.logger.Warn().Msg("Proxy returned empty choices")
		return "", nil
	}

	return data.Choices[0].Message.Content, nil
}

func (c *Client) postJSON(ctx context.Context, reqURL string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
