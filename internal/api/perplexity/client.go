package perplexity

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const baseURL = "https://api.perplexity.ai"

// systemPrompt fixes the assistant's behavior: research only, no forecasting
const systemPrompt = `
You are an intelligence analyst tasked at an international non-governmental
organization who is tasked with providing relevant up-to-date research to your
superior, who is a superforecaster.

To be an effective analyst and great assistant, you generate a concise but
detailed rundown of the most relevant news, including if the question would
resolve Yes or No based on current information.
You do not produce forecasts yourself.
`

// Client wraps the Perplexity chat-completions API
type Client struct {
	client     *openai.Client
	model      string
	maxRetries uint64
	logger     zerolog.Logger
}

// NewClient creates a new Perplexity client. Perplexity speaks the OpenAI
// chat-completions protocol, so the OpenAI client is pointed at its base URL.
func NewClient(apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &Client{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		maxRetries: 3,
		logger:     log.With().Str("component", "perplexity_client").Logger(),
	}
}

// Collect sends a question topic to Perplexity and returns the research
// summary. Transient failures are retried with exponential backoff; after
// exhaustion the error is returned and the caller proceeds without research.
func (c *Client) Collect(ctx context.Context, topic string) (string, error) {
	c.logger.Debug().Str("topic", topic).Msg("Requesting research summary")

	var content string
	operation := func() error {
		resp, err := c.client.CreateChatCompletion(
			ctx,
			openai.ChatCompletionRequest{
				Model: c.model,
				Messages: []openai.ChatCompletionMessage{
					{
						Role:    openai.ChatMessageRoleSystem,
						Content: systemPrompt,
					},
					{
						Role:    openai.ChatMessageRoleUser,
						Content: topic,
					},
				},
			},
		)
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) && !retryable(apiErr.HTTPStatusCode) {
				return backoff.Permanent(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			c.logger.Warn().Msg("Perplexity returned empty choices")
			content = ""
			return nil
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.InitialInterval = time.Second
	backoffStrategy.Multiplier = 2
	backoffStrategy.RandomizationFactor = 0

	retries := backoff.WithMaxRetries(backoffStrategy, c.maxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(retries, ctx)); err != nil {
		c.logger.Error().Err(err).Msg("Perplexity API error")
		return "", err
	}

	return content, nil
}

func retryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
