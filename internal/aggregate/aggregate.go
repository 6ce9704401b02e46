package aggregate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Forecaster/internal/extract"
	"github.com/Alias1177/Forecaster/models"
)

const summarizeInstruction = "Summarize the following 5 rationales into a 4 to 6 bulletpoints (for all the 5 rationales combined) with the most noteworthy information repeated in most of the rationales: \n\n"

// Aggregator issues repeated completion requests for one prompt and reduces
// the results to a single forecast
type Aggregator struct {
	provider models.CompletionProvider
	logger   zerolog.Logger
}

// New creates an Aggregator backed by the given completion provider
func New(provider models.CompletionProvider) *Aggregator {
	return &Aggregator{
		provider: provider,
		logger:   log.With().Str("component", "aggregator").Logger(),
	}
}

// Run issues n independent completion requests with the same prompt. Every
// response is recorded as a labeled rationale whether or not a probability
// could be extracted; a failed run is logged and dropped without aborting
// the batch. The batch is usable only when all n runs yielded a probability.
func (a *Aggregator) Run(ctx context.Context, prompt string, n int) ([]models.ForecastRun, error) {
	runs := make([]models.ForecastRun, 0, n)

	for i := 1; i <= n; i++ {
		response, err := a.provider.GenerateCompletion(ctx, prompt)
		if err != nil {
			a.logger.Error().Err(err).Int("run", i).Msg("Error generating prediction")
			continue
		}

		run := models.ForecastRun{Run: i, Response: response}
		if p, ok := extract.Probability(response); ok {
			run.Probability = p
			run.Extracted = true
			a.logger.Info().Int("run", i).Int("prediction", p).Msg("Extracted prediction")
		} else {
			a.logger.Warn().Int("run", i).Msg("No probability found in response")
		}

		runs = append(runs, run)
	}

	return runs, ctx.Err()
}

// Probabilities returns the successfully extracted values from a batch
func Probabilities(runs []models.ForecastRun) []int {
	var probs []int
	for _, r := range runs {
		if r.Extracted {
			probs = append(probs, r.Probability)
		}
	}
	return probs
}

// Rationales labels every run's raw response, extraction success or not
func Rationales(runs []models.ForecastRun) []string {
	var rationales []string
	for _, r := range runs {
		rationales = append(rationales, fmt.Sprintf("Run %d: %s", r.Run, r.Response))
	}
	return rationales
}

// Mean is the arithmetic mean of the extracted probabilities, as a percentage
func Mean(probabilities []int) float64 {
	if len(probabilities) == 0 {
		return 0
	}
	sum := 0
	for _, p := range probabilities {
		sum += p
	}
	return float64(sum) / float64(len(probabilities))
}

// Summarize compresses the collected rationales into a short bullet digest
// via the completion provider and returns the result verbatim.
func (a *Aggregator) Summarize(ctx context.Context, rationales []string) (string, error) {
	prompt := summarizeInstruction + strings.Join(rationales, "\n\n")

	summary, err := a.provider.GenerateCompletion(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarizing rationales: %w", err)
	}
	return summary, nil
}
