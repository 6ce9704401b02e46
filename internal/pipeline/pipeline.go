package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Forecaster/internal/aggregate"
	"github.com/Alias1177/Forecaster/internal/checkpoint"
	"github.com/Alias1177/Forecaster/internal/prompt"
	"github.com/Alias1177/Forecaster/models"
)

// HistoryStore records submitted forecasts for later review
type HistoryStore interface {
	RecordForecast(rec models.ForecastRecord) error
}

// Notifier announces submitted forecasts
type Notifier interface {
	ForecastSubmitted(questionID int, title string, probability float64) error
}

// Pipeline drives the full question-processing loop: list, research,
// prompt, forecast, aggregate, submit, checkpoint.
type Pipeline struct {
	client     models.QuestionClient
	aggregator *aggregate.Aggregator
	research   models.ResearchProvider // nil disables research
	store      *checkpoint.Store
	history    HistoryStore // nil disables history
	notifier   Notifier     // nil disables notifications
	cfg        *models.Config
	now        func() time.Time
	logger     zerolog.Logger
}

// Options holds the collaborators for a new Pipeline. Research, History and
// Notifier are optional.
type Options struct {
	Client     models.QuestionClient
	Aggregator *aggregate.Aggregator
	Research   models.ResearchProvider
	Store      *checkpoint.Store
	History    HistoryStore
	Notifier   Notifier
	Config     *models.Config
	Now        func() time.Time
}

// New creates a Pipeline
func New(opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Pipeline{
		client:     opts.Client,
		aggregator: opts.Aggregator,
		research:   opts.Research,
		store:      opts.Store,
		history:    opts.History,
		notifier:   opts.Notifier,
		cfg:        opts.Config,
		now:        opts.Now,
		logger:     log.With().Str("component", "pipeline").Logger(),
	}
}

// Run fetches all open questions for the tournament and processes each one
// that is not yet checkpointed. A failure on one question never aborts the
// rest; only a listing failure is fatal.
func (p *Pipeline) Run(ctx context.Context) error {
	processed := map[int]bool{}
	if p.cfg.SkipProcessed {
		var err error
		processed, err = p.store.Load()
		if err != nil {
			return fmt.Errorf("loading checkpoint: %w", err)
		}
	}

	questions, err := p.listAllQuestions(ctx)
	if err != nil {
		return err
	}

	submitted := 0
	for _, q := range questions {
		if processed[q.ID] {
			p.logger.Info().Int("question_id", q.ID).Msg("Skipping question (already processed)")
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if p.processQuestion(ctx, q) {
			processed[q.ID] = true
			submitted++
		}
	}

	p.logger.Info().Int("questions", len(questions)).Int("submitted", submitted).Msg("Run complete")
	return nil
}

// listAllQuestions pages through the question list until an empty page
func (p *Pipeline) listAllQuestions(ctx context.Context) ([]models.Question, error) {
	var all []models.Question
	offset := 0

	for {
		page, err := p.client.ListQuestions(ctx, offset)
		if err != nil {
			return nil, fmt.Errorf("listing questions at offset %d: %w", offset, err)
		}

		p.logger.Info().Int("count", len(page)).Int("offset", offset).Msg("Fetched questions page")

		if len(page) == 0 {
			break
		}
		offset += len(page)
		all = append(all, page...)
	}

	return all, nil
}

// processQuestion runs one question through research, forecasting and
// submission. Returns true only when the question was submitted and
// checkpointed.
func (p *Pipeline) processQuestion(ctx context.Context, q models.Question) bool {
	logger := p.logger.With().Int("question_id", q.ID).Str("title", q.Title).Logger()
	logger.Info().Msg("Forecasting question")

	researchSummary := ""
	if p.cfg.UseResearch && p.research != nil {
		summary, err := p.research.Collect(ctx, q.Title)
		if err != nil {
			logger.Warn().Err(err).Msg("Research lookup failed, proceeding without it")
		} else {
			researchSummary = summary
		}
	}

	promptText := prompt.Build(q, researchSummary, p.now())
	logger.Debug().Str("prompt", promptText).Msg("Built prompt")

	n := p.cfg.RunsPerQuestion
	runs, err := p.aggregator.Run(ctx, promptText, n)
	if err != nil {
		logger.Error().Err(err).Msg("Forecast batch aborted")
		return false
	}

	probabilities := aggregate.Probabilities(runs)
	if len(probabilities) < n {
		logger.Warn().Int("collected", len(probabilities)).Int("required", n).
			Msg("Not enough predictions collected, skipping submission")
		return false
	}

	mean := aggregate.Mean(probabilities)
	logger.Info().Float64("average", mean).Msg("Average prediction")

	if !p.cfg.SubmitPredictions {
		logger.Info().Msg("Submission disabled, not posting prediction")
		return false
	}

	if err := p.submit(ctx, q, mean, aggregate.Rationales(runs), researchSummary); err != nil {
		logger.Error().Err(err).Msg("Error posting prediction or comment")
		return false
	}

	logger.Info().Msg("Posted prediction and comment")
	return true
}

// submit posts the prediction and the consolidated rationale, then marks the
// question processed. Any error here leaves the question un-checkpointed so
// the next scheduled run retries it.
func (p *Pipeline) submit(ctx context.Context, q models.Question, mean float64, rationales []string, researchSummary string) error {
	// The API takes a unit fraction, not a percentage
	if err := p.client.PostPrediction(ctx, q.ID, mean/100); err != nil {
		return err
	}

	consolidated, err := p.aggregator.Summarize(ctx, rationales)
	if err != nil {
		return err
	}
	if researchSummary != "" {
		consolidated += "\n\nUsed the following information from Perplexity:\n\n" + researchSummary
	}

	if err := p.client.PostComment(ctx, q.ID, consolidated); err != nil {
		return err
	}

	if err := p.store.Save(q.ID); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}

	// History and notifications are best-effort; the forecast is already in
	if p.history != nil {
		rec := models.ForecastRecord{
			QuestionID:  q.ID,
			Title:       q.Title,
			Probability: mean,
			Runs:        len(rationales),
			Rationale:   consolidated,
			CreatedAt:   p.now(),
		}
		if err := p.history.RecordForecast(rec); err != nil {
			p.logger.Warn().Err(err).Int("question_id", q.ID).Msg("Failed to record forecast history")
		}
	}
	if p.notifier != nil {
		if err := p.notifier.ForecastSubmitted(q.ID, q.Title, mean); err != nil {
			p.logger.Warn().Err(err).Int("question_id", q.ID).Msg("Failed to send notification")
		}
	}

	return nil
}
