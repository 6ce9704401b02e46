package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alias1177/Forecaster/internal/aggregate"
	"github.com/Alias1177/Forecaster/internal/checkpoint"
	"github.com/Alias1177/Forecaster/models"
)

// fakeClient is a scripted platform backend
type fakeClient struct {
	pages       [][]models.Question
	listCalls   int
	predictions map[int]float64
	comments    map[int]string
	failPredict map[int]error
}

func newFakeClient(pages ...[]models.Question) *fakeClient {
	return &fakeClient{
		pages:       pages,
		predictions: map[int]float64{},
		comments:    map[int]string{},
		failPredict: map[int]error{},
	}
}

func (c *fakeClient) ListQuestions(_ context.Context, _ int) ([]models.Question, error) {
	call := c.listCalls
	c.listCalls++
	if call >= len(c.pages) {
		return nil, nil
	}
	return c.pages[call], nil
}

func (c *fakeClient) PostPrediction(_ context.Context, questionID int, prediction float64) error {
	if err := c.failPredict[questionID]; err != nil {
		return err
	}
	c.predictions[questionID] = prediction
	return nil
}

func (c *fakeClient) PostComment(_ context.Context, questionID int, text string) error {
	c.comments[questionID] = text
	return nil
}

// fakeProvider dispatches each call to fn with a 1-based call number
type fakeProvider struct {
	calls int
	fn    func(call int, prompt string) (string, error)
}

func (p *fakeProvider) GenerateCompletion(_ context.Context, prompt string) (string, error) {
	p.calls++
	return p.fn(p.calls, prompt)
}

func constantProvider(text string) *fakeProvider {
	return &fakeProvider{fn: func(int, string) (string, error) { return text, nil }}
}

func testConfig(dir string) *models.Config {
	return &models.Config{
		RunsPerQuestion:   5,
		PageSize:          30,
		UseResearch:       false,
		SubmitPredictions: true,
		SkipProcessed:     true,
		CheckpointFile:    filepath.Join(dir, "processed_questions.json"),
	}
}

func makeQuestions(startID, count int) []models.Question {
	questions := make([]models.Question, count)
	for i := range questions {
		questions[i] = models.Question{
			ID:          startID + i,
			Title:       fmt.Sprintf("Question %d", startID+i),
			Description: "Background.",
		}
	}
	return questions
}

func newTestPipeline(cfg *models.Config, client *fakeClient, provider *fakeProvider) *Pipeline {
	return New(Options{
		Client:     client,
		Aggregator: aggregate.New(provider),
		Store:      checkpoint.New(cfg.CheckpointFile),
		Config:     cfg,
		Now:        func() time.Time { return time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC) },
	})
}

func TestPaginationStopsOnEmptyPage(t *testing.T) {
	cfg := testConfig(t.TempDir())
	client := newFakeClient(makeQuestions(1, 30), makeQuestions(31, 30), nil)
	provider := constantProvider("Probability: 50%")

	if err := newTestPipeline(cfg, client, provider).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if client.listCalls != 3 {
		t.Errorf("expected 3 list calls, got %d", client.listCalls)
	}
	if len(client.predictions) != 60 {
		t.Errorf("expected 60 submitted predictions, got %d", len(client.predictions))
	}
}

func TestListingFailureAbortsRun(t *testing.T) {
	cfg := testConfig(t.TempDir())
	failing := &failingListClient{err: errors.New("unauthorized")}

	p := New(Options{
		Client:     failing,
		Aggregator: aggregate.New(constantProvider("Probability: 50%")),
		Store:      checkpoint.New(cfg.CheckpointFile),
		Config:     cfg,
	})
	if err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error when listing fails")
	}
}

type failingListClient struct {
	err error
}

func (c *failingListClient) ListQuestions(context.Context, int) ([]models.Question, error) {
	return nil, c.err
}
func (c *failingListClient) PostPrediction(context.Context, int, float64) error { return nil }
func (c *failingListClient) PostComment(context.Context, int, string) error     { return nil }

func TestSubmitsMeanAsUnitFraction(t *testing.T) {
	cfg := testConfig(t.TempDir())
	client := newFakeClient(makeQuestions(1, 1))

	// Five runs extract 10,20,30,40,50; the sixth call is the summarization
	responses := []string{
		"Probability: 10%", "Probability: 20%", "Probability: 30%",
		"Probability: 40%", "Probability: 50%", "- consolidated digest",
	}
	provider := &fakeProvider{fn: func(call int, _ string) (string, error) {
		return responses[call-1], nil
	}}

	if err := newTestPipeline(cfg, client, provider).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := client.predictions[1]; got != 0.30 {
		t.Errorf("expected prediction 0.30, got %v", got)
	}
	if got := client.comments[1]; got != "- consolidated digest" {
		t.Errorf("unexpected comment: %q", got)
	}
}

func TestSecondRunSkipsProcessedQuestion(t *testing.T) {
	cfg := testConfig(t.TempDir())
	questions := makeQuestions(1, 1)

	first := newFakeClient(questions)
	if err := newTestPipeline(cfg, first, constantProvider("Probability: 50%")).Run(context.Background()); err != nil {
		t.Fatalf("first run returned error: %v", err)
	}
	if len(first.predictions) != 1 {
		t.Fatalf("first run did not submit")
	}

	second := newFakeClient(questions)
	provider := constantProvider("Probability: 50%")
	if err := newTestPipeline(cfg, second, provider).Run(context.Background()); err != nil {
		t.Fatalf("second run returned error: %v", err)
	}

	if provider.calls != 0 {
		t.Errorf("second run issued %d completion calls for a processed question", provider.calls)
	}
	if len(second.predictions) != 0 || len(second.comments) != 0 {
		t.Error("second run submitted for an already-processed question")
	}
}

func TestSubmissionFailureDoesNotAbortBatch(t *testing.T) {
	cfg := testConfig(t.TempDir())
	client := newFakeClient(makeQuestions(1, 2))
	client.failPredict[1] = errors.New("prediction endpoint down")

	if err := newTestPipeline(cfg, client, constantProvider("Probability: 50%")).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if _, ok := client.predictions[2]; !ok {
		t.Error("question 2 was not processed after question 1 failed")
	}

	processed, err := checkpoint.New(cfg.CheckpointFile).Load()
	if err != nil {
		t.Fatalf("loading checkpoint: %v", err)
	}
	if processed[1] {
		t.Error("failed question 1 was checkpointed")
	}
	if !processed[2] {
		t.Error("successful question 2 was not checkpointed")
	}
}

func TestInsufficientPredictionsSkipsSubmission(t *testing.T) {
	cfg := testConfig(t.TempDir())
	client := newFakeClient(makeQuestions(1, 1))

	// Run 3 yields no extractable probability, so only 4 of 5 succeed
	provider := &fakeProvider{fn: func(call int, _ string) (string, error) {
		if call == 3 {
			return "I am unable to give a number.", nil
		}
		return "Probability: 50%", nil
	}}

	if err := newTestPipeline(cfg, client, provider).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if provider.calls != 5 {
		t.Errorf("expected exactly 5 completion calls (no summarization), got %d", provider.calls)
	}
	if len(client.predictions) != 0 || len(client.comments) != 0 {
		t.Error("submission occurred despite insufficient predictions")
	}

	processed, err := checkpoint.New(cfg.CheckpointFile).Load()
	if err != nil {
		t.Fatalf("loading checkpoint: %v", err)
	}
	if processed[1] {
		t.Error("skipped question was checkpointed")
	}
}

func TestSubmissionDisabled(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.SubmitPredictions = false
	client := newFakeClient(makeQuestions(1, 1))

	if err := newTestPipeline(cfg, client, constantProvider("Probability: 50%")).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(client.predictions) != 0 {
		t.Error("prediction submitted with submission disabled")
	}

	processed, err := checkpoint.New(cfg.CheckpointFile).Load()
	if err != nil {
		t.Fatalf("loading checkpoint: %v", err)
	}
	if len(processed) != 0 {
		t.Error("question checkpointed with submission disabled")
	}
}

func TestResearchFailureProceedsWithoutIt(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.UseResearch = true
	client := newFakeClient(makeQuestions(1, 1))

	p := New(Options{
		Client:     client,
		Aggregator: aggregate.New(constantProvider("Probability: 50%")),
		Research:   failingResearch{},
		Store:      checkpoint.New(cfg.CheckpointFile),
		Config:     cfg,
	})
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(client.predictions) != 1 {
		t.Error("question not submitted after research failure")
	}
	if got := client.comments[1]; got != "Probability: 50%" {
		t.Errorf("research addendum unexpectedly present: %q", got)
	}
}

type failingResearch struct{}

func (failingResearch) Collect(context.Context, string) (string, error) {
	return "", errors.New("research retries exhausted")
}

func TestResearchAddendumAppended(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.UseResearch = true
	client := newFakeClient(makeQuestions(1, 1))

	p := New(Options{
		Client:     client,
		Aggregator: aggregate.New(constantProvider("Probability: 50%")),
		Research:   staticResearch("X is trending upward."),
		Store:      checkpoint.New(cfg.CheckpointFile),
		Config:     cfg,
	})
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := "Probability: 50%\n\nUsed the following information from Perplexity:\n\nX is trending upward."
	if got := client.comments[1]; got != want {
		t.Errorf("comment = %q, want %q", got, want)
	}
}

type staticResearch string

func (s staticResearch) Collect(context.Context, string) (string, error) {
	return string(s), nil
}

type recordingHistory struct {
	records []models.ForecastRecord
	err     error
}

func (h *recordingHistory) RecordForecast(rec models.ForecastRecord) error {
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, rec)
	return nil
}

type recordingNotifier struct {
	notified []int
	err      error
}

func (n *recordingNotifier) ForecastSubmitted(questionID int, _ string, _ float64) error {
	if n.err != nil {
		return n.err
	}
	n.notified = append(n.notified, questionID)
	return nil
}

func TestHistoryAndNotifierCalledOnSubmission(t *testing.T) {
	cfg := testConfig(t.TempDir())
	client := newFakeClient(makeQuestions(1, 1))
	history := &recordingHistory{}
	notifier := &recordingNotifier{}

	p := New(Options{
		Client:     client,
		Aggregator: aggregate.New(constantProvider("Probability: 40%")),
		Store:      checkpoint.New(cfg.CheckpointFile),
		History:    history,
		Notifier:   notifier,
		Config:     cfg,
	})
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(history.records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history.records))
	}
	rec := history.records[0]
	if rec.QuestionID != 1 || rec.Probability != 40.0 || rec.Runs != 5 {
		t.Errorf("unexpected history record: %+v", rec)
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != 1 {
		t.Errorf("unexpected notifications: %v", notifier.notified)
	}
}

func TestHistoryFailureDoesNotFailQuestion(t *testing.T) {
	cfg := testConfig(t.TempDir())
	client := newFakeClient(makeQuestions(1, 1))

	p := New(Options{
		Client:     client,
		Aggregator: aggregate.New(constantProvider("Probability: 40%")),
		Store:      checkpoint.New(cfg.CheckpointFile),
		History:    &recordingHistory{err: errors.New("db down")},
		Notifier:   &recordingNotifier{err: errors.New("telegram down")},
		Config:     cfg,
	})
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	processed, err := checkpoint.New(cfg.CheckpointFile).Load()
	if err != nil {
		t.Fatalf("loading checkpoint: %v", err)
	}
	if !processed[1] {
		t.Error("question not checkpointed after history/notifier failures")
	}
}
