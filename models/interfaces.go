package models

import "context"

// CompletionProvider generates a completion for a prompt against one fixed model
type CompletionProvider interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// ResearchProvider fetches auxiliary research context for a question topic
type ResearchProvider interface {
	Collect(ctx context.Context, topic string) (string, error)
}

// QuestionClient is the platform surface the pipeline depends on
type QuestionClient interface {
	ListQuestions(ctx context.Context, offset int) ([]Question, error)
	PostPrediction(ctx context.Context, questionID int, prediction float64) error
	PostComment(ctx context.Context, questionID int, text string) error
}
