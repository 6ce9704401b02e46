package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/Alias1177/Forecaster/models"
)

var testQuestion = models.Question{
	ID:                 101,
	Title:              "Will X happen before 2027?",
	Description:        "Background about X.",
	ResolutionCriteria: "Resolves Yes if X is officially confirmed.",
	FinePrint:          "Announcements alone do not count.",
}

func TestBuildEmbedsQuestionFields(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	got := Build(testQuestion, "", now)

	for _, want := range []string{
		testQuestion.Title,
		testQuestion.Description,
		testQuestion.ResolutionCriteria,
		testQuestion.FinePrint,
		"Today is 2026-08-30.",
		"(a) The time left until the outcome to the question is known.",
		"(b) What the outcome would be if nothing changed.",
		"(c) What you would forecast if there was only a quarter of the time left.",
		"(d) What you would forecast if there was 4x the time left.",
		`"Probability: ZZ%"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildResearchBlock(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	without := Build(testQuestion, "", now)
	if strings.Contains(without, "Your research assistant says:") {
		t.Error("research block present without a research summary")
	}

	with := Build(testQuestion, "Recent reporting suggests X is imminent.", now)
	if !strings.Contains(with, "Your research assistant says:\nRecent reporting suggests X is imminent.") {
		t.Error("research block missing or malformed")
	}
}

func TestBuildDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	first := Build(testQuestion, "some research", now)
	second := Build(testQuestion, "some research", now)
	if first != second {
		t.Error("same inputs produced different prompts")
	}
}
