package scoring_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/scoring"
)

func mcq(text, correct string, marks int) model.Question {
	return model.Question{
		ID:            uuid.New(),
		QuestionText:  text,
		QuestionType:  model.QuestionTypeMCQ,
		Options:       []string{"Paris", "London", "Berlin", "Madrid"},
		CorrectAnswer: correct,
		Marks:         marks,
	}
}

func TestTwoCorrectMCQsScoreFullMarks(t *testing.T) {
	q1 := mcq("Capital of France?", "Paris", 10)
	q2 := mcq("Capital of Germany?", "Berlin", 10)

	res := scoring.Grade(
		[]model.Question{q1, q2},
		[]model.SubmittedAnswer{
			{QuestionID: q1.ID, AnswerText: "Paris"},
			{QuestionID: q2.ID, AnswerText: "Berlin"},
		},
		time.Now(),
	)

	assert.Equal(t, 20, res.TotalScore)
	require.Len(t, res.Answers, 2)
	for _, a := range res.Answers {
		require.NotNil(t, a.IsCorrect)
		assert.True(t, *a.IsCorrect)
	}
}

func TestMCQMatchIsCaseAndWhitespaceInsensitive(t *testing.T) {
	q := mcq("Capital of France?", "Paris", 10)

	res := scoring.Grade(
		[]model.Question{q},
		[]model.SubmittedAnswer{{QuestionID: q.ID, AnswerText: "  paris "}},
		time.Now(),
	)

	assert.Equal(t, 10, res.TotalScore)
	require.Len(t, res.Answers, 1)
	assert.Equal(t, 10, res.Answers[0].MarksAwarded)
}

func TestWrongMCQAnswerScoresZero(t *testing.T) {
	q := mcq("Capital of France?", "Paris", 10)

	res := scoring.Grade(
		[]model.Question{q},
		[]model.SubmittedAnswer{{QuestionID: q.ID, AnswerText: "London"}},
		time.Now(),
	)

	assert.Equal(t, 0, res.TotalScore)
	require.Len(t, res.Answers, 1)
	require.NotNil(t, res.Answers[0].IsCorrect)
	assert.False(t, *res.Answers[0].IsCorrect)
}

func TestDescriptiveAnswersAreRecordedUnscored(t *testing.T) {
	q := model.Question{
		ID:           uuid.New(),
		QuestionText: "Explain TCP slow start.",
		QuestionType: model.QuestionTypeDescriptive,
		Marks:        15,
	}

	res := scoring.Grade(
		[]model.Question{q},
		[]model.SubmittedAnswer{{QuestionID: q.ID, AnswerText: "It ramps the congestion window."}},
		time.Now(),
	)

	assert.Equal(t, 0, res.TotalScore)
	require.Len(t, res.Answers, 1)
	assert.Nil(t, res.Answers[0].IsCorrect)
	assert.Equal(t, 0, res.Answers[0].MarksAwarded)
	assert.NotEmpty(t, res.Answers[0].AnswerText)
}

func TestUnansweredAndUnknownQuestionsContributeNothing(t *testing.T) {
	q1 := mcq("Q1", "A", 5)
	q2 := mcq("Q2", "B", 5)

	res := scoring.Grade(
		[]model.Question{q1, q2},
		[]model.SubmittedAnswer{
			{QuestionID: q1.ID, AnswerText: "A"},
			{QuestionID: uuid.New(), AnswerText: "B"}, // not part of the exam
		},
		time.Now(),
	)

	assert.Equal(t, 5, res.TotalScore)
	assert.Len(t, res.Answers, 1, "unknown question IDs are dropped")
}

func TestDuplicateAnswersScoreOnceLastWins(t *testing.T) {
	q := mcq("Capital of France?", "Paris", 10)

	res := scoring.Grade(
		[]model.Question{q},
		[]model.SubmittedAnswer{
			{QuestionID: q.ID, AnswerText: "London"},
			{QuestionID: q.ID, AnswerText: "Paris"},
		},
		time.Now(),
	)

	assert.Equal(t, 10, res.TotalScore)
	require.Len(t, res.Answers, 1, "one persisted row per question")
	assert.Equal(t, "Paris", res.Answers[0].AnswerText)

	// Reversed order: the later wrong answer is the one that counts.
	res = scoring.Grade(
		[]model.Question{q},
		[]model.SubmittedAnswer{
			{QuestionID: q.ID, AnswerText: "Paris"},
			{QuestionID: q.ID, AnswerText: "London"},
		},
		time.Now(),
	)

	assert.Equal(t, 0, res.TotalScore)
	require.Len(t, res.Answers, 1)
	assert.Equal(t, "London", res.Answers[0].AnswerText)
}

func TestEmptySubmissionScoresZero(t *testing.T) {
	q := mcq("Q1", "A", 5)

	res := scoring.Grade([]model.Question{q}, nil, time.Now())

	assert.Equal(t, 0, res.TotalScore)
	assert.Empty(t, res.Answers)
}
