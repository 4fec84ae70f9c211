// Package scoring implements the deterministic grading step invoked exactly
// once at submit time. It is a pure function of the exam's questions and
// the submitted answers.
package scoring

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
)

// Result is the outcome of grading one submission.
type Result struct {
	TotalScore int
	Answers    []model.Answer
}

// Grade scores submitted answers against the server-held question list.
// MCQ answers match on case-insensitive, whitespace-trimmed equality.
// Descriptive answers are recorded but unscored: zero marks, nil
// correctness. Answers referencing unknown question IDs are dropped, and
// unanswered questions contribute nothing. A question answered more than
// once in the same payload scores exactly once, on its final answer, so
// persistence never sees two rows for one question.
func Grade(questions []model.Question, submitted []model.SubmittedAnswer, now time.Time) Result {
	byID := make(map[uuid.UUID]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	lastIdx := make(map[uuid.UUID]int, len(submitted))
	for i, ans := range submitted {
		lastIdx[ans.QuestionID] = i
	}

	res := Result{Answers: make([]model.Answer, 0, len(submitted))}

	for i, ans := range submitted {
		if lastIdx[ans.QuestionID] != i {
			continue
		}
		q, ok := byID[ans.QuestionID]
		if !ok {
			continue
		}

		var isCorrect *bool
		awarded := 0

		if q.QuestionType == model.QuestionTypeMCQ {
			match := equalFold(ans.AnswerText, q.CorrectAnswer)
			isCorrect = &match
			if match {
				awarded = q.Marks
			}
		}

		res.TotalScore += awarded
		res.Answers = append(res.Answers, model.Answer{
			QuestionID:   q.ID,
			AnswerText:   ans.AnswerText,
			IsCorrect:    isCorrect,
			MarksAwarded: awarded,
			AnsweredAt:   now,
		})
	}

	return res
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
