package model

import "github.com/google/uuid"

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "mcq"
	QuestionTypeDescriptive QuestionType = "descriptive"
)

// Question is a single exam question. CorrectAnswer is server-held and is
// never included in the package sent to students.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	ExamID        uuid.UUID    `json:"exam_id"`
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Marks         int          `json:"marks"`
	OrderIndex    int          `json:"order_index"`
}

// QuestionForStudent is the sanitized view of a question delivered inside
// the offline package: no correct answer, ever.
type QuestionForStudent struct {
	ID           uuid.UUID    `json:"id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	Options      []string     `json:"options"`
	Marks        int          `json:"marks"`
	OrderIndex   int          `json:"order_index"`
}

// Sanitize strips the answer key from a question.
func (q Question) Sanitize() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Options:      q.Options,
		Marks:        q.Marks,
		OrderIndex:   q.OrderIndex,
	}
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	QuestionText  string   `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionType  string   `json:"question_type" binding:"required,oneof=mcq descriptive"`
	Options       []string `json:"options" binding:"omitempty,max=8,dive,max=500"`
	CorrectAnswer string   `json:"correct_answer" binding:"omitempty,max=500"`
	Marks         int      `json:"marks" binding:"required,min=1"`
	OrderIndex    int      `json:"order_index" binding:"min=0"`
}

// UpdateQuestionRequest is the payload for updating an existing question.
type UpdateQuestionRequest struct {
	QuestionText  string    `json:"question_text" binding:"omitempty,min=1,max=2000"`
	QuestionType  string    `json:"question_type" binding:"omitempty,oneof=mcq descriptive"`
	Options       *[]string `json:"options" binding:"omitempty,max=8,dive,max=500"`
	CorrectAnswer *string   `json:"correct_answer" binding:"omitempty,max=500"`
	Marks         int       `json:"marks" binding:"omitempty,min=1"`
	OrderIndex    *int      `json:"order_index" binding:"omitempty,min=0"`
}
