package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is the authored exam content: metadata plus an ordered question list.
// Once an active session references an exam, its questions are treated as
// immutable (question edits are refused while a session is active).
type Exam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalMarks      int       `json:"total_marks"`
	PassingMarks    int       `json:"passing_marks"`
	CreatedBy       int       `json:"created_by"`
	QuestionCount   int       `json:"question_count,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
	TotalMarks      int    `json:"total_marks" binding:"required,min=1"`
	PassingMarks    int    `json:"passing_marks" binding:"required,min=0"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	Description     *string `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	TotalMarks      int    `json:"total_marks" binding:"omitempty,min=1"`
	PassingMarks    *int   `json:"passing_marks" binding:"omitempty,min=0"`
}
