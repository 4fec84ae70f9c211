package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus enumerates the states of a student's attempt record.
// Transitions only advance pending → in_progress → submitted, except a
// retake download which archives the attempt and resets to pending.
type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusSubmitted  AssignmentStatus = "submitted"
)

// Assignment binds one student to one exam session and tracks their single
// current attempt. SessionToken is the opaque per-download credential; it is
// overwritten on every package issue, which invalidates the previous one.
type Assignment struct {
	ID            uuid.UUID        `json:"id"`
	SessionID     uuid.UUID        `json:"session_id"`
	StudentID     int              `json:"student_id"`
	Status        AssignmentStatus `json:"status"`
	LoginTime     *time.Time       `json:"login_time,omitempty"`
	StartTime     *time.Time       `json:"start_time,omitempty"`
	SubmitTime    *time.Time       `json:"submit_time,omitempty"`
	Score         int              `json:"score"`
	AutoSubmitted bool             `json:"auto_submitted"`
	SessionToken  *string          `json:"-"`
}

// Answer is one recorded response. IsCorrect is nil for descriptive
// questions, which are stored but never auto-graded.
type Answer struct {
	ID           uuid.UUID `json:"id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	AnswerText   string    `json:"answer_text"`
	IsCorrect    *bool     `json:"is_correct"`
	MarksAwarded int       `json:"marks_awarded"`
	AnsweredAt   time.Time `json:"answered_at"`
}

// PreviousAttempt is an immutable snapshot of a finished attempt, captured
// at the moment a retake download resets the assignment. Answers are folded
// in as raw JSON since the snapshot is never queried field-by-field.
type PreviousAttempt struct {
	ID            uuid.UUID        `json:"id"`
	AssignmentID  uuid.UUID        `json:"assignment_id"`
	Status        AssignmentStatus `json:"status"`
	LoginTime     *time.Time       `json:"login_time,omitempty"`
	StartTime     *time.Time       `json:"start_time,omitempty"`
	SubmitTime    *time.Time       `json:"submit_time,omitempty"`
	Score         int              `json:"score"`
	AutoSubmitted bool             `json:"auto_submitted"`
	Answers       json.RawMessage  `json:"answers"`
	ArchivedAt    time.Time        `json:"archived_at"`
}

// StartExamRequest carries the session token minted at download.
type StartExamRequest struct {
	SessionToken string `json:"session_token" binding:"required,len=64"`
}

// SubmittedAnswer is one answer as sent by the client at submit.
type SubmittedAnswer struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	AnswerText string    `json:"answer_text"`
}

// SubmitExamRequest is the submit payload. AutoSubmitted marks submissions
// triggered by timer expiry or the proctoring violation threshold.
type SubmitExamRequest struct {
	SessionToken  string            `json:"session_token" binding:"required,len=64"`
	Answers       []SubmittedAnswer `json:"answers" binding:"dive"`
	AutoSubmitted bool              `json:"auto_submitted"`
}
