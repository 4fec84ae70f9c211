package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionMode distinguishes proctored online sessions from offline ones
// where the client works from its local package cache.
type SessionMode string

const (
	SessionModeOnline  SessionMode = "online"
	SessionModeOffline SessionMode = "offline"
)

// ExamSession schedules one exam for a window of time and binds a group of
// students to it through assignments.
type ExamSession struct {
	ID        uuid.UUID   `json:"id"`
	ExamID    uuid.UUID   `json:"exam_id"`
	Name      string      `json:"name"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	Mode      SessionMode `json:"mode"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// HasEnded reports whether the session's scheduled window is over. The
// answer-key gate on the result endpoint hangs off this.
func (s *ExamSession) HasEnded(now time.Time) bool {
	return now.After(s.EndTime)
}

// CreateSessionRequest is the payload for scheduling an exam session.
// If StudentIDs is empty, every registered student is assigned.
type CreateSessionRequest struct {
	ExamID     uuid.UUID `json:"exam_id" binding:"required"`
	Name       string    `json:"name" binding:"required,min=3,max=255"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	Mode       string    `json:"mode" binding:"omitempty,oneof=online offline"`
	StudentIDs []int     `json:"student_ids" binding:"omitempty"`
}

// UpdateSessionRequest is the payload for rescheduling a session.
type UpdateSessionRequest struct {
	Name      string     `json:"name" binding:"omitempty,min=3,max=255"`
	StartTime *time.Time `json:"start_time" binding:"omitempty"`
	EndTime   *time.Time `json:"end_time" binding:"omitempty"`
	Mode      string     `json:"mode" binding:"omitempty,oneof=online offline"`
}

// ToggleSessionRequest activates or deactivates a session.
type ToggleSessionRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SessionSummary is the admin list view of a session with assignment counts.
type SessionSummary struct {
	ExamSession
	ExamTitle      string `json:"exam_title"`
	TotalStudents  int    `json:"total_students"`
	SubmittedCount int    `json:"submitted_count"`
}
