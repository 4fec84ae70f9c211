package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/repository"
)

// LiveState is the presence label derived from an assignment's status.
type LiveState string

const (
	LiveStateOffline   LiveState = "offline"
	LiveStateOnline    LiveState = "online"
	LiveStateCompleted LiveState = "completed"
)

// LiveStudent is one student's row in the live status view.
type LiveStudent struct {
	StudentID     int        `json:"student_id"`
	StudentCode   string     `json:"student_code"`
	Name          string     `json:"name"`
	State         LiveState  `json:"state"`
	AnsweredCount int        `json:"answered_count"`
	TotalCount    int        `json:"total_count"`
	Score         int        `json:"score"`
	AutoSubmitted bool       `json:"auto_submitted"`
	LoginTime     *time.Time `json:"login_time,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	SubmitTime    *time.Time `json:"submit_time,omitempty"`
	LastActivity  *time.Time `json:"last_activity,omitempty"`
}

// LiveStatus is the aggregated snapshot the proctor dashboard polls.
type LiveStatus struct {
	SessionID uuid.UUID     `json:"session_id"`
	Name      string        `json:"name"`
	IsActive  bool          `json:"is_active"`
	EndTime   time.Time     `json:"end_time"`
	Online    int           `json:"online"`
	Completed int           `json:"completed"`
	Offline   int           `json:"offline"`
	Students  []LiveStudent `json:"students"`
	PolledAt  time.Time     `json:"polled_at"`
}

// MonitorAssignmentStore is the projection the live view reads. Satisfied
// by the assignment repository.
type MonitorAssignmentStore interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]repository.AssignmentOverview, error)
}

// MonitorQuestionCounter supplies the denominator for answered-question
// progress.
type MonitorQuestionCounter interface {
	CountByExam(ctx context.Context, examID uuid.UUID) (int, error)
}

// MonitorService builds the polled live status snapshot. Presence derives
// purely from persisted attempt state: in_progress means online, submitted
// means completed, everything else counts as offline. There is no push
// channel; the dashboard polls this on an interval.
type MonitorService struct {
	sessions    SessionStore
	assignments MonitorAssignmentStore
	questions   MonitorQuestionCounter
	log         zerolog.Logger
	now         func() time.Time
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(
	sessions SessionStore,
	assignments MonitorAssignmentStore,
	questions MonitorQuestionCounter,
	log zerolog.Logger,
) *MonitorService {
	return &MonitorService{
		sessions:    sessions,
		assignments: assignments,
		questions:   questions,
		log:         log.With().Str("component", "monitor_service").Logger(),
		now:         time.Now,
	}
}

// Snapshot aggregates the session's assignments into the live view.
func (s *MonitorService) Snapshot(ctx context.Context, sessionID uuid.UUID) (*LiveStatus, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	total, err := s.questions.CountByExam(ctx, session.ExamID)
	if err != nil {
		return nil, err
	}
	rows, err := s.assignments.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	status := &LiveStatus{
		SessionID: session.ID,
		Name:      session.Name,
		IsActive:  session.IsActive,
		EndTime:   session.EndTime,
		Students:  make([]LiveStudent, len(rows)),
		PolledAt:  s.now(),
	}

	for i, row := range rows {
		state := stateOf(row.Status)
		switch state {
		case LiveStateOnline:
			status.Online++
		case LiveStateCompleted:
			status.Completed++
		default:
			status.Offline++
		}

		status.Students[i] = LiveStudent{
			StudentID:     row.StudentID,
			StudentCode:   row.StudentCode,
			Name:          row.StudentName,
			State:         state,
			AnsweredCount: row.AnsweredCount,
			TotalCount:    total,
			Score:         row.Score,
			AutoSubmitted: row.AutoSubmitted,
			LoginTime:     row.LoginTime,
			StartTime:     row.StartTime,
			SubmitTime:    row.SubmitTime,
			LastActivity:  lastActivity(row),
		}
	}
	return status, nil
}

func stateOf(status model.AssignmentStatus) LiveState {
	switch status {
	case model.AssignmentStatusInProgress:
		return LiveStateOnline
	case model.AssignmentStatusSubmitted:
		return LiveStateCompleted
	default:
		return LiveStateOffline
	}
}

// lastActivity picks the most recent timestamp the server has seen for the
// student: an answer write, a submit, a start or the package download.
func lastActivity(row repository.AssignmentOverview) *time.Time {
	latest := row.LastAnswerAt
	for _, t := range []*time.Time{row.SubmitTime, row.StartTime, row.LoginTime} {
		if t != nil && (latest == nil || t.After(*latest)) {
			latest = t
		}
	}
	return latest
}
