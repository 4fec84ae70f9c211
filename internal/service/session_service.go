package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/repository"
)

// ErrNoStudents is returned when a session would be created with nobody
// assigned to it.
var ErrNoStudents = errors.New("no students to assign")

// ErrBadSchedule is returned when a session window is not a valid interval.
var ErrBadSchedule = errors.New("end time must be after start time")

// ErrNotInProgress is returned when a force-stop targets an attempt that is
// not currently running.
var ErrNotInProgress = errors.New("attempt is not in progress")

// SessionResult is one student's row in the admin results view.
type SessionResult struct {
	repository.AssignmentOverview
	Result string `json:"result"`
}

// SessionService schedules exam sessions and serves the admin views over
// their assignments.
type SessionService struct {
	sessions    *repository.ExamSessionRepository
	exams       *repository.ExamRepository
	students    *repository.StudentRepository
	assignments *repository.AssignmentRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessions *repository.ExamSessionRepository,
	exams *repository.ExamRepository,
	students *repository.StudentRepository,
	assignments *repository.AssignmentRepository,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		exams:       exams,
		students:    students,
		assignments: assignments,
		log:         log.With().Str("component", "session_service").Logger(),
		now:         time.Now,
	}
}

func (s *SessionService) List(ctx context.Context) ([]model.SessionSummary, error) {
	return s.sessions.List(ctx)
}

func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return s.sessions.GetByID(ctx, id)
}

// Create schedules a session and assigns students in one transaction. An
// empty StudentIDs list means every registered student.
func (s *SessionService) Create(ctx context.Context, req model.CreateSessionRequest) (*model.ExamSession, error) {
	if _, err := s.exams.GetByID(ctx, req.ExamID); err != nil {
		return nil, err
	}

	studentIDs := req.StudentIDs
	if len(studentIDs) == 0 {
		var err error
		studentIDs, err = s.students.ListIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list students: %w", err)
		}
	}
	if len(studentIDs) == 0 {
		return nil, ErrNoStudents
	}

	mode := model.SessionMode(req.Mode)
	if mode == "" {
		mode = model.SessionModeOffline
	}

	session := &model.ExamSession{
		ExamID:    req.ExamID,
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Mode:      mode,
		IsActive:  true,
	}
	if err := s.sessions.CreateWithAssignments(ctx, session, studentIDs); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("exam_id", req.ExamID.String()).
		Int("students", len(studentIDs)).
		Msg("Session scheduled")
	return session, nil
}

func (s *SessionService) Update(ctx context.Context, id uuid.UUID, req model.UpdateSessionRequest) (*model.ExamSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		session.Name = req.Name
	}
	if req.StartTime != nil {
		session.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		session.EndTime = *req.EndTime
	}
	if req.Mode != "" {
		session.Mode = model.SessionMode(req.Mode)
	}
	if !session.EndTime.After(session.StartTime) {
		return nil, ErrBadSchedule
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetActive toggles whether the session hands out packages. Running
// attempts are untouched; only new downloads are gated.
func (s *SessionService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.sessions.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.log.Info().Str("session_id", id.String()).Bool("is_active", active).Msg("Session toggled")
	return nil
}

func (s *SessionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("session_id", id.String()).Msg("Session deleted")
	return nil
}

// Results lists every assignment of the session with a pass/fail verdict
// for submitted ones.
func (s *SessionService) Results(ctx context.Context, id uuid.UUID) ([]SessionResult, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	overviews, err := s.assignments.ListBySession(ctx, id)
	if err != nil {
		return nil, err
	}

	results := make([]SessionResult, len(overviews))
	for i, o := range overviews {
		r := SessionResult{AssignmentOverview: o}
		if o.Status == model.AssignmentStatusSubmitted {
			if o.Score >= exam.PassingMarks {
				r.Result = "Pass"
			} else {
				r.Result = "Fail"
			}
		}
		results[i] = r
	}
	return results, nil
}

// StopAttempt force-submits one student's in-progress attempt. Whatever
// answers reached the server by then stand.
func (s *SessionService) StopAttempt(ctx context.Context, sessionID uuid.UUID, studentID int) error {
	err := s.assignments.ForceSubmit(ctx, sessionID, studentID, s.now())
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotInProgress
	}
	if err != nil {
		return err
	}
	s.log.Warn().
		Str("session_id", sessionID.String()).
		Int("student_id", studentID).
		Msg("Attempt force-stopped")
	return nil
}
