package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Bandi-Aditya/OfflineExam/internal/codec"
	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/scoring"
)

// Attempt protocol errors. Handlers map these onto HTTP statuses.
var (
	ErrNotAssigned      = errors.New("student is not assigned to this session")
	ErrSessionInactive  = errors.New("exam session is not active")
	ErrInvalidToken     = errors.New("session token mismatch")
	ErrAlreadySubmitted = errors.New("exam already submitted")
	ErrResultNotReady   = errors.New("exam not submitted yet")
	ErrExamEmpty        = errors.New("exam has no questions")
)

// SessionStore is the session lookup the attempt protocol needs.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
}

// ExamStore is the exam lookup the attempt protocol needs.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// QuestionStore provides the server-held question list, answer keys
// included.
type QuestionStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
}

// AssignmentStore is the attempt-record access the state machine drives.
// Start and Submit are conditional on (token, non-terminal status) and
// return pgx.ErrNoRows when the condition fails.
type AssignmentStore interface {
	GetBySessionAndStudent(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.Assignment, error)
	IssueToken(ctx context.Context, id uuid.UUID, token string, loginTime time.Time) error
	ResetForRetake(ctx context.Context, id uuid.UUID) error
	Start(ctx context.Context, id uuid.UUID, token string, now time.Time) (time.Time, error)
	Submit(ctx context.Context, id uuid.UUID, token string, score int, autoSubmitted bool, answers []model.Answer, now time.Time) error
	ListAnswers(ctx context.Context, assignmentID uuid.UUID) ([]model.Answer, error)
}

// AttemptService drives the assignment lifecycle: package download (with
// retake archival), start, submit (scoring) and the gated result view.
type AttemptService struct {
	sessions    SessionStore
	exams       ExamStore
	questions   QuestionStore
	assignments AssignmentStore
	tokens      *TokenService
	log         zerolog.Logger
	now         func() time.Time
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	sessions SessionStore,
	exams ExamStore,
	questions QuestionStore,
	assignments AssignmentStore,
	tokens *TokenService,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		sessions:    sessions,
		exams:       exams,
		questions:   questions,
		assignments: assignments,
		tokens:      tokens,
		log:         log.With().Str("component", "attempt_service").Logger(),
		now:         time.Now,
	}
}

// Download issues the encrypted offline package for one assignment. Side
// effects, in order: if the current attempt is submitted, archive it and
// reset to pending; mint a fresh session token (invalidating any previous
// one); record login time. The package carries exam metadata, sanitized
// questions and the new token — never the answer keys. The AES key is
// generated per download and returned alongside the ciphertext.
func (s *AttemptService) Download(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.DownloadResponse, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	assignment, err := s.assignments.GetBySessionAndStudent(ctx, sessionID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotAssigned
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}

	if !session.IsActive {
		return nil, ErrSessionInactive
	}

	// Fetch the exam content before any mutation: a download that cannot
	// produce a package must leave the attempt and its token untouched.
	exam, err := s.exams.GetByID(ctx, session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	questions, err := s.questions.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrExamEmpty
	}

	// Re-download after submission archives the finished attempt and
	// reopens the record (a retake).
	if assignment.Status == model.AssignmentStatusSubmitted {
		// ErrNoRows means a concurrent retake beat us to the reset;
		// either way the record is pending now.
		err := s.assignments.ResetForRetake(ctx, assignment.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("reset for retake: %w", err)
		}
		s.log.Info().
			Str("assignment_id", assignment.ID.String()).
			Int("student_id", studentID).
			Msg("Archived attempt for retake")
	}

	token, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}
	if err := s.assignments.IssueToken(ctx, assignment.ID, token, s.now()); err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	sanitized := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		sanitized[i] = q.Sanitize()
	}

	pkg := model.ExamPackage{
		AssignmentID: assignment.ID,
		SessionToken: token,
		Exam: model.PackageExam{
			ID:              exam.ID,
			Title:           exam.Title,
			Description:     exam.Description,
			DurationMinutes: exam.DurationMinutes,
			TotalMarks:      exam.TotalMarks,
		},
		Questions: sanitized,
	}

	key, err := codec.GenerateKey()
	if err != nil {
		return nil, err
	}
	sealed, err := codec.Encode(pkg, key)
	if err != nil {
		return nil, fmt.Errorf("encode package: %w", err)
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("student_id", studentID).
		Msg("Package issued")

	return &model.DownloadResponse{
		EncryptedExam: sealed,
		PackageKey:    codec.EncodeKey(key),
		SessionID:     sessionID,
	}, nil
}

// Start flips the attempt to in_progress, provided the presented token is
// the assignment's current one and the attempt is not terminal.
func (s *AttemptService) Start(ctx context.Context, sessionID uuid.UUID, studentID int, token string) (uuid.UUID, time.Time, error) {
	assignment, err := s.assignments.GetBySessionAndStudent(ctx, sessionID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, time.Time{}, ErrNotAssigned
	}
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("get assignment: %w", err)
	}

	if assignment.Status == model.AssignmentStatusSubmitted {
		return uuid.Nil, time.Time{}, ErrAlreadySubmitted
	}
	if !s.tokens.Validate(assignment.SessionToken, token) {
		return uuid.Nil, time.Time{}, ErrInvalidToken
	}

	startTime, err := s.assignments.Start(ctx, assignment.ID, token, s.now())
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost a race between our read and the conditional update.
		return uuid.Nil, time.Time{}, s.classifyConflict(ctx, sessionID, studentID)
	}
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("start attempt: %w", err)
	}

	return assignment.ID, startTime, nil
}

// Submit grades the submitted answers against the server-held keys and
// records the result. The status flip, score and answers land in one
// conditional transaction: the first submit with the current token wins,
// every other one fails without touching the score.
func (s *AttemptService) Submit(ctx context.Context, sessionID uuid.UUID, studentID int, req model.SubmitExamRequest) (*model.SubmitResponse, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	assignment, err := s.assignments.GetBySessionAndStudent(ctx, sessionID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotAssigned
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}

	if assignment.Status == model.AssignmentStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}
	if !s.tokens.Validate(assignment.SessionToken, req.SessionToken) {
		return nil, ErrInvalidToken
	}

	questions, err := s.questions.ListByExam(ctx, session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	now := s.now()
	graded := scoring.Grade(questions, req.Answers, now)

	err = s.assignments.Submit(ctx, assignment.ID, req.SessionToken, graded.TotalScore, req.AutoSubmitted, graded.Answers, now)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classifyConflict(ctx, sessionID, studentID)
	}
	if err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}

	s.log.Info().
		Str("assignment_id", assignment.ID.String()).
		Int("student_id", studentID).
		Int("score", graded.TotalScore).
		Bool("auto_submitted", req.AutoSubmitted).
		Msg("Exam submitted")

	return &model.SubmitResponse{Score: graded.TotalScore, AutoSubmitted: req.AutoSubmitted}, nil
}

// Result builds the student's view of a submitted attempt. Per-question
// correctness and the answer keys are withheld until the session's end
// time has passed.
func (s *AttemptService) Result(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.ResultResponse, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	assignment, err := s.assignments.GetBySessionAndStudent(ctx, sessionID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotAssigned
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if assignment.Status != model.AssignmentStatusSubmitted {
		return nil, ErrResultNotReady
	}

	exam, err := s.exams.GetByID(ctx, session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	resultStatus := "Fail"
	if assignment.Score >= exam.PassingMarks {
		resultStatus = "Pass"
	}

	res := &model.ResultResponse{
		Score:         assignment.Score,
		TotalMarks:    exam.TotalMarks,
		PassingMarks:  exam.PassingMarks,
		Result:        resultStatus,
		ExamTitle:     exam.Title,
		AutoSubmitted: assignment.AutoSubmitted,
		ExamHasEnded:  session.HasEnded(s.now()),
	}
	if assignment.SubmitTime != nil {
		res.SubmitTime = assignment.SubmitTime.UTC().Format(time.RFC3339)
	}

	// Answer-key gate: detail only after the scheduled window is over.
	if !res.ExamHasEnded {
		return res, nil
	}

	questions, err := s.questions.ListByExam(ctx, session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byID := make(map[uuid.UUID]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answers, err := s.assignments.ListAnswers(ctx, assignment.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	details := make([]model.AnswerDetail, 0, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		details = append(details, model.AnswerDetail{
			QuestionText:  q.QuestionText,
			QuestionType:  q.QuestionType,
			Options:       q.Options,
			YourAnswer:    a.AnswerText,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     a.IsCorrect,
			MarksAwarded:  a.MarksAwarded,
			TotalMarks:    q.Marks,
		})
	}
	res.Answers = details

	return res, nil
}

// classifyConflict decides which deterministic error a losing racer gets:
// the attempt was either just submitted or its token was just rotated by a
// newer download.
func (s *AttemptService) classifyConflict(ctx context.Context, sessionID uuid.UUID, studentID int) error {
	current, err := s.assignments.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return ErrInvalidToken
	}
	if current.Status == model.AssignmentStatusSubmitted {
		return ErrAlreadySubmitted
	}
	return ErrInvalidToken
}
