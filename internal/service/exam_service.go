package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/repository"
)

// ErrExamLocked is returned for content mutations while an active session
// references the exam. Packages already downloaded must stay consistent
// with the server's answer keys.
var ErrExamLocked = errors.New("exam is referenced by an active session")

// ExamService manages exam content and its question list.
type ExamService struct {
	exams     *repository.ExamRepository
	questions *repository.QuestionRepository
	sessions  *repository.ExamSessionRepository
	log       zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	exams *repository.ExamRepository,
	questions *repository.QuestionRepository,
	sessions *repository.ExamSessionRepository,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		exams:     exams,
		questions: questions,
		sessions:  sessions,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

func (s *ExamService) List(ctx context.Context) ([]model.Exam, error) {
	return s.exams.List(ctx)
}

// Get returns the exam with its full question list, answer keys included.
// Admin use only.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, []model.Question, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.questions.ListByExam(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	return exam, questions, nil
}

func (s *ExamService) Create(ctx context.Context, adminID int, req model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
		PassingMarks:    req.PassingMarks,
		CreatedBy:       adminID,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, err
	}
	s.log.Info().Str("exam_id", exam.ID.String()).Str("title", exam.Title).Msg("Exam created")
	return exam, nil
}

func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req model.UpdateExamRequest) (*model.Exam, error) {
	if err := s.ensureUnlocked(ctx, id); err != nil {
		return nil, err
	}

	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.DurationMinutes > 0 {
		exam.DurationMinutes = req.DurationMinutes
	}
	if req.TotalMarks > 0 {
		exam.TotalMarks = req.TotalMarks
	}
	if req.PassingMarks != nil {
		exam.PassingMarks = *req.PassingMarks
	}

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.ensureUnlocked(ctx, id); err != nil {
		return err
	}
	if err := s.exams.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("exam_id", id.String()).Msg("Exam deleted")
	return nil
}

// AddQuestion appends a question to the exam. MCQ questions must carry
// options and the key must be one of them.
func (s *ExamService) AddQuestion(ctx context.Context, examID uuid.UUID, req model.AddQuestionRequest) (*model.Question, error) {
	if err := s.ensureUnlocked(ctx, examID); err != nil {
		return nil, err
	}
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}

	q := &model.Question{
		ExamID:        examID,
		QuestionText:  req.QuestionText,
		QuestionType:  model.QuestionType(req.QuestionType),
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Marks:         req.Marks,
		OrderIndex:    req.OrderIndex,
	}
	if err := validateQuestion(q); err != nil {
		return nil, err
	}
	if err := s.questions.Add(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *ExamService) UpdateQuestion(ctx context.Context, examID, questionID uuid.UUID, req model.UpdateQuestionRequest) (*model.Question, error) {
	if err := s.ensureUnlocked(ctx, examID); err != nil {
		return nil, err
	}

	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.ExamID != examID {
		return nil, ErrQuestionMismatch
	}

	if req.QuestionText != "" {
		q.QuestionText = req.QuestionText
	}
	if req.QuestionType != "" {
		q.QuestionType = model.QuestionType(req.QuestionType)
	}
	if req.Options != nil {
		q.Options = *req.Options
	}
	if req.CorrectAnswer != nil {
		q.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Marks > 0 {
		q.Marks = req.Marks
	}
	if req.OrderIndex != nil {
		q.OrderIndex = *req.OrderIndex
	}

	if err := validateQuestion(q); err != nil {
		return nil, err
	}
	if err := s.questions.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *ExamService) DeleteQuestion(ctx context.Context, examID, questionID uuid.UUID) error {
	if err := s.ensureUnlocked(ctx, examID); err != nil {
		return err
	}
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	if q.ExamID != examID {
		return ErrQuestionMismatch
	}
	return s.questions.Delete(ctx, questionID)
}

// ErrQuestionMismatch is returned when a question does not belong to the
// addressed exam.
var ErrQuestionMismatch = errors.New("question does not belong to this exam")

// ErrBadQuestion is returned for structurally invalid question content.
var ErrBadQuestion = errors.New("invalid question content")

func validateQuestion(q *model.Question) error {
	if q.QuestionType != model.QuestionTypeMCQ {
		return nil
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: mcq needs at least two options", ErrBadQuestion)
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return nil
		}
	}
	return fmt.Errorf("%w: correct answer must be one of the options", ErrBadQuestion)
}

func (s *ExamService) ensureUnlocked(ctx context.Context, examID uuid.UUID) error {
	locked, err := s.sessions.ExamHasActiveSession(ctx, examID)
	if err != nil {
		return fmt.Errorf("check active sessions: %w", err)
	}
	if locked {
		return ErrExamLocked
	}
	return nil
}
