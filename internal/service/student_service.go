package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/repository"
)

// StudentHistory is one session's history entry: the current attempt plus
// archived earlier ones.
type StudentHistory struct {
	repository.StudentHistoryRow
	PreviousAttempts []model.PreviousAttempt `json:"previous_attempts"`
}

// StudentService manages student accounts and the admin history view.
type StudentService struct {
	students    *repository.StudentRepository
	assignments *repository.AssignmentRepository
	auth        *AuthService
	log         zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(
	students *repository.StudentRepository,
	assignments *repository.AssignmentRepository,
	auth *AuthService,
	log zerolog.Logger,
) *StudentService {
	return &StudentService{
		students:    students,
		assignments: assignments,
		auth:        auth,
		log:         log.With().Str("component", "student_service").Logger(),
	}
}

func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	return s.students.List(ctx)
}

func (s *StudentService) Get(ctx context.Context, id int) (*model.Student, error) {
	return s.students.GetByID(ctx, id)
}

func (s *StudentService) Create(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		StudentCode:  req.StudentCode,
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		PasswordHash: hash,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}
	s.log.Info().Int("student_id", student.ID).Str("student_code", student.StudentCode).Msg("Student registered")
	return student, nil
}

func (s *StudentService) Update(ctx context.Context, id int, req model.UpdateStudentRequest) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StudentCode != "" {
		student.StudentCode = req.StudentCode
	}
	if req.Name != "" {
		student.Name = req.Name
	}
	if req.Email != "" {
		student.Email = req.Email
	}
	if req.MobileNumber != nil {
		student.MobileNumber = *req.MobileNumber
	}
	if req.Password != "" {
		hash, err := s.auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		student.PasswordHash = hash
	}

	if err := s.students.Update(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *StudentService) Delete(ctx context.Context, id int) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int("student_id", id).Msg("Student deleted")
	return nil
}

// History assembles the student's session history together with every
// archived attempt snapshot.
func (s *StudentService) History(ctx context.Context, studentID int) ([]StudentHistory, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return nil, err
	}

	rows, err := s.assignments.ListHistory(ctx, studentID)
	if err != nil {
		return nil, err
	}

	history := make([]StudentHistory, len(rows))
	for i, row := range rows {
		attempts, err := s.assignments.ListPreviousAttempts(ctx, row.AssignmentID)
		if err != nil {
			return nil, fmt.Errorf("list archived attempts: %w", err)
		}
		history[i] = StudentHistory{StudentHistoryRow: row, PreviousAttempts: attempts}
	}
	return history, nil
}
