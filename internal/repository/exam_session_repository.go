package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
)

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

// GetByID retrieves a session by its UUID.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, name, start_time, end_time, mode, is_active, created_at
		 FROM exam_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.ExamID, &s.Name, &s.StartTime, &s.EndTime, &s.Mode, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateWithAssignments inserts a session and bulk-creates one pending
// assignment per student in a single transaction, so a session never exists
// half-assigned.
func (r *ExamSessionRepository) CreateWithAssignments(ctx context.Context, s *model.ExamSession, studentIDs []int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO exam_sessions (exam_id, name, start_time, end_time, mode, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		s.ExamID, s.Name, s.StartTime, s.EndTime, s.Mode, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if len(studentIDs) > 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO assignments (session_id, student_id, status)
			 SELECT $1, sid, 'pending' FROM UNNEST($2::int[]) AS sid
			 ON CONFLICT (session_id, student_id) DO NOTHING`,
			s.ID, studentIDs)
		if err != nil {
			return fmt.Errorf("insert assignments: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// List retrieves all sessions with exam titles and assignment counts,
// newest first.
func (r *ExamSessionRepository) List(ctx context.Context) ([]model.SessionSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.exam_id, s.name, s.start_time, s.end_time, s.mode, s.is_active, s.created_at,
		        e.title,
		        (SELECT COUNT(*) FROM assignments a WHERE a.session_id = s.id),
		        (SELECT COUNT(*) FROM assignments a WHERE a.session_id = s.id AND a.status = 'submitted')
		 FROM exam_sessions s
		 JOIN exams e ON e.id = s.exam_id
		 ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.SessionSummary
	for rows.Next() {
		var s model.SessionSummary
		if err := rows.Scan(&s.ID, &s.ExamID, &s.Name, &s.StartTime, &s.EndTime,
			&s.Mode, &s.IsActive, &s.CreatedAt,
			&s.ExamTitle, &s.TotalStudents, &s.SubmittedCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Update reschedules a session.
func (r *ExamSessionRepository) Update(ctx context.Context, s *model.ExamSession) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET name = $1, start_time = $2, end_time = $3, mode = $4
		 WHERE id = $5`,
		s.Name, s.StartTime, s.EndTime, s.Mode, s.ID)
	return err
}

// SetActive flips a session's active flag.
func (r *ExamSessionRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a session. Assignments, answers and archived attempts go
// with it via ON DELETE CASCADE.
func (r *ExamSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exam_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ExamHasActiveSession reports whether any active session references the
// exam. Question edits are refused while this holds.
func (r *ExamSessionRepository) ExamHasActiveSession(ctx context.Context, examID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exam_sessions WHERE exam_id = $1 AND is_active)`,
		examID).Scan(&exists)
	return exists, err
}
