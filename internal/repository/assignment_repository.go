package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
)

// AssignmentRepository handles the per-student attempt records. Start and
// submit are single conditional UPDATEs keyed by (id, session_token,
// status <> 'submitted'): the database serializes concurrent calls, exactly
// one wins, and losers see zero rows. That rules out lost updates and
// double-scoring without any application-level locking.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

const assignmentColumns = `id, session_id, student_id, status, login_time, start_time, submit_time, score, auto_submitted, session_token`

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := row.Scan(&a.ID, &a.SessionID, &a.StudentID, &a.Status, &a.LoginTime,
		&a.StartTime, &a.SubmitTime, &a.Score, &a.AutoSubmitted, &a.SessionToken)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetBySessionAndStudent retrieves the attempt record binding a student to
// a session.
func (r *AssignmentRepository) GetBySessionAndStudent(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE session_id = $1 AND student_id = $2`, sessionID, studentID))
}

// IssueToken stores a freshly minted session token and the login time,
// overwriting any previous token. The old token is invalid from this point.
func (r *AssignmentRepository) IssueToken(ctx context.Context, id uuid.UUID, token string, loginTime time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assignments SET session_token = $1, login_time = $2 WHERE id = $3`,
		token, loginTime, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ResetForRetake archives the current attempt into previous_attempts and
// resets the assignment to pending in one transaction, so the snapshot and
// the reset can never be observed separately. The caller mints a fresh
// token afterwards.
func (r *AssignmentRepository) ResetForRetake(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Snapshot the attempt with its answers folded in as jsonb.
	tag, err := tx.Exec(ctx,
		`INSERT INTO previous_attempts
		   (assignment_id, status, login_time, start_time, submit_time, score, auto_submitted, answers)
		 SELECT a.id, a.status, a.login_time, a.start_time, a.submit_time, a.score, a.auto_submitted,
		        COALESCE((SELECT jsonb_agg(jsonb_build_object(
		             'question_id', ans.question_id,
		             'answer_text', ans.answer_text,
		             'is_correct', ans.is_correct,
		             'marks_awarded', ans.marks_awarded,
		             'answered_at', ans.answered_at))
		           FROM answers ans WHERE ans.assignment_id = a.id), '[]'::jsonb)
		 FROM assignments a
		 WHERE a.id = $1 AND a.status = 'submitted'`, id)
	if err != nil {
		return fmt.Errorf("archive attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Not submitted (anymore) — a concurrent retake already reset it.
		return pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM answers WHERE assignment_id = $1`, id); err != nil {
		return fmt.Errorf("clear answers: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE assignments
		 SET status = 'pending', score = 0, auto_submitted = FALSE,
		     start_time = NULL, submit_time = NULL
		 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("reset assignment: %w", err)
	}

	return tx.Commit(ctx)
}

// Start flips the assignment to in_progress, conditional on the presented
// token matching the current one and the attempt not being terminal.
// Returns pgx.ErrNoRows if the condition did not hold; the caller
// distinguishes token mismatch from "already submitted" by re-reading.
func (r *AssignmentRepository) Start(ctx context.Context, id uuid.UUID, token string, now time.Time) (time.Time, error) {
	var startTime time.Time
	err := r.pool.QueryRow(ctx,
		`UPDATE assignments
		 SET status = 'in_progress', start_time = $1
		 WHERE id = $2 AND session_token = $3 AND status <> 'submitted'
		 RETURNING start_time`, now, id, token,
	).Scan(&startTime)
	if err != nil {
		return time.Time{}, err
	}
	return startTime, nil
}

// Submit records the fully scored submission: status flip, score, flags and
// all graded answers, in one transaction guarded by the same token/status
// condition as Start. Either everything lands or nothing does; a second
// submit (or one with a stale token) affects zero rows and changes nothing.
func (r *AssignmentRepository) Submit(ctx context.Context, id uuid.UUID, token string, score int, autoSubmitted bool, answers []model.Answer, now time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE assignments
		 SET status = 'submitted', submit_time = $1, score = $2, auto_submitted = $3
		 WHERE id = $4 AND session_token = $5 AND status <> 'submitted'`,
		now, score, autoSubmitted, id, token)
	if err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	for _, a := range answers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO answers (assignment_id, question_id, answer_text, is_correct, marks_awarded, answered_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, a.QuestionID, a.AnswerText, a.IsCorrect, a.MarksAwarded, a.AnsweredAt); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListAnswers retrieves the recorded answers of the current attempt in
// answer order.
func (r *AssignmentRepository) ListAnswers(ctx context.Context, assignmentID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assignment_id, question_id, answer_text, is_correct, marks_awarded, answered_at
		 FROM answers
		 WHERE assignment_id = $1
		 ORDER BY answered_at ASC, id ASC`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.AssignmentID, &a.QuestionID, &a.AnswerText,
			&a.IsCorrect, &a.MarksAwarded, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ListPreviousAttempts retrieves the archived attempts of an assignment,
// oldest first.
func (r *AssignmentRepository) ListPreviousAttempts(ctx context.Context, assignmentID uuid.UUID) ([]model.PreviousAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assignment_id, status, login_time, start_time, submit_time,
		        score, auto_submitted, answers, archived_at
		 FROM previous_attempts
		 WHERE assignment_id = $1
		 ORDER BY archived_at ASC`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.PreviousAttempt
	for rows.Next() {
		var p model.PreviousAttempt
		if err := rows.Scan(&p.ID, &p.AssignmentID, &p.Status, &p.LoginTime, &p.StartTime,
			&p.SubmitTime, &p.Score, &p.AutoSubmitted, &p.Answers, &p.ArchivedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, p)
	}
	return attempts, rows.Err()
}

// AssignmentOverview is one row of the monitoring/results projection:
// assignment state joined with student identity and answer activity.
type AssignmentOverview struct {
	model.Assignment
	StudentCode   string     `json:"student_code"`
	StudentName   string     `json:"name"`
	StudentEmail  string     `json:"email"`
	AnsweredCount int        `json:"answered_count"`
	LastAnswerAt  *time.Time `json:"last_answer_at,omitempty"`
}

// ListBySession retrieves every assignment of a session joined with student
// identity, answered counts and the latest answer timestamp.
func (r *AssignmentRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]AssignmentOverview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.session_id, a.student_id, a.status, a.login_time, a.start_time,
		        a.submit_time, a.score, a.auto_submitted, a.session_token,
		        s.student_code, s.name, s.email,
		        (SELECT COUNT(*) FROM answers ans WHERE ans.assignment_id = a.id),
		        (SELECT MAX(ans.answered_at) FROM answers ans WHERE ans.assignment_id = a.id)
		 FROM assignments a
		 JOIN students s ON s.id = a.student_id
		 WHERE a.session_id = $1
		 ORDER BY s.name ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overviews []AssignmentOverview
	for rows.Next() {
		var o AssignmentOverview
		if err := rows.Scan(&o.ID, &o.SessionID, &o.StudentID, &o.Status, &o.LoginTime,
			&o.StartTime, &o.SubmitTime, &o.Score, &o.AutoSubmitted, &o.SessionToken,
			&o.StudentCode, &o.StudentName, &o.StudentEmail,
			&o.AnsweredCount, &o.LastAnswerAt); err != nil {
			return nil, err
		}
		overviews = append(overviews, o)
	}
	return overviews, rows.Err()
}

// AssignedExam is one row of the student's assigned-exam list: session
// window plus exam metadata plus the student's own attempt state.
type AssignedExam struct {
	SessionID       uuid.UUID              `json:"session_id"`
	SessionName     string                 `json:"session_name"`
	StartTime       time.Time              `json:"start_time"`
	EndTime         time.Time              `json:"end_time"`
	Mode            model.SessionMode      `json:"mode"`
	IsActive        bool                   `json:"is_active"`
	ExamID          uuid.UUID              `json:"exam_id"`
	ExamTitle       string                 `json:"exam_title"`
	Description     string                 `json:"description"`
	DurationMinutes int                    `json:"duration_minutes"`
	TotalMarks      int                    `json:"total_marks"`
	AssignmentID    uuid.UUID              `json:"assignment_id"`
	Status          model.AssignmentStatus `json:"status"`
	Score           int                    `json:"score"`
	SubmitTime      *time.Time             `json:"submit_time,omitempty"`
}

// ListAssignedExams retrieves the sessions a student is assigned to, newest
// window first.
func (r *AssignmentRepository) ListAssignedExams(ctx context.Context, studentID int) ([]AssignedExam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.start_time, s.end_time, s.mode, s.is_active,
		        e.id, e.title, COALESCE(e.description, ''), e.duration_minutes, e.total_marks,
		        a.id, a.status, a.score, a.submit_time
		 FROM assignments a
		 JOIN exam_sessions s ON s.id = a.session_id
		 JOIN exams e ON e.id = s.exam_id
		 WHERE a.student_id = $1
		 ORDER BY s.start_time DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assigned []AssignedExam
	for rows.Next() {
		var ae AssignedExam
		if err := rows.Scan(&ae.SessionID, &ae.SessionName, &ae.StartTime, &ae.EndTime,
			&ae.Mode, &ae.IsActive,
			&ae.ExamID, &ae.ExamTitle, &ae.Description, &ae.DurationMinutes, &ae.TotalMarks,
			&ae.AssignmentID, &ae.Status, &ae.Score, &ae.SubmitTime); err != nil {
			return nil, err
		}
		assigned = append(assigned, ae)
	}
	return assigned, rows.Err()
}

// StudentHistoryRow is one row of a student's per-session attempt history.
type StudentHistoryRow struct {
	SessionID    uuid.UUID              `json:"session_id"`
	SessionName  string                 `json:"session_name"`
	ExamTitle    string                 `json:"exam_title"`
	EndTime      time.Time              `json:"end_time"`
	AssignmentID uuid.UUID              `json:"assignment_id"`
	Status       model.AssignmentStatus `json:"status"`
	Score        int                    `json:"score"`
	SubmitTime   *time.Time             `json:"submit_time,omitempty"`
}

// ListHistory retrieves every session a student was ever assigned to, for
// the admin history view. Archived attempts are fetched separately per
// assignment.
func (r *AssignmentRepository) ListHistory(ctx context.Context, studentID int) ([]StudentHistoryRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, e.title, s.end_time, a.id, a.status, a.score, a.submit_time
		 FROM assignments a
		 JOIN exam_sessions s ON s.id = a.session_id
		 JOIN exams e ON e.id = s.exam_id
		 WHERE a.student_id = $1
		 ORDER BY s.created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []StudentHistoryRow
	for rows.Next() {
		var h StudentHistoryRow
		if err := rows.Scan(&h.SessionID, &h.SessionName, &h.ExamTitle, &h.EndTime,
			&h.AssignmentID, &h.Status, &h.Score, &h.SubmitTime); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// ForceSubmit closes one in-progress attempt on behalf of a proctor.
// Whatever was recorded server-side stands as the attempt's result.
func (r *AssignmentRepository) ForceSubmit(ctx context.Context, sessionID uuid.UUID, studentID int, now time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assignments
		 SET status = 'submitted', submit_time = $1, auto_submitted = TRUE
		 WHERE session_id = $2 AND student_id = $3 AND status = 'in_progress'`,
		now, sessionID, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ForceSubmitOverdue closes every in-progress attempt whose session window
// plus grace has elapsed. The deadline worker's backstop against clients
// that never submit.
func (r *AssignmentRepository) ForceSubmitOverdue(ctx context.Context, grace time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-grace)
	tag, err := r.pool.Exec(ctx,
		`UPDATE assignments a
		 SET status = 'submitted', submit_time = $1, auto_submitted = TRUE
		 FROM exam_sessions s
		 WHERE s.id = a.session_id
		   AND a.status = 'in_progress'
		   AND s.end_time < $2`,
		now, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
