package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
)

// QuestionRepository handles question data access. Options are stored as a
// jsonb array and scanned straight into []string by pgx.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves all questions of an exam in display order,
// including the server-held correct answers.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, question_text, question_type, options,
		        COALESCE(correct_answer, ''), marks, order_index
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY order_index ASC, id ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.QuestionType,
			&q.Options, &q.CorrectAnswer, &q.Marks, &q.OrderIndex); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, question_text, question_type, options,
		        COALESCE(correct_answer, ''), marks, order_index
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.QuestionType,
		&q.Options, &q.CorrectAnswer, &q.Marks, &q.OrderIndex)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Add inserts a question at the end of the exam's order unless an explicit
// order index was provided.
func (r *QuestionRepository) Add(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (exam_id, question_text, question_type, options, correct_answer, marks, order_index)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6,
		         CASE WHEN $7 > 0 THEN $7
		              ELSE (SELECT COALESCE(MAX(order_index), 0) + 1 FROM questions WHERE exam_id = $1)
		         END)
		 RETURNING id, order_index`,
		q.ExamID, q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswer, q.Marks, q.OrderIndex,
	).Scan(&q.ID, &q.OrderIndex)
}

// Update modifies an existing question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, question_type = $2, options = $3,
		     correct_answer = NULLIF($4, ''), marks = $5, order_index = $6
		 WHERE id = $7`,
		q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswer, q.Marks, q.OrderIndex, q.ID)
	return err
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}

// CountByExam returns the number of questions in an exam.
func (r *QuestionRepository) CountByExam(ctx context.Context, examID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE exam_id = $1`, examID).Scan(&n)
	return n, err
}
