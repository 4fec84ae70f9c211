package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS packages (
	session_id  TEXT PRIMARY KEY,
	package     TEXT NOT NULL,
	package_key TEXT NOT NULL,
	saved_at    TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS answers (
	assignment_id TEXT NOT NULL,
	question_id   TEXT NOT NULL,
	answer_text   TEXT NOT NULL,
	updated_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (assignment_id, question_id)
);
`

// Store is the durable local cache the exam client works from while
// offline: the decrypted package per session and every answer edit, each
// persisted immediately. Answers survive process restarts and are cleared
// only after the server confirms a submit.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed initializes) the cache at path. Use
// ":memory:" for a throwaway store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// The cache is single-user; one connection avoids sqlite write locks.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SavePackage stores the decrypted package and its key for a session,
// replacing any previously cached one.
func (s *Store) SavePackage(ctx context.Context, sessionID uuid.UUID, pkg *model.ExamPackage, key string) error {
	raw, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("encode package: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO packages (session_id, package, package_key, saved_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id) DO UPDATE SET
		   package = excluded.package,
		   package_key = excluded.package_key,
		   saved_at = excluded.saved_at`,
		sessionID.String(), string(raw), key, time.Now().UTC())
	return err
}

// GetPackage loads the cached package for a session. Returns sql.ErrNoRows
// if nothing is cached.
func (s *Store) GetPackage(ctx context.Context, sessionID uuid.UUID) (*model.ExamPackage, string, error) {
	var raw, key string
	err := s.db.QueryRowContext(ctx,
		`SELECT package, package_key FROM packages WHERE session_id = ?`,
		sessionID.String()).Scan(&raw, &key)
	if err != nil {
		return nil, "", err
	}

	var pkg model.ExamPackage
	if err := json.Unmarshal([]byte(raw), &pkg); err != nil {
		return nil, "", fmt.Errorf("decode cached package: %w", err)
	}
	return &pkg, key, nil
}

// SaveAnswer persists one answer edit. Repeated edits of the same question
// overwrite in place.
func (s *Store) SaveAnswer(ctx context.Context, assignmentID, questionID uuid.UUID, answerText string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (assignment_id, question_id, answer_text, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (assignment_id, question_id) DO UPDATE SET
		   answer_text = excluded.answer_text,
		   updated_at = excluded.updated_at`,
		assignmentID.String(), questionID.String(), answerText, time.Now().UTC())
	return err
}

// AnswersFor returns every cached answer for the assignment.
func (s *Store) AnswersFor(ctx context.Context, assignmentID uuid.UUID) ([]model.SubmittedAnswer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, answer_text FROM answers WHERE assignment_id = ?`,
		assignmentID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.SubmittedAnswer
	for rows.Next() {
		var qid, text string
		if err := rows.Scan(&qid, &text); err != nil {
			return nil, err
		}
		questionID, err := uuid.Parse(qid)
		if err != nil {
			return nil, fmt.Errorf("corrupt cached question id %q: %w", qid, err)
		}
		answers = append(answers, model.SubmittedAnswer{QuestionID: questionID, AnswerText: text})
	}
	return answers, rows.Err()
}

// ClearAnswersFor drops the assignment's cached answers. Called only after
// the server has confirmed the submit.
func (s *Store) ClearAnswersFor(ctx context.Context, assignmentID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM answers WHERE assignment_id = ?`, assignmentID.String())
	return err
}

// ClearPackage drops the cached package for a session.
func (s *Store) ClearPackage(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM packages WHERE session_id = ?`, sessionID.String())
	return err
}
