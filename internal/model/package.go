package model

import "github.com/google/uuid"

// PackageExam is the exam metadata carried inside the offline package.
type PackageExam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalMarks      int       `json:"total_marks"`
}

// ExamPackage is the plaintext payload the codec encrypts for offline
// delivery: exam metadata, sanitized questions and the freshly minted
// session token. It never contains correct answers.
type ExamPackage struct {
	AssignmentID uuid.UUID            `json:"assignment_id"`
	SessionToken string               `json:"session_token"`
	Exam         PackageExam          `json:"exam"`
	Questions    []QuestionForStudent `json:"questions"`
}

// DownloadResponse is returned by the download endpoint. PackageKey is the
// per-download ephemeral codec key, delivered over the authenticated
// channel instead of being baked into the client build.
type DownloadResponse struct {
	EncryptedExam string    `json:"encrypted_exam"`
	PackageKey    string    `json:"package_key"`
	SessionID     uuid.UUID `json:"session_id"`
}

// StartResponse acknowledges a successful start transition.
type StartResponse struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	StartTime    string    `json:"start_time"`
}

// SubmitResponse acknowledges a successful, fully scored submission.
type SubmitResponse struct {
	Score         int  `json:"score"`
	AutoSubmitted bool `json:"auto_submitted"`
}

// AnswerDetail is per-question correctness detail, released by the result
// endpoint only after the session's end time has passed.
type AnswerDetail struct {
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	YourAnswer    string       `json:"your_answer"`
	CorrectAnswer string       `json:"correct_answer"`
	IsCorrect     *bool        `json:"is_correct"`
	MarksAwarded  int          `json:"marks_awarded"`
	TotalMarks    int          `json:"total_marks"`
}

// ResultResponse is the student's view of their submitted attempt. Answers
// is nil while the session is still running (the answer-key gate).
type ResultResponse struct {
	Score         int            `json:"score"`
	TotalMarks    int            `json:"total_marks"`
	PassingMarks  int            `json:"passing_marks"`
	Result        string         `json:"result"`
	ExamTitle     string         `json:"exam_title"`
	SubmitTime    string         `json:"submit_time"`
	AutoSubmitted bool           `json:"auto_submitted"`
	ExamHasEnded  bool           `json:"exam_has_ended"`
	Answers       []AnswerDetail `json:"answers"`
}
