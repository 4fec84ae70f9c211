package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bandi-Aditya/OfflineExam/internal/codec"
	"github.com/Bandi-Aditya/OfflineExam/internal/model"
)

// ─── in-memory fakes ───

type fakeStore struct {
	session    *model.ExamSession
	exam       *model.Exam
	questions  []model.Question
	assignment *model.Assignment
	answers    []model.Answer
	archived   int
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	if f.session == nil || f.session.ID != id {
		return nil, pgx.ErrNoRows
	}
	cp := *f.session
	return &cp, nil
}

func (f *fakeStore) ListByExam(_ context.Context, _ uuid.UUID) ([]model.Question, error) {
	return f.questions, nil
}

func (f *fakeStore) GetBySessionAndStudent(_ context.Context, sessionID uuid.UUID, studentID int) (*model.Assignment, error) {
	a := f.assignment
	if a == nil || a.SessionID != sessionID || a.StudentID != studentID {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) IssueToken(_ context.Context, id uuid.UUID, token string, loginTime time.Time) error {
	if f.assignment == nil || f.assignment.ID != id {
		return pgx.ErrNoRows
	}
	f.assignment.SessionToken = &token
	f.assignment.LoginTime = &loginTime
	return nil
}

func (f *fakeStore) ResetForRetake(_ context.Context, id uuid.UUID) error {
	a := f.assignment
	if a == nil || a.ID != id || a.Status != model.AssignmentStatusSubmitted {
		return pgx.ErrNoRows
	}
	f.archived++
	a.Status = model.AssignmentStatusPending
	a.Score = 0
	a.AutoSubmitted = false
	a.StartTime = nil
	a.SubmitTime = nil
	a.SessionToken = nil
	f.answers = nil
	return nil
}

func (f *fakeStore) Start(_ context.Context, id uuid.UUID, token string, now time.Time) (time.Time, error) {
	a := f.assignment
	if a == nil || a.ID != id || a.SessionToken == nil || *a.SessionToken != token ||
		a.Status == model.AssignmentStatusSubmitted {
		return time.Time{}, pgx.ErrNoRows
	}
	a.Status = model.AssignmentStatusInProgress
	a.StartTime = &now
	return now, nil
}

func (f *fakeStore) Submit(_ context.Context, id uuid.UUID, token string, score int, autoSubmitted bool, answers []model.Answer, now time.Time) error {
	a := f.assignment
	if a == nil || a.ID != id || a.SessionToken == nil || *a.SessionToken != token ||
		a.Status == model.AssignmentStatusSubmitted {
		return pgx.ErrNoRows
	}
	a.Status = model.AssignmentStatusSubmitted
	a.Score = score
	a.AutoSubmitted = autoSubmitted
	a.SubmitTime = &now
	f.answers = answers
	return nil
}

func (f *fakeStore) ListAnswers(_ context.Context, _ uuid.UUID) ([]model.Answer, error) {
	return f.answers, nil
}

func (f *fakeStore) exam2(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	if f.exam == nil || f.exam.ID != id {
		return nil, pgx.ErrNoRows
	}
	cp := *f.exam
	return &cp, nil
}

// examStoreFunc adapts fakeStore's exam lookup to the ExamStore interface,
// since GetByID is already taken by the session lookup.
type examStoreFunc func(ctx context.Context, id uuid.UUID) (*model.Exam, error)

func (fn examStoreFunc) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return fn(ctx, id)
}

func newFixture(t *testing.T) (*AttemptService, *fakeStore) {
	t.Helper()

	examID := uuid.New()
	sessionID := uuid.New()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	f := &fakeStore{
		exam: &model.Exam{
			ID:              examID,
			Title:           "Networks Midterm",
			DurationMinutes: 60,
			TotalMarks:      20,
			PassingMarks:    10,
		},
		session: &model.ExamSession{
			ID:        sessionID,
			ExamID:    examID,
			Name:      "Morning batch",
			StartTime: now.Add(-time.Hour),
			EndTime:   now.Add(time.Hour),
			Mode:      model.SessionModeOffline,
			IsActive:  true,
		},
		questions: []model.Question{
			{
				ID:            uuid.New(),
				ExamID:        examID,
				QuestionText:  "Default HTTPS port?",
				QuestionType:  model.QuestionTypeMCQ,
				Options:       []string{"80", "443", "8080"},
				CorrectAnswer: "443",
				Marks:         10,
			},
			{
				ID:            uuid.New(),
				ExamID:        examID,
				QuestionText:  "Expand TCP.",
				QuestionType:  model.QuestionTypeMCQ,
				Options:       []string{"Transmission Control Protocol", "Transfer Control Program"},
				CorrectAnswer: "Transmission Control Protocol",
				Marks:         10,
			},
		},
		assignment: &model.Assignment{
			ID:        uuid.New(),
			SessionID: sessionID,
			StudentID: 7,
			Status:    model.AssignmentStatusPending,
		},
	}

	svc := NewAttemptService(f, examStoreFunc(f.exam2), f, f, NewTokenService(), zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc, f
}

func decodePackage(t *testing.T, resp *model.DownloadResponse) model.ExamPackage {
	t.Helper()
	key, err := codec.DecodeKey(resp.PackageKey)
	require.NoError(t, err)
	var pkg model.ExamPackage
	require.NoError(t, codec.Decode(resp.EncryptedExam, key, &pkg))
	return pkg
}

// ─── download ───

func TestDownloadIssuesSealedPackage(t *testing.T) {
	svc, f := newFixture(t)
	ctx := context.Background()

	resp, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)

	pkg := decodePackage(t, resp)
	assert.Equal(t, f.assignment.ID, pkg.AssignmentID)
	assert.Equal(t, *f.assignment.SessionToken, pkg.SessionToken)
	assert.Equal(t, "Networks Midterm", pkg.Exam.Title)
	require.Len(t, pkg.Questions, 2)

	// Answer keys must never leave the server.
	raw, err := json.Marshal(pkg)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct_answer")
}

func TestDownloadRotatesToken(t *testing.T) {
	svc, f := newFixture(t)
	ctx := context.Background()

	first, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)
	firstToken := decodePackage(t, first).SessionToken

	second, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)
	secondToken := decodePackage(t, second).SessionToken

	assert.NotEqual(t, firstToken, secondToken)
	assert.Equal(t, secondToken, *f.assignment.SessionToken)

	// The stale token can no longer start the exam.
	_, _, err = svc.Start(ctx, f.session.ID, 7, firstToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDownloadRejectsUnassignedStudent(t *testing.T) {
	svc, f := newFixture(t)

	_, err := svc.Download(context.Background(), f.session.ID, 99)
	assert.ErrorIs(t, err, ErrNotAssigned)
}

func TestDownloadRejectsInactiveSession(t *testing.T) {
	svc, f := newFixture(t)
	f.session.IsActive = false

	_, err := svc.Download(context.Background(), f.session.ID, 7)
	assert.ErrorIs(t, err, ErrSessionInactive)
}

func TestDownloadAfterSubmitArchivesAndResets(t *testing.T) {
	svc, f := newFixture(t)
	ctx := context.Background()

	first, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)
	token := decodePackage(t, first).SessionToken

	_, _, err = svc.Start(ctx, f.session.ID, 7, token)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, f.session.ID, 7, model.SubmitExamRequest{
		SessionToken: token,
		Answers:      []model.SubmittedAnswer{{QuestionID: f.questions[0].ID, AnswerText: "443"}},
	})
	require.NoError(t, err)
	require.Equal(t, model.AssignmentStatusSubmitted, f.assignment.Status)

	_, err = svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, 1, f.archived)
	assert.Equal(t, model.AssignmentStatusPending, f.assignment.Status)
	assert.Equal(t, 0, f.assignment.Score)
	assert.Empty(t, f.answers)
}

func TestDownloadOfEmptyExamLeavesAttemptUntouched(t *testing.T) {
	svc, f := newFixture(t)
	ctx := context.Background()

	first, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)
	token := decodePackage(t, first).SessionToken

	_, _, err = svc.Start(ctx, f.session.ID, 7, token)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, f.session.ID, 7, model.SubmitExamRequest{
		SessionToken: token,
		Answers:      []model.SubmittedAnswer{{QuestionID: f.questions[0].ID, AnswerText: "443"}},
	})
	require.NoError(t, err)

	// All questions removed before the re-download. The failed download
	// must not archive the finished attempt or rotate its token.
	f.questions = nil

	_, err = svc.Download(ctx, f.session.ID, 7)
	assert.ErrorIs(t, err, ErrExamEmpty)

	assert.Equal(t, 0, f.archived)
	assert.Equal(t, model.AssignmentStatusSubmitted, f.assignment.Status)
	require.NotNil(t, f.assignment.SessionToken)
	assert.Equal(t, token, *f.assignment.SessionToken)
}

// ─── start ───

func TestStartRequiresCurrentToken(t *testing.T) {
	svc, f := newFixture(t)
	ctx := context.Background()

	_, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)

	_, _, err = svc.Start(ctx, f.session.ID, 7, "0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, model.AssignmentStatusPending, f.assignment.Status)
}

func TestStartMarksInProgress(t *testing.T) {
	svc, f := newFixture(t)
	ctx := context.Background()

	resp, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)
	token := decodePackage(t, resp).SessionToken

	id, startTime, err := svc.Start(ctx, f.session.ID, 7, token)
	require.NoError(t, err)
	assert.Equal(t, f.assignment.ID, id)
	assert.False(t, startTime.IsZero())
	assert.Equal(t, model.AssignmentStatusInProgress, f.assignment.Status)
}

// ─── submit ───

func TestSubmitScoresAndRecords(t *testing.T) {
	svc, f := newFixture(t)
	ctx := context.Background()

	resp, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)
	token := decodePackage(t, resp).SessionToken
	_, _, err = svc.Start(ctx, f.session.ID, 7, token)
	require.NoError(t, err)

	out, err := svc.Submit(ctx, f.session.ID, 7, model.SubmitExamRequest{
		SessionToken: token,
		Answers: []model.SubmittedAnswer{
			{QuestionID: f.questions[0].ID, AnswerText: " 443 "},
			{QuestionID: f.questions[1].ID, AnswerText: "Transfer Control Program"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, out.Score)
	assert.Equal(t, model.AssignmentStatusSubmitted, f.assignment.Status)
	assert.Len(t, f.answers, 2)
}

func TestSubmitIsExactlyOnce(t *testing.T) {
	svc, f := newFixture(t)
	ctx := context.Background()

	resp, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)
	token := decodePackage(t, resp).SessionToken
	_, _, err = svc.Start(ctx, f.session.ID, 7, token)
	require.NoError(t, err)

	first, err := svc.Submit(ctx, f.session.ID, 7, model.SubmitExamRequest{
		SessionToken: token,
		Answers:      []model.SubmittedAnswer{{QuestionID: f.questions[0].ID, AnswerText: "443"}},
	})
	require.NoError(t, err)
	require.Equal(t, 10, first.Score)

	// A duplicate delivery must fail and leave the recorded score alone.
	_, err = svc.Submit(ctx, f.session.ID, 7, model.SubmitExamRequest{
		SessionToken: token,
		Answers:      []model.SubmittedAnswer{{QuestionID: f.questions[1].ID, AnswerText: "Transmission Control Protocol"}},
	})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 10, f.assignment.Score)
	assert.Len(t, f.answers, 1)
}

func TestSubmitRejectsStaleToken(t *testing.T) {
	svc, f := newFixture(t)
	ctx := context.Background()

	first, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)
	stale := decodePackage(t, first).SessionToken

	_, err = svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, f.session.ID, 7, model.SubmitExamRequest{
		SessionToken: stale,
		Answers:      []model.SubmittedAnswer{{QuestionID: f.questions[0].ID, AnswerText: "443"}},
	})
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotEqual(t, model.AssignmentStatusSubmitted, f.assignment.Status)
}

// ─── result ───

func submitFixture(t *testing.T, svc *AttemptService, f *fakeStore) {
	t.Helper()
	ctx := context.Background()
	resp, err := svc.Download(ctx, f.session.ID, 7)
	require.NoError(t, err)
	token := decodePackage(t, resp).SessionToken
	_, _, err = svc.Start(ctx, f.session.ID, 7, token)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, f.session.ID, 7, model.SubmitExamRequest{
		SessionToken: token,
		Answers: []model.SubmittedAnswer{
			{QuestionID: f.questions[0].ID, AnswerText: "443"},
			{QuestionID: f.questions[1].ID, AnswerText: "Transmission Control Protocol"},
		},
	})
	require.NoError(t, err)
}

func TestResultBeforeSubmitNotReady(t *testing.T) {
	svc, f := newFixture(t)

	_, err := svc.Result(context.Background(), f.session.ID, 7)
	assert.ErrorIs(t, err, ErrResultNotReady)
}

func TestResultWithholdsAnswersWhileSessionRuns(t *testing.T) {
	svc, f := newFixture(t)
	submitFixture(t, svc, f)

	res, err := svc.Result(context.Background(), f.session.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Score)
	assert.Equal(t, "Pass", res.Result)
	assert.False(t, res.ExamHasEnded)
	assert.Nil(t, res.Answers)
}

func TestResultReleasesAnswersAfterSessionEnds(t *testing.T) {
	svc, f := newFixture(t)
	submitFixture(t, svc, f)

	svc.now = func() time.Time { return f.session.EndTime.Add(time.Minute) }

	res, err := svc.Result(context.Background(), f.session.ID, 7)
	require.NoError(t, err)
	assert.True(t, res.ExamHasEnded)
	require.Len(t, res.Answers, 2)
	assert.Equal(t, "443", res.Answers[0].CorrectAnswer)
	require.NotNil(t, res.Answers[0].IsCorrect)
	assert.True(t, *res.Answers[0].IsCorrect)
}
