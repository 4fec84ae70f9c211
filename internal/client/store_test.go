package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func samplePackage() *model.ExamPackage {
	return &model.ExamPackage{
		AssignmentID: uuid.New(),
		SessionToken: "token",
		Exam:         model.PackageExam{ID: uuid.New(), Title: "Physics Unit Test", DurationMinutes: 45, TotalMarks: 30},
		Questions: []model.QuestionForStudent{
			{ID: uuid.New(), QuestionText: "Unit of force?", QuestionType: model.QuestionTypeMCQ, Options: []string{"newton", "joule"}, Marks: 10},
		},
	}
}

func TestStorePackageRoundtrip(t *testing.T) {
	store := tempStore(t)
	ctx := context.Background()
	sessionID := uuid.New()
	pkg := samplePackage()

	require.NoError(t, store.SavePackage(ctx, sessionID, pkg, "key-b64"))

	got, key, err := store.GetPackage(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "key-b64", key)
	assert.Equal(t, pkg.AssignmentID, got.AssignmentID)
	assert.Equal(t, "Physics Unit Test", got.Exam.Title)
	require.Len(t, got.Questions, 1)

	// A re-download replaces the cached package in place.
	pkg2 := samplePackage()
	require.NoError(t, store.SavePackage(ctx, sessionID, pkg2, "key-2"))
	got, key, err = store.GetPackage(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "key-2", key)
	assert.Equal(t, pkg2.AssignmentID, got.AssignmentID)
}

func TestStoreGetPackageMissing(t *testing.T) {
	store := tempStore(t)

	_, _, err := store.GetPackage(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStoreAnswerEditsOverwrite(t *testing.T) {
	store := tempStore(t)
	ctx := context.Background()
	assignmentID := uuid.New()
	q1, q2 := uuid.New(), uuid.New()

	require.NoError(t, store.SaveAnswer(ctx, assignmentID, q1, "first draft"))
	require.NoError(t, store.SaveAnswer(ctx, assignmentID, q1, "final answer"))
	require.NoError(t, store.SaveAnswer(ctx, assignmentID, q2, "42"))

	answers, err := store.AnswersFor(ctx, assignmentID)
	require.NoError(t, err)
	require.Len(t, answers, 2)

	byQuestion := map[uuid.UUID]string{}
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.AnswerText
	}
	assert.Equal(t, "final answer", byQuestion[q1])
	assert.Equal(t, "42", byQuestion[q2])
}

func TestStoreClearAnswersIsScoped(t *testing.T) {
	store := tempStore(t)
	ctx := context.Background()
	mine, theirs := uuid.New(), uuid.New()

	require.NoError(t, store.SaveAnswer(ctx, mine, uuid.New(), "a"))
	require.NoError(t, store.SaveAnswer(ctx, theirs, uuid.New(), "b"))

	require.NoError(t, store.ClearAnswersFor(ctx, mine))

	gone, err := store.AnswersFor(ctx, mine)
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := store.AnswersFor(ctx, theirs)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	assignmentID := uuid.New()

	store, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveAnswer(ctx, assignmentID, uuid.New(), "persisted"))
	require.NoError(t, store.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	answers, err := reopened.AnswersFor(ctx, assignmentID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "persisted", answers[0].AnswerText)
}
