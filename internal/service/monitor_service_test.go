package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/repository"
)

type fakeMonitorStore struct {
	session *model.ExamSession
	rows    []repository.AssignmentOverview
	total   int
}

func (f *fakeMonitorStore) GetByID(_ context.Context, _ uuid.UUID) (*model.ExamSession, error) {
	return f.session, nil
}

func (f *fakeMonitorStore) ListBySession(_ context.Context, _ uuid.UUID) ([]repository.AssignmentOverview, error) {
	return f.rows, nil
}

func (f *fakeMonitorStore) CountByExam(_ context.Context, _ uuid.UUID) (int, error) {
	return f.total, nil
}

func overview(studentID int, name string, status model.AssignmentStatus, answered int) repository.AssignmentOverview {
	return repository.AssignmentOverview{
		Assignment: model.Assignment{
			ID:        uuid.New(),
			StudentID: studentID,
			Status:    status,
			Score:     answered * 5,
		},
		StudentName:   name,
		AnsweredCount: answered,
	}
}

func TestSnapshotDerivesPresenceFromStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	f := &fakeMonitorStore{
		session: &model.ExamSession{
			ID:       uuid.New(),
			ExamID:   uuid.New(),
			Name:     "Morning batch",
			EndTime:  now.Add(time.Hour),
			IsActive: true,
		},
		total: 10,
		rows: []repository.AssignmentOverview{
			overview(1, "Asha", model.AssignmentStatusPending, 0),
			overview(2, "Bilal", model.AssignmentStatusInProgress, 4),
			overview(3, "Chitra", model.AssignmentStatusInProgress, 7),
			overview(4, "Dinesh", model.AssignmentStatusSubmitted, 10),
		},
	}

	svc := NewMonitorService(f, f, f, zerolog.Nop())
	svc.now = func() time.Time { return now }

	snap, err := svc.Snapshot(context.Background(), f.session.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Online)
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, 1, snap.Offline)
	assert.Equal(t, now, snap.PolledAt)
	require.Len(t, snap.Students, 4)

	assert.Equal(t, LiveStateOffline, snap.Students[0].State)
	assert.Equal(t, LiveStateOnline, snap.Students[1].State)
	assert.Equal(t, 4, snap.Students[1].AnsweredCount)
	assert.Equal(t, 10, snap.Students[1].TotalCount)
	assert.Equal(t, LiveStateCompleted, snap.Students[3].State)
}

func TestSnapshotLastActivityPrefersNewestTimestamp(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	login := base
	start := base.Add(5 * time.Minute)
	answered := base.Add(20 * time.Minute)

	row := overview(1, "Asha", model.AssignmentStatusInProgress, 3)
	row.LoginTime = &login
	row.StartTime = &start
	row.LastAnswerAt = &answered

	got := lastActivity(row)
	require.NotNil(t, got)
	assert.Equal(t, answered, *got)

	// With no answers yet, start time wins over login time.
	row.LastAnswerAt = nil
	got = lastActivity(row)
	require.NotNil(t, got)
	assert.Equal(t, start, *got)
}
