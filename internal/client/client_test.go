package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bandi-Aditya/OfflineExam/internal/codec"
	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/response"
)

func envelope(t *testing.T, w http.ResponseWriter, status int, data interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{"data": data}))
}

func sealedPackage(t *testing.T, pkg *model.ExamPackage, sessionID uuid.UUID) model.DownloadResponse {
	t.Helper()
	key, err := codec.GenerateKey()
	require.NoError(t, err)
	sealed, err := codec.Encode(pkg, key)
	require.NoError(t, err)
	return model.DownloadResponse{
		EncryptedExam: sealed,
		PackageKey:    codec.EncodeKey(key),
		SessionID:     sessionID,
	}
}

func TestClientDownloadDecryptsAndCaches(t *testing.T) {
	sessionID := uuid.New()
	pkg := samplePackage()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		envelope(t, w, http.StatusOK, sealedPackage(t, pkg, sessionID))
	}))
	defer srv.Close()

	store := tempStore(t)
	c := New(srv.URL, "jwt-token", store)

	got, err := c.Download(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, pkg.AssignmentID, got.AssignmentID)
	assert.Equal(t, pkg.SessionToken, got.SessionToken)

	cached, _, err := store.GetPackage(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, pkg.AssignmentID, cached.AssignmentID)
}

func TestClientSubmitClearsCacheOnSuccess(t *testing.T) {
	sessionID := uuid.New()
	pkg := samplePackage()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.SubmitExamRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, pkg.SessionToken, req.SessionToken)
		assert.Len(t, req.Answers, 1)
		envelope(t, w, http.StatusOK, model.SubmitResponse{Score: 10})
	}))
	defer srv.Close()

	store := tempStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePackage(ctx, sessionID, pkg, "key"))
	require.NoError(t, store.SaveAnswer(ctx, pkg.AssignmentID, pkg.Questions[0].ID, "newton"))

	c := New(srv.URL, "jwt-token", store)
	out, err := c.Submit(ctx, sessionID, false)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Score)

	answers, err := store.AnswersFor(ctx, pkg.AssignmentID)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestClientSubmitKeepsCacheWhenUnreachable(t *testing.T) {
	sessionID := uuid.New()
	pkg := samplePackage()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connections now fail

	store := tempStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePackage(ctx, sessionID, pkg, "key"))
	require.NoError(t, store.SaveAnswer(ctx, pkg.AssignmentID, pkg.Questions[0].ID, "newton"))

	c := New(srv.URL, "jwt-token", store)
	_, err := c.Submit(ctx, sessionID, false)
	require.ErrorIs(t, err, ErrUnreachable)

	answers, err := store.AnswersFor(ctx, pkg.AssignmentID)
	require.NoError(t, err)
	assert.Len(t, answers, 1, "cache must survive a failed delivery")
}

func TestClientSubmitKeepsCacheOnRejection(t *testing.T) {
	sessionID := uuid.New()
	pkg := samplePackage()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data":  nil,
			"error": response.ErrorBody{Code: response.ErrAlreadySubmitted, Message: "already submitted"},
		})
	}))
	defer srv.Close()

	store := tempStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePackage(ctx, sessionID, pkg, "key"))
	require.NoError(t, store.SaveAnswer(ctx, pkg.AssignmentID, pkg.Questions[0].ID, "newton"))

	c := New(srv.URL, "jwt-token", store)
	_, err := c.Submit(ctx, sessionID, false)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, response.ErrAlreadySubmitted, apiErr.Code)
	assert.False(t, errors.Is(err, ErrUnreachable), "a rejection is terminal, not retryable")

	answers, err := store.AnswersFor(ctx, pkg.AssignmentID)
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestClientStartSendsCachedToken(t *testing.T) {
	sessionID := uuid.New()
	pkg := samplePackage()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.StartExamRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, pkg.SessionToken, req.SessionToken)
		envelope(t, w, http.StatusOK, model.StartResponse{AssignmentID: pkg.AssignmentID, StartTime: "2026-03-10T09:00:00Z"})
	}))
	defer srv.Close()

	store := tempStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePackage(ctx, sessionID, pkg, "key"))

	c := New(srv.URL, "jwt-token", store)
	out, err := c.Start(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, pkg.AssignmentID, out.AssignmentID)
}
