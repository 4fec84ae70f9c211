package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Bandi-Aditya/OfflineExam/internal/codec"
	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/response"
)

// ErrUnreachable wraps transport-level failures. Cached answers are kept;
// the caller retries when connectivity returns.
var ErrUnreachable = errors.New("server unreachable")

// APIError is a non-2xx response decoded from the server envelope.
type APIError struct {
	StatusCode int
	Code       response.ErrCode
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server rejected request: %d %s (%s)", e.StatusCode, e.Code, e.Message)
}

// Client drives the student exam protocol against the backend, working
// through the local Store so answers survive offline stretches.
type Client struct {
	baseURL string
	jwt     string
	store   *Store
	http    *http.Client
}

// New creates a Client for the given server and student JWT.
func New(baseURL, jwt string, store *Store) *Client {
	return &Client{
		baseURL: baseURL,
		jwt:     jwt,
		store:   store,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Download fetches and decrypts the exam package, then caches it together
// with its key. Any previously cached answers for the (reset) assignment
// are dropped since the server rotated the token.
func (c *Client) Download(ctx context.Context, sessionID uuid.UUID) (*model.ExamPackage, error) {
	var dl model.DownloadResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/student/exams/%s/download", sessionID), nil, &dl); err != nil {
		return nil, err
	}

	key, err := codec.DecodeKey(dl.PackageKey)
	if err != nil {
		return nil, fmt.Errorf("decode package key: %w", err)
	}
	var pkg model.ExamPackage
	if err := codec.Decode(dl.EncryptedExam, key, &pkg); err != nil {
		return nil, fmt.Errorf("decrypt package: %w", err)
	}

	if err := c.store.SavePackage(ctx, sessionID, &pkg, dl.PackageKey); err != nil {
		return nil, err
	}
	if err := c.store.ClearAnswersFor(ctx, pkg.AssignmentID); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// Start marks the cached attempt as in progress on the server.
func (c *Client) Start(ctx context.Context, sessionID uuid.UUID) (*model.StartResponse, error) {
	pkg, _, err := c.store.GetPackage(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("no cached package: %w", err)
	}

	var out model.StartResponse
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/student/exams/%s/start", sessionID),
		model.StartExamRequest{SessionToken: pkg.SessionToken}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveAnswer records one answer locally. No network involved.
func (c *Client) SaveAnswer(ctx context.Context, sessionID, questionID uuid.UUID, answerText string) error {
	pkg, _, err := c.store.GetPackage(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("no cached package: %w", err)
	}
	return c.store.SaveAnswer(ctx, pkg.AssignmentID, questionID, answerText)
}

// Submit sends every cached answer for the session. On transport failure
// the cache is left intact and an ErrUnreachable-wrapped error is
// returned; the cache is cleared only after the server confirms.
func (c *Client) Submit(ctx context.Context, sessionID uuid.UUID, autoSubmitted bool) (*model.SubmitResponse, error) {
	pkg, _, err := c.store.GetPackage(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("no cached package: %w", err)
	}
	answers, err := c.store.AnswersFor(ctx, pkg.AssignmentID)
	if err != nil {
		return nil, err
	}

	var out model.SubmitResponse
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/student/exams/%s/submit", sessionID),
		model.SubmitExamRequest{
			SessionToken:  pkg.SessionToken,
			Answers:       answers,
			AutoSubmitted: autoSubmitted,
		}, &out)
	if err != nil {
		return nil, err
	}

	if err := c.store.ClearAnswersFor(ctx, pkg.AssignmentID); err != nil {
		return nil, err
	}
	return &out, nil
}

// Result fetches the student's result view for the session.
func (c *Client) Result(ctx context.Context, sessionID uuid.UUID) (*model.ResultResponse, error) {
	var out model.ResultResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/student/exams/%s/result", sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one request and decodes the envelope's data field into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Data  json.RawMessage     `json:"data"`
		Error *response.ErrorBody `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}
