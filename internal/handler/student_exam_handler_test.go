package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/Bandi-Aditya/OfflineExam/internal/service"
)

func TestFailAttemptStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing assignment", pgx.ErrNoRows, http.StatusNotFound},
		{"not assigned", service.ErrNotAssigned, http.StatusForbidden},
		{"session inactive", service.ErrSessionInactive, http.StatusForbidden},
		{"token mismatch", service.ErrInvalidToken, http.StatusForbidden},
		{"already submitted", service.ErrAlreadySubmitted, http.StatusForbidden},
		{"result not ready", service.ErrResultNotReady, http.StatusNotFound},
		{"empty exam", service.ErrExamEmpty, http.StatusConflict},
	}

	h := &StudentExamHandler{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

			h.failAttempt(c, tc.err)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
