package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hsgate/hsgate/middleware"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRecordsStatusWithoutHeaders(t *testing.T) {
	t.Parallel()

	logger, hook := logtest.NewNullLogger()
	h := middleware.RequestID(middleware.Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer super.secret.token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/me", entry.Data["path"])
	assert.NotEmpty(t, entry.Data["request_id"])

	line, err := entry.String()
	require.NoError(t, err)
	assert.NotContains(t, line, "super.secret.token")
}

func TestLoggingServerErrorLevel(t *testing.T) {
	t.Parallel()

	logger, hook := logtest.NewNullLogger()
	h := middleware.Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestLoggingNilLoggerPassesThrough(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	middleware.Logging(nil)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
