package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockQuestionAPI starts a test server that serves a fixed question API
// payload for every request.
func MockQuestionAPI(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
