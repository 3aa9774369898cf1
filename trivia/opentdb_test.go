package trivia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func opentdbServer(t *testing.T, body string) *OpenTDBClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("amount"); got != "1" {
			t.Errorf("amount = %q, want 1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &OpenTDBClient{BaseURL: srv.URL, HTTPClient: srv.Client()}
}

func TestOpenTDBClient_FetchMultiple(t *testing.T) {
	c := opentdbServer(t, `{
		"response_code": 0,
		"results": [{
			"category": "Science &amp; Nature",
			"type": "multiple",
			"question": "What is H&sub2;O?",
			"correct_answer": "Water",
			"incorrect_answers": ["Helium", "Salt", "Gold"]
		}]
	}`)

	q, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Kind != KindMultipleChoice {
		t.Errorf("Kind = %q", q.Kind)
	}
	if q.Answer != "Water" {
		t.Errorf("Answer = %q", q.Answer)
	}
	if q.Category != "Science & Nature" {
		t.Errorf("Category = %q, want HTML entities decoded", q.Category)
	}
	if len(q.Options) != 4 {
		t.Fatalf("Options = %v, want 4 entries", q.Options)
	}
	var found bool
	for _, opt := range q.Options {
		if opt == "Water" {
			found = true
		}
	}
	if !found {
		t.Errorf("Options %v must include the correct answer", q.Options)
	}
}

func TestOpenTDBClient_FetchBoolean(t *testing.T) {
	c := opentdbServer(t, `{
		"response_code": 0,
		"results": [{
			"category": "General Knowledge",
			"type": "boolean",
			"question": "The sky is blue.",
			"correct_answer": "True",
			"incorrect_answers": ["False"]
		}]
	}`)

	q, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Kind != KindBoolean {
		t.Errorf("Kind = %q", q.Kind)
	}
	if len(q.Options) != 0 {
		t.Errorf("boolean questions carry no options, got %v", q.Options)
	}
}

func TestOpenTDBClient_FetchEmpty(t *testing.T) {
	c := opentdbServer(t, `{"response_code": 1, "results": []}`)
	if _, err := c.Fetch(context.Background()); !errors.Is(err, ErrNoQuestion) {
		t.Fatalf("err = %v, want ErrNoQuestion", err)
	}
}

func TestOpenTDBClient_FetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)
	c := &OpenTDBClient{BaseURL: srv.URL, HTTPClient: srv.Client()}

	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
