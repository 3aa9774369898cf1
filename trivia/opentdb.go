package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// OpenTDBClient fetches questions from the Open Trivia Database REST API.
// Kept as a legacy source for deployments without a loaded question bank.
type OpenTDBClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

type opentdbResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Category         string   `json:"category"`
		Type             string   `json:"type"`
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

// Fetch retrieves one question. API errors and empty result sets surface as
// ErrNoQuestion so callers treat them like an exhausted bank.
func (c *OpenTDBClient) Fetch(ctx context.Context) (*Question, error) {
	url := c.BaseURL + "?amount=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opentdb request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("opentdb status %d: %s", resp.StatusCode, string(body))
	}
	var out opentdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("opentdb decode: %w", err)
	}
	if out.ResponseCode != 0 || len(out.Results) == 0 {
		return nil, ErrNoQuestion
	}

	r := out.Results[0]
	q := &Question{
		Prompt:   html.UnescapeString(r.Question),
		Answer:   html.UnescapeString(r.CorrectAnswer),
		Category: html.UnescapeString(r.Category),
		Source:   "opentdb",
	}
	switch r.Type {
	case "boolean":
		q.Kind = KindBoolean
	case "multiple":
		q.Kind = KindMultipleChoice
		q.Options = append(q.Options, q.Answer)
		for _, a := range r.IncorrectAnswers {
			q.Options = append(q.Options, html.UnescapeString(a))
		}
		rand.Shuffle(len(q.Options), func(i, j int) {
			q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
		})
	default:
		q.Kind = KindOpenEnded
	}
	return q, nil
}

// OpenTDBHandler serves API-sourced questions through the same capability set
// as the database handlers.
type OpenTDBHandler struct {
	round
	next func(ctx context.Context) (*Question, error)
}

func NewOpenTDBHandler(client *OpenTDBClient) *OpenTDBHandler {
	return &OpenTDBHandler{next: client.Fetch}
}

func (h *OpenTDBHandler) Start(ctx context.Context, force bool) (string, error) {
	if h.active && !force {
		return h.alreadyActiveMessage(), nil
	}
	q, err := h.next(ctx)
	if err != nil {
		return "", fmt.Errorf("load opentdb question: %w", err)
	}
	h.question = q
	h.active = true
	return "📚 " + FormatPrompt(q), nil
}

func (h *OpenTDBHandler) CheckAnswer(_ context.Context, answer, username string) (bool, string, error) {
	if !h.active || h.question == nil {
		return false, noActiveTrivia, nil
	}
	ok, msg := h.resolve(matches(h.question, answer), username)
	return ok, msg, nil
}

func (h *OpenTDBHandler) End() string { return h.end() }

func (h *OpenTDBHandler) Help() string {
	return "🎲 TRIVIA: !trivia starts a round from the online question pool, !answer <text> answers it, !giveup reveals the answer."
}
