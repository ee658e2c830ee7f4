// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/mobiletoly/go-quizsync/quizapi"
)

// TestHarness runs the submission service on PostgreSQL behind an httptest server
type TestHarness struct {
	t      *testing.T
	ctx    context.Context
	pool   *pgxpool.Pool
	repo   *quizapi.PGRepository
	server *httptest.Server
	auth   *quizapi.JWTAuth
	events *recordingPublisher
	logger *slog.Logger

	participant1 string
	participant2 string
	token1       string // participant1, device A
	token1b      string // participant1, device B
	token2       string // participant2
}

// NewTestHarness connects to TEST_DATABASE_URL or skips the test
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pool, err := pgxpool.New(ctx, databaseURL)
	require.NoError(t, err)

	repo, err := quizapi.NewPGRepository(ctx, pool, logger)
	require.NoError(t, err)

	events := &recordingPublisher{}
	service, err := quizapi.NewSubmissionService(repo, &quizapi.ServiceConfig{
		AppName:   "go-quizsync-test",
		Publisher: events,
	}, logger)
	require.NoError(t, err)

	jwtAuth := quizapi.NewJWTAuth("test-secret-key")
	mux := http.NewServeMux()
	quizapi.NewHTTPHandlers(service, logger).Register(mux, jwtAuth)

	h := &TestHarness{
		t:            t,
		ctx:          ctx,
		pool:         pool,
		repo:         repo,
		server:       httptest.NewServer(mux),
		auth:         jwtAuth,
		events:       events,
		logger:       logger,
		participant1: "participant-" + uuid.NewString(),
		participant2: "participant-" + uuid.NewString(),
	}
	h.token1 = h.token(h.participant1, "device-a")
	h.token1b = h.token(h.participant1, "device-b")
	h.token2 = h.token(h.participant2, "device-c")

	h.Reset()
	t.Cleanup(h.Cleanup)
	return h
}

// Reset removes this harness's submissions and (re)seeds the test quiz. Other packages may
// share the database, so only rows owned by the harness participants are touched.
func (h *TestHarness) Reset() {
	_, err := h.pool.Exec(h.ctx,
		`DELETE FROM quiz.submissions WHERE participant_id = ANY($1)`,
		[]string{h.participant1, h.participant2})
	require.NoError(h.t, err)
	require.NoError(h.t, h.repo.SaveQuiz(h.ctx, testQuiz()))
	h.events.reset()
}

func (h *TestHarness) Cleanup() {
	h.server.Close()
	h.pool.Close()
}

func (h *TestHarness) token(participantID, deviceID string) string {
	tok, err := h.auth.GenerateToken(participantID, deviceID, time.Hour)
	require.NoError(h.t, err)
	return tok
}

// DoSubmit posts req with token and decodes the response body when it is a submission response
func (h *TestHarness) DoSubmit(token string, req *quizapi.SubmitAnswersRequest) (*quizapi.SubmitAnswersResponse, *http.Response) {
	body, err := json.Marshal(req)
	require.NoError(h.t, err)

	httpReq, err := http.NewRequest(http.MethodPost, h.server.URL+"/quiz/submissions", bytes.NewReader(body))
	require.NoError(h.t, err)
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp
	}
	var out quizapi.SubmitAnswersResponse
	require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&out))
	return &out, resp
}

// CountSubmissions counts stored rows for a participant
func (h *TestHarness) CountSubmissions(participantID string) int {
	var n int
	err := h.pool.QueryRow(h.ctx,
		`SELECT count(*) FROM quiz.submissions WHERE participant_id = $1`, participantID).Scan(&n)
	require.NoError(h.t, err)
	return n
}

func testQuiz() quizapi.QuizDefinition {
	return quizapi.QuizDefinition{
		Quiz: quizapi.Quiz{
			ID:        "exodus",
			Title:     "Exodus",
			UpdatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			Questions: []quizapi.Question{
				{ID: "ex-1", Text: "Who led Israel out of Egypt?", Points: 1,
					Options: []quizapi.Option{{ID: "a", Text: "Moses"}, {ID: "b", Text: "Joshua"}}},
				{ID: "ex-2", Text: "How many plagues struck Egypt?", Points: 2,
					Options: []quizapi.Option{{ID: "a", Text: "Seven"}, {ID: "b", Text: "Ten"}}},
			},
		},
		AnswerKey: map[string]int{"ex-1": 0, "ex-2": 1},
	}
}

func submission(id string) *quizapi.SubmitAnswersRequest {
	return &quizapi.SubmitAnswersRequest{
		SubmissionID: id,
		QuizID:       "exodus",
		Answers: []quizapi.Answer{
			{QuestionID: "ex-1", SelectedOption: 0},
			{QuestionID: "ex-2", SelectedOption: 1},
		},
		CompletedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []quizapi.AnswersSubmittedEvent
}

func (p *recordingPublisher) PublishAnswersSubmitted(_ context.Context, ev quizapi.AnswersSubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
