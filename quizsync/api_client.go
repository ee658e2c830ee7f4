// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mobiletoly/go-quizsync/localstore"
	"github.com/mobiletoly/go-quizsync/quizapi"
)

// SubmitError reports a submission the server did not accept
type SubmitError struct {
	StatusCode int    // HTTP status, 0 when the response body carried the rejection
	Reason     string // server rejection reason, if any
	Message    string
}

func (e *SubmitError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
	}
	if e.Reason != "" {
		return fmt.Sprintf("submission rejected (%s): %s", e.Reason, e.Message)
	}
	return "submission rejected: " + e.Message
}

// IsAuth reports whether the server refused the session token
func (e *SubmitError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// APIClient talks to the quiz submission service over HTTP
type APIClient struct {
	BaseURL string
	Token   func(context.Context) (string, error) // returns JWT
	HTTP    *http.Client
	Limiter *rate.Limiter // optional; paces requests when draining a long queue
	logger  *slog.Logger
}

// NewAPIClient creates a client with a 30 second HTTP timeout and no rate limit
func NewAPIClient(baseURL string, tok func(ctx context.Context) (string, error), logger *slog.Logger) *APIClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   tok,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// WithRateLimit paces requests to at most perSecond with the given burst
func (c *APIClient) WithRateLimit(perSecond float64, burst int) *APIClient {
	c.Limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// SubmitAnswers sends one answer set. The set ID doubles as the submission ID so a
// retry after a lost response is recognized by the server as a duplicate.
func (c *APIClient) SubmitAnswers(ctx context.Context, set localstore.PendingAnswerSet) error {
	req := quizapi.SubmitAnswersRequest{
		SubmissionID: set.ID,
		QuizID:       set.QuizID,
		Answers:      set.Answers,
		CompletedAt:  set.CompletedAt,
	}

	jsonData, err := json.Marshal(&req)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	var submitResp quizapi.SubmitAnswersResponse
	if err := c.do(ctx, http.MethodPost, "/quiz/submissions", jsonData, &submitResp); err != nil {
		return err
	}

	if !submitResp.Accepted {
		return &SubmitError{Reason: submitResp.Reason, Message: submitResp.Message}
	}

	c.logger.Debug("Answer set accepted",
		"answer_set_id", set.ID,
		"status", submitResp.Status,
		"score", submitResp.Score,
		"total", submitResp.Total,
	)
	return nil
}

// FetchQuizzes downloads the quizzes available for offline play
func (c *APIClient) FetchQuizzes(ctx context.Context) ([]quizapi.Quiz, error) {
	var listResp quizapi.QuizListResponse
	if err := c.do(ctx, http.MethodGet, "/quiz/quizzes", nil, &listResp); err != nil {
		return nil, err
	}
	return listResp.Quizzes, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	if c.Token != nil {
		token, err := c.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to get JWT token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return &SubmitError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage prefers the JSON error envelope and falls back to the raw body
func errorMessage(raw []byte) string {
	var envelope quizapi.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return strings.TrimSpace(string(raw))
}
