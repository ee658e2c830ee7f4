// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizapi

import (
	"time"
)

// REST/JSON models shared by the submission server and the offline client

// Answer is one (question, selected option) pair of a completed quiz
type Answer struct {
	QuestionID     string `json:"question_id"`
	SelectedOption int    `json:"selected_option"` // zero-based index into Question.Options
}

// Option is a single choice of a question
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a multiple-choice question; options are ordered
type Question struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Reference string   `json:"reference,omitempty"` // Scripture reference, e.g. "John 3:16"
	Points    int      `json:"points"`
	TimeLimit int      `json:"time_limit"` // seconds
	Options   []Option `json:"options"`
}

// Quiz is the denormalized quiz snapshot a client caches for offline play
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Difficulty  string     `json:"difficulty,omitempty"`
	TimeLimit   int        `json:"time_limit"` // seconds, 0 = untimed
	Questions   []Question `json:"questions"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// QuizListResponse is returned by GET /quiz/quizzes
type QuizListResponse struct {
	Quizzes []Quiz `json:"quizzes"`
}

// SubmitAnswersRequest is sent by a client for one completed quiz.
// Participant and device come from the JWT, not from the body.
type SubmitAnswersRequest struct {
	SubmissionID string    `json:"submission_id"` // client-generated, stable across retries
	QuizID       string    `json:"quiz_id"`
	Answers      []Answer  `json:"answers"`
	CompletedAt  time.Time `json:"completed_at"`
}

// SubmitAnswersResponse reports the outcome of a submission
type SubmitAnswersResponse struct {
	Accepted     bool   `json:"accepted"`
	Status       string `json:"status"` // "accepted", "duplicate", "rejected"
	SubmissionID string `json:"submission_id"`
	Score        int    `json:"score"`
	Total        int    `json:"total"`
	Reason       string `json:"reason,omitempty"`
	Message      string `json:"message,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusResponse represents service status response
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	AppName string `json:"app_name"`
	Quizzes int    `json:"quizzes"`
}
