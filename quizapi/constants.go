// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizapi

// API version reported by the status endpoint
const APIVersion = "1.0"

// Submission status constants
const (
	StAccepted  = "accepted"
	StDuplicate = "duplicate"
	StRejected  = "rejected"
)

// Rejection reason constants
const (
	ReasonBadPayload      = "bad_payload"
	ReasonUnknownQuiz     = "unknown_quiz"
	ReasonUnknownQuestion = "unknown_question"
	ReasonInternalError   = "internal_error"
)

// Event routing
const (
	EventsExchange             = "quiz.events"
	AnswersSubmittedRoutingKey = "answers.submitted"
)
