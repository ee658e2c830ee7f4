// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"time"

	"github.com/mobiletoly/go-quizsync/quizapi"
)

// DefaultMaxAttempts is how many failed submissions an answer set tolerates
const DefaultMaxAttempts = 5

// SetStatus is the derived lifecycle state of a PendingAnswerSet
type SetStatus string

const (
	StatusPending   SetStatus = "pending"
	StatusSynced    SetStatus = "synced"
	StatusAbandoned SetStatus = "abandoned" // unsynced, attempts exhausted; needs a decision from the caller
)

// PendingAnswerSet is one completed quiz waiting to be submitted
type PendingAnswerSet struct {
	ID           string           `json:"id"`
	QuizID       string           `json:"quiz_id"`
	Answers      []quizapi.Answer `json:"answers"`
	CompletedAt  time.Time        `json:"completed_at"`
	Synced       bool             `json:"synced"`
	SyncAttempts int              `json:"sync_attempts"`
}

// Status derives the set's state given the retry cap
func (p PendingAnswerSet) Status(maxAttempts int) SetStatus {
	switch {
	case p.Synced:
		return StatusSynced
	case maxAttempts > 0 && p.SyncAttempts >= maxAttempts:
		return StatusAbandoned
	default:
		return StatusPending
	}
}

// CachedQuiz is a quiz snapshot plus the time it was cached
type CachedQuiz struct {
	quizapi.Quiz
	CachedAt time.Time `json:"cached_at"`
}
