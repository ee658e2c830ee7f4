// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizapi

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrQuizNotFound is returned by Repository.GetQuiz for unknown quiz IDs
var ErrQuizNotFound = errors.New("quiz not found")

// QuizDefinition is a quiz plus its answer key (question ID -> correct option index).
// The key never leaves the server.
type QuizDefinition struct {
	Quiz
	AnswerKey map[string]int `json:"answer_key"`
}

// Submission is an accepted answer set as stored by the server
type Submission struct {
	SubmissionID  string    `json:"submission_id"`
	ParticipantID string    `json:"participant_id"`
	DeviceID      string    `json:"device_id"`
	QuizID        string    `json:"quiz_id"`
	Answers       []Answer  `json:"answers"`
	Score         int       `json:"score"`
	Total         int       `json:"total"`
	CompletedAt   time.Time `json:"completed_at"`
	ReceivedAt    time.Time `json:"received_at"`
}

// Repository stores quizzes and submissions. Submissions are unique per
// (participant, submission ID).
type Repository interface {
	SaveQuiz(ctx context.Context, quiz QuizDefinition) error
	GetQuiz(ctx context.Context, quizID string) (*QuizDefinition, error)
	ListQuizzes(ctx context.Context) ([]QuizDefinition, error)

	// InsertSubmission stores sub unless it already exists; inserted reports which happened
	InsertSubmission(ctx context.Context, sub Submission) (inserted bool, err error)
	GetSubmission(ctx context.Context, participantID, submissionID string) (*Submission, error)
}

// MemoryRepository is an in-process Repository for tests and demos
type MemoryRepository struct {
	mu          sync.RWMutex
	quizzes     map[string]QuizDefinition
	submissions map[string]Submission
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		quizzes:     make(map[string]QuizDefinition),
		submissions: make(map[string]Submission),
	}
}

func (m *MemoryRepository) SaveQuiz(_ context.Context, quiz QuizDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[quiz.ID] = quiz
	return nil
}

func (m *MemoryRepository) GetQuiz(_ context.Context, quizID string) (*QuizDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[quizID]
	if !ok {
		return nil, ErrQuizNotFound
	}
	return &q, nil
}

func (m *MemoryRepository) ListQuizzes(_ context.Context) ([]QuizDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]QuizDefinition, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) InsertSubmission(_ context.Context, sub Submission) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sub.ParticipantID + "/" + sub.SubmissionID
	if _, exists := m.submissions[key]; exists {
		return false, nil
	}
	m.submissions[key] = sub
	return true, nil
}

func (m *MemoryRepository) GetSubmission(_ context.Context, participantID, submissionID string) (*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.submissions[participantID+"/"+submissionID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

// SubmissionCount returns how many submissions are stored
func (m *MemoryRepository) SubmissionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.submissions)
}
