// Package localstore persists cached quiz content and the queue of completed answer sets
// that still have to reach the server. It does no networking.
//
// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mobiletoly/go-quizsync/quizapi"
	"github.com/mobiletoly/go-quizsync/quizkv"
)

// Storage keys
const (
	KeyCachedQuizzes  = "quizsync:cached_quizzes"
	KeyPendingAnswers = "quizsync:pending_answers"
	KeyLastSyncTime   = "quizsync:last_sync_time"
)

// ErrInvalidQuizID is returned when an answer set is enqueued without a quiz ID
var ErrInvalidQuizID = errors.New("quiz id must not be empty")

// EnqueueError is returned when a completed answer set could not be persisted.
// Callers must surface it: the participant's answers exist nowhere else.
type EnqueueError struct {
	QuizID string
	Err    error
}

func (e *EnqueueError) Error() string {
	return fmt.Sprintf("failed to save answers for quiz %s: %v", e.QuizID, e.Err)
}

func (e *EnqueueError) Unwrap() error { return e.Err }

// Store is the local store. All methods are safe for concurrent use.
type Store struct {
	kv     quizkv.Storage
	logger *slog.Logger
	now    func() time.Time

	// Serializes read-modify-write of the keys above
	mu sync.Mutex
}

// New creates a store over kv. A nil logger falls back to slog.Default().
func New(kv quizkv.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kv,
		logger: logger,
		now:    time.Now,
	}
}

// CacheQuiz inserts or replaces quiz in the cached collection. Caching is best effort:
// failures are logged, never returned.
func (s *Store) CacheQuiz(ctx context.Context, quiz quizapi.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, err := s.loadCachedQuizzes(ctx)
	if err != nil {
		s.logger.Warn("Failed to load quiz cache, rebuilding", "error", err)
		cached = nil
	}

	entry := CachedQuiz{Quiz: quiz, CachedAt: s.now().UTC()}
	replaced := false
	for i := range cached {
		if cached[i].ID == quiz.ID {
			cached[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		cached = append(cached, entry)
	}

	if err := quizkv.SetJSON(ctx, s.kv, KeyCachedQuizzes, cached); err != nil {
		s.logger.Error("Failed to cache quiz", "quiz_id", quiz.ID, "error", err)
	}
}

// CachedQuizzes returns every cached quiz, or an empty slice when the cache can't be read.
func (s *Store) CachedQuizzes(ctx context.Context) []CachedQuiz {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, err := s.loadCachedQuizzes(ctx)
	if err != nil {
		s.logger.Error("Failed to read cached quizzes", "error", err)
		return []CachedQuiz{}
	}
	return cached
}

// CachedQuiz returns the cached copy of one quiz
func (s *Store) CachedQuiz(ctx context.Context, quizID string) (CachedQuiz, bool) {
	for _, q := range s.CachedQuizzes(ctx) {
		if q.ID == quizID {
			return q, true
		}
	}
	return CachedQuiz{}, false
}

// EnqueuePendingAnswers persists a newly completed answer set and returns its ID.
// Any failure is returned as *EnqueueError.
func (s *Store) EnqueuePendingAnswers(ctx context.Context, quizID string, answers []quizapi.Answer) (string, error) {
	if quizID == "" {
		return "", &EnqueueError{QuizID: quizID, Err: ErrInvalidQuizID}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadQueue(ctx)
	if err != nil {
		// Overwriting an unreadable queue would destroy earlier submissions
		return "", &EnqueueError{QuizID: quizID, Err: err}
	}

	completedAt := s.now().UTC()
	id := uniqueSetID(queue, quizID, completedAt)

	copied := make([]quizapi.Answer, len(answers))
	copy(copied, answers)

	queue = append(queue, PendingAnswerSet{
		ID:           id,
		QuizID:       quizID,
		Answers:      copied,
		CompletedAt:  completedAt,
		Synced:       false,
		SyncAttempts: 0,
	})

	if err := quizkv.SetJSON(ctx, s.kv, KeyPendingAnswers, queue); err != nil {
		s.logger.Error("Failed to persist pending answers", "quiz_id", quizID, "error", err)
		return "", &EnqueueError{QuizID: quizID, Err: err}
	}

	s.logger.Debug("Queued answer set", "answer_set_id", id, "quiz_id", quizID, "answers", len(copied))
	return id, nil
}

// UnsyncedAnswerSets returns unsynced sets in the order they were enqueued.
// Read failures yield an empty slice.
func (s *Store) UnsyncedAnswerSets(ctx context.Context) []PendingAnswerSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadQueue(ctx)
	if err != nil {
		s.logger.Error("Failed to read pending answers", "error", err)
		return []PendingAnswerSet{}
	}

	out := make([]PendingAnswerSet, 0, len(queue))
	for _, set := range queue {
		if !set.Synced {
			out = append(out, set)
		}
	}
	return out
}

// AbandonedAnswerSets returns unsynced sets that exhausted maxAttempts
func (s *Store) AbandonedAnswerSets(ctx context.Context, maxAttempts int) []PendingAnswerSet {
	var out []PendingAnswerSet
	for _, set := range s.UnsyncedAnswerSets(ctx) {
		if set.Status(maxAttempts) == StatusAbandoned {
			out = append(out, set)
		}
	}
	return out
}

// PendingCount returns the number of unsynced answer sets
func (s *Store) PendingCount(ctx context.Context) int {
	return len(s.UnsyncedAnswerSets(ctx))
}

// MarkSynced flags the set as synced. Unknown IDs are ignored.
func (s *Store) MarkSynced(ctx context.Context, id string) error {
	return s.updateSet(ctx, id, func(set *PendingAnswerSet) bool {
		if set.Synced {
			return false
		}
		set.Synced = true
		return true
	})
}

// IncrementAttempts bumps the sync attempt counter. Unknown IDs are ignored.
func (s *Store) IncrementAttempts(ctx context.Context, id string) error {
	return s.updateSet(ctx, id, func(set *PendingAnswerSet) bool {
		set.SyncAttempts++
		return true
	})
}

// PruneSynced drops every synced set from the persisted queue and reports how many were removed.
func (s *Store) PruneSynced(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadQueue(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending answers: %w", err)
	}

	kept := queue[:0]
	for _, set := range queue {
		if !set.Synced {
			kept = append(kept, set)
		}
	}
	removed := len(queue) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := quizkv.SetJSON(ctx, s.kv, KeyPendingAnswers, kept); err != nil {
		return 0, fmt.Errorf("failed to persist pruned queue: %w", err)
	}
	return removed, nil
}

// DiscardAnswerSet removes an unsynced set for good. This is the manual resolution path
// for abandoned sets; it reports whether anything was removed.
func (s *Store) DiscardAnswerSet(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadQueue(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load pending answers: %w", err)
	}

	for i := range queue {
		if queue[i].ID != id {
			continue
		}
		queue = append(queue[:i], queue[i+1:]...)
		if err := quizkv.SetJSON(ctx, s.kv, KeyPendingAnswers, queue); err != nil {
			return false, fmt.Errorf("failed to persist queue: %w", err)
		}
		s.logger.Warn("Discarded answer set", "answer_set_id", id)
		return true, nil
	}
	return false, nil
}

// LastSyncTime returns when the last sync cycle finished
func (s *Store) LastSyncTime(ctx context.Context) (time.Time, bool) {
	var t time.Time
	found, err := quizkv.GetJSON(ctx, s.kv, KeyLastSyncTime, &t)
	if err != nil {
		s.logger.Warn("Failed to read last sync time", "error", err)
		return time.Time{}, false
	}
	return t, found
}

// SetLastSyncTime records when a sync cycle finished
func (s *Store) SetLastSyncTime(ctx context.Context, t time.Time) error {
	if err := quizkv.SetJSON(ctx, s.kv, KeyLastSyncTime, t.UTC()); err != nil {
		return fmt.Errorf("failed to store last sync time: %w", err)
	}
	return nil
}

// Clear removes cached quizzes, the pending queue and the last sync time
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{KeyCachedQuizzes, KeyPendingAnswers, KeyLastSyncTime} {
		if err := s.kv.Remove(ctx, key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) updateSet(ctx context.Context, id string, mutate func(set *PendingAnswerSet) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, err := s.loadQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending answers: %w", err)
	}

	for i := range queue {
		if queue[i].ID != id {
			continue
		}
		if !mutate(&queue[i]) {
			return nil
		}
		if err := quizkv.SetJSON(ctx, s.kv, KeyPendingAnswers, queue); err != nil {
			return fmt.Errorf("failed to update answer set %s: %w", id, err)
		}
		return nil
	}
	return nil
}

func (s *Store) loadQueue(ctx context.Context) ([]PendingAnswerSet, error) {
	var queue []PendingAnswerSet
	if _, err := quizkv.GetJSON(ctx, s.kv, KeyPendingAnswers, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

func (s *Store) loadCachedQuizzes(ctx context.Context) ([]CachedQuiz, error) {
	var cached []CachedQuiz
	if _, err := quizkv.GetJSON(ctx, s.kv, KeyCachedQuizzes, &cached); err != nil {
		return nil, err
	}
	if cached == nil {
		cached = []CachedQuiz{}
	}
	return cached, nil
}

// uniqueSetID builds "<quizID>_<unix millis>", moving the millisecond forward until the
// ID is not already in the queue.
func uniqueSetID(queue []PendingAnswerSet, quizID string, at time.Time) string {
	taken := make(map[string]struct{}, len(queue))
	for _, set := range queue {
		taken[set.ID] = struct{}{}
	}
	ms := at.UnixMilli()
	for {
		id := fmt.Sprintf("%s_%d", quizID, ms)
		if _, ok := taken[id]; !ok {
			return id
		}
		ms++
	}
}
