// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ServiceConfig holds configuration for the submission service
type ServiceConfig struct {
	AppName   string            // reported by the status endpoint
	Publisher EventPublisher    // nil = NopPublisher
	Metrics   SubmissionMetrics // optional
}

// SubmissionService accepts, scores and stores completed answer sets
type SubmissionService struct {
	repo   Repository
	config *ServiceConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewSubmissionService creates a new service over repo
func NewSubmissionService(repo Repository, config *ServiceConfig, logger *slog.Logger) (*SubmissionService, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository cannot be nil")
	}
	if config == nil {
		config = &ServiceConfig{AppName: "go-quizsync"}
	}
	if config.Publisher == nil {
		config.Publisher = NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionService{
		repo:   repo,
		config: config,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Submit processes one answer set for the given participant and device. Problems with the
// submission itself come back as a rejected response; the error is reserved for
// infrastructure failures.
func (s *SubmissionService) Submit(ctx context.Context, participantID, deviceID string, req *SubmitAnswersRequest) (*SubmitAnswersResponse, error) {
	if err := validateRequestShape(req); err != nil {
		return s.reject(ctx, req, err), nil
	}

	existing, err := s.repo.GetSubmission(ctx, participantID, req.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up submission %s: %w", req.SubmissionID, err)
	}
	if existing != nil {
		return s.duplicate(ctx, existing), nil
	}

	quiz, err := s.repo.GetQuiz(ctx, req.QuizID)
	if errors.Is(err, ErrQuizNotFound) {
		return s.reject(ctx, req, invalid(ReasonUnknownQuiz, "quiz %s does not exist", req.QuizID)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz %s: %w", req.QuizID, err)
	}
	if err := validateAgainstQuiz(req, quiz); err != nil {
		return s.reject(ctx, req, err), nil
	}

	score, total := scoreAnswers(quiz, req.Answers)
	sub := Submission{
		SubmissionID:  req.SubmissionID,
		ParticipantID: participantID,
		DeviceID:      deviceID,
		QuizID:        req.QuizID,
		Answers:       req.Answers,
		Score:         score,
		Total:         total,
		CompletedAt:   req.CompletedAt,
		ReceivedAt:    s.now().UTC(),
	}

	inserted, err := s.repo.InsertSubmission(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to store submission %s: %w", req.SubmissionID, err)
	}
	if !inserted {
		// Lost a race with a concurrent retry of the same submission
		stored, err := s.repo.GetSubmission(ctx, participantID, req.SubmissionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load concurrent submission %s: %w", req.SubmissionID, err)
		}
		if stored == nil {
			return nil, fmt.Errorf("submission %s neither inserted nor found", req.SubmissionID)
		}
		return s.duplicate(ctx, stored), nil
	}

	ev := AnswersSubmittedEvent{
		SubmissionID:  sub.SubmissionID,
		ParticipantID: sub.ParticipantID,
		DeviceID:      sub.DeviceID,
		QuizID:        sub.QuizID,
		Score:         sub.Score,
		Total:         sub.Total,
		CompletedAt:   sub.CompletedAt,
		ReceivedAt:    sub.ReceivedAt,
	}
	if err := s.config.Publisher.PublishAnswersSubmitted(ctx, ev); err != nil {
		// The submission is stored; downstream consumers can backfill from the table
		s.logger.Warn("Failed to publish submission event", "submission_id", sub.SubmissionID, "error", err)
	}

	s.logger.Info("Submission accepted",
		"submission_id", sub.SubmissionID,
		"participant_id", participantID,
		"quiz_id", sub.QuizID,
		"score", score,
		"total", total,
	)
	s.observe(ctx, StAccepted, "")
	return &SubmitAnswersResponse{
		Accepted:     true,
		Status:       StAccepted,
		SubmissionID: sub.SubmissionID,
		Score:        score,
		Total:        total,
	}, nil
}

// Quizzes returns every quiz without its answer key
func (s *SubmissionService) Quizzes(ctx context.Context) ([]Quiz, error) {
	defs, err := s.repo.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	out := make([]Quiz, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Quiz)
	}
	return out, nil
}

// Status reports service health for the status endpoint
func (s *SubmissionService) Status(ctx context.Context) (*StatusResponse, error) {
	defs, err := s.repo.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return &StatusResponse{
		Status:  "ok",
		Version: APIVersion,
		AppName: s.config.AppName,
		Quizzes: len(defs),
	}, nil
}

func (s *SubmissionService) reject(ctx context.Context, req *SubmitAnswersRequest, err error) *SubmitAnswersResponse {
	reason := ReasonBadPayload
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		reason = vErr.Reason
	}
	s.logger.Debug("Submission rejected", "submission_id", req.SubmissionID, "quiz_id", req.QuizID, "reason", reason, "error", err)
	s.observe(ctx, StRejected, reason)

	msg := err.Error()
	if vErr != nil {
		msg = vErr.Message
	}
	return &SubmitAnswersResponse{
		Accepted:     false,
		Status:       StRejected,
		SubmissionID: req.SubmissionID,
		Reason:       reason,
		Message:      msg,
	}
}

func (s *SubmissionService) duplicate(ctx context.Context, stored *Submission) *SubmitAnswersResponse {
	s.logger.Debug("Duplicate submission", "submission_id", stored.SubmissionID, "participant_id", stored.ParticipantID)
	s.observe(ctx, StDuplicate, "")
	return &SubmitAnswersResponse{
		Accepted:     true,
		Status:       StDuplicate,
		SubmissionID: stored.SubmissionID,
		Score:        stored.Score,
		Total:        stored.Total,
	}
}

func (s *SubmissionService) observe(ctx context.Context, status, reason string) {
	if s.config.Metrics != nil {
		s.config.Metrics.ObserveSubmission(ctx, status, reason)
	}
}

// scoreAnswers sums the points of correctly answered questions. Questions without
// points are worth one.
func scoreAnswers(quiz *QuizDefinition, answers []Answer) (score, total int) {
	selected := make(map[string]int, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedOption
	}
	for _, q := range quiz.Questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		total += points

		correct, hasKey := quiz.AnswerKey[q.ID]
		if opt, answered := selected[q.ID]; answered && hasKey && opt == correct {
			score += points
		}
	}
	return score, total
}
