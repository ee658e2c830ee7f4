// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository stores quizzes and submissions in PostgreSQL
type PGRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPGRepository creates the repository and initializes its schema
func NewPGRepository(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*PGRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return initializeSchemaInTx(ctx, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	logger.Debug("Database schema initialized successfully")

	return &PGRepository{pool: pool, logger: logger}, nil
}

func (r *PGRepository) SaveQuiz(ctx context.Context, quiz QuizDefinition) error {
	payload, err := json.Marshal(quiz.Quiz)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz %s: %w", quiz.ID, err)
	}
	key := quiz.AnswerKey
	if key == nil {
		key = map[string]int{}
	}
	answerKey, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("failed to marshal answer key for %s: %w", quiz.ID, err)
	}

	return withTxRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO quiz.quizzes (quiz_id, payload, answer_key, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (quiz_id) DO UPDATE
			SET payload = EXCLUDED.payload, answer_key = EXCLUDED.answer_key, updated_at = now()`,
			quiz.ID, payload, answerKey)
		return err
	})
}

func (r *PGRepository) GetQuiz(ctx context.Context, quizID string) (*QuizDefinition, error) {
	var payload, answerKey []byte
	err := r.pool.QueryRow(ctx,
		`SELECT payload, answer_key FROM quiz.quizzes WHERE quiz_id = $1`, quizID,
	).Scan(&payload, &answerKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeQuiz(payload, answerKey)
}

func (r *PGRepository) ListQuizzes(ctx context.Context) ([]QuizDefinition, error) {
	rows, err := r.pool.Query(ctx, `SELECT payload, answer_key FROM quiz.quizzes ORDER BY quiz_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuizDefinition
	for rows.Next() {
		var payload, answerKey []byte
		if err := rows.Scan(&payload, &answerKey); err != nil {
			return nil, err
		}
		def, err := decodeQuiz(payload, answerKey)
		if err != nil {
			return nil, err
		}
		out = append(out, *def)
	}
	return out, rows.Err()
}

func (r *PGRepository) InsertSubmission(ctx context.Context, sub Submission) (bool, error) {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return false, fmt.Errorf("failed to marshal answers: %w", err)
	}

	var inserted bool
	err = withTxRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, `
			INSERT INTO quiz.submissions
				(participant_id, submission_id, device_id, quiz_id, answers, score, total, completed_at, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (participant_id, submission_id) DO NOTHING`,
			sub.ParticipantID, sub.SubmissionID, sub.DeviceID, sub.QuizID, answers,
			sub.Score, sub.Total, sub.CompletedAt, sub.ReceivedAt)
		if err != nil {
			return err
		}
		inserted = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *PGRepository) GetSubmission(ctx context.Context, participantID, submissionID string) (*Submission, error) {
	var sub Submission
	var answers []byte
	err := r.pool.QueryRow(ctx, `
		SELECT participant_id, submission_id, device_id, quiz_id, answers, score, total, completed_at, received_at
		FROM quiz.submissions
		WHERE participant_id = $1 AND submission_id = $2`,
		participantID, submissionID,
	).Scan(&sub.ParticipantID, &sub.SubmissionID, &sub.DeviceID, &sub.QuizID, &answers,
		&sub.Score, &sub.Total, &sub.CompletedAt, &sub.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &sub.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers of %s: %w", submissionID, err)
	}
	return &sub, nil
}

func decodeQuiz(payload, answerKey []byte) (*QuizDefinition, error) {
	var def QuizDefinition
	if err := json.Unmarshal(payload, &def.Quiz); err != nil {
		return nil, fmt.Errorf("failed to decode quiz payload: %w", err)
	}
	if err := json.Unmarshal(answerKey, &def.AnswerKey); err != nil {
		return nil, fmt.Errorf("failed to decode answer key: %w", err)
	}
	return &def, nil
}
