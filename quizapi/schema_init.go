// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizapi

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// initializeSchemaInTx creates the quiz tables within an existing transaction
func initializeSchemaInTx(ctx context.Context, tx pgx.Tx) error {
	migrations := []string{
		/*language=postgresql*/ `CREATE SCHEMA IF NOT EXISTS quiz`,

		// Quiz content; the answer key is stored next to the client-facing snapshot
		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS quiz.quizzes (
			quiz_id     TEXT        PRIMARY KEY,
			payload     JSONB       NOT NULL,
			answer_key  JSONB       NOT NULL DEFAULT '{}'::jsonb,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		// One row per accepted submission; the key makes client retries idempotent
		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS quiz.submissions (
			participant_id TEXT        NOT NULL,
			submission_id  TEXT        NOT NULL,
			device_id      TEXT        NOT NULL,
			quiz_id        TEXT        NOT NULL REFERENCES quiz.quizzes(quiz_id),
			answers        JSONB       NOT NULL,
			score          INTEGER     NOT NULL,
			total          INTEGER     NOT NULL,
			completed_at   TIMESTAMPTZ NOT NULL,
			received_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (participant_id, submission_id)
		)`,

		/*language=postgresql*/ `CREATE INDEX IF NOT EXISTS submissions_quiz_idx
			ON quiz.submissions (quiz_id, received_at)`,
	}

	for i, m := range migrations {
		if _, err := tx.Exec(ctx, m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
