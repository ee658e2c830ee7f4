// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizsync

import (
	"context"
	"fmt"

	"github.com/mobiletoly/go-quizsync/quizapi"
)

// QuizFetcher downloads quiz content for offline play
type QuizFetcher interface {
	FetchQuizzes(ctx context.Context) ([]quizapi.Quiz, error)
}

// QuizCache stores quiz content locally
type QuizCache interface {
	CacheQuiz(ctx context.Context, quiz quizapi.Quiz)
}

// RefreshQuizCache fetches every quiz and caches it. It does nothing while offline and
// returns how many quizzes were cached.
func (c *Coordinator) RefreshQuizCache(ctx context.Context, fetcher QuizFetcher, cache QuizCache) (int, error) {
	if !c.conn.ConnectionStatus() {
		return 0, nil
	}

	quizzes, err := fetcher.FetchQuizzes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch quizzes: %w", err)
	}
	for _, q := range quizzes {
		cache.CacheQuiz(ctx, q)
	}

	c.logger.Info("Quiz cache refreshed", "quizzes", len(quizzes))
	return len(quizzes), nil
}
