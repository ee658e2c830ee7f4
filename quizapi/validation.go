// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package quizapi

import (
	"fmt"
)

const maxSubmissionIDLength = 128

// ValidationError is a submission problem reported back to the client as a rejection
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func invalid(reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// validateRequestShape checks everything that does not need the quiz definition
func validateRequestShape(req *SubmitAnswersRequest) error {
	if req.SubmissionID == "" {
		return invalid(ReasonBadPayload, "submission_id is required")
	}
	if len(req.SubmissionID) > maxSubmissionIDLength {
		return invalid(ReasonBadPayload, "submission_id exceeds %d characters", maxSubmissionIDLength)
	}
	if req.QuizID == "" {
		return invalid(ReasonBadPayload, "quiz_id is required")
	}

	seen := make(map[string]struct{}, len(req.Answers))
	for i, a := range req.Answers {
		if a.QuestionID == "" {
			return invalid(ReasonBadPayload, "answers[%d].question_id is required", i)
		}
		if a.SelectedOption < 0 {
			return invalid(ReasonBadPayload, "answers[%d].selected_option must be >= 0", i)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return invalid(ReasonBadPayload, "question %s answered more than once", a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
	}
	return nil
}

// validateAgainstQuiz checks that every answer refers to an existing question and option
func validateAgainstQuiz(req *SubmitAnswersRequest, quiz *QuizDefinition) error {
	questions := make(map[string]Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions[q.ID] = q
	}
	for _, a := range req.Answers {
		q, ok := questions[a.QuestionID]
		if !ok {
			return invalid(ReasonUnknownQuestion, "question %s is not part of quiz %s", a.QuestionID, quiz.ID)
		}
		if a.SelectedOption >= len(q.Options) {
			return invalid(ReasonBadPayload, "question %s has no option %d", a.QuestionID, a.SelectedOption)
		}
	}
	return nil
}
