package play

import (
	"context"

	"quiz-player/internal/domain"
)

// SessionGateway is the backend contract the engine plays against. The
// backend owns scoring and session progression; every mutation of the local
// session copy comes from one of these calls.
type SessionGateway interface {
	// StartSession opens a new session for the quiz. Fails with
	// domain.ErrSessionAlreadyActive when one is already in progress and
	// domain.ErrQuizNotFound for unknown quiz IDs.
	StartSession(ctx context.Context, quizID string) (domain.QuizSession, error)
	// ActiveSession returns the caller's in-progress session or
	// domain.ErrNoActiveSession.
	ActiveSession(ctx context.Context) (domain.QuizSession, error)
	// Question fetches one question with its options.
	Question(ctx context.Context, questionID string) (domain.Question, error)
	// SubmitAnswer submits one captured answer. Fails with
	// domain.ErrAnswerOutOfOrder when the question does not match the
	// backend's expected next question.
	SubmitAnswer(ctx context.Context, sessionID string, rec domain.AnswerRecord) (domain.SubmitReceipt, error)
	// Abandon terminates the session on the backend.
	Abandon(ctx context.Context, sessionID string) error
}

// QuestionSource fetches question content. The engine is normally wired with
// a caching source in front of the gateway so revisiting a question does not
// refetch it.
type QuestionSource interface {
	Question(ctx context.Context, questionID string) (domain.Question, error)
}

// AnswerBuffer stores captured answers until the backend acknowledges them
// (in-memory, Redis, etc). Put replaces any earlier record for the same
// question. Records survive failed submissions and are only dropped by Clear.
type AnswerBuffer interface {
	Put(ctx context.Context, rec domain.AnswerRecord) error
	Get(ctx context.Context, questionID string) (domain.AnswerRecord, bool, error)
	// OrderedFor returns records for the given question IDs in that order,
	// omitting IDs with no record.
	OrderedFor(ctx context.Context, questionIDs []string) ([]domain.AnswerRecord, error)
	IsEmpty(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}

// ResultArchive persists finished-session summaries. Archiving is
// best-effort; failures never block a session from finishing.
type ResultArchive interface {
	Record(ctx context.Context, sessionID, quizID string, summary domain.ResultSummary) error
}
