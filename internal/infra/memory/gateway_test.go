package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-player/internal/domain"
)

func answer(questionID, optionID string) domain.AnswerRecord {
	return domain.AnswerRecord{
		QuestionID:     questionID,
		OptionID:       optionID,
		ElapsedSeconds: 2,
		RecordedAt:     time.Now(),
	}
}

func TestGatewaySessionLifecycle(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(SampleQuizzes())

	if _, err := g.ActiveSession(ctx); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("active before start = %v, want ErrNoActiveSession", err)
	}

	session, err := g.StartSession(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(session.Questions) != 3 || session.Cursor != 0 {
		t.Fatalf("session = %+v, want 3 questions at cursor 0", session)
	}

	if _, err := g.StartSession(ctx, "quiz-1"); !errors.Is(err, domain.ErrSessionAlreadyActive) {
		t.Fatalf("second start = %v, want ErrSessionAlreadyActive", err)
	}

	receipt, err := g.SubmitAnswer(ctx, session.ID, answer("q1", "o2"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.Cursor != 1 || receipt.Points != 1 || receipt.Correct != 1 {
		t.Fatalf("receipt = %+v, want cursor 1 with a point", receipt)
	}

	if err := g.Abandon(ctx, session.ID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, err := g.ActiveSession(ctx); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("active after abandon = %v, want ErrNoActiveSession", err)
	}
}

func TestGatewayRejectsOutOfOrderAnswers(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(SampleQuizzes())
	session, err := g.StartSession(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := g.SubmitAnswer(ctx, session.ID, answer("q2", "o1")); !errors.Is(err, domain.ErrAnswerOutOfOrder) {
		t.Fatalf("skip-ahead submit = %v, want ErrAnswerOutOfOrder", err)
	}

	if _, err := g.SubmitAnswer(ctx, session.ID, answer("q1", "o2")); err != nil {
		t.Fatalf("in-order submit: %v", err)
	}
	if _, err := g.SubmitAnswer(ctx, session.ID, answer("q1", "o2")); !errors.Is(err, domain.ErrAnswerOutOfOrder) {
		t.Fatalf("replayed submit = %v, want ErrAnswerOutOfOrder", err)
	}
}

func TestGatewayScoresTimeoutsAsWrong(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(SampleQuizzes())
	session, err := g.StartSession(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	receipt, err := g.SubmitAnswer(ctx, session.ID, answer("q1", domain.TimedOutOption))
	if err != nil {
		t.Fatalf("submit timeout: %v", err)
	}
	if receipt.Points != 0 || receipt.Wrong != 1 {
		t.Fatalf("receipt = %+v, want 0 points and 1 wrong", receipt)
	}
}

func TestGatewayUnknownQuiz(t *testing.T) {
	g := NewGateway(SampleQuizzes())
	if _, err := g.StartSession(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("start unknown quiz = %v, want ErrQuizNotFound", err)
	}
}
