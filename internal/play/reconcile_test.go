package play

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-player/internal/domain"
	"quiz-player/internal/infra/memory"
)

// flushGateway scripts per-question submission outcomes and records the
// order submissions arrive in.
type flushGateway struct {
	mu        sync.Mutex
	cursor    int
	submitted []string
	errs      map[string]error
}

func (g *flushGateway) SubmitAnswer(_ context.Context, _ string, rec domain.AnswerRecord) (domain.SubmitReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitted = append(g.submitted, rec.QuestionID)
	if err, ok := g.errs[rec.QuestionID]; ok {
		return domain.SubmitReceipt{}, err
	}
	g.cursor++
	return domain.SubmitReceipt{
		Cursor:  g.cursor,
		Points:  g.cursor,
		Correct: g.cursor,
	}, nil
}

func (g *flushGateway) StartSession(context.Context, string) (domain.QuizSession, error) {
	return domain.QuizSession{}, domain.ErrQuizNotFound
}

func (g *flushGateway) ActiveSession(context.Context) (domain.QuizSession, error) {
	return domain.QuizSession{}, domain.ErrNoActiveSession
}

func (g *flushGateway) Question(context.Context, string) (domain.Question, error) {
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (g *flushGateway) Abandon(context.Context, string) error { return nil }

func bufferWith(t *testing.T, records ...domain.AnswerRecord) *memory.AnswerBuffer {
	t.Helper()
	buffer := memory.NewAnswerBuffer()
	for _, rec := range records {
		if err := buffer.Put(context.Background(), rec); err != nil {
			t.Fatalf("put record: %v", err)
		}
	}
	return buffer
}

func record(questionID string) domain.AnswerRecord {
	return domain.AnswerRecord{
		QuestionID:     questionID,
		OptionID:       "o1",
		ElapsedSeconds: 3,
		RecordedAt:     time.Now(),
	}
}

func TestFlushSubmitsInPlayOrder(t *testing.T) {
	gateway := &flushGateway{}
	// inserted out of order on purpose
	buffer := bufferWith(t, record("q2"), record("q0"), record("q1"))
	session := domain.QuizSession{ID: "s1", Questions: []string{"q0", "q1", "q2"}}

	outcome := flushBuffered(context.Background(), gateway, buffer, session, 0)

	want := []string{"q0", "q1", "q2"}
	if len(gateway.submitted) != len(want) {
		t.Fatalf("submitted %v, want %v", gateway.submitted, want)
	}
	for i := range want {
		if gateway.submitted[i] != want[i] {
			t.Fatalf("submitted %v, want %v", gateway.submitted, want)
		}
	}
	if !outcome.Confirmed || outcome.Session.Cursor != 3 {
		t.Fatalf("outcome = %+v, want confirmed with cursor 3", outcome)
	}
}

func TestFlushStartsAtConfirmedCursor(t *testing.T) {
	gateway := &flushGateway{cursor: 1}
	buffer := bufferWith(t, record("q0"), record("q1"), record("q2"))
	session := domain.QuizSession{ID: "s1", Questions: []string{"q0", "q1", "q2"}, Cursor: 1}

	outcome := flushBuffered(context.Background(), gateway, buffer, session, 0)

	if len(gateway.submitted) != 2 || gateway.submitted[0] != "q1" {
		t.Fatalf("submitted %v, want [q1 q2]", gateway.submitted)
	}
	if outcome.Session.Cursor != 3 {
		t.Fatalf("cursor = %d, want 3", outcome.Session.Cursor)
	}
}

func TestFlushOutOfOrderContinues(t *testing.T) {
	gateway := &flushGateway{
		cursor: 1, // backend already counted q0
		errs:   map[string]error{"q0": domain.ErrAnswerOutOfOrder},
	}
	buffer := bufferWith(t, record("q0"), record("q1"), record("q2"))
	session := domain.QuizSession{ID: "s1", Questions: []string{"q0", "q1", "q2"}}

	outcome := flushBuffered(context.Background(), gateway, buffer, session, 0)

	if len(gateway.submitted) != 3 {
		t.Fatalf("submitted %v, want all three attempted", gateway.submitted)
	}
	if !outcome.Confirmed || outcome.Session.Cursor != 3 {
		t.Fatalf("outcome = %+v, want confirmed with cursor 3", outcome)
	}
}

func TestFlushSkipsFailedSubmission(t *testing.T) {
	gateway := &flushGateway{
		errs: map[string]error{"q1": errors.New("backend hiccup")},
	}
	buffer := bufferWith(t, record("q0"), record("q1"), record("q2"))
	session := domain.QuizSession{ID: "s1", Questions: []string{"q0", "q1", "q2"}}

	outcome := flushBuffered(context.Background(), gateway, buffer, session, 0)

	if len(gateway.submitted) != 3 {
		t.Fatalf("submitted %v, want q2 attempted after q1 failed", gateway.submitted)
	}
	// counters come from the last acknowledged submission only
	if !outcome.Confirmed || outcome.Session.Points != 2 {
		t.Fatalf("outcome = %+v, want confirmed with 2 points", outcome)
	}
}

func TestFlushWithNothingPendingKeepsConfirmedCounters(t *testing.T) {
	gateway := &flushGateway{}
	buffer := memory.NewAnswerBuffer()
	session := domain.QuizSession{ID: "s1", Questions: []string{"q0"}, Cursor: 1, Points: 1, Correct: 1}

	outcome := flushBuffered(context.Background(), gateway, buffer, session, 0)

	if len(gateway.submitted) != 0 {
		t.Fatalf("expected no submissions, got %v", gateway.submitted)
	}
	// nothing pending means the adopted counters were already acknowledged
	if !outcome.Confirmed || outcome.Session.Points != 1 {
		t.Fatalf("outcome = %+v, want confirmed with 1 point", outcome)
	}
}

func TestFlushWithNoRecordsStaysUnconfirmed(t *testing.T) {
	gateway := &flushGateway{}
	buffer := memory.NewAnswerBuffer()
	session := domain.QuizSession{ID: "s1", Questions: []string{"q0", "q1"}}

	outcome := flushBuffered(context.Background(), gateway, buffer, session, 0)

	if outcome.Confirmed || len(gateway.submitted) != 0 {
		t.Fatalf("expected unconfirmed no-op flush, got %+v / %v", outcome, gateway.submitted)
	}
}
