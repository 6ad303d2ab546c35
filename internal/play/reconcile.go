package play

import (
	"context"
	"errors"
	"log"
	"time"

	"quiz-player/internal/domain"
)

// flushOutcome carries the last acknowledged counters out of a flush.
// Confirmed is false when no submission succeeded.
type flushOutcome struct {
	Session   domain.QuizSession
	Confirmed bool
}

// flushBuffered submits buffered answers to the backend, strictly in play
// order, starting at the backend-confirmed cursor. The backend advances its
// cursor by exactly one per accepted submission and rejects anything else,
// so each submission waits for the previous acknowledgement, with a short
// pause in between.
//
// Failure handling is best-effort: an out-of-order rejection means the
// backend already counted that answer (a resume race), so the local cursor
// advances and the remaining records still go out; any other failure skips
// just that record.
func flushBuffered(ctx context.Context, gateway SessionGateway, buffer AnswerBuffer, session domain.QuizSession, delay time.Duration) flushOutcome {
	outcome := flushOutcome{Session: session}

	if session.Cursor >= len(session.Questions) {
		// Every answer is already backend-acknowledged; the adopted
		// counters are the confirmed result.
		outcome.Confirmed = true
		return outcome
	}
	pending := session.Questions[session.Cursor:]
	records, err := buffer.OrderedFor(ctx, pending)
	if err != nil {
		log.Printf("read buffered answers: %v", err)
		return outcome
	}

	for i, rec := range records {
		receipt, err := gateway.SubmitAnswer(ctx, session.ID, rec)
		switch {
		case err == nil:
			outcome.Session.Cursor = receipt.Cursor
			outcome.Session.Points = receipt.Points
			outcome.Session.Correct = receipt.Correct
			outcome.Session.Wrong = receipt.Wrong
			outcome.Confirmed = true
		case errors.Is(err, domain.ErrAnswerOutOfOrder):
			// Backend already moved past this question; count it as applied.
			log.Printf("answer for question %s already applied, continuing", rec.QuestionID)
			outcome.Session.Cursor++
		default:
			log.Printf("submit answer for question %s: %v", rec.QuestionID, err)
		}

		if i == len(records)-1 || delay <= 0 {
			continue
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return outcome
		}
	}
	return outcome
}
