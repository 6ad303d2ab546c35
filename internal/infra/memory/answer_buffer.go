package memory

import (
	"context"
	"sync"

	"quiz-player/internal/domain"
)

// AnswerBuffer is the in-memory implementation of play.AnswerBuffer, keyed
// by question ID with last-write-wins semantics.
type AnswerBuffer struct {
	mu      sync.RWMutex
	records map[string]domain.AnswerRecord
}

func NewAnswerBuffer() *AnswerBuffer {
	return &AnswerBuffer{
		records: make(map[string]domain.AnswerRecord),
	}
}

func (b *AnswerBuffer) Put(_ context.Context, rec domain.AnswerRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[rec.QuestionID] = rec
	return nil
}

func (b *AnswerBuffer) Get(_ context.Context, questionID string) (domain.AnswerRecord, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.records[questionID]
	return rec, ok, nil
}

func (b *AnswerBuffer) OrderedFor(_ context.Context, questionIDs []string) ([]domain.AnswerRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.AnswerRecord, 0, len(questionIDs))
	for _, id := range questionIDs {
		if rec, ok := b.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (b *AnswerBuffer) IsEmpty(_ context.Context) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records) == 0, nil
}

func (b *AnswerBuffer) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = make(map[string]domain.AnswerRecord)
	return nil
}
