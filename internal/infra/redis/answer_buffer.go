package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"quiz-player/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AnswerBuffer is a Redis-backed implementation of play.AnswerBuffer.
// Notes:
//   - It keeps a local in-memory map as the source of truth during a run;
//     Redis mirrors it (one hash per scope, normally the quiz being played)
//     so answers captured before a crash can be replayed when the session is
//     resumed in a new process.
//   - Mirror writes are best-effort: a Redis hiccup never loses an answer
//     for the current process.
type AnswerBuffer struct {
	client *redis.Client
	scope  string
	ttl    time.Duration

	mu       sync.RWMutex
	hydrated bool
	records  map[string]domain.AnswerRecord
}

func NewAnswerBuffer(client *redis.Client, scope string, ttl time.Duration) *AnswerBuffer {
	return &AnswerBuffer{
		client:  client,
		scope:   scope,
		ttl:     ttl,
		records: make(map[string]domain.AnswerRecord),
	}
}

func (b *AnswerBuffer) Put(ctx context.Context, rec domain.AnswerRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hydrateLocked(ctx); err != nil {
		log.Printf("hydrate answer buffer: %v", err)
	}
	b.records[rec.QuestionID] = rec

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal answer record: %w", err)
	}
	if err := b.client.HSet(ctx, b.key(), rec.QuestionID, data).Err(); err != nil {
		log.Printf("mirror answer for question %s: %v", rec.QuestionID, err)
		return nil
	}
	if b.ttl > 0 {
		_ = b.client.Expire(ctx, b.key(), b.ttl).Err()
	}
	return nil
}

func (b *AnswerBuffer) Get(ctx context.Context, questionID string) (domain.AnswerRecord, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hydrateLocked(ctx); err != nil {
		return domain.AnswerRecord{}, false, err
	}
	rec, ok := b.records[questionID]
	return rec, ok, nil
}

func (b *AnswerBuffer) OrderedFor(ctx context.Context, questionIDs []string) ([]domain.AnswerRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hydrateLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.AnswerRecord, 0, len(questionIDs))
	for _, id := range questionIDs {
		if rec, ok := b.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (b *AnswerBuffer) IsEmpty(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hydrateLocked(ctx); err != nil {
		return false, err
	}
	return len(b.records) == 0, nil
}

func (b *AnswerBuffer) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = make(map[string]domain.AnswerRecord)
	b.hydrated = true
	if err := b.client.Del(ctx, b.key()).Err(); err != nil {
		return fmt.Errorf("clear answer buffer: %w", err)
	}
	return nil
}

// hydrateLocked loads the mirrored hash once per buffer instance, merging in
// answers captured by an earlier process for the same session. Local records
// win on conflict.
func (b *AnswerBuffer) hydrateLocked(ctx context.Context) error {
	if b.hydrated {
		return nil
	}
	mirrored, err := b.client.HGetAll(ctx, b.key()).Result()
	if err != nil {
		return fmt.Errorf("load mirrored answers: %w", err)
	}
	for questionID, raw := range mirrored {
		if _, ok := b.records[questionID]; ok {
			continue
		}
		var rec domain.AnswerRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			log.Printf("skip corrupt mirrored answer for question %s: %v", questionID, err)
			continue
		}
		b.records[questionID] = rec
	}
	b.hydrated = true
	return nil
}

func (b *AnswerBuffer) key() string {
	return "play:answers:" + b.scope
}
