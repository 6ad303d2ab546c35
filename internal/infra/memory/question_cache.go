package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-player/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionFetcher fetches question content from the backend.
type QuestionFetcher interface {
	Question(ctx context.Context, questionID string) (domain.Question, error)
}

// QuestionCache memoizes fetched questions for one session run. It sits on
// the question-load path, so hits take a read lock only; a miss pays for the
// backend fetch, and concurrent misses for the same question collapse into a
// single call. Errors are never cached: a failed fetch leaves no entry, so a
// retry goes back to the backend.
type QuestionCache struct {
	fetcher QuestionFetcher
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group

	mu      sync.RWMutex
	rnd     *rand.Rand
	entries map[string]cacheEntry
}

type cacheEntry struct {
	question domain.Question
	staleAt  time.Time
}

func NewQuestionCache(fetcher QuestionFetcher, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		fetcher: fetcher,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cacheEntry),
	}
}

func (c *QuestionCache) Question(ctx context.Context, questionID string) (domain.Question, error) {
	if question, ok := c.cached(questionID); ok {
		return question, nil
	}

	result, err, _ := c.sf.Do(questionID, func() (interface{}, error) {
		if question, ok := c.cached(questionID); ok {
			return question, nil
		}
		if err := ctx.Err(); err != nil {
			return domain.Question{}, err
		}
		question, err := c.fetcher.Question(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}
		c.store(questionID, question)
		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) cached(questionID string) (domain.Question, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[questionID]
	if !ok || !entry.staleAt.After(now) {
		return domain.Question{}, false
	}
	return entry.question, true
}

func (c *QuestionCache) store(questionID string, question domain.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[questionID] = cacheEntry{
		question: question,
		staleAt:  c.clock().Add(c.lifetimeLocked()),
	}
}

// lifetimeLocked spreads expirations with up to 10% jitter so a resumed
// session does not refetch every question at once. Callers hold c.mu.
func (c *QuestionCache) lifetimeLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	return c.ttl + time.Duration(c.rnd.Int63n(int64(c.ttl)/10+1))
}
