package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-player/internal/domain"
)

type countingFetcher struct {
	calls int32
}

func (f *countingFetcher) Question(_ context.Context, questionID string) (domain.Question, error) {
	atomic.AddInt32(&f.calls, 1)
	return domain.Question{ID: questionID, Prompt: "prompt"}, nil
}

func TestQuestionCacheFetchesOnce(t *testing.T) {
	fetcher := &countingFetcher{}
	cache := NewQuestionCache(fetcher, time.Minute)

	for i := 0; i < 3; i++ {
		q, err := cache.Question(context.Background(), "q1")
		if err != nil {
			t.Fatalf("question: %v", err)
		}
		if q.ID != "q1" {
			t.Fatalf("question ID = %s, want q1", q.ID)
		}
	}

	if got := atomic.LoadInt32(&fetcher.calls); got != 1 {
		t.Fatalf("fetcher called %d times, want 1", got)
	}
}

func TestQuestionCacheCollapsesConcurrentFetches(t *testing.T) {
	fetcher := &countingFetcher{}
	cache := NewQuestionCache(fetcher, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Question(context.Background(), "q1"); err != nil {
				t.Errorf("question: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&fetcher.calls); got != 1 {
		t.Fatalf("fetcher called %d times, want 1", got)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	fetcher := &countingFetcher{}
	cache := NewQuestionCache(fetcher, time.Minute)

	now := time.Now()
	cache.clock = func() time.Time { return now }

	if _, err := cache.Question(context.Background(), "q1"); err != nil {
		t.Fatalf("question: %v", err)
	}

	// jitter adds at most 10%, so two TTLs is safely past expiry
	now = now.Add(2 * time.Minute)
	if _, err := cache.Question(context.Background(), "q1"); err != nil {
		t.Fatalf("question after expiry: %v", err)
	}

	if got := atomic.LoadInt32(&fetcher.calls); got != 2 {
		t.Fatalf("fetcher called %d times, want 2", got)
	}
}
