package cli

import (
	"context"
	"log"
	"net/http"
	"time"

	"quiz-player/internal/config"
	gatewayhttp "quiz-player/internal/infra/gateway"
	"quiz-player/internal/infra/memory"
	"quiz-player/internal/infra/postgres"
	redisbuffer "quiz-player/internal/infra/redis"
	"quiz-player/internal/play"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// engineDeps holds everything needed to assemble session engines from one
// loaded config. The gateway client is shared; caches and buffers are built
// per engine so no state leaks across sessions.
type engineDeps struct {
	cfg     config.Config
	gateway play.SessionGateway
	redis   *redis.Client
	pool    *pgxpool.Pool
	archive play.ResultArchive
}

func buildDeps(ctx context.Context, cfg config.Config) (*engineDeps, error) {
	deps := &engineDeps{cfg: cfg}

	if cfg.Gateway.URL != "" {
		timeout := config.Duration(cfg.Gateway.Timeout, 10*time.Second)
		deps.gateway = gatewayhttp.NewClient(cfg.Gateway.URL, cfg.Gateway.Token, &http.Client{Timeout: timeout})
	} else {
		log.Printf("no gateway configured, playing offline against seeded quizzes")
		deps.gateway = memory.NewGateway(memory.SampleQuizzes())
	}

	if cfg.Redis.Addr != "" {
		deps.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		deps.pool = pool
		deps.archive = postgres.NewResultArchive(pool)
	}

	return deps, nil
}

func (d *engineDeps) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

// newEngine assembles a session engine for one quiz run.
func (d *engineDeps) newEngine(quizID string) *play.Controller {
	questionTTL := config.Duration(d.cfg.Play.QuestionTTL, 10*time.Minute)
	questions := memory.NewQuestionCache(d.gateway, questionTTL)

	var buffer play.AnswerBuffer = memory.NewAnswerBuffer()
	if d.redis != nil {
		bufferTTL := config.Duration(d.cfg.Redis.TTL, time.Hour)
		buffer = redisbuffer.NewAnswerBuffer(d.redis, quizID, bufferTTL)
	}

	opts := play.Options{
		QuestionSeconds: d.cfg.Play.QuestionSeconds,
		FeedbackDelay:   config.Duration(d.cfg.Play.Feedback, 2*time.Second),
		FlushDelay:      config.Duration(d.cfg.Play.FlushDelay, 250*time.Millisecond),
	}
	return play.New(d.gateway, questions, buffer, d.archive, opts)
}
