package memory

import (
	"context"
	"fmt"
	"sync"

	"quiz-player/internal/domain"
)

// Gateway is an in-process backend with seeded quizzes, useful for offline
// play and tests. It enforces the same contract as the real backend: one
// active session per client, strict answer ordering, server-side scoring.
type Gateway struct {
	mu      sync.Mutex
	quizzes map[string]domain.Quiz
	session *domain.QuizSession
	nextID  int
}

func NewGateway(quizzes map[string]domain.Quiz) *Gateway {
	return &Gateway{quizzes: quizzes}
}

func (g *Gateway) StartSession(_ context.Context, quizID string) (domain.QuizSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session != nil && !g.session.Finished() {
		return domain.QuizSession{}, domain.ErrSessionAlreadyActive
	}
	quiz, ok := g.quizzes[quizID]
	if !ok {
		return domain.QuizSession{}, domain.ErrQuizNotFound
	}

	ids := make([]string, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		ids = append(ids, q.ID)
	}
	g.nextID++
	g.session = &domain.QuizSession{
		ID:        fmt.Sprintf("local-%d", g.nextID),
		QuizID:    quizID,
		Questions: ids,
	}
	return *g.session, nil
}

func (g *Gateway) ActiveSession(_ context.Context) (domain.QuizSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil || g.session.Finished() {
		return domain.QuizSession{}, domain.ErrNoActiveSession
	}
	return *g.session, nil
}

func (g *Gateway) Question(_ context.Context, questionID string) (domain.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, quiz := range g.quizzes {
		for _, q := range quiz.Questions {
			if q.ID == questionID {
				return q, nil
			}
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (g *Gateway) SubmitAnswer(_ context.Context, sessionID string, rec domain.AnswerRecord) (domain.SubmitReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil || g.session.ID != sessionID {
		return domain.SubmitReceipt{}, domain.ErrNoActiveSession
	}
	if g.session.Finished() || g.session.Questions[g.session.Cursor] != rec.QuestionID {
		return domain.SubmitReceipt{}, domain.ErrAnswerOutOfOrder
	}

	question, err := g.questionByID(rec.QuestionID)
	if err != nil {
		return domain.SubmitReceipt{}, err
	}
	if !rec.TimedOut() && !question.HasOption(rec.OptionID) {
		return domain.SubmitReceipt{}, domain.ErrOptionNotFound
	}

	correct := false
	if opt, ok := question.CorrectOption(); ok {
		correct = !rec.TimedOut() && opt.ID == rec.OptionID
	}
	if correct {
		g.session.Correct++
		g.session.Points++
	} else {
		g.session.Wrong++
	}
	g.session.Cursor++

	return domain.SubmitReceipt{
		Cursor:   g.session.Cursor,
		Points:   g.session.Points,
		Correct:  g.session.Correct,
		Wrong:    g.session.Wrong,
		Finished: g.session.Finished(),
	}, nil
}

func (g *Gateway) Abandon(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil || g.session.ID != sessionID {
		return domain.ErrNoActiveSession
	}
	g.session = nil
	return nil
}

func (g *Gateway) questionByID(questionID string) (domain.Question, error) {
	for _, quiz := range g.quizzes {
		for _, q := range quiz.Questions {
			if q.ID == questionID {
				return q, nil
			}
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// SampleQuizzes provides a minimal quiz set for offline play and demos.
func SampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3", Correct: false},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5", Correct: false},
					},
				},
				{
					ID:     "q2",
					Prompt: "Which planet is closest to the sun?",
					Options: []domain.Option{
						{ID: "o1", Text: "Mercury", Correct: true},
						{ID: "o2", Text: "Venus", Correct: false},
						{ID: "o3", Text: "Mars", Correct: false},
					},
				},
				{
					ID:     "q3",
					Prompt: "How many sides does a hexagon have?",
					Options: []domain.Option{
						{ID: "o1", Text: "5", Correct: false},
						{ID: "o2", Text: "6", Correct: true},
						{ID: "o3", Text: "7", Correct: false},
					},
				},
			},
		},
	}
}
