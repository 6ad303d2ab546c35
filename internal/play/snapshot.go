package play

import "quiz-player/internal/domain"

// Phase is the engine's lifecycle state, exposed read-only to callers.
type Phase string

const (
	PhaseBootstrapping Phase = "bootstrapping"
	PhaseResumeChoice  Phase = "resume_choice"
	PhasePlaying       Phase = "playing"
	PhaseFeedback      Phase = "feedback"
	PhaseFinishing     Phase = "finishing"
	PhaseFinished      Phase = "finished"
	PhaseAborted       Phase = "aborted"
)

// Terminal reports whether no further play is possible in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseAborted
}

// Feedback is the local correctness verdict shown between questions. It is
// display-only; the backend's acknowledgement decides the real score.
type Feedback struct {
	QuestionID    string `json:"questionId"`
	OptionID      string `json:"optionId"`
	Correct       bool   `json:"correct"`
	CorrectOption string `json:"correctOption"`
	TimedOut      bool   `json:"timedOut"`
}

// Snapshot is an immutable view of the engine for presentation layers.
type Snapshot struct {
	Phase            Phase                 `json:"phase"`
	QuizID           string                `json:"quizId"`
	SessionID        string                `json:"sessionId"`
	Cursor           int                   `json:"cursor"`
	TotalQuestions   int                   `json:"totalQuestions"`
	Question         *domain.Question      `json:"question,omitempty"`
	Selected         string                `json:"selected,omitempty"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	ElapsedSeconds   int                   `json:"elapsedSeconds"`
	Feedback         *Feedback             `json:"feedback,omitempty"`
	Summary          *domain.ResultSummary `json:"summary,omitempty"`
	Notice           string                `json:"notice,omitempty"` // dismissible, non-fatal
}

// snapshotLocked builds a Snapshot; callers hold c.mu.
func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:          c.phase,
		QuizID:         c.quizID,
		SessionID:      c.session.ID,
		Cursor:         c.cursor,
		TotalQuestions: len(c.session.Questions),
		Selected:       c.selected,
		Notice:         c.notice,
	}
	if c.question.ID != "" {
		q := c.question
		snap.Question = &q
	}
	if c.countdown != nil {
		snap.RemainingSeconds = c.countdown.Remaining()
	}
	if c.stopwatch != nil {
		snap.ElapsedSeconds = c.stopwatch.Elapsed()
	}
	if c.feedback != nil {
		fb := *c.feedback
		snap.Feedback = &fb
	}
	if c.summary != nil {
		sum := *c.summary
		snap.Summary = &sum
	}
	return snap
}

// Snapshot returns the current engine state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot on every state change,
// starting with the current one. The caller must invoke the returned cancel
// function to avoid leaks.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	initial := c.snapshotLocked()
	c.mu.Unlock()

	ch <- initial

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// notifyLocked fans the current snapshot out to subscribers; callers hold
// c.mu. Slow consumers lose the stale snapshot rather than blocking play.
func (c *Controller) notifyLocked() {
	snap := c.snapshotLocked()
	for ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
