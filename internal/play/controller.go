package play

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"quiz-player/internal/domain"
)

// Engine-level errors returned to presentation layers. These are caller
// mistakes or transient guards, distinct from the backend sentinels in
// internal/domain.
var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotPlaying     = errors.New("no question is awaiting an answer")
	ErrNoSelection    = errors.New("no answer selected")
	ErrNotResumable   = errors.New("no resume choice is pending")
	ErrNotAbandonable = errors.New("session cannot be abandoned in this phase")
	ErrCallInFlight   = errors.New("a backend call is in flight")
)

// Options tunes session pacing. Zero values fall back to production
// defaults; tests shrink the intervals to run in milliseconds.
type Options struct {
	QuestionSeconds int           // per-question budget, default 15
	FeedbackDelay   time.Duration // how long the verdict stays up, default 2s
	FlushDelay      time.Duration // pause between buffered submissions, default 250ms
	TickInterval    time.Duration // one clock tick, default 1s
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.QuestionSeconds <= 0 {
		o.QuestionSeconds = 15
	}
	if o.FeedbackDelay <= 0 {
		o.FeedbackDelay = 2 * time.Second
	}
	if o.FlushDelay < 0 {
		o.FlushDelay = 0
	} else if o.FlushDelay == 0 {
		o.FlushDelay = 250 * time.Millisecond
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Controller drives one user through a timed quiz session: it bootstraps or
// resumes the backend session, walks the question sequence with a countdown
// per question, buffers answers locally, and reconciles the buffer against
// the backend when the session ends.
//
// All state transitions run under one mutex, so handlers never overlap. The
// local session copy is written only from acknowledged backend responses.
type Controller struct {
	gateway   SessionGateway
	questions QuestionSource
	buffer    AnswerBuffer
	archive   ResultArchive // optional
	opts      Options

	mu       sync.Mutex
	ctx      context.Context // session-scoped, set by Start
	phase    Phase
	quizID   string
	session  domain.QuizSession
	cursor   int // local play cursor; runs ahead of session.Cursor
	question domain.Question
	selected string
	started  time.Time // when the current question appeared
	feedback *Feedback
	summary  *domain.ResultSummary
	notice   string
	busy     bool // a gateway call is in flight

	countdown *countdown
	stopwatch *stopwatch
	advance   *time.Timer // pending feedback auto-advance

	subscribers map[chan Snapshot]struct{}
}

// New builds a Controller. archive may be nil when no result archive is
// configured.
func New(gateway SessionGateway, questions QuestionSource, buffer AnswerBuffer, archive ResultArchive, opts Options) *Controller {
	return &Controller{
		gateway:     gateway,
		questions:   questions,
		buffer:      buffer,
		archive:     archive,
		opts:        opts.withDefaults(),
		phase:       PhaseBootstrapping,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Start bootstraps the session: it adopts an in-progress backend session if
// one exists, otherwise starts a new one for quizID, then loads the question
// at the adopted cursor.
//
// When the backend reports a session already active on a fresh start (a
// consistency race), Start parks in the resume-choice phase and returns
// domain.ErrSessionAlreadyActive; the caller then decides between Resume and
// CancelResume. Any other failure is fatal: the session never starts.
//
// ctx scopes the whole session; timer-driven work reuses it after Start
// returns.
func (c *Controller) Start(ctx context.Context, quizID string) error {
	c.mu.Lock()
	if c.phase != PhaseBootstrapping || c.busy {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.ctx = ctx
	c.quizID = quizID
	c.busy = true
	c.mu.Unlock()

	session, err := c.gateway.ActiveSession(ctx)
	if errors.Is(err, domain.ErrNoActiveSession) {
		session, err = c.gateway.StartSession(ctx, quizID)
		if errors.Is(err, domain.ErrSessionAlreadyActive) {
			c.mu.Lock()
			c.phase = PhaseResumeChoice
			c.busy = false
			c.notifyLocked()
			c.mu.Unlock()
			return err
		}
	}
	if err != nil {
		c.mu.Lock()
		c.phase = PhaseAborted
		c.busy = false
		c.notice = fmt.Sprintf("could not start session: %v", err)
		c.notifyLocked()
		c.mu.Unlock()
		return fmt.Errorf("bootstrap session: %w", err)
	}

	c.adopt(session)
	return c.loadQuestion(ctx)
}

// Resume adopts the backend's active session after Start reported one. The
// cursor comes from the backend, not from index 0.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseResumeChoice || c.busy {
		c.mu.Unlock()
		return ErrNotResumable
	}
	c.ctx = ctx
	c.busy = true
	c.mu.Unlock()

	session, err := c.gateway.ActiveSession(ctx)
	if err != nil {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
		return fmt.Errorf("resume session: %w", err)
	}

	c.adopt(session)
	return c.loadQuestion(ctx)
}

// CancelResume declines to resume and ends the flow locally. The backend
// session is left untouched.
func (c *Controller) CancelResume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseResumeChoice {
		return ErrNotResumable
	}
	c.phase = PhaseAborted
	c.notifyLocked()
	return nil
}

func (c *Controller) adopt(session domain.QuizSession) {
	c.mu.Lock()
	c.session = session
	c.quizID = session.QuizID
	c.cursor = session.Cursor
	c.busy = false
	c.mu.Unlock()
}

// loadQuestion fetches the question at the local cursor and arms the clocks.
// Past the last question it goes straight to finishing.
func (c *Controller) loadQuestion(ctx context.Context) error {
	c.mu.Lock()
	if c.cursor >= len(c.session.Questions) {
		c.mu.Unlock()
		return c.finish(ctx)
	}
	questionID := c.session.Questions[c.cursor]
	c.phase = PhasePlaying
	c.question = domain.Question{}
	c.selected = ""
	c.feedback = nil
	c.busy = true
	c.notifyLocked()
	c.mu.Unlock()

	question, err := c.questions.Question(ctx, questionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		// Progression halts here; the caller retries or exits. Buffered
		// answers are untouched.
		c.notice = fmt.Sprintf("could not load question: %v", err)
		c.notifyLocked()
		return fmt.Errorf("load question %s: %w", questionID, err)
	}

	c.question = question
	if rec, ok, berr := c.buffer.Get(ctx, questionID); berr == nil && ok && !rec.TimedOut() {
		// A buffered but unacknowledged answer pre-seeds the selection.
		c.selected = rec.OptionID
	}
	c.started = c.opts.Now()
	c.notice = ""
	c.armClocksLocked()
	c.notifyLocked()
	return nil
}

// RetryQuestion refetches the current question after a load failure.
func (c *Controller) RetryQuestion() error {
	c.mu.Lock()
	if c.phase != PhasePlaying || c.question.ID != "" || c.busy {
		c.mu.Unlock()
		return ErrNotPlaying
	}
	ctx := c.ctx
	c.mu.Unlock()
	return c.loadQuestion(ctx)
}

func (c *Controller) armClocksLocked() {
	if c.countdown != nil {
		c.countdown.Stop()
	}
	c.countdown = startCountdown(c.opts.QuestionSeconds, c.opts.TickInterval, c.onTick, c.onCountdownExpired)
	if c.stopwatch == nil {
		c.stopwatch = startStopwatch(c.opts.TickInterval, c.onTick)
	}
}

func (c *Controller) onTick(int) {
	c.mu.Lock()
	if c.phase == PhasePlaying || c.phase == PhaseFeedback {
		c.notifyLocked()
	}
	c.mu.Unlock()
}

// stopClocksLocked halts every time source. Called on each exit path so a
// stale tick can never force-submit against a dead question.
func (c *Controller) stopClocksLocked() {
	if c.countdown != nil {
		c.countdown.Stop()
	}
	if c.stopwatch != nil {
		c.stopwatch.Stop()
	}
	if c.advance != nil {
		c.advance.Stop()
		c.advance = nil
	}
}

// SelectAnswer records a transient selection for the current question.
// Reselecting overwrites; nothing is buffered until submission.
func (c *Controller) SelectAnswer(optionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePlaying || c.question.ID == "" {
		return ErrNotPlaying
	}
	if !c.question.HasOption(optionID) {
		return domain.ErrOptionNotFound
	}
	c.selected = optionID
	c.notifyLocked()
	return nil
}

// SubmitCurrent captures the selected answer for the current question and
// enters the feedback phase. The answer goes into the local buffer only; the
// backend sees it during reconciliation.
func (c *Controller) SubmitCurrent() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePlaying || c.question.ID == "" {
		return ErrNotPlaying
	}
	if c.busy {
		return ErrCallInFlight
	}
	if c.selected == "" {
		return ErrNoSelection
	}
	elapsed := int(c.opts.Now().Sub(c.started) / time.Second)
	if elapsed > c.opts.QuestionSeconds {
		elapsed = c.opts.QuestionSeconds
	}
	if elapsed < 0 {
		elapsed = 0
	}
	c.captureLocked(c.selected, elapsed)
	return nil
}

// onCountdownExpired forces a submission with the timed-out sentinel. If the
// user submitted first the phase already moved on and this is a no-op; first
// event wins.
func (c *Controller) onCountdownExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePlaying || c.question.ID == "" || c.busy {
		return
	}
	c.captureLocked(domain.TimedOutOption, c.opts.QuestionSeconds)
}

// captureLocked writes the answer record, computes the local verdict, and
// schedules the automatic advance out of feedback. Callers hold c.mu.
func (c *Controller) captureLocked(optionID string, elapsed int) {
	c.countdown.Stop()

	rec := domain.AnswerRecord{
		QuestionID:     c.question.ID,
		OptionID:       optionID,
		ElapsedSeconds: elapsed,
		RecordedAt:     c.opts.Now(),
	}
	if err := c.buffer.Put(c.ctx, rec); err != nil {
		log.Printf("buffer answer for question %s: %v", rec.QuestionID, err)
	}

	fb := Feedback{
		QuestionID: c.question.ID,
		OptionID:   optionID,
		TimedOut:   optionID == domain.TimedOutOption,
	}
	if correct, ok := c.question.CorrectOption(); ok {
		fb.CorrectOption = correct.ID
		fb.Correct = correct.ID == optionID
	}
	c.feedback = &fb
	c.phase = PhaseFeedback
	c.advance = time.AfterFunc(c.opts.FeedbackDelay, c.advanceFromFeedback)
	c.notifyLocked()
}

// advanceFromFeedback moves to the next question, or into finishing after
// the last one. Feedback always ends on its own; callers cannot stay in it.
func (c *Controller) advanceFromFeedback() {
	c.mu.Lock()
	if c.phase != PhaseFeedback || c.busy {
		c.mu.Unlock()
		return
	}
	c.advance = nil
	c.cursor++
	ctx := c.ctx
	c.mu.Unlock()

	if err := c.loadQuestion(ctx); err != nil {
		log.Printf("advance to next question: %v", err)
	}
}

// finish reconciles the buffer against the backend and assembles the final
// summary. Reconciliation failures degrade the summary but never prevent
// reaching the finished phase.
func (c *Controller) finish(ctx context.Context) error {
	c.mu.Lock()
	if c.phase.Terminal() || c.phase == PhaseFinishing {
		c.mu.Unlock()
		return nil
	}
	c.phase = PhaseFinishing
	c.busy = true
	c.question = domain.Question{}
	c.feedback = nil
	shadow := c.session
	var elapsed int
	if c.stopwatch != nil {
		elapsed = c.stopwatch.Elapsed()
	}
	c.stopClocksLocked()
	c.notifyLocked()
	c.mu.Unlock()

	outcome := flushBuffered(ctx, c.gateway, c.buffer, shadow, c.opts.FlushDelay)

	c.mu.Lock()
	c.busy = false
	summary := domain.ResultSummary{ElapsedSeconds: elapsed}
	if outcome.Confirmed {
		c.session = outcome.Session
		summary.Points = outcome.Session.Points
		summary.Correct = outcome.Session.Correct
		summary.Wrong = outcome.Session.Wrong
		summary.Confirmed = true
	} else {
		log.Printf("no submission confirmed; reporting unconfirmed zero result")
		c.notice = "results could not be confirmed"
	}
	c.summary = &summary
	c.phase = PhaseFinished
	if err := c.buffer.Clear(ctx); err != nil {
		log.Printf("clear answer buffer: %v", err)
	}
	sessionID, quizID := c.session.ID, c.quizID
	c.notifyLocked()
	c.mu.Unlock()

	if c.archive != nil {
		if err := c.archive.Record(ctx, sessionID, quizID, summary); err != nil {
			log.Printf("archive result for session %s: %v", sessionID, err)
		}
	}
	return nil
}

// Abandon ends the session early. With save, buffered answers are submitted
// first; without it the buffer is discarded. Either way the backend session
// is terminated. An empty buffer skips the submission pass entirely. On
// backend failure the engine stays in its pre-abandon phase with its clock
// restarted.
func (c *Controller) Abandon(save bool) error {
	c.mu.Lock()
	if c.phase != PhasePlaying && c.phase != PhaseFeedback {
		c.mu.Unlock()
		return ErrNotAbandonable
	}
	if c.busy {
		c.mu.Unlock()
		return ErrCallInFlight
	}
	c.busy = true
	// Freeze progression before releasing the lock: a countdown expiry or
	// feedback advance racing a slow backend call would finish the session
	// mid-abandon.
	remaining := 0
	if c.countdown != nil {
		remaining = c.countdown.Remaining()
		c.countdown.Stop()
	}
	if c.advance != nil {
		c.advance.Stop()
		c.advance = nil
	}
	shadow := c.session
	ctx := c.ctx
	c.mu.Unlock()

	if save {
		if empty, err := c.buffer.IsEmpty(ctx); err != nil || !empty {
			outcome := flushBuffered(ctx, c.gateway, c.buffer, shadow, c.opts.FlushDelay)
			if outcome.Confirmed {
				c.mu.Lock()
				c.session = outcome.Session
				c.mu.Unlock()
			}
		}
	}

	if err := c.gateway.Abandon(ctx, shadow.ID); err != nil {
		c.mu.Lock()
		c.busy = false
		c.notice = fmt.Sprintf("could not abandon session: %v", err)
		c.rearmClocksLocked(remaining)
		c.notifyLocked()
		c.mu.Unlock()
		return fmt.Errorf("abandon session: %w", err)
	}

	c.mu.Lock()
	c.busy = false
	c.stopClocksLocked()
	c.phase = PhaseAborted
	if err := c.buffer.Clear(ctx); err != nil {
		log.Printf("clear answer buffer: %v", err)
	}
	c.notifyLocked()
	c.mu.Unlock()
	return nil
}

// rearmClocksLocked restarts whichever clock a failed abandon froze so the
// session continues from where it stopped. Callers hold c.mu.
func (c *Controller) rearmClocksLocked(remaining int) {
	switch {
	case c.phase == PhaseFeedback:
		c.advance = time.AfterFunc(c.opts.FeedbackDelay, c.advanceFromFeedback)
	case c.phase == PhasePlaying && c.question.ID != "":
		if remaining <= 0 {
			remaining = 1
		}
		c.countdown = startCountdown(remaining, c.opts.TickInterval, c.onTick, c.onCountdownExpired)
	}
}

// DismissNotice clears the current non-fatal notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	c.notice = ""
	c.notifyLocked()
	c.mu.Unlock()
}

// Close releases the engine's timers. It does not touch backend state; use
// Abandon for that. Safe to call in any phase, including after Finished.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopClocksLocked()
	c.mu.Unlock()
}
