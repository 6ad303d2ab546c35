package domain

import "time"

// TimedOutOption is the option identifier recorded when the per-question
// countdown ran out before the user picked an answer.
const TimedOutOption = "timed_out"

// Option represents a possible answer for a question. The Correct flag is
// only meaningful for local feedback after an answer is captured; the
// backend stays authoritative for scoring.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// CorrectOption returns the option flagged correct, if any.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt, true
		}
	}
	return Option{}, false
}

// HasOption reports whether the question carries the given option ID.
func (q Question) HasOption(optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Quiz is a collection of questions in play order.
type Quiz struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// QuizSession is the backend's view of one attempt at a quiz. The engine
// keeps a local copy that it updates only from acknowledged backend
// responses, never from unconfirmed local answers.
type QuizSession struct {
	ID        string   `json:"id"`
	QuizID    string   `json:"quizId"`
	Questions []string `json:"questions"` // question IDs, fixed at session start
	Cursor    int      `json:"cursor"`    // index of the next unanswered question
	Points    int      `json:"points"`
	Correct   int      `json:"correct"`
	Wrong     int      `json:"wrong"`
}

// Finished reports whether every question has been answered.
func (s QuizSession) Finished() bool {
	return s.Cursor >= len(s.Questions)
}

// AnswerRecord is a locally captured answer awaiting backend acknowledgement.
// At most one record exists per question; a later capture replaces the
// earlier one.
type AnswerRecord struct {
	QuestionID     string    `json:"questionId"`
	OptionID       string    `json:"optionId"` // TimedOutOption when the countdown expired
	ElapsedSeconds int       `json:"elapsedSeconds"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// TimedOut reports whether the record was forced by countdown expiry.
func (r AnswerRecord) TimedOut() bool {
	return r.OptionID == TimedOutOption
}

// SubmitReceipt is the backend's acknowledgement of one answer submission.
type SubmitReceipt struct {
	Cursor   int  `json:"cursor"`
	Points   int  `json:"points"`
	Correct  int  `json:"correct"`
	Wrong    int  `json:"wrong"`
	Finished bool `json:"finished"`
}

// ResultSummary is the terminal snapshot of a session. Confirmed is false
// when no submission was ever acknowledged and the counters are zero-filled.
type ResultSummary struct {
	Points         int  `json:"points"`
	Correct        int  `json:"correct"`
	Wrong          int  `json:"wrong"`
	ElapsedSeconds int  `json:"elapsedSeconds"`
	Confirmed      bool `json:"confirmed"`
}
