package domain

import "errors"

var (
	// ErrQuizNotFound indicates the requested quiz identifier is unknown to the backend.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoActiveSession is returned when the backend has no session in progress for the caller.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSessionAlreadyActive is returned when starting a session while another is in progress.
	ErrSessionAlreadyActive = errors.New("a session is already active")
	// ErrQuestionNotFound indicates a question ID the backend cannot resolve.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid for its question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAnswerOutOfOrder is returned when a submission does not match the
	// question the backend expects next.
	ErrAnswerOutOfOrder = errors.New("answer does not match the expected question")
	// ErrGatewayUnavailable wraps transport-level failures reaching the backend.
	ErrGatewayUnavailable = errors.New("quiz backend unavailable")
)
