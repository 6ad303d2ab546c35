package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"quiz-player/internal/domain"
)

// APIError is a non-2xx backend response that did not map to a domain
// sentinel.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Client talks JSON over HTTP to the quiz backend and implements
// play.SessionGateway. Backend error codes are mapped to the sentinel errors
// in internal/domain so the engine can branch on them.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
	}
}

type sessionResponse struct {
	ID        string   `json:"id"`
	QuizID    string   `json:"quizId"`
	Questions []string `json:"questions"`
	Cursor    int      `json:"cursor"`
	Points    int      `json:"points"`
	Correct   int      `json:"correct"`
	Wrong     int      `json:"wrong"`
}

type startSessionRequest struct {
	QuizID string `json:"quizId"`
}

type submitAnswerRequest struct {
	QuestionID     string `json:"questionId"`
	OptionID       string `json:"optionId,omitempty"`
	TimedOut       bool   `json:"timedOut"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) StartSession(ctx context.Context, quizID string) (domain.QuizSession, error) {
	var payload sessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/sessions", startSessionRequest{QuizID: quizID}, &payload)
	if err != nil {
		return domain.QuizSession{}, err
	}
	return payload.toSession(), nil
}

func (c *Client) ActiveSession(ctx context.Context) (domain.QuizSession, error) {
	var payload sessionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/active", nil, &payload); err != nil {
		return domain.QuizSession{}, err
	}
	return payload.toSession(), nil
}

func (c *Client) Question(ctx context.Context, questionID string) (domain.Question, error) {
	var payload domain.Question
	path := "/questions/" + url.PathEscape(questionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return domain.Question{}, err
	}
	return payload, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, sessionID string, rec domain.AnswerRecord) (domain.SubmitReceipt, error) {
	request := submitAnswerRequest{
		QuestionID:     rec.QuestionID,
		TimedOut:       rec.TimedOut(),
		ElapsedSeconds: rec.ElapsedSeconds,
	}
	if !rec.TimedOut() {
		request.OptionID = rec.OptionID
	}

	var payload domain.SubmitReceipt
	path := "/sessions/" + url.PathEscape(sessionID) + "/answers"
	if err := c.doJSON(ctx, http.MethodPost, path, request, &payload); err != nil {
		return domain.SubmitReceipt{}, err
	}
	return payload, nil
}

func (c *Client) Abandon(ctx context.Context, sessionID string) error {
	path := "/sessions/" + url.PathEscape(sessionID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (r sessionResponse) toSession() domain.QuizSession {
	return domain.QuizSession{
		ID:        r.ID,
		QuizID:    r.QuizID,
		Questions: r.Questions,
		Cursor:    r.Cursor,
		Points:    r.Points,
		Correct:   r.Correct,
		Wrong:     r.Wrong,
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody, responseBody any) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return c.mapError(response)
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}

func (c *Client) mapError(response *http.Response) error {
	apiErr := &APIError{StatusCode: response.StatusCode}
	var payload errorResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = response.Status
	}

	switch apiErr.Code {
	case "quiz_not_found":
		return domain.ErrQuizNotFound
	case "no_active_session":
		return domain.ErrNoActiveSession
	case "session_already_active":
		return domain.ErrSessionAlreadyActive
	case "question_not_found":
		return domain.ErrQuestionNotFound
	case "option_not_found":
		return domain.ErrOptionNotFound
	case "answer_out_of_order":
		return domain.ErrAnswerOutOfOrder
	}
	return apiErr
}
