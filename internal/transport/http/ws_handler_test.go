package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-player/internal/infra/memory"
	"quiz-player/internal/play"
	"github.com/gorilla/websocket"
)

type stateMessage struct {
	Type    string        `json:"type"`
	Payload play.Snapshot `json:"payload"`
}

func testFactory() ControllerFactory {
	return func(quizID string) *play.Controller {
		gateway := memory.NewGateway(memory.SampleQuizzes())
		return play.New(gateway, gateway, memory.NewAnswerBuffer(), nil, play.Options{
			QuestionSeconds: 100,
			FeedbackDelay:   10 * time.Millisecond,
			FlushDelay:      time.Millisecond,
			TickInterval:    time.Millisecond,
		})
	}
}

func dialTestWS(t *testing.T, quizID string) *websocket.Conn {
	t.Helper()
	handler := NewWSHandler(testFactory())
	server := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?quizId=" + quizID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

// readUntil consumes messages until cond matches a state snapshot.
func readUntil(t *testing.T, conn *websocket.Conn, cond func(play.Snapshot) bool) play.Snapshot {
	t.Helper()
	for {
		var msg stateMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "state" && cond(msg.Payload) {
			return msg.Payload
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(inboundMessage{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func TestServeWSMissingQuizID(t *testing.T) {
	handler := NewWSHandler(testFactory())
	server := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServeWSPlaysFullSession(t *testing.T) {
	conn := dialTestWS(t, "quiz-1")

	answers := map[string]string{"q1": "o2", "q2": "o1", "q3": "o2"} // all correct
	for _, questionID := range []string{"q1", "q2", "q3"} {
		readUntil(t, conn, func(s play.Snapshot) bool {
			return s.Phase == play.PhasePlaying && s.Question != nil && s.Question.ID == questionID
		})
		send(t, conn, "select", selectPayload{OptionID: answers[questionID]})
		send(t, conn, "submit", struct{}{})
	}

	snap := readUntil(t, conn, func(s play.Snapshot) bool { return s.Phase == play.PhaseFinished })
	if snap.Summary == nil || !snap.Summary.Confirmed {
		t.Fatalf("summary = %+v, want confirmed", snap.Summary)
	}
	if snap.Summary.Correct != 3 {
		t.Fatalf("correct = %d, want 3", snap.Summary.Correct)
	}
}

func TestServeWSAbandon(t *testing.T) {
	conn := dialTestWS(t, "quiz-1")

	readUntil(t, conn, func(s play.Snapshot) bool {
		return s.Phase == play.PhasePlaying && s.Question != nil
	})
	send(t, conn, "abandon", abandonPayload{Save: false})

	snap := readUntil(t, conn, func(s play.Snapshot) bool { return s.Phase == play.PhaseAborted })
	if snap.Summary != nil {
		t.Fatalf("aborted session carries a summary: %+v", snap.Summary)
	}
}

func TestServeWSRejectsUnknownIntent(t *testing.T) {
	conn := dialTestWS(t, "quiz-1")

	send(t, conn, "teleport", struct{}{})

	for {
		var raw struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&raw); err != nil {
			t.Fatalf("read: %v", err)
		}
		if raw.Type == "error" {
			var payload errorPayload
			if err := json.Unmarshal(raw.Payload, &payload); err != nil {
				t.Fatalf("decode error payload: %v", err)
			}
			if payload.Message == "" {
				t.Fatalf("empty error message")
			}
			return
		}
	}
}
