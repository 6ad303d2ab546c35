package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-player/internal/domain"
	"quiz-player/internal/play"
	"github.com/gorilla/websocket"
)

// ControllerFactory builds a fresh session engine per connection.
type ControllerFactory func(quizID string) *play.Controller

// WSHandler bridges a presentation layer to the session engine over a
// websocket: state snapshots stream out on every transition, user intents
// come in.
type WSHandler struct {
	newController ControllerFactory
	upgrader      websocket.Upgrader
}

func NewWSHandler(factory ControllerFactory) *WSHandler {
	return &WSHandler{
		newController: factory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	OptionID string `json:"optionId"`
}

type abandonPayload struct {
	Save bool `json:"save"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one quiz session over the socket.
// The quiz to play comes from the quizId query parameter.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctrl := h.newController(quizID)
	defer ctrl.Close()

	updates, cancel := ctrl.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Bootstrap runs in the background so the read loop can deliver the
	// resume decision while Start is parked on it. Failures surface through
	// the snapshot stream (resume_choice, or aborted with a notice).
	go func() {
		if err := ctrl.Start(r.Context(), quizID); err != nil && !errors.Is(err, domain.ErrSessionAlreadyActive) {
			log.Printf("ws session bootstrap: %v", err)
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		var intentErr error
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				intentErr = errors.New("invalid select payload")
				break
			}
			intentErr = ctrl.SelectAnswer(payload.OptionID)
		case "submit":
			intentErr = ctrl.SubmitCurrent()
		case "retry":
			intentErr = ctrl.RetryQuestion()
		case "resume":
			intentErr = ctrl.Resume(r.Context())
		case "cancelResume":
			intentErr = ctrl.CancelResume()
		case "abandon":
			var payload abandonPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				intentErr = errors.New("invalid abandon payload")
				break
			}
			intentErr = ctrl.Abandon(payload.Save)
		case "dismissNotice":
			ctrl.DismissNotice()
		default:
			intentErr = errors.New("unsupported message type")
		}

		if intentErr != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: intentErr.Error()}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
