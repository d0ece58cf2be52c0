package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"awakening-quiz-engine/internal/domain"
	"awakening-quiz-engine/internal/engine"
)

// WSHandler drives one quiz session per websocket connection: the engine
// sends questions, the client answers, and the final result (including a
// possible legendary unlock) closes the exchange.
type WSHandler struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
}

func NewWSHandler(eng *engine.Engine) *WSHandler {
	return &WSHandler{
		engine: eng,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionPayload is the on-the-wire question view. The correct answer and
// the explanation stay server-side until the answer comes back.
type questionPayload struct {
	Key        domain.QuestionKey  `json:"key"`
	Kind       domain.QuestionKind `json:"kind"`
	Question   string              `json:"question"`
	Options    []domain.Option     `json:"options,omitempty"`
	Difficulty string              `json:"difficulty"`
	Tier       int                 `json:"tier"`
	Hint       string              `json:"hint,omitempty"`
}

func questionView(q *domain.Question) questionPayload {
	return questionPayload{
		Key:        q.Key,
		Kind:       q.Kind,
		Question:   q.Text,
		Options:    q.Options,
		Difficulty: q.Difficulty,
		Tier:       q.Tier,
		Hint:       q.Hint,
	}
}

type bookPayload struct {
	ID            string                `json:"bookId"`
	Title         string                `json:"bookTitle"`
	Icon          string                `json:"icon"`
	QuestionCount int                   `json:"questionCount"`
	Legendary     domain.LegendaryBeing `json:"legendary"`
}

// ServeBooks lists the playable books.
func (h *WSHandler) ServeBooks(w http.ResponseWriter, r *http.Request) {
	books := h.engine.Catalog().Books()
	payload := make([]bookPayload, 0, len(books))
	for _, b := range books {
		payload = append(payload, bookPayload{
			ID:            b.ID,
			Title:         b.Title,
			Icon:          b.Icon,
			QuestionCount: len(b.Questions),
			Legendary:     b.Legendary,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// ServeWS upgrades the request and plays one session for the requested book.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	bookID := r.URL.Query().Get("bookId")
	if bookID == "" {
		http.Error(w, "missing bookId", http.StatusBadRequest)
		return
	}

	session, err := h.engine.Start(r.Context(), bookID)
	if errors.Is(err, domain.ErrUnknownBook) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	defer func() {
		// A dropped connection mid-quiz discards the session without
		// touching progress.
		if session.State() == engine.StateInProgress {
			_ = session.Abandon()
		}
	}()

	if result := session.Result(); result != nil {
		// Book with no playable questions: the session completed on start.
		_ = conn.WriteJSON(outboundMessage[*domain.SessionResult]{Type: "result", Payload: result})
		return
	}
	if err := conn.WriteJSON(outboundMessage[questionPayload]{Type: "question", Payload: questionView(session.Current())}); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var sub domain.Submission
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &sub); err != nil {
					_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
					continue
				}
			}
			feedback, next, result, err := session.Submit(r.Context(), sub)
			if err != nil {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			if err := conn.WriteJSON(outboundMessage[domain.Feedback]{Type: "feedback", Payload: feedback}); err != nil {
				return
			}
			if result != nil {
				_ = conn.WriteJSON(outboundMessage[*domain.SessionResult]{Type: "result", Payload: result})
				return
			}
			if err := conn.WriteJSON(outboundMessage[questionPayload]{Type: "question", Payload: questionView(next)}); err != nil {
				return
			}
		case "abandon":
			if err := session.Abandon(); err != nil {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "abandoned", Payload: errorPayload{}})
			return
		default:
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}
}
