package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/foodiebot/orderchat/internal/domain"
)

// TurnLogger persists one conversation turn. Implementations are best
// effort: a logging failure never fails the turn.
type TurnLogger interface {
	LogTurn(ctx context.Context, sessionID, userMessage, botReply, action string) error
}

type Handler struct {
	registry *Registry
	turns    TurnLogger
	logger   *slog.Logger

	turnCounter  metric.Int64Counter
	orderCounter metric.Int64Counter
}

// NewHandler builds the chat HTTP surface. turns may be nil to disable
// conversation logging.
func NewHandler(registry *Registry, turns TurnLogger, logger *slog.Logger) (*Handler, error) {
	meter := otel.Meter("chat")

	turnCounter, err := meter.Int64Counter("chat.turns",
		metric.WithDescription("Chat turns processed, by resolved action"))
	if err != nil {
		return nil, err
	}

	orderCounter, err := meter.Int64Counter("chat.orders_placed",
		metric.WithDescription("Orders placed through the chat flow"))
	if err != nil {
		return nil, err
	}

	return &Handler{
		registry:     registry,
		turns:        turns,
		logger:       logger,
		turnCounter:  turnCounter,
		orderCounter: orderCounter,
	}, nil
}

type messageRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
	Busy     bool                 `json:"busy"`
}

func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	s := h.registry.Session(sessionID)

	// The engine processes one message at a time; a second message while
	// a reply is pending is refused, not queued.
	if !s.mu.TryLock() {
		h.writeError(w, http.StatusConflict, "assistant is busy, wait for the current reply")
		return
	}
	defer s.mu.Unlock()

	turn, err := s.engine.HandleMessage(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			h.writeError(w, http.StatusConflict, "assistant is busy, wait for the current reply")
			return
		}
		if errors.Is(err, ErrEmptyMessage) {
			h.writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		h.logger.Error("failed to handle message", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.turns != nil {
		if err := h.turns.LogTurn(r.Context(), sessionID, req.Message, botReply(turn.Messages), turn.Action); err != nil {
			h.logger.Warn("failed to log chat turn", "error", err, "session_id", sessionID)
		}
	}

	h.turnCounter.Add(r.Context(), 1, metric.WithAttributes(attribute.String("action", turn.Action)))
	if turn.PlacedOrder != nil {
		h.orderCounter.Add(r.Context(), 1)
		h.logger.Info("chat order placed", "session_id", sessionID, "order_id", turn.PlacedOrder.OrderID)
	}

	h.writeJSON(w, http.StatusOK, turnResponse{Messages: turn.Messages, Busy: s.engine.Busy()})
}

type logResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
	Busy     bool                 `json:"busy"`
	Open     bool                 `json:"open"`
}

func (h *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	s := h.registry.Session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	h.writeJSON(w, http.StatusOK, logResponse{
		Messages: s.engine.Log(),
		Busy:     s.engine.Busy(),
		Open:     s.engine.IsOpen(),
	})
}

func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	h.setOpen(w, r, true)
}

func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	h.setOpen(w, r, false)
}

func (h *Handler) setOpen(w http.ResponseWriter, r *http.Request, open bool) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	s := h.registry.Session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.SetOpen(open)
	h.writeJSON(w, http.StatusOK, map[string]bool{"open": open})
}

func (h *Handler) HandleLastOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	s := h.registry.Session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.engine.LastOrder()
	if order == nil {
		h.writeError(w, http.StatusNotFound, "no order placed yet")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// botReply flattens the turn's bot messages into one loggable string.
func botReply(messages []domain.ChatMessage) string {
	var parts []string
	for _, m := range messages {
		if m.Sender == domain.SenderBot {
			parts = append(parts, m.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
