package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

type AdminHandler struct {
	history HistoryStats
	tokens  TokenStats
	log     *logger.ZapLogger
	started time.Time
}

func NewAdminHandler(history HistoryStats, tokens TokenStats, log *logger.ZapLogger) *AdminHandler {
	return &AdminHandler{
		history: history,
		tokens:  tokens,
		log:     log,
		started: time.Now(),
	}
}

type statsResponse struct {
	HistoryMessages  int            `json:"history_messages"`
	RetentionSeconds int64          `json:"retention_seconds"`
	TokenHolders     map[string]int `json:"token_holders"`
	MaxTokensPerUser int            `json:"max_tokens_per_user"`
	UptimeSeconds    int64          `json:"uptime_seconds"`
}

type tokensResponse struct {
	UserID          string     `json:"user_id"`
	Remaining       int        `json:"remaining"`
	Max             int        `json:"max"`
	NextAvailableAt *time.Time `json:"next_available_at"`
}

func (h *AdminHandler) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// GET /stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, statsResponse{
		HistoryMessages:  h.history.Len(),
		RetentionSeconds: int64(h.history.Retention() / time.Second),
		TokenHolders:     h.tokens.Stats(),
		MaxTokensPerUser: h.tokens.MaxTokensPerUser(),
		UptimeSeconds:    int64(time.Since(h.started) / time.Second),
	})
}

// GET /tokens/{userID}
func (h *AdminHandler) Tokens(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	resp := tokensResponse{
		UserID:    userID,
		Remaining: h.tokens.TokensRemaining(userID),
		Max:       h.tokens.MaxTokensPerUser(),
	}
	if next, ok := h.tokens.NextTokenAvailableAt(userID); ok {
		resp.NextAvailableAt = &next
	}
	h.writeJSON(w, resp)
}

func (h *AdminHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "encode response", Service: "delivery", Error: err})
	}
}
