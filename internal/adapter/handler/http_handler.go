package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/vote-score/internal/core/service"
)

type HTTPHandler struct {
	scoreService *service.ScoreService
	logger       *zap.SugaredLogger
}

type ScoreHTTPResponse struct {
	Score int64 `json:"score"`
}

type ErrorHTTPResponse struct {
	Error string `json:"error"`
}

type HealthHTTPResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func NewHTTPHandler(scoreService *service.ScoreService, logger *zap.SugaredLogger) *HTTPHandler {
	return &HTTPHandler{scoreService: scoreService, logger: logger}
}

func (h *HTTPHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	score, err := h.scoreService.Upvote(r.Context())
	if err != nil {
		h.logger.Errorf("upvote: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorHTTPResponse{Error: "failed to upvote"})
		return
	}

	writeJSON(w, http.StatusOK, ScoreHTTPResponse{Score: score.Value})
}

func (h *HTTPHandler) Downvote(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	score, err := h.scoreService.Downvote(r.Context())
	if err != nil {
		h.logger.Errorf("downvote: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorHTTPResponse{Error: "failed to downvote"})
		return
	}

	writeJSON(w, http.StatusOK, ScoreHTTPResponse{Score: score.Value})
}

func (h *HTTPHandler) Score(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	score, err := h.scoreService.Score(r.Context())
	if err != nil {
		h.logger.Errorf("score: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorHTTPResponse{Error: "failed to fetch score"})
		return
	}

	writeJSON(w, http.StatusOK, ScoreHTTPResponse{Score: score.Value})
}

func (h *HTTPHandler) Votes(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	tally, err := h.scoreService.Tally(r.Context())
	if err != nil {
		h.logger.Errorf("votes: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorHTTPResponse{Error: "failed to fetch votes"})
		return
	}

	writeJSON(w, http.StatusOK, tally)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthHTTPResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Routes registers every endpoint on a new mux. metrics may be nil.
func (h *HTTPHandler) Routes(metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upvote", h.Upvote)
	mux.HandleFunc("/downvote", h.Downvote)
	mux.HandleFunc("/score", h.Score)
	mux.HandleFunc("/votes", h.Votes)
	mux.HandleFunc("/health", h.HealthCheck)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return withRequestLog(h.logger, withCORS(mux))
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
