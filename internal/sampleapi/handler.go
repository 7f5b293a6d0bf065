package sampleapi

import (
	"encoding/json"
	"net/http"

	"github.com/samvad-hq/completion-bench/internal/logger"
)

// Handler serves the read-only book listing.
type Handler struct {
	count int
	log   logger.Logger
}

// NewHandler builds a handler returning count books per listing.
func NewHandler(count int, log logger.Logger) *Handler {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if count < 0 {
		count = DefaultBookCount
	}
	return &Handler{count: count, log: log}
}

// ListBooks handles GET /books
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(Books(h.count)); err != nil {
		h.log.WarnObj("write books response failed", "error", err.Error())
	}
}

// Routes returns the sample API router.
func (h *Handler) Routes() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("/books", h.ListBooks)
	return router
}
