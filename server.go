package boardlog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server exposes the message board over HTTP. It translates requests into
// Appender and Verifier calls and serializes their results as JSON.
type Server struct {
	store    Store
	appender *Appender
	verifier *Verifier
	logger   *slog.Logger
}

// NewServer creates a server over store. A nil logger means slog.Default.
func NewServer(store Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    store,
		appender: NewAppender(store),
		verifier: NewVerifier(store),
		logger:   logger,
	}
}

// Routes returns the HTTP handler for the message board API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/messages", s.handleBoard)
	r.Post("/api/messages", s.handleAppend)
	r.Get("/api/messages/{community}", s.handleCommunity)
	r.Get("/api/messages/{community}/verify", s.handleVerify)
	return r
}

// handleBoard handles GET /api/messages - all chains grouped by community.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	board := s.loadBoard(r)
	for community, history := range board {
		if history == nil {
			board[community] = []Entry{}
		}
	}
	writeJSON(w, http.StatusOK, board)
}

// handleCommunity handles GET /api/messages/{community} - one chain.
func (s *Server) handleCommunity(w http.ResponseWriter, r *http.Request) {
	community := chi.URLParam(r, "community")
	history := s.loadBoard(r)[community]
	if history == nil {
		history = []Entry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// handleAppend handles POST /api/messages - append one entry.
func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var payload *Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ErrInvalidPayload.Error()})
		return
	}

	entry, err := s.appender.Append(payload)
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.logger.Error("append failed", "community", payloadCommunity(payload), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// handleVerify handles GET /api/messages/{community}/verify - chain replay.
// Both verdicts are 200 responses; a broken chain is not an HTTP error.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	community := chi.URLParam(r, "community")
	report, err := s.verifier.Verify(community)
	if err != nil {
		s.logger.Warn("verify load failed, treating board as empty", "community", community, "error", err)
		report = VerifyChain(community, nil)
	}
	if report.OK {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":    true,
			"count": report.Count,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     false,
		"index":  report.Index,
		"id":     report.ID,
		"reason": report.Reason,
	})
}

// loadBoard reads the full Board for the read path. Load failures favor
// availability: they are logged and served as an empty Board.
func (s *Server) loadBoard(r *http.Request) Board {
	board, err := s.store.Load()
	if err != nil {
		s.logger.Warn("load failed, serving empty board", "path", r.URL.Path, "error", err)
		return Board{}
	}
	return board
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrMissingCommunity) ||
		errors.Is(err, ErrMissingMessage) ||
		errors.Is(err, ErrMessageTooLong)
}

func payloadCommunity(p *Payload) string {
	if p == nil {
		return ""
	}
	community, _ := p.Community.(string)
	return community
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
