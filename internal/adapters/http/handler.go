package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/chatpro/internal/app/conversation"
	"github.com/PabloGalante/chatpro/internal/domain"
	"github.com/PabloGalante/chatpro/internal/observability"
)

const maxBodyBytes = 1 << 20

type Server struct {
	svc *conversation.Service
}

type Options struct {
	// CORSOrigins lists allowed origins; "*" or empty allows any.
	CORSOrigins []string
}

func NewServer(svc *conversation.Service, opts Options) http.Handler {
	s := &Server{svc: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// /sessions       → GET: sidebar list
	// /sessions/{id}  → GET: transcript, DELETE: remove
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)

	// /send/{id} → POST: append a user turn and get the reply
	mux.HandleFunc("POST /send/{id}", s.handleSendMessage)

	registerUI(mux)

	return chainMiddlewares(mux,
		withLogging,
		withCORS(opts.CORSOrigins),
		withRequestID,
	)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type sessionResponse struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

type turnResponse struct {
	Role    string `json:"role"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Reply string `json:"reply"`
}

type deleteSessionResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.svc.ListSessions(r.Context())
	if err != nil {
		internalError(w, "Failed to fetch sessions")
		return
	}

	writeJSON(w, http.StatusOK, toSessionsResponse(sessions))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))

	turns, err := s.svc.GetTranscript(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			notFound(w, "Session not found")
			return
		}
		internalError(w, "Failed to fetch messages")
		return
	}

	writeJSON(w, http.StatusOK, toTurnsResponse(turns))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))

	var req sendMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.svc.SendMessage(r.Context(), conversation.SendMessageInput{
		SessionID: id,
		Text:      req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyMessage):
			badRequest(w, "message is required")
		case errors.Is(err, domain.ErrInvalidSessionID):
			badRequest(w, "invalid session id")
		default:
			internalError(w, "AI request failed or internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{Reply: out.Reply})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))

	if err := s.svc.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			notFound(w, "Session not found")
			return
		}
		internalError(w, "Failed to delete session")
		return
	}

	writeJSON(w, http.StatusOK, deleteSessionResponse{Success: true})
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toSessionsResponse(sessions []domain.SessionSummary) []sessionResponse {
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResponse{
			ID:    string(s.ID),
			Title: s.Title,
			Date:  s.CreatedAt,
		})
	}
	return out
}

func toTurnsResponse(turns []domain.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResponse{
			Role:    string(t.Role),
			Sender:  string(t.Sender),
			Content: t.Content,
		})
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		observability.Logger().Warn("failed to encode response", zap.Error(err))
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: msg})
}

func internalError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
}
