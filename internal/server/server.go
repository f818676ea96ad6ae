// Package server exposes the conversation engine over HTTP. Sessions are
// tracked with a uuid cookie; the engine sees only opaque session ids.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/finchat/advisor/config"
	"github.com/finchat/advisor/internal/advisor"
	"github.com/finchat/advisor/internal/gateway"
	"github.com/finchat/advisor/models"
)

const sessionCookie = "advisor_session"

// TurnEngine is the slice of the engine the server needs.
type TurnEngine interface {
	HandleTurn(ctx context.Context, sessionID string, req *models.TurnRequest) (string, error)
}

type Server struct {
	cfg    *config.Config
	engine TurnEngine
	logger *log.Logger
}

func New(cfg *config.Config, engine TurnEngine, logger *log.Logger) *Server {
	return &Server{cfg: cfg, engine: engine, logger: logger}
}

func (s *Server) Router() *chi.Mux {
	router := chi.NewRouter()

	router.Use(cors.New(cors.Options{
		AllowCredentials: true,
		AllowedOrigins:   []string{"*"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
	}).Handler)

	router.Get("/", s.homeHandler)
	router.Post("/chat", s.turnHandler)
	// Same request shape as /chat; exists for budget-focused clients.
	router.Post("/analyze_budget", s.turnHandler)

	return router
}

// ListenAndServe runs the HTTP server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("advisor listening", "addr", s.cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the AI Financial Advisor API!",
	})
}

func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.TurnResponse{Error: "invalid request body"})
		return
	}

	sessionID := s.sessionID(w, r)

	reply, err := s.engine.HandleTurn(r.Context(), sessionID, &req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, advisor.ErrMalformedInput):
			status = http.StatusBadRequest
		case errors.Is(err, gateway.ErrGateway):
			status = http.StatusBadGateway
		}
		s.logger.Error("turn failed", "session", sessionID, "status", status, "error", err)
		writeJSON(w, status, models.TurnResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, models.TurnResponse{Response: reply})
}

// sessionID returns the caller's session id, minting a cookie on first
// contact.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
