// ABOUTME: HTTP server wiring routes, middleware, and shared dependencies
// ABOUTME: Serves the events, auth, sync, and calendars API
package web

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"google.golang.org/api/calendar/v3"

	"stallbook/agenda"
	"stallbook/gcal"
)

var validate = validator.New()

type Server struct {
	httpServer *http.Server
	db         *sql.DB
	log        *zerolog.Logger
	tokens     *gcal.TokenManager
	mapper     *gcal.Mapper
	projector  *agenda.Projector

	// newProvider is swapped out in tests.
	newProvider func(service *calendar.Service) gcal.Provider
}

func NewServer(addr string, database *sql.DB, log *zerolog.Logger, timeZone string) *Server {
	s := &Server{
		db:          database,
		log:         log,
		tokens:      gcal.NewTokenManager(),
		mapper:      gcal.NewMapper(timeZone),
		projector:   agenda.NewProjector(database),
		newProvider: gcal.NewGoogleProvider,
	}

	r := mux.NewRouter()
	s.setupRoutes(r)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      cors.AllowAll().Handler(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	r.HandleFunc("/auth", s.handleAuthURL).Methods("GET")
	r.HandleFunc("/auth/callback", s.handleAuthCallback).Methods("GET")

	r.HandleFunc("/events", s.handleListEvents).Methods("GET")
	r.HandleFunc("/events/upcoming", s.handleUpcomingEvents).Methods("GET")
	r.HandleFunc("/events", s.handleCreateEvent).Methods("POST")
	r.HandleFunc("/events/{id}", s.handleGetEvent).Methods("GET")
	r.HandleFunc("/events/{id}", s.handleUpdateEvent).Methods("PUT")
	r.HandleFunc("/events/{id}", s.handleDeleteEvent).Methods("DELETE")

	r.HandleFunc("/sync/from-google", s.handleSyncFromGoogle).Methods("POST")
	r.HandleFunc("/sync/to-google", s.handleSyncToGoogle).Methods("POST")
	r.HandleFunc("/sync/runs", s.handleSyncRuns).Methods("GET")

	r.HandleFunc("/calendars", s.handleListCalendars).Methods("GET")
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Handler exposes the configured router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Addr returns the listen address, mainly for startup logging.
func (s *Server) Addr() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
