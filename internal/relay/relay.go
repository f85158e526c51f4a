package relay

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/paywatch/paywatch/internal/logging"
)

// tokenHeader carries the shared relay secret on inbound hooks.
const tokenHeader = "X-Relay-Token"

// Triggers are the jobs an inbound webhook may fire. They are the same
// closures the local scheduler runs; the relay exists so an external cron
// service can drive them instead.
type Triggers struct {
	Extract func(ctx context.Context) error
	Remind  func(ctx context.Context) error
}

// Server is the inbound webhook relay.
type Server struct {
	srv   *http.Server
	token string
}

// New builds the relay server. An empty token disables authentication;
// intended only for local testing.
func New(addr, token string, allowedOrigins []string, triggers Triggers) *Server {
	s := &Server{token: token}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/hooks/extract", s.handleHook("extract", triggers.Extract)).Methods(http.MethodPost)
	router.HandleFunc("/hooks/remind", s.handleHook("remind", triggers.Remind)).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{tokenHeader, "Content-Type"},
	})

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      c.Handler(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // hooks run the job synchronously
	}
	return s
}

// Handler exposes the configured handler for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	logging.Logger.Infof("Webhook relay listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	got := r.Header.Get(tokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHook(name string, job func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveryID := uuid.New().String()
		log := logging.Logger.WithField("delivery_id", deliveryID).WithField("hook", name)

		if !s.authorized(r) {
			log.Warn("Rejected hook delivery: bad relay token")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"delivery_id": deliveryID,
				"error":       "unauthorized",
			})
			return
		}
		if job == nil {
			writeJSON(w, http.StatusNotImplemented, map[string]string{
				"delivery_id": deliveryID,
				"error":       "hook not configured",
			})
			return
		}

		log.Info("Hook delivery accepted")
		if err := job(r.Context()); err != nil {
			log.WithError(err).Error("Hook job failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"delivery_id": deliveryID,
				"error":       err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"delivery_id": deliveryID,
			"status":      "ok",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
