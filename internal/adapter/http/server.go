package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/bimcheck/bimcheck/internal/ports"
	"github.com/bimcheck/bimcheck/internal/usecase"
)

// Server represents the HTTP server
type Server struct {
	addr   string
	server *http.Server
	log    *logrus.Logger
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a new HTTP server
func NewServer(
	config ServerConfig,
	auditUseCase *usecase.AuditUseCase,
	scoreUseCase *usecase.ScoreUseCase,
	authUseCase *usecase.AuthUseCase,
	tokens ports.TokenService,
	log *logrus.Logger,
) *Server {
	auth := NewAuthMiddleware(tokens)

	router := mux.NewRouter()

	NewAuthHandler(authUseCase).RegisterRoutes(router)
	NewAuditHandler(auditUseCase).RegisterRoutes(router, auth)
	NewScoreHandler(scoreUseCase).RegisterRoutes(router, auth)

	router.Use(CorrelationIDMiddleware)
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware)
	router.Use(recoveryMiddleware(log))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return &Server{
		addr: ":" + config.Port,
		log:  log,
		server: &http.Server{
			Addr:         ":" + config.Port,
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.WithField("addr", s.addr).Info("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
