package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bimcheck/bimcheck/internal/adapter/http/response"
	"github.com/bimcheck/bimcheck/internal/ports"
)

type contextKey string

const (
	actorContextKey     contextKey = "actor"
	CorrelationIDHeader            = "X-Correlation-ID"
)

// AuthMiddleware resolves the acting auditor from a bearer token. Handlers
// read the actor with ActorID and pass it explicitly into the use cases.
type AuthMiddleware struct {
	tokens ports.TokenService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens ports.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.tokens.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// ActorID returns the authenticated auditor's ID, or empty when the request
// was not authenticated.
func ActorID(r *http.Request) string {
	claims, ok := r.Context().Value(actorContextKey).(*ports.TokenClaims)
	if !ok {
		return ""
	}
	return claims.UserID
}

// CorrelationIDMiddleware ensures every request/response carries a correlation ID
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(CorrelationIDHeader)
		if cid == "" {
			cid = generateCorrelationID()
		}
		w.Header().Set(CorrelationIDHeader, cid)
		next.ServeHTTP(w, r)
	})
}

func generateCorrelationID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}

func loggingMiddleware(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"method":         r.Method,
				"path":           r.URL.Path,
				"remote":         r.RemoteAddr,
				"duration":       time.Since(start).String(),
				"correlation_id": w.Header().Get(CorrelationIDHeader),
			}).Info("request handled")
		})
	}
}

func recoveryMiddleware(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithField("panic", err).Error("panic recovered")
					response.InternalServerError(w, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
