package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bimcheck/bimcheck/internal/adapter/http/response"
	"github.com/bimcheck/bimcheck/internal/usecase"
)

// ScoreHandler handles HTTP requests for scores and dashboard stats
type ScoreHandler struct {
	scoreUseCase *usecase.ScoreUseCase
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(scoreUseCase *usecase.ScoreUseCase) *ScoreHandler {
	return &ScoreHandler{scoreUseCase: scoreUseCase}
}

// RegisterRoutes registers score routes
func (h *ScoreHandler) RegisterRoutes(router *mux.Router, auth *AuthMiddleware) {
	router.HandleFunc("/api/v1/audits/{id}/scores", auth.RequireAuth(h.GetAuditScores)).Methods("GET")
	router.HandleFunc("/api/v1/dashboard/stats", auth.RequireAuth(h.GetDashboardStats)).Methods("GET")
}

// GetAuditScores handles the score breakdown for one audit
func (h *ScoreHandler) GetAuditScores(w http.ResponseWriter, r *http.Request) {
	auditID := mux.Vars(r)["id"]

	result, err := h.scoreUseCase.GetAuditScores(r.Context(), auditID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Scores computed", result)
}

// GetDashboardStats handles the poll-friendly dashboard summary
func (h *ScoreHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scoreUseCase.GetDashboardStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Stats retrieved", stats)
}
