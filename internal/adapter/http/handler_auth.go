package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bimcheck/bimcheck/internal/adapter/http/response"
	"github.com/bimcheck/bimcheck/internal/usecase"
)

// AuthHandler handles auditor authentication
type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{authUseCase: authUseCase}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/auth/login", h.Login).Methods("POST")
}

// Login handles auditor login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.authUseCase.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Login successful", result)
}
