package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/bimcheck/bimcheck/internal/adapter/http/response"
	"github.com/bimcheck/bimcheck/internal/domain"
	"github.com/bimcheck/bimcheck/internal/usecase"
	apperror "github.com/bimcheck/bimcheck/pkg/error"
)

// AuditHandler handles HTTP requests for audits
type AuditHandler struct {
	auditUseCase *usecase.AuditUseCase
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditUseCase *usecase.AuditUseCase) *AuditHandler {
	return &AuditHandler{auditUseCase: auditUseCase}
}

// RegisterRoutes registers audit routes
func (h *AuditHandler) RegisterRoutes(router *mux.Router, auth *AuthMiddleware) {
	router.HandleFunc("/api/v1/audits", auth.RequireAuth(h.CreateAudit)).Methods("POST")
	router.HandleFunc("/api/v1/audits", auth.RequireAuth(h.ListAudits)).Methods("GET")
	router.HandleFunc("/api/v1/audits/{id}", auth.RequireAuth(h.GetAudit)).Methods("GET")
	router.HandleFunc("/api/v1/audits/{id}/finish-verification", auth.RequireAuth(h.FinishVerification)).Methods("POST")
	router.HandleFunc("/api/v1/audits/{id}/complete", auth.RequireAuth(h.CompleteAudit)).Methods("POST")
	router.HandleFunc("/api/v1/audits/{id}/cancel", auth.RequireAuth(h.CancelAudit)).Methods("POST")
	router.HandleFunc("/api/v1/audits/{id}/items", auth.RequireAuth(h.ListItems)).Methods("GET")
	router.HandleFunc("/api/v1/audits/{id}/items", auth.RequireAuth(h.AddCustomItem)).Methods("POST")
	router.HandleFunc("/api/v1/audits/{id}/items/{itemID}", auth.RequireAuth(h.UpdateItem)).Methods("PATCH")
	router.HandleFunc("/api/v1/audits/{id}/trail", auth.RequireAuth(h.GetTrail)).Methods("GET")
}

// CreateAudit handles audit creation
func (h *AuditHandler) CreateAudit(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if req.AuditorID == "" {
		req.AuditorID = ActorID(r)
	}

	audit, err := h.auditUseCase.CreateAudit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Audit created successfully", audit)
}

// GetAudit handles retrieving a single audit
func (h *AuditHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	auditID := mux.Vars(r)["id"]

	audit, err := h.auditUseCase.GetAudit(r.Context(), auditID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Audit retrieved", audit)
}

// ListAudits handles listing audits with filters
func (h *AuditHandler) ListAudits(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{}

	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.AuditStatus(status)
		filter.Status = &s
	}
	if workID := r.URL.Query().Get("work_id"); workID != "" {
		filter.WorkID = &workID
	}
	if disciplineID := r.URL.Query().Get("discipline_id"); disciplineID != "" {
		filter.DisciplineID = &disciplineID
	}
	if auditorID := r.URL.Query().Get("auditor_id"); auditorID != "" {
		filter.AuditorID = &auditorID
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	audits, total, err := h.auditUseCase.ListAudits(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Audits retrieved", map[string]interface{}{
		"audits": audits,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// FinishVerification handles the transition to AWAITING_ISSUE_TRACKING
func (h *AuditHandler) FinishVerification(w http.ResponseWriter, r *http.Request) {
	auditID := mux.Vars(r)["id"]

	audit, err := h.auditUseCase.FinishVerification(r.Context(), auditID, ActorID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Verification finished", audit)
}

// CompleteAudit handles the transition to COMPLETED
func (h *AuditHandler) CompleteAudit(w http.ResponseWriter, r *http.Request) {
	auditID := mux.Vars(r)["id"]

	audit, err := h.auditUseCase.CompleteAudit(r.Context(), auditID, ActorID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Audit completed", audit)
}

// CancelAudit handles the transition to CANCELLED
func (h *AuditHandler) CancelAudit(w http.ResponseWriter, r *http.Request) {
	auditID := mux.Vars(r)["id"]

	var req struct {
		Reason *string `json:"reason,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
	}

	audit, err := h.auditUseCase.CancelAudit(r.Context(), auditID, ActorID(r), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Audit cancelled", audit)
}

// ListItems handles listing the checklist items of an audit
func (h *AuditHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	auditID := mux.Vars(r)["id"]

	items, err := h.auditUseCase.ListItems(r.Context(), auditID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Items retrieved", items)
}

// AddCustomItem handles adding an ad-hoc checklist item
func (h *AuditHandler) AddCustomItem(w http.ResponseWriter, r *http.Request) {
	auditID := mux.Vars(r)["id"]

	var req usecase.AddCustomItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	item, err := h.auditUseCase.AddCustomItem(r.Context(), auditID, req, ActorID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Custom item added", item)
}

// UpdateItem handles recording an item evaluation
func (h *AuditHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	auditID := vars["id"]
	itemID := vars["itemID"]

	var req usecase.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	item, err := h.auditUseCase.UpdateItem(r.Context(), auditID, itemID, req, ActorID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Item updated", item)
}

// GetTrail handles reading the audit trail
func (h *AuditHandler) GetTrail(w http.ResponseWriter, r *http.Request) {
	auditID := mux.Vars(r)["id"]

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	entries, err := h.auditUseCase.GetTrail(r.Context(), auditID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Trail retrieved", entries)
}

func writeError(w http.ResponseWriter, err error) {
	appErr := apperror.MapError(err)
	response.Error(w, appErr.Status, appErr.Message)
}
