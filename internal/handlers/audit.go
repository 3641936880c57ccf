package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/services"
	pkghttp "github.com/BradenHooton/studyhub/pkg/http"
)

// AuditQueryService defines the audit reads exposed over HTTP
type AuditQueryService interface {
	GetAccountAuditTrail(ctx context.Context, accountID int64, limit, offset int) ([]*models.AuditLog, int64, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	auditService AuditQueryService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService AuditQueryService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// AuditLogResponse represents an audit log entry in HTTP response
type AuditLogResponse struct {
	ID         string                 `json:"id"`
	AdminID    int64                  `json:"admin_id"`
	ActionType string                 `json:"action_type"`
	TargetType string                 `json:"target_type"`
	TargetID   int64                  `json:"target_id"`
	Reason     string                 `json:"reason"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  string                 `json:"created_at"`
}

func auditLogToResponse(log *models.AuditLog) *AuditLogResponse {
	return &AuditLogResponse{
		ID:         log.ID.String(),
		AdminID:    log.AdminID,
		ActionType: string(log.ActionType),
		TargetType: log.TargetType,
		TargetID:   log.TargetID,
		Reason:     log.Reason,
		Metadata:   log.Metadata,
		CreatedAt:  log.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// GetAccountAuditTrail handles GET /admin/accounts/{id}/audit
func (h *AuditHandler) GetAccountAuditTrail(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	limit, offset, err := parsePagination(r, services.DefaultPageSize, services.MaxPageSize)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	logs, count, err := h.auditService.GetAccountAuditTrail(r.Context(), accountID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]*AuditLogResponse, len(logs))
	for i, log := range logs {
		response[i] = auditLogToResponse(log)
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(count, 10))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   response,
		"total":  count,
		"limit":  limit,
		"offset": offset,
	})
}

// ListByAction handles GET /admin/audit?action=BAN
func (h *AuditHandler) ListByAction(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	if action == "" {
		pkghttp.WriteBadRequest(w, "action query parameter is required")
		return
	}

	limit, offset, err := parsePagination(r, services.DefaultPageSize, services.MaxPageSize)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	logs, err := h.auditService.ListByAction(r.Context(), action, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]*AuditLogResponse, len(logs))
	for i, log := range logs {
		response[i] = auditLogToResponse(log)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   response,
		"limit":  limit,
		"offset": offset,
	})
}
