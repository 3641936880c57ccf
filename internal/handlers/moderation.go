package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/services"
	pkghttp "github.com/BradenHooton/studyhub/pkg/http"
)

// ModerationService defines the account lifecycle operations exposed over HTTP
type ModerationService interface {
	Suspend(ctx context.Context, actorID, targetID int64, until time.Time, reason string) (*models.Account, error)
	Unsuspend(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	Ban(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	Unban(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	SoftDelete(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	Restore(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	PermanentDelete(ctx context.Context, actorID, targetID int64, reason string) (*services.CascadeResult, error)
	UpdateRole(ctx context.Context, actorID, targetID int64, newRole models.Role, reason string) (*models.Account, error)
	DisableLogin(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	EnableLogin(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	VerifyExpert(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error)
	RejectExpert(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error)
	RevokeExpertVerification(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error)
	DeleteGroup(ctx context.Context, actorID, groupID int64, reason string) error
}

// ModerationHandler handles account moderation HTTP requests
type ModerationHandler struct {
	service ModerationService
	now     func() time.Time
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(service ModerationService) *ModerationHandler {
	return &ModerationHandler{
		service: service,
		now:     time.Now,
	}
}

// Request/Response DTOs

// ReasonRequest is the body of every action that takes only a reason
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// SuspendRequest represents the request body for suspending an account
type SuspendRequest struct {
	Until  *time.Time `json:"until" validate:"required"`
	Reason string     `json:"reason" validate:"max=1000"`
}

// UpdateRoleRequest represents the request body for changing an account's role
type UpdateRoleRequest struct {
	Role   string `json:"role" validate:"required,oneof=STUDENT EXPERT ADMIN"`
	Reason string `json:"reason" validate:"max=1000"`
}

// ExpertProfileResponse represents an expert profile in the HTTP response
type ExpertProfileResponse struct {
	ID             int64   `json:"id"`
	AccountID      int64   `json:"account_id"`
	Specialization string  `json:"specialization"`
	IsVerified     bool    `json:"is_verified"`
	VerifiedAt     *string `json:"verified_at,omitempty"`
	VerifiedBy     *int64  `json:"verified_by,omitempty"`
}

// PermanentDeleteResponse reports what a permanent deletion removed
type PermanentDeleteResponse struct {
	AccountID int64                   `json:"account_id"`
	Removed   *services.CascadeResult `json:"removed"`
}

func expertProfileToResponse(p *models.ExpertProfile) *ExpertProfileResponse {
	return &ExpertProfileResponse{
		ID:             p.ID,
		AccountID:      p.AccountID,
		Specialization: p.Specialization,
		IsVerified:     p.IsVerified,
		VerifiedAt:     formatOptionalTime(p.VerifiedAt),
		VerifiedBy:     p.VerifiedBy,
	}
}

type accountAction func(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)

// handleAccountAction runs a reason-only account operation and writes the
// resulting account.
func (h *ModerationHandler) handleAccountAction(w http.ResponseWriter, r *http.Request, action accountAction) {
	actorID, ok := actingAdminID(w, r)
	if !ok {
		return
	}

	targetID, err := parseIDParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	var req ReasonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := action(r.Context(), actorID, targetID, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountToResponse(account, h.now()))
}

// Suspend handles POST /admin/accounts/{id}/suspend
func (h *ModerationHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actingAdminID(w, r)
	if !ok {
		return
	}

	targetID, err := parseIDParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	var req SuspendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := h.service.Suspend(r.Context(), actorID, targetID, *req.Until, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountToResponse(account, h.now()))
}

// Unsuspend handles POST /admin/accounts/{id}/unsuspend
func (h *ModerationHandler) Unsuspend(w http.ResponseWriter, r *http.Request) {
	h.handleAccountAction(w, r, h.service.Unsuspend)
}

// Ban handles POST /admin/accounts/{id}/ban
func (h *ModerationHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.handleAccountAction(w, r, h.service.Ban)
}

// Unban handles POST /admin/accounts/{id}/unban
func (h *ModerationHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.handleAccountAction(w, r, h.service.Unban)
}

// SoftDelete handles POST /admin/accounts/{id}/soft-delete
func (h *ModerationHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	h.handleAccountAction(w, r, h.service.SoftDelete)
}

// Restore handles POST /admin/accounts/{id}/restore
func (h *ModerationHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.handleAccountAction(w, r, h.service.Restore)
}

// DisableLogin handles POST /admin/accounts/{id}/disable-login
func (h *ModerationHandler) DisableLogin(w http.ResponseWriter, r *http.Request) {
	h.handleAccountAction(w, r, h.service.DisableLogin)
}

// EnableLogin handles POST /admin/accounts/{id}/enable-login
func (h *ModerationHandler) EnableLogin(w http.ResponseWriter, r *http.Request) {
	h.handleAccountAction(w, r, h.service.EnableLogin)
}

// UpdateRole handles PUT /admin/accounts/{id}/role
func (h *ModerationHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actingAdminID(w, r)
	if !ok {
		return
	}

	targetID, err := parseIDParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	var req UpdateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := h.service.UpdateRole(r.Context(), actorID, targetID, models.Role(req.Role), req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountToResponse(account, h.now()))
}

// PermanentDelete handles POST /admin/accounts/{id}/permanent-delete
func (h *ModerationHandler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actingAdminID(w, r)
	if !ok {
		return
	}

	targetID, err := parseIDParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	var req ReasonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.PermanentDelete(r.Context(), actorID, targetID, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &PermanentDeleteResponse{AccountID: targetID, Removed: result})
}

type expertAction func(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error)

func (h *ModerationHandler) handleExpertAction(w http.ResponseWriter, r *http.Request, action expertAction) {
	actorID, ok := actingAdminID(w, r)
	if !ok {
		return
	}

	accountID, err := parseIDParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	var req ReasonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	profile, err := action(r.Context(), actorID, accountID, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, expertProfileToResponse(profile))
}

// VerifyExpert handles POST /admin/accounts/{id}/expert/verify
func (h *ModerationHandler) VerifyExpert(w http.ResponseWriter, r *http.Request) {
	h.handleExpertAction(w, r, h.service.VerifyExpert)
}

// RejectExpert handles POST /admin/accounts/{id}/expert/reject.
// The response describes the profile as it was before removal.
func (h *ModerationHandler) RejectExpert(w http.ResponseWriter, r *http.Request) {
	h.handleExpertAction(w, r, h.service.RejectExpert)
}

// RevokeExpertVerification handles POST /admin/accounts/{id}/expert/revoke
func (h *ModerationHandler) RevokeExpertVerification(w http.ResponseWriter, r *http.Request) {
	h.handleExpertAction(w, r, h.service.RevokeExpertVerification)
}

// DeleteGroup handles DELETE /admin/groups/{id}
func (h *ModerationHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actingAdminID(w, r)
	if !ok {
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	var req ReasonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.DeleteGroup(r.Context(), actorID, groupID, req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
