package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/services"
	pkghttp "github.com/BradenHooton/studyhub/pkg/http"
)

// AccountService defines the account read operations used by AccountHandler
type AccountService interface {
	ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error)
}

// AccountStatusService evaluates login eligibility for an account
type AccountStatusService interface {
	Status(ctx context.Context, accountID int64) (*services.AccountStatus, error)
}

// AccountHandler handles account read requests for administrators
type AccountHandler struct {
	accounts AccountService
	status   AccountStatusService
	now      func() time.Time
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts AccountService, status AccountStatusService) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		status:   status,
		now:      time.Now,
	}
}

// AccountResponse represents an account and its derived login state
type AccountResponse struct {
	ID               int64   `json:"id"`
	Email            string  `json:"email"`
	Name             string  `json:"name"`
	Role             string  `json:"role"`
	Active           bool    `json:"active"`
	Deleted          bool    `json:"deleted"`
	DeletedAt        *string `json:"deleted_at,omitempty"`
	SuspendedUntil   *string `json:"suspended_until,omitempty"`
	SuspensionReason *string `json:"suspension_reason,omitempty"`
	BannedAt         *string `json:"banned_at,omitempty"`
	BanReason        *string `json:"ban_reason,omitempty"`
	CanLogin         bool    `json:"can_login"`
	LoginBlockReason string  `json:"login_block_reason,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// ListAccountsResponse represents a page of accounts
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// accountToResponse converts an account model to a response DTO, deriving
// login eligibility at now
func accountToResponse(a *models.Account, now time.Time) *AccountResponse {
	resp := &AccountResponse{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		Role:             string(a.Role),
		Active:           a.Active,
		Deleted:          a.Deleted,
		DeletedAt:        formatOptionalTime(a.DeletedAt),
		SuspendedUntil:   formatOptionalTime(a.SuspendedUntil),
		SuspensionReason: a.SuspensionReason,
		BannedAt:         formatOptionalTime(a.BannedAt),
		BanReason:        a.BanReason,
		CanLogin:         true,
		CreatedAt:        a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if reason := a.LoginBlockReason(now); reason != nil {
		resp.CanLogin = false
		resp.LoginBlockReason = reason.Error()
	}
	return resp
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// ListAccounts handles GET /admin/accounts
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r, services.DefaultPageSize, services.MaxPageSize)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	now := h.now()
	response := &ListAccountsResponse{
		Accounts: make([]*AccountResponse, len(accounts)),
		Limit:    limit,
		Offset:   offset,
	}
	for i, a := range accounts {
		response.Accounts[i] = accountToResponse(a, now)
	}

	writeJSON(w, http.StatusOK, response)
}

// GetAccount handles GET /admin/accounts/{id}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	status, err := h.status.Status(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := accountToResponse(status.Account, h.now())
	resp.CanLogin = status.CanLogin
	resp.LoginBlockReason = status.LoginBlockReason

	writeJSON(w, http.StatusOK, resp)
}
