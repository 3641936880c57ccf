package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/studyhub/internal/handlers"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAuditQueryService struct {
	GetAccountAuditTrailFunc func(ctx context.Context, accountID int64, limit, offset int) ([]*models.AuditLog, int64, error)
	ListByActionFunc         func(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}

func (m *mockAuditQueryService) GetAccountAuditTrail(ctx context.Context, accountID int64, limit, offset int) ([]*models.AuditLog, int64, error) {
	if m.GetAccountAuditTrailFunc == nil {
		return nil, 0, nil
	}
	return m.GetAccountAuditTrailFunc(ctx, accountID, limit, offset)
}

func (m *mockAuditQueryService) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	if m.ListByActionFunc == nil {
		return nil, nil
	}
	return m.ListByActionFunc(ctx, action, limit, offset)
}

func auditEntry(action models.AuditAction, target int64) *models.AuditLog {
	return &models.AuditLog{
		ID:         uuid.New(),
		AdminID:    adminID,
		ActionType: action,
		TargetType: models.AuditTargetAccount,
		TargetID:   target,
		Reason:     "policy",
		Metadata:   models.AuditMetadata{"previous_role": "ADMIN"},
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGetAccountAuditTrail(t *testing.T) {
	mock := &mockAuditQueryService{
		GetAccountAuditTrailFunc: func(_ context.Context, accountID int64, limit, offset int) ([]*models.AuditLog, int64, error) {
			assert.Equal(t, int64(12), accountID)
			assert.Equal(t, 2, limit)
			assert.Equal(t, 0, offset)
			return []*models.AuditLog{
				auditEntry(models.AuditActionRoleChange, accountID),
				auditEntry(models.AuditActionBan, accountID),
			}, 7, nil
		},
	}
	h := handlers.NewAuditHandler(mock)

	req := httptest.NewRequest("GET", "/admin/accounts/12/audit?limit=2", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "12"})
	w := httptest.NewRecorder()
	h.GetAccountAuditTrail(w, req)

	var resp struct {
		Logs  []handlers.AuditLogResponse `json:"logs"`
		Total int64                       `json:"total"`
	}
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "7", w.Header().Get("X-Total-Count"))
	assert.Equal(t, int64(7), resp.Total)
	require.Len(t, resp.Logs, 2)
	assert.Equal(t, "ROLE_CHANGE", resp.Logs[0].ActionType)
	assert.Equal(t, "ADMIN", resp.Logs[0].Metadata["previous_role"])
	assert.Equal(t, "2026-03-01T12:00:00Z", resp.Logs[0].CreatedAt)
}

func TestGetAccountAuditTrail_InvalidLimit(t *testing.T) {
	h := handlers.NewAuditHandler(&mockAuditQueryService{})

	req := httptest.NewRequest("GET", "/admin/accounts/12/audit?limit=500", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "12"})
	w := httptest.NewRecorder()
	h.GetAccountAuditTrail(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestListByAction(t *testing.T) {
	t.Run("missing action", func(t *testing.T) {
		h := handlers.NewAuditHandler(&mockAuditQueryService{})
		w := httptest.NewRecorder()
		h.ListByAction(w, httptest.NewRequest("GET", "/admin/audit", nil))
		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})

	t.Run("unknown action", func(t *testing.T) {
		mock := &mockAuditQueryService{
			ListByActionFunc: func(_ context.Context, action string, _, _ int) ([]*models.AuditLog, error) {
				return nil, fmt.Errorf("unknown audit action %q: %w", action, models.ErrBadRequest)
			},
		}
		h := handlers.NewAuditHandler(mock)
		w := httptest.NewRecorder()
		h.ListByAction(w, httptest.NewRequest("GET", "/admin/audit?action=LOGIN", nil))
		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})

	t.Run("filters", func(t *testing.T) {
		mock := &mockAuditQueryService{
			ListByActionFunc: func(_ context.Context, action string, _, _ int) ([]*models.AuditLog, error) {
				return []*models.AuditLog{auditEntry(models.AuditAction(action), 3)}, nil
			},
		}
		h := handlers.NewAuditHandler(mock)
		w := httptest.NewRecorder()
		h.ListByAction(w, httptest.NewRequest("GET", "/admin/audit?action=BAN", nil))

		var resp struct {
			Logs []handlers.AuditLogResponse `json:"logs"`
		}
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		require.Len(t, resp.Logs, 1)
		assert.Equal(t, "BAN", resp.Logs[0].ActionType)
	})
}
