package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/studyhub/internal/handlers"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAdminService implements handlers.AdminServiceInterface for testing
type mockAdminService struct {
	GetOverviewFunc func(ctx context.Context, limit int) (*services.ModerationOverview, error)
}

func (m *mockAdminService) GetOverview(ctx context.Context, limit int) (*services.ModerationOverview, error) {
	if m.GetOverviewFunc == nil {
		return &services.ModerationOverview{
			Accounts:       &models.ModerationCounts{},
			RecentActivity: []services.ActivityEntry{},
		}, nil
	}
	return m.GetOverviewFunc(ctx, limit)
}

func TestGetOverview_Success_Returns200(t *testing.T) {
	mock := &mockAdminService{
		GetOverviewFunc: func(_ context.Context, limit int) (*services.ModerationOverview, error) {
			return &services.ModerationOverview{
				Accounts: &models.ModerationCounts{
					Total:            120,
					FunctionalAdmins: 3,
					Banned:           4,
					Suspended:        6,
					Deleted:          2,
					LoginDisabled:    1,
					PendingExperts:   5,
				},
				RecentActivity: []services.ActivityEntry{
					{Timestamp: "2026-03-01T12:00:00Z", AdminID: 1, ActionType: "BAN", TargetType: "ACCOUNT", TargetID: 9},
				},
			}, nil
		},
	}
	h := handlers.NewAdminHandler(mock)

	w := httptest.NewRecorder()
	h.GetOverview(w, httptest.NewRequest("GET", "/admin/dashboard/overview", nil))

	var resp services.ModerationOverview
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	require.NotNil(t, resp.Accounts)
	assert.Equal(t, int64(120), resp.Accounts.Total)
	assert.Equal(t, int64(5), resp.Accounts.PendingExperts)
	require.Len(t, resp.RecentActivity, 1)
	assert.Equal(t, "BAN", resp.RecentActivity[0].ActionType)
}

func TestGetOverview_Limit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"?limit=5", 5},
		{"?limit=0", 20},
		{"?limit=99", 20},
		{"?limit=abc", 20},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got int
			mock := &mockAdminService{
				GetOverviewFunc: func(_ context.Context, limit int) (*services.ModerationOverview, error) {
					got = limit
					return &services.ModerationOverview{Accounts: &models.ModerationCounts{}}, nil
				},
			}
			h := handlers.NewAdminHandler(mock)

			w := httptest.NewRecorder()
			h.GetOverview(w, httptest.NewRequest("GET", "/admin/dashboard/overview"+tt.query, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetOverview_ServiceError_Returns500(t *testing.T) {
	mock := &mockAdminService{
		GetOverviewFunc: func(context.Context, int) (*services.ModerationOverview, error) {
			return nil, errors.New("db down")
		},
	}
	h := handlers.NewAdminHandler(mock)

	w := httptest.NewRecorder()
	h.GetOverview(w, httptest.NewRequest("GET", "/admin/dashboard/overview", nil))

	handlers.AssertErrorResponse(t, w, http.StatusInternalServerError, "internal_error")
}
