package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/studyhub/internal/handlers"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID int64 = 1

func testAccount(id int64) *models.Account {
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return &models.Account{
		ID:        id,
		Email:     "learner@example.com",
		Name:      "Learner",
		Role:      models.RoleStudent,
		Active:    true,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func serve(h http.HandlerFunc, req *http.Request, params map[string]string) *httptest.ResponseRecorder {
	req = handlers.WithChiRouteContext(req, params)
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestSuspend_Success(t *testing.T) {
	until := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	var gotActor, gotTarget int64
	var gotUntil time.Time
	var gotReason string

	mock := &handlers.MockModerationService{
		SuspendFunc: func(ctx context.Context, actorID, targetID int64, u time.Time, reason string) (*models.Account, error) {
			gotActor, gotTarget, gotUntil, gotReason = actorID, targetID, u, reason
			a := testAccount(targetID)
			a.SuspendedUntil = &u
			a.SuspensionReason = &reason
			return a, nil
		},
	}
	h := handlers.NewModerationHandler(mock)

	req := handlers.NewTestRequest(t, "POST", "/admin/accounts/42/suspend", map[string]interface{}{
		"until":  until.Format(time.RFC3339),
		"reason": "spam",
	})
	req = handlers.WithAuthContext(req, adminID)
	w := serve(h.Suspend, req, map[string]string{"id": "42"})

	var resp handlers.AccountResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, adminID, gotActor)
	assert.Equal(t, int64(42), gotTarget)
	assert.True(t, until.Equal(gotUntil))
	assert.Equal(t, "spam", gotReason)
	assert.False(t, resp.CanLogin)
	assert.Equal(t, models.ErrAccountSuspended.Error(), resp.LoginBlockReason)
	require.NotNil(t, resp.SuspendedUntil)
	assert.Equal(t, until.Format(time.RFC3339), *resp.SuspendedUntil)
}

func TestSuspend_MissingUntil_Returns400(t *testing.T) {
	h := handlers.NewModerationHandler(&handlers.MockModerationService{})

	req := handlers.NewTestRequest(t, "POST", "/admin/accounts/42/suspend", map[string]string{"reason": "spam"})
	req = handlers.WithAuthContext(req, adminID)
	w := serve(h.Suspend, req, map[string]string{"id": "42"})

	resp := handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	assert.Contains(t, resp.Message, "until is required")
}

func TestModeration_Unauthenticated_Returns401(t *testing.T) {
	h := handlers.NewModerationHandler(&handlers.MockModerationService{})

	req := handlers.NewTestRequest(t, "POST", "/admin/accounts/42/ban", nil)
	w := serve(h.Ban, req, map[string]string{"id": "42"})

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestModeration_InvalidID_Returns400(t *testing.T) {
	h := handlers.NewModerationHandler(&handlers.MockModerationService{})

	for _, id := range []string{"abc", "0", "-3", ""} {
		req := handlers.NewTestRequest(t, "POST", "/admin/accounts/x/ban", nil)
		req = handlers.WithAuthContext(req, adminID)
		w := serve(h.Ban, req, map[string]string{"id": id})

		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	}
}

func TestModeration_UnknownField_Returns400(t *testing.T) {
	h := handlers.NewModerationHandler(&handlers.MockModerationService{})

	req := httptest.NewRequest("POST", "/admin/accounts/42/ban", strings.NewReader(`{"reason":"x","force":true}`))
	req = handlers.WithAuthContext(req, adminID)
	w := serve(h.Ban, req, map[string]string{"id": "42"})

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestModeration_EmptyBodyAccepted(t *testing.T) {
	called := false
	mock := &handlers.MockModerationService{
		UnbanFunc: func(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
			called = true
			assert.Empty(t, reason)
			return testAccount(targetID), nil
		},
	}
	h := handlers.NewModerationHandler(mock)

	req := httptest.NewRequest("POST", "/admin/accounts/42/unban", nil)
	req = handlers.WithAuthContext(req, adminID)
	w := serve(h.Unban, req, map[string]string{"id": "42"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestModeration_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "precondition",
			err:     models.InvalidOperation("cannot ban the last administrator"),
			status:  http.StatusBadRequest,
			code:    "invalid_operation",
			message: "cannot ban the last administrator",
		},
		{
			name:   "missing account",
			err:    models.NotFound("account", 42),
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{
			name:    "lost lock race",
			err:     fmt.Errorf("%w: deadlock detected", models.ErrConcurrentUpdate),
			status:  http.StatusConflict,
			code:    "conflict",
			message: "another moderation action changed this account at the same time; retry the request",
		},
		{
			name:    "storage failure",
			err:     assert.AnError,
			status:  http.StatusInternalServerError,
			code:    "internal_error",
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &handlers.MockModerationService{
				BanFunc: func(context.Context, int64, int64, string) (*models.Account, error) {
					return nil, tt.err
				},
			}
			h := handlers.NewModerationHandler(mock)

			req := handlers.NewTestRequest(t, "POST", "/admin/accounts/42/ban", map[string]string{"reason": "abuse"})
			req = handlers.WithAuthContext(req, adminID)
			w := serve(h.Ban, req, map[string]string{"id": "42"})

			resp := handlers.AssertErrorResponse(t, w, tt.status, tt.code)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Message)
			}
		})
	}
}

func TestAccountActions_RouteToService(t *testing.T) {
	var called []string
	record := func(name string) func(context.Context, int64, int64, string) (*models.Account, error) {
		return func(_ context.Context, _, targetID int64, _ string) (*models.Account, error) {
			called = append(called, name)
			return testAccount(targetID), nil
		}
	}
	mock := &handlers.MockModerationService{
		UnsuspendFunc:    record("unsuspend"),
		BanFunc:          record("ban"),
		UnbanFunc:        record("unban"),
		SoftDeleteFunc:   record("soft-delete"),
		RestoreFunc:      record("restore"),
		DisableLoginFunc: record("disable-login"),
		EnableLoginFunc:  record("enable-login"),
	}
	h := handlers.NewModerationHandler(mock)

	endpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"unsuspend", h.Unsuspend},
		{"ban", h.Ban},
		{"unban", h.Unban},
		{"soft-delete", h.SoftDelete},
		{"restore", h.Restore},
		{"disable-login", h.DisableLogin},
		{"enable-login", h.EnableLogin},
	}

	for _, ep := range endpoints {
		req := handlers.NewTestRequest(t, "POST", "/admin/accounts/7/"+ep.name, map[string]string{"reason": "r"})
		req = handlers.WithAuthContext(req, adminID)
		w := serve(ep.handler, req, map[string]string{"id": "7"})
		assert.Equal(t, http.StatusOK, w.Code, ep.name)
	}

	assert.Equal(t, []string{"unsuspend", "ban", "unban", "soft-delete", "restore", "disable-login", "enable-login"}, called)
}

func TestUpdateRole(t *testing.T) {
	t.Run("passes role through", func(t *testing.T) {
		var gotRole models.Role
		mock := &handlers.MockModerationService{
			UpdateRoleFunc: func(_ context.Context, _, targetID int64, role models.Role, _ string) (*models.Account, error) {
				gotRole = role
				a := testAccount(targetID)
				a.Role = role
				return a, nil
			},
		}
		h := handlers.NewModerationHandler(mock)

		req := handlers.NewTestRequest(t, "PUT", "/admin/accounts/9/role", map[string]string{"role": "EXPERT"})
		req = handlers.WithAuthContext(req, adminID)
		w := serve(h.UpdateRole, req, map[string]string{"id": "9"})

		var resp handlers.AccountResponse
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, models.RoleExpert, gotRole)
		assert.Equal(t, "EXPERT", resp.Role)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		h := handlers.NewModerationHandler(&handlers.MockModerationService{})

		req := handlers.NewTestRequest(t, "PUT", "/admin/accounts/9/role", map[string]string{"role": "OWNER"})
		req = handlers.WithAuthContext(req, adminID)
		w := serve(h.UpdateRole, req, map[string]string{"id": "9"})

		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})
}

func TestPermanentDelete_ReturnsCascadeCounts(t *testing.T) {
	mock := &handlers.MockModerationService{
		PermanentDeleteFunc: func(context.Context, int64, int64, string) (*services.CascadeResult, error) {
			return &services.CascadeResult{
				ExpertProfileDeleted: true,
				GroupsDeleted:        2,
				MembershipsDeleted:   5,
			}, nil
		},
	}
	h := handlers.NewModerationHandler(mock)

	req := handlers.NewTestRequest(t, "POST", "/admin/accounts/11/permanent-delete", map[string]string{"reason": "gdpr"})
	req = handlers.WithAuthContext(req, adminID)
	w := serve(h.PermanentDelete, req, map[string]string{"id": "11"})

	var resp handlers.PermanentDeleteResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, int64(11), resp.AccountID)
	require.NotNil(t, resp.Removed)
	assert.Equal(t, 2, resp.Removed.GroupsDeleted)
	assert.Equal(t, int64(5), resp.Removed.MembershipsDeleted)
}

func TestExpertActions(t *testing.T) {
	verifiedAt := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	verifier := adminID
	mock := &handlers.MockModerationService{
		VerifyExpertFunc: func(_ context.Context, actorID, accountID int64, _ string) (*models.ExpertProfile, error) {
			return &models.ExpertProfile{
				ID: 3, AccountID: accountID, Specialization: "Calculus",
				IsVerified: true, VerifiedAt: &verifiedAt, VerifiedBy: &verifier,
			}, nil
		},
		RevokeExpertVerificationFunc: func(context.Context, int64, int64, string) (*models.ExpertProfile, error) {
			return nil, models.InvalidOperation("expert is not verified")
		},
	}
	h := handlers.NewModerationHandler(mock)

	req := handlers.NewTestRequest(t, "POST", "/admin/accounts/5/expert/verify", nil)
	req = handlers.WithAuthContext(req, adminID)
	w := serve(h.VerifyExpert, req, map[string]string{"id": "5"})

	var resp handlers.ExpertProfileResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.IsVerified)
	assert.Equal(t, int64(5), resp.AccountID)
	require.NotNil(t, resp.VerifiedAt)
	assert.Equal(t, "2026-02-01T08:00:00Z", *resp.VerifiedAt)

	req = handlers.NewTestRequest(t, "POST", "/admin/accounts/5/expert/revoke", map[string]string{"reason": "fraud"})
	req = handlers.WithAuthContext(req, adminID)
	w = serve(h.RevokeExpertVerification, req, map[string]string{"id": "5"})

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "invalid_operation")
}

func TestDeleteGroup(t *testing.T) {
	var gotGroup int64
	mock := &handlers.MockModerationService{
		DeleteGroupFunc: func(_ context.Context, _, groupID int64, _ string) error {
			gotGroup = groupID
			return nil
		},
	}
	h := handlers.NewModerationHandler(mock)

	req := handlers.NewTestRequest(t, "DELETE", "/admin/groups/8", map[string]string{"reason": "abandoned"})
	req = handlers.WithAuthContext(req, adminID)
	w := serve(h.DeleteGroup, req, map[string]string{"id": "8"})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(8), gotGroup)
}
