package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/studyhub/internal/auth"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/services"
	pkghttp "github.com/BradenHooton/studyhub/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext marks the request as sent by accountID
func WithAuthContext(req *http.Request, accountID int64) *http.Request {
	claims := &models.TokenClaims{
		Type:      "access",
		AccountID: accountID,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithChiRouteContext adds chi URL parameters to request context for testing
//
//	req = WithChiRouteContext(req, map[string]string{"id": "42"})
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockModerationService implements ModerationService for testing.
// Unset funcs fail with ErrNotFound.
type MockModerationService struct {
	SuspendFunc                  func(ctx context.Context, actorID, targetID int64, until time.Time, reason string) (*models.Account, error)
	UnsuspendFunc                func(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	BanFunc                      func(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	UnbanFunc                    func(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	SoftDeleteFunc               func(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	RestoreFunc                  func(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	PermanentDeleteFunc          func(ctx context.Context, actorID, targetID int64, reason string) (*services.CascadeResult, error)
	UpdateRoleFunc               func(ctx context.Context, actorID, targetID int64, newRole models.Role, reason string) (*models.Account, error)
	DisableLoginFunc             func(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	EnableLoginFunc              func(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)
	VerifyExpertFunc             func(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error)
	RejectExpertFunc             func(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error)
	RevokeExpertVerificationFunc func(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error)
	DeleteGroupFunc              func(ctx context.Context, actorID, groupID int64, reason string) error
}

type mockAccountFunc func(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error)

func (f mockAccountFunc) call(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	if f == nil {
		return nil, models.ErrNotFound
	}
	return f(ctx, actorID, targetID, reason)
}

type mockExpertFunc func(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error)

func (f mockExpertFunc) call(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error) {
	if f == nil {
		return nil, models.ErrNotFound
	}
	return f(ctx, actorID, accountID, reason)
}

func (m *MockModerationService) Suspend(ctx context.Context, actorID, targetID int64, until time.Time, reason string) (*models.Account, error) {
	if m.SuspendFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.SuspendFunc(ctx, actorID, targetID, until, reason)
}

func (m *MockModerationService) Unsuspend(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return mockAccountFunc(m.UnsuspendFunc).call(ctx, actorID, targetID, reason)
}

func (m *MockModerationService) Ban(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return mockAccountFunc(m.BanFunc).call(ctx, actorID, targetID, reason)
}

func (m *MockModerationService) Unban(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return mockAccountFunc(m.UnbanFunc).call(ctx, actorID, targetID, reason)
}

func (m *MockModerationService) SoftDelete(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return mockAccountFunc(m.SoftDeleteFunc).call(ctx, actorID, targetID, reason)
}

func (m *MockModerationService) Restore(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return mockAccountFunc(m.RestoreFunc).call(ctx, actorID, targetID, reason)
}

func (m *MockModerationService) PermanentDelete(ctx context.Context, actorID, targetID int64, reason string) (*services.CascadeResult, error) {
	if m.PermanentDeleteFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.PermanentDeleteFunc(ctx, actorID, targetID, reason)
}

func (m *MockModerationService) UpdateRole(ctx context.Context, actorID, targetID int64, newRole models.Role, reason string) (*models.Account, error) {
	if m.UpdateRoleFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateRoleFunc(ctx, actorID, targetID, newRole, reason)
}

func (m *MockModerationService) DisableLogin(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return mockAccountFunc(m.DisableLoginFunc).call(ctx, actorID, targetID, reason)
}

func (m *MockModerationService) EnableLogin(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return mockAccountFunc(m.EnableLoginFunc).call(ctx, actorID, targetID, reason)
}

func (m *MockModerationService) VerifyExpert(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error) {
	return mockExpertFunc(m.VerifyExpertFunc).call(ctx, actorID, accountID, reason)
}

func (m *MockModerationService) RejectExpert(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error) {
	return mockExpertFunc(m.RejectExpertFunc).call(ctx, actorID, accountID, reason)
}

func (m *MockModerationService) RevokeExpertVerification(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error) {
	return mockExpertFunc(m.RevokeExpertVerificationFunc).call(ctx, actorID, accountID, reason)
}

func (m *MockModerationService) DeleteGroup(ctx context.Context, actorID, groupID int64, reason string) error {
	if m.DeleteGroupFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteGroupFunc(ctx, actorID, groupID, reason)
}
