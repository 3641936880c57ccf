package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/studyhub/internal/auth"
	"github.com/BradenHooton/studyhub/internal/database"
	"github.com/BradenHooton/studyhub/internal/handlers"
	middlewareCustom "github.com/BradenHooton/studyhub/internal/middleware"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/repositories"
	"github.com/BradenHooton/studyhub/internal/routes"
	"github.com/BradenHooton/studyhub/internal/services"
)

const testJWTSecret = "test-secret-32-characters-long-for-testing"

// SentNotice is a captured account notification
type SentNotice struct {
	AccountID int64
	Action    models.AuditAction
	Reason    string
}

// MockNotifier captures account notifications for test assertions
type MockNotifier struct {
	mu      sync.Mutex
	Notices []SentNotice
}

func (m *MockNotifier) NotifyAccountAction(_ context.Context, account *models.Account, action models.AuditAction, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notices = append(m.Notices, SentNotice{AccountID: account.ID, Action: action, Reason: reason})
	return nil
}

// Sent returns a copy of the captured notices
func (m *MockNotifier) Sent() []SentNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentNotice(nil), m.Notices...)
}

// TestServer wraps httptest.Server with the full moderation stack on a real database
type TestServer struct {
	Server     *httptest.Server
	DB         *database.DB
	Moderation *services.ModerationService
	Notifier   *MockNotifier
	Tokens     *auth.TokenManager
}

// NewTestServer wires repositories, services, handlers and routes the same way cmd/api does
func NewTestServer(db *database.DB) *TestServer {
	logger := discardLogger()

	accountRepo := repositories.NewAccountRepository(db.Pool)
	auditRepo := repositories.NewAuditLogRepository(db.Pool)
	store := repositories.NewPostgresModerationStore(db)
	notifier := &MockNotifier{}
	tokens := auth.NewTokenManager(testJWTSecret, 15*time.Minute)

	auditService := services.NewAuditService(auditRepo, logger)
	moderation := services.NewModerationService(store, auditService, logger, services.WithNotifier(notifier))
	gate := services.NewLoginGate(accountRepo)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: "test"}))
	r.Use(middlewareCustom.SecureLogger(logger, nil))
	r.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(r,
		routes.Handlers{
			Moderation: handlers.NewModerationHandler(moderation),
			Accounts:   handlers.NewAccountHandler(services.NewAccountService(accountRepo, logger), gate),
			Audit:      handlers.NewAuditHandler(auditService),
			Dashboard:  handlers.NewAdminHandler(services.NewAdminService(accountRepo, auditRepo, logger)),
		},
		routes.Guards{
			Tokens:    tokens,
			Gate:      gate,
			Accounts:  accountRepo,
			RateLimit: middlewareCustom.RateLimitConfig{RequestsPerMinute: 1000},
		},
	)

	return &TestServer{
		Server:     httptest.NewServer(r),
		DB:         db,
		Moderation: moderation,
		Notifier:   notifier,
		Tokens:     tokens,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// TokenFor mints an access token for the account
func (ts *TestServer) TokenFor(account *models.Account) string {
	token, err := ts.Tokens.GenerateAccessToken(account.ID, account.Email)
	if err != nil {
		panic(err)
	}
	return token
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return http.DefaultClient.Do(req)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorMessage extracts error message from error response
func GetErrorMessage(resp *http.Response) (string, error) {
	var errResp map[string]interface{}
	if err := ParseJSONResponse(resp, &errResp); err != nil {
		return "", err
	}
	msg, _ := errResp["message"].(string)
	return msg, nil
}
