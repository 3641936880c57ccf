package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/studyhub/internal/models"
	pkglogger "github.com/BradenHooton/studyhub/pkg/logger"
)

// AccountDirectory defines the interface for account lookups and creation
type AccountDirectory interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
}

// AccountService handles account reads and provisioning outside of moderation
type AccountService struct {
	repo   AccountDirectory
	logger *slog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(repo AccountDirectory, logger *slog.Logger) *AccountService {
	return &AccountService{
		repo:   repo,
		logger: logger,
	}
}

// ListAccounts retrieves a list of accounts with pagination
func (s *AccountService) ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	limit, offset = clampPage(limit, offset)

	accounts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list accounts", slog.Int("limit", limit), slog.Int("offset", offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return accounts, nil
}

// EnsureBootstrapAdmin creates an ADMIN account for email unless an account
// with that email already exists. An existing account is returned unchanged,
// whatever its role. The second return value reports whether it was created.
func (s *AccountService) EnsureBootstrapAdmin(ctx context.Context, email, name string) (*models.Account, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, models.ErrBadRequest
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			s.logger.Warn("bootstrap admin email belongs to a non-admin account",
				slog.Int64("account_id", existing.ID),
				slog.String("role", string(existing.Role)))
		}
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up bootstrap admin", slog.Any("error", err))
		return nil, false, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, &models.Account{
		Email:  email,
		Name:   name,
		Role:   models.RoleAdmin,
		Active: true,
	})
	if err != nil {
		s.logger.Error("failed to create bootstrap admin", slog.Any("error", err))
		return nil, false, models.ErrInternalServer
	}

	s.logger.Info("bootstrap admin created",
		slog.Int64("account_id", created.ID),
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return created, true, nil
}
