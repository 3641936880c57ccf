package services

import (
	"context"
	"time"

	"github.com/BradenHooton/studyhub/internal/models"
)

// MockAccountDirectory implements AccountDirectory for testing
type MockAccountDirectory struct {
	GetByIDFunc    func(ctx context.Context, id int64) (*models.Account, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.Account, error)
	ListFunc       func(ctx context.Context, limit, offset int) ([]*models.Account, error)
	CreateFunc     func(ctx context.Context, account *models.Account) (*models.Account, error)
}

func (m *MockAccountDirectory) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountDirectory) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountDirectory) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountDirectory) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, models.ErrInternalServer
}

// NewTestAccount creates an active account for testing
func NewTestAccount(id int64, email string, role models.Role) *models.Account {
	now := time.Now().UTC()
	return &models.Account{
		ID:        id,
		Email:     email,
		Name:      "Test Account",
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
