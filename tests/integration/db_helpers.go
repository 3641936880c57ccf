package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BradenHooton/studyhub/internal/database"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/repositories"
)

// TestDB manages PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetupTestDatabase starts a PostgreSQL container and applies the embedded
// goose migrations.
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("studyhub"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := database.Migrate(ctx, connStr, discardLogger()); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         database.NewFromPool(pool, discardLogger()),
	}, nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE group_messages, group_memberships, study_groups,
		characteristic_profiles, expert_profiles, audit_logs, accounts RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// SeedAccount inserts an active account with the given role.
func (db *TestDB) SeedAccount(ctx context.Context, role models.Role) (*models.Account, error) {
	return repositories.NewAccountRepository(db.Pool).Create(ctx, &models.Account{
		Email:  UniqueEmail(string(role)),
		Name:   "Seeded " + string(role),
		Role:   role,
		Active: true,
	})
}

// SeedExpert inserts an EXPERT account with an unverified expert profile.
func (db *TestDB) SeedExpert(ctx context.Context, specialization string) (*models.Account, *models.ExpertProfile, error) {
	account, err := db.SeedAccount(ctx, models.RoleExpert)
	if err != nil {
		return nil, nil, err
	}
	profile, err := repositories.NewExpertProfileRepository(db.Pool).Create(ctx, &models.ExpertProfile{
		AccountID:      account.ID,
		Specialization: specialization,
	})
	if err != nil {
		return nil, nil, err
	}
	return account, profile, nil
}

// SeedGroup creates a study group owned by creatorID with the given members.
func (db *TestDB) SeedGroup(ctx context.Context, creatorID int64, members ...int64) (*models.StudyGroup, error) {
	groups := repositories.NewStudyGroupRepository(db.Pool)
	group, err := groups.Create(ctx, &models.StudyGroup{Name: fmt.Sprintf("group-of-%d", creatorID), CreatorID: creatorID})
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if err := groups.AddMember(ctx, group.ID, m); err != nil {
			return nil, err
		}
	}
	return group, nil
}

// CountRows returns the number of rows matching where in table.
func (db *TestDB) CountRows(ctx context.Context, table, where string, args ...any) (int64, error) {
	var n int64
	err := db.Pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where), args...).Scan(&n)
	return n, err
}
