// moderationctl is the operator CLI for the moderation service.
//
//	moderationctl migrate
//	moderationctl token --account-id 1 [--ttl 15m]
//
// Both commands read the same environment as the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/studyhub/internal/auth"
	"github.com/BradenHooton/studyhub/internal/config"
	"github.com/BradenHooton/studyhub/internal/database"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/repositories"
	"github.com/BradenHooton/studyhub/internal/services"
	pkglogger "github.com/BradenHooton/studyhub/pkg/logger"
	"github.com/spf13/pflag"
)

const usage = `Usage: moderationctl <command> [flags]

Commands:
  migrate   apply pending database migrations
  token     mint an access token for an ADMIN account
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "migrate":
		return runMigrate(ctx, args[1:])
	case "token":
		return runToken(ctx, args[1:], out)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stderr, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runMigrate(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	timeout := flags.Duration("timeout", 2*time.Minute, "give up after this long")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := pkglogger.New(os.Stderr, cfg.Server.LogLevel)

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	return database.Migrate(ctx, cfg.Database.DSN(), logger)
}

func runToken(ctx context.Context, args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("token", pflag.ContinueOnError)
	accountID := flags.Int64("account-id", 0, "ADMIN account to mint the token for")
	ttl := flags.Duration("ttl", 0, "token lifetime (default ACCESS_TOKEN_EXPIRY)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *accountID <= 0 {
		return fmt.Errorf("--account-id is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := pkglogger.New(os.Stderr, "warn")

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := repositories.NewAccountRepository(db.Pool)
	account, err := accounts.GetByID(ctx, *accountID)
	if err != nil {
		return fmt.Errorf("load account %d: %w", *accountID, err)
	}
	if account.Role != models.RoleAdmin {
		return fmt.Errorf("account %d has role %s, not ADMIN", account.ID, account.Role)
	}
	// the API refuses the token anyway, fail early with the reason
	if err := services.NewLoginGate(accounts).Check(ctx, account.ID); err != nil {
		return fmt.Errorf("account %d cannot log in: %w", account.ID, err)
	}

	expiry := cfg.Auth.AccessTokenExpiry
	if *ttl > 0 {
		expiry = *ttl
	}
	token, err := auth.NewTokenManager(cfg.Auth.JWTSecret, expiry).GenerateAccessToken(account.ID, account.Email)
	if err != nil {
		return err
	}

	logger.Warn("admin token minted", slog.Int64("account_id", account.ID), slog.Duration("ttl", expiry))
	_, err = fmt.Fprintln(out, token)
	return err
}
