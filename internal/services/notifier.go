package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/studyhub/internal/models"
	pkglogger "github.com/BradenHooton/studyhub/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// AccountNotifier tells an account holder about a moderation action taken on
// their account. It is called only after the action has committed.
type AccountNotifier interface {
	NotifyAccountAction(ctx context.Context, account *models.Account, action models.AuditAction, reason string) error
}

// NoopNotifier drops every notification.
type NoopNotifier struct{}

func (NoopNotifier) NotifyAccountAction(context.Context, *models.Account, models.AuditAction, string) error {
	return nil
}

// SESClient is the subset of the SES API used by SESNotifier.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends moderation notices using AWS SES
type SESNotifier struct {
	client      SESClient
	fromAddress string
	logger      *slog.Logger
}

// NewSESNotifier loads the default AWS configuration for region.
func NewSESNotifier(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESNotifierWithClient(ses.NewFromConfig(cfg), fromAddress, logger), nil
}

func NewSESNotifierWithClient(client SESClient, fromAddress string, logger *slog.Logger) *SESNotifier {
	return &SESNotifier{
		client:      client,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

var noticeSubjects = map[models.AuditAction]string{
	models.AuditActionSuspend:      "Your account has been suspended",
	models.AuditActionUnsuspend:    "Your account suspension has been lifted",
	models.AuditActionBan:          "Your account has been banned",
	models.AuditActionUnban:        "Your account ban has been lifted",
	models.AuditActionSoftDelete:   "Your account has been deleted",
	models.AuditActionRestore:      "Your account has been restored",
	models.AuditActionExpertVerify: "Your expert profile has been verified",
	models.AuditActionExpertReject: "Your expert application was not approved",
	models.AuditActionExpertRevoke: "Your expert verification has been revoked",
}

// NotifyAccountAction sends a plain-text notice. Actions without a notice
// template are ignored.
func (n *SESNotifier) NotifyAccountAction(ctx context.Context, account *models.Account, action models.AuditAction, reason string) error {
	subject, ok := noticeSubjects[action]
	if !ok {
		return nil
	}

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{account.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(noticeBody(account, action, subject, reason)),
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		n.logger.Error("failed to send moderation notice via SES",
			slog.Int64("account_id", account.ID),
			slog.String("action", string(action)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("moderation notice sent",
		slog.Int64("account_id", account.ID),
		slog.String("to", pkglogger.SanitizedEmail(account.Email)),
		slog.String("action", string(action)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

func noticeBody(account *models.Account, action models.AuditAction, subject, reason string) string {
	var b strings.Builder

	name := account.Name
	if name == "" {
		name = account.Email
	}
	fmt.Fprintf(&b, "Hello %s,\n\n%s.\n", name, subject)
	if reason = strings.TrimSpace(reason); reason != "" {
		fmt.Fprintf(&b, "\nReason given by the moderation team:\n%s\n", reason)
	}
	// only a suspend notice talks about the suspension window
	if action == models.AuditActionSuspend && account.SuspendedUntil != nil {
		fmt.Fprintf(&b, "\nThe suspension ends at %s.\n", account.SuspendedUntil.UTC().Format("2006-01-02 15:04 MST"))
	}
	b.WriteString("\nThis is an automated message. Please do not reply to this email.\n")

	return b.String()
}
