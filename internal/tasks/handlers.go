// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/launchkit/launchkit/internal/accounts"
	"github.com/launchkit/launchkit/internal/jobs"
	"github.com/launchkit/launchkit/internal/mail"
	"github.com/launchkit/launchkit/internal/platform/config"
)

// EmailSender is the slice of the mail service the handlers need.
type EmailSender interface {
	Send(ctx context.Context, message mail.Message) error
}

// SendEmailPayload is the payload of the generic send_email job type.
type SendEmailPayload struct {
	To       []string `json:"to"`
	Cc       []string `json:"cc,omitempty"`
	Bcc      []string `json:"bcc,omitempty"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body"`
	HTMLBody string   `json:"html_body,omitempty"`
}

// RegisterHandlers binds every job type to its handler on the runner.
func RegisterHandlers(runner *jobs.Runner, sender EmailSender, configuration *config.Config) {
	runner.Register(jobs.TypeSendEmail, SendEmailHandler(sender, configuration))
	runner.Register(jobs.TypeSendPasswordResetEmail, SendPasswordResetEmailHandler(sender, configuration))
}

// SendEmailHandler returns the handler for the generic send_email job.
// A transport failure is returned so the runner retries with backoff.
func SendEmailHandler(sender EmailSender, configuration *config.Config) jobs.HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) error {
		var input SendEmailPayload
		if err := json.Unmarshal(payload, &input); err != nil {
			return fmt.Errorf("send_email_payload_invalid: %w", err)
		}

		return sender.Send(ctx, mail.Message{
			From:     configuration.DefaultFromEmail,
			To:       input.To,
			Cc:       input.Cc,
			Bcc:      input.Bcc,
			Subject:  input.Subject,
			TextBody: input.TextBody,
			HTMLBody: input.HTMLBody,
		})
	}
}

// SendPasswordResetEmailHandler returns the handler for the
// send_password_reset_email job. It renders the text and HTML templates and
// builds the reset link from the configured frontend base URL.
func SendPasswordResetEmailHandler(sender EmailSender, configuration *config.Config) jobs.HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) error {
		var input accounts.PasswordResetEmailPayload
		if err := json.Unmarshal(payload, &input); err != nil {
			return fmt.Errorf("send_password_reset_email_payload_invalid: %w", err)
		}

		textBody, htmlBody, err := mail.RenderPasswordReset(mail.PasswordResetData{
			ProjectName: configuration.ProjectName,
			ResetURL:    mail.PasswordResetURL(configuration.FrontendURL, input.UID, input.Token),
			ExpiryMin:   configuration.ResetTokenTTLMinutes,
		})
		if err != nil {
			return fmt.Errorf("send_password_reset_email_render_failed: %w", err)
		}

		return sender.Send(ctx, mail.Message{
			From:     configuration.DefaultFromEmail,
			To:       []string{input.Email},
			Subject:  fmt.Sprintf("Password reset for %s", configuration.ProjectName),
			TextBody: textBody,
			HTMLBody: htmlBody,
		})
	}
}
