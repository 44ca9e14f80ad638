// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// PasswordResetData parameterizes the password-reset email templates.
type PasswordResetData struct {
	ProjectName string
	ResetURL    string
	ExpiryMin   int
}

var passwordResetText = texttemplate.Must(texttemplate.New("password_reset_text").Parse(
	`You requested a password reset for your {{.ProjectName}} account.

Open the link below to choose a new password:

{{.ResetURL}}

This link expires in {{.ExpiryMin}} minutes and can be used only once.

If you did not request this, you can safely ignore this email.
`))

var passwordResetHTML = htmltemplate.Must(htmltemplate.New("password_reset_html").Parse(
	`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1a1a2e;">
  <h2>Reset your {{.ProjectName}} password</h2>
  <p>You requested a password reset for your {{.ProjectName}} account.</p>
  <p>
    <a href="{{.ResetURL}}" style="display: inline-block; padding: 10px 20px; background: #0f3460; color: #ffffff; text-decoration: none; border-radius: 4px;">
      Choose a new password
    </a>
  </p>
  <p>This link expires in {{.ExpiryMin}} minutes and can be used only once.</p>
  <p>If you did not request this, you can safely ignore this email.</p>
</body>
</html>
`))

// RenderPasswordReset produces the text and HTML bodies of the reset email.
func RenderPasswordReset(data PasswordResetData) (textBody, htmlBody string, err error) {
	var text bytes.Buffer
	if err := passwordResetText.Execute(&text, data); err != nil {
		return "", "", fmt.Errorf("password_reset_text_render_failed: %w", err)
	}

	var html bytes.Buffer
	if err := passwordResetHTML.Execute(&html, data); err != nil {
		return "", "", fmt.Errorf("password_reset_html_render_failed: %w", err)
	}

	return text.String(), html.String(), nil
}

// PasswordResetURL builds the frontend link carried in the reset email.
func PasswordResetURL(frontendURL, uid, token string) string {
	return fmt.Sprintf("%s/auth/reset-password?uid=%s&token=%s", frontendURL, uid, token)
}

// AdminAlertData parameterizes operational warning emails sent to staff.
type AdminAlertData struct {
	ProjectName string
	Subject     string
	Detail      string
}

var adminAlertText = texttemplate.Must(texttemplate.New("admin_alert_text").Parse(
	`{{.ProjectName}} operational alert

{{.Detail}}

This message was generated automatically by the background worker.
`))

// RenderAdminAlert produces the body of an operational warning email.
func RenderAdminAlert(data AdminAlertData) (string, error) {
	var text bytes.Buffer
	if err := adminAlertText.Execute(&text, data); err != nil {
		return "", fmt.Errorf("admin_alert_render_failed: %w", err)
	}
	return text.String(), nil
}
