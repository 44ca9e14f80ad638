// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package mail

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/launchkit/launchkit/internal/platform/config"
)

// SMTPTransport delivers mail over a plain SMTP connection.
//
// If a message carries an HTML body, the transport sends a
// multipart/alternative payload with both text and HTML versions.
type SMTPTransport struct {
	host     string
	port     int
	user     string
	password string
	fromName string
}

// NewSMTPTransport creates an SMTP transport.
//
// # Parameters
//   - host, port: SMTP server address.
//   - user, password: Credentials for PLAIN auth. Empty disables auth.
//   - fromName: Optional display name for the From header.
func NewSMTPTransport(host string, port int, user, password, fromName string) *SMTPTransport {
	return &SMTPTransport{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		fromName: fromName,
	}
}

// Send implements [Transport].
func (transport *SMTPTransport) Send(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp_send_cancelled: %w", err)
	}

	payload := buildPayload(transport.fromName, message)
	addr := fmt.Sprintf("%s:%d", transport.host, transport.port)

	var auth smtp.Auth
	if transport.user != "" && transport.password != "" {
		auth = smtp.PlainAuth("", transport.user, transport.password, transport.host)
	}

	if err := smtp.SendMail(addr, auth, message.From, message.Recipients(), payload); err != nil {
		return fmt.Errorf("smtp_send_failed: %w", err)
	}

	return nil
}

// buildPayload assembles the raw RFC 5322 message bytes.
// Bcc recipients appear only in the envelope, never in the headers.
func buildPayload(fromName string, message Message) []byte {
	sender := message.From
	if fromName != "" {
		sender = fmt.Sprintf("%s <%s>", fromName, message.From)
	}

	var msg bytes.Buffer
	msg.WriteString(fmt.Sprintf("From: %s\r\n", sender))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(message.To, ", ")))
	if len(message.Cc) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(message.Cc, ", ")))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", message.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if message.HTMLBody != "" {
		boundary := randomBoundary()
		msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(message.TextBody)
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(message.HTMLBody)
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(message.TextBody)
	}

	return msg.Bytes()
}

// randomBoundary generates a random boundary string for multipart emails.
func randomBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("mail: crypto/rand failed: " + err.Error())
	}
	return "----=_Part_" + hex.EncodeToString(b)
}

// ConsoleTransport writes messages to the structured log instead of sending
// them. Used with EMAIL_BACKEND=console during local development.
type ConsoleTransport struct {
	logger *slog.Logger
}

// NewConsoleTransport creates a console transport.
func NewConsoleTransport(logger *slog.Logger) *ConsoleTransport {
	return &ConsoleTransport{logger: logger}
}

// Send implements [Transport]. It never fails.
func (transport *ConsoleTransport) Send(ctx context.Context, message Message) error {
	transport.logger.InfoContext(ctx, "console_email",
		slog.String("to", JoinAddresses(message.To)),
		slog.String("subject", message.Subject),
		slog.String("body", message.TextBody),
	)
	return nil
}

// NewTransportFromConfig selects the transport implementation matching the
// configured email backend.
func NewTransportFromConfig(cfg *config.Config, logger *slog.Logger) Transport {
	if cfg.EmailBackend == config.EmailBackendSMTP {
		return NewSMTPTransport(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPassword, cfg.ProjectName)
	}
	return NewConsoleTransport(logger)
}
