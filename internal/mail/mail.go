// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

/*
Package mail provides audited outbound email for LaunchKit.

Every delivery attempt is recorded in PostgreSQL regardless of outcome, so
staff can inspect exactly what the system tried to send and when. Failed
deliveries are stored with a "[FAILED] " subject prefix and the transport
error, then the error is propagated to the caller so that background jobs
can retry.

# Architecture

  - Message: the outbound payload (recipients, subject, text and HTML bodies).
  - Transport: the delivery mechanism (SMTP in production, console in development).
  - Record: the persisted audit row, one per delivery attempt.
  - Service: orchestrates delivery and auditing.
*/
package mail

import (
	"context"
	"strings"
	"time"

	"github.com/launchkit/launchkit/pkg/pagination"
)

// Delivery status values for [Record].
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// FailedSubjectPrefix marks audit rows whose delivery attempt failed.
const FailedSubjectPrefix = "[FAILED] "

// Message is an outbound email payload.
type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Recipients returns every envelope recipient (To + Cc + Bcc).
func (m Message) Recipients() []string {
	recipients := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	recipients = append(recipients, m.To...)
	recipients = append(recipients, m.Cc...)
	recipients = append(recipients, m.Bcc...)
	return recipients
}

// Record is the persisted audit row for one delivery attempt.
// Address lists are stored as comma-joined text.
type Record struct {
	ID        string    `json:"id"`
	FromEmail string    `json:"from_email"`
	ToEmails  string    `json:"to_emails"`
	CcEmails  string    `json:"cc_emails,omitempty"`
	BccEmails string    `json:"bcc_emails,omitempty"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	HTMLBody  string    `json:"html_body,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// JoinAddresses flattens an address list for storage.
func JoinAddresses(addresses []string) string {
	return strings.Join(addresses, ", ")
}

// Transport delivers a message to the outside world.
type Transport interface {
	Send(ctx context.Context, message Message) error
}

// RecordRepository persists and lists email audit rows.
// Rows are append-only; nothing ever updates or deletes them.
type RecordRepository interface {
	Create(ctx context.Context, record *Record) error
	List(ctx context.Context, page pagination.Params) ([]Record, int, error)
}
