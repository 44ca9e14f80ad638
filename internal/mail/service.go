// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/launchkit/launchkit/internal/platform/metrics"
	"github.com/launchkit/launchkit/pkg/pagination"
)

// Service delivers messages through a [Transport] and writes one audit
// [Record] per attempt.
//
// # Invariant
//
// Every call to Send produces exactly one Record, whether delivery succeeded
// or not. On failure the transport error is returned only AFTER the record
// has been written, so callers (the job runner) can retry while staff can
// still see the failed attempt.
type Service struct {
	transport Transport
	records   RecordRepository
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewService wires a mail Service.
func NewService(transport Transport, records RecordRepository, collector *metrics.Collector, logger *slog.Logger) *Service {
	return &Service{
		transport: transport,
		records:   records,
		collector: collector,
		logger:    logger,
	}
}

/*
Send delivers the message and records the attempt.

On transport failure the stored subject is prefixed with "[FAILED] " and the
stored body carries the error description above the original body.

Parameters:
  - context: context.Context
  - message: Message

Returns:
  - error: The transport error, or a storage error if auditing failed
*/
func (service *Service) Send(context context.Context, message Message) error {
	sendErr := service.transport.Send(context, message)

	record := &Record{
		FromEmail: message.From,
		ToEmails:  JoinAddresses(message.To),
		CcEmails:  JoinAddresses(message.Cc),
		BccEmails: JoinAddresses(message.Bcc),
		Subject:   message.Subject,
		Body:      message.TextBody,
		HTMLBody:  message.HTMLBody,
		Status:    StatusSent,
	}

	if sendErr != nil {
		record.Subject = FailedSubjectPrefix + message.Subject
		record.Body = fmt.Sprintf("Delivery error: %s\n\n%s", sendErr.Error(), message.TextBody)
		record.Status = StatusFailed
	}

	if storeErr := service.records.Create(context, record); storeErr != nil {
		// The audit row is mandatory. Losing it is worse than losing the
		// delivery error, so surface the storage failure first.
		service.logger.ErrorContext(context, "email_audit_write_failed",
			slog.String("to", record.ToEmails),
			slog.Any("error", storeErr),
		)
		return storeErr
	}

	if sendErr != nil {
		service.collector.RecordEmailFailed()
		service.logger.ErrorContext(context, "email_send_failed",
			slog.String("to", record.ToEmails),
			slog.String("subject", message.Subject),
			slog.Any("error", sendErr),
		)
		return sendErr
	}

	service.collector.RecordEmailSent()
	service.logger.InfoContext(context, "email_sent",
		slog.String("to", record.ToEmails),
		slog.String("subject", message.Subject),
	)

	return nil
}

/*
History returns the audit trail newest-first.

Parameters:
  - context: context.Context
  - page: pagination.Params

Returns:
  - []Record: One page of audit rows
  - int: Total number of rows
  - error: Query failures
*/
func (service *Service) History(context context.Context, page pagination.Params) ([]Record, int, error) {
	return service.records.List(context, page)
}
