// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package mail

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit/pkg/pagination"
)

// fakeTransport lets tests force a delivery outcome.
type fakeTransport struct {
	err  error
	sent []Message
}

func (transport *fakeTransport) Send(_ context.Context, message Message) error {
	if transport.err != nil {
		return transport.err
	}
	transport.sent = append(transport.sent, message)
	return nil
}

// fakeRecordRepository collects audit rows in memory.
type fakeRecordRepository struct {
	createErr error
	records   []Record
}

func (repository *fakeRecordRepository) Create(_ context.Context, record *Record) error {
	if repository.createErr != nil {
		return repository.createErr
	}
	repository.records = append(repository.records, *record)
	return nil
}

func (repository *fakeRecordRepository) List(_ context.Context, page pagination.Params) ([]Record, int, error) {
	return repository.records, len(repository.records), nil
}

func newTestService(transport Transport, records RecordRepository) *Service {
	return NewService(transport, records, nil, slog.New(slog.DiscardHandler))
}

func testMessage() Message {
	return Message{
		From:     "no-reply@launchkit.dev",
		To:       []string{"alice@example.com"},
		Subject:  "Reset your password",
		TextBody: "Open the link to reset.",
		HTMLBody: "<p>Open the link to reset.</p>",
	}
}

func TestService_Send_RecordsSuccessfulDelivery(t *testing.T) {
	transport := &fakeTransport{}
	records := &fakeRecordRepository{}
	service := newTestService(transport, records)

	err := service.Send(context.Background(), testMessage())
	require.NoError(t, err)

	require.Len(t, records.records, 1)
	record := records.records[0]
	assert.Equal(t, StatusSent, record.Status)
	assert.Equal(t, "Reset your password", record.Subject)
	assert.Equal(t, "alice@example.com", record.ToEmails)
	assert.Equal(t, "Open the link to reset.", record.Body)
	assert.Equal(t, "<p>Open the link to reset.</p>", record.HTMLBody)
}

func TestService_Send_RecordsFailureThenPropagates(t *testing.T) {
	transportErr := errors.New("connection refused")
	transport := &fakeTransport{err: transportErr}
	records := &fakeRecordRepository{}
	service := newTestService(transport, records)

	err := service.Send(context.Background(), testMessage())
	require.ErrorIs(t, err, transportErr)

	// Exactly one audit row even though delivery failed.
	require.Len(t, records.records, 1)
	record := records.records[0]
	assert.Equal(t, StatusFailed, record.Status)
	assert.Equal(t, FailedSubjectPrefix+"Reset your password", record.Subject)
	assert.Contains(t, record.Body, "connection refused")
	assert.Contains(t, record.Body, "Open the link to reset.")
	// The HTML body is kept verbatim so staff can see what would have gone out.
	assert.Equal(t, "<p>Open the link to reset.</p>", record.HTMLBody)
}

func TestService_Send_AuditFailureSurfacesFirst(t *testing.T) {
	storeErr := errors.New("insert failed")
	transport := &fakeTransport{}
	records := &fakeRecordRepository{createErr: storeErr}
	service := newTestService(transport, records)

	err := service.Send(context.Background(), testMessage())
	require.ErrorIs(t, err, storeErr)
}

func TestService_Send_JoinsAddressLists(t *testing.T) {
	transport := &fakeTransport{}
	records := &fakeRecordRepository{}
	service := newTestService(transport, records)

	message := testMessage()
	message.To = []string{"alice@example.com", "bob@example.com"}
	message.Cc = []string{"carol@example.com"}

	require.NoError(t, service.Send(context.Background(), message))

	require.Len(t, records.records, 1)
	assert.Equal(t, "alice@example.com, bob@example.com", records.records[0].ToEmails)
	assert.Equal(t, "carol@example.com", records.records[0].CcEmails)
}

func TestMessage_Recipients(t *testing.T) {
	message := Message{
		To:  []string{"a@example.com"},
		Cc:  []string{"b@example.com"},
		Bcc: []string{"c@example.com"},
	}

	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, message.Recipients())
}

func TestBuildPayload_MultipartWhenHTMLPresent(t *testing.T) {
	message := testMessage()
	message.Bcc = []string{"hidden@example.com"}

	payload := string(buildPayload("LaunchKit", message))

	assert.Contains(t, payload, "From: LaunchKit <no-reply@launchkit.dev>")
	assert.Contains(t, payload, "Content-Type: multipart/alternative")
	assert.Contains(t, payload, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, payload, "Content-Type: text/html; charset=UTF-8")
	// Bcc recipients never leak into the headers.
	assert.NotContains(t, payload, "hidden@example.com")
}

func TestBuildPayload_PlainTextOnly(t *testing.T) {
	message := testMessage()
	message.HTMLBody = ""

	payload := string(buildPayload("", message))

	assert.True(t, strings.HasPrefix(payload, "From: no-reply@launchkit.dev\r\n"))
	assert.NotContains(t, payload, "multipart/alternative")
}

func TestRenderPasswordReset(t *testing.T) {
	textBody, htmlBody, err := RenderPasswordReset(PasswordResetData{
		ProjectName: "LaunchKit",
		ResetURL:    "https://app.launchkit.dev/auth/reset-password?uid=abc&token=xyz",
		ExpiryMin:   60,
	})
	require.NoError(t, err)

	assert.Contains(t, textBody, "LaunchKit")
	assert.Contains(t, textBody, "uid=abc&token=xyz")
	assert.Contains(t, textBody, "60 minutes")
	assert.Contains(t, htmlBody, `href="https://app.launchkit.dev/auth/reset-password?uid=abc&amp;token=xyz"`)
}

func TestPasswordResetURL(t *testing.T) {
	url := PasswordResetURL("https://app.launchkit.dev", "dXNlcg", "tok123")
	assert.Equal(t, "https://app.launchkit.dev/auth/reset-password?uid=dXNlcg&token=tok123", url)
}
