// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package tasks

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit/internal/accounts"
	"github.com/launchkit/launchkit/internal/jobs"
	"github.com/launchkit/launchkit/internal/mail"
	"github.com/launchkit/launchkit/internal/platform/config"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []mail.Message
	sendErr  error
	sendOnce func(message mail.Message)
}

func (sender *fakeSender) Send(_ context.Context, message mail.Message) error {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.sent = append(sender.sent, message)
	if sender.sendOnce != nil {
		sender.sendOnce(message)
	}
	return sender.sendErr
}

type fakeQueueRepository struct {
	queued  []jobs.Job
	pending int
}

func (repository *fakeQueueRepository) Enqueue(_ context.Context, queue, jobType string, payload json.RawMessage) (*jobs.Job, error) {
	job := jobs.Job{Queue: queue, Type: jobType, Payload: payload}
	repository.queued = append(repository.queued, job)
	return &job, nil
}

func (repository *fakeQueueRepository) EnqueueAt(_ context.Context, queue, jobType string, payload json.RawMessage, _ time.Time) (*jobs.Job, error) {
	return repository.Enqueue(context.Background(), queue, jobType, payload)
}

func (repository *fakeQueueRepository) ClaimNext(context.Context, string) (*jobs.Job, error) {
	return nil, nil
}

func (repository *fakeQueueRepository) MarkCompleted(context.Context, string) error { return nil }

func (repository *fakeQueueRepository) Reschedule(context.Context, string, time.Time, string) error {
	return nil
}

func (repository *fakeQueueRepository) MarkFailed(context.Context, string, string) error { return nil }

func (repository *fakeQueueRepository) CountPending(context.Context, string) (int, error) {
	return repository.pending, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ProjectName:          "LaunchKit",
		FrontendURL:          "https://app.launchkit.dev",
		DefaultFromEmail:     "no-reply@launchkit.dev",
		ResetTokenTTLMinutes: 60,
		DBConnWarnThreshold:  80,
	}
}

func TestEnqueuerEncodesPayload(t *testing.T) {
	repository := &fakeQueueRepository{}
	enqueuer := NewEnqueuer(repository)

	err := enqueuer.EnqueueTask(context.Background(), jobs.TypeSendEmail, SendEmailPayload{
		To:      []string{"ada@example.com"},
		Subject: "Welcome",
	})
	require.NoError(t, err)

	require.Len(t, repository.queued, 1)
	assert.Equal(t, jobs.QueueDefault, repository.queued[0].Queue)
	assert.Equal(t, jobs.TypeSendEmail, repository.queued[0].Type)

	var decoded SendEmailPayload
	require.NoError(t, json.Unmarshal(repository.queued[0].Payload, &decoded))
	assert.Equal(t, []string{"ada@example.com"}, decoded.To)
}

func TestSendEmailHandlerUsesConfiguredSender(t *testing.T) {
	sender := &fakeSender{}
	handler := SendEmailHandler(sender, testConfig())

	payload, err := jobs.EncodePayload(SendEmailPayload{
		To:       []string{"ada@example.com"},
		Cc:       []string{"grace@example.com"},
		Subject:  "Welcome",
		TextBody: "Hello",
	})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), payload))

	require.Len(t, sender.sent, 1)
	message := sender.sent[0]
	assert.Equal(t, "no-reply@launchkit.dev", message.From)
	assert.Equal(t, []string{"ada@example.com"}, message.To)
	assert.Equal(t, []string{"grace@example.com"}, message.Cc)
	assert.Equal(t, "Welcome", message.Subject)
}

func TestSendEmailHandlerRejectsMalformedPayload(t *testing.T) {
	handler := SendEmailHandler(&fakeSender{}, testConfig())

	err := handler(context.Background(), json.RawMessage(`{not json`))
	assert.Error(t, err)
}

func TestSendPasswordResetEmailHandlerRendersLink(t *testing.T) {
	sender := &fakeSender{}
	handler := SendPasswordResetEmailHandler(sender, testConfig())

	payload, err := jobs.EncodePayload(accounts.PasswordResetEmailPayload{
		Email: "ada@example.com",
		UID:   "dWlk",
		Token: "opaque-token",
	})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), payload))

	require.Len(t, sender.sent, 1)
	message := sender.sent[0]
	assert.Equal(t, []string{"ada@example.com"}, message.To)
	assert.Contains(t, message.Subject, "LaunchKit")
	assert.Contains(t, message.TextBody, "https://app.launchkit.dev/auth/reset-password?uid=dWlk&token=opaque-token")
	assert.NotEmpty(t, message.HTMLBody)
}

func TestMonitorEmailQueueSamplesPendingCount(t *testing.T) {
	repository := &fakeQueueRepository{pending: 3}
	task := MonitorEmailQueue(repository, nil, slog.New(slog.DiscardHandler))

	assert.Equal(t, "monitor_email_queue", task.Name)
	assert.Equal(t, QueueMonitorInterval, task.Interval)
	require.NoError(t, task.Run(context.Background()))
}
