// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesRecordedSignals(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(registry)

	collector.RecordEmailSent()
	collector.RecordJobProcessed("completed")
	collector.SetPendingJobs(7)

	recorder := httptest.NewRecorder()
	Handler(registry).ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, recorder.Code)
	body := recorder.Body.String()
	assert.Contains(t, body, "launchkit_emails_sent_total 1")
	assert.Contains(t, body, `launchkit_jobs_processed_total{status="completed"} 1`)
	assert.Contains(t, body, "launchkit_jobs_pending 7")
}

func TestCollector_NilIsSafe(t *testing.T) {
	var collector *Collector

	assert.NotPanics(t, func() {
		collector.RecordEmailSent()
		collector.RecordEmailFailed()
		collector.RecordJobRetried()
		collector.RecordJobExhausted()
		collector.RecordLoginFailure()
		collector.RecordLoginLockout()
		collector.SetPendingJobs(3)
	})
}
