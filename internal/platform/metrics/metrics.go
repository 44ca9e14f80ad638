// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

// Package metrics provides Prometheus instrumentation for the API server
// and the background worker.
//
// # Architecture
//
// A single [Collector] is created at startup and injected into the layers
// that produce signals (HTTP middleware, mail service, job runner, login
// flow). All recording methods are nil-safe so that tests and tools can
// pass a nil collector without guards at every call site.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates the Prometheus instruments for the whole application.
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  prometheus.Histogram
	emailsSent    prometheus.Counter
	emailsFailed  prometheus.Counter
	jobsProcessed *prometheus.CounterVec
	jobsRetried   prometheus.Counter
	jobsExhausted prometheus.Counter
	loginLockouts prometheus.Counter
	loginFailures prometheus.Counter
	pendingJobs   prometheus.Gauge
}

// NewCollector creates a Collector and registers its instruments on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchkit_http_requests_total",
			Help: "Total HTTP responses by status code.",
		}, []string{"status_code"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "launchkit_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		emailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launchkit_emails_sent_total",
			Help: "Total emails handed to the transport successfully.",
		}),
		emailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launchkit_emails_failed_total",
			Help: "Total emails the transport rejected.",
		}),
		jobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchkit_jobs_processed_total",
			Help: "Total background jobs by terminal status.",
		}, []string{"status"}),
		jobsRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launchkit_jobs_retried_total",
			Help: "Total job attempts that were rescheduled for retry.",
		}),
		jobsExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launchkit_jobs_exhausted_total",
			Help: "Total jobs that failed permanently after exhausting retries.",
		}),
		loginLockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launchkit_login_lockouts_total",
			Help: "Total login attempts rejected by the lockout policy.",
		}),
		loginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launchkit_login_failures_total",
			Help: "Total failed login attempts.",
		}),
		pendingJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "launchkit_jobs_pending",
			Help: "Number of jobs currently waiting in the queue.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.emailsSent,
		c.emailsFailed,
		c.jobsProcessed,
		c.jobsRetried,
		c.jobsExhausted,
		c.loginLockouts,
		c.loginFailures,
		c.pendingJobs,
	)

	return c
}

// RecordHTTPRequest records one HTTP response and its latency.
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// RecordEmailSent records one successful transport delivery.
func (c *Collector) RecordEmailSent() {
	if c == nil {
		return
	}
	c.emailsSent.Inc()
}

// RecordEmailFailed records one transport delivery failure.
func (c *Collector) RecordEmailFailed() {
	if c == nil {
		return
	}
	c.emailsFailed.Inc()
}

// RecordJobProcessed records a job reaching a terminal status ("completed" or "failed").
func (c *Collector) RecordJobProcessed(status string) {
	if c == nil {
		return
	}
	c.jobsProcessed.WithLabelValues(status).Inc()
}

// RecordJobRetried records a job attempt that was rescheduled.
func (c *Collector) RecordJobRetried() {
	if c == nil {
		return
	}
	c.jobsRetried.Inc()
}

// RecordJobExhausted records a job that failed permanently.
func (c *Collector) RecordJobExhausted() {
	if c == nil {
		return
	}
	c.jobsExhausted.Inc()
}

// RecordLoginLockout records a login attempt blocked by the lockout policy.
func (c *Collector) RecordLoginLockout() {
	if c == nil {
		return
	}
	c.loginLockouts.Inc()
}

// RecordLoginFailure records a failed login attempt.
func (c *Collector) RecordLoginFailure() {
	if c == nil {
		return
	}
	c.loginFailures.Inc()
}

// SetPendingJobs updates the queue-depth gauge.
func (c *Collector) SetPendingJobs(count int) {
	if c == nil {
		return
	}
	c.pendingJobs.Set(float64(count))
}

// Handler returns the HTTP handler that serves the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
