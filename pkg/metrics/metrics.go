package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestCounter counts processed HTTP requests.
	HTTPRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestDuration observes HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskboard_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// RateLimitedRequests counts requests rejected by the global limiter.
	RateLimitedRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskboard_http_rate_limited_total",
			Help: "Requests rejected by the global rate limiter.",
		},
	)

	// TokensIssued counts single-use email tokens by purpose.
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_email_tokens_issued_total",
			Help: "Single-use email tokens issued.",
		},
		[]string{"purpose"},
	)

	// TokensConsumed counts redemption attempts by purpose and outcome
	// ("consumed", "not_found", "expired", "error").
	TokensConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_email_tokens_consumed_total",
			Help: "Single-use email token redemption attempts.",
		},
		[]string{"purpose", "outcome"},
	)

	// TokensPruned counts expired tokens removed by the cleanup worker.
	TokensPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskboard_email_tokens_pruned_total",
			Help: "Expired email tokens deleted by the cleanup worker.",
		},
	)

	// MailsSent counts mail dispatch attempts by template and result.
	MailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_mails_sent_total",
			Help: "Transactional mail dispatch attempts.",
		},
		[]string{"template", "result"},
	)

	// Logins counts sign-in attempts by result ("success", "failure").
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_logins_total",
			Help: "Sign-in attempts.",
		},
		[]string{"result"},
	)

	// AppInfo exposes the running version.
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "taskboard_app_info",
			Help: "Information about the taskboard application.",
		},
		[]string{"version"},
	)
)

// SetVersion publishes the application version on AppInfo.
func SetVersion(version string) {
	if version == "" {
		version = "unknown"
	}
	AppInfo.With(prometheus.Labels{"version": version}).Set(1)
}
